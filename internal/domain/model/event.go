package model

import (
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

// Experiment identifies the detector data layout of a dataset.
type Experiment int

// Known experiments. ExperimentAuto asks the detector to choose.
const (
	ExperimentAuto Experiment = iota
	ExperimentCMS
	ExperimentATLAS
	ExperimentALICE
)

// String returns the tag written to output documents.
func (e Experiment) String() string {
	switch e {
	case ExperimentCMS:
		return "CMS"
	case ExperimentATLAS:
		return "ATLAS"
	case ExperimentALICE:
		return "ALICE"
	default:
		return "AUTO"
	}
}

// ParseExperiment accepts auto, cms, atlas or alice in any case.
func ParseExperiment(s string) (Experiment, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "auto":
		return ExperimentAuto, nil
	case "cms":
		return ExperimentCMS, nil
	case "atlas":
		return ExperimentATLAS, nil
	case "alice":
		return ExperimentALICE, nil
	}
	return ExperimentAuto, errors.Wrapf(ErrUnknownExperiment, "%q", s)
}

// Event is one collision record that survived selection.
// Index is the 0-based position of the row in the scan.
type Event struct {
	Index           int64
	Experiment      Experiment
	HT              float64
	MET             float64
	LeadingLeptonPt float64
	METPt           float64
	METPhi          float64
	NBJets          int
	Particles       []Particle
}

// HistogramBins is the number of bins in the ht and met distributions.
const HistogramBins = 20

// RunMetadata summarizes one processed dataset.
type RunMetadata struct {
	SourceFile           string
	Experiment           Experiment
	TreeName             string
	TotalScanned         int64
	FilteredEvents       int
	ProcessingTimeSec    float64
	EventsPerSec         int64
	Processor            string
	ProcessedAt          time.Time
	ParticleTypes        []string
	HTDistribution       []int
	METDistribution      []int
	AvgParticlesPerEvent float64
}

// Result is the final document handed to the serializer.
type Result struct {
	Metadata RunMetadata
	Events   []Event
}
