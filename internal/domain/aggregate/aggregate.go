// Package aggregate orders the accepted events, keeps the best by ht and
// derives the run summary.
package aggregate

import (
	"math"
	"sort"
	"time"

	"github.com/CeoatNorthstar/openCern/internal/domain/kinematics"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
	"go-hep.org/x/hep/hbook"
)

// ProcessorName identifies this implementation in output documents.
const ProcessorName = "Go (groot)"

// minElapsed bounds the throughput divisor.
const minElapsed = 0.001

// Run describes the scan an event set came from.
type Run struct {
	SourceFile  string
	Experiment  model.Experiment
	TreeName    string
	Scanned     int64
	Elapsed     time.Duration
	ProcessedAt time.Time
}

// Select sorts events by descending ht and keeps the first n. Equal ht
// values keep scan order. The input slice is reordered in place.
func Select(events []model.Event, n int) []model.Event {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].HT > events[j].HT
	})
	if n >= 0 && len(events) > n {
		events = events[:n]
	}
	return events
}

// Histogram bins values into model.HistogramBins equal-width bins over
// [min, max]. The maximum lands in the last bin. A degenerate range is
// widened to one unit. Non-finite values are not counted.
func Histogram(values []float64) []int {
	counts := make([]int, model.HistogramBins)

	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range values {
		if !finite(v) {
			continue
		}
		lo = math.Min(lo, v)
		hi = math.Max(hi, v)
	}
	if lo > hi {
		return counts
	}
	if hi <= lo {
		hi = lo + 1
	}

	h := hbook.NewH1D(model.HistogramBins, lo, hi)
	top := 0
	for _, v := range values {
		switch {
		case !finite(v):
		case v >= hi:
			// hbook treats the upper edge as overflow
			top++
		default:
			h.Fill(v, 1)
		}
	}
	for i := range counts {
		counts[i] = int(h.Value(i))
	}
	counts[model.HistogramBins-1] += top
	return counts
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }

// ParticleTypes returns the sorted set of particle type names present.
func ParticleTypes(events []model.Event) []string {
	seen := make(map[string]struct{})
	for i := range events {
		for _, p := range events[i].Particles {
			seen[p.Type.String()] = struct{}{}
		}
	}
	types := make([]string, 0, len(seen))
	for t := range seen {
		types = append(types, t)
	}
	sort.Strings(types)
	return types
}

// AvgParticles is the mean particle count per event, 0 for no events.
func AvgParticles(events []model.Event) float64 {
	if len(events) == 0 {
		return 0
	}
	total := 0
	for i := range events {
		total += len(events[i].Particles)
	}
	return kinematics.Round(float64(total)/float64(len(events)), 2)
}

// Assemble selects the output events and computes the run metadata.
func Assemble(run Run, events []model.Event, maxEvents int) *model.Result {
	kept := Select(events, maxEvents)

	ht := make([]float64, len(kept))
	met := make([]float64, len(kept))
	for i := range kept {
		ht[i] = kept[i].HT
		met[i] = kept[i].MET
	}

	secs := run.Elapsed.Seconds()
	return &model.Result{
		Metadata: model.RunMetadata{
			SourceFile:           run.SourceFile,
			Experiment:           run.Experiment,
			TreeName:             run.TreeName,
			TotalScanned:         run.Scanned,
			FilteredEvents:       len(kept),
			ProcessingTimeSec:    kinematics.Round(secs, 2),
			EventsPerSec:         int64(float64(run.Scanned) / math.Max(secs, minElapsed)),
			Processor:            ProcessorName,
			ProcessedAt:          run.ProcessedAt,
			ParticleTypes:        ParticleTypes(kept),
			HTDistribution:       Histogram(ht),
			METDistribution:      Histogram(met),
			AvgParticlesPerEvent: AvgParticles(kept),
		},
		Events: kept,
	}
}
