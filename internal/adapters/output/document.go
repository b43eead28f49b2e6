// Package output serializes processing results as JSON documents and
// writes them to the processed-datasets directory.
package output

import (
	"bytes"
	"encoding/json"
	"math"

	"github.com/CeoatNorthstar/openCern/internal/domain/model"
)

// TimeLayout is the processed_at format: local time, second precision, no zone.
const TimeLayout = "2006-01-02T15:04:05"

// Float is a float64 that encodes NaN and infinities as null.
type Float float64

var null = []byte("null")

func (f Float) MarshalJSON() ([]byte, error) {
	v := float64(f)
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return null, nil
	}
	return json.Marshal(v)
}

func (f *Float) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*f = Float(math.NaN())
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*f = Float(v)
	return nil
}

// Document is the wire form of a model.Result.
type Document struct {
	Metadata Metadata `json:"metadata"`
	Events   []Event  `json:"events"`
}

// Metadata is the wire form of model.RunMetadata.
type Metadata struct {
	SourceFile           string   `json:"source_file"`
	Experiment           string   `json:"experiment"`
	TreeName             string   `json:"tree_name"`
	TotalScanned         int64    `json:"total_scanned"`
	FilteredEvents       int      `json:"filtered_events"`
	ProcessingTimeSec    Float    `json:"processing_time_sec"`
	EventsPerSec         int64    `json:"events_per_sec"`
	Processor            string   `json:"processor"`
	ProcessedAt          string   `json:"processed_at"`
	ParticleTypes        []string `json:"particle_types"`
	HTDistribution       []int    `json:"ht_distribution"`
	METDistribution      []int    `json:"met_distribution"`
	AvgParticlesPerEvent Float    `json:"avg_particles_per_event"`
}

// Event is the wire form of model.Event.
type Event struct {
	Index           int64      `json:"index"`
	Experiment      string     `json:"experiment"`
	HT              Float      `json:"ht"`
	MET             Float      `json:"met"`
	LeadingLeptonPt Float      `json:"leading_lepton_pt"`
	METVector       Vector     `json:"met_vector"`
	Particles       []Particle `json:"particles"`
}

// Vector is the missing transverse energy magnitude and azimuth.
type Vector struct {
	Pt  Float `json:"pt"`
	Phi Float `json:"phi"`
}

// Particle is the wire form of model.Particle.
type Particle struct {
	Type   string `json:"type"`
	Color  string `json:"color"`
	Pt     Float  `json:"pt"`
	Eta    Float  `json:"eta"`
	Phi    Float  `json:"phi"`
	Mass   Float  `json:"mass"`
	Px     Float  `json:"px"`
	Py     Float  `json:"py"`
	Pz     Float  `json:"pz"`
	Energy Float  `json:"energy"`
}

// FromResult converts a result to its wire form. Empty collections encode
// as [] rather than null.
func FromResult(res *model.Result) *Document {
	md := res.Metadata
	doc := &Document{
		Metadata: Metadata{
			SourceFile:           md.SourceFile,
			Experiment:           md.Experiment.String(),
			TreeName:             md.TreeName,
			TotalScanned:         md.TotalScanned,
			FilteredEvents:       md.FilteredEvents,
			ProcessingTimeSec:    Float(md.ProcessingTimeSec),
			EventsPerSec:         md.EventsPerSec,
			Processor:            md.Processor,
			ProcessedAt:          md.ProcessedAt.Format(TimeLayout),
			ParticleTypes:        nonNil(md.ParticleTypes),
			HTDistribution:       nonNil(md.HTDistribution),
			METDistribution:      nonNil(md.METDistribution),
			AvgParticlesPerEvent: Float(md.AvgParticlesPerEvent),
		},
		Events: make([]Event, len(res.Events)),
	}
	for i := range res.Events {
		doc.Events[i] = FromEvent(&res.Events[i])
	}
	return doc
}

// FromEvent converts one event to its wire form.
func FromEvent(ev *model.Event) Event {
	out := Event{
		Index:           ev.Index,
		Experiment:      ev.Experiment.String(),
		HT:              Float(ev.HT),
		MET:             Float(ev.MET),
		LeadingLeptonPt: Float(ev.LeadingLeptonPt),
		METVector:       Vector{Pt: Float(ev.METPt), Phi: Float(ev.METPhi)},
		Particles:       make([]Particle, len(ev.Particles)),
	}
	for i, p := range ev.Particles {
		out.Particles[i] = Particle{
			Type:   p.Type.String(),
			Color:  p.Color(),
			Pt:     Float(p.Pt),
			Eta:    Float(p.Eta),
			Phi:    Float(p.Phi),
			Mass:   Float(p.Mass),
			Px:     Float(p.Px),
			Py:     Float(p.Py),
			Pz:     Float(p.Pz),
			Energy: Float(p.Energy),
		}
	}
	return out
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
