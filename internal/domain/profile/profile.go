// Package profile holds the static per-experiment layout descriptors:
// candidate container names, column names, units and selection cuts.
package profile

import (
	"strings"

	"github.com/CeoatNorthstar/openCern/internal/domain/kinematics"
	"github.com/CeoatNorthstar/openCern/internal/domain/model"
)

// Field names a canonical per-particle quantity.
type Field int

// Canonical per-particle fields.
const (
	FieldPt Field = iota
	FieldEta
	FieldPhi
	FieldMass
	FieldEnergy
	FieldCode
	FieldBTag
)

func (f Field) String() string {
	switch f {
	case FieldPt:
		return "pt"
	case FieldEta:
		return "eta"
	case FieldPhi:
		return "phi"
	case FieldMass:
		return "mass"
	case FieldEnergy:
		return "energy"
	case FieldCode:
		return "code"
	case FieldBTag:
		return "btag"
	}
	return "unknown"
}

// Column is a native column name with an optional alternate spelling,
// tried only when Name is missing.
type Column struct {
	Name string
	Alt  string
}

// Collection describes one per-particle array family, e.g. all Muon_* columns.
type Collection struct {
	Type    model.ParticleType
	Columns map[Field]Column
	// DefaultMass is used by mass-given profiles when no mass column is bound.
	DefaultMass float64
	// Lepton collections feed leading_lepton_pt.
	Lepton bool
	// Jet collections feed ht and the leading-jet cut.
	Jet bool
	// Subtyped collections resolve Type per element from FieldCode.
	Subtyped bool
}

// Thresholds are the inclusive lower cuts applied to an event, in GeV.
type Thresholds struct {
	Lepton float64
	MET    float64
	Jet    float64
}

// Profile is the complete layout descriptor for one experiment.
type Profile struct {
	Experiment model.Experiment
	// Containers are tried in order when the experiment is forced.
	Containers []string
	// Signature columns scored by exact name.
	Signature []string
	// Fragments scored by substring: each column containing any fragment counts once.
	Fragments []string
	// UnitScale divides native momentum and energy values (1000 for MeV).
	UnitScale float64
	// Select is nil when every row is accepted.
	Select *Thresholds
	// ScanFactor multiplies the requested maximum to obtain the scan cap.
	ScanFactor    int
	Convention    kinematics.Convention
	MET           Column
	METPhi        Column
	BTagThreshold float64
	Collections   []Collection
}

// Score counts how many signature columns the available set contains.
func (p *Profile) Score(columns map[string]struct{}) int {
	score := 0
	for _, name := range p.Signature {
		if _, ok := columns[name]; ok {
			score++
		}
	}
	if len(p.Fragments) == 0 {
		return score
	}
	for name := range columns {
		for _, frag := range p.Fragments {
			if strings.Contains(name, frag) {
				score++
				break
			}
		}
	}
	return score
}

// SignatureSize is the number of exact signature columns, 0 for fragment scoring.
func (p *Profile) SignatureSize() int { return len(p.Signature) }

// Convert applies the profile's unit convention to a native momentum or energy.
func (p *Profile) Convert(v float64) float64 {
	if p.UnitScale == 0 || p.UnitScale == 1 {
		return v
	}
	return v / p.UnitScale
}
