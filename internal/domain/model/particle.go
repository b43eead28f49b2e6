// Package model contains domain models passed between layers.
package model

// ParticleType enumerates the reconstructed object kinds carried by an Event.
type ParticleType int

// Particle kinds.
const (
	Muon ParticleType = iota
	Electron
	Jet
	Tau
	Photon
	Lepton
	Track
	LargeRJet
)

var particleNames = [...]string{
	Muon:      "muon",
	Electron:  "electron",
	Jet:       "jet",
	Tau:       "tau",
	Photon:    "photon",
	Lepton:    "lepton",
	Track:     "track",
	LargeRJet: "largeRjet",
}

// Display tags shown by the event viewer, one per particle kind.
var particleColors = [...]string{
	Muon:      "#ff6b6b",
	Electron:  "#7fbbb3",
	Jet:       "#dbbc7f",
	Tau:       "#d699b6",
	Photon:    "#a7c080",
	Lepton:    "#ff6b6b",
	Track:     "#7fbbb3",
	LargeRJet: "#e5c07b",
}

// String returns the serialized name of the particle kind.
func (t ParticleType) String() string {
	if t < 0 || int(t) >= len(particleNames) {
		return "unknown"
	}
	return particleNames[t]
}

// Color returns the display tag for the particle kind.
func (t ParticleType) Color() string {
	if t < 0 || int(t) >= len(particleColors) {
		return "#ffffff"
	}
	return particleColors[t]
}

// ParseParticleType maps a serialized name back to its kind.
func ParseParticleType(s string) (ParticleType, bool) {
	for i, name := range particleNames {
		if name == s {
			return ParticleType(i), true
		}
	}
	return 0, false
}

// Particle is one reconstructed object. Kinematic scalars are stored
// already rounded: 3 decimals for pt, eta, phi and the Cartesian
// components, 4 decimals for mass.
type Particle struct {
	Type   ParticleType
	Pt     float64
	Eta    float64
	Phi    float64
	Mass   float64
	Px     float64
	Py     float64
	Pz     float64
	Energy float64
}

// Color returns the display tag derived from the particle type.
func (p Particle) Color() string { return p.Type.Color() }
