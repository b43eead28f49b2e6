// Package kinematics converts collider coordinates (pt, eta, phi) into
// Cartesian four-vectors.
package kinematics

import "math"

// Convention selects which fourth component a collection provides.
type Convention int

const (
	// MassGiven: (pt, eta, phi, mass) -> energy is derived.
	MassGiven Convention = iota
	// EnergyGiven: (pt, eta, phi, energy) -> mass is derived.
	EnergyGiven
)

// FourVector holds the Cartesian momentum, energy and invariant mass.
type FourVector struct {
	Px, Py, Pz float64
	Energy     float64
	Mass       float64
}

func momentum(pt, eta, phi float64) (px, py, pz float64) {
	return pt * math.Cos(phi), pt * math.Sin(phi), pt * math.Sinh(eta)
}

// FromMass derives the energy from the momentum and the given mass.
func FromMass(pt, eta, phi, mass float64) FourVector {
	px, py, pz := momentum(pt, eta, phi)
	return FourVector{
		Px:     px,
		Py:     py,
		Pz:     pz,
		Energy: math.Sqrt(px*px + py*py + pz*pz + mass*mass),
		Mass:   mass,
	}
}

// FromEnergy derives the mass from the momentum and the given energy.
// A negative squared mass (off-shell input) yields mass 0.
func FromEnergy(pt, eta, phi, energy float64) FourVector {
	px, py, pz := momentum(pt, eta, phi)
	m2 := energy*energy - (px*px + py*py + pz*pz)
	mass := 0.0
	if m2 > 0 {
		mass = math.Sqrt(m2)
	}
	return FourVector{Px: px, Py: py, Pz: pz, Energy: energy, Mass: mass}
}

// MasslessEnergy is the energy of a massless object with the given pt and eta.
func MasslessEnergy(pt, eta float64) float64 {
	return pt * math.Cosh(eta)
}

// Round rounds v half away from zero to the given number of decimals.
func Round(v float64, decimals int) float64 {
	f := math.Pow(10, float64(decimals))
	return math.Round(v*f) / f
}
