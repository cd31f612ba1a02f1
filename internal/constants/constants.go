// Package constants holds physical constants and unit conversions used by
// the cosmology and lens models.
//
// Distances are in Mpc, masses in solar masses, angles on the sky in arcsec.
package constants

import "math"

const (
	SpeedOfLight = 299792458.0            // m / s
	G            = 6.67430e-11            // m^3 / (kg s^2)
	SolarMass    = 1.988409870698051e30   // kg
	Parsec       = 3.0856775814913673e16  // m
	Mpc          = 1e6 * Parsec           // m
	ArcsecToRad  = math.Pi / (180 * 3600) // rad / arcsec
	RadToArcsec  = 1 / ArcsecToRad        // arcsec / rad

	// CMpcPerS is the speed of light in Mpc / s.
	CMpcPerS = SpeedOfLight / Mpc

	// KmToMpc converts kilometres to Mpc.
	KmToMpc = 1e3 / Mpc

	// GOverC2 is G / c^2 in Mpc / solar mass.
	GOverC2 = G * SolarMass / (SpeedOfLight * SpeedOfLight) / Mpc

	// GMpc is G in Mpc^3 / (solar mass s^2).
	GMpc = G * SolarMass / (Mpc * Mpc * Mpc)
)
