// Package analysis measures the structure of lensed images.
//
//   - [RadialProfile]: azimuthally averaged brightness in annuli
//   - [RingRadius]: radius of the brightest annulus, an Einstein radius estimate
//   - [AzimuthalPower]: multipole power of the brightness along a circle
//
// An SIS lensing a source on the optical axis gives a complete ring: the
// profile peaks at the Einstein radius and the azimuthal power sits in the
// m = 0 mode. Off-axis sources and shear move power into m = 1 and m = 2.
//
//	prof, _ := analysis.RadialProfile(img, x, y, 0, 0, 40)
//	theta := analysis.RingRadius(prof)
package analysis
