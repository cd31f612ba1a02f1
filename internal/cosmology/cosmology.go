// Package cosmology computes the distances and densities lensing needs from
// a background cosmology. Distances are in Mpc, densities in solar masses
// per Mpc^3 (or Mpc^2 for surface densities).
package cosmology

import (
	"math"

	"github.com/san-kum/caustics/internal/constants"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

// Planck18 values without radiation.
const (
	H0Default  = 0.6766
	Om0Default = 0.30966
)

// CriticalDensity0Default is the critical density today for H0Default.
var CriticalDensity0Default = CriticalDensity0(H0Default)

// CriticalDensity0 returns 3 H0^2 / (8 pi G) in solar masses per Mpc^3 for
// the dimensionless Hubble parameter h.
func CriticalDensity0(h float64) float64 {
	H0 := 100 * h * constants.KmToMpc
	return 3 * H0 * H0 / (8 * math.Pi * constants.GMpc)
}

// HubbleDistance returns c / H0 in Mpc.
func HubbleDistance(h0 *tensor.Tensor) *tensor.Tensor {
	return h0.RDivScalar(constants.CMpcPerS / (100 * constants.KmToMpc))
}

type Cosmology interface {
	param.Node
	CriticalDensity(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error)
	ComovingDistance(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error)
	TransverseComovingDistance(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error)
}

func ComovingDistanceZ1Z2(c Cosmology, z1, z2 *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	d1, err := c.ComovingDistance(z1, params, ov)
	if err != nil {
		return nil, err
	}
	d2, err := c.ComovingDistance(z2, params, ov)
	if err != nil {
		return nil, err
	}
	return d2.Sub(d1), nil
}

func TransverseComovingDistanceZ1Z2(c Cosmology, z1, z2 *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	d1, err := c.TransverseComovingDistance(z1, params, ov)
	if err != nil {
		return nil, err
	}
	d2, err := c.TransverseComovingDistance(z2, params, ov)
	if err != nil {
		return nil, err
	}
	return d2.Sub(d1), nil
}

func AngularDiameterDistance(c Cosmology, z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	d, err := c.ComovingDistance(z, params, ov)
	if err != nil {
		return nil, err
	}
	return d.Div(z.AddScalar(1)), nil
}

// AngularDiameterDistanceZ1Z2 is the angular diameter distance of z2 seen
// from z1.
func AngularDiameterDistanceZ1Z2(c Cosmology, z1, z2 *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	d, err := ComovingDistanceZ1Z2(c, z1, z2, params, ov)
	if err != nil {
		return nil, err
	}
	return d.Div(z2.AddScalar(1)), nil
}

// planeDistances returns D_l, D_s and D_ls.
func planeDistances(c Cosmology, zl, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (dl, ds, dls *tensor.Tensor, err error) {
	if dl, err = AngularDiameterDistance(c, zl, params, ov); err != nil {
		return
	}
	if ds, err = AngularDiameterDistance(c, zs, params, ov); err != nil {
		return
	}
	dls, err = AngularDiameterDistanceZ1Z2(c, zl, zs, params, ov)
	return
}

func TimeDelayDistance(c Cosmology, zl, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	dl, ds, dls, err := planeDistances(c, zl, zs, params, ov)
	if err != nil {
		return nil, err
	}
	return zl.AddScalar(1).Mul(dl).Mul(ds).Div(dls), nil
}

// CriticalSurfaceDensity returns D_s / (4 pi G/c^2 D_l D_ls) in solar masses
// per Mpc^2.
func CriticalSurfaceDensity(c Cosmology, zl, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	dl, ds, dls, err := planeDistances(c, zl, zs, params, ov)
	if err != nil {
		return nil, err
	}
	return ds.Div(dl.Mul(dls).MulScalar(4 * math.Pi * constants.GOverC2)), nil
}
