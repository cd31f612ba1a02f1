package lens

import (
	"errors"

	"github.com/san-kum/caustics/internal/constants"
	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var (
	pointDeflection = param.Declare("Point.Deflection", "z_l", "x0", "y0", "mass")
	pointPotential  = param.Declare("Point.Potential", "z_l", "x0", "y0", "mass")
)

// ErrNoCosmology is returned when a lens that needs distances has none.
var ErrNoCosmology = errors.New("lens: no cosmology attached")

// Point is a point mass. Its Einstein radius follows from the mass and the
// distances of its cosmology.
type Point struct {
	*param.Module
	cosmo cosmology.Cosmology
}

// NewPoint builds a point mass lens; mass is in solar masses.
func NewPoint(name string, cosmo cosmology.Cosmology, zl, x0, y0, mass *tensor.Tensor) (*Point, error) {
	if cosmo == nil {
		return nil, ErrNoCosmology
	}
	m, err := newThinLens(name, cosmo, zl,
		named{"x0", x0}, named{"y0", y0}, named{"mass", mass})
	if err != nil {
		return nil, err
	}
	return &Point{Module: m, cosmo: cosmo}, nil
}

// EinsteinRadius returns sqrt(4 G M / c^2 D_ls / (D_l D_s)) in arcsec.
func (l *Point) EinsteinRadius(zl, zs, mass *tensor.Tensor, params *param.Packed) (*tensor.Tensor, error) {
	dl, err := cosmology.AngularDiameterDistance(l.cosmo, zl, params, nil)
	if err != nil {
		return nil, err
	}
	ds, err := cosmology.AngularDiameterDistance(l.cosmo, zs, params, nil)
	if err != nil {
		return nil, err
	}
	dls, err := cosmology.AngularDiameterDistanceZ1Z2(l.cosmo, zl, zs, params, nil)
	if err != nil {
		return nil, err
	}
	th := mass.MulScalar(4 * constants.GOverC2).Mul(dls).Div(dl.Mul(ds)).Sqrt()
	return th.MulScalar(constants.RadToArcsec), nil
}

func (l *Point) Deflection(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, *tensor.Tensor, error) {
	v, err := pointDeflection.Resolve(l, params, ov)
	if err != nil {
		return nil, nil, err
	}
	th, err := l.EinsteinRadius(v.Get("z_l"), zs, v.Get("mass"), params)
	if err != nil {
		return nil, nil, err
	}
	dx, dy, r := centered(x, y, v.Get("x0"), v.Get("y0"))
	scale := th.Mul(th).Div(r.Mul(r))
	return dx.Mul(scale), dy.Mul(scale), nil
}

// Convergence is zero away from the centre.
func (l *Point) Convergence(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	return tensor.Zeros(x.Shape()), nil
}

func (l *Point) Potential(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := pointPotential.Resolve(l, params, ov)
	if err != nil {
		return nil, err
	}
	th, err := l.EinsteinRadius(v.Get("z_l"), zs, v.Get("mass"), params)
	if err != nil {
		return nil, err
	}
	_, _, r := centered(x, y, v.Get("x0"), v.Get("y0"))
	return th.Mul(th).Mul(r.Log()), nil
}
