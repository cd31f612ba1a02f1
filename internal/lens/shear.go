package lens

import (
	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var (
	shearDeflection = param.Declare("ExternalShear.Deflection", "x0", "y0", "gamma_1", "gamma_2")
	shearPotential  = param.Declare("ExternalShear.Potential", "x0", "y0", "gamma_1", "gamma_2")
)

// ExternalShear is a constant shear field centred on (x0, y0).
type ExternalShear struct {
	*param.Module
}

func NewExternalShear(name string, cosmo cosmology.Cosmology, zl, x0, y0, gamma1, gamma2 *tensor.Tensor) (*ExternalShear, error) {
	m, err := newThinLens(name, cosmo, zl,
		named{"x0", x0}, named{"y0", y0}, named{"gamma_1", gamma1}, named{"gamma_2", gamma2})
	if err != nil {
		return nil, err
	}
	return &ExternalShear{Module: m}, nil
}

func (l *ExternalShear) Deflection(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, *tensor.Tensor, error) {
	v, err := shearDeflection.Resolve(l, params, ov)
	if err != nil {
		return nil, nil, err
	}
	g1, g2 := v.Get("gamma_1"), v.Get("gamma_2")
	dx, dy := x.Sub(v.Get("x0")), y.Sub(v.Get("y0"))
	ax := dx.Mul(g1).Add(dy.Mul(g2))
	ay := dx.Mul(g2).Sub(dy.Mul(g1))
	return ax, ay, nil
}

// Convergence of a pure shear is zero everywhere.
func (l *ExternalShear) Convergence(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	return tensor.Zeros(x.Shape()), nil
}

func (l *ExternalShear) Potential(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := shearPotential.Resolve(l, params, ov)
	if err != nil {
		return nil, err
	}
	g1, g2 := v.Get("gamma_1"), v.Get("gamma_2")
	dx, dy := x.Sub(v.Get("x0")), y.Sub(v.Get("y0"))
	psi := dx.Mul(dx).Sub(dy.Mul(dy)).Mul(g1).MulScalar(0.5)
	return psi.Add(dx.Mul(dy).Mul(g2)), nil
}
