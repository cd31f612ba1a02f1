package lens

import (
	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var (
	sisDeflection  = param.Declare("SIS.Deflection", "x0", "y0", "th_ein")
	sisConvergence = param.Declare("SIS.Convergence", "x0", "y0", "th_ein")
	sisPotential   = param.Declare("SIS.Potential", "x0", "y0", "th_ein")
)

// SIS is a singular isothermal sphere described by its Einstein radius.
type SIS struct {
	*param.Module
}

// NewSIS builds a singular isothermal sphere. Nil values leave the matching
// param dynamic.
func NewSIS(name string, cosmo cosmology.Cosmology, zl, x0, y0, thEin *tensor.Tensor) (*SIS, error) {
	m, err := newThinLens(name, cosmo, zl,
		named{"x0", x0}, named{"y0", y0}, named{"th_ein", thEin})
	if err != nil {
		return nil, err
	}
	return &SIS{Module: m}, nil
}

func (l *SIS) Deflection(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, *tensor.Tensor, error) {
	v, err := sisDeflection.Resolve(l, params, ov)
	if err != nil {
		return nil, nil, err
	}
	dx, dy, r := centered(x, y, v.Get("x0"), v.Get("y0"))
	scale := v.Get("th_ein").Div(r)
	return dx.Mul(scale), dy.Mul(scale), nil
}

func (l *SIS) Convergence(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := sisConvergence.Resolve(l, params, ov)
	if err != nil {
		return nil, err
	}
	_, _, r := centered(x, y, v.Get("x0"), v.Get("y0"))
	return v.Get("th_ein").Div(r.MulScalar(2)), nil
}

func (l *SIS) Potential(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := sisPotential.Resolve(l, params, ov)
	if err != nil {
		return nil, err
	}
	_, _, r := centered(x, y, v.Get("x0"), v.Get("y0"))
	return v.Get("th_ein").Mul(r), nil
}
