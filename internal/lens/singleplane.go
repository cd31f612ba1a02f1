package lens

import (
	"fmt"

	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

// SinglePlane sums the deflections of several lenses that sit at the same
// redshift and share one cosmology.
type SinglePlane struct {
	*param.Module
	lenses []Lens
}

// NewSinglePlane attaches cosmo and then each lens under "lens_<i>". Lenses
// built on the same cosmology share it as one module.
func NewSinglePlane(name string, cosmo cosmology.Cosmology, lenses ...Lens) (*SinglePlane, error) {
	p := &SinglePlane{Module: param.NewModule(name)}
	if cosmo != nil {
		if err := p.AddModule("cosmology", cosmo); err != nil {
			return nil, err
		}
	}
	for i, l := range lenses {
		if err := p.AddModule(fmt.Sprintf("lens_%d", i), l); err != nil {
			return nil, err
		}
		p.lenses = append(p.lenses, l)
	}
	return p, nil
}

func (p *SinglePlane) Lenses() []Lens {
	return append([]Lens(nil), p.lenses...)
}

// Deflection adds up the member deflections. Overrides are not forwarded:
// member lenses resolve their params from the packed container only.
func (p *SinglePlane) Deflection(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, *tensor.Tensor, error) {
	ax, ay := tensor.Zeros(x.Shape()), tensor.Zeros(y.Shape())
	for _, l := range p.lenses {
		dx, dy, err := l.Deflection(x, y, zs, params, nil)
		if err != nil {
			return nil, nil, err
		}
		ax, ay = ax.Add(dx), ay.Add(dy)
	}
	return ax, ay, nil
}

func (p *SinglePlane) Convergence(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	return p.sum(x, func(l Lens) (*tensor.Tensor, error) {
		return l.Convergence(x, y, zs, params, nil)
	})
}

func (p *SinglePlane) Potential(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	return p.sum(x, func(l Lens) (*tensor.Tensor, error) {
		return l.Potential(x, y, zs, params, nil)
	})
}

func (p *SinglePlane) sum(x *tensor.Tensor, fn func(Lens) (*tensor.Tensor, error)) (*tensor.Tensor, error) {
	total := tensor.Zeros(x.Shape())
	for _, l := range p.lenses {
		v, err := fn(l)
		if err != nil {
			return nil, err
		}
		total = total.Add(v)
	}
	return total, nil
}
