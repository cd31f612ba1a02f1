// Package lens implements thin gravitational lenses. Image-plane
// coordinates are in arcsec and every lens carries its redshift z_l as a
// param.
package lens

import (
	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

// core softens the centre of singular profiles, in arcsec.
const core = 1e-8

type Lens interface {
	param.Node
	Deflection(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (ax, ay *tensor.Tensor, err error)
	Convergence(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error)
	Potential(x, y, zs *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error)
}

// RayTrace maps image-plane positions to the source plane: beta = theta - alpha.
func RayTrace(l Lens, x, y, zs *tensor.Tensor, params *param.Packed) (bx, by *tensor.Tensor, err error) {
	ax, ay, err := l.Deflection(x, y, zs, params, nil)
	if err != nil {
		return nil, nil, err
	}
	return x.Sub(ax), y.Sub(ay), nil
}

type named struct {
	name  string
	value *tensor.Tensor
}

// newThinLens creates the module of a lens at z_l that owns cosmo under the
// "cosmology" slot.
func newThinLens(name string, cosmo cosmology.Cosmology, zl *tensor.Tensor, params ...named) (*param.Module, error) {
	m := param.NewModule(name)
	if cosmo != nil {
		if err := m.AddModule("cosmology", cosmo); err != nil {
			return nil, err
		}
	}
	if err := m.AddParam("z_l", zl, nil); err != nil {
		return nil, err
	}
	for _, p := range params {
		if err := m.AddParam(p.name, p.value, nil); err != nil {
			return nil, err
		}
	}
	return m, nil
}

// centered returns x - x0, y - y0 and the softened radius.
func centered(x, y, x0, y0 *tensor.Tensor) (dx, dy, r *tensor.Tensor) {
	dx, dy = x.Sub(x0), y.Sub(y0)
	r = dx.Mul(dx).Add(dy.Mul(dy)).AddScalar(core * core).Sqrt()
	return dx, dy, r
}
