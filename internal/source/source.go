// Package source holds surface brightness models of the lensed background.
package source

import (
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

type Source interface {
	param.Node
	Brightness(x, y *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error)
}

var gaussianBrightness = param.Declare("Gaussian.Brightness", "x0", "y0", "q", "phi", "sigma", "I0")

// Gaussian is an elliptical Gaussian blob with axis ratio q, position angle
// phi (radians) and peak intensity I0.
type Gaussian struct {
	*param.Module
}

// NewGaussian registers the six params in order; nil values stay dynamic.
func NewGaussian(name string, x0, y0, q, phi, sigma, i0 *tensor.Tensor) (*Gaussian, error) {
	g := &Gaussian{Module: param.NewModule(name)}
	for _, p := range []struct {
		name  string
		value *tensor.Tensor
	}{
		{"x0", x0}, {"y0", y0}, {"q", q}, {"phi", phi}, {"sigma", sigma}, {"I0", i0},
	} {
		if err := g.AddParam(p.name, p.value, nil); err != nil {
			return nil, err
		}
	}
	return g, nil
}

func (g *Gaussian) Brightness(x, y *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := gaussianBrightness.Resolve(g, params, ov)
	if err != nil {
		return nil, err
	}
	dx, dy := x.Sub(v.Get("x0")), y.Sub(v.Get("y0"))
	phi := v.Get("phi")
	c, s := phi.Cos(), phi.Sin()
	xr := dx.Mul(c).Add(dy.Mul(s))
	yr := dy.Mul(c).Sub(dx.Mul(s))

	q := v.Get("q")
	r2 := xr.Mul(xr).Mul(q).Add(yr.Mul(yr).Div(q))
	sigma := v.Get("sigma")
	return r2.Div(sigma.Mul(sigma).MulScalar(-2)).Exp().Mul(v.Get("I0")), nil
}
