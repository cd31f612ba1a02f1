package cosmology

import (
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var (
	lcdmCriticalDensity  = param.Declare("FlatLambdaCDM.CriticalDensity", "critical_density_0", "Om0")
	lcdmComovingDistance = param.Declare("FlatLambdaCDM.ComovingDistance", "h0", "Om0")
)

// FlatLambdaCDM is a flat cosmology with matter and a cosmological constant
// and no radiation.
type FlatLambdaCDM struct {
	*param.Module
	helper *helperGrid
}

// LambdaCDMOption sets one parameter of a FlatLambdaCDM. A nil tensor makes
// the parameter dynamic.
type LambdaCDMOption func(*lcdmParams)

type lcdmParams struct {
	h0, criticalDensity0, om0 *tensor.Tensor
}

func WithH0(v *tensor.Tensor) LambdaCDMOption {
	return func(p *lcdmParams) { p.h0 = v }
}

func WithCriticalDensity0(v *tensor.Tensor) LambdaCDMOption {
	return func(p *lcdmParams) { p.criticalDensity0 = v }
}

func WithOm0(v *tensor.Tensor) LambdaCDMOption {
	return func(p *lcdmParams) { p.om0 = v }
}

// NewFlatLambdaCDM builds the cosmology with Planck18 defaults for every
// parameter not set by an option.
func NewFlatLambdaCDM(name string, opts ...LambdaCDMOption) (*FlatLambdaCDM, error) {
	p := &lcdmParams{
		h0:               tensor.Scalar(H0Default),
		criticalDensity0: tensor.Scalar(CriticalDensity0Default),
		om0:              tensor.Scalar(Om0Default),
	}
	for _, opt := range opts {
		opt(p)
	}

	c := &FlatLambdaCDM{Module: param.NewModule(name), helper: newHelperGrid(tensor.Float64)}
	for _, kv := range []struct {
		name string
		v    *tensor.Tensor
	}{
		{"h0", p.h0},
		{"critical_density_0", p.criticalDensity0},
		{"Om0", p.om0},
	} {
		if err := c.AddParam(kv.name, kv.v, nil); err != nil {
			return nil, err
		}
	}
	c.OnTo(func(_ tensor.Device, dtype tensor.DType) {
		c.helper.convert(dtype)
	})
	return c, nil
}

// CriticalDensity returns rho_c0 (Om0 (1+z)^3 + 1 - Om0).
func (c *FlatLambdaCDM) CriticalDensity(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := lcdmCriticalDensity.Resolve(c, params, ov)
	if err != nil {
		return nil, err
	}
	om0 := v.Get("Om0")
	ode0 := om0.RSubScalar(1)
	return v.Get("critical_density_0").Mul(om0.Mul(z.AddScalar(1).PowScalar(3)).Add(ode0)), nil
}

func (c *FlatLambdaCDM) ComovingDistance(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := lcdmComovingDistance.Resolve(c, params, ov)
	if err != nil {
		return nil, err
	}
	om0 := v.Get("Om0")
	ode0 := om0.RSubScalar(1)
	ratio := om0.Div(ode0).PowScalar(1.0 / 3)

	dc1z := c.helper.apply(z.AddScalar(1).Mul(ratio))
	dc := c.helper.apply(ratio)
	norm := om0.PowScalar(1.0 / 3).Mul(ode0.PowScalar(1.0 / 6))
	return HubbleDistance(v.Get("h0")).Mul(dc1z.Sub(dc)).Div(norm), nil
}

// TransverseComovingDistance equals the comoving distance in a flat universe.
func (c *FlatLambdaCDM) TransverseComovingDistance(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	return c.ComovingDistance(z, params, ov)
}
