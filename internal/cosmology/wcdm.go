package cosmology

import (
	"math"

	"github.com/san-kum/caustics/internal/integrators"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

var (
	wcdmCriticalDensity  = param.Declare("FlatWCDM.CriticalDensity", "h0", "Om0", "w0")
	wcdmComovingDistance = param.Declare("FlatWCDM.ComovingDistance", "h0", "Om0", "w0")
)

// stepsPerRedshift is the RK4 resolution of the comoving distance integral.
const stepsPerRedshift = 200

// FlatWCDM is a flat cosmology whose dark energy has a constant equation of
// state w0. Distances are integrated numerically.
type FlatWCDM struct {
	*param.Module
}

// NewFlatWCDM registers h0, Om0 and w0. A nil tensor leaves the parameter
// dynamic.
func NewFlatWCDM(name string, h0, om0, w0 *tensor.Tensor) (*FlatWCDM, error) {
	c := &FlatWCDM{Module: param.NewModule(name)}
	if err := c.AddParam("h0", h0, nil); err != nil {
		return nil, err
	}
	if err := c.AddParam("Om0", om0, nil); err != nil {
		return nil, err
	}
	if err := c.AddParam("w0", w0, nil); err != nil {
		return nil, err
	}
	return c, nil
}

func efunc(z, om0, w0 float64) float64 {
	zp1 := 1 + z
	return math.Sqrt(om0*zp1*zp1*zp1 + (1-om0)*math.Pow(zp1, 3*(1+w0)))
}

// broadcastAt reads element i of t, treating single-element tensors as
// scalars.
func broadcastAt(t *tensor.Tensor, i int) float64 {
	if t.Len() == 1 {
		return t.At(0)
	}
	return t.At(i)
}

// CriticalDensity returns rho_c0(h0) E(z)^2.
func (c *FlatWCDM) CriticalDensity(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := wcdmCriticalDensity.Resolve(c, params, ov)
	if err != nil {
		return nil, err
	}
	h0, om0, w0 := v.Get("h0"), v.Get("Om0"), v.Get("w0")
	out := make([]float64, z.Len())
	for i := range out {
		e := efunc(z.At(i), broadcastAt(om0, i), broadcastAt(w0, i))
		out[i] = CriticalDensity0(broadcastAt(h0, i)) * e * e
	}
	return tensor.New(out, z.Shape())
}

func (c *FlatWCDM) ComovingDistance(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	v, err := wcdmComovingDistance.Resolve(c, params, ov)
	if err != nil {
		return nil, err
	}
	h0, om0, w0 := v.Get("h0"), v.Get("Om0"), v.Get("w0")

	rk := integrators.NewRK4()
	out := make([]float64, z.Len())
	for i := range out {
		om, w := broadcastAt(om0, i), broadcastAt(w0, i)
		sys := integrators.SystemFunc(func(_ []float64, zz float64) []float64 {
			return []float64{1 / efunc(zz, om, w)}
		})
		zi := z.At(i)
		steps := int(math.Ceil(math.Abs(zi) * stepsPerRedshift))
		traj := rk.Trajectory(sys, []float64{0}, 0, zi, steps)
		out[i] = traj[len(traj)-1][0]
	}
	dc, err := tensor.New(out, z.Shape())
	if err != nil {
		return nil, err
	}
	return HubbleDistance(h0).Mul(dc), nil
}

func (c *FlatWCDM) TransverseComovingDistance(z *tensor.Tensor, params *param.Packed, ov param.Overrides) (*tensor.Tensor, error) {
	return c.ComovingDistance(z, params, ov)
}
