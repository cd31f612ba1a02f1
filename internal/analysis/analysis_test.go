package analysis

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/caustics/internal/lens"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/source"
	"github.com/san-kum/caustics/internal/tensor"
)

func grid(n int, half float64) (x, y *tensor.Tensor) {
	axis := tensor.Linspace(-half, half, n)
	return tensor.Meshgrid(axis, axis)
}

// ring draws a thin Gaussian ring of radius r0 whose brightness is
// modulated by 1 + a1*cos(phi).
func ring(x, y *tensor.Tensor, r0, a1 float64) *tensor.Tensor {
	r := tensor.Hypot(x, y)
	phi := y.Atan2(x)
	shell := r.SubScalar(r0).PowScalar(2).DivScalar(-2 * 0.05 * 0.05).Exp()
	return shell.Mul(phi.Cos().MulScalar(a1).AddScalar(1))
}

func TestPowerSpectrum(t *testing.T) {
	n := 16
	data := make([]float64, n)
	for i := range data {
		data[i] = math.Cos(2 * math.Pi * 3 * float64(i) / float64(n))
	}
	ps := PowerSpectrum(data)
	require.Len(t, ps, n/2+1)
	assert.InDelta(t, float64(n)/2, ps[3], 1e-9)
	assert.InDelta(t, 0, ps[2], 1e-9)
	assert.Nil(t, PowerSpectrum(nil))
}

func TestRadialProfileFindsRing(t *testing.T) {
	x, y := grid(121, 2)
	img := ring(x, y, 1.2, 0)

	p, err := RadialProfile(img, x, y, 0, 0, 40)
	require.NoError(t, err)
	assert.Len(t, p.Radii, 40)
	assert.InDelta(t, 2.0/80, p.Radii[0], 1e-12)
	assert.InDelta(t, 1.2, RingRadius(p), 0.03)

	_, err = RadialProfile(img, x, y, 0, 0, 0)
	assert.Error(t, err)
	_, err = RadialProfile(img, x, y, 5, 0, 10)
	assert.Error(t, err)
	_, err = RadialProfile(tensor.Zeros(tensor.Shape{3, 3}), x, y, 0, 0, 10)
	assert.ErrorIs(t, err, ErrGridMismatch)
}

func TestRingRadiusEdges(t *testing.T) {
	assert.Zero(t, RingRadius(nil))
	p := &Profile{Radii: []float64{0.5, 1.5, 2.5}, Values: []float64{3, 2, 1}}
	assert.Equal(t, 0.5, RingRadius(p))
	// symmetric neighbours leave the peak where it is
	p = &Profile{Radii: []float64{0.5, 1.5, 2.5}, Values: []float64{1, 2, 1}}
	assert.InDelta(t, 1.5, RingRadius(p), 1e-12)
}

func TestAzimuthalPower(t *testing.T) {
	x, y := grid(161, 2)

	sym, err := AzimuthalPower(ring(x, y, 1, 0), x, y, 0, 0, 1, 64, 3)
	require.NoError(t, err)
	assert.InDelta(t, 1, sym[0], 1e-12)
	assert.Less(t, sym[1], 0.02)
	assert.Less(t, sym[2], 0.02)

	lop, err := AzimuthalPower(ring(x, y, 1, 0.5), x, y, 0, 0, 1, 64, 3)
	require.NoError(t, err)
	assert.InDelta(t, 0.25, lop[1], 0.03)

	_, err = AzimuthalPower(ring(x, y, 1, 0), x, y, 0, 0, 3, 64, 3)
	assert.Error(t, err)
	_, err = AzimuthalPower(ring(x, y, 1, 0), x, y, 0, 0, 1, 4, 3)
	assert.Error(t, err)
}

func TestRingRadiusOfRenderedEinsteinRing(t *testing.T) {
	sis, err := lens.NewSIS("sis", nil, tensor.Scalar(0.5), tensor.Scalar(0), tensor.Scalar(0), tensor.Scalar(1.1))
	require.NoError(t, err)
	src, err := source.NewGaussian("src",
		tensor.Scalar(0), tensor.Scalar(0), tensor.Scalar(1),
		tensor.Scalar(0), tensor.Scalar(0.05), tensor.Scalar(1))
	require.NoError(t, err)
	s, err := sim.NewLensing("sim", sis, src, tensor.Scalar(1.5), sim.Config{FOV: 4, NPix: 100})
	require.NoError(t, err)

	img, err := s.Render(nil)
	require.NoError(t, err)
	x, y := s.Grid()
	p, err := RadialProfile(img, x, y, 0, 0, 50)
	require.NoError(t, err)
	assert.InDelta(t, 1.1, RingRadius(p), 0.06)
}
