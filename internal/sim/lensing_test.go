package sim

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/caustics/internal/lens"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/source"
	"github.com/san-kum/caustics/internal/tensor"
)

// newRingSim builds an SIS with a dynamic Einstein radius in front of a
// compact Gaussian sitting on the optical axis.
func newRingSim(t *testing.T, cfg Config) *Lensing {
	t.Helper()
	sis, err := lens.NewSIS("sis", nil, tensor.Scalar(0.5), tensor.Scalar(0), tensor.Scalar(0), nil)
	require.NoError(t, err)
	src, err := source.NewGaussian("src",
		tensor.Scalar(0), tensor.Scalar(0), tensor.Scalar(1),
		tensor.Scalar(0), tensor.Scalar(0.1), tensor.Scalar(1))
	require.NoError(t, err)
	s, err := NewLensing("sim", sis, src, tensor.Scalar(1.5), cfg)
	require.NoError(t, err)
	return s
}

type absDiff struct{}

func (absDiff) Name() string { return "absdiff" }

func (absDiff) Evaluate(model, observed *tensor.Tensor) (float64, error) {
	d := model.Sub(observed)
	return d.Mul(d).Sqrt().Sum(), nil
}

func TestConfigValidate(t *testing.T) {
	assert.Error(t, Config{FOV: 0, NPix: 10}.Validate())
	assert.Error(t, Config{FOV: 1, NPix: 0}.Validate())
	assert.NoError(t, Config{FOV: 1, NPix: 10}.Validate())
	assert.InDelta(t, 0.1, Config{FOV: 1, NPix: 10}.PixelScale(), 1e-12)

	_, err := NewLensing("sim", nil, nil, tensor.Scalar(1), Config{})
	assert.Error(t, err)
}

func TestLensingLayout(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 40})
	assert.Equal(t, 1, s.DynamicSize())
	assert.Equal(t, []string{"lens", "source"}, s.ChildNames())

	x, y := s.Grid()
	assert.Equal(t, tensor.Shape{40, 40}, x.Shape())
	assert.InDelta(t, -1.95, x.At(0), 1e-12)
	assert.InDelta(t, 1.95, y.At(40*40-1), 1e-12)
}

func TestRenderEinsteinRing(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 40})

	img, err := s.RenderFlat([]float64{1})
	require.NoError(t, err)
	require.Equal(t, tensor.Shape{40, 40}, img.Shape())

	// the ring passes close to pixel centres at radius ~0.95
	assert.Greater(t, img.Max(), 0.8)
	// the centre is deflected far from the source
	centre := img.At(20*40 + 20)
	assert.Less(t, centre, 1e-6)

	// without lensing the source is seen at the centre
	flat, err := s.RenderFlat([]float64{0})
	require.NoError(t, err)
	assert.Greater(t, flat.At(20*40+20), 0.5)
	assert.Less(t, flat.At(0), 1e-6)
}

func TestRenderNeedsParams(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 8})
	_, err := s.Render(nil)
	assert.True(t, errors.Is(err, param.ErrUnresolvedDynamicParam))

	_, err = s.RenderFlat([]float64{1, 2})
	assert.ErrorIs(t, err, param.ErrSizeMismatch)
}

func TestRenderWithSourceRedshiftOverride(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 8})
	p, err := s.Pack([]float64{1})
	require.NoError(t, err)

	a, err := s.Render(p)
	require.NoError(t, err)
	b, err := s.RenderWith(p, param.Overrides{"z_s": tensor.Scalar(3)})
	require.NoError(t, err)
	// an SIS parametrised by its Einstein radius ignores z_s
	assert.True(t, a.Equal(b))
}

func TestConvergenceMap(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 40})
	p, err := s.Pack([]float64{1})
	require.NoError(t, err)

	kappa, err := s.ConvergenceMap(p)
	require.NoError(t, err)
	// kappa = th_ein / (2 r), so the corner pixel sits well below one half
	assert.Less(t, kappa.At(0), 0.5)
	assert.Greater(t, kappa.At(20*40+20), 0.5)
}

func TestLensingTo(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 8})
	s.To(tensor.CPU, tensor.Float32)

	x, _ := s.Grid()
	assert.Equal(t, tensor.Float32, x.DType())
	img, err := s.RenderFlat([]float64{1})
	require.NoError(t, err)
	assert.False(t, math.IsNaN(img.Sum()))
}

func TestEnsembleRun(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 16})
	observed, err := s.RenderFlat([]float64{1})
	require.NoError(t, err)

	e := NewEnsemble(s, 3)
	e.AddMetric(absDiff{})
	e.SetObserved(observed)

	flats := [][]float64{{0.2}, {0.6}, {1}, {1.4}, {1.8}, {0.4}, {0.8}}
	results, err := e.Run(context.Background(), flats)
	require.NoError(t, err)
	require.Len(t, results, len(flats))

	for i, res := range results {
		assert.Equal(t, i, res.Index)
		assert.Equal(t, flats[i], res.Flat)
		want, err := s.RenderFlat(flats[i])
		require.NoError(t, err)
		assert.True(t, want.Equal(res.Image))
	}
	assert.InDelta(t, 0, results[2].Metrics["absdiff"], 1e-12)
	assert.Greater(t, results[0].Metrics["absdiff"], 0.0)
}

func TestEnsembleFirstError(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 8})
	_, err := NewEnsemble(s, 2).Run(context.Background(), [][]float64{{1}, {1, 2}, {0.5}})
	assert.ErrorIs(t, err, param.ErrSizeMismatch)
}

func TestEnsembleCancelled(t *testing.T) {
	s := newRingSim(t, Config{FOV: 4, NPix: 8})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewEnsemble(s, 0).Run(ctx, [][]float64{{1}, {2}})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestVectorPool(t *testing.T) {
	p := NewVectorPool(3)
	v := p.GetAndCopy([]float64{1, 2, 3})
	assert.Equal(t, []float64{1, 2, 3}, v)
	p.Put(v)

	w := p.Get()
	assert.Len(t, w, 3)
	// wrong sizes are dropped rather than pooled
	p.Put([]float64{1})
}

func TestAddNoise(t *testing.T) {
	img := tensor.Zeros(tensor.Shape{32, 32})

	a, err := AddNoise(img, 0.1, 7)
	require.NoError(t, err)
	b, err := AddNoise(img, 0.1, 7)
	require.NoError(t, err)
	c, err := AddNoise(img, 0.1, 8)
	require.NoError(t, err)

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, tensor.Shape{32, 32}, a.Shape())

	// sample std of 1024 draws is within a few percent of sigma
	std := math.Sqrt(a.Mul(a).Sum() / float64(a.Len()))
	assert.InDelta(t, 0.1, std, 0.01)

	same, err := AddNoise(img, 0, 7)
	require.NoError(t, err)
	assert.Same(t, img, same)

	_, err = AddNoise(img, -1, 7)
	assert.Error(t, err)
}

func TestNewGrid(t *testing.T) {
	g, err := NewGrid(Config{FOV: 2, NPix: 4})
	require.NoError(t, err)
	assert.Equal(t, tensor.Shape{4, 4}, g.X.Shape())
	assert.Equal(t, []float64{-0.75, -0.25, 0.25, 0.75}, g.X.Data()[:4])
	assert.InDelta(t, -0.75, g.Y.At(0), 1e-12)
	assert.InDelta(t, 0.75, g.Y.At(15), 1e-12)

	_, err = NewGrid(Config{FOV: 2})
	assert.Error(t, err)
}
