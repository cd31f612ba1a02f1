package source

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/tensor"
)

func TestGaussianPeakAndFalloff(t *testing.T) {
	g, err := NewGaussian("src",
		tensor.Scalar(0.5), tensor.Scalar(-0.5), tensor.Scalar(1),
		tensor.Scalar(0), tensor.Scalar(2), tensor.Scalar(3))
	require.NoError(t, err)

	b, err := g.Brightness(tensor.FromSlice(0.5, 2.5), tensor.FromSlice(-0.5, -0.5), nil, nil)
	require.NoError(t, err)
	assert.InDelta(t, 3, b.At(0), 1e-12)
	// one sigma out
	assert.InDelta(t, 3*math.Exp(-0.5), b.At(1), 1e-12)
}

func TestGaussianEllipticity(t *testing.T) {
	g, err := NewGaussian("src",
		tensor.Scalar(0), tensor.Scalar(0), tensor.Scalar(0.5),
		tensor.Scalar(0), tensor.Scalar(1), tensor.Scalar(1))
	require.NoError(t, err)

	b, err := g.Brightness(tensor.FromSlice(1, 0), tensor.FromSlice(0, 1), nil, nil)
	require.NoError(t, err)
	// q < 1 stretches the profile along x
	assert.Greater(t, b.At(0), b.At(1))

	// rotating by 90 degrees swaps the axes
	rot := param.Overrides{"phi": tensor.Scalar(math.Pi / 2)}
	br, err := g.Brightness(tensor.FromSlice(1, 0), tensor.FromSlice(0, 1), nil, rot)
	require.NoError(t, err)
	assert.InDelta(t, b.At(0), br.At(1), 1e-12)
	assert.InDelta(t, b.At(1), br.At(0), 1e-12)
}

func TestGaussianDynamic(t *testing.T) {
	g, err := NewGaussian("src", nil, nil, tensor.Scalar(1), tensor.Scalar(0), tensor.Scalar(1), nil)
	require.NoError(t, err)
	require.Equal(t, 3, g.DynamicSize())

	_, err = g.Brightness(tensor.Scalar(0), tensor.Scalar(0), nil, nil)
	assert.ErrorIs(t, err, param.ErrUnresolvedDynamicParam)

	p, err := g.Pack([]float64{1, 1, 7})
	require.NoError(t, err)
	b, err := g.Brightness(tensor.Scalar(1), tensor.Scalar(1), p, nil)
	require.NoError(t, err)
	assert.InDelta(t, 7, b.Item(), 1e-12)
}
