package export

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/caustics/internal/tensor"
	"github.com/san-kum/caustics/internal/viz"
)

func TestImageToSVG(t *testing.T) {
	img := tensor.MustNew([]float64{0, 1, 2, 3}, tensor.Shape{2, 2})
	svg, err := ImageToSVG(img, 10, viz.PaletteGray)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(svg, "<?xml"))
	assert.Contains(t, svg, `width="20" height="20"`)
	assert.Equal(t, 4, strings.Count(svg, `<rect x=`))
	// brightest pixel is row 1, column 1, drawn in the top right
	assert.Contains(t, svg, `<rect x="10.0" y="0.0" width="10.0" height="10.0" fill="#ffffff"/>`)
	assert.Contains(t, svg, `<rect x="0.0" y="10.0" width="10.0" height="10.0" fill="#000000"/>`)

	_, err = ImageToSVG(tensor.FromSlice(1, 2), 10, viz.PaletteGray)
	assert.ErrorIs(t, err, viz.ErrNotImage)
	_, err = ImageToSVG(img, 0, viz.PaletteGray)
	assert.Error(t, err)
}

func TestCanvasToSVG(t *testing.T) {
	assert.Empty(t, CanvasToSVG(nil, 1))

	c := viz.NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	svg := CanvasToSVG(c, 2)
	assert.Equal(t, 2, strings.Count(svg, "<circle"))
	assert.Contains(t, svg, `<circle cx="1.0" cy="1.0" r="0.8"/>`)
	assert.Contains(t, svg, `<circle cx="7.0" cy="7.0" r="0.8"/>`)
}

func TestSeriesToSVG(t *testing.T) {
	assert.Empty(t, SeriesToSVG([]float64{1}, 100, 50, "#fff"))

	svg := SeriesToSVG([]float64{4, 2, 1}, 100, 50, "#00ff00")
	assert.Contains(t, svg, `stroke="#00ff00"`)
	assert.Contains(t, svg, "M0.0,")
	assert.Equal(t, 2, strings.Count(svg, " L"))
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ring.svg")
	require.NoError(t, WriteFile(path, "<svg/>"))
	b, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "<svg/>", string(b))
}
