package viz

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/caustics/internal/tensor"
)

var ErrNotImage = errors.New("viz: expected a 2-D image")

// shades runs from dark to bright.
const shades = " .:-=+*#%@"

// HeatmapOptions controls how an image is drawn.
type HeatmapOptions struct {
	// Width is the number of columns; rows follow from the image aspect,
	// halved since terminal cells are about twice as tall as wide.
	// Zero keeps one column per pixel.
	Width int
	// Palette colors each cell. A nil palette draws plain characters.
	Palette *Palette
	// Log shades log10(1 + v/peak*1e3) instead of v, for faint arcs.
	Log bool
}

// Heatmap draws a [ny, nx] image as shaded characters, top row first, with
// intensities normalized to the image range.
func Heatmap(img *tensor.Tensor, opts HeatmapOptions) (string, error) {
	shape := img.Shape()
	if len(shape) != 2 || shape.NumElements() == 0 {
		return "", fmt.Errorf("%w: got shape %v", ErrNotImage, shape)
	}
	ny, nx := shape[0], shape[1]

	cols := opts.Width
	if cols <= 0 || cols > nx {
		cols = nx
	}
	rows := int(math.Round(float64(ny) * float64(cols) / float64(nx) / 2))
	if rows < 1 {
		rows = 1
	}

	data := img.Data()
	lo, hi := bounds(data)
	norm := func(v float64) float64 {
		if hi == lo {
			return 0
		}
		u := (v - lo) / (hi - lo)
		if opts.Log {
			u = math.Log10(1+u*1e3) / 3
		}
		return u
	}

	h, w := max(ny/rows, 1), max(nx/cols, 1)
	var b strings.Builder
	for r := 0; r < rows; r++ {
		// image row 0 sits at the bottom of the field
		y0 := ny - 1 - r*ny/rows
		for c := 0; c < cols; c++ {
			x0 := c * nx / cols
			u := norm(cellMean(data, nx, h, w, y0, x0))
			ch := string(shades[clampInt(int(u*float64(len(shades)-1)+0.5), 0, len(shades)-1)])
			if opts.Palette != nil {
				ch = lipgloss.NewStyle().Foreground(opts.Palette.Color(u)).Render(ch)
			}
			b.WriteString(ch)
		}
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// cellMean averages the pixels covered by one output cell.
func cellMean(data []float64, nx, h, w, y0, x0 int) float64 {
	sum, n := 0.0, 0
	for dy := 0; dy < h; dy++ {
		y := y0 - dy
		if y < 0 {
			break
		}
		for dx := 0; dx < w && x0+dx < nx; dx++ {
			sum += data[y*nx+x0+dx]
			n++
		}
	}
	if n == 0 {
		return data[y0*nx+x0]
	}
	return sum / float64(n)
}
