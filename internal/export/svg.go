// Package export writes rendered images and fit histories as SVG files.
package export

import (
	"fmt"
	"os"
	"strings"

	"github.com/san-kum/caustics/internal/tensor"
	"github.com/san-kum/caustics/internal/viz"
)

const background = "#0a0a0a"

func header(sb *strings.Builder, width, height float64) {
	fmt.Fprintf(sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%.0f" height="%.0f" viewBox="0 0 %.0f %.0f">
<rect width="100%%" height="100%%" fill="%s"/>
`, width, height, width, height, background)
}

// ImageToSVG draws a [ny, nx] image as one square of side scale per pixel,
// colored by palette over the image range. Image row 0 is the bottom row.
func ImageToSVG(img *tensor.Tensor, scale float64, palette viz.Palette) (string, error) {
	shape := img.Shape()
	if len(shape) != 2 || shape.NumElements() == 0 {
		return "", fmt.Errorf("%w: got shape %v", viz.ErrNotImage, shape)
	}
	if scale <= 0 {
		return "", fmt.Errorf("scale must be positive, got %g", scale)
	}
	ny, nx := shape[0], shape[1]
	data := img.Data()
	lo, hi := img.Min(), img.Max()

	var sb strings.Builder
	header(&sb, float64(nx)*scale, float64(ny)*scale)
	sb.WriteString(`<g shape-rendering="crispEdges">` + "\n")
	for i := 0; i < ny; i++ {
		y := float64(ny-1-i) * scale
		for j := 0; j < nx; j++ {
			u := 0.0
			if hi > lo {
				u = (data[i*nx+j] - lo) / (hi - lo)
			}
			fmt.Fprintf(&sb, `<rect x="%.1f" y="%.1f" width="%.1f" height="%.1f" fill="%s"/>`+"\n",
				float64(j)*scale, y, scale, scale, string(palette.Color(u)))
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String(), nil
}

// CanvasToSVG converts a Braille canvas to one circle per lit dot.
func CanvasToSVG(canvas *viz.Canvas, scale float64) string {
	if canvas == nil {
		return ""
	}
	var sb strings.Builder
	header(&sb, float64(canvas.Width)*scale*2, float64(canvas.Height)*scale*4)
	sb.WriteString(`<g fill="#fca50a">` + "\n")

	// dot bits per (row, column) inside one cell
	bits := [4][2]rune{
		{0x01, 0x08},
		{0x02, 0x10},
		{0x04, 0x20},
		{0x40, 0x80},
	}
	radius := scale * 0.4
	for row := 0; row < canvas.Height; row++ {
		for col := 0; col < canvas.Width; col++ {
			pattern := canvas.Grid[row][col] - 0x2800
			if pattern <= 0 {
				continue
			}
			for dy := 0; dy < 4; dy++ {
				for dx := 0; dx < 2; dx++ {
					if pattern&bits[dy][dx] == 0 {
						continue
					}
					cx := float64(col*2+dx)*scale + scale/2
					cy := float64(row*4+dy)*scale + scale/2
					fmt.Fprintf(&sb, `<circle cx="%.1f" cy="%.1f" r="%.1f"/>`+"\n", cx, cy, radius)
				}
			}
		}
	}
	sb.WriteString("</g>\n</svg>")
	return sb.String()
}

// SeriesToSVG draws values against their index as a polyline, for loss
// histories and radial profiles. Fewer than two values give "".
func SeriesToSVG(values []float64, width, height int, stroke string) string {
	if len(values) < 2 {
		return ""
	}
	minY, maxY := values[0], values[0]
	for _, v := range values {
		minY = min(minY, v)
		maxY = max(maxY, v)
	}
	rangeY := maxY - minY
	if rangeY == 0 {
		rangeY = 1
	}
	minY -= rangeY * 0.1
	rangeY *= 1.2
	stepX := float64(width) / float64(len(values)-1)

	var sb strings.Builder
	header(&sb, float64(width), float64(height))
	fmt.Fprintf(&sb, `<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke)
	for i, v := range values {
		x := float64(i) * stepX
		y := float64(height) - (v-minY)/rangeY*float64(height)
		if i > 0 {
			sb.WriteString(" L")
		}
		fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
	}
	sb.WriteString(`"/>
</svg>`)
	return sb.String()
}

// WriteFile writes an SVG document to path.
func WriteFile(path, svg string) error {
	return os.WriteFile(path, []byte(svg), 0o644)
}
