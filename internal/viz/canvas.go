package viz

import (
	"fmt"
	"strings"

	"github.com/san-kum/caustics/internal/tensor"
)

// Braille Patterns: 2x4 dots
// 1 4
// 2 5
// 3 6
// 7 8
//
// Unicode offset 0x2800
var pixelMap = [4][2]int{
	{0x1, 0x8},
	{0x2, 0x10},
	{0x4, 0x20},
	{0x40, 0x80},
}

const brailleBlank = 0x2800

type Canvas struct {
	Width, Height int
	Grid          [][]rune
}

func NewCanvas(w, h int) *Canvas {
	c := &Canvas{
		Width:  w,
		Height: h,
		Grid:   make([][]rune, h),
	}
	for i := range c.Grid {
		c.Grid[i] = make([]rune, w)
	}
	c.Clear()
	return c
}

// Set lights the dot at sub-pixel (x, y). The canvas is Width*2 dots wide
// and Height*4 dots tall.
func (c *Canvas) Set(x, y int) {
	if x < 0 || y < 0 {
		return
	}
	col, row := x/2, y/4
	if col >= c.Width || row >= c.Height {
		return
	}
	c.Grid[row][col] |= rune(pixelMap[y%4][x%2])
}

func (c *Canvas) Clear() {
	for i := range c.Grid {
		for j := range c.Grid[i] {
			c.Grid[i][j] = brailleBlank
		}
	}
}

// Lit counts the dots that are set.
func (c *Canvas) Lit() int {
	n := 0
	for _, row := range c.Grid {
		for _, r := range row {
			for bits := r - brailleBlank; bits != 0; bits &= bits - 1 {
				n++
			}
		}
	}
	return n
}

func (c *Canvas) String() string {
	var b strings.Builder
	for _, row := range c.Grid {
		b.WriteString(string(row) + "\n")
	}
	return b.String()
}

// Plot samples a [ny, nx] image onto the canvas and lights every dot whose
// pixel reaches frac of the image peak. Image row 0 is drawn at the bottom.
func (c *Canvas) Plot(img *tensor.Tensor, frac float64) error {
	shape := img.Shape()
	if len(shape) != 2 || shape.NumElements() == 0 {
		return fmt.Errorf("%w: got shape %v", ErrNotImage, shape)
	}
	ny, nx := shape[0], shape[1]
	data := img.Data()
	lo, hi := bounds(data)
	if hi == lo {
		return nil
	}
	cut := lo + frac*(hi-lo)

	dw, dh := c.Width*2, c.Height*4
	for y := 0; y < dh; y++ {
		py := ny - 1 - y*ny/dh
		for x := 0; x < dw; x++ {
			px := x * nx / dw
			if data[py*nx+px] >= cut {
				c.Set(x, y)
			}
		}
	}
	return nil
}

// Braille draws img on a fresh width x height canvas thresholded at frac.
func Braille(img *tensor.Tensor, width, height int, frac float64) (string, error) {
	c := NewCanvas(width, height)
	if err := c.Plot(img, frac); err != nil {
		return "", err
	}
	return c.String(), nil
}
