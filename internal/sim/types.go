package sim

import (
	"fmt"

	"github.com/san-kum/caustics/internal/tensor"
)

// Metric scores a rendered image against an observation.
type Metric interface {
	Name() string
	Evaluate(model, observed *tensor.Tensor) (float64, error)
}

// Config describes the image plane of a simulator.
type Config struct {
	FOV  float64 // arcsec, full width
	NPix int
}

func (c Config) Validate() error {
	if c.FOV <= 0 {
		return fmt.Errorf("fov must be positive, got %f", c.FOV)
	}
	if c.NPix <= 0 {
		return fmt.Errorf("npix must be positive, got %d", c.NPix)
	}
	return nil
}

// PixelScale is the width of one pixel in arcsec.
func (c Config) PixelScale() float64 {
	return c.FOV / float64(c.NPix)
}

// PixelGrid holds the pixel-centre coordinates of an image plane, x
// varying along columns.
type PixelGrid struct {
	X, Y *tensor.Tensor
}

// NewGrid lays out cfg.NPix pixel centres per side across cfg.FOV.
func NewGrid(cfg Config) (PixelGrid, error) {
	if err := cfg.Validate(); err != nil {
		return PixelGrid{}, err
	}
	half := cfg.FOV/2 - cfg.PixelScale()/2
	axis := tensor.Linspace(-half, half, cfg.NPix)
	x, y := tensor.Meshgrid(axis, axis)
	return PixelGrid{X: x, Y: y}, nil
}

// Result is one rendered image together with the flat vector it was
// rendered from.
type Result struct {
	Index   int
	Flat    []float64
	Image   *tensor.Tensor
	Metrics map[string]float64
}
