package analysis

import (
	"errors"
	"fmt"
	"math"

	"github.com/san-kum/caustics/internal/tensor"
)

var ErrGridMismatch = errors.New("analysis: image and grid shapes differ")

// Profile holds the mean brightness in equal-width annuli.
type Profile struct {
	Radii  []float64 // annulus centres, arcsec
	Values []float64
	Counts []int
}

func checkGrid(img, x, y *tensor.Tensor) error {
	if !img.Shape().Equal(x.Shape()) || !img.Shape().Equal(y.Shape()) {
		return fmt.Errorf("%w: image %v, grid %v/%v", ErrGridMismatch, img.Shape(), x.Shape(), y.Shape())
	}
	return nil
}

// RadialProfile bins img by distance from (x0, y0) into nbins annuli
// spanning [0, rmax], where rmax is the largest radius fully inside the
// grid. Empty annuli report 0.
func RadialProfile(img, x, y *tensor.Tensor, x0, y0 float64, nbins int) (*Profile, error) {
	if err := checkGrid(img, x, y); err != nil {
		return nil, err
	}
	if nbins <= 0 {
		return nil, fmt.Errorf("nbins must be positive, got %d", nbins)
	}
	rmax := math.Min(
		math.Min(x0-x.Min(), x.Max()-x0),
		math.Min(y0-y.Min(), y.Max()-y0),
	)
	if rmax <= 0 {
		return nil, fmt.Errorf("centre (%g, %g) lies outside the grid", x0, y0)
	}
	width := rmax / float64(nbins)

	p := &Profile{
		Radii:  make([]float64, nbins),
		Values: make([]float64, nbins),
		Counts: make([]int, nbins),
	}
	for i := range p.Radii {
		p.Radii[i] = (float64(i) + 0.5) * width
	}
	for i := 0; i < img.Len(); i++ {
		r := math.Hypot(x.At(i)-x0, y.At(i)-y0)
		bin := int(r / width)
		if bin >= nbins {
			continue
		}
		p.Values[bin] += img.At(i)
		p.Counts[bin]++
	}
	for i, n := range p.Counts {
		if n > 0 {
			p.Values[i] /= float64(n)
		}
	}
	return p, nil
}

// RingRadius returns the radius of the brightest annulus, refined by a
// parabola through it and its neighbours.
func RingRadius(p *Profile) float64 {
	if p == nil || len(p.Values) == 0 {
		return 0
	}
	best := 0
	for i, v := range p.Values {
		if v > p.Values[best] {
			best = i
		}
	}
	if best == 0 || best == len(p.Values)-1 {
		return p.Radii[best]
	}
	a, b, c := p.Values[best-1], p.Values[best], p.Values[best+1]
	denom := a - 2*b + c
	if denom == 0 {
		return p.Radii[best]
	}
	width := p.Radii[1] - p.Radii[0]
	return p.Radii[best] + 0.5*(a-c)/denom*width
}
