package analysis

import (
	"fmt"
	"math"
	"math/cmplx"

	"github.com/mjibson/go-dsp/fft"

	"github.com/san-kum/caustics/internal/tensor"
)

// PowerSpectrum returns |c_k| for k = 0..n/2 of the real sequence data.
func PowerSpectrum(data []float64) []float64 {
	if len(data) == 0 {
		return nil
	}
	coeffs := fft.FFTReal(data)
	ps := make([]float64, len(data)/2+1)
	for i := range ps {
		ps[i] = cmplx.Abs(coeffs[i])
	}
	return ps
}

// AzimuthalPower samples img at n points on the circle of the given
// radius around (x0, y0), bilinearly interpolated, and returns the
// power of each multipole m = 0..maxM normalised by the m = 0 term.
func AzimuthalPower(img, x, y *tensor.Tensor, x0, y0, radius float64, n, maxM int) ([]float64, error) {
	if err := checkGrid(img, x, y); err != nil {
		return nil, err
	}
	shape := img.Shape()
	if len(shape) != 2 || shape[0] < 2 || shape[1] < 2 {
		return nil, fmt.Errorf("image must be at least 2x2, got %v", shape)
	}
	if n < 2*maxM+1 {
		return nil, fmt.Errorf("%d samples cannot resolve multipole %d", n, maxM)
	}
	ny, nx := shape[0], shape[1]
	// grid is regular: x along columns, y along rows
	xlo, dx := x.At(0), x.At(1)-x.At(0)
	ylo, dy := y.At(0), y.At(nx)-y.At(0)

	samples := make([]float64, n)
	for k := range samples {
		phi := 2 * math.Pi * float64(k) / float64(n)
		fx := (x0 + radius*math.Cos(phi) - xlo) / dx
		fy := (y0 + radius*math.Sin(phi) - ylo) / dy
		if fx < 0 || fy < 0 || fx > float64(nx-1) || fy > float64(ny-1) {
			return nil, fmt.Errorf("circle of radius %g leaves the grid", radius)
		}
		samples[k] = bilinear(img, nx, fx, fy)
	}

	ps := PowerSpectrum(samples)
	out := make([]float64, maxM+1)
	if ps[0] == 0 {
		return out, nil
	}
	for m := range out {
		out[m] = ps[m] / ps[0]
	}
	return out, nil
}

func bilinear(img *tensor.Tensor, nx int, fx, fy float64) float64 {
	j, i := int(fx), int(fy)
	if j >= nx-1 {
		j = nx - 2
	}
	if i >= img.Len()/nx-1 {
		i = img.Len()/nx - 2
	}
	tx, ty := fx-float64(j), fy-float64(i)
	v00 := img.At(i*nx + j)
	v01 := img.At(i*nx + j + 1)
	v10 := img.At((i+1)*nx + j)
	v11 := img.At((i+1)*nx + j + 1)
	return (1-ty)*((1-tx)*v00+tx*v01) + ty*((1-tx)*v10+tx*v11)
}
