package sim

import (
	"fmt"
	"math/rand/v2"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/san-kum/caustics/internal/tensor"
)

// AddNoise returns img plus independent Gaussian pixel noise of width
// sigma. The same seed gives the same noise.
func AddNoise(img *tensor.Tensor, sigma float64, seed uint64) (*tensor.Tensor, error) {
	if sigma < 0 {
		return nil, fmt.Errorf("noise sigma must be non-negative, got %g", sigma)
	}
	if sigma == 0 {
		return img, nil
	}
	dist := distuv.Normal{Mu: 0, Sigma: sigma, Src: rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)}
	noise := make([]float64, img.Len())
	for i := range noise {
		noise[i] = dist.Rand()
	}
	n, err := tensor.New(noise, img.Shape())
	if err != nil {
		return nil, err
	}
	return img.Add(n), nil
}
