// Package metrics scores rendered images against observations.
package metrics

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"

	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/tensor"
)

var ErrShapeMismatch = errors.New("metrics: image shapes differ")

var (
	_ sim.Metric = (*MSE)(nil)
	_ sim.Metric = (*Chi2)(nil)
	_ sim.Metric = (*TotalFlux)(nil)
)

func residuals(model, observed *tensor.Tensor) ([]float64, error) {
	if !model.Shape().Equal(observed.Shape()) {
		return nil, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, model.Shape(), observed.Shape())
	}
	r := model.Data()
	floats.Sub(r, observed.Data())
	return r, nil
}

// MSE is the mean squared pixel residual.
type MSE struct{}

func NewMSE() *MSE { return &MSE{} }

func (m *MSE) Name() string { return "mse" }

func (m *MSE) Evaluate(model, observed *tensor.Tensor) (float64, error) {
	r, err := residuals(model, observed)
	if err != nil {
		return 0, err
	}
	return floats.Dot(r, r) / float64(len(r)), nil
}

// Chi2 sums squared residuals in units of a uniform per-pixel noise sigma.
type Chi2 struct {
	sigma float64
}

func NewChi2(sigma float64) *Chi2 {
	return &Chi2{sigma: sigma}
}

func (c *Chi2) Name() string { return "chi2" }

func (c *Chi2) Evaluate(model, observed *tensor.Tensor) (float64, error) {
	if c.sigma <= 0 {
		return 0, fmt.Errorf("chi2: sigma must be positive, got %f", c.sigma)
	}
	r, err := residuals(model, observed)
	if err != nil {
		return 0, err
	}
	floats.Scale(1/c.sigma, r)
	return floats.Dot(r, r), nil
}

// TotalFlux is the relative difference of the summed brightness.
type TotalFlux struct{}

func NewTotalFlux() *TotalFlux { return &TotalFlux{} }

func (f *TotalFlux) Name() string { return "flux" }

func (f *TotalFlux) Evaluate(model, observed *tensor.Tensor) (float64, error) {
	if !model.Shape().Equal(observed.Shape()) {
		return 0, fmt.Errorf("%w: %v vs %v", ErrShapeMismatch, model.Shape(), observed.Shape())
	}
	want := observed.Sum()
	if want == 0 {
		return math.Abs(model.Sum()), nil
	}
	return math.Abs(model.Sum()-want) / math.Abs(want), nil
}

// ByName returns the metric registered under name.
func ByName(name string, sigma float64) (sim.Metric, error) {
	switch name {
	case "mse":
		return NewMSE(), nil
	case "chi2":
		return NewChi2(sigma), nil
	case "flux":
		return NewTotalFlux(), nil
	default:
		return nil, fmt.Errorf("unknown metric: %s", name)
	}
}
