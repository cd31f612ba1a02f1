package sim

import (
	"context"
	"runtime"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/san-kum/caustics/internal/tensor"
)

// Ensemble renders many parameter vectors through one simulator.
type Ensemble struct {
	base     *Lensing
	workers  int
	metrics  []Metric
	observed *tensor.Tensor
}

// NewEnsemble fans renders out over workers goroutines; workers <= 0 uses
// one per CPU.
func NewEnsemble(s *Lensing, workers int) *Ensemble {
	if workers <= 0 {
		workers = runtime.NumCPU()
	}
	return &Ensemble{base: s, workers: workers}
}

func (e *Ensemble) AddMetric(m Metric)               { e.metrics = append(e.metrics, m) }
func (e *Ensemble) SetObserved(image *tensor.Tensor) { e.observed = image }

// Run renders every flat vector. Results keep the input order. The first
// failing render cancels the rest and its error is returned.
func (e *Ensemble) Run(ctx context.Context, flats [][]float64) ([]*Result, error) {
	results := make([]*Result, len(flats))

	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(e.workers)
	for i, flat := range flats {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			res, err := e.render(i, flat)
			if err != nil {
				return err
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	logrus.WithFields(logrus.Fields{
		"runs":    len(flats),
		"workers": e.workers,
	}).Debug("ensemble finished")
	return results, nil
}

func (e *Ensemble) render(i int, flat []float64) (*Result, error) {
	img, err := e.base.RenderFlat(flat)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Index:   i,
		Flat:    append([]float64(nil), flat...),
		Image:   img,
		Metrics: make(map[string]float64, len(e.metrics)),
	}
	if e.observed != nil {
		for _, m := range e.metrics {
			v, err := m.Evaluate(img, e.observed)
			if err != nil {
				return nil, err
			}
			res.Metrics[m.Name()] = v
		}
	}
	return res, nil
}
