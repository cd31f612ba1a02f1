package experiment

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/caustics/internal/config"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/tensor"
)

// Build assembles the simulator a config describes and converts it to the
// configured device and precision.
func (r *Registry) Build(cfg *config.Config) (*sim.Lensing, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cosmo, err := r.GetCosmology(cfg.Cosmology)
	if err != nil {
		return nil, err
	}
	l, err := r.GetLens(cfg.Lens, cosmo)
	if err != nil {
		return nil, err
	}
	src, err := r.GetSource(cfg.Source)
	if err != nil {
		return nil, err
	}

	s, err := sim.NewLensing(cfg.Name, l, src, tensor.Scalar(cfg.ZS), sim.Config{FOV: cfg.FOV, NPix: cfg.NPix})
	if err != nil {
		return nil, err
	}

	dtype, _ := tensor.ParseDType(cfg.DType)
	device, _ := tensor.ParseDevice(cfg.Device)
	if dtype != tensor.Float64 || device != tensor.CPU {
		s.To(device, dtype)
	}
	return s, nil
}

// Experiment is a built scenario together with the flat vector it renders.
type Experiment struct {
	cfg       *config.Config
	simulator *sim.Lensing
	metrics   []sim.Metric
}

func New(cfg *config.Config) *Experiment {
	return &Experiment{cfg: cfg}
}

func (e *Experiment) Setup(r *Registry) error {
	s, err := r.Build(e.cfg)
	if err != nil {
		return err
	}
	e.simulator = s
	e.metrics = r.DefaultMetrics(e.cfg)

	logrus.WithFields(logrus.Fields{
		"scenario": e.cfg.Name,
		"lens":     e.cfg.Lens.Kind,
		"dynamic":  s.DynamicSize(),
	}).Info("experiment ready")
	return nil
}

// Run renders the config's flat vector. When observed is non-nil the
// default metrics are evaluated against it.
func (e *Experiment) Run(ctx context.Context, observed *tensor.Tensor) (*sim.Result, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	img, err := e.simulator.RenderFlat(e.cfg.Flat)
	if err != nil {
		return nil, err
	}
	res := &sim.Result{
		Flat:    append([]float64(nil), e.cfg.Flat...),
		Image:   img,
		Metrics: make(map[string]float64),
	}
	if observed != nil {
		for _, m := range e.metrics {
			v, err := m.Evaluate(img, observed)
			if err != nil {
				return nil, err
			}
			res.Metrics[m.Name()] = v
		}
	}
	return res, nil
}

func (e *Experiment) Simulator() *sim.Lensing { return e.simulator }
func (e *Experiment) Config() *config.Config  { return e.cfg }
func (e *Experiment) Metrics() []sim.Metric   { return e.metrics }
