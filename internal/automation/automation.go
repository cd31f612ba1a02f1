// Package automation runs scripted batches, parameter sweeps and Monte
// Carlo studies over lensing scenarios.
package automation

import (
	"context"
	"fmt"
	"math/rand/v2"
	"os"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/stat"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/caustics/internal/config"
	"github.com/san-kum/caustics/internal/experiment"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/storage"
	"github.com/san-kum/caustics/internal/tensor"
)

// Batch is a scripted sequence of renders.
type Batch struct {
	Name        string      `yaml:"name"`
	Description string      `yaml:"description"`
	Steps       []BatchStep `yaml:"steps"`
}

// BatchStep selects a scenario by preset or config file. Non-zero fields
// override the scenario.
type BatchStep struct {
	Lens   string    `yaml:"lens"`
	Preset string    `yaml:"preset"`
	Config string    `yaml:"config"`
	NPix   int       `yaml:"npix"`
	ZS     float64   `yaml:"z_s"`
	Flat   []float64 `yaml:"flat"`
	Save   bool      `yaml:"save"`
}

// BatchResult is one rendered step. RunID is empty unless the step was
// saved.
type BatchResult struct {
	Step     int
	Scenario string
	RunID    string
	Result   *sim.Result
}

func LoadBatch(path string) (*Batch, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var b Batch
	if err := yaml.Unmarshal(data, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

func (s BatchStep) scenario() (*config.Config, error) {
	var cfg *config.Config
	switch {
	case s.Config != "":
		loaded, err := config.Load(s.Config)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	case s.Preset != "":
		lensKind := s.Lens
		if lensKind == "" {
			lensKind = "sis"
		}
		cfg = config.GetPreset(lensKind, s.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s/%s", lensKind, s.Preset)
		}
	default:
		cfg = config.DefaultConfig()
	}
	if s.NPix > 0 {
		cfg.NPix = s.NPix
	}
	if s.ZS > 0 {
		cfg.ZS = s.ZS
	}
	if s.Flat != nil {
		cfg.Flat = append([]float64(nil), s.Flat...)
	}
	return cfg, nil
}

// RunBatch executes every step in order. Steps marked save are written to
// store, which may be nil when no step saves. Results of the steps that
// finished are returned along with the first error.
func RunBatch(ctx context.Context, b *Batch, registry *experiment.Registry, store *storage.Store) ([]BatchResult, error) {
	results := make([]BatchResult, 0, len(b.Steps))

	for i, step := range b.Steps {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		cfg, err := step.scenario()
		if err != nil {
			return results, fmt.Errorf("step %d: %w", i+1, err)
		}

		exp := experiment.New(cfg)
		if err := exp.Setup(registry); err != nil {
			return results, fmt.Errorf("step %d setup: %w", i+1, err)
		}
		res, err := exp.Run(ctx, nil)
		if err != nil {
			return results, fmt.Errorf("step %d run: %w", i+1, err)
		}

		br := BatchResult{Step: i + 1, Scenario: cfg.Name, Result: res}
		if step.Save {
			if store == nil {
				return results, fmt.Errorf("step %d: save requested without a store", i+1)
			}
			br.RunID, err = store.Save(&storage.Run{
				Scenario: cfg.Name,
				Lens:     cfg.Lens.Kind,
				ZS:       cfg.ZS,
				FOV:      cfg.FOV,
				DType:    cfg.DType,
				Flat:     res.Flat,
				Image:    res.Image,
				Metrics:  res.Metrics,
			})
			if err != nil {
				return results, fmt.Errorf("step %d save: %w", i+1, err)
			}
		}
		results = append(results, br)

		logrus.WithFields(logrus.Fields{
			"batch":    b.Name,
			"step":     i + 1,
			"of":       len(b.Steps),
			"scenario": cfg.Name,
		}).Info("batch step done")
	}
	return results, nil
}

// Sweep scans one flat entry of a scenario.
type Sweep struct {
	Index   int
	Min     float64
	Max     float64
	Steps   int
	Workers int
}

type SweepResult struct {
	Value   float64
	Metrics map[string]float64
}

// RunSweep renders the scenario with flat[Index] stepped over [Min, Max]
// and scores every image with the experiment's metrics against the image
// of the unmodified vector.
func RunSweep(ctx context.Context, exp *experiment.Experiment, sw Sweep) ([]SweepResult, error) {
	flat := exp.Config().Flat
	if sw.Index < 0 || sw.Index >= len(flat) {
		return nil, fmt.Errorf("index %d outside flat vector of length %d", sw.Index, len(flat))
	}
	if sw.Steps < 2 {
		return nil, fmt.Errorf("need at least 2 steps, got %d", sw.Steps)
	}

	ref, err := exp.Run(ctx, nil)
	if err != nil {
		return nil, err
	}

	values := tensor.Linspace(sw.Min, sw.Max, sw.Steps).Data()
	flats := make([][]float64, len(values))
	for i, v := range values {
		flats[i] = append([]float64(nil), flat...)
		flats[i][sw.Index] = v
	}

	runs, err := ensemble(exp, ref.Image, sw.Workers).Run(ctx, flats)
	if err != nil {
		return nil, err
	}
	out := make([]SweepResult, len(runs))
	for i, r := range runs {
		out[i] = SweepResult{Value: values[i], Metrics: r.Metrics}
	}
	return out, nil
}

func ensemble(exp *experiment.Experiment, observed *tensor.Tensor, workers int) *sim.Ensemble {
	if workers <= 0 {
		workers = exp.Config().Workers
	}
	ens := sim.NewEnsemble(exp.Simulator(), workers)
	for _, m := range exp.Metrics() {
		ens.AddMetric(m)
	}
	ens.SetObserved(observed)
	return ens
}

// MonteCarloConfig perturbs every flat entry by a uniform relative amount
// in [-Perturbation, Perturbation].
type MonteCarloConfig struct {
	Perturbation float64
	NumTrials    int
	Seed         uint64
	Workers      int
}

type MonteCarloResult struct {
	TrialID int
	Flat    []float64
	Metrics map[string]float64
}

// RunMonteCarlo renders NumTrials perturbed vectors and scores each
// against the image of the unperturbed one.
func RunMonteCarlo(ctx context.Context, exp *experiment.Experiment, cfg MonteCarloConfig) ([]MonteCarloResult, error) {
	if cfg.NumTrials <= 0 {
		return nil, fmt.Errorf("need at least 1 trial, got %d", cfg.NumTrials)
	}
	ref, err := exp.Run(ctx, nil)
	if err != nil {
		return nil, err
	}

	rng := rand.New(rand.NewPCG(cfg.Seed, cfg.Seed+1))
	base := exp.Config().Flat
	flats := make([][]float64, cfg.NumTrials)
	for trial := range flats {
		f := make([]float64, len(base))
		for i, v := range base {
			f[i] = v * (1 + (rng.Float64()-0.5)*2*cfg.Perturbation)
		}
		flats[trial] = f
	}

	runs, err := ensemble(exp, ref.Image, cfg.Workers).Run(ctx, flats)
	if err != nil {
		return nil, err
	}
	out := make([]MonteCarloResult, len(runs))
	for i, r := range runs {
		out[i] = MonteCarloResult{TrialID: i, Flat: r.Flat, Metrics: r.Metrics}
	}

	logrus.WithFields(logrus.Fields{
		"trials":       cfg.NumTrials,
		"perturbation": cfg.Perturbation,
	}).Debug("monte carlo finished")
	return out, nil
}

// MonteCarloStats returns the mean and standard deviation of one metric
// across trials.
func MonteCarloStats(results []MonteCarloResult, metric string) (mean, std float64) {
	vals := make([]float64, 0, len(results))
	for _, r := range results {
		if v, ok := r.Metrics[metric]; ok {
			vals = append(vals, v)
		}
	}
	if len(vals) == 0 {
		return 0, 0
	}
	if len(vals) == 1 {
		return vals[0], 0
	}
	return stat.MeanStdDev(vals, nil)
}
