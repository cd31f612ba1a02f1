package experiment

import (
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/san-kum/caustics/internal/config"
	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/lens"
	"github.com/san-kum/caustics/internal/metrics"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/source"
)

type (
	CosmologyFactory func(c config.ComponentConfig) (cosmology.Cosmology, error)
	LensFactory      func(c config.ComponentConfig, cosmo cosmology.Cosmology) (lens.Lens, error)
	SourceFactory    func(c config.ComponentConfig) (source.Source, error)
)

// Registry maps config kinds to constructors.
type Registry struct {
	cosmologies map[string]CosmologyFactory
	lenses      map[string]LensFactory
	sources     map[string]SourceFactory
}

func NewRegistry() *Registry {
	r := &Registry{
		cosmologies: make(map[string]CosmologyFactory),
		lenses:      make(map[string]LensFactory),
		sources:     make(map[string]SourceFactory),
	}

	r.cosmologies["flat_lambda_cdm"] = func(c config.ComponentConfig) (cosmology.Cosmology, error) {
		return cosmology.NewFlatLambdaCDM(c.Name,
			cosmology.WithH0(c.Value("h0", cosmology.H0Default)),
			cosmology.WithCriticalDensity0(c.Value("critical_density_0", cosmology.CriticalDensity0Default)),
			cosmology.WithOm0(c.Value("Om0", cosmology.Om0Default)),
		)
	}
	r.cosmologies["flat_wcdm"] = func(c config.ComponentConfig) (cosmology.Cosmology, error) {
		return cosmology.NewFlatWCDM(c.Name,
			c.Value("h0", cosmology.H0Default),
			c.Value("Om0", cosmology.Om0Default),
			c.Value("w0", -1),
		)
	}

	r.lenses["sis"] = func(c config.ComponentConfig, cosmo cosmology.Cosmology) (lens.Lens, error) {
		return lens.NewSIS(c.Name, cosmo,
			c.Value("z_l", config.DefaultZL), c.Value("x0", 0), c.Value("y0", 0),
			c.Value("th_ein", config.DefaultThEin))
	}
	r.lenses["point"] = func(c config.ComponentConfig, cosmo cosmology.Cosmology) (lens.Lens, error) {
		return lens.NewPoint(c.Name, cosmo,
			c.Value("z_l", config.DefaultZL), c.Value("x0", 0), c.Value("y0", 0),
			c.Value("mass", 1e12))
	}
	r.lenses["shear"] = func(c config.ComponentConfig, cosmo cosmology.Cosmology) (lens.Lens, error) {
		return lens.NewExternalShear(c.Name, cosmo,
			c.Value("z_l", config.DefaultZL), c.Value("x0", 0), c.Value("y0", 0),
			c.Value("gamma_1", 0), c.Value("gamma_2", 0))
	}
	r.lenses["single_plane"] = func(c config.ComponentConfig, cosmo cosmology.Cosmology) (lens.Lens, error) {
		members := make([]lens.Lens, 0, len(c.Members))
		for _, mc := range c.Members {
			if mc.Kind == "single_plane" {
				return nil, fmt.Errorf("single_plane members cannot be planes")
			}
			l, err := r.GetLens(mc, cosmo)
			if err != nil {
				return nil, err
			}
			members = append(members, l)
		}
		return lens.NewSinglePlane(c.Name, cosmo, members...)
	}

	r.sources["gaussian"] = func(c config.ComponentConfig) (source.Source, error) {
		return source.NewGaussian(c.Name,
			c.Value("x0", 0), c.Value("y0", 0), c.Value("q", 1), c.Value("phi", 0),
			c.Value("sigma", config.DefaultSigma), c.Value("I0", config.DefaultI0))
	}

	return r
}

func (r *Registry) GetCosmology(c config.ComponentConfig) (cosmology.Cosmology, error) {
	fn, ok := r.cosmologies[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown cosmology: %s", c.Kind)
	}
	built, err := fn(c)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(c, built); err != nil {
		return nil, err
	}
	return built, nil
}

func (r *Registry) GetLens(c config.ComponentConfig, cosmo cosmology.Cosmology) (lens.Lens, error) {
	fn, ok := r.lenses[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown lens: %s", c.Kind)
	}
	built, err := fn(c, cosmo)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(c, built); err != nil {
		return nil, err
	}
	return built, nil
}

func (r *Registry) GetSource(c config.ComponentConfig) (source.Source, error) {
	fn, ok := r.sources[c.Kind]
	if !ok {
		return nil, fmt.Errorf("unknown source: %s", c.Kind)
	}
	built, err := fn(c)
	if err != nil {
		return nil, err
	}
	if err := checkKeys(c, built); err != nil {
		return nil, err
	}
	return built, nil
}

// checkKeys compares a component config with the module built from it.
// An unknown dynamic name is an error. Unknown params are logged and skipped.
func checkKeys(c config.ComponentConfig, n param.Node) error {
	mod := n.Base()
	for _, name := range c.Dynamic {
		if _, ok := mod.Param(name); !ok {
			return &param.Error{Op: "build_" + c.Kind, Module: mod.Name(), Name: name, Err: param.ErrUnknownParam}
		}
	}
	unknown := make([]string, 0, len(c.Params))
	for name := range c.Params {
		if _, ok := mod.Param(name); !ok {
			unknown = append(unknown, name)
		}
	}
	sort.Strings(unknown)
	for _, name := range unknown {
		logrus.Warnf("%s %s: ignoring unknown param %q", c.Kind, mod.Name(), name)
	}
	return nil
}

func (r *Registry) RegisterLens(kind string, fn LensFactory) { r.lenses[kind] = fn }

func (r *Registry) ListLenses() []string {
	names := make([]string, 0, len(r.lenses))
	for name := range r.lenses {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) ListCosmologies() []string {
	names := make([]string, 0, len(r.cosmologies))
	for name := range r.cosmologies {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func (r *Registry) DefaultMetrics(cfg *config.Config) []sim.Metric {
	sigma := cfg.NoiseSigma
	if sigma <= 0 {
		sigma = config.DefaultNoise
	}
	return []sim.Metric{
		metrics.NewMSE(),
		metrics.NewChi2(sigma),
		metrics.NewTotalFlux(),
	}
}
