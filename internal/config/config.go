package config

import (
	"fmt"
	"os"
	"slices"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/caustics/internal/tensor"
)

const (
	DefaultFOV    = 4.0
	DefaultNPix   = 64
	DefaultZS     = 1.5
	DefaultZL     = 0.5
	DefaultThEin  = 1.0
	DefaultSigma  = 0.2
	DefaultI0     = 1.0
	DefaultNoise  = 0.05
	DefaultDType  = "float64"
	DefaultDevice = "cpu"
)

// Config describes one lensing scenario: a cosmology, a lens, a source and
// the image plane they are rendered on.
type Config struct {
	Name       string          `yaml:"name"`
	Cosmology  ComponentConfig `yaml:"cosmology"`
	Lens       ComponentConfig `yaml:"lens"`
	Source     ComponentConfig `yaml:"source"`
	ZS         float64         `yaml:"z_s"`
	FOV        float64         `yaml:"fov"`
	NPix       int             `yaml:"npix"`
	DType      string          `yaml:"dtype"`
	Device     string          `yaml:"device"`
	Flat       []float64       `yaml:"flat,omitempty"`
	NoiseSigma float64         `yaml:"noise_sigma"`
	Workers    int             `yaml:"workers"`
}

// ComponentConfig selects a registered model by kind. Params listed in
// Dynamic are left for the flat vector; the rest take the value in Params
// or the kind's default.
type ComponentConfig struct {
	Kind    string             `yaml:"kind"`
	Name    string             `yaml:"name"`
	Params  map[string]float64 `yaml:"params,omitempty"`
	Dynamic []string           `yaml:"dynamic,omitempty"`
	Members []ComponentConfig  `yaml:"members,omitempty"`
}

func (c ComponentConfig) IsDynamic(name string) bool {
	return slices.Contains(c.Dynamic, name)
}

// Value returns the static value of name, or nil when it is dynamic.
func (c ComponentConfig) Value(name string, def float64) *tensor.Tensor {
	if c.IsDynamic(name) {
		return nil
	}
	if v, ok := c.Params[name]; ok {
		return tensor.Scalar(v)
	}
	return tensor.Scalar(def)
}

func DefaultConfig() *Config {
	return &Config{
		Name:      "sis_ring",
		Cosmology: ComponentConfig{Kind: "flat_lambda_cdm", Name: "cosmo"},
		Lens: ComponentConfig{
			Kind:    "sis",
			Name:    "lens",
			Params:  map[string]float64{"z_l": DefaultZL, "x0": 0, "y0": 0},
			Dynamic: []string{"th_ein"},
		},
		Source: ComponentConfig{
			Kind:   "gaussian",
			Name:   "source",
			Params: map[string]float64{"x0": 0.1, "y0": 0, "q": 1, "phi": 0, "sigma": DefaultSigma, "I0": DefaultI0},
		},
		ZS:         DefaultZS,
		FOV:        DefaultFOV,
		NPix:       DefaultNPix,
		DType:      DefaultDType,
		Device:     DefaultDevice,
		Flat:       []float64{DefaultThEin},
		NoiseSigma: DefaultNoise,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var present map[string]yaml.Node
	if err := yaml.Unmarshal(data, &present); err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	cfg.clearProvided(present)
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Name == "" {
		cfg.Name = cfg.Lens.Kind
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// clearProvided empties every component the file describes, so it is
// decoded whole instead of merged into the default one. The default flat
// vector belongs to the default lens and goes with it, as it does when any
// component brings its own dynamic names.
func (c *Config) clearProvided(present map[string]yaml.Node) {
	dynamic := false
	for key, comp := range map[string]*ComponentConfig{
		"cosmology": &c.Cosmology,
		"lens":      &c.Lens,
		"source":    &c.Source,
	} {
		node, ok := present[key]
		if !ok {
			continue
		}
		*comp = ComponentConfig{}
		if key == "lens" || hasKey(&node, "dynamic") || hasKey(&node, "members") {
			dynamic = true
		}
	}
	if dynamic {
		c.Flat = nil
	}
	if _, ok := present["lens"]; ok {
		c.Name = ""
	}
}

func hasKey(node *yaml.Node, key string) bool {
	if node.Kind != yaml.MappingNode {
		return false
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		if node.Content[i].Value == key {
			return true
		}
	}
	return false
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a copy that shares no maps or slices with c.
func (c *Config) Clone() *Config {
	out := *c
	out.Cosmology = c.Cosmology.clone()
	out.Lens = c.Lens.clone()
	out.Source = c.Source.clone()
	out.Flat = slices.Clone(c.Flat)
	return &out
}

func (c ComponentConfig) clone() ComponentConfig {
	out := c
	if c.Params != nil {
		out.Params = make(map[string]float64, len(c.Params))
		for k, v := range c.Params {
			out.Params[k] = v
		}
	}
	out.Dynamic = slices.Clone(c.Dynamic)
	if c.Members != nil {
		out.Members = make([]ComponentConfig, len(c.Members))
		for i, m := range c.Members {
			out.Members[i] = m.clone()
		}
	}
	return out
}

func (c *Config) Validate() error {
	if c.FOV <= 0 {
		return fmt.Errorf("fov must be positive, got %f", c.FOV)
	}
	if c.NPix <= 0 {
		return fmt.Errorf("npix must be positive, got %d", c.NPix)
	}
	if c.Lens.Kind == "" {
		return fmt.Errorf("lens kind is required")
	}
	if c.Source.Kind == "" {
		return fmt.Errorf("source kind is required")
	}
	if _, err := tensor.ParseDType(c.DType); err != nil {
		return err
	}
	if _, err := tensor.ParseDevice(c.Device); err != nil {
		return err
	}
	return nil
}
