package config

import "sort"

func sis(name string, zl, thEin, srcX float64) *Config {
	cfg := DefaultConfig()
	cfg.Name = name
	cfg.Lens.Params = map[string]float64{"z_l": zl, "x0": 0, "y0": 0}
	cfg.Flat = []float64{thEin}
	cfg.Source.Params["x0"] = srcX
	return cfg
}

// Presets are ready-made scenarios keyed by lens kind, then preset name.
var Presets = map[string]map[string]*Config{
	"sis": {
		"ring":   sis("sis_ring", 0.5, 1.0, 0.0),
		"double": sis("sis_double", 0.5, 1.0, 0.3),
		"wide":   sis("sis_wide", 0.3, 1.6, 0.15),
	},
	"point": {
		"galaxy": {
			Name:      "point_galaxy",
			Cosmology: ComponentConfig{Kind: "flat_lambda_cdm", Name: "cosmo"},
			Lens: ComponentConfig{
				Kind:    "point",
				Name:    "lens",
				Params:  map[string]float64{"z_l": 0.5, "x0": 0, "y0": 0},
				Dynamic: []string{"mass"},
			},
			Source: ComponentConfig{
				Kind:   "gaussian",
				Name:   "source",
				Params: map[string]float64{"x0": 0.2, "y0": 0, "q": 1, "phi": 0, "sigma": 0.15, "I0": 1},
			},
			ZS: 2.0, FOV: 6, NPix: 64, DType: DefaultDType, Device: DefaultDevice,
			Flat: []float64{1e12}, NoiseSigma: DefaultNoise,
		},
	},
	"single_plane": {
		"sis_shear": {
			Name:      "sis_shear",
			Cosmology: ComponentConfig{Kind: "flat_wcdm", Name: "cosmo", Params: map[string]float64{"w0": -0.9}},
			Lens: ComponentConfig{
				Kind: "single_plane",
				Name: "plane",
				Members: []ComponentConfig{
					{Kind: "sis", Name: "main", Params: map[string]float64{"z_l": 0.5}, Dynamic: []string{"x0", "y0", "th_ein"}},
					{Kind: "shear", Name: "ext", Params: map[string]float64{"z_l": 0.5, "x0": 0, "y0": 0}, Dynamic: []string{"gamma_1", "gamma_2"}},
				},
			},
			Source: ComponentConfig{
				Kind:    "gaussian",
				Name:    "source",
				Params:  map[string]float64{"q": 0.7, "phi": 0.4, "sigma": 0.15, "I0": 1},
				Dynamic: []string{"x0", "y0"},
			},
			ZS: 1.5, FOV: 5, NPix: 64, DType: DefaultDType, Device: DefaultDevice,
			Flat:       []float64{0.05, -0.05, 1.2, 0.04, -0.02, 0.1, 0.05},
			NoiseSigma: DefaultNoise,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(kind, preset string) *Config {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	cfg, ok := kindPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(kind string) []string {
	kindPresets, ok := Presets[kind]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(kindPresets))
	for name := range kindPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Kinds lists the lens kinds that have presets.
func Kinds() []string {
	kinds := make([]string, 0, len(Presets))
	for k := range Presets {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	return kinds
}
