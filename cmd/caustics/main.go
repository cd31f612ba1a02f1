package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/san-kum/caustics/internal/config"
	"github.com/san-kum/caustics/internal/experiment"
)

var (
	dataDir    string
	logLevel   string
	configFile string
	lensKind   string
	preset     string
	// image plane overrides
	npix   int
	fov    float64
	zs     float64
	dtype  string
	device string
	// render
	palette  string
	braille  bool
	logScale bool
	kappa    bool
	saveRun  bool
	svgPath  string
	against  string
	cols     int
	// scan
	scanIndex int
	scanFrom  float64
	scanTo    float64
	scanSteps int
	workers   int
	// fit
	method     string
	guessScale float64
	noiseSeed  uint64
	maxIter    int
	lr         float64
	gridSteps  int
	// distance
	cosmoKind string
	h0        float64
	om0       float64
	w0        float64
	zl        float64
	// layout
	showSignatures bool
	// runs export
	outPath string
)

// main registers the caustics commands and runs the root command, exiting
// with status 1 when it fails.
func main() {
	rootCmd := &cobra.Command{
		Use:   "caustics",
		Short: "gravitational lensing simulation toolkit",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			level, err := logrus.ParseLevel(logLevel)
			if err != nil {
				return err
			}
			logrus.SetLevel(level)
			return nil
		},
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".caustics", "data directory")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	treeCmd := &cobra.Command{
		Use:   "tree",
		Short: "draw the parameter tree of a scenario",
		RunE:  showTree,
	}
	scenarioFlags(treeCmd)

	layoutCmd := &cobra.Command{
		Use:   "layout",
		Short: "list the flat vector layout of a scenario",
		RunE:  showLayout,
	}
	scenarioFlags(layoutCmd)
	layoutCmd.Flags().BoolVar(&showSignatures, "signatures", false, "also list every declared method signature")

	distanceCmd := &cobra.Command{
		Use:   "distance [z...]",
		Short: "tabulate cosmological distances",
		Args:  cobra.MinimumNArgs(1),
		RunE:  showDistances,
	}
	distanceCmd.Flags().StringVar(&cosmoKind, "cosmology", "flat_lambda_cdm", "cosmology kind")
	distanceCmd.Flags().Float64Var(&h0, "h0", 0.6766, "dimensionless Hubble constant")
	distanceCmd.Flags().Float64Var(&om0, "om0", 0.30966, "matter density")
	distanceCmd.Flags().Float64Var(&w0, "w0", -1, "dark energy equation of state (flat_wcdm)")
	distanceCmd.Flags().Float64Var(&zl, "zl", 0, "lens redshift; when set, lens-source distances are added")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "render a lensed image",
		RunE:  renderImage,
	}
	scenarioFlags(renderCmd)
	renderCmd.Flags().StringVar(&palette, "palette", "", "heatmap palette (empty for plain characters)")
	renderCmd.Flags().BoolVar(&braille, "braille", false, "draw as a thresholded Braille plot")
	renderCmd.Flags().BoolVar(&logScale, "log", false, "log intensity scale")
	renderCmd.Flags().BoolVar(&kappa, "kappa", false, "render the convergence map instead")
	renderCmd.Flags().BoolVar(&saveRun, "save", false, "store the run in the data directory")
	renderCmd.Flags().StringVar(&svgPath, "svg", "", "write the image as SVG")
	renderCmd.Flags().StringVar(&against, "against", "", "stored run id to score the image against")
	renderCmd.Flags().IntVar(&cols, "cols", 64, "heatmap width in characters")

	scanCmd := &cobra.Command{
		Use:   "scan",
		Short: "sweep one flat entry and score each render against the scenario image",
		RunE:  runScan,
	}
	scenarioFlags(scanCmd)
	scanCmd.Flags().IntVar(&scanIndex, "index", 0, "flat vector entry to sweep")
	scanCmd.Flags().Float64Var(&scanFrom, "from", 0.5, "sweep start")
	scanCmd.Flags().Float64Var(&scanTo, "to", 1.5, "sweep end")
	scanCmd.Flags().IntVar(&scanSteps, "steps", 21, "number of sweep points")
	scanCmd.Flags().IntVar(&workers, "workers", 0, "render workers (0 = one per CPU)")

	fitCmd := &cobra.Command{
		Use:   "fit",
		Short: "fit the dynamic params to a noisy mock of the scenario image",
		RunE:  runFit,
	}
	scenarioFlags(fitCmd)
	fitCmd.Flags().StringVar(&method, "method", "nm", "optimizer (nm, gd, grid)")
	fitCmd.Flags().Float64Var(&guessScale, "guess", 0.8, "start from the true vector scaled by this factor")
	fitCmd.Flags().Uint64Var(&noiseSeed, "seed", 1, "noise seed")
	fitCmd.Flags().IntVar(&maxIter, "iter", 400, "iterations (gd) or loss evaluations (nm)")
	fitCmd.Flags().Float64Var(&lr, "lr", 1e-4, "learning rate (gd)")
	fitCmd.Flags().IntVar(&gridSteps, "grid-steps", 11, "points per axis (grid)")
	fitCmd.Flags().StringVar(&svgPath, "svg", "", "write the loss history as SVG")

	exploreCmd := &cobra.Command{
		Use:   "explore",
		Short: "nudge dynamic params and watch the image change",
		RunE:  runExplore,
	}
	scenarioFlags(exploreCmd)

	presetsCmd := &cobra.Command{
		Use:   "presets [lens]",
		Short: "list scenario presets",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			kinds := config.Kinds()
			if len(args) == 1 {
				kinds = args
			}
			for _, k := range kinds {
				names := config.ListPresets(k)
				if len(names) == 0 {
					fmt.Printf("no presets for lens: %s\n", k)
					continue
				}
				fmt.Printf("%s:\n", k)
				for _, p := range names {
					fmt.Printf("  %s\n", p)
				}
			}
			return nil
		},
	}

	rootCmd.AddCommand(treeCmd, layoutCmd, distanceCmd, renderCmd, scanCmd, fitCmd, exploreCmd, presetsCmd, runsCommand())
	rootCmd.AddCommand(studyCommands()...)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

func scenarioFlags(cmd *cobra.Command) {
	cmd.Flags().StringVar(&configFile, "config", "", "scenario file (yaml)")
	cmd.Flags().StringVar(&lensKind, "lens", "sis", "lens kind the preset belongs to")
	cmd.Flags().StringVar(&preset, "preset", "", "use a preset scenario")
	cmd.Flags().IntVar(&npix, "npix", config.DefaultNPix, "pixels per side")
	cmd.Flags().Float64Var(&fov, "fov", config.DefaultFOV, "field of view (arcsec)")
	cmd.Flags().Float64Var(&zs, "zs", config.DefaultZS, "source redshift")
	cmd.Flags().StringVar(&dtype, "dtype", config.DefaultDType, "precision (float32, float64)")
	cmd.Flags().StringVar(&device, "device", config.DefaultDevice, "device (cpu, cuda)")
}

// loadScenario resolves the scenario in order default, preset, config file,
// then any image plane flag given explicitly.
func loadScenario(cmd *cobra.Command) (*config.Config, error) {
	cfg := config.DefaultConfig()

	if preset != "" {
		cfg = config.GetPreset(lensKind, preset)
		if cfg == nil {
			return nil, fmt.Errorf("unknown preset: %s (available for %s: %v)", preset, lensKind, config.ListPresets(lensKind))
		}
	}

	if configFile != "" {
		loaded, err := config.Load(configFile)
		if err != nil {
			return nil, fmt.Errorf("failed to load config: %w", err)
		}
		cfg = loaded
	}

	if cmd.Flags().Changed("npix") {
		cfg.NPix = npix
	}
	if cmd.Flags().Changed("fov") {
		cfg.FOV = fov
	}
	if cmd.Flags().Changed("zs") {
		cfg.ZS = zs
	}
	if cmd.Flags().Changed("dtype") {
		cfg.DType = dtype
	}
	if cmd.Flags().Changed("device") {
		cfg.Device = device
	}
	return cfg, cfg.Validate()
}

// setup builds the scenario into a ready experiment.
func setup(cmd *cobra.Command) (*experiment.Experiment, error) {
	cfg, err := loadScenario(cmd)
	if err != nil {
		return nil, err
	}
	exp := experiment.New(cfg)
	if err := exp.Setup(experiment.NewRegistry()); err != nil {
		return nil, err
	}
	if n := exp.Simulator().DynamicSize(); len(cfg.Flat) != n {
		return nil, fmt.Errorf("scenario %s has %d flat values for %d dynamic entries", cfg.Name, len(cfg.Flat), n)
	}
	return exp, nil
}
