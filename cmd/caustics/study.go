package main

import (
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/caustics/internal/analysis"
	"github.com/san-kum/caustics/internal/automation"
	"github.com/san-kum/caustics/internal/experiment"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/storage"
	"github.com/san-kum/caustics/internal/viz"
)

var (
	mcTrials  int
	mcPerturb float64
	nbins     int
	maxM      int
)

func studyCommands() []*cobra.Command {
	batchCmd := &cobra.Command{
		Use:   "batch [file]",
		Short: "run a scripted batch of renders",
		Args:  cobra.ExactArgs(1),
		RunE:  runBatch,
	}

	mcCmd := &cobra.Command{
		Use:   "montecarlo",
		Short: "score renders of randomly perturbed flat vectors",
		RunE:  runMonteCarlo,
	}
	scenarioFlags(mcCmd)
	mcCmd.Flags().IntVar(&mcTrials, "trials", 64, "number of trials")
	mcCmd.Flags().Float64Var(&mcPerturb, "perturb", 0.1, "relative perturbation of every entry")
	mcCmd.Flags().Uint64Var(&noiseSeed, "seed", 1, "random seed")
	mcCmd.Flags().IntVar(&workers, "workers", 0, "render workers (0 = one per CPU)")

	analyzeCmd := &cobra.Command{
		Use:   "analyze [run_id]",
		Short: "radial profile and azimuthal structure of a stored image",
		Args:  cobra.ExactArgs(1),
		RunE:  analyzeRun,
	}
	analyzeCmd.Flags().IntVar(&nbins, "bins", 40, "radial bins")
	analyzeCmd.Flags().IntVar(&maxM, "modes", 4, "highest azimuthal multipole")

	return []*cobra.Command{batchCmd, mcCmd, analyzeCmd}
}

func runBatch(cmd *cobra.Command, args []string) error {
	b, err := automation.LoadBatch(args[0])
	if err != nil {
		return err
	}
	st := storage.New(dataDir)
	if err := st.Init(); err != nil {
		return err
	}

	fmt.Printf("running batch %s (%d steps)\n", b.Name, len(b.Steps))
	results, err := automation.RunBatch(cmd.Context(), b, experiment.NewRegistry(), st)

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "STEP\tSCENARIO\tFLUX\tRUN")
	for _, r := range results {
		id := r.RunID
		if id == "" {
			id = "-"
		}
		fmt.Fprintf(w, "%d\t%s\t%.4g\t%s\n", r.Step, r.Scenario, r.Result.Image.Sum(), id)
	}
	if ferr := w.Flush(); ferr != nil && err == nil {
		err = ferr
	}
	return err
}

func runMonteCarlo(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	results, err := automation.RunMonteCarlo(cmd.Context(), exp, automation.MonteCarloConfig{
		Perturbation: mcPerturb,
		NumTrials:    mcTrials,
		Seed:         noiseSeed,
		Workers:      workers,
	})
	if err != nil {
		return err
	}

	fmt.Printf("%d trials, entries perturbed by up to %.0f%%\n\n", len(results), mcPerturb*100)
	for _, m := range exp.Metrics() {
		mean, std := automation.MonteCarloStats(results, m.Name())
		fmt.Printf("%s  std %.4g\n", viz.MetricLine(m.Name()+" mean", mean), std)
	}

	mse := make([]float64, len(results))
	for i, r := range results {
		mse[i] = r.Metrics["mse"]
	}
	fmt.Println("\nmse by trial")
	fmt.Println(viz.Sparkline(mse, 60))
	return nil
}

func analyzeRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	img, err := st.LoadImage(args[0])
	if err != nil {
		return err
	}

	// the run was rendered on this grid
	grid, err := sim.NewGrid(sim.Config{FOV: meta.FOV, NPix: meta.NPix})
	if err != nil {
		return err
	}
	x, y := grid.X, grid.Y

	prof, err := analysis.RadialProfile(img, x, y, 0, 0, nbins)
	if err != nil {
		return err
	}
	radius := analysis.RingRadius(prof)

	fmt.Printf("run: %s\n", meta.ID)
	fmt.Printf("scenario: %s (%s lens)\n\n", meta.Scenario, meta.Lens)
	fmt.Println(viz.PlotSeries(prof.Values, "radial profile", 10, 60))
	fmt.Println()
	fmt.Println(viz.MetricLine("ring radius", radius))

	power, err := analysis.AzimuthalPower(img, x, y, 0, 0, radius, 128, maxM)
	if err != nil {
		fmt.Printf("azimuthal power unavailable: %v\n", err)
		return nil
	}
	parts := make([]string, len(power))
	for m, p := range power {
		parts[m] = fmt.Sprintf("m=%d %.3f", m, p)
	}
	fmt.Println(viz.MetricLabel.Render("multipoles") + strings.Join(parts, "  "))
	return nil
}
