package main

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/caustics/internal/automation"
	"github.com/san-kum/caustics/internal/config"
	"github.com/san-kum/caustics/internal/cosmology"
	"github.com/san-kum/caustics/internal/experiment"
	"github.com/san-kum/caustics/internal/export"
	"github.com/san-kum/caustics/internal/metrics"
	"github.com/san-kum/caustics/internal/optim"
	"github.com/san-kum/caustics/internal/param"
	"github.com/san-kum/caustics/internal/sim"
	"github.com/san-kum/caustics/internal/storage"
	"github.com/san-kum/caustics/internal/tensor"
	"github.com/san-kum/caustics/internal/viz"
)

func showTree(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	fmt.Println(viz.DrawTree(exp.Simulator()))
	return nil
}

func showLayout(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	flat := exp.Config().Flat

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "INDEX\tMODULE\tPARAM\tSHAPE\tVALUE")
	offset := 0
	for _, d := range exp.Simulator().DynamicParams() {
		vals := make([]string, d.Size())
		for i := range vals {
			vals[i] = strconv.FormatFloat(flat[offset+i], 'g', 6, 64)
		}
		fmt.Fprintf(w, "%d\t%s\t%s\t%v\t%s\n", offset, d.Module.Name(), d.Name, d.Shape, strings.Join(vals, ","))
		offset += d.Size()
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Printf("\n%d flat entries\n", offset)

	if showSignatures {
		fmt.Println()
		w = tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
		fmt.Fprintln(w, "METHOD\tPARAMS")
		for _, sig := range param.Signatures() {
			fmt.Fprintf(w, "%s\t%s\n", sig.Method(), strings.Join(sig.Names(), ", "))
		}
		return w.Flush()
	}
	return nil
}

func showDistances(cmd *cobra.Command, args []string) error {
	redshifts := make([]float64, len(args))
	for i, a := range args {
		z, err := strconv.ParseFloat(a, 64)
		if err != nil {
			return fmt.Errorf("invalid redshift %q: %w", a, err)
		}
		redshifts[i] = z
	}

	params := map[string]float64{"h0": h0, "Om0": om0}
	if cosmoKind == "flat_wcdm" {
		params["w0"] = w0
	} else {
		params["critical_density_0"] = cosmology.CriticalDensity0(h0)
	}
	cosmo, err := experiment.NewRegistry().GetCosmology(config.ComponentConfig{
		Kind:   cosmoKind,
		Name:   "cosmo",
		Params: params,
	})
	if err != nil {
		return err
	}

	z := tensor.FromSlice(redshifts...)
	dc, err := cosmo.ComovingDistance(z, nil, nil)
	if err != nil {
		return err
	}
	da, err := cosmology.AngularDiameterDistance(cosmo, z, nil, nil)
	if err != nil {
		return err
	}

	var dls, sigma *tensor.Tensor
	if zl > 0 {
		zlt := tensor.Scalar(zl)
		if dls, err = cosmology.AngularDiameterDistanceZ1Z2(cosmo, zlt, z, nil, nil); err != nil {
			return err
		}
		if sigma, err = cosmology.CriticalSurfaceDensity(cosmo, zlt, z, nil, nil); err != nil {
			return err
		}
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := "Z\tD_C [Mpc]\tD_A [Mpc]"
	if zl > 0 {
		header += "\tD_LS [Mpc]\tSIGMA_CR [Msun/Mpc^2]"
	}
	fmt.Fprintln(w, header)
	for i, zi := range redshifts {
		fmt.Fprintf(w, "%.4g\t%.2f\t%.2f", zi, dc.At(i), da.At(i))
		if zl > 0 {
			fmt.Fprintf(w, "\t%.2f\t%.4e", dls.At(i), sigma.At(i))
		}
		fmt.Fprintln(w)
	}
	return w.Flush()
}

func renderImage(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	s := exp.Simulator()
	st := storage.New(dataDir)

	var observed *tensor.Tensor
	if against != "" {
		if observed, err = st.LoadImage(against); err != nil {
			return err
		}
	}

	res, err := exp.Run(cmd.Context(), observed)
	if err != nil {
		return err
	}
	img := res.Image
	if kappa {
		packed, err := s.Pack(cfg.Flat)
		if err != nil {
			return err
		}
		if img, err = s.ConvergenceMap(packed); err != nil {
			return err
		}
	}

	var drawn string
	if braille {
		drawn, err = viz.Braille(img, cols/2, cols/4, 0.3)
	} else {
		opts := viz.HeatmapOptions{Width: cols, Log: logScale}
		if palette != "" {
			p := viz.GetPalette(palette)
			opts.Palette = &p
		}
		drawn, err = viz.Heatmap(img, opts)
	}
	if err != nil {
		return err
	}
	fmt.Println(viz.BoxWithTitle(cfg.Name, strings.TrimRight(drawn, "\n"), cols+2))
	fmt.Printf("min %.4g  max %.4g  sum %.4g\n", img.Min(), img.Max(), img.Sum())

	if len(res.Metrics) > 0 {
		fmt.Println("\nmetrics:")
		for _, m := range exp.Metrics() {
			fmt.Println("  " + viz.MetricLine(m.Name(), res.Metrics[m.Name()]))
		}
	}

	if svgPath != "" {
		name := palette
		if name == "" {
			name = viz.PaletteInferno.Name
		}
		svg, err := export.ImageToSVG(img, 8, viz.GetPalette(name))
		if err != nil {
			return err
		}
		if err := export.WriteFile(svgPath, svg); err != nil {
			return err
		}
		fmt.Printf("svg written to %s\n", svgPath)
	}

	if saveRun {
		if err := st.Init(); err != nil {
			return err
		}
		id, err := st.Save(&storage.Run{
			Scenario: cfg.Name,
			Lens:     cfg.Lens.Kind,
			ZS:       cfg.ZS,
			FOV:      cfg.FOV,
			DType:    cfg.DType,
			Layout:   viz.FlatLabels(s),
			Flat:     res.Flat,
			Image:    img,
			Metrics:  res.Metrics,
		})
		if err != nil {
			return err
		}
		fmt.Printf("run id: %s\n", id)
	}
	return nil
}

func runScan(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	results, err := automation.RunSweep(cmd.Context(), exp, automation.Sweep{
		Index:   scanIndex,
		Min:     scanFrom,
		Max:     scanTo,
		Steps:   scanSteps,
		Workers: workers,
	})
	if err != nil {
		return err
	}

	label := viz.FlatLabels(exp.Simulator())[scanIndex]
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	header := strings.ToUpper(label)
	for _, m := range exp.Metrics() {
		header += "\t" + strings.ToUpper(m.Name())
	}
	fmt.Fprintln(w, header)
	curve := make([]float64, len(results))
	for i, r := range results {
		line := strconv.FormatFloat(r.Value, 'g', 6, 64)
		for _, m := range exp.Metrics() {
			line += "\t" + strconv.FormatFloat(r.Metrics[m.Name()], 'g', 6, 64)
		}
		fmt.Fprintln(w, line)
		curve[i] = r.Metrics["mse"]
	}
	if err := w.Flush(); err != nil {
		return err
	}

	fmt.Println()
	fmt.Println(viz.PlotSeries(curve, "mse vs "+label, 10, 60))
	return nil
}

func runFit(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	cfg := exp.Config()
	s := exp.Simulator()
	ctx := cmd.Context()

	sigma := cfg.NoiseSigma
	if sigma <= 0 {
		sigma = config.DefaultNoise
	}
	ref, err := exp.Run(ctx, nil)
	if err != nil {
		return err
	}
	observed, err := sim.AddNoise(ref.Image, sigma, noiseSeed)
	if err != nil {
		return err
	}

	chi2 := metrics.NewChi2(sigma)
	loss := func(flat []float64) (float64, error) {
		img, err := s.RenderFlat(flat)
		if err != nil {
			return 0, err
		}
		return chi2.Evaluate(img, observed)
	}

	truth := cfg.Flat
	x0 := make([]float64, len(truth))
	for i, v := range truth {
		x0[i] = v * guessScale
	}

	var res *optim.Result
	switch method {
	case "nm":
		res, err = optim.NelderMead(ctx, x0, loss, maxIter)
	case "gd":
		res, err = optim.NewGradientDescent(lr, maxIter).Minimize(ctx, x0, loss)
	case "grid":
		res, err = gridFit(cmd, x0, loss)
	default:
		return fmt.Errorf("unknown method: %s (available: nm, gd, grid)", method)
	}
	if err != nil {
		return err
	}

	labels := viz.FlatLabels(s)
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "PARAM\tTRUE\tSTART\tFIT")
	for i := range truth {
		fmt.Fprintf(w, "%s\t%.5g\t%.5g\t%.5g\n", labels[i], truth[i], x0[i], res.X[i])
	}
	if err := w.Flush(); err != nil {
		return err
	}
	fmt.Println()
	fmt.Println(viz.MetricLine("chi2", res.Loss))
	fmt.Println(viz.MetricLine("chi2/pixel", res.Loss/float64(observed.Len())))
	fmt.Println(viz.MetricLine("iterations", float64(res.Iterations)))
	fmt.Printf("converged: %v\n", res.Converged)

	if len(res.History) > 1 {
		fmt.Println()
		fmt.Println(viz.PlotSeries(res.History, "chi2 history", 10, 60))
		if svgPath != "" {
			if err := export.WriteFile(svgPath, export.SeriesToSVG(res.History, 600, 300, "#00ff88")); err != nil {
				return err
			}
			fmt.Printf("svg written to %s\n", svgPath)
		}
	}
	return nil
}

// gridFit scans every entry over [x/2, 3x/2] around the start vector.
func gridFit(cmd *cobra.Command, x0 []float64, loss optim.LossFunc) (*optim.Result, error) {
	if len(x0) > 3 {
		return nil, fmt.Errorf("grid fit supports at most 3 dynamic entries, scenario has %d", len(x0))
	}
	axes := make([]optim.Axis, len(x0))
	for i, v := range x0 {
		lo, hi := v*0.5, v*1.5
		if v == 0 {
			lo, hi = -1, 1
		}
		if lo > hi {
			lo, hi = hi, lo
		}
		axes[i] = optim.Axis{Index: i, Values: tensor.Linspace(lo, hi, gridSteps).Data()}
	}
	gs := optim.NewGridSearch(axes)
	best, l, err := gs.Search(cmd.Context(), x0, loss)
	if err != nil {
		return nil, err
	}
	return &optim.Result{X: best, Loss: l, Iterations: gs.Size(), Converged: true}, nil
}

func runExplore(cmd *cobra.Command, args []string) error {
	exp, err := setup(cmd)
	if err != nil {
		return err
	}
	final, err := viz.RunExplorer(exp.Simulator(), exp.Config().Flat)
	if err != nil {
		return err
	}
	parts := make([]string, len(final))
	for i, v := range final {
		parts[i] = strconv.FormatFloat(v, 'g', 6, 64)
	}
	fmt.Printf("flat: [%s]\n", strings.Join(parts, ", "))
	return nil
}
