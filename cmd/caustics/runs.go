package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/caustics/internal/storage"
	"github.com/san-kum/caustics/internal/viz"
)

func runsCommand() *cobra.Command {
	runsCmd := &cobra.Command{
		Use:   "runs",
		Short: "manage stored runs",
	}

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list runs",
		RunE:  listRuns,
	}

	showCmd := &cobra.Command{
		Use:   "show [run_id]",
		Short: "print run metadata and image",
		Args:  cobra.ExactArgs(1),
		RunE:  showRun,
	}
	showCmd.Flags().IntVar(&cols, "cols", 64, "heatmap width in characters")

	exportCmd := &cobra.Command{
		Use:   "export [run_id]",
		Short: "export a run with its image as JSON",
		Args:  cobra.ExactArgs(1),
		RunE:  exportRun,
	}
	exportCmd.Flags().StringVar(&outPath, "out", "", "output file (default stdout)")

	deleteCmd := &cobra.Command{
		Use:   "delete [run_id]",
		Short: "delete a run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return storage.New(dataDir).Delete(args[0])
		},
	}

	runsCmd.AddCommand(listCmd, showCmd, exportCmd, deleteCmd)
	return runsCmd
}

func listRuns(cmd *cobra.Command, args []string) error {
	runs, err := storage.New(dataDir).List()
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tLENS\tTIME\tZ_S\tNPIX\tDTYPE")
	for _, run := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%.3g\t%d\t%s\n",
			run.ID,
			run.Scenario,
			run.Lens,
			run.Timestamp.Format("2006-01-02 15:04:05"),
			run.ZS,
			run.NPix,
			run.DType,
		)
	}
	return w.Flush()
}

func showRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	meta, err := st.Load(args[0])
	if err != nil {
		return err
	}
	img, err := st.LoadImage(args[0])
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(meta); err != nil {
		return err
	}
	drawn, err := viz.Heatmap(img, viz.HeatmapOptions{Width: cols})
	if err != nil {
		return err
	}
	fmt.Println(viz.BoxWithTitle(meta.ID, strings.TrimRight(drawn, "\n"), cols+2))
	return nil
}

func exportRun(cmd *cobra.Command, args []string) error {
	st := storage.New(dataDir)
	if outPath == "" {
		return st.ExportJSON(os.Stdout, args[0])
	}
	if err := st.ExportJSONFile(outPath, args[0]); err != nil {
		return err
	}
	fmt.Printf("exported to %s\n", outPath)
	return nil
}
