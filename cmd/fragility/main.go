// Command fragility is the thin, non-core entry point of spec §6: it
// loads a scenario, samples the pricing function over its grid, runs
// the fragility sweep, prints a report, and persists the run. Grounded on cmd/dynsim/main.go's cobra command tree, trimmed of
// the TUI/GUI/audio subcommands that serve the excluded example
// harness.
package main

import (
	"fmt"
	"log/slog"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/san-kum/fragility/internal/errs"
	"github.com/san-kum/fragility/internal/fragility"
	"github.com/san-kum/fragility/internal/grid"
	"github.com/san-kum/fragility/internal/obslog"
	"github.com/san-kum/fragility/internal/runstore"
	"github.com/san-kum/fragility/internal/scenario"
)

var (
	dataDir      string
	scenarioFile string
	presetName   string
	topN         int
	runLimit     int
)

func main() {
	obslog.Init(slog.LevelInfo)

	rootCmd := &cobra.Command{
		Use:   "fragility",
		Short: "fragility score analysis of a gridded pricing manifold",
	}
	rootCmd.PersistentFlags().StringVar(&dataDir, "data", ".fragility", "data directory")

	runCmd := &cobra.Command{
		Use:   "run",
		Short: "sample a scenario, compute the fragility map, print and persist a report",
		RunE:  runScenario,
	}
	runCmd.Flags().StringVar(&scenarioFile, "scenario", "", "scenario YAML file path")
	runCmd.Flags().StringVar(&presetName, "preset", "", "use a registered preset scenario")
	runCmd.Flags().IntVar(&topN, "top", 10, "number of fragile regions to show in the report")

	reportCmd := &cobra.Command{
		Use:   "report [run_id]",
		Short: "print a persisted run's summary and top fragile regions",
		Args:  cobra.ExactArgs(1),
		RunE:  reportRun,
	}
	reportCmd.Flags().IntVar(&topN, "top", 10, "number of fragile regions to show")

	listCmd := &cobra.Command{
		Use:   "list",
		Short: "list persisted runs",
		RunE:  listRuns,
	}
	listCmd.Flags().IntVar(&runLimit, "limit", 20, "maximum number of runs to list")

	presetsCmd := &cobra.Command{
		Use:   "presets",
		Short: "list registered preset scenarios",
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, name := range scenario.ListPresets() {
				fmt.Println(name)
			}
			return nil
		},
	}

	rootCmd.AddCommand(runCmd, reportCmd, listCmd, presetsCmd)

	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func loadScenario() (*scenario.Scenario, string, error) {
	switch {
	case scenarioFile != "":
		s, err := scenario.Load(scenarioFile)
		if err != nil {
			return nil, "", fmt.Errorf("load scenario: %w", err)
		}
		return s, scenarioFile, nil
	case presetName != "":
		s := scenario.GetPreset(presetName)
		if s == nil {
			return nil, "", fmt.Errorf("unknown preset: %s (available: %v)", presetName, scenario.ListPresets())
		}
		return s, presetName, nil
	default:
		return scenario.Default(), "default", nil
	}
}

func runScenario(cmd *cobra.Command, args []string) error {
	s, label, err := loadScenario()
	if err != nil {
		return err
	}

	dims, err := s.BuildDimensions()
	if err != nil {
		return fmt.Errorf("build dimensions: %w", err)
	}
	space, gErr := grid.NewFromDimensions(dims)
	if gErr != nil {
		return fmt.Errorf("build state space: %w", gErr)
	}

	pricer, err := s.BuildPricer()
	if err != nil {
		return fmt.Errorf("build pricer: %w", err)
	}
	if mErr := space.MapPrices(pricer); mErr != nil {
		return fmt.Errorf("map prices: %w", mErr)
	}

	surface, err := s.BuildConstraintSurface()
	if err != nil {
		return fmt.Errorf("build constraint surface: %w", err)
	}

	m, fErr := fragility.New(space, surface, s.BuildFragilityConfig())
	if fErr != nil {
		return fmt.Errorf("new fragility map: %w", fErr)
	}
	if cErr := m.Compute(); cErr != nil {
		if errs.Is(cErr, errs.NotInitialized) {
			return fmt.Errorf("compute fragility map: %w (did MapPrices run before Compute?)", cErr)
		}
		return fmt.Errorf("compute fragility map: %w", cErr)
	}

	fmt.Print(m.Report(topN))

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return fmt.Errorf("create data dir: %w", err)
	}
	store, sErr := runstore.Open(dataDir + "/fragility.db")
	if sErr != nil {
		return fmt.Errorf("open run store: %w", sErr)
	}
	defer store.Close()

	runID, pErr := store.SaveRun(label, m)
	if pErr != nil {
		return fmt.Errorf("persist run: %w", pErr)
	}
	slog.Info("run persisted", "run_id", runID, "scenario", label)
	fmt.Printf("\nrun id: %s\n", runID)
	return nil
}

func reportRun(cmd *cobra.Command, args []string) error {
	runID := args[0]

	store, err := runstore.Open(dataDir + "/fragility.db")
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	rec, err := store.GetRun(runID)
	if err != nil {
		return err
	}
	fmt.Printf("run: %s\n", rec.RunID)
	fmt.Printf("scenario: %s\n", rec.Scenario)
	fmt.Printf("points: %d   max: %.4f   mean: %.4f   fragile: %.1f%%\n",
		rec.TotalPoints, rec.Max, rec.Mean, rec.FragileFraction*100)

	regions, err := store.ListRegions(runID)
	if err != nil {
		return err
	}
	if topN > 0 && topN < len(regions) {
		regions = regions[:topN]
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCORE\tCLASS\tCURVATURE\tGRAD_NORM\tNEAR_CONSTRAINT")
	for _, r := range regions {
		fmt.Fprintf(w, "%.4f\t%s\t%.4f\t%.4f\t%v\n", r.Score, fragility.Classify(r.Score), r.Curvature, r.GradientNorm, r.NearConstraint)
	}
	return w.Flush()
}

func listRuns(cmd *cobra.Command, args []string) error {
	store, err := runstore.Open(dataDir + "/fragility.db")
	if err != nil {
		return fmt.Errorf("open run store: %w", err)
	}
	defer store.Close()

	runs, err := store.ListRuns(runLimit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Println("no runs found")
		return nil
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tSCENARIO\tCREATED\tMAX\tMEAN\tFRAGILE%")
	for _, r := range runs {
		fmt.Fprintf(w, "%s\t%s\t%s\t%.4f\t%.4f\t%.1f\n",
			r.RunID, r.Scenario, r.CreatedAt.Format("2006-01-02 15:04:05"), r.Max, r.Mean, r.FragileFraction*100)
	}
	return w.Flush()
}
