package commands

import (
	"context"
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/canopy/canopy"
	"github.com/teranos/canopy/config"
	"github.com/teranos/canopy/dataset"
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/ledger"
	"github.com/teranos/canopy/logger"
	"github.com/teranos/canopy/mapred"
	"github.com/teranos/canopy/pipeline"
)

// BuildCmd builds the canonical canopy set of a dataset
var BuildCmd = &cobra.Command{
	Use:   "build",
	Short: "Build canonical canopies from a sequence dataset",
	Long: `Cluster a sequence dataset into canopies.

The build runs floor(log2(reducers)) + 1 rounds. Thresholds start small and
grow to --t1/--t2 in the last round while parallelism halves down to 1. A
final pass counts, for every canopy, the input points within t1; canopies
below --min-observations are dropped.

Output layout:
  <output>/canopies/part-00000   canonical canopies (binary)
  <output>/assignments/part-*    "canopyID<TAB>key" lines
  <output>/MANIFEST.toml         run summary

Examples:
  canopy build -i journeys.txt -o out/journeys
  canopy build -i data/ -o out/x --reducers 8 --t1 0.3 --t2 0.2
  canopy build -i sets.txt -o out/sets --measure tanimoto`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, buildFlagKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runBuild(cmd.Context(), cmd.OutOrStdout())
	},
}

var buildFlagKeys = map[string]string{
	"input":            "paths.input",
	"output":           "paths.output",
	"measure":          "measure.kind",
	"t1":               "clustering.t1",
	"t2":               "clustering.t2",
	"reducers":         "clustering.reducers",
	"min-observations": "clustering.min_observations",
	"metrics-textfile": "metrics.textfile",
}

func init() {
	f := BuildCmd.Flags()
	f.StringP("input", "i", "", "Input dataset: a sequence file or a directory of part files")
	f.StringP("output", "o", "", "Output directory (must not exist)")
	f.String("measure", config.DefaultMeasure, "Distance measure: levenshtein or tanimoto")
	f.Float64("t1", config.DefaultT1, "Final membership threshold")
	f.Float64("t2", config.DefaultT2, "Final creation threshold (<= t1)")
	f.Int("reducers", config.DefaultReducers, "Parallelism of the first round")
	f.Int64("min-observations", config.DefaultMinObservations, "Minimum support to keep a canopy")
	f.String("metrics-textfile", "", "Write run counters in Prometheus text format to this file")
}

func runBuild(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if err := requirePaths([2]string{"--input", cfg.Paths.Input}, [2]string{"--output", cfg.Paths.Output}); err != nil {
		return err
	}
	measure, err := distance.FromName(cfg.Measure.Kind)
	if err != nil {
		return err
	}

	store, closeLedger, err := openLedger(cfg)
	if err != nil {
		return err
	}
	defer closeLedger()

	run, err := ledger.NewRun(ledger.KindBuild, cfg.Paths.Input, cfg.Paths.Output, cfg)
	if err != nil {
		return err
	}
	if err := store.Begin(run); err != nil {
		return err
	}
	ctx = logger.WithRunID(ctx, run.ID)

	job := mapred.NewJob(run.ID, logger.ComponentLogger("build"))
	buildCfg := pipeline.BuildConfig{
		Measure:         measure,
		Thresholds:      canopy.Thresholds{T1: cfg.Clustering.T1, T2: cfg.Clustering.T2},
		Reducers:        cfg.Clustering.Reducers,
		MinObservations: cfg.Clustering.MinObservations,
		Input:           cfg.Paths.Input,
		Output:          cfg.Paths.Output,
	}
	builder, err := pipeline.NewBuilder(job, buildCfg)
	if err != nil {
		return finishRun(ctx, store, run, job, cfg.Metrics.Textfile, err)
	}
	builder.OnRound(func(s pipeline.RoundSummary) {
		err := store.RecordRound(ledger.Round{
			RunID:       run.ID,
			Round:       s.Round,
			T1:          s.Thresholds.T1,
			T2:          s.Thresholds.T2,
			Parallelism: s.Parallelism,
			Canopies:    s.Canopies,
			MeanGroup:   s.MeanGroup,
			MaxGroup:    s.MaxGroup,
		})
		if err != nil {
			job.Logger.Warnw("Failed to record round", logger.FieldRound, s.Round, logger.FieldError, err)
		}
	})

	res, err := builder.Build(ctx)
	if err == nil {
		manifest := pipeline.BuildManifest(run.ID, buildCfg, res, job.Counters.Snapshot())
		err = dataset.WriteManifest(cfg.Paths.Output, manifest)
	}
	if err := finishRun(ctx, store, run, job, cfg.Metrics.Textfile, err); err != nil {
		return err
	}

	return printBuildSummary(out, run, res, job.Counters)
}

func printBuildSummary(out io.Writer, run *ledger.Run, res *pipeline.BuildResult, counters *mapred.Counters) error {
	rounds := pterm.TableData{{"Round", "T1", "T2", "Parallelism", "Canopies", "Mean group", "Max group"}}
	for _, r := range res.Rounds {
		rounds = append(rounds, []string{
			fmt.Sprintf("%d", r.Round),
			fmt.Sprintf("%.4f", r.Thresholds.T1),
			fmt.Sprintf("%.4f", r.Thresholds.T2),
			fmt.Sprintf("%d", r.Parallelism),
			fmt.Sprintf("%d", r.Canopies),
			fmt.Sprintf("%.2f", r.MeanGroup),
			fmt.Sprintf("%d", r.MaxGroup),
		})
	}
	if err := renderTable(out, rounds); err != nil {
		return err
	}

	retained := len(res.Canopies)
	total := retained + len(res.Rejected)
	fmt.Fprintf(out, "%s Built %d canopies (%d rejected below min observations) in %s\n",
		pterm.Green("✓"), retained, len(res.Rejected), run.Duration().Round(time.Millisecond))
	if retained == 0 && total > 0 {
		fmt.Fprintf(out, "%s Every canopy was rejected; lower --min-observations\n", pterm.Yellow("!"))
	}

	top := append([]canopy.Canopy(nil), res.Canopies...)
	sort.SliceStable(top, func(i, j int) bool { return top[i].Observations > top[j].Observations })
	if len(top) > 10 {
		top = top[:10]
	}
	if len(top) > 0 {
		data := pterm.TableData{{"ID", "Observations", "Center"}}
		for _, c := range top {
			data = append(data, []string{fmt.Sprintf("%d", c.ID), fmt.Sprintf("%d", c.Observations), truncate(c.Center.String(), 60)})
		}
		if err := renderTable(out, data); err != nil {
			return err
		}
	}

	fmt.Fprintf(out, "%s run %s, %d assignments emitted across %d rounds\n",
		pterm.Gray("→"), run.ID, counters.Get(canopy.CounterAssignments), len(res.Rounds))
	return nil
}
