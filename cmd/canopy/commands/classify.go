package commands

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/canopy/config"
	"github.com/teranos/canopy/dataset"
	"github.com/teranos/canopy/distance"
	"github.com/teranos/canopy/ledger"
	"github.com/teranos/canopy/logger"
	"github.com/teranos/canopy/mapred"
	"github.com/teranos/canopy/pipeline"
)

// ClassifyCmd labels a dataset against a previously built canopy set
var ClassifyCmd = &cobra.Command{
	Use:   "classify",
	Short: "Label sequences with their most similar canopy",
	Long: `Classify every input sequence against a canonical canopy set.

Each point is labelled with the canopy of highest similarity (1 - distance),
the earliest canopy winning ties. Points whose best similarity is below
--min-similarity are counted as unclustered and not written.

--clusters accepts either a build output directory or its canopies/
subdirectory.

Examples:
  canopy classify --clusters out/journeys -i new.txt -o out/labels
  canopy classify --clusters out/journeys/canopies -i new.txt -o out/l --min-similarity 0.8`,
	Args: cobra.NoArgs,
	PreRunE: func(cmd *cobra.Command, args []string) error {
		return bindFlags(cmd, classifyFlagKeys)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		return runClassify(cmd.Context(), cmd.OutOrStdout())
	},
}

var classifyFlagKeys = map[string]string{
	"clusters":         "paths.clusters",
	"input":            "paths.input",
	"output":           "paths.classified",
	"measure":          "measure.kind",
	"min-similarity":   "classify.min_similarity",
	"workers":          "classify.workers",
	"metrics-textfile": "metrics.textfile",
}

func init() {
	f := ClassifyCmd.Flags()
	f.String("clusters", "", "Canonical canopy directory produced by build")
	f.StringP("input", "i", "", "Sequences to classify")
	f.StringP("output", "o", "", "Output directory for labels (must not exist)")
	f.String("measure", config.DefaultMeasure, "Distance measure: levenshtein or tanimoto")
	f.Float64("min-similarity", config.DefaultMinSimilarity, "Minimum similarity for a label, in [0, 1]")
	f.Int("workers", 0, "Parallel workers (0 = one per CPU)")
	f.String("metrics-textfile", "", "Write run counters in Prometheus text format to this file")
}

func runClassify(ctx context.Context, out io.Writer) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	err = requirePaths(
		[2]string{"--clusters", cfg.Paths.Clusters},
		[2]string{"--input", cfg.Paths.Input},
		[2]string{"--output", cfg.Paths.Classified},
	)
	if err != nil {
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

	run, err := ledger.NewRun(ledger.KindClassify, cfg.Paths.Input, cfg.Paths.Classified, cfg)
	if err != nil {
		return err
	}
	if err := store.Begin(run); err != nil {
		return err
	}
	ctx = logger.WithRunID(ctx, run.ID)

	job := mapred.NewJob(run.ID, logger.ComponentLogger("classify"))
	classifyCfg := pipeline.ClassifyConfig{
		Measure:       measure,
		Clusters:      cfg.Paths.Clusters,
		Input:         cfg.Paths.Input,
		Output:        cfg.Paths.Classified,
		MinSimilarity: cfg.Classify.MinSimilarity,
		Workers:       cfg.Classify.Workers,
	}
	res, err := pipeline.Classify(ctx, job, classifyCfg)
	if err == nil {
		manifest := pipeline.ClassifyManifest(run.ID, classifyCfg, res, job.Counters.Snapshot())
		err = dataset.WriteManifest(cfg.Paths.Classified, manifest)
	}
	if err := finishRun(ctx, store, run, job, cfg.Metrics.Textfile, err); err != nil {
		return err
	}

	total := res.Clustered + res.Unclustered
	share := 0.0
	if total > 0 {
		share = float64(res.Clustered) / float64(total) * 100
	}
	fmt.Fprintf(out, "%s Classified %d of %d points (%.1f%%) against %d canopies in %s\n",
		pterm.Green("✓"), res.Clustered, total, share, res.Canopies, run.Duration().Round(time.Millisecond))
	if res.Unclustered > 0 {
		fmt.Fprintf(out, "%s %d points below min similarity %.2f\n",
			pterm.Yellow("!"), res.Unclustered, classifyCfg.MinSimilarity)
	}
	fmt.Fprintf(out, "%s run %s, labels in %s\n", pterm.Gray("→"), run.ID, cfg.Paths.Classified)
	return nil
}
