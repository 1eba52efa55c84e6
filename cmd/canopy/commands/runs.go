package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/ledger"
)

// RunsCmd lists recorded runs
var RunsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recorded build and classify runs",
	Long: `List runs recorded in the ledger database, newest first.

Status filters:
  queued    - Recorded but not started
  running   - In progress, or interrupted without cleanup
  completed - Finished and published
  failed    - Stopped with an error; nothing was published

Examples:
  canopy runs
  canopy runs --status failed
  canopy runs show <run-id>`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		status, _ := cmd.Flags().GetString("status")
		limit, _ := cmd.Flags().GetInt("limit")
		return runRunsList(cmd.OutOrStdout(), status, limit)
	},
}

var runsShowCmd = &cobra.Command{
	Use:   "show <run-id>",
	Short: "Show a run with its rounds and counters",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runRunsShow(cmd.OutOrStdout(), args[0])
	},
}

func init() {
	RunsCmd.Flags().String("status", "", "Filter by status (queued, running, completed, failed)")
	RunsCmd.Flags().Int("limit", 20, "Maximum number of runs to display")

	RunsCmd.AddCommand(runsShowCmd)
}

func openLedgerFromConfig() (*ledger.Store, func(), error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, nil, err
	}
	return openLedger(cfg)
}

func runRunsList(out io.Writer, statusFilter string, limit int) error {
	var status *ledger.Status
	if statusFilter != "" {
		if !ledger.IsValidStatus(statusFilter) {
			return errors.NewInvalidArgumentf("unknown status %q (valid: queued, running, completed, failed)", statusFilter)
		}
		s := ledger.Status(statusFilter)
		status = &s
	}

	store, closeLedger, err := openLedgerFromConfig()
	if err != nil {
		return err
	}
	defer closeLedger()

	runs, err := store.ListRuns(status, limit)
	if err != nil {
		return err
	}
	if len(runs) == 0 {
		fmt.Fprintln(out, "No runs found")
		return nil
	}

	data := pterm.TableData{{"Run ID", "Kind", "Status", "Input", "Output", "Created", "Duration"}}
	for _, r := range runs {
		data = append(data, []string{
			r.ID,
			string(r.Kind),
			colorStatus(r.Status),
			truncate(r.Input, 30),
			truncate(r.Output, 30),
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			formatDuration(r),
		})
	}
	if err := renderTable(out, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "\nTotal: %d run(s)\n", len(runs))
	return nil
}

func runRunsShow(out io.Writer, id string) error {
	store, closeLedger, err := openLedgerFromConfig()
	if err != nil {
		return err
	}
	defer closeLedger()

	run, err := store.GetRun(id)
	if err != nil {
		return err
	}

	fmt.Fprintf(out, "Run ID:   %s\n", run.ID)
	fmt.Fprintf(out, "Kind:     %s\n", run.Kind)
	fmt.Fprintf(out, "Status:   %s\n", colorStatus(run.Status))
	fmt.Fprintf(out, "Input:    %s\n", run.Input)
	fmt.Fprintf(out, "Output:   %s\n", run.Output)
	fmt.Fprintf(out, "Created:  %s\n", run.CreatedAt.Local().Format(time.RFC3339))
	if run.StartedAt != nil {
		fmt.Fprintf(out, "Started:  %s\n", run.StartedAt.Local().Format(time.RFC3339))
	}
	if run.FinishedAt != nil {
		fmt.Fprintf(out, "Finished: %s (%s)\n", run.FinishedAt.Local().Format(time.RFC3339), formatDuration(run))
	}
	if run.Error != "" {
		fmt.Fprintf(out, "Error:    %s\n", pterm.Red(run.Error))
	}

	rounds, err := store.Rounds(run.ID)
	if err != nil {
		return err
	}
	if len(rounds) > 0 {
		fmt.Fprintln(out)
		data := pterm.TableData{{"Round", "T1", "T2", "Parallelism", "Canopies", "Mean group", "Max group"}}
		for _, r := range rounds {
			data = append(data, []string{
				fmt.Sprintf("%d", r.Round),
				fmt.Sprintf("%.4f", r.T1),
				fmt.Sprintf("%.4f", r.T2),
				fmt.Sprintf("%d", r.Parallelism),
				fmt.Sprintf("%d", r.Canopies),
				fmt.Sprintf("%.2f", r.MeanGroup),
				fmt.Sprintf("%d", r.MaxGroup),
			})
		}
		if err := renderTable(out, data); err != nil {
			return err
		}
	}

	counters, err := store.Counters(run.ID)
	if err != nil {
		return err
	}
	if len(counters) > 0 {
		names := make([]string, 0, len(counters))
		for name := range counters {
			names = append(names, name)
		}
		sort.Strings(names)
		fmt.Fprintln(out)
		return renderTable(out, counterTable(counters, names))
	}
	return nil
}

func colorStatus(s ledger.Status) string {
	switch s {
	case ledger.StatusCompleted:
		return pterm.Green(string(s))
	case ledger.StatusFailed:
		return pterm.Red(string(s))
	case ledger.StatusRunning:
		return pterm.Yellow(string(s))
	default:
		return string(s)
	}
}

func formatDuration(r *ledger.Run) string {
	if r.FinishedAt == nil {
		return "-"
	}
	return r.Duration().Round(time.Millisecond).String()
}
