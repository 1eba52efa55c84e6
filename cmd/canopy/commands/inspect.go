package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/canopy/dataset"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/pipeline"
)

// InspectCmd decodes a canopy directory
var InspectCmd = &cobra.Command{
	Use:   "inspect <dir>",
	Short: "Show the canopies stored in a directory",
	Long: `Decode canopy part files and print id, observation count and center.

<dir> is a build output, its canopies/ subdirectory, or an intermediate
round directory such as <output>/_tmp/round-1 of a failed build.

Examples:
  canopy inspect out/journeys
  canopy inspect out/journeys --format json`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		limit, _ := cmd.Flags().GetInt("limit")
		return runInspect(cmd.OutOrStdout(), args[0], format, limit)
	},
}

func init() {
	InspectCmd.Flags().String("format", "table", "Output format: table or json")
	InspectCmd.Flags().Int("limit", 0, "Show at most this many canopies (0 = all)")
}

type canopyView struct {
	ID           int32   `json:"id"`
	Observations int64   `json:"observations"`
	Center       []int32 `json:"center"`
}

func runInspect(out io.Writer, path, format string, limit int) error {
	dir, err := pipeline.ResolveClusterDir(path)
	if err != nil {
		return err
	}
	canopies, err := dataset.ReadCanopies(dir)
	if err != nil {
		return err
	}
	total := len(canopies)
	if limit > 0 && limit < total {
		canopies = canopies[:limit]
	}

	switch format {
	case "json":
		views := make([]canopyView, len(canopies))
		for i, c := range canopies {
			views[i] = canopyView{ID: c.ID, Observations: c.Observations, Center: c.Center}
		}
		data, err := json.MarshalIndent(views, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal canopies")
		}
		fmt.Fprintln(out, string(data))
		return nil

	case "table":
		m, err := dataset.ReadManifest(path)
		switch {
		case err == nil:
			fmt.Fprintf(out, "%s run %s, %s, t1=%g t2=%g\n",
				pterm.LightCyan("Manifest:"), m.RunID, m.Measure, m.T1, m.T2)
		case !errors.Is(err, errors.ErrNotFound):
			return err
		}

		data := pterm.TableData{{"ID", "Observations", "Length", "Center"}}
		for _, c := range canopies {
			data = append(data, []string{
				fmt.Sprintf("%d", c.ID),
				fmt.Sprintf("%d", c.Observations),
				fmt.Sprintf("%d", len(c.Center)),
				truncate(c.Center.String(), 60),
			})
		}
		if err := renderTable(out, data); err != nil {
			return err
		}
		fmt.Fprintf(out, "Total: %d canopies\n", total)
		return nil

	default:
		return errors.NewInvalidArgumentf("unsupported format: %s (supported: table, json)", format)
	}
}
