package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/canopy/cmd/canopy/commands"
	"github.com/teranos/canopy/config"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/logger"
)

var rootCmd = &cobra.Command{
	Use:   "canopy",
	Short: "canopy - Canopy clustering for integer sequences",
	Long: `canopy - Canopy clustering for integer sequences.

canopy groups sequences such as journeys or event streams into canopies
using a Levenshtein or Tanimoto distance, then labels new sequences with
the most similar canopy.

Available commands:
  build    - Build canonical canopies from a dataset
  classify - Label sequences with their most similar canopy
  inspect  - Show the canopies stored in a directory
  runs     - List recorded runs
  config   - Show and validate configuration
  version  - Show version information

Examples:
  canopy build -i journeys.txt -o out/journeys --reducers 4
  canopy classify --clusters out/journeys -i new.txt -o out/labels
  canopy runs show <run-id>`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		verbosity, _ := cmd.Flags().GetCount("verbose")
		jsonLog, _ := cmd.Flags().GetBool("json-log")
		if err := logger.Initialize(jsonLog, verbosity); err != nil {
			return errors.Wrap(err, "failed to initialize logger")
		}

		if path, _ := cmd.Flags().GetString("config"); path != "" {
			if err := config.UseFile(path); err != nil {
				return err
			}
		}
		if path, _ := cmd.Flags().GetString("db"); path != "" {
			config.GetViper().Set("database.path", path)
		}
		return nil
	},
}

func init() {
	flags := rootCmd.PersistentFlags()
	flags.CountP("verbose", "v", "Increase output verbosity (repeat for more detail: -v, -vv)")
	flags.Bool("json-log", false, "Write logs as JSON to stderr")
	flags.String("config", "", "Config file merged over the discovered canopy.toml files")
	flags.String("db", "", "Run ledger database path (overrides database.path)")

	rootCmd.AddCommand(commands.BuildCmd)
	rootCmd.AddCommand(commands.ClassifyCmd)
	rootCmd.AddCommand(commands.InspectCmd)
	rootCmd.AddCommand(commands.RunsCmd)
	rootCmd.AddCommand(commands.ConfigCmd)
	rootCmd.AddCommand(commands.VersionCmd)
}

func main() {
	// SIGINT/SIGTERM cancel the run; nothing partial is published
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	err := rootCmd.ExecuteContext(ctx)
	stop()
	logger.Cleanup()

	if err != nil {
		fmt.Fprintf(os.Stderr, "%s %v\n", pterm.Red("error:"), err)
		for _, hint := range errors.GetAllHints(err) {
			fmt.Fprintf(os.Stderr, "  %s %s\n", pterm.LightCyan("hint:"), hint)
		}
		os.Exit(1)
	}
}
