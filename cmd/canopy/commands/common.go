// Package commands implements the canopy CLI.
package commands

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/teranos/canopy/config"
	"github.com/teranos/canopy/db"
	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/ledger"
	"github.com/teranos/canopy/logger"
	"github.com/teranos/canopy/mapred"
)

// bindFlags binds command flags to config keys. Only flags the user set
// override files and environment; defaults come from config.SetDefaults.
func bindFlags(cmd *cobra.Command, keys map[string]string) error {
	v := config.GetViper()
	for flag, key := range keys {
		if err := v.BindPFlag(key, cmd.Flags().Lookup(flag)); err != nil {
			return errors.Wrapf(err, "failed to bind --%s", flag)
		}
	}
	return nil
}

// loadConfig loads and validates the effective configuration
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, errors.Wrap(err, "failed to load config")
	}
	if err := cfg.Validate(); err != nil {
		return nil, errors.WithHint(errors.Wrap(err, "invalid configuration"),
			"run 'canopy config show' to see the effective settings")
	}
	return cfg, nil
}

// openLedger opens the run ledger named by database.path
func openLedger(cfg *config.Config) (*ledger.Store, func(), error) {
	conn, err := db.OpenWithMigrations(cfg.Database.Path, logger.ComponentLogger("db"))
	if err != nil {
		return nil, nil, errors.WithHintf(err, "check database.path (%s) or pass --db", cfg.Database.Path)
	}
	return ledger.NewStore(conn), func() { conn.Close() }, nil
}

// finishRun stores the counters of job, exports them when a textfile is
// configured and closes the run. Bookkeeping failures are logged, never
// returned: runErr is what the caller reports.
func finishRun(ctx context.Context, store *ledger.Store, run *ledger.Run, job *mapred.Job, textfile string, runErr error) error {
	log := logger.LoggerFromContext(ctx)

	if err := store.RecordCounters(run.ID, job.Counters.Snapshot()); err != nil {
		log.Warnw("Failed to record counters", logger.FieldError, err)
	}
	if textfile != "" {
		if err := job.Counters.WriteTextfile(textfile); err != nil {
			log.Warnw("Failed to export counters", logger.FieldPath, textfile, logger.FieldError, err)
		}
	}
	if err := store.Finish(run, runErr); err != nil {
		log.Warnw("Failed to close run", logger.FieldError, err)
	}
	return runErr
}

// renderTable writes a pterm table with a header row to out
func renderTable(out io.Writer, data pterm.TableData) error {
	s, err := pterm.DefaultTable.WithHasHeader().WithData(data).Srender()
	if err != nil {
		return errors.Wrap(err, "failed to render table")
	}
	_, err = fmt.Fprintln(out, s)
	return err
}

// counterTable renders counters sorted by name
func counterTable(counters map[string]int64, names []string) pterm.TableData {
	data := pterm.TableData{{"Counter", "Value"}}
	for _, name := range names {
		data = append(data, []string{name, fmt.Sprintf("%d", counters[name])})
	}
	return data
}

// truncate shortens s to max runes, marking the cut with an ellipsis
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

// requirePaths fails with a hint when a required path setting is empty
func requirePaths(settings ...[2]string) error {
	var missing []string
	for _, s := range settings {
		if strings.TrimSpace(s[1]) == "" {
			missing = append(missing, s[0])
		}
	}
	if len(missing) == 0 {
		return nil
	}
	return errors.WithHint(
		errors.NewInvalidArgumentf("missing required setting: %s", strings.Join(missing, ", ")),
		"pass the matching flags or set them under [paths] in canopy.toml")
}
