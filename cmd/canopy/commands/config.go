package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/pelletier/go-toml/v2"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/teranos/canopy/config"
	"github.com/teranos/canopy/errors"
)

// ConfigCmd shows and validates the effective configuration
var ConfigCmd = &cobra.Command{
	Use:   "config",
	Short: "Show and validate configuration",
	Long: `Show and validate the effective canopy configuration.

Configuration sources (later overrides earlier):
1. Default values
2. System config (/etc/canopy/canopy.toml)
3. User config (~/.canopy/canopy.toml)
4. Project config (./canopy.toml)
5. --config <file>
6. Environment variables (CANOPY_* prefix, e.g. CANOPY_CLUSTERING_T1)
7. Command line flags

Examples:
  canopy config show
  canopy config show --format yaml
  canopy config validate`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return cmd.Help()
	},
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		format, _ := cmd.Flags().GetString("format")
		return runConfigShow(cmd.OutOrStdout(), format)
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate the effective configuration",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runConfigValidate(cmd.OutOrStdout())
	},
}

func init() {
	configShowCmd.Flags().String("format", "toml", "Output format: toml, json, yaml")

	ConfigCmd.AddCommand(configShowCmd)
	ConfigCmd.AddCommand(configValidateCmd)
}

func runConfigShow(out io.Writer, format string) error {
	cfg, err := config.Load()
	if err != nil {
		return errors.Wrap(err, "failed to load config")
	}

	var data []byte
	switch format {
	case "json":
		data, err = json.MarshalIndent(cfg, "", "  ")
		if err == nil {
			data = append(data, '\n')
		}
	case "yaml":
		data, err = yaml.Marshal(cfg)
	case "toml":
		data, err = toml.Marshal(cfg)
	default:
		return errors.NewInvalidArgumentf("unsupported format: %s (supported: toml, json, yaml)", format)
	}
	if err != nil {
		return errors.Wrapf(err, "failed to marshal config to %s", format)
	}

	if format != "json" {
		fmt.Fprintln(out, "# canopy configuration")
	}
	_, err = out.Write(data)
	return err
}

func runConfigValidate(out io.Writer) error {
	if _, err := loadConfig(); err != nil {
		return err
	}
	fmt.Fprintf(out, "%s Configuration is valid\n", pterm.Green("✓"))
	return nil
}
