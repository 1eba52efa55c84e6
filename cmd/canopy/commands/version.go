package commands

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/teranos/canopy/errors"
	"github.com/teranos/canopy/version"
)

// VersionCmd represents the version command
var VersionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show canopy version information",
	Long:  `Display version, build time, commit hash, and platform information for the canopy binary.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		jsonOutput, _ := cmd.Flags().GetBool("json")
		return runVersion(cmd.OutOrStdout(), jsonOutput)
	},
}

func init() {
	VersionCmd.Flags().BoolP("json", "j", false, "Output version info as JSON")
}

func runVersion(out io.Writer, jsonOutput bool) error {
	info := version.Get()
	if jsonOutput {
		data, err := json.MarshalIndent(info, "", "  ")
		if err != nil {
			return errors.Wrap(err, "failed to marshal version info")
		}
		fmt.Fprintln(out, string(data))
		return nil
	}
	fmt.Fprintln(out, info.String())
	fmt.Fprintf(out, "Platform: %s\n", info.Platform)
	fmt.Fprintf(out, "Go: %s\n", info.GoVersion)
	return nil
}
