package cli

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/version"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if jsonOutput {
			outputJSON(map[string]any{
				"version": version.Version,
				"commit":  version.Commit,
				"go":      runtime.Version(),
			})
			return
		}
		fmt.Printf("safechecks %s (%s, %s)\n", version.Version, version.Commit, runtime.Version())
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
