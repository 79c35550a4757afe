package cli

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/color"
)

var (
	jsonOutput bool
	noColor    bool
	rootCmd    = &cobra.Command{
		Use:   "safechecks",
		Short: "SafeChecks - shift checklists and temperature logs",
		Long: `SafeChecks records opening, closing, cleaning and weekly checklists,
equipment temperatures and food probe readings on each device, and keeps
every device in sync through a shared spreadsheet. It works offline and
catches up when the connection returns.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			color.Init(noColor)
		},
	}
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "output in JSON format")
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "disable colored output")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmtErr("%v", err)
		os.Exit(1)
	}
}

// outputJSON prints v as JSON if --json flag is set, otherwise does nothing.
func outputJSON(v any) error {
	if !jsonOutput {
		return nil
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
