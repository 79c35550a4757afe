package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/internal/doctor"
	"github.com/safechecks/safechecks/pkg/color"
)

var (
	doctorStrict bool
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Check workspace health",
	Long: `Check workspace health.

Runs diagnostic checks on the local store, the device identity, the retry
queue, unshared drafts, the sync endpoint and the settings.
Use --strict to also verify the journal hash chain.`,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()

		doc := doctor.NewDoctor(c.Workspace(), c.Config(), c.Store(), c.Journal())
		result, err := doc.Check(doctorStrict)
		exitOn(c, err, "doctor")
		c.Close()

		if jsonOutput {
			outputJSON(result)
			if !result.Healthy {
				os.Exit(1)
			}
			return
		}

		if len(result.Findings) == 0 {
			fmt.Println(color.Success("Workspace is healthy."))
			return
		}

		fmt.Printf("Findings (%d):\n", len(result.Findings))
		for _, f := range result.Findings {
			fmt.Printf("  [%s] %s: %s\n", severityLabel(f.Severity), f.Category, f.Description)
		}

		if !result.Healthy {
			os.Exit(1)
		}
	},
}

func severityLabel(s string) string {
	switch s {
	case doctor.SeverityCritical, doctor.SeverityError:
		return color.Error(s)
	case doctor.SeverityWarning:
		return color.Warning(s)
	}
	return color.Dim(s)
}

func init() {
	doctorCmd.Flags().BoolVar(&doctorStrict, "strict", false, "include journal chain verification")
	rootCmd.AddCommand(doctorCmd)
}
