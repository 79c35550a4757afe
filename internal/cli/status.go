package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

var statusCmd = &cobra.Command{
	Use:     "status",
	Aliases: []string{"dashboard"},
	Short:   "Show today's dashboard",
	Long: `Show today's checklists, temperature readings and tasks for this
device's department, or for every department on a management device,
followed by anything that needs attention.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		dash, err := c.Dashboard()
		exitOn(c, err, "status")
		if jsonOutput {
			outputJSON(map[string]any{"dashboard": dash, "sync": c.Status()})
			return
		}

		fmt.Printf("%s  %s\n", color.Header("Today"), dash.Date)
		for _, d := range dash.Departments {
			printDeptDashboard(d)
		}
		st := c.Status()
		fmt.Printf("\nSync: %s, %d queued\n", stateLabel(st.State), st.Queued)

		if len(dash.Alerts) > 0 {
			fmt.Printf("\n%s\n", color.Warning("Needs attention:"))
			for _, a := range dash.Alerts {
				fmt.Printf("  - %s\n", a)
			}
		}
	},
}

func printDeptDashboard(d safechecks.DeptDashboard) {
	fmt.Printf("\n%s\n", color.Header(d.Dept.Label()))
	for _, cl := range d.Checklists {
		if !cl.Done {
			fmt.Printf("  %-9s %s\n", cl.Type, color.Dim("not done"))
			continue
		}
		fmt.Printf("  %-9s %s %d/%d (%d%%) by %s at %s\n", cl.Type, color.Success("done"), cl.Passed, cl.Total, cl.Percent, cl.SignedBy, cl.Time)
	}
	if d.Temperatures.State != "" {
		fmt.Printf("  %-9s %s\n", "temps", readingLine(d.Temperatures))
	}
	if d.FoodProbe != nil {
		fmt.Printf("  %-9s %s\n", "probe", readingLine(*d.FoodProbe))
	}
	fmt.Printf("  %-9s %d/%d done today", "tasks", d.Tasks.DoneToday, len(d.Tasks.Today))
	if n := len(d.Tasks.Overdue); n > 0 {
		fmt.Printf(", %s", color.Error(fmt.Sprintf("%d overdue", n)))
	}
	fmt.Println()
}

func readingLine(rs safechecks.ReadingStatus) string {
	s := fmt.Sprintf("%d reading(s)", rs.Readings)
	switch rs.State {
	case "breach":
		return s + ", " + color.Error(fmt.Sprintf("%d FAIL", rs.Failures))
	case "warning":
		return s + ", " + color.Warning(fmt.Sprintf("%d WARNING", rs.Warnings))
	case "ok":
		return s + ", " + color.Success("all OK")
	}
	return color.Dim("none yet")
}

func init() {
	rootCmd.AddCommand(statusCmd)
}
