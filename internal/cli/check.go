package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

var (
	submitNotes    string
	submitSignedBy string
	submitRating   string
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Work on today's checklists",
	Long: `Tick off checklist lines and submit the checklist.

Checklist types: opening, closing, cleaning, weekly.

Ticks are saved as a draft and shared with the other devices of the same
department, so a checklist can be started on one device and finished on
another. Submitting turns the draft into a record and clears it everywhere.`,
}

var checkShowCmd = &cobra.Command{
	Use:   "show <type>",
	Short: "Show today's draft of a checklist",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := parseChecklistType(args[0])
		c := requireClient()
		defer c.Close()

		v, err := c.Draft(t)
		exitOn(c, err, "check show")
		printDraft(v)
	},
}

func tickRun(ticked bool) func(cmd *cobra.Command, args []string) {
	return func(cmd *cobra.Command, args []string) {
		t := parseChecklistType(args[0])
		c := requireClient()
		defer c.Close()

		var v safechecks.DraftView
		var err error
		for _, id := range args[1:] {
			if ticked {
				v, err = c.Tick(t, id)
			} else {
				v, err = c.Untick(t, id)
			}
			exitOn(c, err, cmd.Name())
		}
		printDraft(v)
	}
}

var checkTickCmd = &cobra.Command{
	Use:   "tick <type> <check-id>...",
	Short: "Tick checklist lines",
	Args:  cobra.MinimumNArgs(2),
	Run:   tickRun(true),
}

var checkUntickCmd = &cobra.Command{
	Use:   "untick <type> <check-id>...",
	Short: "Clear checklist lines",
	Args:  cobra.MinimumNArgs(2),
	Run:   tickRun(false),
}

var checkSubmitCmd = &cobra.Command{
	Use:   "submit <type>",
	Short: "Submit today's checklist",
	Long: `Submit today's checklist as a record. Unticked lines are recorded
as not done. The record is pushed in the background; when the remote is
unreachable it waits in the retry queue.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		t := parseChecklistType(args[0])
		c := requireClient()
		defer c.Close()

		rec, err := c.SubmitChecklist(t, safechecks.SubmitOptions{
			Notes:    submitNotes,
			SignedBy: submitSignedBy,
			Rating:   submitRating,
		})
		exitOn(c, err, "check submit")
		c.Sync().Flush()

		if jsonOutput {
			outputJSON(rec)
			return
		}
		fmt.Printf("Submitted %s: %s\n", color.Header(string(t)), rec.Summary)
		fmt.Printf("  Record: %s\n", color.Dim(rec.ID))
		printSyncHint(c)
	},
}

func parseChecklistType(s string) model.RecordType {
	t, err := model.ParseRecordType(s)
	if err == nil && !t.IsChecklist() {
		err = fmt.Errorf("%s is not a checklist (want opening, closing, cleaning or weekly)", s)
	}
	exitOn(nil, err, "check")
	return t
}

func printDraft(v safechecks.DraftView) {
	if jsonOutput {
		outputJSON(v)
		return
	}
	fmt.Printf("%s checks for %s on %s: %d/%d\n", color.Header(string(v.Type)), v.Dept.Label(), v.Date, v.Ticked, v.Total)
	for _, it := range v.Items {
		mark := color.Dim("[ ]")
		if it.Ticked {
			mark = color.Success("[x]")
		}
		fmt.Printf("  %s %-8s %s\n", mark, it.ID, it.Label)
	}
	if v.Pending {
		fmt.Println(color.Dim("  (draft not yet shared)"))
	}
}

// printSyncHint tells the user when a record is waiting in the queue.
func printSyncHint(c *safechecks.Client) {
	st := c.Status()
	if st.Queued > 0 {
		fmt.Printf("  %s %d record(s) queued for sync\n", color.Warning("!"), st.Queued)
	}
}

func init() {
	checkSubmitCmd.Flags().StringVar(&submitNotes, "notes", "", "notes for the record")
	checkSubmitCmd.Flags().StringVar(&submitSignedBy, "signed-by", "", "signature (defaults to this device's staff member)")
	checkSubmitCmd.Flags().StringVar(&submitRating, "rating", "", "weekly review rating")
	checkCmd.AddCommand(checkShowCmd, checkTickCmd, checkUntickCmd, checkSubmitCmd)
	rootCmd.AddCommand(checkCmd)
}
