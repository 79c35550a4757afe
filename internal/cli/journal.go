package cli

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/color"
)

var (
	journalTail   int
	journalVerify bool
)

var journalCmd = &cobra.Command{
	Use:   "journal",
	Short: "Show the sync journal",
	Long: `Show the latest entries of the sync journal. Every push, queue, pull
and settings exchange is appended to a hash-chained log in
.safechecks/journal/. Use --verify to check the chain.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()
		j := c.Journal()

		if journalVerify {
			n, err := j.Verify()
			exitOn(c, err, "journal verify")
			if jsonOutput {
				outputJSON(map[string]any{"entries": n, "valid": true})
				return
			}
			fmt.Printf("Journal chain intact (%d entries).\n", n)
			return
		}

		entries, err := j.Tail(journalTail)
		exitOn(c, err, "journal")
		if jsonOutput {
			outputJSON(entries)
			return
		}
		if len(entries) == 0 {
			fmt.Println("Journal is empty.")
			return
		}
		for _, e := range entries {
			line := fmt.Sprintf("%s  %-8s", color.Dim(e.Timestamp.Local().Format("2006-01-02 15:04:05")), e.Event)
			if e.Tab != "" {
				line += " " + e.Tab
			}
			if e.RecordID != "" {
				line += " " + color.Dim(e.RecordID)
			}
			if len(e.Details) > 0 {
				keys := make([]string, 0, len(e.Details))
				for k := range e.Details {
					keys = append(keys, k)
				}
				sort.Strings(keys)
				parts := make([]string, 0, len(keys))
				for _, k := range keys {
					parts = append(parts, fmt.Sprintf("%s=%v", k, e.Details[k]))
				}
				line += " " + strings.Join(parts, " ")
			}
			fmt.Println(line)
		}
	},
}

func init() {
	journalCmd.Flags().IntVarP(&journalTail, "lines", "n", 20, "number of entries to show")
	journalCmd.Flags().BoolVar(&journalVerify, "verify", false, "verify the hash chain")
	rootCmd.AddCommand(journalCmd)
}
