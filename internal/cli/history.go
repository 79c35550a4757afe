package cli

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

var (
	historyType   string
	historyFrom   string
	historyTo     string
	historyRange  string
	historyLimit  int
	historyExport string
	historyOutput string
)

var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List stored records",
	Long: `List stored records, newest first. Staff devices see their own
department; management sees every department.

Examples:
  safechecks history --range today
  safechecks history --type temperature --from 2026-02-01 --to 2026-02-28
  safechecks history --range week --export xlsx -o week.xlsx`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		f := safechecks.HistoryFilter{
			Type:  model.RecordType(historyType),
			From:  historyFrom,
			To:    historyTo,
			Range: historyRange,
			Limit: historyLimit,
		}
		recs, err := c.History(f)
		exitOn(c, err, "history")

		if historyExport != "" {
			exitOn(c, exportHistory(recs), "history export")
			return
		}
		if jsonOutput {
			outputJSON(recs)
			return
		}
		if len(recs) == 0 {
			fmt.Println("No records.")
			return
		}
		for _, r := range recs {
			src := ""
			if r.Source == model.SourceRemote {
				src = color.Dim(" (synced)")
			}
			fmt.Printf("%s  %-11s %-8s %s%s\n", color.Dim(r.Timestamp), r.Type, r.Dept, r.Summary, src)
		}
	},
}

func exportHistory(recs []model.Record) error {
	var w io.Writer = os.Stdout
	if historyOutput != "" {
		f, err := os.Create(historyOutput)
		if err != nil {
			return err
		}
		defer f.Close()
		w = f
	}
	switch historyExport {
	case "csv":
		return safechecks.ExportCSV(w, recs)
	case "xlsx":
		if historyOutput == "" {
			return fmt.Errorf("xlsx export needs --output")
		}
		return safechecks.ExportXLSX(w, recs)
	}
	return fmt.Errorf("unknown export format %q (want csv or xlsx)", historyExport)
}

func init() {
	historyCmd.Flags().StringVar(&historyType, "type", "", "record type")
	historyCmd.Flags().StringVar(&historyFrom, "from", "", "first date YYYY-MM-DD")
	historyCmd.Flags().StringVar(&historyTo, "to", "", "last date YYYY-MM-DD")
	historyCmd.Flags().StringVar(&historyRange, "range", "", "today, yesterday or week")
	historyCmd.Flags().IntVarP(&historyLimit, "limit", "n", 0, "show at most n records")
	historyCmd.Flags().StringVar(&historyExport, "export", "", "export as csv or xlsx")
	historyCmd.Flags().StringVarP(&historyOutput, "output", "o", "", "export file (default stdout for csv)")
	rootCmd.AddCommand(historyCmd)
}
