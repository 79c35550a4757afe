package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/internal/settings"
	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

var (
	tempOpts  safechecks.TemperatureOptions
	probeOpts safechecks.FoodProbeOptions
)

var tempCmd = &cobra.Command{
	Use:   "temp",
	Short: "Equipment temperature readings",
}

var tempLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Log an equipment temperature",
	Long: `Log an equipment temperature. The reading is classified against the
equipment's thresholds:

  fridge     OK at 5°C or below, WARNING up to 8°C, FAIL above
  freezer    OK at -18°C or below, WARNING up to -15°C, FAIL above
  hot hold   OK at 63°C or above, WARNING from 55°C, FAIL below
  oven       OK at 75°C or above, WARNING from 65°C, FAIL below

Examples:
  safechecks temp log --equipment e3 --value 4.5
  safechecks temp log --equipment "Bar Fridge" --value 9 --action "moved stock"`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		rec, err := c.LogTemperature(tempOpts)
		exitOn(c, err, "temp log")
		c.Sync().Flush()
		printReading(c, rec, model.KeyTempStatus)
	},
}

var tempEquipmentCmd = &cobra.Command{
	Use:   "equipment",
	Short: "List this department's equipment",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		s, err := c.Settings()
		exitOn(c, err, "temp equipment")
		list := settings.DeptEquipment(s, c.Device().Dept)
		if jsonOutput {
			outputJSON(list)
			return
		}
		for _, e := range list {
			fmt.Printf("  %-5s %-24s %s\n", e.ID, e.Name, color.Dim(string(e.Type)))
		}
	},
}

var probeCmd = &cobra.Command{
	Use:   "probe",
	Short: "Food probe readings",
}

var probeLogCmd = &cobra.Command{
	Use:   "log",
	Short: "Log a food core temperature",
	Long: `Log the core temperature of a dish. 75°C or above is a PASS.

Example:
  safechecks probe log --product pp1 --value 78`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		rec, err := c.LogFoodProbe(probeOpts)
		exitOn(c, err, "probe log")
		c.Sync().Flush()
		printReading(c, rec, model.KeyProbeStatus)
	},
}

func printReading(c *safechecks.Client, rec model.Record, statusKey string) {
	if jsonOutput {
		outputJSON(rec)
		return
	}
	status := rec.Fields[statusKey]
	fmt.Printf("Logged %s [%s]\n", rec.Summary, color.Status(status))
	if model.Status(status).Breach() {
		fmt.Println(color.Warning("  Record the corrective action taken."))
	}
	printSyncHint(c)
}

func init() {
	f := tempLogCmd.Flags()
	f.StringVarP(&tempOpts.Equipment, "equipment", "e", "", "equipment id or name")
	f.StringVarP(&tempOpts.Value, "value", "v", "", "temperature in °C")
	f.StringVar(&tempOpts.Probe, "probe", "", "probe used")
	f.StringVar(&tempOpts.CorrectiveAction, "action", "", "corrective action taken")
	f.StringVar(&tempOpts.LoggedBy, "by", "", "staff name (defaults to this device's staff member)")
	tempLogCmd.MarkFlagRequired("equipment")
	tempLogCmd.MarkFlagRequired("value")

	f = probeLogCmd.Flags()
	f.StringVarP(&probeOpts.Product, "product", "p", "", "product id or name")
	f.StringVarP(&probeOpts.Value, "value", "v", "", "core temperature in °C")
	f.StringVar(&probeOpts.Probe, "probe", "", "probe used")
	f.StringVar(&probeOpts.Action, "action", "", "action taken")
	f.StringVar(&probeOpts.Staff, "staff", "", "staff name (defaults to this device's staff member)")
	probeLogCmd.MarkFlagRequired("product")
	probeLogCmd.MarkFlagRequired("value")

	tempCmd.AddCommand(tempLogCmd, tempEquipmentCmd)
	probeCmd.AddCommand(probeLogCmd)
	rootCmd.AddCommand(tempCmd, probeCmd)
}
