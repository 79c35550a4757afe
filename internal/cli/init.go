package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/config"
	"github.com/safechecks/safechecks/pkg/model"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

var (
	initDept   string
	initStaff  string
	initStore  string
	initRemote string

	deviceDept  string
	deviceStaff string
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Set up this device",
	Long: `Set up a SafeChecks workspace in the current directory.

This creates:
  - .safechecks/ with the configuration, local store and sync journal
  - a device identity bound to a department and, optionally, a staff member`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		dept, err := model.ParseDepartment(initDept)
		exitOn(nil, err, "init")

		cfg := config.Default()
		if initStore != "" {
			cfg.Store.Driver = initStore
		}
		if initRemote != "" {
			cfg.Remote.URL = initRemote
		}

		cwd, _ := os.Getwd()
		c, err := safechecks.Init(cwd, safechecks.InitOptions{Dept: dept, StaffID: initStaff, Config: cfg})
		exitOn(nil, err, "init")
		defer c.Close()

		name, _ := c.StaffName()
		dev := c.Device()
		if jsonOutput {
			outputJSON(map[string]any{
				"root":       c.Root(),
				"device":     dev,
				"staff_name": name,
				"configured": c.Configured(),
			})
			return
		}
		fmt.Printf("Initialized SafeChecks in %s\n", color.Success(c.Root()))
		fmt.Printf("  Device: %s\n", color.Dim(dev.ID))
		fmt.Printf("  Department: %s\n", dev.Dept.Label())
		fmt.Printf("  Staff: %s\n", name)
		if !c.Configured() {
			fmt.Printf("  Sync: %s (run %s)\n", color.Warning("not configured"), color.Code("safechecks connect <url>"))
		}
	},
}

var connectCmd = &cobra.Command{
	Use:   "connect <url>",
	Short: "Set the spreadsheet endpoint",
	Long: `Save the web app endpoint this device syncs with. The endpoint
overrides remote.url from the configuration file and is used from the next
command on.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()
		exitOn(c, c.Connect(args[0]), "connect")
		if jsonOutput {
			outputJSON(map[string]any{"endpoint": args[0]})
			return
		}
		fmt.Printf("Connected to %s\n", color.Info(args[0]))
	},
}

var disconnectCmd = &cobra.Command{
	Use:   "disconnect",
	Short: "Forget the saved endpoint",
	Long:  "Remove the saved endpoint. Local records and the retry queue are kept.",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()
		exitOn(c, c.Disconnect(), "disconnect")
		endpoint, _ := c.Endpoint()
		if jsonOutput {
			outputJSON(map[string]any{"endpoint": endpoint})
			return
		}
		if endpoint != "" {
			fmt.Printf("Disconnected; falling back to %s from config.yaml\n", endpoint)
			return
		}
		fmt.Println("Disconnected.")
	},
}

var deviceCmd = &cobra.Command{
	Use:   "device",
	Short: "Show or change this device's department and staff",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		if cmd.Flags().Changed("dept") || cmd.Flags().Changed("staff") {
			dev := c.Device()
			dept := dev.Dept
			if cmd.Flags().Changed("dept") {
				d, err := model.ParseDepartment(deviceDept)
				exitOn(c, err, "device")
				dept = d
			}
			staff := dev.StaffID
			if cmd.Flags().Changed("staff") {
				staff = deviceStaff
			}
			_, err := c.SetDevice(dept, staff)
			exitOn(c, err, "device")
		}

		dev := c.Device()
		name, _ := c.StaffName()
		if jsonOutput {
			outputJSON(map[string]any{"device": dev, "staff_name": name})
			return
		}
		fmt.Printf("Device: %s\n", dev.ID)
		fmt.Printf("  Department: %s\n", dev.Dept.Label())
		fmt.Printf("  Staff: %s\n", name)
	},
}

func init() {
	initCmd.Flags().StringVar(&initDept, "dept", "", "department (kitchen, foh, mgmt)")
	initCmd.Flags().StringVar(&initStaff, "staff", "", "staff id from settings")
	initCmd.Flags().StringVar(&initStore, "store", "", "local store driver (file, sqlite)")
	initCmd.Flags().StringVar(&initRemote, "remote", "", "web app endpoint URL")
	initCmd.MarkFlagRequired("dept")
	deviceCmd.Flags().StringVar(&deviceDept, "dept", "", "new department")
	deviceCmd.Flags().StringVar(&deviceStaff, "staff", "", "new staff id")
	rootCmd.AddCommand(initCmd, connectCmd, disconnectCmd, deviceCmd)
}
