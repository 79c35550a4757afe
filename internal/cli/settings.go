package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/model"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage restaurant settings",
	Long: `Settings hold the staff list, equipment, checklist lines, probe
products, weekly tasks and opening hours. They are shared through the
spreadsheet: management pushes them, other devices pull them.`,
}

var settingsShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective settings as YAML",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		s, err := c.Settings()
		exitOn(c, err, "settings show")
		if jsonOutput {
			outputJSON(s)
			return
		}
		out, err := yaml.Marshal(s)
		exitOn(c, err, "settings show")
		os.Stdout.Write(out)
	},
}

var settingsImportCmd = &cobra.Command{
	Use:   "import <file.yaml>",
	Short: "Replace local settings from a YAML file",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		data, err := os.ReadFile(args[0])
		exitOn(nil, err, "settings import")
		var s model.Settings
		exitOn(nil, yaml.Unmarshal(data, &s), "settings import")

		c := requireClient()
		defer c.Close()
		exitOn(c, c.SaveSettings(s), "settings import")
		if jsonOutput {
			outputJSON(map[string]any{"imported": args[0]})
			return
		}
		fmt.Printf("Imported settings from %s\n", args[0])
		fmt.Printf("  Run %s to share them.\n", color.Code("safechecks settings push"))
	},
}

var settingsPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Replace local settings with the shared copy",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		ctx, cancel := signalContext()
		defer cancel()
		found, err := c.PullSettings(ctx)
		exitOn(c, err, "settings pull")
		if jsonOutput {
			outputJSON(map[string]any{"found": found})
			return
		}
		if !found {
			fmt.Println("No shared settings yet; keeping local settings.")
			return
		}
		fmt.Println(color.Success("Settings updated."))
	},
}

var settingsPushCmd = &cobra.Command{
	Use:   "push",
	Short: "Share the local settings",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		ctx, cancel := signalContext()
		defer cancel()
		exitOn(c, c.PushSettings(ctx), "settings push")
		if jsonOutput {
			outputJSON(map[string]any{"pushed": true})
			return
		}
		fmt.Println(color.Success("Settings shared."))
	},
}

var settingsResetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Drop local settings and use the defaults",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		exitOn(c, c.ResetSettings(), "settings reset")
		if jsonOutput {
			outputJSON(map[string]any{"reset": true})
			return
		}
		fmt.Println("Settings reset to defaults.")
	},
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd, settingsImportCmd, settingsPullCmd, settingsPushCmd, settingsResetCmd)
	rootCmd.AddCommand(settingsCmd)
}
