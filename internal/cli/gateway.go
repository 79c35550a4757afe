package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/safechecks/safechecks/internal/gateway"
	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/config"
)

var (
	gatewayAddr     string
	gatewayWorkbook string
	gatewaySecret   string
)

var gatewayCmd = &cobra.Command{
	Use:   "gateway",
	Short: "Reference spreadsheet gateway",
}

var gatewayServeCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve a workbook over the web app protocol",
	Long: `Serve an .xlsx workbook over the same GET/POST protocol as the hosted
spreadsheet web app, so devices can sync on a local network without one.

Flags override the gateway section of .safechecks/config.yaml when run
inside a workspace.

Example:
  safechecks gateway serve --addr :8080 --workbook safechecks.xlsx`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Default().Gateway
		cwd, _ := os.Getwd()
		if loaded, err := config.Load(cwd); err == nil {
			cfg = loaded.Gateway
		}
		if cmd.Flags().Changed("addr") || cfg.Addr == "" {
			cfg.Addr = gatewayAddr
		}
		if cmd.Flags().Changed("workbook") || cfg.Workbook == "" {
			cfg.Workbook = gatewayWorkbook
		}
		if gatewaySecret != "" {
			cfg.Secret = gatewaySecret
		}

		wb, err := gateway.OpenWorkbook(cfg.Workbook)
		exitOn(nil, err, "gateway")
		defer wb.Close()

		srv := gateway.NewServer(wb, gateway.Options{Secret: cfg.Secret})

		if !jsonOutput {
			fmt.Printf("Serving %s on %s\n", color.Info(wb.Path()), color.Header(cfg.Addr))
			fmt.Println("Press Ctrl+C to stop")
		}
		ctx, cancel := signalContext()
		defer cancel()
		if err := srv.ListenAndServe(ctx, cfg.Addr); err != nil {
			wb.Close()
			exitOn(nil, err, "gateway")
		}
	},
}

func init() {
	gatewayServeCmd.Flags().StringVar(&gatewayAddr, "addr", ":8080", "address to listen on")
	gatewayServeCmd.Flags().StringVar(&gatewayWorkbook, "workbook", "safechecks.xlsx", "workbook file, created when missing")
	gatewayServeCmd.Flags().StringVar(&gatewaySecret, "secret", "", "require signed requests with this secret")
	gatewayCmd.AddCommand(gatewayServeCmd)
	rootCmd.AddCommand(gatewayCmd)
}
