package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/safechecks/safechecks/internal/syncer"
	"github.com/safechecks/safechecks/pkg/color"
	"github.com/safechecks/safechecks/pkg/logging"
	"github.com/safechecks/safechecks/pkg/metrics"
	"github.com/safechecks/safechecks/pkg/safechecks"
)

var (
	syncInterval    time.Duration
	syncMetricsAddr string
)

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Exchange records with the shared spreadsheet",
	Long: `Records are pushed as soon as they are saved. Pushes that fail wait in
the retry queue. A pull fetches every tab, merges other devices' records,
drafts and task completions into the local store, and is skipped when the
last attempt was too recent unless it is forced.`,
}

var syncPushCmd = &cobra.Command{
	Use:   "push <record-id>",
	Short: "Push one stored record now",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		ctx, cancel := signalContext()
		defer cancel()
		rec, err := c.PushRecord(ctx, args[0])
		exitOn(c, err, "sync push")
		if jsonOutput {
			outputJSON(rec)
			return
		}
		fmt.Printf("Pushed %s\n", color.Success(rec.ID))
	},
}

var syncPullCmd = &cobra.Command{
	Use:   "pull",
	Short: "Fetch and merge every tab now",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		ctx, cancel := signalContext()
		defer cancel()
		res, err := c.Pull(ctx)
		exitOn(c, err, "sync pull")
		if jsonOutput {
			outputJSON(res)
			return
		}
		fmt.Printf("Pulled %d row(s) in %s: %d new, %d updated, %d dropped\n",
			res.Fetched, res.Duration.Round(time.Millisecond), res.Added, res.Updated, res.Dropped)
		if res.Drafts > 0 || res.Completions > 0 {
			fmt.Printf("  Drafts merged: %d, task completions: %d\n", res.Drafts, res.Completions)
		}
		for _, tab := range res.FailedTabs {
			fmt.Printf("  %s %s could not be read\n", color.Warning("!"), tab)
		}
	},
}

var syncRetryCmd = &cobra.Command{
	Use:   "retry",
	Short: "Replay the retry queue",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()

		ctx, cancel := signalContext()
		defer cancel()
		res, err := c.Retry(ctx)
		exitOn(c, err, "sync retry")
		if jsonOutput {
			outputJSON(res)
			return
		}
		if res.Skipped {
			fmt.Println("A retry is already running.")
			return
		}
		fmt.Printf("Retried %d record(s): %d sent, %d still queued\n", res.Attempted, res.Sent, res.Requeued)
		if res.Drafts > 0 {
			fmt.Printf("  Drafts re-shared: %d\n", res.Drafts)
		}
	},
}

var syncRunCmd = &cobra.Command{
	Use:   "run",
	Short: "Keep syncing until interrupted",
	Long: `Pull every interval, replay the queue when the connection returns and
push new records as they are saved. With --metrics-addr a Prometheus
endpoint is served at /metrics.`,
	Args: cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		if syncMetricsAddr != "" && !metrics.Enabled() {
			metrics.Init()
		}
		c := requireClient()
		defer c.Close()

		ctx, cancel := signalContext()
		defer cancel()

		updates, unsubscribe := c.Sync().Subscribe(8)
		defer unsubscribe()

		g, gctx := errgroup.WithContext(ctx)
		g.Go(func() error { return c.Run(gctx, syncInterval) })
		if syncMetricsAddr != "" {
			g.Go(func() error { return serveMetrics(gctx, syncMetricsAddr, c.Metrics()) })
		}
		g.Go(func() error {
			for {
				select {
				case <-gctx.Done():
					return nil
				case st := <-updates:
					printStatusLine(st)
				}
			}
		})

		err := g.Wait()
		if errors.Is(err, context.Canceled) {
			err = nil
		}
		exitOn(c, err, "sync run")
	},
}

var syncStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show sync status",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		c := requireClient()
		defer c.Close()
		printSyncStatus(c)
	},
}

func printSyncStatus(c *safechecks.Client) {
	st := c.Status()
	endpoint, _ := c.Endpoint()
	if jsonOutput {
		outputJSON(map[string]any{"status": st, "endpoint": endpoint, "configured": c.Configured()})
		return
	}
	fmt.Printf("Sync: %s\n", stateLabel(st.State))
	if endpoint != "" {
		fmt.Printf("  Endpoint: %s\n", endpoint)
	}
	if st.LastPull.IsZero() {
		fmt.Println("  Last pull: never")
	} else {
		fmt.Printf("  Last pull: %s\n", st.LastPull.Local().Format("2006-01-02 15:04:05"))
	}
	fmt.Printf("  Queued: %d\n", st.Queued)
	fmt.Printf("  Drafts waiting: %d\n", st.Pending)
	if st.LastError != "" {
		fmt.Printf("  Last error: %s\n", color.Dim(st.LastError))
	}
}

func stateLabel(s syncer.State) string {
	switch s {
	case syncer.StateOnline:
		return color.Success(string(s))
	case syncer.StateOffline:
		return color.Error(string(s))
	case syncer.StateNotConfigured:
		return color.Warning(string(s))
	}
	return string(s)
}

func printStatusLine(st syncer.Status) {
	if jsonOutput {
		outputJSON(st)
		return
	}
	line := fmt.Sprintf("%s %s queued=%d drafts=%d", time.Now().Format("15:04:05"), stateLabel(st.State), st.Queued, st.Pending)
	if st.LastError != "" {
		line += " " + color.Dim(st.LastError)
	}
	fmt.Println(line)
}

func serveMetrics(ctx context.Context, addr string, reg *metrics.Registry) error {
	if reg == nil {
		reg = metrics.Default()
	}
	mux := http.NewServeMux()
	mux.Handle("/metrics", reg.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

	errCh := make(chan error, 1)
	go func() {
		logging.Info("metrics listening", map[string]any{"addr": addr})
		errCh <- srv.ListenAndServe()
	}()
	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func init() {
	syncRunCmd.Flags().DurationVar(&syncInterval, "interval", 0, "pull interval (default from config)")
	syncRunCmd.Flags().StringVar(&syncMetricsAddr, "metrics-addr", "", "serve Prometheus metrics on this address")
	syncCmd.AddCommand(syncPushCmd, syncPullCmd, syncRetryCmd, syncRunCmd, syncStatusCmd)
	rootCmd.AddCommand(syncCmd)
}
