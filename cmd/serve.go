package cmd

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/agentic-research/lsgraph/internal/metrics"
	"github.com/agentic-research/lsgraph/internal/nfsmount"
	"github.com/agentic-research/lsgraph/internal/report"
)

var (
	nfsAddr     string
	metricsAddr string
)

func init() {
	serveCmd.Flags().StringVar(&nfsAddr, "nfs-addr", "", "NFS listen address (default: ephemeral port)")
	serveCmd.Flags().StringVar(&metricsAddr, "metrics-addr", "", "Serve Prometheus metrics at this address under /metrics")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve [transcript|tree.db] [mountpoint]",
	Short: "Serve the tree read-only over NFS, optionally mounting it",
	Long: `Serve the tree read-only over NFSv3. Files read as zeros of their
listed size, and /_tree.json holds the whole tree as JSON.

With a mountpoint the server is mounted there (requires sudo) and
unmounted again on interrupt.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: func(cmd *cobra.Command, args []string) error {
		t, err := loadTree(cmd, args[0])
		if err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		srv, err := nfsmount.NewServer(nfsmount.NewTreeFS(t.store), nfsAddr)
		if err != nil {
			return err
		}
		log.Printf("NFS server listening on port %d (%d nodes)", srv.Port(), t.store.Len())

		var mountpoint string
		if len(args) == 2 {
			mountpoint = args[1]
			if err := nfsmount.Mount(srv.Port(), mountpoint); err != nil {
				_ = srv.Close()
				return err
			}
			log.Printf("Mounted at %s", mountpoint)
		}

		g, ctx := errgroup.WithContext(ctx)
		g.Go(srv.Wait)
		g.Go(func() error {
			<-ctx.Done()
			if mountpoint != "" {
				if err := nfsmount.Unmount(mountpoint); err != nil {
					log.Printf("unmount %s: %v", mountpoint, err)
				}
			}
			return srv.Close()
		})

		if metricsAddr != "" {
			var rp *report.Report
			if r, err := report.Compute(t.store, t.policy); err == nil {
				rp = &r
			} else {
				log.Printf("report gauges disabled: %v", err)
			}

			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler(metrics.NewRegistry(t.store, t.stats, rp)))
			httpSrv := &http.Server{Addr: metricsAddr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
			log.Printf("Metrics at http://%s/metrics", metricsAddr)

			g.Go(func() error {
				if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
					return errors.Wrap(err, "metrics server")
				}
				return nil
			})
			g.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				return httpSrv.Shutdown(shutdownCtx)
			})
		}

		return g.Wait()
	},
}
