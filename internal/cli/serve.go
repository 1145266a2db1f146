package cli

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"broker/internal/catalog"
	"broker/internal/platform/httpserver"
	"broker/internal/reference"
	httptransport "broker/internal/transport/http"
)

// dbHealth adapts the sqlx pool to the transport health interface.
type dbHealth struct {
	app *app
}

func (h dbHealth) Health(ctx context.Context) error {
	return h.app.db.PingContext(ctx)
}

func newServeCommand() *cobra.Command {
	var watchRules bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the status API, catalog watcher, and reference reload consumer",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx)
			if err != nil {
				return err
			}
			defer a.close()

			status := httptransport.NewStatusHandler(a.submissions, a.validator, a.tracker, a.logger)
			var redisHealth httptransport.HealthChecker
			if a.redis != nil {
				redisHealth = a.redis
			}
			router := httptransport.NewRouter(status, dbHealth{a}, redisHealth)
			server := httpserver.New(a.cfg.Addr, router)

			group, ctx := errgroup.WithContext(ctx)

			group.Go(func() error {
				a.logger.Info("http server listening", "addr", a.cfg.Addr)
				if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					return err
				}
				return nil
			})

			group.Go(func() error {
				<-ctx.Done()
				shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
				defer cancel()
				return server.Shutdown(shutdownCtx)
			})

			if watchRules && a.cfg.Catalog.RuleDir != "" {
				watcher := catalog.NewWatcher(a.cfg.Catalog.RuleDir, a.loader, a.logger)
				group.Go(func() error {
					return watcher.Run(ctx)
				})
			}

			refWatcher, err := reference.NewWatcher(a.cfg.Kafka, a.refs, a.logger)
			if err != nil {
				return err
			}
			if refWatcher != nil {
				group.Go(func() error {
					err := refWatcher.Run(ctx)
					if errors.Is(err, context.Canceled) {
						return nil
					}
					return err
				})
			}

			err = group.Wait()
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}

	cmd.Flags().BoolVar(&watchRules, "watch-rules", true, "reload the rule catalog when the rule directory changes")
	return cmd
}
