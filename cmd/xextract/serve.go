package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/ibeckermayer/xextract/internal/app"
	"github.com/ibeckermayer/xextract/internal/browser"
	"github.com/ibeckermayer/xextract/internal/logger"
	"github.com/ibeckermayer/xextract/internal/natsbus"
	"github.com/ibeckermayer/xextract/internal/notifier"
	"github.com/ibeckermayer/xextract/internal/scheduler"
	"github.com/ibeckermayer/xextract/internal/scraper"
	"github.com/ibeckermayer/xextract/internal/store"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Answer extraction commands over NATS",
	Long: `Subscribe to the command subject and answer start, stop, status and
activate requests. Session events are published on the event subject.

When [schedule] cron is set, sessions are also started on that schedule.
When [metrics] addr is set, Prometheus metrics are served on /metrics.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	e, err := setup()
	if err != nil {
		return err
	}
	defer e.Close()

	if e.cfg.Events.NATSURL == "" {
		return errors.New("serve needs events.nats_url (or XEXTRACT_NATS_URL)")
	}
	nc, err := natsbus.Connect(e.cfg.Events.NATSURL, "xextract")
	if err != nil {
		return err
	}
	defer nc.Drain()

	snapshotDir, err := store.PostsCacheDir()
	if err != nil {
		return err
	}

	metrics := scraper.NewMetrics()
	sc := scraper.New(e.cfg.Extraction, e.cfg.Pacing, logger.Component(e.log, "scraper"), scraper.WithMetrics(metrics))
	events := notifier.NewFromConfig(e.cfg.Events, nc, logger.Component(e.log, "notifier"))
	a := app.New(sc, e.store, events, browser.Factory(e.cfg.Extraction, e.log), e.log, app.WithSnapshotDir(snapshotDir))

	sub, err := natsbus.Serve(nc, e.cfg.Events.CommandSubject, a.Handle, func(err error) app.Response {
		e.log.Warn().Err(err).Msg("Malformed command")
		return app.Response{Error: "Invalid command"}
	})
	if err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", e.cfg.Events.CommandSubject, err)
	}
	defer sub.Unsubscribe()
	e.log.Info().Str("subject", e.cfg.Events.CommandSubject).Msg("Listening for commands")

	if e.cfg.Schedule.Cron != "" {
		sched, err := scheduler.New(e.cfg.Schedule.Timezone, sc.Timeout(e.cfg.Schedule.Limit)+5*time.Minute, e.log)
		if err != nil {
			return err
		}
		limit := e.cfg.Schedule.Limit
		if err := sched.AddExtractJob(e.cfg.Schedule.Cron, func(ctx context.Context) error {
			if err := a.Handle(ctx, app.Command{Action: app.ActionStart, Limit: limit}).Err(); err != nil {
				return err
			}
			_, err := a.Wait(ctx)
			return err
		}); err != nil {
			return err
		}
		sched.Start()
		defer sched.Stop()
		for _, job := range sched.ListJobs() {
			e.log.Info().Str("job", job.Name).Time("next", job.NextRun).Msg("Scheduled")
		}
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	if addr := e.cfg.Metrics.Addr; addr != "" {
		srv := &http.Server{
			Addr:              addr,
			Handler:           metricsMux(metrics),
			ReadHeaderTimeout: 5 * time.Second,
		}
		g.Go(func() error {
			e.log.Info().Str("addr", addr).Msg("Metrics server enabled")
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-ctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	g.Go(func() error {
		<-ctx.Done()
		e.log.Info().Msg("Shutting down")
		a.Handle(context.Background(), app.Command{Action: app.ActionStop})
		waitCtx, cancel := context.WithTimeout(context.Background(), time.Minute)
		defer cancel()
		_, err := a.Wait(waitCtx)
		return err
	})

	return g.Wait()
}

func metricsMux(m *scraper.Metrics) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}))
	return mux
}
