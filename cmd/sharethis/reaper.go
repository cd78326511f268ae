package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/sharethis/service/internal/reaper"
)

func newReaperCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "reaper",
		Short: "Periodically delete expired uploads",
		Long: `Deletes expired records and their stored content on a fixed interval.
Run exactly one reaper per deployment.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGHUP, syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.reap(ctx)
		},
	}
}

func (a *app) reap(ctx context.Context) error {
	factory, store, err := a.newFactory(ctx, false)
	if err != nil {
		return err
	}
	defer store.Close()

	r := reaper.New(factory, a.cfg.ReaperInterval(), a.logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		r.Start(gctx)
		<-gctx.Done()
		a.logger.Info("received shutdown signal, waiting for the current tick")
		r.Stop()
		return nil
	})

	if addr := a.cfg.ReaperMetricsAddr; addr != "" {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.Handler())
		srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}

		g.Go(func() error {
			a.logger.Info("reaper metrics listening", slog.String("addr", addr))
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
		g.Go(func() error {
			<-gctx.Done()
			shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		})
	}

	return g.Wait()
}
