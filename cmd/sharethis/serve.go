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

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"
	httpSwagger "github.com/swaggo/http-swagger/v2"
	"golang.org/x/sync/errgroup"

	"github.com/sharethis/service/internal/metadata"
	appMiddleware "github.com/sharethis/service/internal/middleware"
	"github.com/sharethis/service/internal/notify"
	"github.com/sharethis/service/internal/response"
	"github.com/sharethis/service/internal/share"

	_ "github.com/sharethis/service/docs/swagger"
)

const shutdownTimeout = 30 * time.Second

func newServeCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the upload and download API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx)
		},
	}
}

func (a *app) serve(ctx context.Context) error {
	factory, store, err := a.newFactory(ctx, true)
	if err != nil {
		return err
	}
	defer store.Close()

	// Wire dependencies: store + backend → unit of work → coordinators → handler
	uploader := share.NewUploader(factory, notify.New(a.cfg.MailService, a.logger), a.cfg.WebAppDomain, a.logger)
	downloader, err := share.NewDownloader(factory, a.cfg.StorageAccessibleURL, a.logger)
	if err != nil {
		return err
	}
	shareHandler := share.NewHandler(uploader, downloader, a.cfg.MaxUploadMemory(), a.logger)

	srv := &http.Server{
		Addr:         ":" + a.cfg.Port,
		Handler:      a.router(shareHandler, store),
		ReadTimeout:  5 * time.Minute,
		WriteTimeout: 5 * time.Minute,
		IdleTimeout:  60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		a.logger.Info("server listening",
			slog.String("addr", srv.Addr),
			slog.String("env", a.cfg.AppEnv),
		)
		a.logger.Info("swagger UI at http://localhost:" + a.cfg.Port + "/swagger/")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		a.logger.Info("shutting down gracefully")

		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("forced shutdown: %w", err)
		}
		a.logger.Info("server stopped")
		return nil
	})
	return g.Wait()
}

func (a *app) router(shareHandler *share.Handler, store metadata.Store) http.Handler {
	r := chi.NewRouter()
	r.Use(chiMiddleware.RequestID)
	r.Use(chiMiddleware.RealIP)
	r.Use(appMiddleware.Logger(a.logger))
	r.Use(appMiddleware.Metrics)
	r.Use(chiMiddleware.Recoverer)

	r.Handle("/metrics", promhttp.Handler())

	// Swagger UI, available at http://localhost:8080/swagger/
	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/api", func(r chi.Router) {
		r.Use(cors.Handler(cors.Options{
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-ID"},
			MaxAge:         300,
		}))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			if err := store.Ping(r.Context()); err != nil {
				response.FromError(w, err)
				return
			}
			response.OK(w, map[string]string{"status": "ok"})
		})

		shareHandler.Routes(r)
	})

	return r
}
