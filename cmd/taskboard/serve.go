package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"github.com/taskboard-dev/taskboard/db"
	"github.com/taskboard-dev/taskboard/internal/auth"
	"github.com/taskboard-dev/taskboard/internal/cascade"
	"github.com/taskboard-dev/taskboard/internal/handlers"
	"github.com/taskboard-dev/taskboard/internal/notify"
	"github.com/taskboard-dev/taskboard/internal/realtime"
	"github.com/taskboard-dev/taskboard/internal/router"
	"github.com/taskboard-dev/taskboard/internal/scheduler"
	"github.com/taskboard-dev/taskboard/internal/services"
	"github.com/taskboard-dev/taskboard/pkg/translator"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const shutdownTimeout = 15 * time.Second

func newServeCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			return serve(ctx)
		},
	}
}

func serve(ctx context.Context) error {
	cfg, conn, cleanup, err := bootstrap()
	if err != nil {
		return err
	}
	defer cleanup()

	if cfg.Production {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := db.Migrate(conn); err != nil {
		return err
	}

	translator.InitTranslator(translator.Config{TranslationFolder: cfg.TranslationDir})

	signer, err := auth.NewSigner(cfg.JWTSecret, auth.DefaultTTL)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	hub := realtime.NewHub(cfg.AllowedOrigins)
	engine, m := newEngine(conn, cfg, reg, cascade.WithObserver(hub.DeletionObserver()))

	jobs := scheduler.NewScheduler()
	defer jobs.Stop()

	jobs.Add(scheduler.Job{
		Name:     scheduler.ExpireInvitationsJob,
		Interval: cfg.SweepInterval,
		Run:      scheduler.ExpireInvitations(conn, m, time.Now),
	})

	h := handlers.New(handlers.Config{
		DB:            conn,
		Engine:        engine,
		Notifier:      notify.NewDispatcher(hub),
		Hub:           hub,
		Webhooks:      services.NewWebhooks(nil),
		Jobs:          jobs,
		InvitationTTL: cfg.InvitationTTL,
		Domain:        cfg.Domain,
		Secure:        cfg.Production,
	})

	srv := &http.Server{
		Addr: cfg.Address,
		Handler: router.NewRouter(router.Config{
			DB:             conn,
			Signer:         signer,
			Handler:        h,
			AllowedOrigins: cfg.AllowedOrigins,
			Gatherer:       reg,
			Logger:         zap.L(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		zap.L().Info("listening", zap.String("address", cfg.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		zap.L().Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
