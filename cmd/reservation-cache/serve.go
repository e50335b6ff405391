package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/goliatone/go-reservation-cache/internal/httpapi"
	"github.com/goliatone/go-reservation-cache/pkg/di"
	"github.com/goliatone/go-reservation-cache/store/bunstore"
)

func newServeCmd(a *app) *cobra.Command {
	var migrate bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()
			return a.serve(ctx, migrate)
		},
	}

	cmd.Flags().String("addr", ":8080", "listen address")
	cmd.Flags().BoolVar(&migrate, "migrate", false, "create missing tables before serving")
	_ = a.v.BindPFlag("http.addr", cmd.Flags().Lookup("addr"))
	return cmd
}

func (a *app) serve(ctx context.Context, migrate bool) error {
	cfg, logger, db, err := a.load()
	if err != nil {
		return err
	}
	defer logger.Sync()
	defer db.Close()

	if migrate {
		if err := bunstore.CreateSchema(ctx, db); err != nil {
			return err
		}
		logger.Info("schema ready")
	}

	cacheConfig, err := cfg.CacheConfig()
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	base := bunstore.New(db, bunstore.WithLogger(logger.Named("bunstore")))
	container, err := di.NewContainer(cacheConfig,
		di.WithLogger(logger),
		di.WithMetrics(reg, "rescache"),
		di.WithStore(base),
	)
	if err != nil {
		return err
	}
	defer container.Close()

	api := httpapi.New(container.Store(), container.CacheService(),
		httpapi.WithLogger(logger.Named("http")),
		httpapi.WithGatherer(reg),
	)
	srv := &http.Server{Addr: cfg.HTTP.Addr, Handler: api.Routes()}

	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", zap.String("addr", cfg.HTTP.Addr))
		errc <- srv.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
