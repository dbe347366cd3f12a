package commands

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"investtracker/internal/backend"
	"investtracker/internal/buildinfo"
	"investtracker/internal/cache"
	"investtracker/internal/config"
	apphttp "investtracker/internal/http"
	applog "investtracker/internal/log"
	"investtracker/internal/services"
	"investtracker/internal/window"
)

func runServe(ctx context.Context, cfg *config.Config, logger *applog.Logger) error {
	ln, err := net.Listen("tcp", cfg.Addr())
	if err != nil {
		return fmt.Errorf("listen on %s: %w", cfg.Addr(), err)
	}
	return serve(ctx, cfg, logger, ln)
}

// serve runs the window on ln until the user closes it or ctx is cancelled.
// The record store is opened first and released last.
func serve(ctx context.Context, cfg *config.Config, logger *applog.Logger, ln net.Listener) (err error) {
	defer ln.Close()

	bcfg, err := backend.FromAppConfig(cfg)
	if err != nil {
		return err
	}
	store, err := backend.NewFactory(logger).CreateBackend(ctx, bcfg)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := store.Close(); cerr != nil {
			logger.Error("Failed to close record store", applog.FieldError, cerr)
			err = errors.Join(err, cerr)
		}
	}()

	snapshots := cache.NewLRUCache[services.Snapshot](cfg.CacheSize, cfg.CacheTTL)
	caches := cache.NewManager(logger.WithComponent(applog.ComponentCache).Logger)
	caches.Register(snapshots)
	caches.StartCleanup(cfg.CacheTTL)
	defer caches.Stop()

	svc := services.NewInvestmentService(store.Repository,
		services.WithSnapshotCache(snapshots),
		services.WithLogger(logger),
	)
	win, err := window.New(ctx, svc, logger)
	if err != nil {
		return fmt.Errorf("open window: %w", err)
	}
	srv, err := apphttp.NewServer(ln.Addr().String(), win, svc, logger)
	if err != nil {
		return err
	}
	srv.ReadTimeout = 10 * time.Second
	srv.WriteTimeout = 10 * time.Second
	srv.IdleTimeout = 60 * time.Second
	srv.MaxHeaderBytes = 1 << 16

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("Investment Tracker ready",
			applog.FieldOperation, applog.OpStartup,
			"url", "http://"+ln.Addr().String()+"/",
			"backend", cfg.DataBackend,
			"version", buildinfo.Version)
		if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		select {
		case <-gctx.Done():
			logger.Info("Shutdown signal received", applog.FieldOperation, applog.OpShutdown)
		case <-srv.Quit():
			logger.Info("Window closed", applog.FieldOperation, applog.OpShutdown)
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	logger.Info("Investment Tracker stopped")
	return nil
}
