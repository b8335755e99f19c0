package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"GridCast/internal/usecase"
	"GridCast/pkg/cache"
	pkgch "GridCast/pkg/clickhouse"
	"GridCast/pkg/config"
	xhttp "GridCast/pkg/http"
	applogger "GridCast/pkg/logger"
)

// App encapsulates the entire application lifecycle.
type App struct {
	cfg        *config.Config
	handler    xhttp.Handler
	collector  *usecase.PriceCollector
	chClient   *pkgch.Client
	cache      cache.Service
	logger     *applogger.Logger
	httpServer *xhttp.Server
	PriceProc  *usecase.PriceProcessor
}

// New creates a new App instance with all dependencies. The collector,
// ClickHouse client and cache are optional and may be nil.
func New(
	cfg *config.Config,
	handler xhttp.Handler,
	collector *usecase.PriceCollector,
	chClient *pkgch.Client,
	c cache.Service,
	l *applogger.Logger,
) *App {
	return &App{
		cfg:       cfg,
		handler:   handler,
		collector: collector,
		chClient:  chClient,
		cache:     c,
		logger:    l,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
		xhttp.WithCORSOrigins(a.cfg.Server.CORSOrigins),
		xhttp.WithLogger(a.logger),
	)

	if a.collector != nil {
		go func() {
			if err := a.collector.Start(ctx); err != nil {
				a.logger.Error("collector error", applogger.Error(err))
			}
		}()
		a.logger.Info("collector started",
			applogger.String("url", a.cfg.Stream.URL),
			applogger.String("backend", a.cfg.Stream.Backend),
		)
	}

	if err := a.httpServer.Start(); err != nil {
		a.logger.Error("http server start error", applogger.Error(err))
		return err
	}
	a.logger.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	// Wait for interrupt
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.logger.Info("shutdown signal received")
	return a.shutdown(ctx)
}

// shutdown gracefully stops all services.
func (a *App) shutdown(ctx context.Context) error {
	if a.collector != nil {
		if err := a.collector.Stop(); err != nil {
			a.logger.Warn("collector stop error", applogger.Error(err))
		}
	}

	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := a.httpServer.Stop(shutdownCtx); err != nil {
		a.logger.Error("http shutdown error", applogger.Error(err))
	}

	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.logger.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Warn("cache close error", applogger.Error(err))
		}
	}

	// Close processor resources (publisher/storage)
	if a.PriceProc != nil {
		a.PriceProc.Close()
	}

	a.logger.Info("shutdown complete")
	return nil
}
