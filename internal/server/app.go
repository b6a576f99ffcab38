// Package server wires the photogallery components together and runs the
// HTTP server until a termination signal arrives.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/dmitrijs2005/photogallery/internal/logging"
	"github.com/dmitrijs2005/photogallery/internal/server/auth"
	"github.com/dmitrijs2005/photogallery/internal/server/config"
	"github.com/dmitrijs2005/photogallery/internal/server/httpapi"
	"github.com/dmitrijs2005/photogallery/internal/server/objectstore"
	"github.com/dmitrijs2005/photogallery/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/photogallery/internal/server/services"
)

const closeTimeout = 10 * time.Second

type App struct {
	config  *config.Config
	logger  logging.Logger
	sync    func() error
	backend *repomanager.Lazy
	http    *httpapi.HTTPServer
}

// newLogger builds the logger selected by cfg.LogFormat. The returned func
// flushes buffered entries.
func newLogger(cfg *config.Config) (logging.Logger, func() error, error) {
	if cfg.LogFormat == config.LogFormatSlog {
		return logging.NewSlogJSON(os.Stdout, slog.LevelInfo), func() error { return nil }, nil
	}
	z, err := logging.NewProductionZap()
	if err != nil {
		return nil, nil, fmt.Errorf("zap init error: %w", err)
	}
	return z, z.Sync, nil
}

func NewApp(ctx context.Context, c *config.Config) (*App, error) {
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}

	logger, syncFn, err := newLogger(c)
	if err != nil {
		return nil, err
	}

	backend := repomanager.NewLazy(c.Backend, func(ctx context.Context) (repomanager.RepositoryManager, error) {
		return repomanager.Open(ctx, c)
	}, logger.With("module", "repomanager"))

	store, err := objectstore.New(ctx, c)
	if err != nil {
		return nil, fmt.Errorf("object store init error: %w", err)
	}

	gallery := services.NewGalleryService(backend.Photos(), store, c.RequestTimeout, logger.With("module", "gallery"))
	accounts := services.NewAccountService(backend.Users(), auth.NewHasher(), c.SecretKey,
		c.SessionValidityDuration, c.RequestTimeout, logger.With("module", "accounts"))

	opts := httpapi.Options{MaxUploadBytes: c.MaxUploadBytes}
	if local, ok := store.(*objectstore.LocalStore); ok {
		opts.MediaDir = local.Root()
		opts.MediaPrefix = local.URLPrefix()
	}
	srv := httpapi.NewHTTPServer(c.HTTPAddr, logger, gallery, accounts, backend, opts)

	return &App{config: c, logger: logger, sync: syncFn, backend: backend, http: srv}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

// Run serves until ctx is cancelled or a signal arrives, then closes the
// backend.
func (app *App) Run(ctx context.Context) error {
	ctx, cancelFunc := context.WithCancel(ctx)
	defer cancelFunc()

	app.logger.Info(ctx, "Starting app...", "backend", app.config.Backend, "object_store", app.config.ObjectStore)
	app.initSignalHandler(cancelFunc)

	// Open the backend eagerly so misconfiguration shows up in the logs at
	// startup. Failure is not fatal; the next request retries.
	if _, err := app.backend.Get(ctx); err != nil {
		app.logger.Warn(ctx, "backend not ready", "error", err)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return app.http.Run(gctx)
	})
	err := g.Wait()

	closeCtx, cancel := context.WithTimeout(context.Background(), closeTimeout)
	defer cancel()
	if cerr := app.backend.Close(closeCtx); cerr != nil {
		app.logger.Error(closeCtx, "backend close error", "error", cerr)
	}
	app.logger.Info(closeCtx, "App stopped")
	_ = app.sync()

	return err
}
