package cli

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/runnerr0/cpi/internal/api"
	"github.com/runnerr0/cpi/internal/cpi"
	"github.com/runnerr0/cpi/internal/logger"
	"github.com/runnerr0/cpi/internal/storage"
)

const shutdownTimeout = 5 * time.Second

// Execute implements the go-flags Commander interface for ServeCommand.
func (c *ServeCommand) Execute(args []string) error {
	sess, err := openSession(c.globals)
	if err != nil {
		return err
	}
	defer sess.Close()

	if c.LogLevel != "" {
		logger.Init(c.LogLevel, sess.cfg.Logging.Format)
	}

	host := sess.cfg.Server.Host
	if c.Host != "" {
		host = c.Host
	}
	port := sess.cfg.Server.Port
	if c.Port > 0 {
		port = c.Port
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return c.serve(ctx, sess.store, sess.cfg.SeriesDefaults(), net.JoinHostPort(host, strconv.Itoa(port)))
}

// newServer wires the API over an empty service. The returned reload
// function rebuilds a snapshot from store.
func newServer(store storage.Store, defaults cpi.Defaults) (*echo.Echo, *cpi.Service, api.ReloadFunc) {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Use(middleware.Recover())
	// Requests are logged at debug level only.
	if logger.Enabled(logger.DebugLevel) {
		e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
			LogMethod:  true,
			LogURI:     true,
			LogStatus:  true,
			LogLatency: true,
			LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
				logger.Debug("%s %s %d %v", v.Method, v.URI, v.Status, v.Latency)
				return nil
			},
		}))
	}

	svc := cpi.NewService(nil)
	reload := func(ctx context.Context) (*cpi.Snapshot, error) {
		return loadSnapshot(ctx, store, defaults)
	}
	api.NewHandler(svc, reload).RegisterRoutes(e)
	return e, svc, reload
}

// serve runs the API on addr until ctx is canceled. The dataset loads in
// the background; queries answer 503 until it is ready.
func (c *ServeCommand) serve(ctx context.Context, store storage.Store, defaults cpi.Defaults, addr string) error {
	e, svc, reload := newServer(store, defaults)

	// The initial load reads from store, which the caller closes once serve
	// returns, so serve waits for it on every exit path.
	loadCtx, cancelLoad := context.WithCancel(ctx)
	loaded := make(chan struct{})
	defer func() {
		cancelLoad()
		<-loaded
	}()

	go func() {
		defer close(loaded)
		t0 := time.Now()
		snap, err := reload(loadCtx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return
			}
			if errors.Is(err, storage.ErrNoDataset) {
				logger.Warn("%v; serving 503 until POST /api/reload succeeds", err)
				return
			}
			logger.Error("initial dataset load failed: %v", err)
			return
		}
		svc.Reload(snap)
		logger.Info("dataset ready in %v", time.Since(t0))
	}()

	errCh := make(chan error, 1)
	go func() {
		errCh <- e.Start(addr)
	}()
	fmt.Printf("cpi %s listening on http://%s\n", c.version, addr)

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
		logger.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	}
}
