package server

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"BrentShift/internal/usecase"
	"BrentShift/pkg/config"
	xhttp "BrentShift/pkg/http"
	applogger "BrentShift/pkg/logger"
	"BrentShift/pkg/queue"
)

// App encapsulates the application lifecycle for both the one-shot
// detection mode and the long-running serving mode.
type App struct {
	cfg      *config.Config
	log      *applogger.Logger
	pipeline *usecase.DetectionPipeline
	handler  xhttp.Handler
	consumer *queue.RedisQueue

	httpServer *xhttp.Server
	closers    []closer
}

type closer struct {
	name  string
	close func() error
}

// New creates a new App instance with all dependencies. Consumer may be
// nil when the job queue is disabled.
func New(
	cfg *config.Config,
	log *applogger.Logger,
	pipeline *usecase.DetectionPipeline,
	handler xhttp.Handler,
	consumer *queue.RedisQueue,
) *App {
	return &App{
		cfg:      cfg,
		log:      log,
		pipeline: pipeline,
		handler:  handler,
		consumer: consumer,
	}
}

// AddCloser registers an infrastructure client to close on shutdown.
func (a *App) AddCloser(name string, close func() error) {
	a.closers = append(a.closers, closer{name: name, close: close})
}

// Run dispatches on the run mode. "detect" performs one detection run and
// exits; "serve" runs the HTTP API until interrupted; "both" detects first
// and then serves.
func (a *App) Run(mode string) error {
	switch mode {
	case "detect":
		defer a.closeClients()
		return a.RunDetect(context.Background())
	case "serve":
		return a.RunServe()
	case "both":
		if err := a.RunDetect(context.Background()); err != nil {
			a.closeClients()
			return err
		}
		return a.RunServe()
	}
	return fmt.Errorf("unknown run mode %q", mode)
}

// RunDetect executes a single detection run.
func (a *App) RunDetect(ctx context.Context) error {
	_, err := a.pipeline.Run(ctx)
	return err
}

// RunServe starts the HTTP server and the job queue consumer, then blocks
// until an interrupt or SIGTERM arrives.
func (a *App) RunServe() error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	a.httpServer = xhttp.NewServer(a.handler,
		xhttp.WithHost("0.0.0.0"),
		xhttp.WithPort(a.cfg.Server.Port),
		xhttp.WithTimeouts(a.cfg.Server.ReadTimeout, a.cfg.Server.WriteTimeout, a.cfg.Server.ShutdownTimeout),
	)

	if a.consumer != nil {
		if err := a.consumer.Start(); err != nil {
			return fmt.Errorf("queue start: %w", err)
		}
		a.log.Info("detection queue started")
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}
	a.log.Info("http server started", applogger.Int("port", a.cfg.Server.Port))

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
	<-sigCh

	a.log.Info("shutdown signal received")
	return a.shutdown(ctx)
}

func (a *App) shutdown(ctx context.Context) error {
	shutdownCtx, cancel := context.WithTimeout(ctx, a.cfg.Server.ShutdownTimeout)
	defer cancel()

	if a.httpServer != nil {
		if err := a.httpServer.Stop(shutdownCtx); err != nil {
			a.log.Error("http shutdown error", applogger.Error(err))
		}
	}

	if a.consumer != nil {
		if err := a.consumer.Stop(shutdownCtx); err != nil {
			a.log.Warn("queue stop error", applogger.Error(err))
		}
	}

	a.closeClients()
	a.log.Info("shutdown complete")
	return nil
}

func (a *App) closeClients() {
	for _, c := range a.closers {
		if err := c.close(); err != nil {
			a.log.Warn("close error",
				applogger.String("client", c.name),
				applogger.Error(err),
			)
		}
	}
	a.closers = nil
}
