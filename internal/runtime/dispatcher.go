package runtime

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/fitsync/svc-exercise-refresh/internal/usecases/commands"
)

type ServiceCtx struct {
	deps            *dependencies
	shutdownChannel chan os.Signal
	serverCtx       context.Context
	serverStopFunc  context.CancelFunc
	serverReady     chan struct{}
}

func New(opts ...ServiceOption) *ServiceCtx {
	ctx := &ServiceCtx{
		shutdownChannel: make(chan os.Signal, 1),
	}

	for _, opt := range opts {
		opt(ctx)
	}

	return ctx
}

// Run executes the refresh service and returns the process exit code.
// Without an interval configured it performs a single refresh run and
// reports 0 only when no exercise failed. With an interval it keeps
// refreshing until a termination signal arrives.
func (c *ServiceCtx) Run() int {
	if err := c.build(); err != nil {
		log.Printf("failed to build service: %v", err)

		return 1
	}

	defer c.shutdown()

	c.startOpsServer()
	c.shutdownHook()
	c.monitorConfigChanges()

	if c.deps.config.Refresh.Interval > 0 {
		return c.runDaemon()
	}

	return c.runOnce()
}

func (c *ServiceCtx) build() error {
	c.serverCtx, c.serverStopFunc = context.WithCancel(context.Background())

	var err error

	c.deps, err = initializeDependencies(c.serverCtx)
	if err != nil {
		return fmt.Errorf("initializing dependencies: %w", err)
	}

	return nil
}

func (c *ServiceCtx) runOnce() int {
	if c.executeRun() {
		return 0
	}

	return 1
}

func (c *ServiceCtx) runDaemon() int {
	interval := c.deps.config.Refresh.Interval

	c.deps.infra.logger.Info().
		Str("interval", interval.String()).
		Msg("running as a daemon")

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	c.executeRun()

	for {
		select {
		case <-ticker.C:
			c.executeRun()
		case <-c.serverCtx.Done():
			return 0
		}
	}
}

// executeRun performs one full refresh cycle and reports whether it finished
// without failed exercises.
func (c *ServiceCtx) executeRun() bool {
	if c.deps.config.Refresh.CleanupEnabled {
		if _, err := c.deps.apps.app.Commands.CleanupStale.Handle(c.serverCtx, commands.CleanupStaleCommand{}); err != nil {
			c.deps.infra.logger.Warn().Err(err).Msg("dropping stale claims failed")
		}
	}

	report, err := c.deps.apps.app.Commands.RunRefresh.Handle(c.serverCtx, commands.RunRefreshCommand{})
	if err != nil {
		c.deps.infra.logger.Error().Err(err).Msg("refresh run failed")

		return false
	}

	return report.Summary.Succeeded()
}

// startOpsServer serves the internal probe and status endpoints. A refresh
// run must not die because the ops port is taken, so listen failures are
// logged and the batch carries on without the server.
func (c *ServiceCtx) startOpsServer() {
	if c.deps.infra.opsHTTPServer == nil {
		c.signalServerReady()

		return
	}

	go func() {
		cfg := c.deps.config.OpsHTTPServer
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(int(cfg.Port)))

		listener, err := net.Listen("tcp", addr)
		if err != nil {
			c.deps.infra.logger.Error().
				Err(err).
				Str("address", addr).
				Msg("ops http server failed to listen")
			c.signalServerReady()

			return
		}

		c.deps.infra.logger.Info().
			Str("address", addr).
			Msg("starting the ops http server")

		c.signalServerReady()

		if err := c.deps.infra.opsHTTPServer.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			c.deps.infra.logger.Error().Err(err).Msg("ops http server error")
		}
	}()
}

func (c *ServiceCtx) signalServerReady() {
	if c.serverReady != nil {
		close(c.serverReady)
	}
}

func (c *ServiceCtx) monitorConfigChanges() {
	if c.deps.configLoader == nil {
		return
	}

	reloadErrors := c.deps.configLoader.WatchConfigSignals(c.serverCtx)
	go func() {
		for err := range reloadErrors {
			if err != nil {
				c.deps.infra.logger.Error().Err(err).Msg("config reload failed")
			} else {
				c.deps.infra.logger.Info().Msg("config reloaded successfully")
			}
		}
	}()
}

func (c *ServiceCtx) shutdownHook() {
	signal.Notify(c.shutdownChannel, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		sig, ok := <-c.shutdownChannel
		if !ok {
			return
		}

		c.deps.infra.logger.Info().
			Str("signal", sig.String()).
			Msg("received shutdown signal")

		c.serverStopFunc()
	}()
}

func (c *ServiceCtx) shutdown() {
	c.deps.infra.logger.Info().Msg("shutting down service...")

	// Cancel context so that underlying processes start their cleanup.
	c.serverStopFunc()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), c.deps.config.OpsHTTPServer.ShutdownTimeout)
	defer cancel()

	c.cleanup(shutdownCtx)

	c.deps.infra.logger.Info().Msg("service shutdown complete")
}

// WaitForServer blocks until the ops http server is running.
// If you want to be notified when the server is running,
// make sure you instantiate your service with WithWaitingForServer.
//
// Example:
//
//	svc := runtime.New(WithWaitingForServer())
//	go func() {
//		svc.Run()
//	}()
//
//	svc.WaitForServer()
func (c *ServiceCtx) WaitForServer() {
	if c.serverReady != nil {
		<-c.serverReady
	}
}

func (c *ServiceCtx) cleanup(shutdownCtx context.Context) {
	c.deps.infra.logger.Info().Msg("cleaning up resources...")

	for resource, cleanupFn := range c.deps.cleanupFuncs {
		if err := cleanupFn(shutdownCtx); err != nil {
			c.deps.infra.logger.Error().
				Err(err).
				Str("resource", resource).
				Msg("failed to shutdown the resource gracefully")
		}
	}

	c.deps.infra.logger.Info().Msg("cleanup completed")
}
