package app

import (
	"context"
	"fmt"
	"time"

	"github.com/code-arena-club/arena-backend/internal/attr"
)

const shutdownTimeout = 15 * time.Second

// Start brings the process online: reconcile the phase queue against the
// contest table, start the job workers, the broadcast bridge, and the HTTP
// listener, then block until ctx is cancelled. Reconciliation failure is
// fatal; the platform must not run with a queue it cannot trust.
func (app *App) Start(ctx context.Context) error {
	if err := app.Queue.ReconcileOnStartup(ctx); err != nil {
		return fmt.Errorf("startup reconciliation failed: %w", err)
	}

	if err := app.Queue.Start(ctx); err != nil {
		return fmt.Errorf("failed to start phase queue: %w", err)
	}

	errCh := make(chan error, 3)

	go func() {
		if err := app.BroadcastRouter.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("broadcast router: %w", err)
		}
	}()

	go func() {
		if err := app.LeaderboardRouter.Router.Run(ctx); err != nil {
			errCh <- fmt.Errorf("leaderboard router: %w", err)
		}
	}()

	go func() {
		if err := app.HTTPServer.Start(); err != nil {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	app.Logger.Info("Application started",
		attr.String("http_addr", app.Cfg.HTTP.Addr))

	select {
	case <-ctx.Done():
		app.Logger.Info("Shutdown signal received")
	case err := <-errCh:
		app.Logger.Error("Component failed, shutting down", attr.Error(err))
		app.shutdown()
		return err
	}

	app.shutdown()
	return nil
}

// shutdown stops components in reverse dependency order: stop accepting
// work, drain the queue workers, then release connections.
func (app *App) shutdown() {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := app.HTTPServer.Shutdown(ctx); err != nil {
		app.Logger.Warn("HTTP server shutdown failed", attr.Error(err))
	}

	if err := app.Queue.Stop(ctx); err != nil {
		app.Logger.Warn("Phase queue shutdown failed", attr.Error(err))
	}

	if err := app.BroadcastRouter.Close(); err != nil {
		app.Logger.Warn("Broadcast router close failed", attr.Error(err))
	}

	if err := app.LeaderboardRouter.Close(); err != nil {
		app.Logger.Warn("Leaderboard router close failed", attr.Error(err))
	}

	if err := app.eventBus.Close(); err != nil {
		app.Logger.Warn("Event bus close failed", attr.Error(err))
	}

	if err := app.hotCache.Close(); err != nil {
		app.Logger.Warn("Hot cache close failed", attr.Error(err))
	}

	if err := app.db.Close(); err != nil {
		app.Logger.Warn("Database close failed", attr.Error(err))
	}

	app.Logger.Info("Application shut down gracefully")
}
