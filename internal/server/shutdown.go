package server

import (
	"context"
	"fmt"

	appLog "github.com/Shivanand-hulikatti/event-manager/internal/log"
)

// Releaser drops shared state once no worker can touch it any more.
type Releaser interface {
	Release()
}

// Coordinator turns an operator trigger (or context cancellation) into an
// orderly stop: no new connections, wait for in-flight workers, release
// the store.
type Coordinator struct {
	srv   *Server
	store Releaser
	log   *appLog.Logger
}

// NewCoordinator constructs a Coordinator.
func NewCoordinator(srv *Server, store Releaser, log *appLog.Logger) *Coordinator {
	if log == nil {
		log = appLog.Discard()
	}
	return &Coordinator{srv: srv, store: store, log: log}
}

// Run blocks until trigger fires or ctx is done, then drains the server and
// releases the store. A nil trigger waits on ctx alone. A fatal worker error
// recorded by the server, including one raised while draining, is returned
// after the store is released.
func (c *Coordinator) Run(ctx context.Context, trigger <-chan struct{}) error {
	select {
	case <-trigger:
		c.log.Info("EXIT command is typed: server is shutdown")
	case <-ctx.Done():
		c.log.Info("shutdown requested", "reason", context.Cause(ctx))
	}

	// In-flight exchanges are never aborted, so the wait is unbounded.
	if err := c.srv.Shutdown(context.Background()); err != nil {
		return fmt.Errorf("drain workers: %w", err)
	}
	c.log.Info("all workers finished")

	if c.store != nil {
		c.store.Release()
	}
	return c.srv.Err()
}
