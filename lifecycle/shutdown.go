package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sync"
	"syscall"

	"github.com/skillsenselab/regkit/logger"
)

// osExit is swapped out in tests.
var osExit = os.Exit

var (
	coordMu     sync.Mutex
	activeCoord *ShutdownCoordinator
)

// ShutdownCoordinator ties a Service to SIGINT/SIGTERM: on either signal it
// stops the service, hands the signal to any coordinator installed before it,
// and exits the process. Install and Restore nest, so stacked coordinators
// chain their handling in most-recent-first order, and Restore reinstates the
// previous one.
type ShutdownCoordinator struct {
	svc  *Service
	log  *logger.Logger
	sigs chan os.Signal
	quit chan struct{}
	prev *ShutdownCoordinator

	installed bool
}

// NewShutdownCoordinator creates a coordinator for svc.
func NewShutdownCoordinator(svc *Service, log *logger.Logger) *ShutdownCoordinator {
	if log == nil {
		log = logger.NewDefault("")
	}
	return &ShutdownCoordinator{
		svc:  svc,
		log:  log.WithComponent("shutdown"),
		sigs: make(chan os.Signal, 1),
		quit: make(chan struct{}),
	}
}

// Install starts listening for SIGINT and SIGTERM, remembering the previously
// installed coordinator so signals chain through it.
func (c *ShutdownCoordinator) Install() {
	coordMu.Lock()
	if c.installed {
		coordMu.Unlock()
		return
	}
	c.installed = true
	c.prev = activeCoord
	activeCoord = c
	coordMu.Unlock()

	signal.Notify(c.sigs, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		select {
		case sig := <-c.sigs:
			c.handle(sig)
		case <-c.quit:
		}
	}()
}

// Restore stops listening and reinstates the previously installed
// coordinator.
func (c *ShutdownCoordinator) Restore() {
	coordMu.Lock()
	defer coordMu.Unlock()
	if !c.installed {
		return
	}
	c.installed = false
	signal.Stop(c.sigs)
	close(c.quit)
	if activeCoord == c {
		activeCoord = c.prev
	}
}

// handle runs the shutdown sequence for one signal. The service stop and the
// chained handler are each isolated so a panic in one cannot skip the other
// or the final exit.
func (c *ShutdownCoordinator) handle(sig os.Signal) {
	c.log.Info("shutdown signal received", logger.Fields(logger.FieldSignal, sig.String()))

	c.protect("service stop", func() {
		if c.svc != nil {
			_ = c.svc.Stop(context.Background())
		}
	})

	if c.prev != nil {
		c.protect("chained shutdown handler", func() {
			c.prev.handle(sig)
		})
	}

	osExit(0)
}

func (c *ShutdownCoordinator) protect(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			c.log.Error("panic during shutdown", logger.Fields("stage", what, "panic", r))
		}
	}()
	fn()
}
