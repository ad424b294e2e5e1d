package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/skillsenselab/regkit/component"
)

// WaitFor polls cond every millisecond until it returns true, failing the
// test if timeout elapses first. Use it to assert on state reached by
// background goroutines such as heartbeat loops.
func WaitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(time.Millisecond)
	}
	t.Fatal("condition not met before timeout")
}

// Start starts a component and registers its Stop as test cleanup.
func Start(t *testing.T, c component.Component) {
	t.Helper()
	ctx := context.Background()
	if err := c.Start(ctx); err != nil {
		t.Fatalf("starting %s: %v", c.Name(), err)
	}
	t.Cleanup(func() {
		if err := c.Stop(ctx); err != nil {
			t.Errorf("stopping %s: %v", c.Name(), err)
		}
	})
}
