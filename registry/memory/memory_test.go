package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/registry"
)

func TestAddRemoveInstance(t *testing.T) {
	c := New(logger.Nop())
	ctx := context.Background()

	if err := c.AddInstance(ctx, "billing", "10.0.0.1", 8080, true, map[string]string{"zone": "a"}); err != nil {
		t.Fatalf("AddInstance failed: %v", err)
	}
	if !c.Has("billing", "10.0.0.1", 8080) {
		t.Fatal("instance not registered")
	}

	if err := c.RemoveInstance(ctx, "billing", "10.0.0.1", 8080); err != nil {
		t.Fatalf("RemoveInstance failed: %v", err)
	}
	if c.Has("billing", "10.0.0.1", 8080) {
		t.Fatal("instance still registered after remove")
	}
}

func TestHeartbeatUnknownInstance(t *testing.T) {
	c := New(logger.Nop())
	err := c.SendHeartbeat(context.Background(), "billing", "10.0.0.1", 8080)
	if !errors.Is(err, registry.ErrInstanceNotFound) {
		t.Errorf("expected ErrInstanceNotFound, got %v", err)
	}
}

func TestFailNext(t *testing.T) {
	c := New(logger.Nop())
	ctx := context.Background()
	boom := errors.New("boom")
	c.FailNext(OpAdd, 2, boom)

	for i := 0; i < 2; i++ {
		if err := c.AddInstance(ctx, "billing", "10.0.0.1", 8080, true, nil); !errors.Is(err, boom) {
			t.Fatalf("call %d: expected scripted error, got %v", i, err)
		}
	}
	if err := c.AddInstance(ctx, "billing", "10.0.0.1", 8080, true, nil); err != nil {
		t.Fatalf("third call should succeed, got %v", err)
	}
	if got := c.CallCount(OpAdd); got != 3 {
		t.Errorf("expected 3 add calls recorded, got %d", got)
	}
}

func TestSetErrorSticky(t *testing.T) {
	c := New(logger.Nop())
	ctx := context.Background()
	boom := errors.New("down")
	c.SetError(OpHeartbeat, boom)

	_ = c.AddInstance(ctx, "billing", "10.0.0.1", 8080, true, nil)
	for i := 0; i < 3; i++ {
		if err := c.SendHeartbeat(ctx, "billing", "10.0.0.1", 8080); !errors.Is(err, boom) {
			t.Fatalf("heartbeat %d: expected sticky error, got %v", i, err)
		}
	}

	c.SetError(OpHeartbeat, nil)
	if err := c.SendHeartbeat(ctx, "billing", "10.0.0.1", 8080); err != nil {
		t.Fatalf("heartbeat after clearing error: %v", err)
	}
}

func TestLatencyRespectsContext(t *testing.T) {
	c := New(logger.Nop())
	c.SetLatency(time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	start := time.Now()
	err := c.AddInstance(ctx, "billing", "10.0.0.1", 8080, true, nil)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected DeadlineExceeded, got %v", err)
	}
	if elapsed := time.Since(start); elapsed > 500*time.Millisecond {
		t.Errorf("call did not honor context cancellation, took %v", elapsed)
	}
}

func TestCallsRecordedInOrder(t *testing.T) {
	c := New(logger.Nop())
	ctx := context.Background()

	_ = c.AddInstance(ctx, "billing", "10.0.0.1", 8080, true, nil)
	_ = c.SendHeartbeat(ctx, "billing", "10.0.0.1", 8080)
	_ = c.RemoveInstance(ctx, "billing", "10.0.0.1", 8080)

	calls := c.Calls()
	want := []Op{OpAdd, OpHeartbeat, OpRemove}
	if len(calls) != len(want) {
		t.Fatalf("expected %d calls, got %d", len(want), len(calls))
	}
	for i, op := range want {
		if calls[i].Op != op {
			t.Errorf("call %d: expected %s, got %s", i, op, calls[i].Op)
		}
	}
}

func TestFactoryRegistered(t *testing.T) {
	c, err := registry.NewClient(registry.Config{Provider: "memory"}, nil, logger.Nop())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	if _, ok := c.(*Client); !ok {
		t.Fatalf("expected *memory.Client, got %T", c)
	}
}
