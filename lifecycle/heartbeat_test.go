package lifecycle

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/skillsenselab/regkit/registry/memory"
	"github.com/skillsenselab/regkit/testutil"
)

func TestHeartbeatLoopSendsPeriodically(t *testing.T) {
	svc, mem := newMemService(t, testDescriptor(), testConfig())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	testutil.WaitFor(t, 2*time.Second, func() bool {
		return mem.CallCount(memory.OpHeartbeat) >= 3
	})
}

func TestSelfHealAfterMaxConsecutiveFailures(t *testing.T) {
	svc, mem := newMemService(t, testDescriptor(), testConfig())

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	// Two scripted failures hit HeartbeatMaxFailures and trigger
	// re-registration.
	mem.FailNext(memory.OpHeartbeat, 2, stderrors.New("timeout"))

	testutil.WaitFor(t, 2*time.Second, func() bool {
		return mem.CallCount(memory.OpAdd) >= 2
	})
	if !svc.Registered() {
		t.Error("service should be registered after self-healing")
	}

	// The stale instance is removed before re-adding: the calls leading up
	// to the second add must be the two failed heartbeats followed by a
	// remove.
	calls := mem.Calls()
	healIdx := -1
	adds := 0
	for i, call := range calls {
		if call.Op == memory.OpAdd {
			adds++
			if adds == 2 {
				healIdx = i
				break
			}
		}
	}
	if healIdx < 3 {
		t.Fatalf("re-registration too early in call sequence: %d", healIdx)
	}
	want := []memory.Op{memory.OpHeartbeat, memory.OpHeartbeat, memory.OpRemove}
	for i, op := range want {
		call := calls[healIdx-3+i]
		if call.Op != op {
			t.Fatalf("call %d before re-add: got %s, want %s", i, call.Op, op)
		}
		if op == memory.OpHeartbeat && call.Err == nil {
			t.Errorf("heartbeat %d before re-add should have failed", i)
		}
	}
}

func TestRetryDelayPrecedesSelfHeal(t *testing.T) {
	cfg := testConfig()
	cfg.HeartbeatMaxFailures = 1
	cfg.HeartbeatRetryDelay = time.Hour
	svc, mem := newMemService(t, testDescriptor(), cfg)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	mem.FailNext(memory.OpHeartbeat, 1, stderrors.New("timeout"))

	testutil.WaitFor(t, 2*time.Second, func() bool {
		for _, c := range mem.Calls() {
			if c.Op == memory.OpHeartbeat && c.Err != nil {
				return true
			}
		}
		return false
	})

	// The failure threshold is already reached, but the loop must sit in the
	// retry-delay wait instead of re-registering right away.
	time.Sleep(100 * time.Millisecond)
	if got := mem.CallCount(memory.OpAdd); got != 1 {
		t.Fatalf("re-registered during the retry-delay wait: %d add calls", got)
	}

	// A stop during that wait wins over the pending self-heal.
	done := make(chan struct{})
	go func() {
		_ = svc.Stop(context.Background())
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not cancel the retry-delay wait")
	}
	if got := mem.CallCount(memory.OpAdd); got != 1 {
		t.Errorf("expected no re-registration after stop, got %d add calls", got)
	}
}

func TestFailureCounterResetsOnSuccess(t *testing.T) {
	cfg := testConfig()
	svc, mem := newMemService(t, testDescriptor(), cfg)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	defer svc.Stop(context.Background())

	// One failure, then success, then one more failure: the counter resets
	// in between, so HeartbeatMaxFailures of 2 is never reached and no
	// re-registration happens.
	mem.FailNext(memory.OpHeartbeat, 1, stderrors.New("blip"))
	testutil.WaitFor(t, 2*time.Second, func() bool {
		calls := mem.Calls()
		var okAfterFail bool
		var failed int
		for _, c := range calls {
			if c.Op != memory.OpHeartbeat {
				continue
			}
			if c.Err != nil {
				failed++
			} else if failed > 0 {
				okAfterFail = true
			}
		}
		return okAfterFail
	})
	mem.FailNext(memory.OpHeartbeat, 1, stderrors.New("blip"))
	testutil.WaitFor(t, 2*time.Second, func() bool {
		var failed int
		for _, c := range mem.Calls() {
			if c.Op == memory.OpHeartbeat && c.Err != nil {
				failed++
			}
		}
		return failed >= 2
	})

	if got := mem.CallCount(memory.OpAdd); got != 1 {
		t.Errorf("expected no re-registration, got %d add calls", got)
	}
}

func TestNonEphemeralSkipsHeartbeats(t *testing.T) {
	desc := testDescriptor()
	desc.Ephemeral = false
	cfg := testConfig()
	svc, mem := newMemService(t, desc, cfg)

	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}

	time.Sleep(4 * cfg.HeartbeatInterval)
	if got := mem.CallCount(memory.OpHeartbeat); got != 0 {
		t.Errorf("expected no heartbeats for non-ephemeral instance, got %d", got)
	}

	// Even a running loop stays quiet for a non-ephemeral instance and
	// still exits cleanly on stop.
	svc.startHeartbeat()
	time.Sleep(4 * cfg.HeartbeatInterval)
	if got := mem.CallCount(memory.OpHeartbeat); got != 0 {
		t.Errorf("expected loop to skip sends, got %d heartbeats", got)
	}

	if err := svc.Stop(context.Background()); err != nil {
		t.Fatalf("Stop failed: %v", err)
	}
	select {
	case <-svc.hbDone:
	case <-time.After(time.Second):
		t.Fatal("heartbeat loop did not exit after Stop")
	}
}

func TestStartHeartbeatStartsOnlyOneLoop(t *testing.T) {
	svc, _ := newMemService(t, testDescriptor(), testConfig())
	if err := svc.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	first := svc.hbDone
	svc.startHeartbeat()
	if svc.hbDone != first {
		t.Error("second startHeartbeat must not replace the running loop")
	}
	_ = svc.Stop(context.Background())
}
