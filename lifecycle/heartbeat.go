package lifecycle

import (
	"context"
	"time"

	"github.com/skillsenselab/regkit/errors"
	"github.com/skillsenselab/regkit/logger"
)

// startHeartbeat launches the heartbeat loop. At most one loop runs per
// Service.
func (s *Service) startHeartbeat() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.hbStarted {
		return
	}
	s.hbStarted = true
	s.hbDone = make(chan struct{})
	go s.heartbeatLoop()
}

// heartbeatLoop sends heartbeats every HeartbeatInterval, counting
// consecutive failures. Every failure is followed by a HeartbeatRetryDelay
// wait on the stop signal before anything else happens, so a stop arriving
// during that window always wins. Only after the wait, when failures have
// reached HeartbeatMaxFailures, does the loop self-heal: it removes the
// instance best-effort and re-registers with the usual retry policy,
// resetting the counter on success. The loop exits when Stop closes the stop
// channel.
func (s *Service) heartbeatLoop() {
	defer close(s.hbDone)

	ctx := context.Background()
	failures := 0

	for {
		if !s.waitStop(s.cfg.HeartbeatInterval) {
			return
		}
		if !s.desc.Ephemeral {
			continue
		}

		if err := s.sendHeartbeat(ctx); err != nil {
			failures++
			s.log.Warn("heartbeat failed", logger.Fields(
				"failures", failures,
				"max_failures", s.cfg.HeartbeatMaxFailures,
				"error", err.Error(),
			))

			if !s.waitStop(s.cfg.HeartbeatRetryDelay) {
				return
			}
			if failures >= s.cfg.HeartbeatMaxFailures {
				if healErr := s.selfHeal(ctx); healErr != nil {
					s.log.Error("self-healing re-registration failed", logger.ErrorFields("self_heal", healErr))
				} else {
					failures = 0
				}
			}
			continue
		}

		if failures > 0 {
			s.log.Info("heartbeat recovered", logger.Fields("after_failures", failures))
		}
		failures = 0
	}
}

// selfHeal re-registers the instance after persistent heartbeat failures. The
// stale registration is removed best-effort first so the re-add starts clean.
func (s *Service) selfHeal(ctx context.Context) error {
	s.log.Warn("max consecutive heartbeat failures reached, re-registering", logger.Fields(
		"max_failures", s.cfg.HeartbeatMaxFailures,
	))

	if err := s.removeOnce(ctx); err != nil {
		s.log.Debug("stale instance removal failed", logger.Fields("error", err.Error()))
	}

	if err := s.RegisterWithRetry(ctx); err != nil {
		return errors.SelfHealingFailed(s.desc.Name).WithCause(err)
	}
	s.log.Info("service re-registered after heartbeat failures")
	return nil
}

// waitStop sleeps for d, returning false immediately if the service is
// stopped before or during the wait.
func (s *Service) waitStop(d time.Duration) bool {
	if d <= 0 {
		return !s.stopped()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-s.stopCh:
		return false
	case <-timer.C:
		return true
	}
}
