package bootstrap

import (
	"context"
	"time"

	"github.com/skillsenselab/regkit/component"
	"github.com/skillsenselab/regkit/logger"
	"github.com/skillsenselab/regkit/util"
)

// logSummary logs a startup summary: components with their health, plus the
// registration target when enabled.
func (a *App) logSummary(ctx context.Context, startupDuration time.Duration) {
	health := a.Components.HealthAll(ctx)
	components := make(map[string]interface{}, len(health))
	for _, h := range health {
		status := string(h.Status)
		if h.Message != "" {
			status += " (" + h.Message + ")"
		}
		components[h.Name] = status
	}

	fields := logger.Fields(
		"startup_duration", startupDuration.String(),
		"components", components,
	)
	if reg := a.Cfg.Registration; reg.Enabled {
		fields["registry"] = map[string]interface{}{
			"provider": reg.Provider,
			"address":  reg.RegistryAddr,
			"service":  reg.ServiceName,
			"username": util.MaskSecret(reg.Username, 2),
		}
	}
	a.Logger.Info("application ready", fields)

	for _, h := range health {
		if h.Status != component.StatusHealthy {
			a.Logger.Warn("component is not healthy", logger.Fields(
				"component", h.Name,
				"status", string(h.Status),
				"message", h.Message,
			))
		}
	}
}
