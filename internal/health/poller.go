// internal/health/poller.go
package health

import (
	"context"
	"log/slog"

	"github.com/robfig/cron/v3"

	"github.com/user/docchat/internal/session"
	"github.com/user/docchat/internal/types"
)

// Poller re-runs the coordinator's liveness check on a schedule. The
// startup check itself is one-shot; periodic re-polling is optional and
// only active between Start and Stop.
type Poller struct {
	coordinator *session.Coordinator
	schedule    string
	cron        *cron.Cron
}

// New creates a Poller with a cron schedule such as "@every 30s".
func New(coordinator *session.Coordinator, schedule string) *Poller {
	return &Poller{
		coordinator: coordinator,
		schedule:    schedule,
		cron:        cron.New(),
	}
}

// CheckOnce performs the fire-once-at-startup check.
func (p *Poller) CheckOnce(ctx context.Context) types.HealthStatus {
	return p.coordinator.CheckHealth(ctx)
}

// Start runs the startup check, then begins periodic re-polling.
func (p *Poller) Start(ctx context.Context) error {
	status := p.CheckOnce(ctx)
	slog.Info("health check", "status", string(status))

	_, err := p.cron.AddFunc(p.schedule, func() {
		if got := p.coordinator.CheckHealth(ctx); got == types.HealthUnhealthy {
			slog.Warn("remote service unhealthy")
		}
	})
	if err != nil {
		return err
	}
	p.cron.Start()
	return nil
}

// Stop stops the cron ticker.
func (p *Poller) Stop() {
	p.cron.Stop()
}
