// Package runtime hosts the long-running background loops of the daemon.
package runtime

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/strata-mem/strata/scope"
)

// Maintainer periodically runs database maintenance (WAL checkpoint, query
// planner statistics) on every store the scope manager owns.
type Maintainer struct {
	manager  *scope.Manager
	schedule Schedule
	logger   zerolog.Logger
}

// NewMaintainer creates a maintainer driven by the given schedule string
// (cron expression or Go duration).
func NewMaintainer(manager *scope.Manager, schedule string, logger zerolog.Logger) (*Maintainer, error) {
	sched, err := ParseSchedule(schedule)
	if err != nil {
		return nil, err
	}
	return &Maintainer{
		manager:  manager,
		schedule: sched,
		logger:   logger.With().Str("component", "maintainer").Logger(),
	}, nil
}

// Start blocks, running maintenance passes per the schedule until the
// context is cancelled. Failures are logged and the loop continues; a missed
// checkpoint is not fatal.
func (m *Maintainer) Start(ctx context.Context) {
	m.logger.Info().Msg("Starting maintenance loop")
	for {
		next := m.schedule.Next(time.Now())
		timer := time.NewTimer(time.Until(next))
		select {
		case <-ctx.Done():
			timer.Stop()
			m.logger.Info().Msg("Maintenance loop stopped: context cancelled")
			return
		case <-timer.C:
			m.runOnce(ctx)
		}
	}
}

// runOnce maintains every available store.
func (m *Maintainer) runOnce(ctx context.Context) {
	global, err := m.manager.GlobalStore()
	if err != nil {
		m.logger.Warn().Err(err).Msg("Skipping maintenance: manager unavailable")
		return
	}
	if err := global.Maintain(ctx); err != nil {
		m.logger.Error().Err(err).Str("scope", "global").Msg("Maintenance failed")
	}

	project, err := m.manager.ProjectStore()
	if err != nil {
		// Global-only mode; nothing more to maintain.
		return
	}
	if err := project.Maintain(ctx); err != nil {
		m.logger.Error().Err(err).Str("scope", "project").Msg("Maintenance failed")
	}
}
