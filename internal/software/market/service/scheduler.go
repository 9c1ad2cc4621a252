package service

import (
	"context"
	"fmt"
	"time"

	"dalnoboi/internal/general/logger"

	"github.com/robfig/cron/v3"
)

const sweepSchedule = "@every 1m"

// Scheduler runs catalog refreshes and the idle-session sweep on cron schedules.
type Scheduler struct {
	cron    *cron.Cron
	logger  *logger.Logger
	catalog *Catalog
	hub     *Hub

	refreshSpec string
	idleTimeout time.Duration

	refreshID cron.EntryID
	sweepID   cron.EntryID
}

// NewScheduler uses six-field specs ("0 */5 * * * *"). An empty refreshSpec disables refreshes.
func NewScheduler(logger *logger.Logger, catalog *Catalog, hub *Hub, refreshSpec string, idleTimeout time.Duration) *Scheduler {
	return &Scheduler{
		cron:        cron.New(cron.WithSeconds()),
		logger:      logger,
		catalog:     catalog,
		hub:         hub,
		refreshSpec: refreshSpec,
		idleTimeout: idleTimeout,
	}
}

// Run schedules the jobs and blocks until ctx is done, then waits for running jobs.
func (s *Scheduler) Run(ctx context.Context) error {
	var err error
	if s.refreshSpec != "" {
		s.refreshID, err = s.cron.AddFunc(s.refreshSpec, func() { s.refresh(ctx) })
		if err != nil {
			return fmt.Errorf("schedule catalog refresh %q: %w", s.refreshSpec, err)
		}
	}
	if s.idleTimeout > 0 {
		s.sweepID, err = s.cron.AddFunc(sweepSchedule, func() { s.sweep(ctx) })
		if err != nil {
			return fmt.Errorf("schedule session sweep: %w", err)
		}
	}

	s.cron.Start()
	s.logger.Info(ctx, "scheduler_started", "Background jobs scheduled", map[string]any{
		"catalog_refresh": s.refreshSpec,
		"idle_timeout_s":  s.idleTimeout.Seconds(),
	})

	<-ctx.Done()
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-time.After(10 * time.Second):
		s.logger.Error(ctx, "scheduler_stop_timeout", "Background jobs still running at shutdown", nil, nil)
	}
	return nil
}

func (s *Scheduler) refresh(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()
	if _, err := s.catalog.Load(ctx); err != nil {
		// Catalog logs the failure; sessions keep the previous data.
		return
	}
	s.logger.Info(ctx, "catalog_refreshed", "Catalog refreshed", map[string]any{
		"offers":   len(s.catalog.Offers()),
		"sessions": s.hub.Len(),
	})
}

func (s *Scheduler) sweep(ctx context.Context) {
	if n := s.hub.SweepIdle(time.Now(), s.idleTimeout); n > 0 {
		s.logger.Info(ctx, "sessions_swept", "Idle map sessions removed", map[string]any{"removed": n})
	}
}
