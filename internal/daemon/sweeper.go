// Package daemon runs the background consistency sweeper.
package daemon

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-co-op/gocron/v2"

	"git.home.luguber.info/inful/havenclean/internal/checklist"
	"git.home.luguber.info/inful/havenclean/internal/logfields"
)

// Sweeper periodically scans for units violating the one-active-checklist
// invariant and repairs them. Violations should be rare (the write-time guard
// rejects new ones), so a sweep is normally a cheap no-op; its job is to
// catch anything a legacy import or manual fix-up left behind.
type Sweeper struct {
	scheduler gocron.Scheduler
	service   *checklist.Service
	interval  time.Duration
}

// NewSweeper creates a sweeper around the checklist service.
func NewSweeper(svc *checklist.Service, interval time.Duration) (*Sweeper, error) {
	s, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("creating scheduler: %w", err)
	}

	sw := &Sweeper{
		scheduler: s,
		service:   svc,
		interval:  interval,
	}
	if _, err := s.NewJob(
		gocron.DurationJob(interval),
		gocron.NewTask(sw.sweep),
		gocron.WithName("consistency-sweep"),
	); err != nil {
		return nil, fmt.Errorf("creating sweep job: %w", err)
	}
	return sw, nil
}

// Start begins periodic sweeping.
func (s *Sweeper) Start() {
	slog.Info("starting consistency sweeper", slog.Duration("interval", s.interval))
	s.scheduler.Start()
}

// Stop gracefully shuts down the scheduler, waiting for a running sweep.
func (s *Sweeper) Stop() error {
	slog.Info("stopping consistency sweeper")
	return s.scheduler.Shutdown()
}

func (s *Sweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	results, err := s.service.AuditUnits(ctx)
	if err != nil {
		slog.Error("consistency sweep failed", logfields.Error(err))
		return
	}
	if len(results) == 0 {
		slog.Debug("consistency sweep clean")
		return
	}
	for _, r := range results {
		slog.Warn("consistency sweep repaired unit",
			logfields.UnitID(r.Survivor.UnitID),
			logfields.ChecklistID(r.Survivor.ID),
			slog.Int("duplicates_removed", r.DuplicatesRemoved),
			slog.Int("tasks_migrated", r.TasksMigrated))
	}
}
