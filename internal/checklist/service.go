// Package checklist implements per-unit checklist provisioning, task-state
// management, submission, and the conflict recovery routine that keeps the
// one-active-checklist-per-unit invariant self-healing.
package checklist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"git.home.luguber.info/inful/havenclean/internal/events"
	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/logfields"
	"git.home.luguber.info/inful/havenclean/internal/metrics"
	"git.home.luguber.info/inful/havenclean/internal/model"
	"git.home.luguber.info/inful/havenclean/internal/store"
)

// Service carries the checklist use cases. All mutations run inside a single
// store transaction; lifecycle events are published only after commit.
type Service struct {
	store    *store.Store
	recorder metrics.Recorder
	events   events.Publisher
}

// NewService creates a Service with metrics and eventing disabled.
func NewService(st *store.Store) *Service {
	return &Service{
		store:    st,
		recorder: metrics.NoopRecorder{},
		events:   events.NoopPublisher{},
	}
}

// WithRecorder swaps in a metrics recorder.
func (s *Service) WithRecorder(r metrics.Recorder) *Service {
	s.recorder = r
	return s
}

// WithPublisher swaps in an event publisher.
func (s *Service) WithPublisher(p events.Publisher) *Service {
	s.events = p
	return s
}

// GetOrCreateActive returns the unit's active checklist, creating and seeding
// it from the template if the unit has none. Safe under arbitrary
// concurrency: creation attempts for the same unit are serialized behind the
// per-unit gate, and racers that lose the gate re-read and return the
// winner's checklist.
func (s *Service) GetOrCreateActive(ctx context.Context, unitID string) (*View, error) {
	if unitID == "" {
		return nil, ferrors.ValidationError("unit_id is required").Build()
	}

	// Fast path, no gate: the common case is a unit that already has its
	// active checklist.
	view, err := s.readActive(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if view != nil {
		s.recorder.IncProvision(false)
		return view, nil
	}

	// Slow path: acquire the unit's creation gate, re-check existence inside
	// the transaction, and create only if still absent. The gate is released
	// when this call returns, success or failure.
	var created bool
	var createdEvent events.ChecklistEvent
	err = s.store.WithUnitLock(unitID, func() error {
		return s.store.InTx(ctx, func(tx *store.Tx) error {
			existing, err := tx.ActiveChecklist(ctx, unitID)
			if err == nil {
				tasks, terr := tx.TasksByChecklist(ctx, existing.ID)
				if terr != nil {
					return terr
				}
				view = buildView(existing, tasks)
				return nil
			}
			if !errors.Is(err, store.ErrNotFound) {
				return err
			}

			cl, tasks, err := s.createFromTemplate(ctx, tx, unitID)
			if errors.Is(err, store.ErrDuplicateActive) {
				// The guard saw an active checklist our re-check did not:
				// another process won the race, or legacy duplicates exist.
				// Self-heal and return the survivor.
				res, rerr := s.recoverUnitTx(ctx, tx, unitID, recoverModeAudit)
				if rerr != nil {
					s.recorder.IncRecovery(false)
					return ferrors.WrapError(err, ferrors.CategoryInternal, "conflict recovery failed").
						WithContext("unit_id", unitID).Build()
				}
				s.recorder.IncRecovery(true)
				survivorTasks, terr := tx.TasksByChecklist(ctx, res.Survivor.ID)
				if terr != nil {
					return terr
				}
				view = buildView(res.Survivor, survivorTasks)
				return nil
			}
			if err != nil {
				return err
			}

			created = true
			createdEvent = events.ChecklistEvent{
				ChecklistID: cl.ID,
				UnitID:      unitID,
				Status:      string(cl.Status),
				OccurredAt:  cl.CreatedAt,
			}
			view = buildView(cl, tasks)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}

	s.recorder.IncProvision(created)
	if created {
		slog.Info("provisioned checklist",
			logfields.UnitID(unitID),
			logfields.ChecklistID(view.ID),
			logfields.Count(len(cleaningTemplate)))
		s.events.ChecklistCreated(ctx, createdEvent)
	}
	return view, nil
}

// readActive loads the unit's active checklist view, verifying the unit
// exists. Returns (nil, nil) when the unit has no active checklist.
func (s *Service) readActive(ctx context.Context, unitID string) (*View, error) {
	var view *View
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		if _, err := tx.GetUnit(ctx, unitID); err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return ferrors.NotFoundError("unit not found").WithContext("unit_id", unitID).Build()
			}
			return err
		}
		cl, err := tx.ActiveChecklist(ctx, unitID)
		if errors.Is(err, store.ErrNotFound) {
			return nil
		}
		if err != nil {
			return err
		}
		tasks, err := tx.TasksByChecklist(ctx, cl.ID)
		if err != nil {
			return err
		}
		view = buildView(cl, tasks)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return view, nil
}

// createFromTemplate inserts a pending checklist and its seeded tasks in
// template order, display_order starting at 1.
func (s *Service) createFromTemplate(ctx context.Context, tx *store.Tx, unitID string) (*model.Checklist, []model.Task, error) {
	now := time.Now().UTC()
	cl := &model.Checklist{
		ID:        uuid.New().String(),
		UnitID:    unitID,
		Status:    model.StatusPending,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := tx.InsertChecklist(ctx, cl); err != nil {
		return nil, nil, err
	}

	tasks := make([]model.Task, 0, len(cleaningTemplate))
	for i, entry := range cleaningTemplate {
		tasks = append(tasks, model.Task{
			ID:           uuid.New().String(),
			ChecklistID:  cl.ID,
			Category:     entry.Category,
			Description:  entry.Task,
			Completed:    false,
			DisplayOrder: i + 1,
			CreatedAt:    now,
			UpdatedAt:    now,
		})
	}
	if err := tx.InsertTasks(ctx, tasks); err != nil {
		return nil, nil, err
	}
	return cl, tasks, nil
}
