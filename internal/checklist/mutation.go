package checklist

import (
	"context"
	"errors"
	"log/slog"

	"git.home.luguber.info/inful/havenclean/internal/events"
	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/logfields"
	"git.home.luguber.info/inful/havenclean/internal/model"
	"git.home.luguber.info/inful/havenclean/internal/store"
)

// ToggleResult is returned by SetTaskCompletion.
type ToggleResult struct {
	Task            *model.Task
	IncompleteCount int
}

// TaskUpdate is one entry of a bulk save. Entries arrive pre-validated from
// the transport layer; malformed wire entries never reach the service.
type TaskUpdate struct {
	ID        string
	Completed bool
}

// SaveResult is returned by SaveProgress.
type SaveResult struct {
	IncompleteCount int
	Applied         int
	Skipped         int
}

// SetTaskCompletion toggles one task and recomputes the owning checklist's
// status. Returns the updated task and the count of still-incomplete tasks.
func (s *Service) SetTaskCompletion(ctx context.Context, taskID string, completed bool) (*ToggleResult, error) {
	if taskID == "" {
		return nil, ferrors.ValidationError("task id is required").Build()
	}

	var res ToggleResult
	var completedEvent *events.ChecklistEvent
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		task, err := tx.GetTask(ctx, taskID)
		if errors.Is(err, store.ErrNotFound) {
			return ferrors.NotFoundError("task not found").WithContext("task_id", taskID).Build()
		}
		if err != nil {
			return err
		}

		cl, err := tx.GetChecklist(ctx, task.ChecklistID)
		if err != nil {
			return err
		}
		if cl.Status == model.StatusCompleted {
			return ferrors.FailedPreconditionError("checklist already completed").
				WithContext("checklist_id", cl.ID).Build()
		}

		if err := tx.SetTaskCompleted(ctx, taskID, completed); err != nil {
			return err
		}
		task.Completed = completed

		updated, incomplete, err := s.recomputeStatus(ctx, tx, cl)
		if err != nil {
			return err
		}

		// Recovery may have migrated the task onto the survivor; report the
		// row as it now stands.
		if updated.ID != task.ChecklistID {
			task, err = tx.GetTask(ctx, taskID)
			if err != nil {
				return err
			}
		}

		res = ToggleResult{Task: task, IncompleteCount: incomplete}
		completedEvent = completionEvent(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.IncTaskToggle()
	if completedEvent != nil {
		s.events.ChecklistCompleted(ctx, *completedEvent)
	}
	return &res, nil
}

// SaveProgress applies a list of task updates to a checklist atomically and
// recomputes its status. Entries referencing unknown tasks, or tasks owned
// by another checklist, are skipped silently; this leniency lets staff
// devices replay partial or overlapping state without failing the batch.
func (s *Service) SaveProgress(ctx context.Context, checklistID string, updates []TaskUpdate) (*SaveResult, error) {
	if checklistID == "" {
		return nil, ferrors.ValidationError("checklist_id is required").Build()
	}

	var res SaveResult
	var completedEvent *events.ChecklistEvent
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		cl, err := tx.GetChecklist(ctx, checklistID)
		if errors.Is(err, store.ErrNotFound) {
			return ferrors.NotFoundError("checklist not found").WithContext("checklist_id", checklistID).Build()
		}
		if err != nil {
			return err
		}
		if cl.Status == model.StatusCompleted {
			return ferrors.FailedPreconditionError("checklist already completed").
				WithContext("checklist_id", cl.ID).Build()
		}

		for _, u := range updates {
			if u.ID == "" {
				res.Skipped++
				continue
			}
			task, err := tx.GetTask(ctx, u.ID)
			if errors.Is(err, store.ErrNotFound) {
				res.Skipped++
				continue
			}
			if err != nil {
				return err
			}
			if task.ChecklistID != checklistID {
				res.Skipped++
				continue
			}
			if err := tx.SetTaskCompleted(ctx, u.ID, u.Completed); err != nil {
				return err
			}
			res.Applied++
		}

		updated, incomplete, err := s.recomputeStatus(ctx, tx, cl)
		if err != nil {
			return err
		}
		res.IncompleteCount = incomplete
		completedEvent = completionEvent(updated)
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.recorder.IncBulkSave(res.Applied, res.Skipped)
	if res.Skipped > 0 {
		slog.Debug("bulk save skipped entries",
			logfields.ChecklistID(checklistID),
			slog.Int("applied", res.Applied),
			slog.Int("skipped", res.Skipped))
	}
	if completedEvent != nil {
		s.events.ChecklistCompleted(ctx, *completedEvent)
	}
	return &res, nil
}

// recomputeStatus counts the checklist's open tasks after the caller's
// writes and stores the derived status. When the status write
// trips the duplicate-active guard, recovery runs once and the transition is
// re-applied to the survivor; the returned checklist is then the survivor.
func (s *Service) recomputeStatus(ctx context.Context, tx *store.Tx, cl *model.Checklist) (*model.Checklist, int, error) {
	total, incomplete, err := tx.TaskCounts(ctx, cl.ID)
	if err != nil {
		return nil, 0, err
	}

	status, completedAt, write := deriveStatus(cl, total, incomplete, recoverModeMutation)
	if !write {
		return cl, incomplete, nil
	}

	err = tx.UpdateChecklistStatus(ctx, cl.ID, status, completedAt)
	if errors.Is(err, store.ErrDuplicateActive) {
		res, rerr := s.recoverUnitTx(ctx, tx, cl.UnitID, recoverModeMutation)
		if rerr != nil {
			s.recorder.IncRecovery(false)
			// Recovery is attempted exactly once; surface the original
			// conflict, not a new error, to preserve diagnostic context.
			return nil, 0, ferrors.WrapError(err, ferrors.CategoryInternal, "conflict recovery failed").
				WithContext("unit_id", cl.UnitID).
				WithContext("checklist_id", cl.ID).Build()
		}
		s.recorder.IncRecovery(true)
		return res.Survivor, res.Incomplete, nil
	}
	if err != nil {
		return nil, 0, err
	}

	cl.Status = status
	cl.CompletedAt = completedAt
	return cl, incomplete, nil
}

// completionEvent returns a checklist.completed event when the mutation just
// drove the checklist into the completed state. Mutation paths reject
// already-completed checklists up front, so reaching completed here always
// means the transition happened now.
func completionEvent(after *model.Checklist) *events.ChecklistEvent {
	if after == nil || after.Status != model.StatusCompleted {
		return nil
	}
	occurred := after.UpdatedAt
	if after.CompletedAt != nil {
		occurred = *after.CompletedAt
	}
	return &events.ChecklistEvent{
		ChecklistID: after.ID,
		UnitID:      after.UnitID,
		Status:      string(after.Status),
		OccurredAt:  occurred,
	}
}
