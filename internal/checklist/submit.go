package checklist

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"git.home.luguber.info/inful/havenclean/internal/events"
	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/logfields"
	"git.home.luguber.info/inful/havenclean/internal/model"
	"git.home.luguber.info/inful/havenclean/internal/store"
)

// IncompleteCountKey is the error-context key carrying the number of open
// tasks that blocked a submission.
const IncompleteCountKey = "incomplete_count"

// Submit finalizes a checklist. It is rejected with a failed-precondition
// error carrying the live incomplete count while any task is open. On
// success the checklist becomes completed and immutable; a new cleaning
// cycle goes through provisioning again. Submitting an already-completed
// checklist is a no-op returning the record.
func (s *Service) Submit(ctx context.Context, checklistID string) (*model.Checklist, error) {
	if checklistID == "" {
		return nil, ferrors.ValidationError("checklist_id is required").Build()
	}

	var result *model.Checklist
	var alreadyCompleted bool
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		cl, err := tx.GetChecklist(ctx, checklistID)
		if errors.Is(err, store.ErrNotFound) {
			return ferrors.NotFoundError("checklist not found").WithContext("checklist_id", checklistID).Build()
		}
		if err != nil {
			return err
		}

		if cl.Status == model.StatusCompleted {
			alreadyCompleted = true
			result = cl
			return nil
		}

		total, incomplete, err := tx.TaskCounts(ctx, cl.ID)
		if err != nil {
			return err
		}
		if total == 0 {
			return ferrors.FailedPreconditionError("checklist has no tasks").
				WithContext("checklist_id", cl.ID).Build()
		}
		if incomplete > 0 {
			return ferrors.FailedPreconditionError("checklist has incomplete tasks").
				WithContext("checklist_id", cl.ID).
				WithContext(IncompleteCountKey, incomplete).Build()
		}

		now := time.Now().UTC()
		if err := tx.UpdateChecklistStatus(ctx, cl.ID, model.StatusCompleted, &now); err != nil {
			return err
		}
		cl.Status = model.StatusCompleted
		cl.CompletedAt = &now
		cl.UpdatedAt = now
		result = cl
		return nil
	})
	if err != nil {
		s.recorder.IncSubmission(false)
		return nil, err
	}

	s.recorder.IncSubmission(true)
	if !alreadyCompleted {
		slog.Info("checklist submitted",
			logfields.ChecklistID(result.ID),
			logfields.UnitID(result.UnitID))
		s.events.ChecklistCompleted(ctx, events.ChecklistEvent{
			ChecklistID: result.ID,
			UnitID:      result.UnitID,
			Status:      string(result.Status),
			OccurredAt:  *result.CompletedAt,
		})
	}
	return result, nil
}
