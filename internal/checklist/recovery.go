package checklist

import (
	"context"
	"log/slog"
	"time"

	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/logfields"
	"git.home.luguber.info/inful/havenclean/internal/model"
	"git.home.luguber.info/inful/havenclean/internal/store"
)

// recoverMode controls how recovery re-derives the survivor's status.
type recoverMode int

const (
	// recoverModeAudit is used by the sweeper and the audit command: status
	// is corrected only when it contradicts the task set, so a pristine
	// pending checklist stays pending.
	recoverModeAudit recoverMode = iota
	// recoverModeMutation is used when a task mutation is in flight: any
	// remaining open task forces in_progress, matching the recomputation rule.
	recoverModeMutation
)

// RecoveryResult describes one round of conflict recovery for a unit.
type RecoveryResult struct {
	Survivor          *model.Checklist
	DuplicatesRemoved int
	TasksMigrated     int
	Incomplete        int
}

// RecoverUnit runs one round of the conflict recovery routine for a unit in
// its own transaction. Running it against an already-consistent unit is a
// no-op: nothing migrates, nothing is deleted, status stays put.
func (s *Service) RecoverUnit(ctx context.Context, unitID string) (*RecoveryResult, error) {
	if unitID == "" {
		return nil, ferrors.ValidationError("unit_id is required").Build()
	}
	var res *RecoveryResult
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		var rerr error
		res, rerr = s.recoverUnitTx(ctx, tx, unitID, recoverModeAudit)
		return rerr
	})
	if err != nil {
		s.recorder.IncRecovery(false)
		return nil, err
	}
	s.recorder.IncRecovery(true)
	return res, nil
}

// recoverUnitTx is the compensating transaction for invariant violations:
// designate the most recently created active checklist as survivor, migrate
// every other active checklist's tasks onto it, delete those losers, then
// recompute the survivor's status from the merged task set. It runs inside
// the caller's transaction and is attempted exactly once per failure; any
// error propagates so the caller can re-raise the original conflict.
func (s *Service) recoverUnitTx(ctx context.Context, tx *store.Tx, unitID string, mode recoverMode) (*RecoveryResult, error) {
	actives, err := tx.ActiveChecklists(ctx, unitID)
	if err != nil {
		return nil, err
	}
	if len(actives) == 0 {
		return nil, ferrors.InternalError("no active checklist to recover").
			WithContext("unit_id", unitID).Build()
	}

	survivor := &actives[0]
	res := &RecoveryResult{Survivor: survivor}

	for i := 1; i < len(actives); i++ {
		loser := actives[i]
		moved, err := tx.MigrateTasks(ctx, loser.ID, survivor.ID)
		if err != nil {
			return nil, err
		}
		res.TasksMigrated += moved
		if err := tx.DeleteChecklist(ctx, loser.ID); err != nil {
			return nil, err
		}
		res.DuplicatesRemoved++
	}

	total, incomplete, err := tx.TaskCounts(ctx, survivor.ID)
	if err != nil {
		return nil, err
	}
	res.Incomplete = incomplete

	status, completedAt, write := deriveStatus(survivor, total, incomplete, mode)
	if write {
		if err := tx.UpdateChecklistStatus(ctx, survivor.ID, status, completedAt); err != nil {
			return nil, err
		}
		survivor.Status = status
		survivor.CompletedAt = completedAt
	}

	if res.DuplicatesRemoved > 0 {
		slog.Warn("recovered duplicate active checklists",
			logfields.UnitID(unitID),
			logfields.ChecklistID(survivor.ID),
			slog.Int("duplicates_removed", res.DuplicatesRemoved),
			slog.Int("tasks_migrated", res.TasksMigrated),
			logfields.Status(string(survivor.Status)))
	}
	return res, nil
}

// deriveStatus derives a checklist's status from its task counts.
// The returned write flag is false when the current row already satisfies
// the derived state.
func deriveStatus(c *model.Checklist, total, incomplete int, mode recoverMode) (model.ChecklistStatus, *time.Time, bool) {
	// A checklist can only complete if it has tasks at all.
	if total > 0 && incomplete == 0 {
		if c.Status == model.StatusCompleted {
			return c.Status, c.CompletedAt, false
		}
		now := time.Now().UTC()
		return model.StatusCompleted, &now, true
	}

	if mode == recoverModeMutation {
		// After any task mutation an unfinished checklist is in_progress,
		// even if every task was just unchecked. Idempotent when already set.
		return model.StatusInProgress, nil, true
	}

	// Audit mode: only repair contradictions. A checklist with completed
	// tasks cannot be pending; one with none keeps whatever it had.
	if total-incomplete > 0 && c.Status != model.StatusInProgress {
		return model.StatusInProgress, nil, true
	}
	return c.Status, c.CompletedAt, false
}

// AuditUnits scans for units violating the one-active-checklist invariant
// and runs recovery for each. It backs the consistency sweeper and the audit
// CLI command; on a healthy database it finds nothing and changes nothing.
func (s *Service) AuditUnits(ctx context.Context) ([]RecoveryResult, error) {
	var results []RecoveryResult
	err := s.store.InTx(ctx, func(tx *store.Tx) error {
		unitIDs, err := tx.UnitsWithDuplicateActive(ctx)
		if err != nil {
			return err
		}
		for _, unitID := range unitIDs {
			res, err := s.recoverUnitTx(ctx, tx, unitID, recoverModeAudit)
			if err != nil {
				s.recorder.IncRecovery(false)
				return err
			}
			s.recorder.IncRecovery(true)
			results = append(results, *res)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return results, nil
}
