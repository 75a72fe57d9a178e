package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/jmoiron/sqlx"

	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/model"
)

// Tx exposes row-level operations scoped to one transaction. Services compose
// these inside Store.InTx so every mutation commits atomically.
type Tx struct {
	tx *sqlx.Tx
}

// GetUnit returns the unit with the given id, or ErrNotFound.
func (t *Tx) GetUnit(ctx context.Context, id string) (*model.Unit, error) {
	var u model.Unit
	err := t.tx.GetContext(ctx, &u, "SELECT * FROM units WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ferrors.StoreError("querying unit").WithCause(err).WithContext("unit_id", id).Build()
	}
	return &u, nil
}

// UpsertUnit inserts or updates a unit row. Units normally arrive from the
// upstream reservation system; this exists for seeding and tests.
func (t *Tx) UpsertUnit(ctx context.Context, u model.Unit) error {
	now := time.Now().UTC()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = now
	}
	u.UpdatedAt = now
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO units (id, name, created_at, updated_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, updated_at = excluded.updated_at`,
		u.ID, u.Name, u.CreatedAt, u.UpdatedAt,
	)
	if err != nil {
		return ferrors.StoreError("upserting unit").WithCause(err).WithContext("unit_id", u.ID).Build()
	}
	return nil
}

// ActiveChecklist returns the most recently created non-completed checklist
// for the unit, or ErrNotFound if the unit has no active checklist.
func (t *Tx) ActiveChecklist(ctx context.Context, unitID string) (*model.Checklist, error) {
	var c model.Checklist
	err := t.tx.GetContext(ctx, &c, `
		SELECT * FROM checklists
		WHERE unit_id = ? AND status != 'completed'
		ORDER BY created_at DESC, id DESC
		LIMIT 1`, unitID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ferrors.StoreError("querying active checklist").WithCause(err).WithContext("unit_id", unitID).Build()
	}
	return &c, nil
}

// ActiveChecklists returns every non-completed checklist for the unit, most
// recently created first. A consistent unit has at most one element;
// recovery uses it to find duplicates.
func (t *Tx) ActiveChecklists(ctx context.Context, unitID string) ([]model.Checklist, error) {
	var cs []model.Checklist
	err := t.tx.SelectContext(ctx, &cs, `
		SELECT * FROM checklists
		WHERE unit_id = ? AND status != 'completed'
		ORDER BY created_at DESC, id DESC`, unitID)
	if err != nil {
		return nil, ferrors.StoreError("querying active checklists").WithCause(err).WithContext("unit_id", unitID).Build()
	}
	return cs, nil
}

// GetChecklist returns the checklist with the given id, or ErrNotFound.
func (t *Tx) GetChecklist(ctx context.Context, id string) (*model.Checklist, error) {
	var c model.Checklist
	err := t.tx.GetContext(ctx, &c, "SELECT * FROM checklists WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ferrors.StoreError("querying checklist").WithCause(err).WithContext("checklist_id", id).Build()
	}
	return &c, nil
}

// InsertChecklist inserts a checklist row. Returns ErrDuplicateActive if the
// unit already has an active checklist.
func (t *Tx) InsertChecklist(ctx context.Context, c *model.Checklist) error {
	_, err := t.tx.ExecContext(ctx, `
		INSERT INTO checklists (id, unit_id, status, completed_at, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		c.ID, c.UnitID, c.Status, c.CompletedAt, c.CreatedAt, c.UpdatedAt,
	)
	if isDuplicateActive(err) {
		return ErrDuplicateActive
	}
	if err != nil {
		return ferrors.StoreError("inserting checklist").WithCause(err).WithContext("unit_id", c.UnitID).Build()
	}
	return nil
}

// UpdateChecklistStatus writes the checklist's status and completion
// timestamp. Returns ErrDuplicateActive when the write would reactivate a
// checklist while another active one exists for the same unit; that is the
// trigger for conflict recovery.
func (t *Tx) UpdateChecklistStatus(ctx context.Context, id string, status model.ChecklistStatus, completedAt *time.Time) error {
	res, err := t.tx.ExecContext(ctx, `
		UPDATE checklists SET status = ?, completed_at = ?, updated_at = ?
		WHERE id = ?`,
		status, completedAt, time.Now().UTC(), id,
	)
	if isDuplicateActive(err) {
		return ErrDuplicateActive
	}
	if err != nil {
		return ferrors.StoreError("updating checklist status").WithCause(err).WithContext("checklist_id", id).Build()
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteChecklist removes a checklist row. Tasks still attached are removed
// by the ON DELETE CASCADE on tasks.checklist_id; recovery migrates tasks
// off a loser before deleting it.
func (t *Tx) DeleteChecklist(ctx context.Context, id string) error {
	_, err := t.tx.ExecContext(ctx, "DELETE FROM checklists WHERE id = ?", id)
	if err != nil {
		return ferrors.StoreError("deleting checklist").WithCause(err).WithContext("checklist_id", id).Build()
	}
	return nil
}

// InsertTasks inserts a batch of tasks in one statement loop.
func (t *Tx) InsertTasks(ctx context.Context, tasks []model.Task) error {
	stmt, err := t.tx.PrepareContext(ctx, `
		INSERT INTO tasks (id, checklist_id, category, description, completed, display_order, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return ferrors.StoreError("preparing task insert").WithCause(err).Build()
	}
	defer stmt.Close()

	for _, task := range tasks {
		if _, err := stmt.ExecContext(ctx,
			task.ID, task.ChecklistID, task.Category, task.Description,
			task.Completed, task.DisplayOrder, task.CreatedAt, task.UpdatedAt,
		); err != nil {
			return ferrors.StoreError("inserting task").WithCause(err).WithContext("task_id", task.ID).Build()
		}
	}
	return nil
}

// GetTask returns the task with the given id, or ErrNotFound.
func (t *Tx) GetTask(ctx context.Context, id string) (*model.Task, error) {
	var task model.Task
	err := t.tx.GetContext(ctx, &task, "SELECT * FROM tasks WHERE id = ?", id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, ferrors.StoreError("querying task").WithCause(err).WithContext("task_id", id).Build()
	}
	return &task, nil
}

// TasksByChecklist returns all tasks of a checklist in display order.
func (t *Tx) TasksByChecklist(ctx context.Context, checklistID string) ([]model.Task, error) {
	var tasks []model.Task
	err := t.tx.SelectContext(ctx, &tasks, `
		SELECT * FROM tasks WHERE checklist_id = ? ORDER BY display_order`, checklistID)
	if err != nil {
		return nil, ferrors.StoreError("querying tasks").WithCause(err).WithContext("checklist_id", checklistID).Build()
	}
	return tasks, nil
}

// SetTaskCompleted flips a task's completed flag. Returns ErrNotFound if the
// task does not exist.
func (t *Tx) SetTaskCompleted(ctx context.Context, taskID string, completed bool) error {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE tasks SET completed = ?, updated_at = ? WHERE id = ?",
		completed, time.Now().UTC(), taskID,
	)
	if err != nil {
		return ferrors.StoreError("updating task").WithCause(err).WithContext("task_id", taskID).Build()
	}
	n, err := res.RowsAffected()
	if err == nil && n == 0 {
		return ErrNotFound
	}
	return nil
}

// TaskCounts returns the total and incomplete task counts for a checklist.
// Status recomputation reads these after its own writes, inside the same
// transaction, so it never counts from a stale snapshot.
func (t *Tx) TaskCounts(ctx context.Context, checklistID string) (total, incomplete int, err error) {
	row := t.tx.QueryRowContext(ctx, `
		SELECT COUNT(*), COALESCE(SUM(CASE WHEN completed = 0 THEN 1 ELSE 0 END), 0)
		FROM tasks WHERE checklist_id = ?`, checklistID)
	if err := row.Scan(&total, &incomplete); err != nil {
		return 0, 0, ferrors.StoreError("counting tasks").WithCause(err).WithContext("checklist_id", checklistID).Build()
	}
	return total, incomplete, nil
}

// MigrateTasks reassigns every task of one checklist to another. Only the
// recovery routine calls this.
func (t *Tx) MigrateTasks(ctx context.Context, fromChecklistID, toChecklistID string) (int, error) {
	res, err := t.tx.ExecContext(ctx,
		"UPDATE tasks SET checklist_id = ?, updated_at = ? WHERE checklist_id = ?",
		toChecklistID, time.Now().UTC(), fromChecklistID,
	)
	if err != nil {
		return 0, ferrors.StoreError("migrating tasks").WithCause(err).
			WithContext("from", fromChecklistID).WithContext("to", toChecklistID).Build()
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}

// UnitsWithDuplicateActive returns the ids of units currently violating the
// one-active-checklist invariant. The consistency sweeper and the audit CLI
// command feed these into recovery.
func (t *Tx) UnitsWithDuplicateActive(ctx context.Context) ([]string, error) {
	var ids []string
	err := t.tx.SelectContext(ctx, &ids, `
		SELECT unit_id FROM checklists
		WHERE status != 'completed'
		GROUP BY unit_id
		HAVING COUNT(*) > 1`)
	if err != nil {
		return nil, ferrors.StoreError("scanning for duplicate active checklists").WithCause(err).Build()
	}
	return ids, nil
}
