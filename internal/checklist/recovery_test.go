package checklist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/havenclean/internal/model"
)

// Recovery idempotence: one active checklist, nothing to do, nothing changes.
func TestRecoverUnitIsNoopOnConsistentState(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	view, err := svc.GetOrCreateActive(ctx, testUnitID)
	require.NoError(t, err)

	var before model.Checklist
	require.NoError(t, st.DB().Get(&before, "SELECT * FROM checklists WHERE id = ?", view.ID))

	res, err := svc.RecoverUnit(ctx, testUnitID)
	require.NoError(t, err)
	assert.Equal(t, view.ID, res.Survivor.ID)
	assert.Equal(t, 0, res.DuplicatesRemoved)
	assert.Equal(t, 0, res.TasksMigrated)
	assert.Equal(t, TemplateSize(), res.Incomplete)

	var after model.Checklist
	require.NoError(t, st.DB().Get(&after, "SELECT * FROM checklists WHERE id = ?", view.ID))
	assert.Equal(t, before.Status, after.Status)
	assert.Equal(t, before.UpdatedAt, after.UpdatedAt)
	assert.Equal(t, 1, countRows(t, st, "SELECT COUNT(*) FROM checklists WHERE unit_id = ?", testUnitID))
}

// Recovery convergence: duplicates collapse into the most recently created
// active checklist, which inherits the union of all tasks.
func TestRecoverUnitConvergesDuplicates(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedDuplicateActive(t, st, testUnitID, 3, 4)
	survivorID := ids[len(ids)-1] // newest creation wins

	res, err := svc.RecoverUnit(ctx, testUnitID)
	require.NoError(t, err)
	assert.Equal(t, survivorID, res.Survivor.ID)
	assert.Equal(t, 2, res.DuplicatesRemoved)
	assert.Equal(t, 8, res.TasksMigrated)
	assert.Equal(t, 12, res.Incomplete)

	assert.Equal(t, 1, countRows(t, st,
		"SELECT COUNT(*) FROM checklists WHERE unit_id = ? AND status != 'completed'", testUnitID))
	assert.Equal(t, 12, countRows(t, st,
		"SELECT COUNT(*) FROM tasks WHERE checklist_id = ?", survivorID))
	assert.Equal(t, 12, countRows(t, st, "SELECT COUNT(*) FROM tasks"))
}

// A second round after convergence is a pure no-op.
func TestRecoverUnitSecondRoundIsNoop(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedDuplicateActive(t, st, testUnitID, 2, 3)

	first, err := svc.RecoverUnit(ctx, testUnitID)
	require.NoError(t, err)
	require.Equal(t, 1, first.DuplicatesRemoved)

	second, err := svc.RecoverUnit(ctx, testUnitID)
	require.NoError(t, err)
	assert.Equal(t, first.Survivor.ID, second.Survivor.ID)
	assert.Equal(t, 0, second.DuplicatesRemoved)
	assert.Equal(t, 0, second.TasksMigrated)
	assert.Equal(t, 1, countRows(t, st, "SELECT COUNT(*) FROM checklists WHERE unit_id = ?", testUnitID))
}

// When the merged task set is fully complete, recovery finishes the
// survivor.
func TestRecoverUnitCompletesFullyDoneSurvivor(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedDuplicateActive(t, st, testUnitID, 2, 2)
	_, err := st.DB().Exec("UPDATE tasks SET completed = 1")
	require.NoError(t, err)

	res, err := svc.RecoverUnit(ctx, testUnitID)
	require.NoError(t, err)
	assert.Equal(t, 0, res.Incomplete)
	assert.Equal(t, model.StatusCompleted, res.Survivor.Status)
	require.NotNil(t, res.Survivor.CompletedAt)
}

// A task toggle whose status write trips the duplicate-active guard heals
// the unit in the same transaction and still applies the caller's intent.
func TestMutationPathRunsRecoveryOnConflict(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	ids := seedDuplicateActive(t, st, testUnitID, 2, 3)
	oldest := ids[0]
	survivorID := ids[1]

	// Pick a task owned by the checklist that will lose the merge.
	var taskID string
	require.NoError(t, st.DB().Get(&taskID,
		"SELECT id FROM tasks WHERE checklist_id = ? LIMIT 1", oldest))

	res, err := svc.SetTaskCompletion(ctx, taskID, true)
	require.NoError(t, err)
	assert.True(t, res.Task.Completed)
	// The toggled task survived the merge and now belongs to the survivor.
	assert.Equal(t, survivorID, res.Task.ChecklistID)
	assert.Equal(t, 5, res.IncompleteCount)

	assert.Equal(t, 1, countRows(t, st,
		"SELECT COUNT(*) FROM checklists WHERE unit_id = ?", testUnitID))
	assert.Equal(t, 6, countRows(t, st,
		"SELECT COUNT(*) FROM tasks WHERE checklist_id = ?", survivorID))

	var status string
	require.NoError(t, st.DB().Get(&status, "SELECT status FROM checklists WHERE id = ?", survivorID))
	assert.Equal(t, string(model.StatusInProgress), status)
}

func TestAuditUnitsRepairsEveryViolation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	seedUnit(t, st, "unit-202", "Harbor Haven 202")
	seedUnit(t, st, "unit-303", "Harbor Haven 303")
	seedDuplicateActive(t, st, testUnitID, 2, 2)
	seedDuplicateActive(t, st, "unit-202", 3, 1)

	// unit-303 is healthy and must not appear in the results.
	_, err := svc.GetOrCreateActive(ctx, "unit-303")
	require.NoError(t, err)

	results, err := svc.AuditUnits(ctx)
	require.NoError(t, err)
	require.Len(t, results, 2)

	assert.Equal(t, 0, countRows(t, st, `
		SELECT COUNT(*) FROM (
			SELECT unit_id FROM checklists
			WHERE status != 'completed'
			GROUP BY unit_id HAVING COUNT(*) > 1
		)`))
}

func TestAuditUnitsNoopOnHealthyDatabase(t *testing.T) {
	svc, _ := newTestService(t)

	results, err := svc.AuditUnits(context.Background())
	require.NoError(t, err)
	assert.Empty(t, results)
}
