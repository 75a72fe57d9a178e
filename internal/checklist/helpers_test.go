package checklist

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	ferrors "git.home.luguber.info/inful/havenclean/internal/foundation/errors"
	"git.home.luguber.info/inful/havenclean/internal/model"
	"git.home.luguber.info/inful/havenclean/internal/store"
)

const testUnitID = "unit-101"

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.New(filepath.Join(t.TempDir(), "havenclean.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	seedUnit(t, st, testUnitID, "Harbor Haven 101")
	return NewService(st), st
}

func seedUnit(t *testing.T, st *store.Store, id, name string) {
	t.Helper()
	err := st.InTx(context.Background(), func(tx *store.Tx) error {
		return tx.UpsertUnit(context.Background(), model.Unit{ID: id, Name: name})
	})
	require.NoError(t, err)
}

// seedDuplicateActive reproduces legacy data that predates the invariant
// guard: n active checklists for one unit, each owning tasksEach tasks, with
// strictly increasing creation times. Returns the checklist ids oldest first.
func seedDuplicateActive(t *testing.T, st *store.Store, unitID string, n, tasksEach int) []string {
	t.Helper()
	ids := make([]string, 0, n)
	base := time.Now().UTC().Add(-time.Hour)

	err := st.SuspendGuards(func() error {
		return st.InTx(context.Background(), func(tx *store.Tx) error {
			for i := 0; i < n; i++ {
				created := base.Add(time.Duration(i) * time.Minute)
				cl := &model.Checklist{
					ID:        uuid.New().String(),
					UnitID:    unitID,
					Status:    model.StatusInProgress,
					CreatedAt: created,
					UpdatedAt: created,
				}
				if err := tx.InsertChecklist(context.Background(), cl); err != nil {
					return err
				}
				ids = append(ids, cl.ID)

				tasks := make([]model.Task, 0, tasksEach)
				for j := 0; j < tasksEach; j++ {
					tasks = append(tasks, model.Task{
						ID:           uuid.New().String(),
						ChecklistID:  cl.ID,
						Category:     "General",
						Description:  "legacy task",
						Completed:    false,
						DisplayOrder: j + 1,
						CreatedAt:    created,
						UpdatedAt:    created,
					})
				}
				if err := tx.InsertTasks(context.Background(), tasks); err != nil {
					return err
				}
			}
			return nil
		})
	})
	require.NoError(t, err)
	return ids
}

func countRows(t *testing.T, st *store.Store, query string, args ...any) int {
	t.Helper()
	var n int
	require.NoError(t, st.DB().Get(&n, query, args...))
	return n
}

func isNotFoundErr(err error) bool           { return ferrors.IsNotFound(err) }
func isValidationErr(err error) bool         { return ferrors.IsValidation(err) }
func isFailedPreconditionErr(err error) bool { return ferrors.IsFailedPrecondition(err) }

// allTaskIDs flattens a view's task ids in display order.
func allTaskIDs(v *View) []string {
	var ids []string
	for _, g := range v.Categories {
		for _, task := range g.Tasks {
			ids = append(ids, task.ID)
		}
	}
	return ids
}
