package checklist

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/havenclean/internal/model"
)

func TestGetOrCreateActiveUnknownUnit(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetOrCreateActive(context.Background(), "no-such-unit")
	require.Error(t, err)
	assert.True(t, isNotFoundErr(err))
}

func TestGetOrCreateActiveValidatesUnitID(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.GetOrCreateActive(context.Background(), "")
	require.Error(t, err)
	assert.True(t, isValidationErr(err))
}

// Seed correctness: one task per template entry, template order, all open,
// status pending.
func TestGetOrCreateActiveSeedsFromTemplate(t *testing.T) {
	svc, st := newTestService(t)

	view, err := svc.GetOrCreateActive(context.Background(), testUnitID)
	require.NoError(t, err)
	require.NotNil(t, view)

	assert.Equal(t, testUnitID, view.UnitID)
	assert.Equal(t, model.StatusPending, view.Status)
	assert.Nil(t, view.CompletedAt)
	require.Len(t, view.Categories, 5)

	i := 0
	for _, group := range view.Categories {
		require.Len(t, group.Tasks, 5)
		for _, task := range group.Tasks {
			assert.Equal(t, cleaningTemplate[i].Category, group.Category)
			assert.Equal(t, cleaningTemplate[i].Task, task.Task)
			assert.False(t, task.Completed)
			i++
		}
	}
	assert.Equal(t, TemplateSize(), i)

	// display_order is 1..N in template order.
	orders := []int{}
	require.NoError(t, st.DB().Select(&orders,
		"SELECT display_order FROM tasks WHERE checklist_id = ? ORDER BY display_order", view.ID))
	require.Len(t, orders, TemplateSize())
	for idx, o := range orders {
		assert.Equal(t, idx+1, o)
	}
}

func TestGetOrCreateActiveReturnsExistingWithoutMutation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateActive(ctx, testUnitID)
	require.NoError(t, err)

	// Touch a task, then re-read: same checklist, progress retained.
	taskID := allTaskIDs(first)[0]
	_, err = svc.SetTaskCompletion(ctx, taskID, true)
	require.NoError(t, err)

	second, err := svc.GetOrCreateActive(ctx, testUnitID)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, model.StatusInProgress, second.Status)
	assert.Equal(t, 1, countRows(t, st,
		"SELECT COUNT(*) FROM checklists WHERE unit_id = ?", testUnitID))
}

// Single creation under race: N concurrent callers observe one checklist id
// and exactly one row plus one task set exists afterwards.
func TestGetOrCreateActiveConcurrent(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	const callers = 16
	ids := make([]string, callers)
	errs := make([]error, callers)

	var wg sync.WaitGroup
	for i := 0; i < callers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			view, err := svc.GetOrCreateActive(ctx, testUnitID)
			if err != nil {
				errs[i] = err
				return
			}
			ids[i] = view.ID
		}(i)
	}
	wg.Wait()

	for i := 0; i < callers; i++ {
		require.NoError(t, errs[i], "caller %d", i)
	}
	for i := 1; i < callers; i++ {
		assert.Equal(t, ids[0], ids[i], "caller %d observed a different checklist", i)
	}

	assert.Equal(t, 1, countRows(t, st,
		"SELECT COUNT(*) FROM checklists WHERE unit_id = ?", testUnitID))
	assert.Equal(t, TemplateSize(), countRows(t, st,
		"SELECT COUNT(*) FROM tasks WHERE checklist_id = ?", ids[0]))
}

// After submission the active checklist is gone and provisioning starts a
// fresh cycle.
func TestGetOrCreateActiveAfterSubmissionStartsNewCycle(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.GetOrCreateActive(ctx, testUnitID)
	require.NoError(t, err)
	for _, id := range allTaskIDs(first) {
		_, err := svc.SetTaskCompletion(ctx, id, true)
		require.NoError(t, err)
	}
	_, err = svc.Submit(ctx, first.ID)
	require.NoError(t, err)

	second, err := svc.GetOrCreateActive(ctx, testUnitID)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)
	assert.Equal(t, model.StatusPending, second.Status)
}
