package checklist

import (
	"time"

	"git.home.luguber.info/inful/havenclean/internal/model"
)

// TaskView is the wire shape of a single task inside a checklist view. The
// task text is serialized under "task" for compatibility with existing
// staff-device clients.
type TaskView struct {
	ID        string `json:"id"`
	Task      string `json:"task"`
	Completed bool   `json:"completed"`
}

// CategoryGroup groups a checklist's tasks under one template category.
type CategoryGroup struct {
	Category string     `json:"category"`
	Tasks    []TaskView `json:"tasks"`
}

// View is the checklist header plus its tasks grouped by category, in
// template order.
type View struct {
	ID          string                `json:"id"`
	UnitID      string                `json:"unit_id"`
	Status      model.ChecklistStatus `json:"status"`
	CompletedAt *time.Time            `json:"completed_at"`
	Categories  []CategoryGroup       `json:"categories"`
}

// buildView assembles a View from a checklist and its tasks. Tasks must be
// ordered by display_order; categories appear in first-seen order, which for
// template-seeded checklists is template order. Tasks merged in by recovery
// keep their original ordering and fold into their category's group.
func buildView(c *model.Checklist, tasks []model.Task) *View {
	v := &View{
		ID:          c.ID,
		UnitID:      c.UnitID,
		Status:      c.Status,
		CompletedAt: c.CompletedAt,
		Categories:  []CategoryGroup{},
	}

	index := map[string]int{}
	for _, task := range tasks {
		i, ok := index[task.Category]
		if !ok {
			i = len(v.Categories)
			index[task.Category] = i
			v.Categories = append(v.Categories, CategoryGroup{Category: task.Category})
		}
		v.Categories[i].Tasks = append(v.Categories[i].Tasks, TaskView{
			ID:        task.ID,
			Task:      task.Description,
			Completed: task.Completed,
		})
	}
	return v
}
