package model

import "time"

// ChecklistStatus enumerates the checklist state machine.
type ChecklistStatus string

const (
	// StatusPending is the state of a freshly provisioned checklist, before
	// any task has been touched.
	StatusPending ChecklistStatus = "pending"
	// StatusInProgress is the state after any task mutation while at least one
	// task remains open.
	StatusInProgress ChecklistStatus = "in_progress"
	// StatusCompleted is terminal. A completed checklist is historical; a new
	// cleaning cycle gets a fresh checklist.
	StatusCompleted ChecklistStatus = "completed"
)

// Checklist represents one cleaning cycle for a unit.
//
// At most one non-completed checklist may exist per unit at any time; the
// schema guards this at write time and the recovery routine repairs any
// violation that slips past the guard.
type Checklist struct {
	ID          string          `json:"id" db:"id"`
	UnitID      string          `json:"unit_id" db:"unit_id"`
	Status      ChecklistStatus `json:"status" db:"status"`
	CompletedAt *time.Time      `json:"completed_at,omitempty" db:"completed_at"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
}

// Active reports whether the checklist still counts against the one-active-
// checklist-per-unit invariant.
func (c *Checklist) Active() bool {
	return c.Status != StatusCompleted
}
