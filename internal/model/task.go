package model

import "time"

// Task is a single checklist line item. Tasks are created in a batch when
// their checklist is provisioned and only ever change their completed flag
// afterwards; ownership moves between checklists solely during conflict
// recovery.
type Task struct {
	ID           string    `json:"id" db:"id"`
	ChecklistID  string    `json:"checklist_id" db:"checklist_id"`
	Category     string    `json:"category" db:"category"`
	Description  string    `json:"description" db:"description"`
	Completed    bool      `json:"completed" db:"completed"`
	DisplayOrder int       `json:"display_order" db:"display_order"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}
