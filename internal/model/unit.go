package model

import "time"

// Unit is the physical property being cleaned. Units are managed by the
// upstream reservation system; this service only checks that a referenced
// unit exists.
type Unit struct {
	ID        string    `json:"id" db:"id"`
	Name      string    `json:"name" db:"name"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
