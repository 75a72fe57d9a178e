// Package logfields centralizes canonical slog field names so log keys do not
// drift across packages.
package logfields

import "log/slog"

// Canonical log field name constants.
const (
	KeyUnitID      = "unit_id"
	KeyChecklistID = "checklist_id"
	KeyTaskID      = "task_id"
	KeyOp          = "operation"
	KeyStatus      = "status"
	KeyCount       = "count"
	KeyDurationMS  = "duration_ms"
	KeyError       = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func UnitID(id string) slog.Attr       { return slog.String(KeyUnitID, id) }
func ChecklistID(id string) slog.Attr  { return slog.String(KeyChecklistID, id) }
func TaskID(id string) slog.Attr       { return slog.String(KeyTaskID, id) }
func Op(name string) slog.Attr         { return slog.String(KeyOp, name) }
func Status(s string) slog.Attr        { return slog.String(KeyStatus, s) }
func Count(n int) slog.Attr            { return slog.Int(KeyCount, n) }
func DurationMS(ms float64) slog.Attr  { return slog.Float64(KeyDurationMS, ms) }

func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
