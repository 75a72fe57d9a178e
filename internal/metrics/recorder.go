// Package metrics provides observability hooks for the checklist service.
//
// Components receive a Recorder through dependency injection and default to
// NoopRecorder, so metrics can be enabled by swapping in the Prometheus
// implementation without touching call sites.
package metrics

import "time"

// Recorder defines observability hooks for checklist operations.
// Implementations must be safe for concurrent use.
type Recorder interface {
	// IncProvision counts get-or-create calls, split by whether a new
	// checklist was created or an existing one returned.
	IncProvision(created bool)
	// IncTaskToggle counts single-task completion toggles.
	IncTaskToggle()
	// IncBulkSave counts bulk saves with applied and skipped entry counts.
	IncBulkSave(applied, skipped int)
	// IncSubmission counts submissions by outcome (accepted or rejected).
	IncSubmission(accepted bool)
	// IncRecovery counts conflict recovery runs by outcome.
	IncRecovery(converged bool)
	// ObserveRequestDuration records an HTTP request duration.
	ObserveRequestDuration(method, route string, status int, d time.Duration)
}

// NoopRecorder is a Recorder that does nothing (default when metrics are not configured).
type NoopRecorder struct{}

func (NoopRecorder) IncProvision(bool)                                        {}
func (NoopRecorder) IncTaskToggle()                                           {}
func (NoopRecorder) IncBulkSave(int, int)                                     {}
func (NoopRecorder) IncSubmission(bool)                                       {}
func (NoopRecorder) IncRecovery(bool)                                         {}
func (NoopRecorder) ObserveRequestDuration(string, string, int, time.Duration) {}
