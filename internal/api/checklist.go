package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"git.home.luguber.info/inful/havenclean/internal/checklist"
)

// toggleRequest is the PATCH body for a single task. Completed is a pointer
// so a missing or non-boolean value is rejected instead of defaulting.
type toggleRequest struct {
	Completed *bool `json:"completed"`
}

// saveRequest is the bulk save body. Task entries are kept raw so malformed
// entries can be skipped individually instead of failing the batch.
type saveRequest struct {
	ChecklistID string            `json:"checklist_id"`
	Tasks       []json.RawMessage `json:"tasks"`
}

// saveEntry is one decoded bulk save entry.
type saveEntry struct {
	ID        *string `json:"id"`
	Completed *bool   `json:"completed"`
}

// submitRequest is the submission body.
type submitRequest struct {
	ChecklistID string `json:"checklist_id"`
}

// toggleResponse is the task toggle response payload.
type toggleResponse struct {
	Task            any `json:"task"`
	IncompleteCount int `json:"incompleteCount"`
}

// saveResponse is the bulk save response payload.
type saveResponse struct {
	Applied         int `json:"applied"`
	Skipped         int `json:"skipped"`
	IncompleteCount int `json:"incompleteCount"`
}

// handleGetChecklist returns the unit's active checklist, provisioning one
// from the template when none exists.
func (s *Server) handleGetChecklist(w http.ResponseWriter, r *http.Request) {
	unitID := r.URL.Query().Get("unit_id")
	if unitID == "" {
		s.Error(w, r, http.StatusBadRequest, "unit_id query parameter is required")
		return
	}

	view, err := s.checklists.GetOrCreateActive(r.Context(), unitID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, map[string]any{"checklist": view})
}

// handleToggleTask sets a single task's completion state.
func (s *Server) handleToggleTask(w http.ResponseWriter, r *http.Request) {
	taskID := chi.URLParam(r, "taskId")

	var req toggleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Completed == nil {
		s.Error(w, r, http.StatusBadRequest, "completed must be a boolean")
		return
	}

	res, err := s.checklists.SetTaskCompletion(r.Context(), taskID, *req.Completed)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, toggleResponse{Task: res.Task, IncompleteCount: res.IncompleteCount})
}

// handleSaveChecklist applies a batch of task updates atomically. Entries
// that do not decode to {id, completed} are dropped without failing the
// batch, matching the service's leniency toward unknown task ids.
func (s *Server) handleSaveChecklist(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	updates := make([]checklist.TaskUpdate, 0, len(req.Tasks))
	wireSkipped := 0
	for _, raw := range req.Tasks {
		var e saveEntry
		if err := json.Unmarshal(raw, &e); err != nil || e.ID == nil || e.Completed == nil {
			wireSkipped++
			continue
		}
		updates = append(updates, checklist.TaskUpdate{ID: *e.ID, Completed: *e.Completed})
	}

	res, err := s.checklists.SaveProgress(r.Context(), req.ChecklistID, updates)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, saveResponse{
		Applied:         res.Applied,
		Skipped:         res.Skipped + wireSkipped,
		IncompleteCount: res.IncompleteCount,
	})
}

// handleSubmitChecklist finalizes a checklist. A rejection carries the
// incomplete count in the data field.
func (s *Server) handleSubmitChecklist(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.Error(w, r, http.StatusBadRequest, "invalid request body")
		return
	}

	cl, err := s.checklists.Submit(r.Context(), req.ChecklistID)
	if err != nil {
		s.serviceError(w, r, err)
		return
	}
	s.Success(w, http.StatusOK, map[string]any{"checklist": cl})
}
