package api

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/ignite/outreach-monitor/internal/pkg/httputil"
	"github.com/ignite/outreach-monitor/internal/tasks"
)

// GetTasks returns the task list with completion state merged in.
// ?type=daily|weekly narrows it to one cadence; ?pending=true drops
// completed tasks.
//
//	GET /api/tasks
func (h *Handlers) GetTasks(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w)
	if !ok {
		return
	}
	list, err := h.taskList(r.Context(), snap)
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "")
		return
	}
	if r.URL.Query().Get("pending") == "true" {
		list = tasks.TaskList{Daily: tasks.Pending(list.Daily), Weekly: tasks.Pending(list.Weekly)}
	}

	switch tasks.Type(r.URL.Query().Get("type")) {
	case "":
		respondJSON(w, http.StatusOK, map[string]interface{}{
			"generated_at": snap.GeneratedAt,
			"daily":        list.Daily,
			"weekly":       list.Weekly,
		})
	case tasks.Daily:
		respondJSON(w, http.StatusOK, map[string]interface{}{"type": tasks.Daily, "tasks": list.Daily})
	case tasks.Weekly:
		respondJSON(w, http.StatusOK, map[string]interface{}{"type": tasks.Weekly, "tasks": list.Weekly})
	default:
		respondError(w, http.StatusBadRequest, "type must be daily or weekly")
	}
}

type completeRequest struct {
	CompletedBy string `json:"completed_by"`
}

// CompleteTask marks a task done. The body is optional.
//
//	POST /api/tasks/{taskId}/complete
func (h *Handlers) CompleteTask(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskId")
	if _, found := snap.Tasks.Find(taskID); !found {
		respondError(w, http.StatusNotFound, tasks.ErrUnknownTask.Error()+": "+taskID)
		return
	}

	var req completeRequest
	if err := decodeOptional(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid JSON: "+err.Error())
		return
	}

	c := tasks.Completion{TaskID: taskID, CompletedAt: h.now().UTC(), CompletedBy: req.CompletedBy}
	if err := h.completions.Complete(r.Context(), c); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "")
		return
	}
	h.respondTask(w, r, snap.Tasks, taskID)
}

// ReopenTask clears a task's completion.
//
//	DELETE /api/tasks/{taskId}/complete
func (h *Handlers) ReopenTask(w http.ResponseWriter, r *http.Request) {
	snap, ok := h.latest(w)
	if !ok {
		return
	}
	taskID := chi.URLParam(r, "taskId")
	if _, found := snap.Tasks.Find(taskID); !found {
		respondError(w, http.StatusNotFound, tasks.ErrUnknownTask.Error()+": "+taskID)
		return
	}
	if err := h.completions.Reopen(r.Context(), taskID); err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "")
		return
	}
	h.respondTask(w, r, snap.Tasks, taskID)
}

func (h *Handlers) respondTask(w http.ResponseWriter, r *http.Request, generated tasks.TaskList, taskID string) {
	done, err := h.completions.Completions(r.Context())
	if err != nil {
		respondSafeError(w, http.StatusInternalServerError, err, "")
		return
	}
	task, _ := tasks.ApplyCompletions(generated, done).Find(taskID)
	respondJSON(w, http.StatusOK, task)
}

// decodeOptional decodes a JSON body, treating an empty body as no input.
func decodeOptional(r *http.Request, dst any) error {
	if r.Body == nil {
		return nil
	}
	err := httputil.DecodeBody(r, dst)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}
