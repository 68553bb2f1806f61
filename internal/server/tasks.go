package server

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/repositories"
)

const tasksPath = "/api/tasks"

// taskBody is the request body of task create and update.
type taskBody struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
	ContactID   string `json:"contactId"`
}

// task converts the body, accepting RFC 3339 timestamps or plain dates for dueDate.
func (b taskBody) task() (models.Task, error) {
	t := models.Task{Title: b.Title, Description: b.Description, Status: b.Status, ContactID: b.ContactID}
	if b.DueDate == "" {
		return t, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if due, err := time.Parse(layout, b.DueDate); err == nil {
			t.DueDate = due
			return t, nil
		}
	}
	return t, &models.FieldError{Field: "dueDate", Message: fmt.Sprintf("invalid date %q", b.DueDate)}
}

// TaskHandler serves the tasks collection; single tasks live under /api/tasks/{id}.
type TaskHandler struct {
	repo *repositories.TaskRepository
}

// NewTaskHandler creates a handler over repo.
func NewTaskHandler(repo *repositories.TaskRepository) *TaskHandler {
	return &TaskHandler{repo: repo}
}

func (h *TaskHandler) Routes() []string {
	return []string{
		"GET " + tasksPath,
		"POST " + tasksPath,
		"GET " + tasksPath + "/search",
		"GET " + tasksPath + "/{id}",
		"PUT " + tasksPath + "/{id}",
		"PATCH " + tasksPath + "/{id}",
		"DELETE " + tasksPath + "/{id}",
	}
}

func (h *TaskHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	switch r.Pattern {
	case "GET " + tasksPath:
		h.list(w, r, false)
	case "GET " + tasksPath + "/search":
		h.list(w, r, true)
	case "POST " + tasksPath:
		h.create(w, r)
	case "GET " + tasksPath + "/{id}":
		h.get(w, id)
	case "PUT " + tasksPath + "/{id}":
		h.update(w, r, id)
	case "PATCH " + tasksPath + "/{id}":
		h.setStatus(w, r, id)
	case "DELETE " + tasksPath + "/{id}":
		h.delete(w, id)
	default:
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	}
}

func (h *TaskHandler) list(w http.ResponseWriter, r *http.Request, search bool) {
	opts, err := listOptions(r, models.TaskStatuses)
	if err != nil {
		writeError(w, err)
		return
	}
	if !search {
		opts.Query = ""
	}

	tasks, total, err := h.repo.List(opts)
	if err != nil {
		writeError(w, err)
		return
	}
	counts, err := h.repo.Counts(opts.Query)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"tasks":      tasks,
		"pagination": newPagination(total, opts),
		"counts":     counts,
	})
}

func (h *TaskHandler) get(w http.ResponseWriter, id string) {
	t, err := h.repo.Get(id)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": t})
}

func (h *TaskHandler) create(w http.ResponseWriter, r *http.Request) {
	t, ok := h.decode(w, r)
	if !ok {
		return
	}
	if err := h.repo.Create(&t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]any{"task": t})
}

func (h *TaskHandler) update(w http.ResponseWriter, r *http.Request, id string) {
	t, ok := h.decode(w, r)
	if !ok {
		return
	}
	t.ID = id
	if err := h.repo.Update(&t); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": t})
}

func (h *TaskHandler) setStatus(w http.ResponseWriter, r *http.Request, id string) {
	var body struct {
		Status string `json:"status"`
	}
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return
	}
	if body.Status == "" {
		writeError(w, &models.FieldError{Field: "status", Message: "status is required"})
		return
	}

	t, err := h.repo.SetStatus(id, body.Status)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"task": t})
}

func (h *TaskHandler) delete(w http.ResponseWriter, id string) {
	if err := h.repo.Delete(id); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) decode(w http.ResponseWriter, r *http.Request) (models.Task, bool) {
	var body taskBody
	if err := decodeBody(w, r, &body); err != nil {
		writeError(w, err)
		return models.Task{}, false
	}
	t, err := body.task()
	if err != nil {
		writeError(w, err)
		return models.Task{}, false
	}
	return t, true
}
