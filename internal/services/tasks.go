package services

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
)

const tasksPath = "/api/tasks"

var _ Source = (*TaskService)(nil)

// taskInput is the request body of task create and update.
type taskInput struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Status      string `json:"status"`
	DueDate     string `json:"dueDate"`
	ContactID   string `json:"contactId"`
}

func newTaskInput(t models.Task) taskInput {
	return taskInput{
		Title:       t.Title,
		Description: t.Description,
		Status:      t.Status,
		DueDate:     t.DueDate.UTC().Format(time.RFC3339),
		ContactID:   t.ContactID,
	}
}

// TaskService implements [Source] for the tasks API.
//
// Single tasks live under /api/tasks/{id}; status changes use PATCH.
type TaskService struct {
	c collection[models.Task]
}

// NewTaskService creates a tasks client on top of client.
func NewTaskService(client Doer) *TaskService {
	return &TaskService{c: collection[models.Task]{
		client:     client,
		listPath:   tasksPath,
		searchPath: tasksPath + "/search",
	}}
}

func (s *TaskService) Name() string       { return "tasks" }
func (s *TaskService) Statuses() []string { return models.TaskStatuses }

func (s *TaskService) List(ctx context.Context, p ListParams) (*models.Page, error) {
	return s.c.list(ctx, p)
}

func (s *TaskService) Search(ctx context.Context, p SearchParams) (*models.Page, error) {
	return s.c.search(ctx, p)
}

// Get fetches one task. Edit flows pass bypass so the form never shows a cached copy.
func (s *TaskService) Get(ctx context.Context, id string, bypass bool) (models.Record, error) {
	rec, ok, err := s.c.one(ctx, transport.Request{Method: http.MethodGet, Path: taskPath(id), BypassCache: bypass})
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return rec, nil
}

func (s *TaskService) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	task, err := asTask(rec)
	if err != nil {
		return nil, err
	}
	if err := task.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	created, ok, err := s.c.one(ctx, transport.Request{Method: http.MethodPost, Path: tasksPath, Body: newTaskInput(task), BypassCache: true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return task, nil
	}
	return created, nil
}

func (s *TaskService) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	task, err := asTask(rec)
	if err != nil {
		return nil, err
	}
	if task.ID == "" {
		return nil, fmt.Errorf("%w: task id", shared.ErrMissingArgument)
	}
	if err := task.Validate(); err != nil {
		return nil, invalidInput(err)
	}

	updated, ok, err := s.c.one(ctx, transport.Request{Method: http.MethodPut, Path: taskPath(task.ID), Body: newTaskInput(task), BypassCache: true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return task, nil
	}
	return updated, nil
}

func (s *TaskService) Delete(ctx context.Context, id string) error {
	_, _, err := s.c.one(ctx, transport.Request{Method: http.MethodDelete, Path: taskPath(id), BypassCache: true})
	return err
}

// SetStatus is the status-only fast path: PATCH /api/tasks/{id} with {status}.
func (s *TaskService) SetStatus(ctx context.Context, rec models.Record, status string) (models.Record, error) {
	if !models.ValidStatus(models.TaskStatuses, status) {
		return nil, fmt.Errorf("%w: %q", shared.ErrNoSuchStatus, status)
	}

	body := map[string]string{"status": status}
	updated, ok, err := s.c.one(ctx, transport.Request{Method: http.MethodPatch, Path: taskPath(rec.Key()), Body: body, BypassCache: true})
	if err != nil {
		return nil, err
	}
	if !ok {
		return rec.WithState(status), nil
	}
	return updated, nil
}

func asTask(rec models.Record) (models.Task, error) {
	switch t := rec.(type) {
	case models.Task:
		return t, nil
	case *models.Task:
		return *t, nil
	default:
		return models.Task{}, fmt.Errorf("%w: expected task, got %T", shared.ErrInvalidInput, rec)
	}
}

func taskPath(id string) string {
	return tasksPath + "/" + url.PathEscape(id)
}
