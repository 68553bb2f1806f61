package repositories

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
)

const (
	taskColumns = `t.id, t.title, t.description, t.status, t.due_date, t.contact_id, t.created_at, t.updated_at,
		c.first_name, c.last_name, c.company`
	taskFrom = `tasks t JOIN contacts c ON c.id = t.contact_id`
)

var taskSorts = map[models.SortField]string{
	models.SortCreatedAt: "t.created_at",
	models.SortUpdatedAt: "t.updated_at",
	models.SortDueDate:   "t.due_date",
	models.SortName:      "LOWER(t.title)",
}

// TaskRepository persists [models.Task] rows and joins the owning contact's summary on read.
type TaskRepository struct {
	db *sql.DB
}

// NewTaskRepository creates a new TaskRepository with the given database connection
func NewTaskRepository(db *sql.DB) *TaskRepository {
	return &TaskRepository{db: db}
}

// Create validates t, checks that its contact exists, and inserts it.
func (r *TaskRepository) Create(t *models.Task) error {
	if t.Status == "" {
		t.Status = models.TaskPending
	}
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if err := r.contactExists(t.ContactID); err != nil {
		return err
	}

	sequence, err := NextSequence(r.db, "tasks")
	if err != nil {
		return fmt.Errorf("failed to generate sequence: %w", err)
	}

	now := time.Now().UTC()
	id := shared.GenerateID()

	query := `
		INSERT INTO tasks (id, sequence, title, description, status, due_date, contact_id, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
	`

	_, err = r.db.Exec(query, id, sequence, t.Title, t.Description, t.Status, t.DueDate.UTC(), t.ContactID, now, now)
	if err != nil {
		return fmt.Errorf("failed to insert task: %w", err)
	}

	stored, err := r.Get(id)
	if err != nil {
		return err
	}
	*t = stored
	return nil
}

// Get retrieves a task by ID with its contact summary.
func (r *TaskRepository) Get(id string) (models.Task, error) {
	row := r.db.QueryRow("SELECT "+taskColumns+" FROM "+taskFrom+" WHERE t.id = ?", id)
	t, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Task{}, fmt.Errorf("%w: %s", shared.ErrTaskNotFound, id)
	}
	return t, err
}

// Update writes every editable field of t.
func (r *TaskRepository) Update(t *models.Task) error {
	if err := t.Validate(); err != nil {
		return fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}
	if err := r.contactExists(t.ContactID); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, due_date = ?, contact_id = ?, updated_at = ?
		WHERE id = ?
	`

	result, err := r.db.Exec(query, t.Title, t.Description, t.Status, t.DueDate.UTC(), t.ContactID, time.Now().UTC(), t.ID)
	if err != nil {
		return fmt.Errorf("failed to update task: %w", err)
	}
	if err := requireRow(result, shared.ErrTaskNotFound, t.ID); err != nil {
		return err
	}

	stored, err := r.Get(t.ID)
	if err != nil {
		return err
	}
	*t = stored
	return nil
}

// SetStatus changes only the status of the task with the given id.
func (r *TaskRepository) SetStatus(id, status string) (models.Task, error) {
	if !models.ValidStatus(models.TaskStatuses, status) {
		return models.Task{}, fmt.Errorf("%w: %q", shared.ErrNoSuchStatus, status)
	}

	result, err := r.db.Exec("UPDATE tasks SET status = ?, updated_at = ? WHERE id = ?", status, time.Now().UTC(), id)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task status: %w", err)
	}
	if err := requireRow(result, shared.ErrTaskNotFound, id); err != nil {
		return models.Task{}, err
	}
	return r.Get(id)
}

// Delete removes a task by ID
func (r *TaskRepository) Delete(id string) error {
	result, err := r.db.Exec("DELETE FROM tasks WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return requireRow(result, shared.ErrTaskNotFound, id)
}

// List returns one page of tasks and the total matching row count.
func (r *TaskRepository) List(opts ListOptions) ([]models.Task, int, error) {
	opts = opts.Normalize()
	f := r.filter(opts)

	var total int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM "+taskFrom+f.where(), f.args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count tasks: %w", err)
	}

	query := "SELECT " + taskColumns + " FROM " + taskFrom + f.where() +
		orderBy(taskSorts, "t.created_at", opts, "t.sequence") + " LIMIT ? OFFSET ?"

	rows, err := r.db.Query(query, append(f.args, opts.Limit, opts.offset())...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to query tasks: %w", err)
	}
	defer rows.Close()

	tasks := []models.Task{}
	for rows.Next() {
		t, err := scanTask(rows)
		if err != nil {
			return nil, 0, err
		}
		tasks = append(tasks, t)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("error iterating tasks: %w", err)
	}
	return tasks, total, nil
}

// Counts returns per-status totals of tasks matching the text query, ignoring any status filter.
func (r *TaskRepository) Counts(query string) (map[string]int, error) {
	return countByStatus(r.db, taskFrom, r.filter(ListOptions{Query: query}))
}

func (r *TaskRepository) filter(opts ListOptions) filter {
	var f filter
	if opts.Status != "" {
		f.add("t.status = ?", opts.Status)
	}
	f.search(opts.Query, "t.title", "t.description")
	return f
}

func (r *TaskRepository) contactExists(id string) error {
	var n int
	if err := r.db.QueryRow("SELECT COUNT(*) FROM contacts WHERE id = ?", id).Scan(&n); err != nil {
		return fmt.Errorf("failed to look up contact: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: %s", shared.ErrContactNotFound, id)
	}
	return nil
}

func scanTask(s scanner) (models.Task, error) {
	var t models.Task
	tc := &models.TaskContact{}
	err := s.Scan(&t.ID, &t.Title, &t.Description, &t.Status, &t.DueDate, &t.ContactID, &t.CreatedAt, &t.UpdatedAt,
		&tc.FirstName, &tc.LastName, &tc.Company)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return t, err
		}
		return t, fmt.Errorf("failed to scan task: %w", err)
	}
	tc.ID = t.ContactID
	t.Contact = tc
	return t, nil
}
