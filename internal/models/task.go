package models

import (
	"fmt"
	"strings"
	"time"
)

// Task statuses
const (
	TaskPending    = "PENDING"
	TaskInProgress = "IN_PROGRESS"
	TaskCompleted  = "COMPLETED"
	TaskCancelled  = "CANCELLED"
)

// TaskStatuses lists valid task statuses in display order.
var TaskStatuses = []string{TaskPending, TaskInProgress, TaskCompleted, TaskCancelled}

var _ Record = Task{}

// TaskContact is the contact summary embedded in task responses.
type TaskContact struct {
	ID        string `json:"id"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Company   string `json:"company,omitempty"`
}

// Task is a follow-up item attached to a contact.
type Task struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Description string       `json:"description"`
	Status      string       `json:"status"`
	DueDate     time.Time    `json:"dueDate"`
	ContactID   string       `json:"contactId"`
	UserID      string       `json:"userId,omitempty"`
	CreatedAt   time.Time    `json:"createdAt"`
	UpdatedAt   time.Time    `json:"updatedAt"`
	Contact     *TaskContact `json:"contact,omitempty"`
}

// ContactName is the attached contact's full name, if the server embedded it.
func (t Task) ContactName() string {
	if t.Contact == nil {
		return ""
	}
	return strings.TrimSpace(t.Contact.FirstName + " " + t.Contact.LastName)
}

func (t Task) Key() string   { return t.ID }
func (t Task) State() string { return t.Status }
func (t Task) Label() string { return t.Title }

func (t Task) Group() string {
	if t.Contact == nil {
		return ""
	}
	return t.Contact.Company
}

func (t Task) TextFields() []string {
	return []string{t.Title, t.Description, t.ContactName(), t.Group()}
}

func (t Task) SortValue(f SortField) string {
	switch f {
	case SortDueDate:
		return formatTime(t.DueDate)
	case SortUpdatedAt:
		return formatTime(t.UpdatedAt)
	case SortName:
		return strings.ToLower(t.Title)
	default:
		return formatTime(t.CreatedAt)
	}
}

func (t Task) WithState(status string) Record {
	t.Status = status
	return t
}

// Validate mirrors the server-side task schema.
func (t Task) Validate() error {
	if title := strings.TrimSpace(t.Title); title == "" || len(title) > 100 {
		return invalid("title", "title must be 1-100 characters")
	}
	if desc := strings.TrimSpace(t.Description); desc == "" || len(desc) > 500 {
		return invalid("description", "description must be 1-500 characters")
	}
	if !ValidStatus(TaskStatuses, t.Status) {
		return invalid("status", fmt.Sprintf("invalid task status %q", t.Status))
	}
	if t.DueDate.IsZero() {
		return invalid("dueDate", "due date is required")
	}
	if t.ContactID == "" {
		return invalid("contactId", "contact is required")
	}
	return nil
}

func (t Task) Columns() []string {
	return []string{"ID", "Title", "Status", "Due", "Contact", "Company"}
}

func (t Task) Row() []string {
	due := ""
	if !t.DueDate.IsZero() {
		due = t.DueDate.Format("2006-01-02")
	}
	return []string{t.ID, t.Title, t.Status, due, t.ContactName(), t.Group()}
}
