package models

import (
	"fmt"
	"strings"
	"time"
)

// Contact statuses
const (
	ContactLead     = "LEAD"
	ContactProspect = "PROSPECT"
	ContactCustomer = "CUSTOMER"
	ContactInactive = "INACTIVE"
)

// ContactStatuses lists valid contact statuses in display order.
var ContactStatuses = []string{ContactLead, ContactProspect, ContactCustomer, ContactInactive}

var _ Record = Contact{}

// Contact is a person record.
type Contact struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	Email     string    `json:"email"`
	Phone     string    `json:"phone"`
	Company   string    `json:"company"`
	Status    string    `json:"status"`
	UserID    string    `json:"userId,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Name joins first and last name.
func (c Contact) Name() string {
	return strings.TrimSpace(c.FirstName + " " + c.LastName)
}

func (c Contact) Key() string   { return c.ID }
func (c Contact) State() string { return c.Status }
func (c Contact) Group() string { return c.Company }
func (c Contact) Label() string { return c.Name() }

func (c Contact) TextFields() []string {
	return []string{c.FirstName, c.LastName, c.Name(), c.Email, c.Company, c.Phone}
}

func (c Contact) SortValue(f SortField) string {
	switch f {
	case SortName:
		return strings.ToLower(c.LastName + " " + c.FirstName)
	case SortUpdatedAt:
		return formatTime(c.UpdatedAt)
	default:
		return formatTime(c.CreatedAt)
	}
}

func (c Contact) WithState(status string) Record {
	c.Status = status
	return c
}

// Validate checks the fields the API requires on create and update.
func (c Contact) Validate() error {
	if strings.TrimSpace(c.FirstName) == "" {
		return invalid("firstName", "first name is required")
	}
	if strings.TrimSpace(c.LastName) == "" {
		return invalid("lastName", "last name is required")
	}
	if !strings.Contains(c.Email, "@") {
		return invalid("email", fmt.Sprintf("invalid email %q", c.Email))
	}
	if !ValidStatus(ContactStatuses, c.Status) {
		return invalid("status", fmt.Sprintf("invalid contact status %q", c.Status))
	}
	return nil
}

func (c Contact) Columns() []string {
	return []string{"ID", "Name", "Email", "Phone", "Company", "Status"}
}

func (c Contact) Row() []string {
	return []string{c.ID, c.Name(), c.Email, c.Phone, c.Company, c.Status}
}

// FieldError is a validation failure of a single input field.
type FieldError struct {
	Field   string
	Message string
}

func (e *FieldError) Error() string { return e.Message }

func invalid(field, msg string) error {
	return &FieldError{Field: field, Message: msg}
}

// ValidStatus reports whether status is one of allowed.
func ValidStatus(allowed []string, status string) bool {
	for _, s := range allowed {
		if s == status {
			return true
		}
	}
	return false
}
