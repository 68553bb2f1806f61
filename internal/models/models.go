package models

import (
	"fmt"
	"math"
	"strings"
	"time"
)

// Record is the engine's view of a synchronized entity.
type Record interface {
	Key() string                // Key returns the server-assigned identifier
	State() string              // State returns the status facet value
	Group() string              // Group returns the secondary facet value (e.g. company)
	Label() string              // Label returns a human-readable name for notifications
	TextFields() []string       // TextFields returns the fields matched by local search
	SortValue(SortField) string // SortValue returns a comparable string for the given field
	WithState(string) Record    // WithState returns a copy with the status replaced
}

// Tabular is implemented by records that can be exported as table rows.
type Tabular interface {
	Columns() []string
	Row() []string
}

// SortField names a sortable record attribute.
type SortField string

const (
	SortCreatedAt SortField = "createdAt"
	SortUpdatedAt SortField = "updatedAt"
	SortDueDate   SortField = "dueDate"
	SortName      SortField = "name"
)

// ParseSortField validates s against the known sort fields.
func ParseSortField(s string) (SortField, error) {
	switch f := SortField(s); f {
	case SortCreatedAt, SortUpdatedAt, SortDueDate, SortName:
		return f, nil
	default:
		return "", fmt.Errorf("unknown sort field %q", s)
	}
}

// SortOrder is either ascending or descending.
type SortOrder string

const (
	Asc  SortOrder = "asc"
	Desc SortOrder = "desc"
)

// Flip returns the opposite order.
func (o SortOrder) Flip() SortOrder {
	if o == Asc {
		return Desc
	}
	return Asc
}

// ParseSortOrder accepts "asc" or "desc" in any case.
func ParseSortOrder(s string) (SortOrder, error) {
	switch SortOrder(strings.ToLower(s)) {
	case Asc:
		return Asc, nil
	case Desc:
		return Desc, nil
	default:
		return "", fmt.Errorf("unknown sort order %q", s)
	}
}

// Pagination is normalized page metadata.
type Pagination struct {
	Total       int `json:"total"`
	PageCount   int `json:"pages"`
	CurrentPage int `json:"page"`
	PageSize    int `json:"limit"`
}

// NewPagination computes page metadata for total items split into pages of size.
func NewPagination(total, page, size int) Pagination {
	if size <= 0 {
		size = 1
	}
	return Pagination{
		Total:       total,
		PageCount:   int(math.Ceil(float64(total) / float64(size))),
		CurrentPage: page,
		PageSize:    size,
	}
}

// Page is one fetched page of records.
type Page struct {
	Items      []Record
	Pagination Pagination
	Counts     map[string]int // per-status totals, TOTAL included when provided
}

// CountsTotalKey is the key servers use for the all-statuses count.
const CountsTotalKey = "TOTAL"

func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(sortableTime)
}

// sortableTime is fixed width so that formatted values compare lexicographically.
const sortableTime = "2006-01-02T15:04:05.000000000Z"
