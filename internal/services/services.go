// package services defines the [Source] interface for remote record collections
//
// Contacts, Tasks
package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
)

// Source is a remote collection the list engine synchronizes against.
type Source interface {
	// Name returns the collection name (e.g. "contacts").
	Name() string

	// Statuses returns the valid status values in display order.
	Statuses() []string

	// List fetches one page of the collection, optionally filtered by status.
	List(ctx context.Context, p ListParams) (*models.Page, error)

	// Search fetches one page of records matching a free-text query.
	Search(ctx context.Context, p SearchParams) (*models.Page, error)

	// Get fetches a single record.
	Get(ctx context.Context, id string, bypass bool) (models.Record, error)

	// Create, Update and Delete are always sent with the cache bypassed.
	Create(ctx context.Context, rec models.Record) (models.Record, error)
	Update(ctx context.Context, rec models.Record) (models.Record, error)
	Delete(ctx context.Context, id string) error

	// SetStatus changes only the status of rec.
	SetStatus(ctx context.Context, rec models.Record, status string) (models.Record, error)
}

// Doer performs a transport request; [*transport.Client] implements it.
type Doer interface {
	Do(ctx context.Context, req transport.Request, out any) error
}

// ListParams are the query parameters of a list endpoint.
type ListParams struct {
	Page        int
	Limit       int
	Status      string
	SortBy      models.SortField
	Order       models.SortOrder
	BypassCache bool
}

func (p ListParams) values() url.Values {
	q := pageValues(p.Page, p.Limit, p.SortBy, p.Order)
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	return q
}

// SearchParams are the query parameters of a search endpoint.
type SearchParams struct {
	Query       string
	Page        int
	Limit       int
	Status      string
	SortBy      models.SortField
	Order       models.SortOrder
	BypassCache bool
}

func (p SearchParams) values() url.Values {
	q := pageValues(p.Page, p.Limit, p.SortBy, p.Order)
	q.Set("query", p.Query)
	if p.Status != "" {
		q.Set("status", p.Status)
	}
	return q
}

func pageValues(page, limit int, sortBy models.SortField, order models.SortOrder) url.Values {
	q := url.Values{}
	q.Set("page", strconv.Itoa(max(page, 1)))
	if limit > 0 {
		q.Set("limit", strconv.Itoa(limit))
	}
	if sortBy != "" {
		q.Set("sortBy", string(sortBy))
	}
	if order != "" {
		q.Set("order", string(order))
	}
	return q
}

// wirePagination accepts both pagination spellings used by the API.
type wirePagination struct {
	Total       int  `json:"total"`
	Pages       *int `json:"pages"`
	TotalPages  *int `json:"totalPages"`
	Page        *int `json:"page"`
	CurrentPage *int `json:"currentPage"`
	Limit       *int `json:"limit"`
	PageSize    *int `json:"pageSize"`
}

// listEnvelope is the response of list and search endpoints.
type listEnvelope[T models.Record] struct {
	Contacts   []T             `json:"contacts"`
	Tasks      []T             `json:"tasks"`
	Items      []T             `json:"items"`
	Pagination *wirePagination `json:"pagination"`
	Counts     map[string]int  `json:"counts"`
}

func (e listEnvelope[T]) items() []T {
	switch {
	case e.Items != nil:
		return e.Items
	case e.Contacts != nil:
		return e.Contacts
	default:
		return e.Tasks
	}
}

func (e listEnvelope[T]) validate() error {
	if e.Items == nil && e.Contacts == nil && e.Tasks == nil {
		return shapeError("list response has no records")
	}
	if p := e.Pagination; p != nil {
		if p.Total < 0 {
			return shapeError("negative total")
		}
		if n := firstSet(p.Page, p.CurrentPage); n != nil && *n < 1 {
			return shapeError("page must be positive")
		}
	}
	return nil
}

// page normalizes the envelope, filling missing pagination from the request.
func (e listEnvelope[T]) page(page, limit int) *models.Page {
	items := e.items()
	out := &models.Page{Items: make([]models.Record, 0, len(items)), Counts: e.Counts}
	for _, it := range items {
		out.Items = append(out.Items, it)
	}

	if e.Pagination == nil {
		if limit <= 0 {
			limit = max(len(items), 1)
		}
		out.Pagination = models.NewPagination(len(items), max(page, 1), limit)
		return out
	}

	p := e.Pagination
	size := valueOr(firstSet(p.Limit, p.PageSize), limit)
	out.Pagination = models.NewPagination(p.Total, valueOr(firstSet(p.Page, p.CurrentPage), max(page, 1)), size)
	if n := firstSet(p.Pages, p.TotalPages); n != nil {
		out.Pagination.PageCount = *n
	}
	return out
}

// itemEnvelope is the response of single-record endpoints.
type itemEnvelope[T models.Record] struct {
	Contact *T     `json:"contact"`
	Task    *T     `json:"task"`
	Item    *T     `json:"item"`
	Success *bool  `json:"success"`
	Message string `json:"message"`
}

func (e itemEnvelope[T]) record() (T, bool) {
	for _, r := range []*T{e.Item, e.Contact, e.Task} {
		if r != nil {
			return *r, true
		}
	}
	var zero T
	return zero, false
}

func shapeError(msg string) *transport.Failure {
	return &transport.Failure{Kind: transport.KindParse, Message: fmt.Sprintf("unexpected response shape: %s", msg)}
}

// invalidInput reports a local validation failure in the same shape as a rejected request.
func invalidInput(err error) error {
	f := &transport.Failure{
		Kind:    transport.KindValidation,
		Message: err.Error(),
		Err:     fmt.Errorf("%w: %w", shared.ErrInvalidInput, err),
	}
	var fe *models.FieldError
	if errors.As(err, &fe) {
		f.Fields = map[string]string{fe.Field: fe.Message}
	}
	return f
}

func firstSet(values ...*int) *int {
	for _, v := range values {
		if v != nil {
			return v
		}
	}
	return nil
}

func valueOr(v *int, fallback int) int {
	if v == nil || *v <= 0 {
		return fallback
	}
	return *v
}
