package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/repositories"
	"github.com/desertthunder/crmx/internal/shared"
)

// maxBodyBytes bounds request bodies.
const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error   string                  `json:"error"`
	Details map[string]fieldMessage `json:"details,omitempty"`
}

// fieldMessage is the per-field entry of a validation error, {"_errors": [...]}.
type fieldMessage struct {
	Errors []string `json:"_errors"`
}

type pagination struct {
	Total int `json:"total"`
	Pages int `json:"pages"`
	Page  int `json:"page"`
	Limit int `json:"limit"`
}

// searchPagination is the long spelling returned by search endpoints.
type searchPagination struct {
	Total       int `json:"total"`
	TotalPages  int `json:"totalPages"`
	CurrentPage int `json:"currentPage"`
	PageSize    int `json:"pageSize"`
}

func newPagination(total int, opts repositories.ListOptions) pagination {
	p := models.NewPagination(total, opts.Page, opts.Limit)
	return pagination{Total: p.Total, Pages: p.PageCount, Page: p.CurrentPage, Limit: p.PageSize}
}

func newSearchPagination(total int, opts repositories.ListOptions) searchPagination {
	p := models.NewPagination(total, opts.Page, opts.Limit)
	return searchPagination{Total: p.Total, TotalPages: p.PageCount, CurrentPage: p.CurrentPage, PageSize: p.PageSize}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps repository and validation errors onto status codes and error bodies.
func writeError(w http.ResponseWriter, err error) {
	var fe *models.FieldError
	switch {
	case errors.As(err, &fe):
		writeJSON(w, http.StatusBadRequest, errorResponse{
			Error:   "Validation failed",
			Details: map[string]fieldMessage{fe.Field: {Errors: []string{fe.Message}}},
		})
	case errors.Is(err, shared.ErrContactNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Contact not found"})
	case errors.Is(err, shared.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Task not found"})
	case errors.Is(err, shared.ErrInvalidInput),
		errors.Is(err, shared.ErrInvalidArgument),
		errors.Is(err, shared.ErrMissingArgument),
		errors.Is(err, shared.ErrNoSuchStatus):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	default:
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "Internal server error"})
	}
}

func decodeBody(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("%w: invalid JSON body", shared.ErrInvalidInput)
	}
	return nil
}

// listOptions parses page, limit, status, sortBy, order and query from r.
func listOptions(r *http.Request, statuses []string) (repositories.ListOptions, error) {
	q := r.URL.Query()
	opts := repositories.ListOptions{Status: q.Get("status"), Query: q.Get("query")}

	var err error
	if opts.Page, err = intParam(q.Get("page"), "page"); err != nil {
		return opts, err
	}
	if opts.Limit, err = intParam(q.Get("limit"), "limit"); err != nil {
		return opts, err
	}
	if opts.Status != "" && !models.ValidStatus(statuses, opts.Status) {
		return opts, fmt.Errorf("%w: %q", shared.ErrNoSuchStatus, opts.Status)
	}
	if s := q.Get("sortBy"); s != "" {
		if opts.SortBy, err = models.ParseSortField(s); err != nil {
			return opts, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}
	if s := q.Get("order"); s != "" {
		if opts.Order, err = models.ParseSortOrder(s); err != nil {
			return opts, fmt.Errorf("%w: %v", shared.ErrInvalidArgument, err)
		}
	}
	return opts.Normalize(), nil
}

func intParam(s, name string) (int, error) {
	if s == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer", shared.ErrInvalidArgument, name)
	}
	return n, nil
}
