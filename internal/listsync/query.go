package listsync

import (
	"regexp"
	"strings"

	"github.com/desertthunder/crmx/internal/models"
)

// FilterMode tells where filtering and paging happen.
type FilterMode int

const (
	ServerMode FilterMode = iota
	LocalMode
)

func (m FilterMode) String() string {
	if m == LocalMode {
		return "local"
	}
	return "server"
}

const (
	DefaultPageSize = 10
	DefaultSortBy   = models.SortCreatedAt
	DefaultOrder    = models.Desc
)

// Query is the canonical description of the page, search, filters and sort of a view.
//
// Values are immutable; setters return a copy with Generation incremented.
type Query struct {
	Page       int
	PageSize   int
	Search     string
	Status     string
	Secondary  string
	SortBy     models.SortField
	Order      models.SortOrder
	Generation uint64
}

// NewQuery returns the first page of an unfiltered query.
func NewQuery(pageSize int) Query {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return Query{Page: 1, PageSize: pageSize, SortBy: DefaultSortBy, Order: DefaultOrder, Generation: 1}
}

func (q Query) next() Query {
	q.Generation++
	return q
}

// SetPage moves to page p (at least 1).
func (q Query) SetPage(p int) Query {
	q = q.next()
	q.Page = max(p, 1)
	return q
}

// SetPageSize changes the page size and returns to the first page.
func (q Query) SetPageSize(n int) Query {
	q = q.next()
	if n > 0 {
		q.PageSize = n
	}
	q.Page = 1
	return q
}

// SetSearch replaces the search text (sanitized) and returns to the first page.
func (q Query) SetSearch(text string) Query {
	q = q.next()
	q.Search = SanitizeSearch(text)
	q.Page = 1
	return q
}

// SetStatusFilter filters by status; an empty status clears the filter.
func (q Query) SetStatusFilter(status string) Query {
	q = q.next()
	q.Status = status
	q.Page = 1
	return q
}

// SetSecondaryFilter filters by group (e.g. company); an empty value clears the filter.
func (q Query) SetSecondaryFilter(group string) Query {
	q = q.next()
	q.Secondary = group
	q.Page = 1
	return q
}

// SetSort sets both the sort field and order.
func (q Query) SetSort(field models.SortField, order models.SortOrder) Query {
	q = q.next()
	q.SortBy = field
	q.Order = order
	return q
}

// ToggleSort flips the order when field is already the sort field, otherwise sorts by field ascending.
func (q Query) ToggleSort(field models.SortField) Query {
	if field == q.SortBy {
		return q.SetSort(field, q.Order.Flip())
	}
	return q.SetSort(field, models.Asc)
}

// Filtered reports whether a status or group filter is set.
func (q Query) Filtered() bool {
	return q.Status != "" || q.Secondary != ""
}

// Mode derives the filter mode. Group filters have no server parameter and are always local; status filters are
// local only for views that filter locally.
func (q Query) Mode(filterLocally bool) FilterMode {
	if q.Secondary != "" || (filterLocally && q.Status != "") {
		return LocalMode
	}
	return ServerMode
}

// Predicate returns the local filter matching q.
func (q Query) Predicate() Predicate {
	return Predicate{Search: q.Search, Status: q.Status, Group: q.Secondary}
}

var markupRe = regexp.MustCompile(`<[^>]*>`)

// SanitizeSearch strips markup tags and surrounding whitespace from user input.
func SanitizeSearch(text string) string {
	return strings.TrimSpace(markupRe.ReplaceAllString(text, ""))
}
