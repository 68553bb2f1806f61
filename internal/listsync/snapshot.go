package listsync

import (
	"sort"

	"github.com/desertthunder/crmx/internal/models"
)

// Snapshot is a stable copy of a view's state for rendering.
type Snapshot struct {
	Name          string
	Items         []models.Record
	Pagination    models.Pagination
	Counts        map[string]int
	Facets        Facets
	Mode          FilterMode
	Query         Query
	Input         string // text waiting in the debouncer
	Debounce      DebounceState
	Loading       bool
	Err           error
	FieldErrors   map[string]string
	Pending       []PendingMutation
	Notice        *Notice
	Detail        models.Record
	DetailLoading bool
	Closed        bool
}

// IsPending reports whether a mutation of the record keyed id is in flight.
func (s Snapshot) IsPending(id string) bool {
	for _, pm := range s.Pending {
		if pm.RecordID == id {
			return true
		}
	}
	return false
}

// Snapshot copies the current state.
func (v *View) Snapshot() Snapshot {
	s := Snapshot{
		Name:          v.name,
		Items:         append([]models.Record(nil), v.data.items...),
		Pagination:    v.data.pagination,
		Counts:        copyCounts(v.data.counts),
		Facets:        v.facets,
		Mode:          v.mode,
		Query:         v.query,
		Debounce:      v.debouncer.State(),
		Loading:       v.loading || v.loadingSuperset,
		Err:           v.err,
		Detail:        v.detail,
		DetailLoading: v.detailLoading,
		Closed:        v.closed,
	}
	if s.Debounce == Pending {
		s.Input = v.debouncer.Text()
	}
	if v.fieldErrors != nil {
		s.FieldErrors = copyFields(v.fieldErrors)
	}
	if v.notice != nil {
		n := *v.notice
		s.Notice = &n
	}

	for _, pm := range v.pending {
		s.Pending = append(s.Pending, pm)
	}
	sort.Slice(s.Pending, func(i, j int) bool { return s.Pending[i].SubmittedAt.Before(s.Pending[j].SubmittedAt) })
	return s
}
