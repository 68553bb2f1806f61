// Package servicestest provides an in-memory [services.Source] for tests.
package servicestest

import (
	"context"
	"fmt"
	"math"
	"sort"
	"strings"
	"sync"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/services"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
)

var _ services.Source = (*FakeSource)(nil)

// Call records one invocation of a [FakeSource] method.
type Call struct {
	Method string
	List   services.ListParams
	Search services.SearchParams
	ID     string
	Status string
	Bypass bool
}

// FakeSource serves records from memory with the same paging, search and counts rules as the API.
type FakeSource struct {
	mu       sync.Mutex
	name     string
	statuses []string
	records  []models.Record
	calls    []Call
	failures map[string][]error
	gate     chan struct{}
	nextID   int
}

// NewFakeSource creates a source named name holding records.
func NewFakeSource(name string, statuses []string, records ...models.Record) *FakeSource {
	return &FakeSource{
		name:     name,
		statuses: statuses,
		records:  append([]models.Record(nil), records...),
		failures: make(map[string][]error),
	}
}

// FailNext makes the next call to method return err.
func (f *FakeSource) FailNext(method string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failures[method] = append(f.failures[method], err)
}

// Hold makes subsequent calls wait until release is called or their context ends.
func (f *FakeSource) Hold() (release func()) {
	f.mu.Lock()
	defer f.mu.Unlock()
	gate := make(chan struct{})
	f.gate = gate

	var once sync.Once
	return func() {
		once.Do(func() {
			f.mu.Lock()
			if f.gate == gate {
				f.gate = nil
			}
			f.mu.Unlock()
			close(gate)
		})
	}
}

// Calls returns the recorded calls in order.
func (f *FakeSource) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]Call(nil), f.calls...)
}

// CallsTo returns the recorded calls to method.
func (f *FakeSource) CallsTo(method string) []Call {
	var out []Call
	for _, c := range f.Calls() {
		if c.Method == method {
			out = append(out, c)
		}
	}
	return out
}

// Records returns the stored records.
func (f *FakeSource) Records() []models.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]models.Record(nil), f.records...)
}

func (f *FakeSource) Name() string       { return f.name }
func (f *FakeSource) Statuses() []string { return f.statuses }

func (f *FakeSource) List(ctx context.Context, p services.ListParams) (*models.Page, error) {
	if err := f.enter(ctx, Call{Method: "List", List: p, Bypass: p.BypassCache}); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	var matched []models.Record
	for _, r := range f.records {
		if p.Status == "" || r.State() == p.Status {
			matched = append(matched, r)
		}
	}
	return f.page(matched, p.Page, p.Limit, p.SortBy, p.Order), nil
}

func (f *FakeSource) Search(ctx context.Context, p services.SearchParams) (*models.Page, error) {
	if err := f.enter(ctx, Call{Method: "Search", Search: p, Bypass: p.BypassCache}); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	query := strings.ToLower(strings.TrimSpace(p.Query))
	var matched []models.Record
	for _, r := range f.records {
		if p.Status != "" && r.State() != p.Status {
			continue
		}
		for _, field := range r.TextFields() {
			if strings.Contains(strings.ToLower(field), query) {
				matched = append(matched, r)
				break
			}
		}
	}
	return f.page(matched, p.Page, p.Limit, p.SortBy, p.Order), nil
}

func (f *FakeSource) Get(ctx context.Context, id string, bypass bool) (models.Record, error) {
	if err := f.enter(ctx, Call{Method: "Get", ID: id, Bypass: bypass}); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if i := f.index(id); i >= 0 {
		return f.records[i], nil
	}
	return nil, notFound(id)
}

// Create stores rec under a generated id; Contact and Task records get the id assigned.
func (f *FakeSource) Create(ctx context.Context, rec models.Record) (models.Record, error) {
	if err := f.enter(ctx, Call{Method: "Create", Bypass: true}); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	id := fmt.Sprintf("%s-%d", f.name, f.nextID)
	switch r := rec.(type) {
	case models.Contact:
		r.ID = id
		rec = r
	case models.Task:
		r.ID = id
		rec = r
	}
	f.records = append(f.records, rec)
	return rec, nil
}

func (f *FakeSource) Update(ctx context.Context, rec models.Record) (models.Record, error) {
	if err := f.enter(ctx, Call{Method: "Update", ID: rec.Key(), Bypass: true}); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(rec.Key())
	if i < 0 {
		return nil, notFound(rec.Key())
	}
	f.records[i] = rec
	return rec, nil
}

func (f *FakeSource) Delete(ctx context.Context, id string) error {
	if err := f.enter(ctx, Call{Method: "Delete", ID: id, Bypass: true}); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(id)
	if i < 0 {
		return notFound(id)
	}
	f.records = append(f.records[:i], f.records[i+1:]...)
	return nil
}

func (f *FakeSource) SetStatus(ctx context.Context, rec models.Record, status string) (models.Record, error) {
	if err := f.enter(ctx, Call{Method: "SetStatus", ID: rec.Key(), Status: status, Bypass: true}); err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	i := f.index(rec.Key())
	if i < 0 {
		return nil, notFound(rec.Key())
	}
	f.records[i] = f.records[i].WithState(status)
	return f.records[i], nil
}

// enter records the call, applies a queued failure and waits on the gate.
func (f *FakeSource) enter(ctx context.Context, call Call) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	var err error
	if queued := f.failures[call.Method]; len(queued) > 0 {
		err, f.failures[call.Method] = queued[0], queued[1:]
	}
	gate := f.gate
	f.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return &transport.Failure{Kind: transport.KindAborted, Message: "request aborted", Err: ctx.Err()}
		}
	}
	if ctx.Err() != nil {
		return &transport.Failure{Kind: transport.KindAborted, Message: "request aborted", Err: ctx.Err()}
	}
	return err
}

func (f *FakeSource) index(id string) int {
	for i, r := range f.records {
		if r.Key() == id {
			return i
		}
	}
	return -1
}

func (f *FakeSource) page(matched []models.Record, page, limit int, by models.SortField, order models.SortOrder) *models.Page {
	sorted := append([]models.Record(nil), matched...)
	if by != "" {
		sort.SliceStable(sorted, func(i, j int) bool {
			if order == models.Desc {
				return sorted[i].SortValue(by) > sorted[j].SortValue(by)
			}
			return sorted[i].SortValue(by) < sorted[j].SortValue(by)
		})
	}

	page = max(page, 1)
	if limit <= 0 {
		limit = 10
	}
	start := min((page-1)*limit, len(sorted))
	end := min(start+limit, len(sorted))

	counts := map[string]int{models.CountsTotalKey: len(f.records)}
	for _, r := range f.records {
		counts[r.State()]++
	}

	return &models.Page{
		Items: sorted[start:end],
		Pagination: models.Pagination{
			Total:       len(sorted),
			PageCount:   int(math.Ceil(float64(len(sorted)) / float64(limit))),
			CurrentPage: page,
			PageSize:    limit,
		},
		Counts: counts,
	}
}

func notFound(id string) error {
	return &transport.Failure{Kind: transport.KindHTTP, Status: 404, Message: "not found: " + id, Err: shared.ErrRecordNotFound}
}
