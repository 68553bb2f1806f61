package listsync

import (
	"context"
	"fmt"
	"io"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/services"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
)

var viewIDs atomic.Uint64

// Options configures a [View].
type Options struct {
	PageSize      int
	Debounce      time.Duration
	FilterLocally bool // apply status filters over a resident superset
	SupersetSize  int  // records loaded for local filtering, zero reuses the resident page
	Logger        *log.Logger
	Notifier      Notifier
}

type resident struct {
	items      []models.Record
	pagination models.Pagination
	counts     map[string]int
}

// View is the single-writer state container of one list: its Query, resident dataset, pending mutations and
// in-flight requests.
type View struct {
	id       uint64
	name     string
	source   services.Source
	opts     Options
	logger   *log.Logger
	notifier Notifier

	ctx  context.Context
	stop context.CancelFunc

	query         Query
	mode          FilterMode
	data          resident
	superset      []models.Record
	supersetFresh bool
	facets        Facets
	loading       bool
	err           error
	fieldErrors   map[string]string
	pending       map[string]PendingMutation
	notice        *Notice
	createSeq     int

	seq             uint64
	cancelFetch     context.CancelFunc
	loadingSuperset bool

	detail        models.Record
	detailSeq     uint64
	detailLoading bool
	cancelDetail  context.CancelFunc

	debouncer *Debouncer
	closed    bool
}

// NewView creates a view of source. Its requests end when ctx is done or the view is closed.
func NewView(ctx context.Context, name string, source services.Source, opts Options) *View {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}
	if opts.Notifier == nil {
		opts.Notifier = nopNotifier{}
	}

	id := viewIDs.Add(1)
	vctx, stop := context.WithCancel(ctx)
	return &View{
		id:        id,
		name:      name,
		source:    source,
		opts:      opts,
		logger:    shared.WithLogger(opts.Logger, "view", name),
		notifier:  opts.Notifier,
		ctx:       vctx,
		stop:      stop,
		query:     NewQuery(opts.PageSize),
		pending:   make(map[string]PendingMutation),
		debouncer: NewDebouncer(id, opts.Debounce),
	}
}

// Name returns the view name.
func (v *View) Name() string { return v.name }

// Source returns the collection the view synchronizes.
func (v *View) Source() services.Source { return v.source }

// Query returns the current query.
func (v *View) Query() Query { return v.query }

// Init loads the first page.
func (v *View) Init() tea.Cmd {
	return v.apply(v.query)
}

// Refresh re-issues the current query, bypassing caches when bypass is set.
func (v *View) Refresh(bypass bool) tea.Cmd {
	if v.closed {
		return nil
	}
	if v.mode == LocalMode {
		return v.local(true, bypass)
	}
	return v.fetch(bypass)
}

// Invalidate discards resident data as stale (e.g. after a cascade on another collection) and re-syncs.
func (v *View) Invalidate() tea.Cmd {
	v.supersetFresh = false
	return v.Refresh(true)
}

// SetPage moves to page p.
func (v *View) SetPage(p int) tea.Cmd {
	return v.apply(v.query.SetPage(p))
}

// NextPage advances unless the view is on the last known page.
func (v *View) NextPage() tea.Cmd {
	if pc := v.data.pagination.PageCount; pc > 0 && v.query.Page >= pc {
		return nil
	}
	return v.SetPage(v.query.Page + 1)
}

// PrevPage goes back one page unless on the first.
func (v *View) PrevPage() tea.Cmd {
	if v.query.Page <= 1 {
		return nil
	}
	return v.SetPage(v.query.Page - 1)
}

// Type feeds a keystroke's text through the debouncer.
func (v *View) Type(text string) tea.Cmd {
	if v.closed {
		return nil
	}
	return v.debouncer.Push(text)
}

// SetSearch commits text immediately, dropping any pending debounced input.
func (v *View) SetSearch(text string) tea.Cmd {
	if v.closed {
		return nil
	}
	v.debouncer.Cancel()
	return v.apply(v.query.SetSearch(text))
}

// SetStatusFilter filters by status; an empty status clears the filter.
func (v *View) SetStatusFilter(status string) tea.Cmd {
	if status != "" && !models.ValidStatus(v.source.Statuses(), status) {
		v.fail(fmt.Errorf("%w: %q", shared.ErrNoSuchStatus, status), "filter "+v.name)
		return nil
	}
	return v.apply(v.query.SetStatusFilter(status))
}

// SetSecondaryFilter filters by group; an empty value clears the filter.
func (v *View) SetSecondaryFilter(group string) tea.Cmd {
	return v.apply(v.query.SetSecondaryFilter(group))
}

// ToggleSort sorts by field, flipping the order when it is already the sort field.
func (v *View) ToggleSort(field models.SortField) tea.Cmd {
	return v.apply(v.query.ToggleSort(field))
}

// SetSort sets the sort field and order.
func (v *View) SetSort(field models.SortField, order models.SortOrder) tea.Cmd {
	return v.apply(v.query.SetSort(field, order))
}

// LoadRecord fetches one record for an edit flow, bypassing caches. A newer call cancels an older one.
func (v *View) LoadRecord(id string) tea.Cmd {
	if v.closed {
		return nil
	}
	if v.cancelDetail != nil {
		v.cancelDetail()
	}

	ctx, cancel := context.WithCancel(v.ctx)
	v.cancelDetail = cancel
	v.detailSeq++
	v.detailLoading = true

	src, view, seq := v.source, v.id, v.detailSeq
	return func() tea.Msg {
		defer cancel()
		rec, err := src.Get(ctx, id, true)
		return recordFetchedMsg(view, recordResult{seq: seq, rec: rec, err: err})
	}
}

// Close cancels every in-flight request and the debouncer. Later messages and operations are ignored.
func (v *View) Close() {
	if v.closed {
		return
	}
	v.closed = true
	v.debouncer.Close()
	v.stop()
	v.loading = false
	v.detailLoading = false
}

// Update applies an engine message addressed to this view.
func (v *View) Update(msg tea.Msg) tea.Cmd {
	m, ok := msg.(Msg)
	if !ok || m.view != v.id || v.closed {
		return nil
	}

	switch m.kind {
	case MsgDebounceFired:
		if text, ok := v.debouncer.Fire(m.data.(uint64)); ok {
			return v.apply(v.query.SetSearch(text))
		}
	case MsgPageFetched:
		v.onPage(m.data.(fetchResult))
	case MsgSupersetFetched:
		v.onSuperset(m.data.(fetchResult))
	case MsgRecordFetched:
		v.onRecord(m.data.(recordResult))
	case MsgStatusChanged:
		v.onStatus(m.data.(statusResult))
	case MsgMutationDone:
		return v.onMutation(m.data.(mutationResult))
	}
	return nil
}

// apply makes q current and either filters locally or fetches.
func (v *View) apply(q Query) tea.Cmd {
	if v.closed {
		return nil
	}
	prev := v.mode
	v.query = q

	if q.Mode(v.opts.FilterLocally) == LocalMode {
		if prev == ServerMode && v.opts.SupersetSize <= 0 && !v.supersetFresh {
			v.superset = v.data.items
			v.supersetFresh = true
		}
		v.mode = LocalMode
		return v.local(false, false)
	}

	if prev == LocalMode && v.opts.SupersetSize <= 0 {
		v.supersetFresh = false
	}
	return v.fetch(false)
}

// fetch issues the server query for the current generation.
func (v *View) fetch(bypass bool) tea.Cmd {
	q := v.query
	ctx := v.begin()
	v.mode = ServerMode

	src, view, seq := v.source, v.id, v.seq
	return func() tea.Msg {
		var page *models.Page
		var err error
		if q.Search != "" {
			page, err = src.Search(ctx, services.SearchParams{
				Query: q.Search, Page: q.Page, Limit: q.PageSize, Status: q.Status, SortBy: q.SortBy, Order: q.Order,
				BypassCache: bypass,
			})
		} else {
			page, err = src.List(ctx, services.ListParams{
				Page: q.Page, Limit: q.PageSize, Status: q.Status, SortBy: q.SortBy, Order: q.Order, BypassCache: bypass,
			})
		}
		return pageFetchedMsg(view, fetchResult{gen: q.Generation, seq: seq, page: page, err: err})
	}
}

// local recomputes the visible page from the superset, loading it first when needed.
func (v *View) local(reload, bypass bool) tea.Cmd {
	if !reload && v.supersetFresh {
		v.endFetch()
		v.applyLocal()
		return nil
	}
	if !reload && v.loadingSuperset {
		return nil
	}

	limit := v.opts.SupersetSize
	if limit <= 0 {
		limit = v.query.PageSize
	}
	q := v.query
	ctx := v.begin()

	v.loadingSuperset = true

	src, view, seq := v.source, v.id, v.seq
	params := services.ListParams{Page: 1, Limit: limit, SortBy: q.SortBy, Order: q.Order, BypassCache: bypass}
	return func() tea.Msg {
		page, err := src.List(ctx, params)
		return supersetFetchedMsg(view, fetchResult{gen: q.Generation, seq: seq, page: page, err: err})
	}
}

// begin cancels the previous fetch and returns the context of a new one.
func (v *View) begin() context.Context {
	v.endFetch()
	ctx, cancel := context.WithCancel(v.ctx)
	v.cancelFetch = cancel
	v.seq++
	v.loading = true
	return ctx
}

// endFetch releases the current fetch context, cancelling the request if it is still running.
func (v *View) endFetch() {
	if v.cancelFetch != nil {
		v.cancelFetch()
		v.cancelFetch = nil
	}
	v.loading = false
	v.loadingSuperset = false
}

func (v *View) onPage(r fetchResult) {
	if transport.IsAborted(r.err) {
		v.logger.Debug("fetch aborted", "seq", r.seq)
		return
	}
	if r.gen != v.query.Generation || r.seq != v.seq {
		v.logger.Debug("discarding stale response", "generation", r.gen, "current", v.query.Generation, "seq", r.seq)
		return
	}

	v.endFetch()
	if r.err != nil {
		v.fail(r.err, "load "+v.name)
		return
	}

	v.err = nil
	v.data = resident{items: v.overlay(r.page.Items), pagination: r.page.Pagination, counts: copyCounts(r.page.Counts)}
	v.uncount()
	v.refreshFacets()
}

// uncount marks pending status changes as absent from freshly fetched counts, so a rollback leaves them alone.
func (v *View) uncount() {
	for id, pm := range v.pending {
		if pm.Kind == MutationStatusChange && pm.counted {
			pm.counted = false
			v.pending[id] = pm
		}
	}
}

func (v *View) onSuperset(r fetchResult) {
	if transport.IsAborted(r.err) {
		v.logger.Debug("superset fetch aborted", "seq", r.seq)
		return
	}
	if r.seq != v.seq {
		v.logger.Debug("discarding stale superset", "seq", r.seq, "current", v.seq)
		return
	}

	v.endFetch()
	if r.err != nil {
		v.fail(r.err, "load "+v.name)
		return
	}

	v.superset = v.overlay(r.page.Items)
	v.supersetFresh = true
	if v.mode == LocalMode {
		v.applyLocal()
	} else {
		v.refreshFacets()
	}
}

func (v *View) onRecord(r recordResult) {
	if r.seq != v.detailSeq {
		return
	}
	if transport.IsAborted(r.err) {
		return
	}

	v.detailLoading = false
	v.cancelDetail = nil
	if r.err != nil {
		v.fail(r.err, "load record")
		return
	}
	v.detail = r.rec
}

// applyLocal filters, sorts and paginates the superset for the current query.
func (v *View) applyLocal() {
	q := v.query
	filtered := SortRecords(Filter(v.superset, q.Predicate()), q.SortBy, q.Order)
	items, meta := Paginate(filtered, q.Page, q.PageSize)

	v.data = resident{items: items, pagination: meta, counts: CountStatuses(v.superset)}
	v.err = nil
	v.refreshFacets()
}

func (v *View) refreshFacets() {
	if v.supersetFresh && len(v.superset) > 0 {
		v.facets = ComputeFacets(v.superset)
		return
	}
	v.facets = ComputeFacets(v.data.items)
}

// overlay re-applies optimistic records still awaiting the server to freshly fetched items.
func (v *View) overlay(items []models.Record) []models.Record {
	out := append([]models.Record(nil), items...)
	if len(v.pending) == 0 {
		return out
	}
	for i, r := range out {
		if pm, ok := v.pending[r.Key()]; ok && pm.Kind == MutationStatusChange {
			out[i] = pm.Optimistic
		}
	}
	return out
}

// fail records err and notifies, unless the request was aborted.
func (v *View) fail(err error, action string) {
	if transport.IsAborted(err) {
		return
	}
	v.err = err
	v.logger.Warn("operation failed", "action", action, "err", err)
	v.notify(NoticeError, fmt.Sprintf("Failed to %s: %s", action, describe(err)), "")
}

func (v *View) notify(level NoticeLevel, message, id string) {
	n := Notice{Level: level, Message: message, RecordID: id, At: time.Now()}
	v.notice = &n
	v.notifier.Notify(n)
}

func copyCounts(m map[string]int) map[string]int {
	if m == nil {
		return nil
	}
	out := make(map[string]int, len(m))
	for k, n := range m {
		out[k] = n
	}
	return out
}
