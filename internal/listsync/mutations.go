package listsync

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
)

// MutationKind names a write operation.
type MutationKind int

const (
	MutationCreate MutationKind = iota
	MutationUpdate
	MutationDelete
	MutationStatusChange
)

func (k MutationKind) String() string {
	switch k {
	case MutationCreate:
		return "create"
	case MutationUpdate:
		return "update"
	case MutationDelete:
		return "delete"
	default:
		return "status change"
	}
}

func (k MutationKind) past() string {
	switch k {
	case MutationCreate:
		return "created"
	case MutationUpdate:
		return "updated"
	case MutationDelete:
		return "deleted"
	default:
		return "changed"
	}
}

// PendingMutation tracks a write until the server answers.
type PendingMutation struct {
	RecordID    string
	Kind        MutationKind
	Optimistic  models.Record // status changes only
	Previous    models.Record // pre-mutation snapshot, nil for creates
	SubmittedAt time.Time

	counted bool // resident counts include the optimistic move
}

// ChangeStatus applies a status change optimistically and confirms it with the server.
//
// On failure the record and counts are reverted and a notice naming the record is emitted.
func (v *View) ChangeStatus(id, status string) tea.Cmd {
	if v.closed {
		return nil
	}
	if !models.ValidStatus(v.source.Statuses(), status) {
		v.fail(fmt.Errorf("%w: %q", shared.ErrNoSuchStatus, status), "change status")
		return nil
	}
	if _, busy := v.pending[id]; busy {
		v.fail(fmt.Errorf("%w: %s", shared.ErrMutationPending, id), "change status")
		return nil
	}
	rec, ok := v.find(id)
	if !ok {
		v.fail(fmt.Errorf("%w: %s", shared.ErrRecordNotFound, id), "change status")
		return nil
	}
	if rec.State() == status {
		return nil
	}

	optimistic := rec.WithState(status)
	v.pending[id] = PendingMutation{
		RecordID:    id,
		Kind:        MutationStatusChange,
		Optimistic:  optimistic,
		Previous:    rec,
		SubmittedAt: time.Now(),
		counted:     v.data.counts != nil,
	}
	v.swap(id, optimistic)
	v.moveCount(rec.State(), status)
	v.refreshFacets()

	ctx, src, view := v.ctx, v.source, v.id
	return func() tea.Msg {
		updated, err := src.SetStatus(ctx, rec, status)
		return statusChangedMsg(view, statusResult{id: id, rec: updated, err: err})
	}
}

// Create submits a new record and re-syncs on success.
func (v *View) Create(rec models.Record) tea.Cmd {
	v.createSeq++
	key := fmt.Sprintf("new-%d", v.createSeq)
	src := v.source
	return v.mutate(MutationCreate, key, "", rec.Label(), nil, func(ctx context.Context) (models.Record, error) {
		return src.Create(ctx, rec)
	})
}

// Save updates an existing record and re-syncs on success.
func (v *View) Save(rec models.Record) tea.Cmd {
	previous, _ := v.find(rec.Key())
	src := v.source
	return v.mutate(MutationUpdate, rec.Key(), rec.Key(), rec.Label(), previous, func(ctx context.Context) (models.Record, error) {
		return src.Update(ctx, rec)
	})
}

// Delete removes a record and re-syncs, stepping back a page when the sole item of a later page was deleted.
func (v *View) Delete(id string) tea.Cmd {
	label := id
	previous, ok := v.find(id)
	if ok {
		label = previous.Label()
	}
	src := v.source
	return v.mutate(MutationDelete, id, id, label, previous, func(ctx context.Context) (models.Record, error) {
		return nil, src.Delete(ctx, id)
	})
}

func (v *View) mutate(kind MutationKind, key, id, label string, previous models.Record, call func(context.Context) (models.Record, error)) tea.Cmd {
	if v.closed {
		return nil
	}
	if _, busy := v.pending[key]; busy {
		v.fail(fmt.Errorf("%w: %s", shared.ErrMutationPending, key), kind.String()+" "+label)
		return nil
	}

	v.pending[key] = PendingMutation{RecordID: id, Kind: kind, Previous: previous, SubmittedAt: time.Now()}
	v.fieldErrors = nil

	ctx, view := v.ctx, v.id
	return func() tea.Msg {
		rec, err := call(ctx)
		return mutationDoneMsg(view, mutationResult{kind: kind, key: key, id: id, label: label, rec: rec, err: err})
	}
}

func (v *View) onStatus(r statusResult) {
	pm, ok := v.pending[r.id]
	if !ok {
		return
	}
	delete(v.pending, r.id)

	if r.err != nil {
		v.swap(r.id, pm.Previous)
		switch {
		case v.mode == LocalMode && v.supersetFresh:
			v.applyLocal()
		case pm.counted:
			v.moveCount(pm.Optimistic.State(), pm.Previous.State())
			v.refreshFacets()
		default:
			v.refreshFacets()
		}
		if transport.IsAborted(r.err) {
			return
		}

		v.err = r.err
		v.logger.Warn("status change reverted", "id", r.id, "err", r.err)
		v.notify(NoticeError, fmt.Sprintf("Failed to update status of %s: %s", pm.Previous.Label(), describe(r.err)), r.id)
		return
	}

	if r.rec != nil && r.rec.Key() == r.id {
		v.swap(r.id, r.rec)
	}
	if v.mode == LocalMode && v.supersetFresh {
		v.applyLocal()
	} else {
		v.refreshFacets()
	}
	v.notify(NoticeInfo, fmt.Sprintf("%s is now %s", pm.Optimistic.Label(), pm.Optimistic.State()), r.id)
}

func (v *View) onMutation(r mutationResult) tea.Cmd {
	delete(v.pending, r.key)
	if transport.IsAborted(r.err) {
		return nil
	}

	if r.err != nil {
		if f, ok := transport.AsFailure(r.err); ok && f.Kind == transport.KindValidation {
			v.fieldErrors = copyFields(f.Fields)
		}
		v.err = r.err
		v.logger.Warn("mutation failed", "kind", r.kind, "id", r.id, "err", r.err)
		v.notify(NoticeError, fmt.Sprintf("Failed to %s %s: %s", r.kind, r.label, describe(r.err)), r.id)
		return nil
	}

	v.err = nil
	v.fieldErrors = nil
	v.supersetFresh = false
	id := r.id
	if id == "" && r.rec != nil {
		id = r.rec.Key()
	}
	v.notify(NoticeInfo, fmt.Sprintf("%s %s", r.label, r.kind.past()), id)

	if r.kind == MutationDelete && v.query.Page > 1 && len(v.data.items) == 1 && v.data.items[0].Key() == r.id {
		v.query = v.query.SetPage(v.query.Page - 1)
	}
	return v.resync()
}

// resync re-issues the current query with caches bypassed.
func (v *View) resync() tea.Cmd {
	if v.query.Mode(v.opts.FilterLocally) == LocalMode {
		v.mode = LocalMode
		return v.local(true, true)
	}
	return v.fetch(true)
}

func (v *View) find(id string) (models.Record, bool) {
	for _, r := range v.data.items {
		if r.Key() == id {
			return r, true
		}
	}
	for _, r := range v.superset {
		if r.Key() == id {
			return r, true
		}
	}
	if v.detail != nil && v.detail.Key() == id {
		return v.detail, true
	}
	return nil, false
}

// swap replaces the record keyed id wherever it is resident. Slices are copied, never written in place.
func (v *View) swap(id string, rec models.Record) {
	v.data.items = replaced(v.data.items, id, rec)
	v.superset = replaced(v.superset, id, rec)
	if v.detail != nil && v.detail.Key() == id {
		v.detail = rec
	}
}

func replaced(records []models.Record, id string, rec models.Record) []models.Record {
	for i, r := range records {
		if r.Key() == id {
			out := append([]models.Record(nil), records...)
			out[i] = rec
			return out
		}
	}
	return records
}

// moveCount shifts one record between status counts.
func (v *View) moveCount(from, to string) {
	if v.data.counts == nil || from == to {
		return
	}
	counts := copyCounts(v.data.counts)
	if counts[from] > 0 {
		counts[from]--
	}
	counts[to]++
	v.data.counts = counts
}

func copyFields(m map[string]string) map[string]string {
	out := make(map[string]string, len(m))
	for k, s := range m {
		out[k] = s
	}
	return out
}
