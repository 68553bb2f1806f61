package ui

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/paginator"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/desertthunder/crmx/internal/listsync"
	"github.com/desertthunder/crmx/internal/models"
)

// noticeTTL is how long a notice stays on the status line.
const noticeTTL = 4 * time.Second

// Model represents the TUI application state: one [listsync.View] per tab.
type Model struct {
	ctx    context.Context
	views  []*listsync.View
	active int
	cursor int

	input     textinput.Model
	searching bool
	pager     paginator.Model
	help      help.Model
	keys      keyMap

	notice    *listsync.Notice
	noticeSeq int
	noticeTTL time.Duration
	seen      map[string]time.Time // last notice time per view
	armed     string               // record id awaiting a second delete press
	detail    bool

	width  int
	height int
}

// NewModel creates a TUI over views, shown as tabs in the given order.
//
// Deleting from a view named "contacts" invalidates a view named "tasks", whose records cascade server-side.
func NewModel(ctx context.Context, views ...*listsync.View) *Model {
	ti := textinput.New()
	ti.Prompt = "/ "
	ti.Placeholder = "search"
	ti.CharLimit = 120

	pager := paginator.New()
	pager.Type = paginator.Dots
	pager.ActiveDot = styles.selected.Render("•")
	pager.InactiveDot = styles.help.Render("•")

	return &Model{
		ctx:   ctx,
		views: views,
		input: ti,
		pager: pager,
		help:  help.New(),
		keys:  newKeyMap(),
		seen:  make(map[string]time.Time),

		noticeTTL: noticeTTL,
	}
}

// Init loads the first page of every view.
func (m *Model) Init() tea.Cmd {
	cmds := make([]tea.Cmd, 0, len(m.views))
	for _, v := range m.views {
		cmds = append(cmds, v.Init())
	}
	return tea.Batch(cmds...)
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case listsync.Msg:
		return m, m.forward(msg)

	case Msg:
		return m, m.handleMsg(msg)

	case tea.KeyMsg:
		var cmd tea.Cmd
		if m.searching {
			cmd = m.handleSearchKeys(msg)
		} else {
			cmd = m.handleKeys(msg)
		}
		return m, tea.Batch(cmd, m.collectNotices())
	}

	if m.searching {
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		return m, cmd
	}
	return m, nil
}

// forward hands an engine message to every view; only its addressee acts on it.
func (m *Model) forward(msg tea.Msg) tea.Cmd {
	var cmds []tea.Cmd
	for _, v := range m.views {
		cmds = append(cmds, v.Update(msg))
	}
	m.clampCursor()
	cmds = append(cmds, m.collectNotices())
	return tea.Batch(cmds...)
}

func (m *Model) handleMsg(msg Msg) tea.Cmd {
	switch msg.kind {
	case MsgNoticeExpired:
		if msg.data.(int) == m.noticeSeq {
			m.notice = nil
		}
	case MsgDeleted:
		d := msg.data.(deleted)
		cmd := m.forward(d.reply)
		if r, ok := d.reply.(listsync.Msg); ok && r.Err() != nil {
			return cmd
		}
		if d.view == "contacts" {
			if tasks := m.viewNamed("tasks"); tasks != nil {
				cmd = tea.Batch(cmd, tasks.Invalidate())
			}
		}
		return cmd
	}
	return nil
}

// collectNotices surfaces the newest unseen notice of any view and schedules its expiry.
func (m *Model) collectNotices() tea.Cmd {
	var newest *listsync.Notice
	for _, v := range m.views {
		n := v.Snapshot().Notice
		if n == nil || !n.At.After(m.seen[v.Name()]) {
			continue
		}
		m.seen[v.Name()] = n.At
		if newest == nil || n.At.After(newest.At) {
			newest = n
		}
	}
	if newest == nil {
		return nil
	}
	return m.show(*newest)
}

func (m *Model) show(n listsync.Notice) tea.Cmd {
	m.notice = &n
	m.noticeSeq++
	seq := m.noticeSeq
	return tea.Tick(m.noticeTTL, func(time.Time) tea.Msg { return noticeExpiredMsg(seq) })
}

func (m *Model) handleSearchKeys(msg tea.KeyMsg) tea.Cmd {
	v := m.view()
	switch msg.Type {
	case tea.KeyEsc:
		m.searching = false
		m.input.Blur()
		return nil
	case tea.KeyEnter:
		m.searching = false
		m.input.Blur()
		return v.SetSearch(m.input.Value())
	}

	before := m.input.Value()
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if after := m.input.Value(); after != before {
		return tea.Batch(cmd, v.Type(after))
	}
	return cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) tea.Cmd {
	v := m.view()
	if !key.Matches(msg, m.keys.remove) {
		m.armed = ""
	}

	switch {
	case key.Matches(msg, m.keys.quit):
		for _, v := range m.views {
			v.Close()
		}
		return tea.Quit
	case key.Matches(msg, m.keys.help):
		m.help.ShowAll = !m.help.ShowAll
	case key.Matches(msg, m.keys.search):
		m.searching = true
		m.input.SetValue(v.Query().Search)
		m.input.CursorEnd()
		return m.input.Focus()
	case key.Matches(msg, m.keys.back):
		m.detail = false
	case key.Matches(msg, m.keys.tab):
		m.active = (m.active + 1) % len(m.views)
		m.cursor = 0
		m.detail = false
		m.input.SetValue(m.view().Query().Search)
	case key.Matches(msg, m.keys.up):
		m.cursor = max(m.cursor-1, 0)
	case key.Matches(msg, m.keys.down):
		m.cursor++
		m.clampCursor()
	case key.Matches(msg, m.keys.next):
		m.cursor = 0
		return v.NextPage()
	case key.Matches(msg, m.keys.prev):
		m.cursor = 0
		return v.PrevPage()
	case key.Matches(msg, m.keys.status):
		values := append([]string{""}, v.Source().Statuses()...)
		return v.SetStatusFilter(cycle(values, v.Query().Status))
	case key.Matches(msg, m.keys.group):
		values := append([]string{""}, v.Snapshot().Facets.GroupValues()...)
		return v.SetSecondaryFilter(cycle(values, v.Query().Secondary))
	case key.Matches(msg, m.keys.sort):
		return v.ToggleSort(models.SortField(cycle(sortFields(v.Name()), string(v.Query().SortBy))))
	case key.Matches(msg, m.keys.order):
		q := v.Query()
		return v.SetSort(q.SortBy, q.Order.Flip())
	case key.Matches(msg, m.keys.refresh):
		return v.Refresh(true)
	case key.Matches(msg, m.keys.open):
		if rec, ok := m.selected(); ok {
			m.detail = true
			return v.LoadRecord(rec.Key())
		}
	case key.Matches(msg, m.keys.advance):
		if rec, ok := m.selected(); ok {
			return v.ChangeStatus(rec.Key(), cycle(v.Source().Statuses(), rec.State()))
		}
	case key.Matches(msg, m.keys.remove):
		return m.remove()
	}
	return nil
}

// remove deletes the selected record on the second consecutive press.
func (m *Model) remove() tea.Cmd {
	rec, ok := m.selected()
	if !ok {
		return nil
	}
	if m.armed != rec.Key() {
		m.armed = rec.Key()
		return m.show(listsync.Notice{Level: listsync.NoticeInfo, Message: fmt.Sprintf("Press d again to delete %s", rec.Label()), RecordID: rec.Key(), At: time.Now()})
	}
	m.armed = ""

	v := m.view()
	cmd := v.Delete(rec.Key())
	if cmd == nil {
		return nil
	}
	name := v.Name()
	return func() tea.Msg { return deletedMsg(name, cmd()) }
}

func (m *Model) view() *listsync.View { return m.views[m.active] }

func (m *Model) viewNamed(name string) *listsync.View {
	for _, v := range m.views {
		if v.Name() == name {
			return v
		}
	}
	return nil
}

func (m *Model) selected() (models.Record, bool) {
	items := m.view().Snapshot().Items
	if m.cursor < 0 || m.cursor >= len(items) {
		return nil, false
	}
	return items[m.cursor], true
}

func (m *Model) clampCursor() {
	n := len(m.view().Snapshot().Items)
	m.cursor = min(m.cursor, max(n-1, 0))
}

// cycle returns the value after current in values, wrapping around.
func cycle(values []string, current string) string {
	if len(values) == 0 {
		return current
	}
	i := slices.Index(values, current)
	return values[(i+1)%len(values)]
}

func sortFields(collection string) []string {
	if collection == "tasks" {
		return []string{string(models.SortCreatedAt), string(models.SortDueDate), string(models.SortName)}
	}
	return []string{string(models.SortCreatedAt), string(models.SortUpdatedAt), string(models.SortName)}
}

// View renders the tabs, the search line, the active page and the status line.
func (m *Model) View() string {
	snap := m.view().Snapshot()

	sections := []string{m.renderTabs(), m.renderSearch(snap), m.renderTable(snap)}
	if m.detail {
		sections = append(sections, m.renderDetail(snap))
	}
	sections = append(sections, m.renderStatus(snap), m.help.View(m.keys))
	return strings.Join(sections, "\n\n")
}

func (m *Model) renderTabs() string {
	tabs := make([]string, len(m.views))
	for i, v := range m.views {
		label := v.Name()
		if total, ok := v.Snapshot().Counts[models.CountsTotalKey]; ok {
			label = fmt.Sprintf("%s (%d)", label, total)
		}
		if i == m.active {
			tabs[i] = styles.activeTab.Render(label)
		} else {
			tabs[i] = styles.tab.Render(label)
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...)
}

func (m *Model) renderSearch(snap listsync.Snapshot) string {
	q := snap.Query
	filters := []string{fmt.Sprintf("sort %s %s", q.SortBy, q.Order)}
	if q.Status != "" {
		filters = append(filters, "status "+q.Status)
	}
	if q.Secondary != "" {
		filters = append(filters, "company "+q.Secondary)
	}
	line := styles.help.Render(strings.Join(filters, " · "))

	if m.searching {
		return m.input.View() + "  " + line
	}
	if q.Search != "" {
		return styles.warn.Render("/ "+q.Search) + "  " + line
	}
	return line
}

func (m *Model) renderTable(snap listsync.Snapshot) string {
	if len(snap.Items) == 0 {
		if snap.Loading {
			return styles.help.Render("Loading...")
		}
		return styles.help.Render("No " + snap.Name + ".")
	}

	var headers []string
	rows := make([][]string, 0, len(snap.Items))
	for _, rec := range snap.Items {
		tab, ok := rec.(models.Tabular)
		if !ok {
			continue
		}
		if headers == nil {
			headers = tab.Columns()
		}
		row := tab.Row()
		if snap.IsPending(rec.Key()) {
			row[0] = "… " + row[0]
		}
		rows = append(rows, row)
	}

	t := table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(styles.help).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return styles.header.Padding(0, 1)
			case row == m.cursor:
				return styles.selected.Padding(0, 1)
			case row < len(snap.Items) && snap.IsPending(snap.Items[row].Key()):
				return styles.pending.Padding(0, 1)
			default:
				return lipgloss.NewStyle().Padding(0, 1)
			}
		})
	if m.width > 0 {
		t = t.Width(m.width)
	}
	return t.String()
}

func (m *Model) renderDetail(snap listsync.Snapshot) string {
	if snap.DetailLoading {
		return styles.help.Render("Loading record...")
	}
	tab, ok := snap.Detail.(models.Tabular)
	if !ok {
		return ""
	}

	var b strings.Builder
	b.WriteString(styles.title.Render(snap.Detail.Label()))
	cols, row := tab.Columns(), tab.Row()
	for i := range cols {
		fmt.Fprintf(&b, "\n%s %s", styles.header.Render(cols[i]+":"), row[i])
	}
	return b.String()
}

func (m *Model) renderStatus(snap listsync.Snapshot) string {
	p := snap.Pagination
	m.pager.TotalPages = max(p.PageCount, 1)
	m.pager.Page = max(p.CurrentPage-1, 0)

	parts := []string{
		m.pager.View(),
		fmt.Sprintf("page %d/%d", max(p.CurrentPage, 1), max(p.PageCount, 1)),
		fmt.Sprintf("%d total", p.Total),
		snap.Mode.String(),
	}
	if snap.Loading {
		parts = append(parts, styles.warn.Render("syncing"))
	}
	if snap.Debounce == listsync.Pending {
		parts = append(parts, styles.help.Render("typing"))
	}
	line := strings.Join(parts, "  ")

	if snap.Err != nil {
		line += "\n" + styles.err.Render("Error: "+snap.Err.Error())
	}
	for _, field := range sortedKeys(snap.FieldErrors) {
		line += "\n" + styles.err.Render(fmt.Sprintf("%s: %s", field, snap.FieldErrors[field]))
	}
	if n := m.notice; n != nil {
		style := styles.ok
		if n.Level == listsync.NoticeError {
			style = styles.err
		}
		line += "\n" + style.Render(n.Message)
	}
	return line
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
