package ui

import "github.com/charmbracelet/bubbles/key"

// keyMap defines the [key.Binding] mapping for the TUI.
type keyMap struct {
	up      key.Binding
	down    key.Binding
	next    key.Binding
	prev    key.Binding
	tab     key.Binding
	search  key.Binding
	status  key.Binding
	group   key.Binding
	sort    key.Binding
	order   key.Binding
	advance key.Binding
	remove  key.Binding
	open    key.Binding
	refresh key.Binding
	back    key.Binding
	help    key.Binding
	quit    key.Binding
}

func newKeyMap() keyMap {
	return keyMap{
		up:      key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		down:    key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		next:    key.NewBinding(key.WithKeys("n", "right"), key.WithHelp("n/→", "next page")),
		prev:    key.NewBinding(key.WithKeys("p", "left"), key.WithHelp("p/←", "prev page")),
		tab:     key.NewBinding(key.WithKeys("tab"), key.WithHelp("tab", "switch list")),
		search:  key.NewBinding(key.WithKeys("/"), key.WithHelp("/", "search")),
		status:  key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "status filter")),
		group:   key.NewBinding(key.WithKeys("g"), key.WithHelp("g", "company filter")),
		sort:    key.NewBinding(key.WithKeys("o"), key.WithHelp("o", "sort field")),
		order:   key.NewBinding(key.WithKeys("O"), key.WithHelp("O", "flip order")),
		advance: key.NewBinding(key.WithKeys("x"), key.WithHelp("x", "next status")),
		remove:  key.NewBinding(key.WithKeys("d"), key.WithHelp("d d", "delete")),
		open:    key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "details")),
		refresh: key.NewBinding(key.WithKeys("r"), key.WithHelp("r", "refresh")),
		back:    key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		help:    key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "more")),
		quit:    key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
	}
}

func (k keyMap) ShortHelp() []key.Binding {
	return []key.Binding{k.search, k.tab, k.next, k.prev, k.status, k.help, k.quit}
}

func (k keyMap) FullHelp() [][]key.Binding {
	return [][]key.Binding{
		{k.up, k.down, k.next, k.prev},
		{k.tab, k.search, k.back, k.open},
		{k.status, k.group, k.sort, k.order},
		{k.advance, k.remove, k.refresh, k.quit},
	}
}
