package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var styles = NewPalette("#7D56F4", "#04B575", "#FF0000", "#FFA500", "#626262")

// struct Palette is a simple stylesheet built with named [lipgloss.Style] fields
type Palette struct {
	title     lipgloss.Style
	tab       lipgloss.Style
	activeTab lipgloss.Style
	selected  lipgloss.Style
	pending   lipgloss.Style
	header    lipgloss.Style
	ok        lipgloss.Style
	err       lipgloss.Style
	warn      lipgloss.Style
	help      lipgloss.Style
}

// NewPalette builds the stylesheet from the accent, success, error, warning and muted colors.
func NewPalette(accent, success, failure, warning, muted string) *Palette {
	return &Palette{
		title:     NewBold(accent).MarginBottom(1),
		tab:       NewStyle(muted).Padding(0, 1),
		activeTab: NewBold("#FFFFFF").Background(lipgloss.Color(accent)).Padding(0, 1),
		selected:  NewBold(accent),
		pending:   NewEm(muted),
		header:    NewBold(muted),
		ok:        NewBold(success),
		err:       NewBold(failure),
		warn:      NewStyle(warning),
		help:      NewEm(muted),
	}
}

func NewStyle(fg string) lipgloss.Style {
	return lipgloss.NewStyle().Foreground(lipgloss.Color(fg))
}

func NewBold(fg string) lipgloss.Style {
	return NewStyle(fg).Bold(true)
}

func NewEm(fg string) lipgloss.Style {
	return NewStyle(fg).Italic(true)
}
