package main

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crmx/internal/listsync"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/ui"
	"github.com/urfave/cli/v3"
)

// TUI launches the interactive terminal UI with a contacts tab and a tasks tab.
func (r *Runner) TUI(ctx context.Context, cmd *cli.Command) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, err := shared.NewFileLogger(r.config.Log.File)
	if err != nil {
		return fmt.Errorf("failed to create file logger: %w", err)
	}
	if err := shared.ApplyLogLevel(fileLogger, r.config.Log.Level); err != nil {
		return err
	}
	r.SetLogger(fileLogger)

	views := make([]*listsync.View, 0, 2)
	for _, name := range []string{"contacts", "tasks"} {
		src, err := r.source(name)
		if err != nil {
			return err
		}
		views = append(views, r.newView(ctx, src, 0))
	}

	model := ui.NewModel(ctx, views...)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("error running TUI: %w", err)
	}

	return nil
}
