package main

import (
	"context"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/desertthunder/crmx/internal/formatter"
	"github.com/desertthunder/crmx/internal/listsync"
	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/urfave/cli/v3"
)

// List prints one page of collection, applying the status, group, sort and page flags.
func (r *Runner) List(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		return r.listPage(ctx, cmd, collection, "")
	}
}

// Search prints one page of collection matching the query argument.
func (r *Runner) Search(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		query := strings.TrimSpace(cmd.StringArg("query"))
		if query == "" {
			return fmt.Errorf("%w: search query", shared.ErrMissingArgument)
		}
		return r.listPage(ctx, cmd, collection, query)
	}
}

func (r *Runner) listPage(ctx context.Context, cmd *cli.Command, collection, query string) error {
	if err := r.loadConfig(cmd); err != nil {
		return err
	}
	if _, err := formatter.ParseFormat(cmd.String("format")); err != nil {
		return err
	}

	src, err := r.source(collection)
	if err != nil {
		return err
	}
	v := r.newView(ctx, src, cmd.Int("limit"))
	defer v.Close()

	steps, err := querySteps(cmd, v, query)
	if err != nil {
		return err
	}

	var snap listsync.Snapshot
	for _, step := range steps {
		if snap, err = r.drive(ctx, v, step()); err != nil {
			return err
		}
	}

	r.logger.Debug("listed records", "collection", collection, "mode", snap.Mode, "items", len(snap.Items))
	return r.export(cmd, formatter.NewExport(collection, snap.Items, snap.Pagination, snap.Counts))
}

// querySteps turns the flags into the view operations that build the requested query. Each step is driven to
// completion before the next so a local-mode superset is loaded only once.
func querySteps(cmd *cli.Command, v *listsync.View, query string) ([]func() tea.Cmd, error) {
	var steps []func() tea.Cmd

	sortBy, order := listsync.DefaultSortBy, listsync.DefaultOrder
	if s := cmd.String("sort"); s != "" {
		f, err := models.ParseSortField(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
		sortBy = f
	}
	if s := cmd.String("order"); s != "" {
		o, err := models.ParseSortOrder(s)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", shared.ErrInvalidFlag, err)
		}
		order = o
	}
	if sortBy != listsync.DefaultSortBy || order != listsync.DefaultOrder {
		steps = append(steps, func() tea.Cmd { return v.SetSort(sortBy, order) })
	}

	if query != "" {
		steps = append(steps, func() tea.Cmd { return v.SetSearch(query) })
	}

	if cmd.IsSet("status") {
		status := strings.ToUpper(cmd.String("status"))
		if !models.ValidStatus(v.Source().Statuses(), status) {
			return nil, fmt.Errorf("%w: %q is not one of %s", shared.ErrNoSuchStatus, status, strings.Join(v.Source().Statuses(), ", "))
		}
		steps = append(steps, func() tea.Cmd { return v.SetStatusFilter(status) })
	}
	if group := cmd.String("group"); group != "" {
		steps = append(steps, func() tea.Cmd { return v.SetSecondaryFilter(group) })
	}

	if page := cmd.Int("page"); page > 1 {
		steps = append(steps, func() tea.Cmd { return v.SetPage(page) })
	}

	if len(steps) == 0 {
		steps = append(steps, v.Init)
	}
	return steps, nil
}

// SetStatus loads a record and changes its status through the view's optimistic path.
func (r *Runner) SetStatus(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id, status := cmd.StringArg("id"), strings.ToUpper(cmd.StringArg("status"))
		if id == "" || status == "" {
			return fmt.Errorf("%w: id and status", shared.ErrMissingArgument)
		}

		v, err := r.loadedView(ctx, cmd, collection, id)
		if err != nil {
			return err
		}
		defer v.Close()

		if snap := v.Snapshot(); snap.Detail.State() == status {
			return r.writePlain("%s is already %s\n", snap.Detail.Label(), status)
		}
		snap, err := r.drive(ctx, v, v.ChangeStatus(id, status))
		if err != nil {
			return err
		}
		return r.writeNotice(snap)
	}
}

// Remove deletes a record.
func (r *Runner) Remove(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := cmd.StringArg("id")
		if id == "" {
			return fmt.Errorf("%w: id", shared.ErrMissingArgument)
		}

		v, err := r.loadedView(ctx, cmd, collection, id)
		if err != nil {
			return err
		}
		defer v.Close()

		snap, err := r.drive(ctx, v, v.Delete(id))
		if err != nil {
			return err
		}
		return r.writeNotice(snap)
	}
}

// Show prints a single record.
func (r *Runner) Show(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := cmd.StringArg("id")
		if id == "" {
			return fmt.Errorf("%w: id", shared.ErrMissingArgument)
		}

		v, err := r.loadedView(ctx, cmd, collection, id)
		if err != nil {
			return err
		}
		defer v.Close()

		rec := v.Snapshot().Detail
		return r.export(cmd, formatter.NewExport(collection, []models.Record{rec}, models.NewPagination(1, 1, 1), nil))
	}
}

// loadedView returns a view of collection holding record id as its detail.
func (r *Runner) loadedView(ctx context.Context, cmd *cli.Command, collection, id string) (*listsync.View, error) {
	if err := r.loadConfig(cmd); err != nil {
		return nil, err
	}

	src, err := r.source(collection)
	if err != nil {
		return nil, err
	}

	v := r.newView(ctx, src, 0)
	snap, err := r.drive(ctx, v, v.LoadRecord(id))
	if err != nil {
		v.Close()
		return nil, err
	}
	if snap.Detail == nil {
		v.Close()
		return nil, fmt.Errorf("%w: %s", shared.ErrRecordNotFound, id)
	}
	return v, nil
}

func (r *Runner) writeNotice(snap listsync.Snapshot) error {
	if snap.Notice == nil {
		return nil
	}
	return r.writePlain("%s\n", snap.Notice.Message)
}
