package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
	"github.com/urfave/cli/v3"
)

const dueLayout = "2006-01-02"

// Add creates a record of collection from the field flags.
func (r *Runner) Add(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		if err := r.loadConfig(cmd); err != nil {
			return err
		}

		base, err := blankRecord(collection)
		if err != nil {
			return err
		}
		rec, err := recordFromFlags(cmd, base)
		if err != nil {
			return err
		}

		src, err := r.source(collection)
		if err != nil {
			return err
		}
		v := r.newView(ctx, src, 0)
		defer v.Close()

		snap, err := r.drive(ctx, v, v.Create(rec))
		if err != nil {
			return r.writeFieldErrors(err)
		}
		if n := snap.Notice; n != nil && n.RecordID != "" {
			return r.writePlain("%s (%s)\n", n.Message, n.RecordID)
		}
		return r.writeNotice(snap)
	}
}

// Edit loads a record, applies the field flags that were given and saves it.
func (r *Runner) Edit(collection string) cli.ActionFunc {
	return func(ctx context.Context, cmd *cli.Command) error {
		id := cmd.StringArg("id")
		if id == "" {
			return fmt.Errorf("%w: id", shared.ErrMissingArgument)
		}
		if !anyFieldSet(cmd, collection) {
			return fmt.Errorf("%w: at least one of --%s", shared.ErrMissingArgument, strings.Join(fieldNames(collection), ", --"))
		}

		v, err := r.loadedView(ctx, cmd, collection, id)
		if err != nil {
			return err
		}
		defer v.Close()

		rec, err := recordFromFlags(cmd, v.Snapshot().Detail)
		if err != nil {
			return err
		}
		snap, err := r.drive(ctx, v, v.Save(rec))
		if err != nil {
			return r.writeFieldErrors(err)
		}
		return r.writeNotice(snap)
	}
}

// writeFieldErrors prints one line per rejected field of a validation failure and returns err unchanged.
func (r *Runner) writeFieldErrors(err error) error {
	if transport.KindOf(err) != transport.KindValidation {
		return err
	}
	f, _ := transport.AsFailure(err)
	for _, name := range f.FieldNames() {
		if werr := r.writePlain("%s: %s\n", name, f.Fields[name]); werr != nil {
			return werr
		}
	}
	return err
}

func blankRecord(collection string) (models.Record, error) {
	switch collection {
	case "contacts":
		return models.Contact{Status: models.ContactLead}, nil
	case "tasks":
		return models.Task{Status: models.TaskPending}, nil
	}
	return nil, fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, collection)
}

// recordFromFlags overlays the flags that were set onto base.
func recordFromFlags(cmd *cli.Command, base models.Record) (models.Record, error) {
	switch rec := base.(type) {
	case models.Contact:
		setString(cmd, "first", &rec.FirstName)
		setString(cmd, "last", &rec.LastName)
		setString(cmd, "email", &rec.Email)
		setString(cmd, "phone", &rec.Phone)
		setString(cmd, "company", &rec.Company)
		setStatus(cmd, &rec.Status)
		return rec, nil
	case models.Task:
		setString(cmd, "title", &rec.Title)
		setString(cmd, "description", &rec.Description)
		setString(cmd, "contact", &rec.ContactID)
		setStatus(cmd, &rec.Status)
		if cmd.IsSet("due") {
			due, err := time.Parse(dueLayout, strings.TrimSpace(cmd.String("due")))
			if err != nil {
				return nil, fmt.Errorf("%w: --due must look like %s", shared.ErrInvalidFlag, dueLayout)
			}
			rec.DueDate = due
		}
		return rec, nil
	}
	return nil, fmt.Errorf("%w: %T", shared.ErrInvalidArgument, base)
}

func setString(cmd *cli.Command, name string, dst *string) {
	if cmd.IsSet(name) {
		*dst = strings.TrimSpace(cmd.String(name))
	}
}

func setStatus(cmd *cli.Command, dst *string) {
	if cmd.IsSet("status") {
		*dst = strings.ToUpper(strings.TrimSpace(cmd.String("status")))
	}
}

func fieldNames(collection string) []string {
	if collection == "tasks" {
		return []string{"title", "description", "due", "contact", "status"}
	}
	return []string{"first", "last", "email", "phone", "company", "status"}
}

func anyFieldSet(cmd *cli.Command, collection string) bool {
	for _, name := range fieldNames(collection) {
		if cmd.IsSet(name) {
			return true
		}
	}
	return false
}
