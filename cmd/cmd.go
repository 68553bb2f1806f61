// submodule cmd contains command definitions
package main

import (
	"strings"

	"github.com/desertthunder/crmx/internal/formatter"
	"github.com/urfave/cli/v3"
)

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

func formatFlags() []cli.Flag {
	names := make([]string, len(formatter.Formats))
	for i, f := range formatter.Formats {
		names[i] = string(f)
	}
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "format",
			Aliases: []string{"f"},
			Usage:   "Output format (" + strings.Join(names, ", ") + ")",
			Value:   string(formatter.FormatText),
		},
		&cli.StringFlag{
			Name:    "output",
			Aliases: []string{"o"},
			Usage:   "Write the export to a file instead of stdout",
		},
	}
}

// pageFlags are shared by ls and search.
func pageFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "limit",
			Usage: "Records per page (defaults to lists.page_size)",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "Sort field (createdAt, updatedAt, dueDate, name)",
		},
		&cli.StringFlag{
			Name:  "order",
			Usage: "Sort order (asc, desc)",
		},
	}
}

func listFlags() []cli.Flag {
	flags := []cli.Flag{
		configFlag(),
		&cli.StringFlag{
			Name:    "status",
			Aliases: []string{"s"},
			Usage:   "Only show records with this status",
		},
		&cli.StringFlag{
			Name:    "group",
			Aliases: []string{"g"},
			Usage:   "Only show records in this group (company for contacts, contact company for tasks)",
		},
	}
	flags = append(flags, pageFlags()...)
	return append(flags, formatFlags()...)
}

// fieldFlags are the record fields accepted by add and edit.
func fieldFlags(collection string) []cli.Flag {
	flags := []cli.Flag{configFlag()}
	if collection == "tasks" {
		return append(flags,
			&cli.StringFlag{Name: "title", Usage: "Task title (1-100 characters)"},
			&cli.StringFlag{Name: "description", Aliases: []string{"d"}, Usage: "Task description (1-500 characters)"},
			&cli.StringFlag{Name: "due", Usage: "Due date (YYYY-MM-DD)"},
			&cli.StringFlag{Name: "contact", Usage: "ID of the contact the task belongs to"},
			&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Task status (new tasks default to PENDING)"},
		)
	}
	return append(flags,
		&cli.StringFlag{Name: "first", Usage: "First name"},
		&cli.StringFlag{Name: "last", Usage: "Last name"},
		&cli.StringFlag{Name: "email", Usage: "Email address"},
		&cli.StringFlag{Name: "phone", Usage: "Phone number"},
		&cli.StringFlag{Name: "company", Usage: "Company"},
		&cli.StringFlag{Name: "status", Aliases: []string{"s"}, Usage: "Contact status (new contacts default to LEAD)"},
	)
}

func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Write a config file and migrate the development database",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "rollback",
				Usage: "Revert the most recently applied migration instead",
			},
		},
		Action: r.Setup,
	}
}

func serveCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Run the development contacts & tasks API over sqlite",
		Flags: []cli.Flag{
			configFlag(),
			&cli.StringFlag{
				Name:  "addr",
				Usage: "Listen address (defaults to server.host:server.port)",
			},
			&cli.StringFlag{
				Name:  "token",
				Usage: "Bearer token required on /api routes (defaults to server.token)",
			},
		},
		Action: r.Serve,
	}
}

// recordCommands builds the ls, search, add, edit, status and rm subcommands of collection.
func recordCommands(r *Runner, collection string) []*cli.Command {
	return []*cli.Command{
		{
			Name:    "ls",
			Aliases: []string{"list"},
			Usage:   "List " + collection,
			Flags:   listFlags(),
			Action:  r.List(collection),
		},
		{
			Name:      "search",
			Usage:     "Search " + collection,
			Arguments: []cli.Argument{&cli.StringArg{Name: "query"}},
			Flags:     listFlags(),
			Action:    r.Search(collection),
		},
		{
			Name:   "add",
			Usage:  "Create a record",
			Flags:  fieldFlags(collection),
			Action: r.Add(collection),
		},
		{
			Name:      "edit",
			Usage:     "Change the fields of a record",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     fieldFlags(collection),
			Action:    r.Edit(collection),
		},
		{
			Name:  "status",
			Usage: "Change the status of a record",
			Arguments: []cli.Argument{
				&cli.StringArg{Name: "id"},
				&cli.StringArg{Name: "status"},
			},
			Flags:  []cli.Flag{configFlag()},
			Action: r.SetStatus(collection),
		},
		{
			Name:      "rm",
			Aliases:   []string{"delete"},
			Usage:     "Delete a record",
			Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
			Flags:     []cli.Flag{configFlag()},
			Action:    r.Remove(collection),
		},
	}
}

func contactsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:     "contacts",
		Aliases:  []string{"c"},
		Usage:    "Contact operations",
		Commands: recordCommands(r, "contacts"),
	}
}

func tasksCommand(r *Runner) *cli.Command {
	commands := recordCommands(r, "tasks")
	commands = append(commands, &cli.Command{
		Name:      "show",
		Usage:     "Show a single task",
		Arguments: []cli.Argument{&cli.StringArg{Name: "id"}},
		Flags:     append([]cli.Flag{configFlag()}, formatFlags()...),
		Action:    r.Show("tasks"),
	})

	return &cli.Command{
		Name:     "tasks",
		Aliases:  []string{"t"},
		Usage:    "Task operations",
		Commands: commands,
	}
}

// tuiCommand returns the top-level TUI command for interactive list management.
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:    "tui",
		Aliases: []string{"interactive", "ui"},
		Usage:   "Launch the interactive contacts & tasks browser",
		Flags:   []cli.Flag{configFlag()},
		Action:  r.TUI,
	}
}
