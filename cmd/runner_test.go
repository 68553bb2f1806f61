package main

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/desertthunder/crmx/internal/models"
	"github.com/desertthunder/crmx/internal/repositories"
	"github.com/desertthunder/crmx/internal/server"
	"github.com/desertthunder/crmx/internal/shared"
	tu "github.com/desertthunder/crmx/internal/testing"
	"github.com/desertthunder/crmx/internal/transport"
	"github.com/urfave/cli/v3"
)

// fixture is a development server seeded with three contacts and two tasks.
type fixture struct {
	db       *sql.DB
	url      string
	contacts map[string]models.Contact
	tasks    map[string]models.Task
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db, err := shared.NewDatabase(":memory:")
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := shared.RunMigrations(db); err != nil {
		t.Fatalf("failed to run migrations: %v", err)
	}

	f := &fixture{db: db, contacts: map[string]models.Contact{}, tasks: map[string]models.Task{}}
	contactRepo := repositories.NewContactRepository(db)
	for _, c := range []models.Contact{
		{FirstName: "Ada", LastName: "Lovelace", Email: "ada@example.com", Company: "Analytical", Status: models.ContactLead},
		{FirstName: "Grace", LastName: "Hopper", Email: "grace@example.com", Company: "Navy", Status: models.ContactCustomer},
		{FirstName: "Alan", LastName: "Turing", Email: "alan@example.com", Company: "Bletchley", Status: models.ContactLead},
	} {
		if err := contactRepo.Create(&c); err != nil {
			t.Fatalf("failed to seed contact: %v", err)
		}
		f.contacts[c.FirstName] = c
	}

	taskRepo := repositories.NewTaskRepository(db)
	ada := f.contacts["Ada"].ID
	for _, task := range []models.Task{
		{Title: "Call Ada", Description: "About the engine", DueDate: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), ContactID: ada},
		{Title: "Email Ada", Description: "Send the notes", DueDate: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC), ContactID: ada},
	} {
		if err := taskRepo.Create(&task); err != nil {
			t.Fatalf("failed to seed task: %v", err)
		}
		f.tasks[task.Title] = task
	}

	srv := httptest.NewServer(server.New(db, server.Options{Logger: shared.NewLogger(io.Discard)}))
	t.Cleanup(srv.Close)
	f.url = srv.URL
	return f
}

// runner returns a Runner pointed at the fixture with caching disabled.
func (f *fixture) runner(output io.Writer) *Runner {
	config := shared.DefaultConfig()
	config.API.BaseURL = f.url
	config.API.CacheTTL = shared.Duration{}
	config.Lists.PageSize = 10
	return NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard), Output: output})
}

func run(t *testing.T, r *Runner, args ...string) error {
	t.Helper()
	app := &cli.Command{
		Name:      "crmx",
		Commands:  r.register(),
		Writer:    io.Discard,
		ErrWriter: io.Discard,
	}
	return app.Run(context.Background(), append([]string{"crmx"}, args...))
}

type exported struct {
	Items      []map[string]any  `json:"items"`
	Pagination models.Pagination `json:"pagination"`
	Counts     map[string]int    `json:"counts"`
}

func decodeExport(t *testing.T, data []byte) exported {
	t.Helper()
	var e exported
	if err := json.Unmarshal(data, &e); err != nil {
		t.Fatalf("invalid JSON export %q: %v", data, err)
	}
	return e
}

func TestRunner(t *testing.T) {
	t.Run("NewRunner", func(t *testing.T) {
		t.Run("With All Dependencies Provided", func(t *testing.T) {
			config := shared.DefaultConfig()
			logger := shared.NewLogger(nil)
			output := &bytes.Buffer{}
			httpClient := &http.Client{}

			runner := NewRunner(RunnerOpts{
				Config:     config,
				ConfigPath: "/test/path/config.toml",
				Logger:     logger,
				Output:     output,
				HTTPClient: httpClient,
			})

			if runner.config != config {
				t.Error("expected config to be set")
			}
			if runner.configPath != "/test/path/config.toml" {
				t.Errorf("expected configPath to be set, got %s", runner.configPath)
			}
			if runner.logger != logger {
				t.Error("expected logger to be set")
			}
			if runner.output != output {
				t.Error("expected output to be set")
			}
			if runner.httpClient != httpClient {
				t.Error("expected httpClient to be set")
			}
		})

		t.Run("With Nil Dependencies Uses Defaults", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{})

			if runner.config == nil {
				t.Error("expected default config to be set")
			}
			if runner.logger == nil {
				t.Error("expected default logger to be set")
			}
			if runner.output != os.Stdout {
				t.Error("expected output to default to os.Stdout")
			}
			if runner.httpClient != http.DefaultClient {
				t.Error("expected httpClient to default to http.DefaultClient")
			}
		})
	})

	t.Run("writePlain", func(t *testing.T) {
		t.Run("Writes Plain Text Successfully", func(t *testing.T) {
			output := &bytes.Buffer{}
			runner := NewRunner(RunnerOpts{Output: output})

			if err := runner.writePlain("hello %s", "world"); err != nil {
				t.Fatalf("expected no error, got %v", err)
			}
			if result := output.String(); result != "hello world" {
				t.Errorf("expected 'hello world', got %q", result)
			}
		})

		t.Run("Handles Write Failure", func(t *testing.T) {
			runner := NewRunner(RunnerOpts{Output: &tu.FWriter{}})

			err := runner.writePlain("test")
			if err == nil || !strings.Contains(err.Error(), "failed to write output") {
				t.Errorf("expected write error, got %v", err)
			}
		})

		t.Run("Fails Once The Writer Is Exhausted", func(t *testing.T) {
			buf := &bytes.Buffer{}
			limited := tu.NewLimitedWriter(1, 0, buf)
			runner := NewRunner(RunnerOpts{Output: &limited})

			if err := runner.writePlain("first\n"); err != nil {
				t.Fatalf("expected first write to succeed, got %v", err)
			}
			if err := runner.writePlain("second\n"); err == nil {
				t.Error("expected second write to fail")
			}
			if buf.String() != "first\n" {
				t.Errorf("expected only the first write, got %q", buf.String())
			}
		})
	})

	t.Run("register", func(t *testing.T) {
		runner := NewRunner(RunnerOpts{})
		commands := runner.register()

		want := []string{"setup", "serve", "contacts", "tasks", "tui"}
		if len(commands) != len(want) {
			t.Fatalf("expected %d commands, got %d", len(want), len(commands))
		}
		for i, cmd := range commands {
			if cmd == nil || cmd.Name != want[i] {
				t.Errorf("expected command %q at index %d, got %+v", want[i], i, cmd)
			}
		}
	})

	t.Run("loadConfig", func(t *testing.T) {
		t.Run("Missing File Keeps Current Config", func(t *testing.T) {
			config := shared.DefaultConfig()
			runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})

			path := filepath.Join(t.TempDir(), "missing.toml")
			if err := run(t, runner, "contacts", "ls", "--config", path, "--format", "bogus"); !errors.Is(err, shared.ErrInvalidFlag) {
				t.Fatalf("expected ErrInvalidFlag, got %v", err)
			}
			if runner.config != config {
				t.Error("expected config to be kept")
			}
		})

		t.Run("Invalid File Is An Error", func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "config.toml")
			if err := os.WriteFile(path, []byte("[lists]\npage_size = 0\n"), 0o644); err != nil {
				t.Fatalf("failed to write config: %v", err)
			}
			runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard)})

			if err := run(t, runner, "contacts", "ls", "--config", path); !errors.Is(err, shared.ErrInvalidConfig) {
				t.Errorf("expected ErrInvalidConfig, got %v", err)
			}
		})
	})
}

func TestSetup(t *testing.T) {
	t.Run("Creates Config And Database", func(t *testing.T) {
		dir := t.TempDir()
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		if err := os.WriteFile("config.toml", []byte("[database]\npath = \"data/crmx.db\"\n"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
		if err := run(t, runner, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertDirExists(t, "data")
		tu.AssertFileExists(t, filepath.Join("data", "crmx.db"))
		if !strings.Contains(output.String(), "data/crmx.db") {
			t.Errorf("expected database path in output, got %q", output.String())
		}

		db, err := shared.NewDatabase(filepath.Join("data", "crmx.db"))
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()
		applied, err := shared.AppliedVersions(db)
		if err != nil {
			t.Fatalf("failed to read migrations: %v", err)
		}
		if len(applied) == 0 {
			t.Error("expected migrations to be applied")
		}
	})

	t.Run("Rollback", func(t *testing.T) {
		dir := t.TempDir()
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		if err := os.WriteFile("config.toml", []byte("[database]\npath = \"crmx.db\"\n"), 0o644); err != nil {
			t.Fatalf("failed to write config: %v", err)
		}

		output := &bytes.Buffer{}
		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: output})
		if err := run(t, runner, "setup"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if err := run(t, runner, "setup", "--rollback"); err != nil {
			t.Fatalf("expected rollback to succeed, got %v", err)
		}
		if !strings.Contains(output.String(), "Rolled back the latest migration of crmx.db") {
			t.Errorf("expected rollback confirmation, got %q", output.String())
		}

		db, err := shared.NewDatabase("crmx.db")
		if err != nil {
			t.Fatalf("failed to reopen database: %v", err)
		}
		defer db.Close()
		applied, err := shared.AppliedVersions(db)
		if err != nil {
			t.Fatalf("failed to read migrations: %v", err)
		}
		if len(applied) != 0 {
			t.Errorf("expected no applied migrations, got %v", applied)
		}

		if err := run(t, runner, "setup", "--rollback"); err == nil {
			t.Error("expected a second rollback to fail")
		}
	})

	t.Run("Writes Template When Config Is Missing", func(t *testing.T) {
		dir := t.TempDir()
		wd := tu.MustGetwd(t)
		tu.MustChdir(t, dir)
		defer tu.MustChdir(t, wd)

		runner := NewRunner(RunnerOpts{Logger: shared.NewLogger(io.Discard), Output: io.Discard})
		if err := run(t, runner, "setup", "--config", "crmx.toml"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, "crmx.toml")
		if !strings.Contains(tu.MustReadFile(t, "crmx.toml"), "[lists]") {
			t.Error("expected the example config to be written")
		}
		tu.AssertFileExists(t, "crmx.db")
	})
}

func TestServe(t *testing.T) {
	config := shared.DefaultConfig()
	config.Database.Path = ":memory:"
	runner := NewRunner(RunnerOpts{Config: config, Logger: shared.NewLogger(io.Discard)})

	ctx, cancel := context.WithCancel(context.Background())
	app := &cli.Command{Name: "crmx", Commands: runner.register(), Writer: io.Discard, ErrWriter: io.Discard}

	done := make(chan error, 1)
	go func() { done <- app.Run(ctx, []string{"crmx", "serve", "--addr", "127.0.0.1:0"}) }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		if err != nil {
			t.Errorf("expected clean shutdown, got %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("expected serve to stop after cancellation")
	}
}

func TestContactCommands(t *testing.T) {
	t.Run("List As CSV", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "ls", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		lines := strings.Split(strings.TrimSpace(output.String()), "\n")
		if len(lines) != 4 {
			t.Fatalf("expected header and 3 rows, got %q", output.String())
		}
		if lines[0] != "ID,Name,Email,Phone,Company,Status" {
			t.Errorf("unexpected header %q", lines[0])
		}
		for _, name := range []string{"Ada Lovelace", "Grace Hopper", "Alan Turing"} {
			if !strings.Contains(output.String(), name) {
				t.Errorf("expected %s in output", name)
			}
		}
	})

	t.Run("Paging", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "ls", "--limit", "2", "--page", "2", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		e := decodeExport(t, output.Bytes())
		if len(e.Items) != 1 {
			t.Errorf("expected 1 item on page 2, got %d", len(e.Items))
		}
		if e.Pagination.CurrentPage != 2 || e.Pagination.PageCount != 2 || e.Pagination.Total != 3 {
			t.Errorf("unexpected pagination %+v", e.Pagination)
		}
	})

	t.Run("Status And Group Filters", func(t *testing.T) {
		tests := []struct {
			name  string
			args  []string
			total int
		}{
			{name: "Status", args: []string{"--status", "lead"}, total: 2},
			{name: "Group", args: []string{"--group", "Navy"}, total: 1},
			{name: "Status And Group", args: []string{"--status", "LEAD", "--group", "Navy"}, total: 0},
		}

		f := newFixture(t)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				output := &bytes.Buffer{}
				args := append([]string{"contacts", "ls", "--format", "json"}, tt.args...)
				if err := run(t, f.runner(output), args...); err != nil {
					t.Fatalf("expected no error, got %v", err)
				}

				e := decodeExport(t, output.Bytes())
				if len(e.Items) != tt.total || e.Pagination.Total != tt.total {
					t.Errorf("expected %d records, got %d (pagination %+v)", tt.total, len(e.Items), e.Pagination)
				}
				if e.Counts["TOTAL"] != 3 {
					t.Errorf("expected counts over every record, got %v", e.Counts)
				}
			})
		}
	})

	t.Run("Sort By Name", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "ls", "--sort", "name", "--order", "asc", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		hopper, lovelace, turing := strings.Index(out, "Hopper"), strings.Index(out, "Lovelace"), strings.Index(out, "Turing")
		if !(hopper < lovelace && lovelace < turing) {
			t.Errorf("expected last-name order, got %q", out)
		}
	})

	t.Run("Invalid Flags", func(t *testing.T) {
		tests := []struct {
			name string
			args []string
			want error
		}{
			{name: "Unknown Status", args: []string{"--status", "BOGUS"}, want: shared.ErrNoSuchStatus},
			{name: "Unknown Format", args: []string{"--format", "xml"}, want: shared.ErrInvalidFlag},
			{name: "Unknown Sort", args: []string{"--sort", "color"}, want: shared.ErrInvalidFlag},
			{name: "Unknown Order", args: []string{"--order", "sideways"}, want: shared.ErrInvalidFlag},
		}

		f := newFixture(t)
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				args := append([]string{"contacts", "ls"}, tt.args...)
				if err := run(t, f.runner(io.Discard), args...); !errors.Is(err, tt.want) {
					t.Errorf("expected %v, got %v", tt.want, err)
				}
			})
		}
	})

	t.Run("Search", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "search", "--format", "markdown", "grace"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if !strings.Contains(out, "Grace Hopper") || strings.Contains(out, "Alan Turing") {
			t.Errorf("expected only Grace Hopper, got %q", out)
		}
		if !strings.HasPrefix(out, "# ") {
			t.Errorf("expected a markdown title, got %q", out)
		}
	})

	t.Run("Search Requires A Query", func(t *testing.T) {
		f := newFixture(t)
		if err := run(t, f.runner(io.Discard), "contacts", "search"); !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Export To File", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		path := filepath.Join(t.TempDir(), "contacts.csv")
		if err := run(t, f.runner(output), "contacts", "ls", "--format", "csv", "--output", path); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		tu.AssertFileExists(t, path)
		if !strings.Contains(tu.MustReadFile(t, path), "Ada Lovelace") {
			t.Error("expected records in the exported file")
		}
		if !strings.Contains(output.String(), "Wrote "+path) {
			t.Errorf("expected confirmation, got %q", output.String())
		}
	})

	t.Run("Change Status", func(t *testing.T) {
		f := newFixture(t)
		ada := f.contacts["Ada"]

		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "status", ada.ID, "customer"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Ada Lovelace is now CUSTOMER") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		got, err := repositories.NewContactRepository(f.db).Get(ada.ID)
		if err != nil {
			t.Fatalf("failed to reload contact: %v", err)
		}
		if got.Status != models.ContactCustomer {
			t.Errorf("expected CUSTOMER, got %s", got.Status)
		}

		output.Reset()
		if err := run(t, f.runner(output), "contacts", "status", ada.ID, "CUSTOMER"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "already CUSTOMER") {
			t.Errorf("expected no-op message, got %q", output.String())
		}
	})

	t.Run("Change Status Rejects Unknown Status", func(t *testing.T) {
		f := newFixture(t)
		err := run(t, f.runner(io.Discard), "contacts", "status", f.contacts["Ada"].ID, "bogus")
		if !errors.Is(err, shared.ErrNoSuchStatus) {
			t.Errorf("expected ErrNoSuchStatus, got %v", err)
		}
	})

	t.Run("Remove Cascades To Tasks", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "rm", f.contacts["Ada"].ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Ada Lovelace deleted") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		tasks, total, err := repositories.NewTaskRepository(f.db).List(repositories.ListOptions{})
		if err != nil {
			t.Fatalf("failed to list tasks: %v", err)
		}
		if total != 0 || len(tasks) != 0 {
			t.Errorf("expected tasks to be removed with their contact, got %d", total)
		}
	})

	t.Run("Add Contact", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		err := run(t, f.runner(output), "contacts", "add",
			"--first", "Katherine", "--last", "Johnson", "--email", "kj@example.com", "--company", "NASA")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Katherine Johnson created (") {
			t.Errorf("expected confirmation with id, got %q", output.String())
		}

		contacts, total, err := repositories.NewContactRepository(f.db).List(repositories.ListOptions{Query: "Katherine"})
		if err != nil {
			t.Fatalf("failed to list contacts: %v", err)
		}
		if total != 1 || contacts[0].Status != models.ContactLead || contacts[0].Company != "NASA" {
			t.Errorf("expected a new LEAD at NASA, got %+v", contacts)
		}
	})

	t.Run("Add Reports Field Errors", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		err := run(t, f.runner(output), "contacts", "add", "--first", "Kay", "--email", "kay@example.com")

		if !errors.Is(err, shared.ErrInvalidInput) || transport.KindOf(err) != transport.KindValidation {
			t.Errorf("expected a validation failure, got %v", err)
		}
		if !strings.Contains(output.String(), "lastName: last name is required") {
			t.Errorf("expected the rejected field, got %q", output.String())
		}
		if _, total, _ := repositories.NewContactRepository(f.db).List(repositories.ListOptions{}); total != 3 {
			t.Errorf("expected no contact to be created, got %d", total)
		}
	})

	t.Run("Edit Contact", func(t *testing.T) {
		f := newFixture(t)
		ada := f.contacts["Ada"]

		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "contacts", "edit", "--company", "Difference Engine", ada.ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Ada Lovelace updated") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		got, err := repositories.NewContactRepository(f.db).Get(ada.ID)
		if err != nil {
			t.Fatalf("failed to reload contact: %v", err)
		}
		if got.Company != "Difference Engine" || got.Email != ada.Email || got.Status != ada.Status {
			t.Errorf("expected only the company to change, got %+v", got)
		}
	})

	t.Run("Edit Requires A Field", func(t *testing.T) {
		f := newFixture(t)
		err := run(t, f.runner(io.Discard), "contacts", "edit", f.contacts["Ada"].ID)
		if !errors.Is(err, shared.ErrMissingArgument) {
			t.Errorf("expected ErrMissingArgument, got %v", err)
		}
	})

	t.Run("Missing Arguments", func(t *testing.T) {
		f := newFixture(t)
		for _, args := range [][]string{
			{"contacts", "status"},
			{"contacts", "status", "only-id"},
			{"contacts", "rm"},
		} {
			if err := run(t, f.runner(io.Discard), args...); !errors.Is(err, shared.ErrMissingArgument) {
				t.Errorf("%v: expected ErrMissingArgument, got %v", args, err)
			}
		}
	})
}

func TestTaskCommands(t *testing.T) {
	t.Run("Sort By Due Date", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "tasks", "ls", "--sort", "dueDate", "--order", "asc", "--format", "csv"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		out := output.String()
		if strings.Index(out, "Email Ada") > strings.Index(out, "Call Ada") {
			t.Errorf("expected the earlier due date first, got %q", out)
		}
		if !strings.Contains(out, "Ada Lovelace") {
			t.Errorf("expected the contact name column, got %q", out)
		}
	})

	t.Run("Server Status Filter", func(t *testing.T) {
		f := newFixture(t)
		if _, err := repositories.NewTaskRepository(f.db).SetStatus(f.tasks["Call Ada"].ID, models.TaskCompleted); err != nil {
			t.Fatalf("failed to set status: %v", err)
		}

		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "tasks", "ls", "--status", "completed", "--format", "json"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		e := decodeExport(t, output.Bytes())
		if len(e.Items) != 1 || e.Items[0]["title"] != "Call Ada" {
			t.Errorf("expected only Call Ada, got %v", e.Items)
		}
		if e.Counts[models.TaskCompleted] != 1 || e.Counts["TOTAL"] != 2 {
			t.Errorf("unexpected counts %v", e.Counts)
		}
	})

	t.Run("Search Keeps Status Filter", func(t *testing.T) {
		f := newFixture(t)
		if _, err := repositories.NewTaskRepository(f.db).SetStatus(f.tasks["Call Ada"].ID, models.TaskCompleted); err != nil {
			t.Fatalf("failed to set status: %v", err)
		}

		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "tasks", "search", "--status", "completed", "--format", "json", "Ada"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		e := decodeExport(t, output.Bytes())
		if len(e.Items) != 1 || e.Items[0]["title"] != "Call Ada" {
			t.Errorf("expected only Call Ada, got %v", e.Items)
		}
	})

	t.Run("Add And Edit Task", func(t *testing.T) {
		f := newFixture(t)
		ada := f.contacts["Ada"].ID

		output := &bytes.Buffer{}
		err := run(t, f.runner(output), "tasks", "add",
			"--title", "Visit Ada", "--description", "Bring the punch cards", "--due", "2024-04-01", "--contact", ada)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Visit Ada created") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		repo := repositories.NewTaskRepository(f.db)
		tasks, _, err := repo.List(repositories.ListOptions{Query: "Visit"})
		if err != nil || len(tasks) != 1 {
			t.Fatalf("expected the new task, got %v (%v)", tasks, err)
		}
		if tasks[0].Status != models.TaskPending || tasks[0].ContactID != ada {
			t.Errorf("unexpected task %+v", tasks[0])
		}

		output.Reset()
		if err := run(t, f.runner(output), "tasks", "edit", "--status", "in_progress", "--due", "2024-05-01", tasks[0].ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		got, err := repo.Get(tasks[0].ID)
		if err != nil {
			t.Fatalf("failed to reload task: %v", err)
		}
		if got.Status != models.TaskInProgress || got.DueDate.Format("2006-01-02") != "2024-05-01" {
			t.Errorf("expected IN_PROGRESS due 2024-05-01, got %s %v", got.Status, got.DueDate)
		}
		if got.Title != "Visit Ada" {
			t.Errorf("expected title to be kept, got %q", got.Title)
		}
	})

	t.Run("Add Rejects A Bad Due Date", func(t *testing.T) {
		f := newFixture(t)
		err := run(t, f.runner(io.Discard), "tasks", "add", "--title", "x", "--due", "tomorrow")
		if !errors.Is(err, shared.ErrInvalidFlag) {
			t.Errorf("expected ErrInvalidFlag, got %v", err)
		}
	})

	t.Run("Show", func(t *testing.T) {
		f := newFixture(t)
		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "tasks", "show", "--format", "json", f.tasks["Email Ada"].ID); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}

		e := decodeExport(t, output.Bytes())
		if len(e.Items) != 1 || e.Items[0]["title"] != "Email Ada" {
			t.Errorf("expected Email Ada, got %v", e.Items)
		}
	})

	t.Run("Show Missing Task", func(t *testing.T) {
		f := newFixture(t)
		err := run(t, f.runner(io.Discard), "tasks", "show", "nope")

		failure, ok := transport.AsFailure(err)
		if !ok {
			t.Fatalf("expected a transport failure, got %v", err)
		}
		if failure.Status != http.StatusNotFound {
			t.Errorf("expected 404, got %d", failure.Status)
		}
	})

	t.Run("Status And Remove", func(t *testing.T) {
		f := newFixture(t)
		id := f.tasks["Call Ada"].ID

		output := &bytes.Buffer{}
		if err := run(t, f.runner(output), "tasks", "status", id, "in_progress"); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Call Ada is now IN_PROGRESS") {
			t.Errorf("expected confirmation, got %q", output.String())
		}

		output.Reset()
		if err := run(t, f.runner(output), "tasks", "rm", id); err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if !strings.Contains(output.String(), "Call Ada deleted") {
			t.Errorf("expected confirmation, got %q", output.String())
		}
		if _, err := repositories.NewTaskRepository(f.db).Get(id); !errors.Is(err, shared.ErrTaskNotFound) {
			t.Errorf("expected ErrTaskNotFound, got %v", err)
		}
	})

	t.Run("Network Failure", func(t *testing.T) {
		config := shared.DefaultConfig()
		config.API.BaseURL = "http://crmx.invalid"
		client := &http.Client{Transport: tu.RoundTripFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("connection refused")
		})}
		runner := NewRunner(RunnerOpts{Config: config, HTTPClient: client, Logger: shared.NewLogger(io.Discard), Output: io.Discard})

		err := run(t, runner, "tasks", "ls")
		if kind := transport.KindOf(err); kind != transport.KindNetwork {
			t.Errorf("expected a network failure, got %v (%v)", kind, err)
		}
	})
}
