package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/crmx/internal/formatter"
	"github.com/desertthunder/crmx/internal/listsync"
	"github.com/desertthunder/crmx/internal/services"
	"github.com/desertthunder/crmx/internal/shared"
	"github.com/desertthunder/crmx/internal/transport"
	"github.com/urfave/cli/v3"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
}

// NewRunner creates a new Runner with the provided configuration
func NewRunner(opts RunnerOpts) *Runner {
	if opts.Config == nil {
		opts.Config = shared.DefaultConfig()
	}
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(nil)
	}
	if opts.Output == nil {
		opts.Output = os.Stdout
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = http.DefaultClient
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, serveCommand, contactsCommand, tasksCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// loadConfig replaces the runner's config with the file named by --config, when it exists.
func (r *Runner) loadConfig(cmd *cli.Command) error {
	path := cmd.String("config")
	if path == "" || path == r.configPath {
		return nil
	}
	if _, err := os.Stat(path); err != nil {
		r.logger.Debug("config file not found, using defaults", "path", path)
		return nil
	}

	config, err := shared.LoadConfig(path)
	if err != nil {
		return err
	}
	r.config = config
	r.configPath = path
	return shared.ApplyLogLevel(r.logger, config.Log.Level)
}

// source builds the typed service for collection over a transport client configured from the api section.
func (r *Runner) source(collection string) (services.Source, error) {
	client, err := transport.FromConfig(r.config, r.httpClient, r.logger)
	if err != nil {
		return nil, err
	}

	switch strings.ToLower(collection) {
	case "contacts":
		return services.NewContactService(client), nil
	case "tasks":
		return services.NewTaskService(client), nil
	default:
		return nil, fmt.Errorf("%w: unknown collection %q", shared.ErrInvalidArgument, collection)
	}
}

// newView creates a list view of src. Contacts filter status locally.
func (r *Runner) newView(ctx context.Context, src services.Source, pageSize int) *listsync.View {
	if pageSize <= 0 {
		pageSize = r.config.Lists.PageSize
	}
	return listsync.NewView(ctx, src.Name(), src, listsync.Options{
		PageSize:      pageSize,
		Debounce:      r.config.Lists.Debounce.Duration,
		FilterLocally: src.Name() == "contacts",
		SupersetSize:  r.config.Lists.SupersetSize,
		Logger:        r.logger,
	})
}

// drive runs cmd to completion against v and returns the error the view settled on.
func (r *Runner) drive(ctx context.Context, v *listsync.View, cmd tea.Cmd) (listsync.Snapshot, error) {
	if err := listsync.Drive(ctx, v, cmd); err != nil {
		return listsync.Snapshot{}, err
	}
	snap := v.Snapshot()
	return snap, snap.Err
}

// export writes e to --output when set, otherwise to the runner's output.
func (r *Runner) export(cmd *cli.Command, e *formatter.Export) error {
	format, err := formatter.ParseFormat(cmd.String("format"))
	if err != nil {
		return err
	}

	if path := cmd.String("output"); path != "" {
		written, err := formatter.WriteFile(path, format, e)
		if err != nil {
			return err
		}
		r.logger.Info("export written", "path", written, "format", format)
		return r.writePlain("Wrote %s\n", written)
	}
	return formatter.Write(r.output, format, e)
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}
