package main

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/urfave/cli/v3"

	"github.com/desertthunder/rhytm/internal/beatport"
	"github.com/desertthunder/rhytm/internal/library"
	"github.com/desertthunder/rhytm/internal/repositories"
	"github.com/desertthunder/rhytm/internal/services"
	"github.com/desertthunder/rhytm/internal/shared"
	"github.com/desertthunder/rhytm/internal/tasks"
)

// Runner holds all dependencies for CLI commands and provides methods for each command action.
//
// The store and library manager are opened on first use so commands like setup and help
// never touch the database.
type Runner struct {
	config     *shared.Config
	configPath string
	httpClient *http.Client
	logger     *log.Logger
	output     io.Writer
	catalog    beatport.Catalog

	mu     sync.Mutex
	store  *repositories.Store
	lib    *library.Manager
	engine *tasks.Engine
}

// RunnerOpts contains configuration options for creating a Runner.
type RunnerOpts struct {
	Config     *shared.Config
	ConfigPath string
	HTTPClient *http.Client
	Logger     *log.Logger
	Output     io.Writer
	Catalog    beatport.Catalog
	Library    *library.Manager // preloaded library; skips opening the configured database
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
	if opts.Catalog == nil {
		opts.Catalog = beatport.Generator{}
	}

	return &Runner{
		config:     opts.Config,
		configPath: opts.ConfigPath,
		httpClient: opts.HTTPClient,
		logger:     opts.Logger,
		output:     opts.Output,
		catalog:    opts.Catalog,
		lib:        opts.Library,
	}
}

func (r *Runner) register() []*cli.Command {
	commands := []*cli.Command{}
	for _, fn := range [](func(*Runner) *cli.Command){
		setupCommand, libraryCommand, collectionCommand, exportCommand, importCommand, syncCommand, serveCommand, tuiCommand,
	} {
		commands = append(commands, fn(r))
	}

	return commands
}

// SetLogger replaces the logger, e.g. with a file logger while the TUI owns the terminal.
func (r *Runner) SetLogger(l *log.Logger) {
	r.logger = l
}

// apiClient returns a client for the configured sync remote, or nil when none is set.
func (r *Runner) apiClient() *services.Client {
	if r.config.Sync.RemoteURL == "" {
		return nil
	}
	return services.NewClient(r.config.Sync.RemoteURL, r.httpClient)
}

// prober checks sync.probe_url when set, otherwise the remote's /health.
func (r *Runner) prober() *services.Prober {
	interval := time.Duration(r.config.Sync.ProbeInterval) * time.Second
	if r.config.Sync.ProbeURL != "" {
		return services.NewProber(services.NewClient(r.config.Sync.ProbeURL, r.httpClient), "", interval, r.logger)
	}
	if api := r.apiClient(); api != nil {
		return services.NewProber(api, services.HealthPath, interval, r.logger)
	}
	return nil
}

// library opens the store and loads the library on first call.
//
// With a sync remote configured the manager starts offline, so mutations are queued
// until a sync run or a connectivity probe replays them.
func (r *Runner) library() (*library.Manager, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.lib != nil {
		return r.lib, nil
	}

	store, err := repositories.Open(r.config.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database %s: %w", r.config.Database.Path, err)
	}
	shared.ConfigureDatabase(store.DB(), r.config.Database.MaxOpenConns, r.config.Database.MaxIdleConns)

	opts := library.Options{
		Store:     store,
		Logger:    r.logger,
		UserID:    r.config.Library.UserID,
		RateLimit: r.config.Sync.RateLimit,
	}
	if api := r.apiClient(); api != nil {
		opts.Replayer = services.NewSyncClient(api)
		opts.Offline = true
	}

	lib := library.New(opts)
	if err := lib.LoadFromStorage(); err != nil {
		store.Close()
		return nil, err
	}

	r.store = store
	r.lib = lib
	return lib, nil
}

// tasks returns the task engine bound to the library.
func (r *Runner) tasks() (*tasks.Engine, error) {
	lib, err := r.library()
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.engine == nil {
		r.engine = tasks.NewEngine(lib, r.catalog, r.logger)
	}
	return r.engine, nil
}

// Close releases the database when one was opened.
func (r *Runner) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.store == nil {
		return nil
	}
	err := r.store.Close()
	r.store = nil
	return err
}

func (r *Runner) writeJSON(data any, pretty bool) error {
	output, err := shared.MarshalJSON(data, pretty)
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	if _, err := r.output.Write(output); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}

	if _, err := r.output.Write([]byte("\n")); err != nil {
		return fmt.Errorf("failed to write newline: %w", err)
	}

	return nil
}

func (r *Runner) writePlain(format string, args ...any) error {
	text := fmt.Sprintf(format, args...)
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainln(format string, args ...any) error {
	text := "\n" + fmt.Sprintf(format, args...) + "\n"
	if _, err := r.output.Write([]byte(text)); err != nil {
		return fmt.Errorf("failed to write output: %w", err)
	}
	return nil
}

func (r *Runner) writePlainHeader(title string) {
	r.writePlain("═══════════════════════════════════════\n")
	r.writePlain("%v\n", title)
	r.writePlain("═══════════════════════════════════════\n")
}

// printProgress writes progress messages until the returned stop function is called.
//
// stop closes the channel and waits for the printer, so later output never interleaves.
func (r *Runner) printProgress() (chan<- tasks.ProgressUpdate, func()) {
	ch := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range ch {
			r.writePlain("%s\n", update.Message)
		}
	}()
	return ch, func() {
		close(ch)
		<-done
	}
}
