// Package runtime wires the local store, repositories and output for a
// single CLI invocation.
package runtime

import (
	"context"
	"os"
	"time"

	"github.com/manav03panchal/driverhelper/internal/appstate"
	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/logging"
	"github.com/manav03panchal/driverhelper/internal/output"
	"github.com/manav03panchal/driverhelper/internal/storage"
)

// DatabaseEnv overrides the database path. ":memory:" selects an
// in-memory store.
const DatabaseEnv = "DRIVERHELPER_DATABASE"

// Context holds the application runtime context.
type Context struct {
	DB        *storage.DB
	Repos     appstate.Repos
	State     *appstate.State
	Formatter *output.Formatter
	Config    *config.RuntimeConfig

	Debug bool
}

// Options configures the runtime context.
type Options struct {
	DBPath    string
	InMemory  bool
	Format    output.Format
	ColorMode output.ColorMode
	Debug     bool
	Config    *config.RuntimeConfig
	// SkipStore builds a context with output and config only.
	SkipStore bool
	// Clock overrides the storage clock.
	Clock func() time.Time
}

// DefaultOptions returns default runtime options.
func DefaultOptions() Options {
	return Options{
		DBPath:    storage.DefaultPath(),
		Format:    output.FormatCLI,
		ColorMode: output.ColorAuto,
	}
}

// New opens the store and loads the first snapshot. Every committed write
// refreshes State.
func New(ctx context.Context, opts Options) (*Context, error) {
	cfg := opts.Config
	if cfg == nil {
		cfg = config.Global
	}

	formatter := output.NewFormatter()
	formatter.Format = opts.Format
	formatter.ColorMode = opts.ColorMode

	if opts.SkipStore {
		return &Context{Formatter: formatter, Config: cfg, Debug: opts.Debug}, nil
	}

	path := opts.DBPath
	if cfg.Storage.Path != "" {
		path = cfg.Storage.Path
	}
	if envPath := os.Getenv(DatabaseEnv); envPath != "" {
		path = envPath
	}
	if path == storage.MemoryPath {
		opts.InMemory = true
	}

	db, err := storage.Open(storage.Options{
		Path:         path,
		InMemory:     opts.InMemory,
		MinFreeSpace: cfg.Storage.MinFreeSpace,
		Clock:        opts.Clock,
	})
	if err != nil {
		return nil, err
	}

	repos := appstate.NewRepos(db)
	state := appstate.New(repos)
	if err := state.Refresh(ctx); err != nil {
		db.Close()
		return nil, err
	}
	db.OnCommit(state.Refresh)

	logging.DebugLog("runtime ready", "path", path, "in_memory", opts.InMemory)

	return &Context{
		DB:        db,
		Repos:     repos,
		State:     state,
		Formatter: formatter,
		Config:    cfg,
		Debug:     opts.Debug,
	}, nil
}

// HasStore reports whether the context opened the local store.
func (c *Context) HasStore() bool {
	return c.DB != nil
}

// Close closes the runtime context.
func (c *Context) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// CLIFormatter returns a CLI formatter.
func (c *Context) CLIFormatter() *output.CLIFormatter {
	return output.NewCLIFormatter(c.Formatter)
}

// JSONFormatter returns a JSON formatter.
func (c *Context) JSONFormatter() *output.JSONFormatter {
	return output.NewJSONFormatter(c.Formatter)
}

// IsJSON returns true if output format is JSON.
func (c *Context) IsJSON() bool {
	return c.Formatter.Format == output.FormatJSON
}
