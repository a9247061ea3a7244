package runtime

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/manav03panchal/driverhelper/internal/config"
	"github.com/manav03panchal/driverhelper/internal/model"
	"github.com/manav03panchal/driverhelper/internal/output"
)

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()

	assert.NotEmpty(t, opts.DBPath)
	assert.False(t, opts.InMemory)
	assert.Equal(t, output.FormatCLI, opts.Format)
	assert.Equal(t, output.ColorAuto, opts.ColorMode)
}

func TestNewInMemory(t *testing.T) {
	rc, err := New(context.Background(), Options{
		InMemory:  true,
		Format:    output.FormatJSON,
		ColorMode: output.ColorNever,
		Debug:     true,
		Config:    config.DefaultRuntimeConfig(),
	})
	require.NoError(t, err)
	defer rc.Close()

	assert.NotNil(t, rc.Repos.Notes)
	assert.NotNil(t, rc.Repos.Outbox)
	assert.True(t, rc.IsJSON())
	assert.True(t, rc.Debug)
	assert.False(t, rc.State.Snapshot().LoadedAt.IsZero())
}

func TestNewSkipStore(t *testing.T) {
	rc, err := New(context.Background(), Options{
		SkipStore: true,
		Format:    output.FormatPlain,
		Config:    config.DefaultRuntimeConfig(),
	})
	require.NoError(t, err)

	assert.False(t, rc.HasStore())
	assert.Nil(t, rc.State)
	assert.Equal(t, output.FormatPlain, rc.Formatter.Format)
	assert.NoError(t, rc.Close())
}

func TestNewWithEnvMemory(t *testing.T) {
	t.Setenv(DatabaseEnv, ":memory:")

	rc, err := New(context.Background(), Options{DBPath: "/nonexistent/dir/db", Config: config.DefaultRuntimeConfig()})
	require.NoError(t, err)
	defer rc.Close()
	assert.NotNil(t, rc.DB)
}

func TestNewWithEnvPath(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "driverhelper-test.db")
	t.Setenv(DatabaseEnv, dbPath)

	rc, err := New(context.Background(), Options{Config: config.DefaultRuntimeConfig()})
	require.NoError(t, err)
	defer rc.Close()

	_, err = os.Stat(dbPath)
	assert.NoError(t, err)
}

func TestWritesRefreshState(t *testing.T) {
	ctx := context.Background()
	rc, err := New(ctx, Options{InMemory: true, Config: config.DefaultRuntimeConfig()})
	require.NoError(t, err)
	defer rc.Close()

	_, err = rc.Repos.Notes.Create(ctx, model.NoteInput{Content: "fuel receipt"})
	require.NoError(t, err)

	snap := rc.State.Snapshot()
	require.Len(t, snap.Notes, 1)
	assert.Equal(t, "fuel receipt", snap.Notes[0].Content)
	assert.Equal(t, 1, snap.Outbox.Pending)
}

func TestFormatters(t *testing.T) {
	rc, err := New(context.Background(), Options{InMemory: true, Config: config.DefaultRuntimeConfig()})
	require.NoError(t, err)
	defer rc.Close()

	assert.Same(t, rc.Formatter, rc.CLIFormatter().Formatter)
	assert.Same(t, rc.Formatter, rc.JSONFormatter().Formatter)
	assert.False(t, rc.IsJSON())
}
