package migrations

import (
	"io"
	"os"
	"path/filepath"
	"rental-location/internal/logger"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInitializeMissingDirectory(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{MigrationsDir: filepath.Join(t.TempDir(), "missing")}, logger.NewWriterLogger(io.Discard))
	err := r.Initialize()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "does not exist")
	assert.NoError(t, r.Close())
}

// Every up migration needs a matching down migration
func TestMigrationFilesArePaired(t *testing.T) {
	dir := filepath.Join("..", "..", "..", "migrations")
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)

	ups, downs := map[string]bool{}, map[string]bool{}
	for _, e := range entries {
		name := e.Name()
		switch {
		case strings.HasSuffix(name, ".up.sql"):
			ups[strings.TrimSuffix(name, ".up.sql")] = true
		case strings.HasSuffix(name, ".down.sql"):
			downs[strings.TrimSuffix(name, ".down.sql")] = true
		}
	}
	require.NotEmpty(t, ups)
	assert.Equal(t, ups, downs)
	assert.GreaterOrEqual(t, len(ups), SchemaVersion)
}

func TestDefaultOptions(t *testing.T) {
	opts := DefaultOptions()
	assert.Equal(t, "./migrations", opts.MigrationsDir)
	assert.True(t, opts.SeedData)
}

func TestStatusWithoutSourceFails(t *testing.T) {
	r := NewRunner(nil, MigrateOptions{MigrationsDir: filepath.Join(t.TempDir(), "missing")}, logger.NewWriterLogger(io.Discard))
	_, err := r.Status()
	assert.Error(t, err)
}
