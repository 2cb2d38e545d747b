package migrations

import (
	"context"
	"database/sql"
	"io/fs"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFS_ContainsInitMigration(t *testing.T) {
	b, err := fs.ReadFile(FS, "00001_init.sql")
	require.NoError(t, err)
	s := string(b)
	assert.Contains(t, s, "-- +goose Up")
	assert.Contains(t, s, "-- +goose Down")
	for _, table := range []string{"users", "documents", "audit_logs"} {
		assert.Contains(t, s, "CREATE TABLE IF NOT EXISTS "+table)
	}
}

func TestUp_RunsFromEmbeddedRoot(t *testing.T) {
	orig := gooseUp
	t.Cleanup(func() { gooseUp = orig })

	var gotDir string
	gooseUp = func(_ context.Context, _ *sql.DB, dir string) error {
		gotDir = dir
		return nil
	}
	require.NoError(t, Up(context.Background(), nil))
	assert.Equal(t, ".", gotDir)
}
