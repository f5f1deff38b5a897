package database

import (
	"context"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMigrations_Embedded(t *testing.T) {
	migrations, err := Migrations()
	require.NoError(t, err)
	require.NotEmpty(t, migrations)

	first := migrations[0]
	assert.Equal(t, 1, first.Version)
	assert.Equal(t, "create_bookings", first.Name)
	assert.Contains(t, first.UpSQL, "CREATE TABLE IF NOT EXISTS bookings")
	assert.Contains(t, first.DownSQL, "DROP TABLE IF EXISTS bookings")
}

func TestParseMigrations(t *testing.T) {
	fsys := fstest.MapFS{
		"m/002_add_index.up.sql":     {Data: []byte("CREATE INDEX x ON t (a)")},
		"m/001_create_t.up.sql":      {Data: []byte("CREATE TABLE t (a INT)")},
		"m/001_create_t.down.sql":    {Data: []byte("DROP TABLE t")},
		"m/README.md":                {Data: []byte("ignored")},
		"m/abc_not_versioned.up.sql": {Data: []byte("ignored")},
		"m/003_sideways.sql":         {Data: []byte("ignored")},
	}

	migrations, err := ParseMigrations(fsys, "m")
	require.NoError(t, err)
	require.Len(t, migrations, 2)

	assert.Equal(t, Migration{
		Version: 1, Name: "create_t",
		UpSQL: "CREATE TABLE t (a INT)", DownSQL: "DROP TABLE t",
	}, migrations[0])
	assert.Equal(t, 2, migrations[1].Version)
	assert.Equal(t, "add_index", migrations[1].Name)
	assert.Empty(t, migrations[1].DownSQL)
}

func TestParseMigrations_Errors(t *testing.T) {
	t.Run("missing directory", func(t *testing.T) {
		_, err := ParseMigrations(fstest.MapFS{}, "nope")
		assert.Error(t, err)
	})

	t.Run("down without up", func(t *testing.T) {
		fsys := fstest.MapFS{"m/004_orphan.down.sql": {Data: []byte("DROP TABLE t")}}
		_, err := ParseMigrations(fsys, "m")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "no up script")
	})
}

func TestMigrator_UpDown(t *testing.T) {
	skipIfNoPostgres(t)

	ctx := context.Background()
	pool, err := NewPool(ctx, testDBConfig())
	require.NoError(t, err)
	defer pool.Close()

	_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS migrator_probe")
	_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations")
	defer func() {
		_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS migrator_probe")
		_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations")
	}()

	migrator := NewMigrator(pool, []Migration{
		{Version: 1, Name: "create_probe", UpSQL: "CREATE TABLE migrator_probe (id SERIAL PRIMARY KEY)", DownSQL: "DROP TABLE migrator_probe"},
		{Version: 2, Name: "add_note", UpSQL: "ALTER TABLE migrator_probe ADD COLUMN note TEXT", DownSQL: "ALTER TABLE migrator_probe DROP COLUMN note"},
	})

	applied, err := migrator.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, applied)

	applied, err = migrator.Up(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, applied, "second run is a no-op")

	version, err := migrator.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, version)

	require.NoError(t, migrator.Down(ctx))
	version, err = migrator.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, version)

	_, err = pool.Exec(ctx, "INSERT INTO migrator_probe (note) VALUES ('x')")
	assert.Error(t, err, "note column was dropped")
}

func TestMigrator_FailedMigrationRollsBack(t *testing.T) {
	skipIfNoPostgres(t)

	ctx := context.Background()
	pool, err := NewPool(ctx, testDBConfig())
	require.NoError(t, err)
	defer pool.Close()

	_, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations")
	defer func() { _, _ = pool.Exec(ctx, "DROP TABLE IF EXISTS schema_migrations") }()

	migrator := NewMigrator(pool, []Migration{
		{Version: 1, Name: "broken", UpSQL: "CREATE TABLE"},
	})

	_, err = migrator.Up(ctx)
	require.Error(t, err)

	version, err := migrator.Version(ctx)
	require.NoError(t, err)
	assert.Equal(t, 0, version)
}
