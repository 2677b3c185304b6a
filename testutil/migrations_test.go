package testutil_test

import (
	"context"
	"database/sql"
	"testing"

	"github.com/pressly/goose/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-planner/migrations"
	"github.com/pkordes/trip-planner/testutil"
)

// TestMigrations applies every migration to a clean database, checks the
// trip_records shape the PgStore relies on, then rolls everything back.
// Skipped when TEST_DATABASE_URL is not set.
func TestMigrations(t *testing.T) {
	db := testutil.NewSQLDB(t)
	ctx := context.Background()

	provider, err := goose.NewProvider(goose.DialectPostgres, db, migrations.FS)
	require.NoError(t, err, "create goose provider")

	// The repo TestMain may already have migrated this database.
	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "initial reset")

	results, err := provider.Up(ctx)
	require.NoError(t, err, "goose up")
	require.NotEmpty(t, results)

	assert.Equal(t, map[string]string{
		"id":         "uuid",
		"document":   "jsonb",
		"created_at": "timestamp with time zone",
		"updated_at": "timestamp with time zone",
	}, columnTypes(t, db, "trip_records"))
	assert.True(t, indexExists(t, db, "trip_records_created_at_idx"))

	_, err = provider.DownTo(ctx, 0)
	require.NoError(t, err, "goose down-to 0")
	assert.Empty(t, columnTypes(t, db, "trip_records"), "table must be dropped")
}

// columnTypes returns column name → data type for a table in the public schema.
func columnTypes(t *testing.T, db *sql.DB, table string) map[string]string {
	t.Helper()
	rows, err := db.QueryContext(context.Background(), `
		SELECT column_name, data_type
		FROM information_schema.columns
		WHERE table_schema = 'public' AND table_name = $1`, table)
	require.NoError(t, err)
	defer rows.Close()

	out := map[string]string{}
	for rows.Next() {
		var name, typ string
		require.NoError(t, rows.Scan(&name, &typ))
		out[name] = typ
	}
	require.NoError(t, rows.Err())
	return out
}

func indexExists(t *testing.T, db *sql.DB, index string) bool {
	t.Helper()
	var exists bool
	err := db.QueryRowContext(context.Background(),
		`SELECT EXISTS (SELECT 1 FROM pg_indexes WHERE schemaname = 'public' AND indexname = $1)`, index).Scan(&exists)
	require.NoError(t, err)
	return exists
}
