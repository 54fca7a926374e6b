package postgresql_test

import (
	"context"
	"os"
	"testing"

	"github.com/cmlabs-hris/trackbase-backend-go/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

const schema = `
	CREATE TABLE IF NOT EXISTS attendance_records (
		id         BIGSERIAL PRIMARY KEY,
		email      TEXT NOT NULL,
		name       TEXT,
		entry_time TIMESTAMPTZ,
		exit_time  TIMESTAMPTZ
	)
`

// newTestDatabase connects to TEST_DATABASE_URL and resets the mirror table.
// Tests are skipped when no database is configured.
func newTestDatabase(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()
	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	_, err = db.Exec(ctx, schema)
	require.NoError(t, err)
	_, err = db.Exec(ctx, "TRUNCATE TABLE attendance_records")
	require.NoError(t, err)

	return db
}
