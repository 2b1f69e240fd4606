package database

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/enlistment-api/pkg/config"
)

func TestOpenRejectsUnknownDriver(t *testing.T) {
	_, err := Open(config.DatabaseConfig{Driver: "mysql"})
	assert.ErrorContains(t, err, "unsupported database driver")
}

func TestSQLiteSchemaRoundTrip(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: config.DriverSQLite, SQLitePath: t.TempDir() + "/journal.db"})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	ctx := context.Background()
	require.NoError(t, EnsureSchema(ctx, db))
	require.NoError(t, EnsureSchema(ctx, db))

	_, err = db.ExecContext(ctx, `INSERT INTO enlistment_events (id, student_number, section_id, action, actor, occurred_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		"e1", 7, "MATH101A", "ENLIST", "system", time.Now().UTC())
	require.NoError(t, err)

	var total int
	require.NoError(t, db.GetContext(ctx, &total, `SELECT COUNT(*) FROM enlistment_events WHERE student_number = $1`, 7))
	assert.Equal(t, 1, total)
}

func TestSplitStatements(t *testing.T) {
	assert.Equal(t, []string{"a", " b", " c"}, splitStatements("a; b; c"))
	assert.Len(t, splitStatements(schema), 3)
}
