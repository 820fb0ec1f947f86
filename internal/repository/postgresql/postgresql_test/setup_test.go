package postgresql_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/cmlabs-hris/stamp-correction/internal/pkg/database"
	"github.com/stretchr/testify/require"
)

const schemaPath = "../../../../migrations/0001_init.sql"

var schemaOnce sync.Once

// newTestDB connects to TEST_DATABASE_URL, applies the schema and empties every
// table. Tests are skipped when the variable is unset.
func newTestDB(t *testing.T) *database.DB {
	t.Helper()

	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL is not set")
	}

	ctx := context.Background()

	db, err := database.NewPostgreSQLDB(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	var schemaErr error
	schemaOnce.Do(func() {
		sql, err := os.ReadFile(schemaPath)
		if err != nil {
			schemaErr = err
			return
		}
		_, schemaErr = db.Exec(ctx, string(sql))
	})
	require.NoError(t, schemaErr)

	_, err = db.Exec(ctx, "TRUNCATE TABLE stamp_request, stamp_history, employees RESTART IDENTITY CASCADE")
	require.NoError(t, err)

	return db
}

func createEmployee(t *testing.T, db *database.DB, name string, isAdmin bool) string {
	t.Helper()

	var id string
	err := db.QueryRow(context.Background(), `
		INSERT INTO employees (full_name, is_admin)
		VALUES ($1, $2)
		RETURNING id
	`, name, isAdmin).Scan(&id)
	require.NoError(t, err)
	return id
}

func day(year int, month time.Month, d int) time.Time {
	return time.Date(year, month, d, 0, 0, 0, 0, time.UTC)
}

func clock(date time.Time, hour, minute int) *time.Time {
	t := time.Date(date.Year(), date.Month(), date.Day(), hour, minute, 0, 0, time.UTC)
	return &t
}
