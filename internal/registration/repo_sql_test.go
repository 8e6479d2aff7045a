package registration

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"testing"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

// openTestSQLite returns a private in-memory database kept alive by a single connection.
func openTestSQLite(t *testing.T) *sql.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared&_pragma=busy_timeout(5000)", name)
	db, err := sql.Open("sqlite", dsn)
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func exerciseRepository(t *testing.T, repo Repository) {
	t.Helper()
	ctx := context.Background()

	empty, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	first := sampleRecord("Asha", "Python Basic")
	first.Extra = map[string]string{"city": "Pune"}
	second := sampleRecord("Ravi", "Python Basic")
	third := sampleRecord("Sam", "Data Science")
	for _, rec := range []Record{first, second, third} {
		require.NoError(t, repo.Append(ctx, rec))
	}

	got, err := repo.LoadAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []Record{first, second, third}, got)
	assert.NoError(t, repo.Ping(ctx))
}

func TestSQLRepository_SQLite(t *testing.T) {
	repo, err := NewSQLRepository(context.Background(), openTestSQLite(t), SQLite)
	require.NoError(t, err)
	exerciseRepository(t, repo)
}

func TestSQLRepository_SQLiteSchemaIdempotent(t *testing.T) {
	db := openTestSQLite(t)
	_, err := NewSQLRepository(context.Background(), db, SQLite)
	require.NoError(t, err)
	_, err = NewSQLRepository(context.Background(), db, SQLite)
	require.NoError(t, err)
}

func TestSQLRepository_SQLiteRejectsEmptyRequired(t *testing.T) {
	repo, err := NewSQLRepository(context.Background(), openTestSQLite(t), SQLite)
	require.NoError(t, err)
	err = repo.Append(context.Background(), sampleRecord("", "Go"))
	require.Error(t, err)
}

func TestSQLRepository_Postgres(t *testing.T) {
	dsn := os.Getenv("TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}
	db, err := sql.Open("pgx", dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`DROP TABLE IF EXISTS registrations`)
	require.NoError(t, err)

	repo, err := NewSQLRepository(context.Background(), db, Postgres)
	require.NoError(t, err)
	exerciseRepository(t, repo)
}

func TestDialectPlaceholders(t *testing.T) {
	assert.Equal(t, "$1, $2, $3", Postgres.placeholders(3))
	assert.Equal(t, "?, ?", SQLite.placeholders(2))
}
