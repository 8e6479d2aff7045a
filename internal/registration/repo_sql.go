package registration

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Dialect captures what differs between the SQL backends.
type Dialect struct {
	Name   string
	schema []string
	bind   func(n int) string
}

// Postgres is the dialect for the pgx stdlib driver.
var Postgres = Dialect{
	Name: "postgres",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS registrations (
			seq           BIGSERIAL PRIMARY KEY,
			id            TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL CHECK (name <> ''),
			mobile        TEXT NOT NULL CHECK (mobile <> ''),
			course        TEXT NOT NULL CHECK (course <> ''),
			extra         TEXT NOT NULL DEFAULT '',
			registered_at BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_registrations_course ON registrations (course)`,
	},
	bind: func(n int) string { return fmt.Sprintf("$%d", n) },
}

// SQLite is the dialect for modernc.org/sqlite.
var SQLite = Dialect{
	Name: "sqlite",
	schema: []string{
		`CREATE TABLE IF NOT EXISTS registrations (
			seq           INTEGER PRIMARY KEY AUTOINCREMENT,
			id            TEXT NOT NULL UNIQUE,
			name          TEXT NOT NULL CHECK (name <> ''),
			mobile        TEXT NOT NULL CHECK (mobile <> ''),
			course        TEXT NOT NULL CHECK (course <> ''),
			extra         TEXT NOT NULL DEFAULT '',
			registered_at INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_registrations_course ON registrations (course)`,
	},
	bind: func(int) string { return "?" },
}

func (d Dialect) placeholders(n int) string {
	parts := make([]string, n)
	for i := range parts {
		parts[i] = d.bind(i + 1)
	}
	return strings.Join(parts, ", ")
}

// SQLRepository persists records in a relational table ordered by an
// auto-increment sequence column.
type SQLRepository struct {
	db      *sql.DB
	dialect Dialect
}

// NewSQLRepository ensures the schema exists and returns a repository.
func NewSQLRepository(ctx context.Context, db *sql.DB, dialect Dialect) (*SQLRepository, error) {
	for _, stmt := range dialect.schema {
		if _, err := db.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("%s schema: %w", dialect.Name, err)
		}
	}
	return &SQLRepository{db: db, dialect: dialect}, nil
}

func (r *SQLRepository) Append(ctx context.Context, rec Record) error {
	extra := ""
	if len(rec.Extra) > 0 {
		b, err := json.Marshal(rec.Extra)
		if err != nil {
			return fmt.Errorf("encode extra: %w", err)
		}
		extra = string(b)
	}

	query := `INSERT INTO registrations (id, name, mobile, course, extra, registered_at) VALUES (` +
		r.dialect.placeholders(6) + `)`
	if _, err := r.db.ExecContext(ctx, query,
		rec.ID, rec.Name, rec.Mobile, rec.Course, extra, rec.Timestamp.UTC().Unix(),
	); err != nil {
		return fmt.Errorf("insert registration: %w", err)
	}
	return nil
}

func (r *SQLRepository) LoadAll(ctx context.Context) ([]Record, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, mobile, course, extra, registered_at
		FROM registrations
		ORDER BY seq
	`)
	if err != nil {
		return nil, fmt.Errorf("query registrations: %w", err)
	}
	defer rows.Close()

	recs := []Record{}
	for rows.Next() {
		var (
			rec   Record
			extra string
			unix  int64
		)
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Mobile, &rec.Course, &extra, &unix); err != nil {
			return nil, fmt.Errorf("scan registration: %w", err)
		}
		rec.Timestamp = time.Unix(unix, 0).UTC()
		if extra != "" {
			if err := json.Unmarshal([]byte(extra), &rec.Extra); err != nil {
				return nil, fmt.Errorf("%w: registration %s extra: %v", ErrStoreCorrupt, rec.ID, err)
			}
		}
		recs = append(recs, rec)
	}
	return recs, rows.Err()
}

func (r *SQLRepository) Ping(ctx context.Context) error {
	return r.db.PingContext(ctx)
}

func (r *SQLRepository) Close() error {
	if r == nil || r.db == nil {
		return nil
	}
	return r.db.Close()
}
