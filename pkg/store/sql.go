package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
)

type dialect int

const (
	dialectSQLite dialect = iota
	dialectPostgres
)

// SQLStore manages the database connection and operations. The same queries
// serve SQLite (local and tests) and PostgreSQL (hosted); queries are written
// with ? placeholders and rebound per dialect.
type SQLStore struct {
	db      *sql.DB
	dialect dialect
}

// NewSQLiteStore opens a SQLite database file and initializes the schema.
func NewSQLiteStore(dataSourceName string) (*SQLStore, error) {
	// Foreign keys are a per-connection setting, so they go in the DSN
	// rather than a one-off PRAGMA on whichever connection the pool hands out.
	dsn := dataSourceName
	if !strings.Contains(dsn, "?") {
		dsn += "?_foreign_keys=on&_busy_timeout=5000"
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}

	if _, err = db.Exec("PRAGMA journal_mode = WAL;"); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	return newSQLStore(db, dialectSQLite)
}

// NewPostgresStore connects to PostgreSQL using a lib/pq connection string.
func NewPostgresStore(dataSourceName string) (*SQLStore, error) {
	db, err := sql.Open("postgres", dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("could not open database: %w", err)
	}
	return newSQLStore(db, dialectPostgres)
}

// Open picks the store implementation by driver name.
func Open(driver, dataSourceName string) (*SQLStore, error) {
	switch driver {
	case "sqlite3", "sqlite":
		return NewSQLiteStore(dataSourceName)
	case "postgres", "postgresql":
		return NewPostgresStore(dataSourceName)
	}
	return nil, fmt.Errorf("unsupported database driver %q", driver)
}

func newSQLStore(db *sql.DB, d dialect) (*SQLStore, error) {
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not connect to database: %w", err)
	}

	s := &SQLStore{db: db, dialect: d}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("could not initialize schema: %w", err)
	}
	return s, nil
}

// initSchema creates the tables if they don't already exist.
// Money is stored as TEXT so no precision is lost in either database.
func (s *SQLStore) initSchema() error {
	timestampType := "DATETIME"
	if s.dialect == dialectPostgres {
		timestampType = "TIMESTAMPTZ"
	}

	schema := fmt.Sprintf(`
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE,
		password_hash TEXT NOT NULL,
		role TEXT NOT NULL,
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at %[1]s NOT NULL,
		updated_at %[1]s NOT NULL
	);
	CREATE TABLE IF NOT EXISTS loans (
		id TEXT PRIMARY KEY,
		owner_id TEXT NOT NULL REFERENCES users(id),
		customer_name TEXT NOT NULL,
		customer_mobile TEXT NOT NULL,
		amount TEXT NOT NULL,
		disbursement_type TEXT NOT NULL,
		cutting_amount TEXT NOT NULL DEFAULT '0',
		disbursed_amount TEXT NOT NULL,
		repayment_cadence TEXT NOT NULL,
		installment_amount TEXT NOT NULL,
		duration_count INTEGER NOT NULL,
		duration_unit TEXT NOT NULL,
		start_date %[1]s NOT NULL,
		status TEXT NOT NULL,
		interest_rate TEXT NOT NULL,
		total_collection TEXT NOT NULL,
		profit_interest TEXT NOT NULL,
		created_at %[1]s NOT NULL,
		updated_at %[1]s NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_loans_owner ON loans(owner_id);
	CREATE TABLE IF NOT EXISTS collections (
		id TEXT PRIMARY KEY,
		loan_id TEXT NOT NULL REFERENCES loans(id),
		amount TEXT NOT NULL,
		collection_date %[1]s NOT NULL,
		notes TEXT NOT NULL DEFAULT '',
		created_at %[1]s NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_collections_loan ON collections(loan_id);
	CREATE TABLE IF NOT EXISTS ads (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT NOT NULL DEFAULT '',
		image_url TEXT NOT NULL DEFAULT '',
		video_url TEXT NOT NULL DEFAULT '',
		target_url TEXT NOT NULL DEFAULT '',
		is_active BOOLEAN NOT NULL DEFAULT TRUE,
		starts_at %[1]s NOT NULL,
		ends_at %[1]s,
		recurrence TEXT NOT NULL DEFAULT 'none',
		target_role TEXT NOT NULL DEFAULT 'all',
		priority INTEGER NOT NULL DEFAULT 0,
		created_by TEXT NOT NULL,
		created_at %[1]s NOT NULL,
		updated_at %[1]s NOT NULL
	);
	`, timestampType)

	// lib/pq runs multi-statement strings only without bind parameters,
	// which holds here; SQLite accepts them as well.
	_, err := s.db.Exec(schema)
	return err
}

// rebind rewrites ? placeholders to $n for PostgreSQL.
func (s *SQLStore) rebind(query string) string {
	if s.dialect != dialectPostgres {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for _, r := range query {
		if r == '?' {
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}

// isUniqueViolation recognizes unique constraint failures from either driver.
func isUniqueViolation(err error) bool {
	var liteErr sqlite3.Error
	if errors.As(err, &liteErr) {
		return liteErr.ExtendedCode == sqlite3.ErrConstraintUnique
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code.Name() == "unique_violation"
	}
	return false
}

// expectOneRow maps a zero-row update or delete to notFound.
func expectOneRow(result sql.Result, notFound error) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return notFound
	}
	return nil
}

// Close closes the database connection.
func (s *SQLStore) Close() error {
	return s.db.Close()
}
