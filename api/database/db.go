package database

import (
	"context"
	"database/sql"
	"fmt"
	"net/url"
	"strings"
	"time"

	_ "github.com/lib/pq"
	config "github.com/tbeaudouin05/quitcoach/api/config"
	_ "modernc.org/sqlite"
)

// Dialect names the SQL flavour behind a connection.
type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// DB is a *sql.DB that rewrites $N placeholders for the active dialect.
// Queries must use each placeholder once, in ascending order.
type DB struct {
	*sql.DB
	Dialect Dialect
}

var db *DB

// Initialize connects to the configured database and verifies the connection
func Initialize() error {
	conn, err := Open(config.AppConfig.DatabaseURL)
	if err != nil {
		return err
	}
	db = conn
	return nil
}

// GetDB returns the database connection
func GetDB() *DB {
	return db
}

// SetDB replaces the package connection (tests).
func SetDB(d *DB) { db = d }

// DialectOf infers the dialect from a database URL.
func DialectOf(dsn string) (Dialect, error) {
	lower := strings.ToLower(dsn)
	switch {
	case strings.HasPrefix(lower, "postgres://"), strings.HasPrefix(lower, "postgresql://"):
		return Postgres, nil
	case strings.HasPrefix(lower, "sqlite://"):
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported database URL scheme in %q", redact(dsn))
	}
}

// Open connects to dsn, verifies it with a ping and configures the pool.
func Open(dsn string) (*DB, error) {
	dialect, err := DialectOf(dsn)
	if err != nil {
		return nil, err
	}
	var conn *sql.DB
	switch dialect {
	case Postgres:
		conn, err = sql.Open("postgres", withBinaryParameters(dsn))
	case SQLite:
		conn, err = sql.Open("sqlite", sqlitePath(dsn))
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", dialect, err)
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	// Use a single connection to avoid prepared statement issues with PgBouncer/Neon
	// and writer contention on SQLite.
	conn.SetMaxOpenConns(1)
	conn.SetMaxIdleConns(1)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return &DB{DB: conn, Dialect: dialect}, nil
}

// withBinaryParameters appends binary_parameters=yes unless the DSN sets it.
// lib/pq then sends parameters with the unnamed statement in one round trip,
// which keeps PgBouncer/Neon transaction pooling working.
func withBinaryParameters(dsn string) string {
	if strings.Contains(strings.ToLower(dsn), "binary_parameters=") {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + "binary_parameters=yes"
}

// sqlitePath turns sqlite:///path/to.db into a modernc DSN with pragmas.
func sqlitePath(dsn string) string {
	path := dsn[len("sqlite://"):]
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return path + sep + url.Values{
		"_pragma": []string{
			"busy_timeout(5000)",
			"foreign_keys(1)",
		},
		"_time_format": []string{"sqlite"},
	}.Encode()
}

func redact(dsn string) string {
	u, err := url.Parse(dsn)
	if err != nil {
		return "<invalid>"
	}
	return u.Redacted()
}

// Rebind rewrites $N placeholders to ? for SQLite.
func (d *DB) Rebind(query string) string {
	if d.Dialect != SQLite {
		return query
	}
	var b strings.Builder
	b.Grow(len(query))
	for i := 0; i < len(query); i++ {
		c := query[i]
		if c == '$' && i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
			b.WriteByte('?')
			for i+1 < len(query) && query[i+1] >= '0' && query[i+1] <= '9' {
				i++
			}
			continue
		}
		b.WriteByte(c)
	}
	return b.String()
}

func (d *DB) ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error) {
	return d.DB.ExecContext(ctx, d.Rebind(query), args...)
}

func (d *DB) QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error) {
	return d.DB.QueryContext(ctx, d.Rebind(query), args...)
}

func (d *DB) QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row {
	return d.DB.QueryRowContext(ctx, d.Rebind(query), args...)
}
