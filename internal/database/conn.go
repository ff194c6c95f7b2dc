// internal/database/conn.go
//
// Connection provider for the schema engine.
//
// Context
// -------
// `Conn` wraps one *sqlx.DB pool and exposes exactly the operations the
// validator, repair engine, and initialisation flow need: run a statement,
// list tables, describe a table, and check or create a database.  Results
// come from INFORMATION_SCHEMA so they are stable across server versions.
//
// Notes
// -----
//   - Every error is passed through Classify, so callers can rely on a
//     `*Error` with a `Kind`.
//   - Conn performs no retries and owns no lifecycle beyond Close.
package database

import (
	"context"

	"github.com/jmoiron/sqlx"
)

// LiveColumn is one row of introspected column metadata.
type LiveColumn struct {
	Field    string // column name
	Type     string // raw COLUMN_TYPE, e.g. "varchar(255)" or "tinyint(1)"
	Nullable bool
	Key      string // "", "PRI", "UNI", or "MUL"
}

// Conn is a MySQL-backed connection provider.
type Conn struct {
	db *sqlx.DB
}

// NewConn wraps an open pool.
func NewConn(db *sqlx.DB) *Conn { return &Conn{db: db} }

// DB exposes the underlying pool for application queries.
func (c *Conn) DB() *sqlx.DB { return c.db }

// Close releases the pool.
func (c *Conn) Close() error { return c.db.Close() }

// Exec runs one statement.
func (c *Conn) Exec(ctx context.Context, stmt string, args ...any) error {
	_, err := c.db.ExecContext(ctx, stmt, args...)
	return Classify(err, stmt)
}

// ListTables returns the base tables of the current database.
func (c *Conn) ListTables(ctx context.Context) ([]string, error) {
	const q = `
	    SELECT  TABLE_NAME
	    FROM    INFORMATION_SCHEMA.TABLES
	    WHERE   TABLE_SCHEMA = DATABASE()
	      AND   TABLE_TYPE = 'BASE TABLE'
	    ORDER BY TABLE_NAME`

	names := make([]string, 0, 8)
	if err := c.db.SelectContext(ctx, &names, q); err != nil {
		return nil, Classify(err, q)
	}
	return names, nil
}

// Describe returns the columns of table in ordinal order.  A table with no
// visible columns is reported as KindNoSuchTable.
func (c *Conn) Describe(ctx context.Context, table string) ([]LiveColumn, error) {
	const q = `
	    SELECT  COLUMN_NAME AS field, COLUMN_TYPE AS type,
	            IS_NULLABLE AS nullable, COLUMN_KEY AS col_key
	    FROM    INFORMATION_SCHEMA.COLUMNS
	    WHERE   TABLE_SCHEMA = DATABASE()
	      AND   TABLE_NAME = ?
	    ORDER BY ORDINAL_POSITION`

	rows := make([]struct {
		Field    string `db:"field"`
		Type     string `db:"type"`
		Nullable string `db:"nullable"`
		Key      string `db:"col_key"`
	}, 0, 16)

	if err := c.db.SelectContext(ctx, &rows, q, table); err != nil {
		return nil, Classify(err, q)
	}
	if len(rows) == 0 {
		return nil, &Error{
			Kind:      KindNoSuchTable,
			Message:   "table '" + table + "' doesn't exist",
			Statement: q,
		}
	}

	cols := make([]LiveColumn, 0, len(rows))
	for _, r := range rows {
		cols = append(cols, LiveColumn{
			Field:    r.Field,
			Type:     r.Type,
			Nullable: r.Nullable == "YES",
			Key:      r.Key,
		})
	}
	return cols, nil
}

// DatabaseExists reports whether a schema called name is present.
func (c *Conn) DatabaseExists(ctx context.Context, name string) (bool, error) {
	const q = `SELECT COUNT(*) FROM INFORMATION_SCHEMA.SCHEMATA WHERE SCHEMA_NAME = ?`
	var n int
	if err := c.db.GetContext(ctx, &n, q, name); err != nil {
		return false, Classify(err, q)
	}
	return n > 0, nil
}

// CreateDatabase creates name with a utf8mb4 default charset.
func (c *Conn) CreateDatabase(ctx context.Context, name string) error {
	stmt := "CREATE DATABASE " + quoteIdent(name) +
		" CHARACTER SET utf8mb4 COLLATE utf8mb4_unicode_ci"
	return c.Exec(ctx, stmt)
}
