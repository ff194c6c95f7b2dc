// Package database centralises sqlx connection helpers and the MySQL
// connection provider used by the schema engine.  The driver is
// go-sql-driver/mysql, which also works with MariaDB.
//
// Public entry points:
//
//	Open(ctx, opts)          – pool with Ping, errors classified.
//	Dialer{Options}          – server-level or database-scoped *Conn.
//	AdvisoryLock(ctx, db, …) – optional GET_LOCK serialisation hook.
//
// Every helper Pings before returning so callers can fail fast during
// bootstrap.  Callers should Close() what they open.
package database

import (
	"context"
	"database/sql"
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"
)

// Options describes one MySQL endpoint.  Database may be empty for a
// server-level connection with no schema selected.
type Options struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	MaxOpen  int
	MaxIdle  int
	Timeout  time.Duration
}

// DSN renders Options through mysql.Config so quoting and escaping follow
// the driver's rules.
func (o Options) DSN() string {
	c := mysql.NewConfig()
	c.User = o.User
	c.Passwd = o.Password
	c.Net = "tcp"
	port := o.Port
	if port == 0 {
		port = 3306
	}
	c.Addr = net.JoinHostPort(o.Host, strconv.Itoa(port))
	c.DBName = o.Database
	c.ParseTime = true
	c.Timeout = o.Timeout
	if c.Timeout == 0 {
		c.Timeout = 10 * time.Second
	}
	return c.FormatDSN()
}

// Open returns a pinged *sqlx.DB.  Pool sizes default to 15 open and 5 idle
// with a 30-minute connection lifetime.
func Open(ctx context.Context, o Options) (*sqlx.DB, error) {
	db, err := sqlx.Open("mysql", o.DSN())
	if err != nil {
		return nil, Classify(err, "")
	}

	maxOpen, maxIdle := o.MaxOpen, o.MaxIdle
	if maxOpen <= 0 {
		maxOpen = 15
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, Classify(err, "")
	}
	return db, nil
}

// Dialer opens connections against the endpoint in Options.  The
// Options.Database field is ignored; callers choose the scope per call.
type Dialer struct {
	Options Options
}

// Server connects with no database selected.
func (d Dialer) Server(ctx context.Context) (*Conn, error) {
	o := d.Options
	o.Database = ""
	db, err := Open(ctx, o)
	if err != nil {
		return nil, err
	}
	return NewConn(db), nil
}

// Scoped connects with name as the default database.
func (d Dialer) Scoped(ctx context.Context, name string) (*Conn, error) {
	o := d.Options
	o.Database = name
	db, err := Open(ctx, o)
	if err != nil {
		return nil, err
	}
	return NewConn(db), nil
}

// ErrLockTimeout is returned when GET_LOCK does not succeed in time.
var ErrLockTimeout = errors.New("advisory lock not acquired")

// AdvisoryLock takes a named server lock on a dedicated connection and
// returns a release func.  The lock lives as long as that connection.
func AdvisoryLock(ctx context.Context, db *sqlx.DB, name string, timeout time.Duration) (func(), error) {
	conn, err := db.Connx(ctx)
	if err != nil {
		return nil, Classify(err, "")
	}

	var got sql.NullInt64
	secs := int(timeout / time.Second)
	if err := conn.QueryRowxContext(ctx, `SELECT GET_LOCK(?, ?)`, name, secs).Scan(&got); err != nil {
		_ = conn.Close()
		return nil, Classify(err, "SELECT GET_LOCK")
	}
	if !got.Valid || got.Int64 != 1 {
		_ = conn.Close()
		return nil, ErrLockTimeout
	}

	release := func() {
		_, _ = conn.ExecContext(context.Background(), `SELECT RELEASE_LOCK(?)`, name)
		_ = conn.Close()
	}
	return release, nil
}

// quoteIdent wraps an identifier in backticks.
func quoteIdent(name string) string {
	return "`" + strings.ReplaceAll(name, "`", "``") + "`"
}
