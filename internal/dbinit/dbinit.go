// internal/dbinit/dbinit.go
//
// Database initialisation flow run once at process start.
//
// Workflow
// --------
//  1. Connect to the server with no database selected.  Failure here is the
//     only fatal outcome; the caller should exit.
//  2. Ensure the application database exists, creating it when absent.
//  3. Reconnect scoped to that database.  Provision a fresh database by
//     replaying the canonical script.
//  4. Ensure every required table exists; replay the script when one is
//     missing.
//  5. Validate.  When valid, return the connection.
//  6. Otherwise Repair, validate again, and return the connection either
//     way.  Remaining problems are logged as warnings (degraded start).
//
// Notes
// -----
//   - Nothing here retries or imposes deadlines; callers wrap ctx.
//   - Two processes initialising the same database can race on DDL.  Set
//     Options.Lock to serialise them with a server-side advisory lock.
//   - Oxford commas, two spaces after periods.
package dbinit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"go.uber.org/zap"

	"github.com/yanizio/animecatalog/internal/config"
	"github.com/yanizio/animecatalog/internal/database"
	"github.com/yanizio/animecatalog/internal/metrics"
	"github.com/yanizio/animecatalog/internal/schema"
)

// ErrUnreachable wraps every connectivity failure returned by Run.
var ErrUnreachable = errors.New("database unreachable")

// ServerSession is a connection with no database selected.
type ServerSession interface {
	DatabaseExists(ctx context.Context, name string) (bool, error)
	CreateDatabase(ctx context.Context, name string) error
	DB() *sqlx.DB
	Close() error
}

// Session is a connection scoped to the application database.
type Session interface {
	schema.Conn
	DB() *sqlx.DB
	Close() error
}

// Dialer opens the two kinds of session Run needs.
type Dialer interface {
	DialServer(ctx context.Context) (ServerSession, error)
	DialDatabase(ctx context.Context, name string) (Session, error)
}

// Locker acquires an exclusive hold for the duration of Run.
type Locker func(ctx context.Context, s ServerSession) (release func(), err error)

// Options configures one Run.
type Options struct {
	Database   string
	Script     string
	Descriptor schema.Descriptor
	Dialer     Dialer
	Lock       Locker      // optional
	Logger     *zap.Logger // defaults to zap.L()
}

// Result describes what Run observed and did.
type Result struct {
	Created  bool            // database did not exist and was created
	Initial  schema.Report   // first validation pass
	Repair   *schema.Outcome // nil when no repair was needed
	Final    schema.Report   // equals Initial when no repair ran
	Degraded bool            // returned with unresolved schema problems
}

// Run executes the initialisation flow.  The returned error is non-nil only
// for connectivity failures and always wraps ErrUnreachable.
func Run(ctx context.Context, o Options) (Session, Result, error) {
	var res Result
	log := o.Logger
	if log == nil {
		log = zap.L()
	}
	log = log.Named("dbinit")

	// 1. Server connection.
	srv, err := o.Dialer.DialServer(ctx)
	if err != nil {
		log.Error("✗ cannot reach database server", zap.Error(err))
		return nil, res, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	defer srv.Close()
	log.Info("✓ connected to database server")

	if o.Lock != nil {
		release, err := o.Lock(ctx, srv)
		if err != nil {
			log.Warn("⚠ proceeding without initialisation lock", zap.Error(err))
		} else {
			defer release()
		}
	}

	// 2. Database presence.
	exists, err := srv.DatabaseExists(ctx, o.Database)
	switch {
	case err != nil && database.KindOf(err).Fatal():
		log.Error("✗ lost database server", zap.Error(err))
		return nil, res, fmt.Errorf("%w: %w", ErrUnreachable, err)
	case err != nil:
		log.Warn("⚠ cannot check database existence; assuming present", zap.Error(err))
	case !exists:
		if err := srv.CreateDatabase(ctx, o.Database); err != nil {
			log.Error("✗ create database failed", zap.String("database", o.Database), zap.Error(err))
		} else {
			res.Created = true
			log.Info("✓ database created", zap.String("database", o.Database))
		}
	}

	// 3. Scoped connection.
	conn, err := o.Dialer.DialDatabase(ctx, o.Database)
	if err != nil {
		log.Error("✗ cannot open database", zap.String("database", o.Database), zap.Error(err))
		return nil, res, fmt.Errorf("%w: %w", ErrUnreachable, err)
	}
	if res.Created {
		provision(ctx, conn, o.Script, "fresh database", log)
	}

	// 4. Table presence.
	ensureTables(ctx, conn, o, log)

	// 5. Validate.
	res.Initial = validate(ctx, conn, o.Descriptor)
	res.Final = res.Initial
	if res.Initial.Valid {
		log.Info("✓ schema valid", zap.Int("tables", len(res.Initial.Tables)))
		return conn, res, nil
	}
	for _, e := range res.Initial.Errors {
		log.Warn("⚠ schema problem", zap.String("detail", e))
	}

	// 6. Repair and re-validate.
	out := schema.Repair(ctx, conn, o.Descriptor, o.Script, log)
	res.Repair = &out
	metrics.SchemaRepairs.WithLabelValues(metrics.RepairResult(out.Success)).Inc()
	metrics.SchemaColumnsAdded.Add(float64(len(out.ColumnsAdded)))
	metrics.SchemaDDLIgnored.Add(float64(out.Ignored))

	res.Final = validate(ctx, conn, o.Descriptor)
	if res.Final.Valid {
		log.Info("✓ schema repaired", zap.Strings("columns_added", out.ColumnsAdded))
		return conn, res, nil
	}

	res.Degraded = true
	if !out.Success {
		log.Warn("⚠ repair did not complete",
			zap.String("reason", out.FailureReason),
			zap.String("error", out.Error))
	}
	for _, e := range res.Final.Errors {
		log.Warn("⚠ unresolved schema problem", zap.String("detail", e))
	}
	log.Warn("⚠ starting with a degraded schema", zap.Int("problems", len(res.Final.Errors)))
	return conn, res, nil
}

// ensureTables replays the script once when any descriptor table is absent.
func ensureTables(ctx context.Context, conn Session, o Options, log *zap.Logger) {
	names, err := conn.ListTables(ctx)
	if err != nil {
		log.Warn("⚠ cannot list tables", zap.Error(err))
		return
	}
	live := make(map[string]struct{}, len(names))
	for _, n := range names {
		live[strings.ToLower(n)] = struct{}{}
	}

	var missing []string
	for _, n := range o.Descriptor.Names() {
		if _, ok := live[strings.ToLower(n)]; !ok {
			missing = append(missing, n)
		}
	}
	if len(missing) == 0 {
		return
	}
	log.Warn("⚠ required tables missing", zap.Strings("tables", missing))
	provision(ctx, conn, o.Script, "missing tables", log)
}

func provision(ctx context.Context, conn Session, script, why string, log *zap.Logger) {
	res := schema.Replay(ctx, conn, script, log)
	metrics.SchemaDDLIgnored.Add(float64(res.Ignored))
	if res.Err != nil {
		log.Error("✗ schema script failed",
			zap.String("why", why),
			zap.String("reason", res.FailureReason),
			zap.Error(res.Err))
		return
	}
	log.Info("✓ schema script applied",
		zap.String("why", why),
		zap.Int("executed", res.Executed),
		zap.Int("ignored", res.Ignored))
}

func validate(ctx context.Context, in schema.Inspector, d schema.Descriptor) schema.Report {
	r := schema.Validate(ctx, in, d)
	metrics.SchemaValidations.WithLabelValues(metrics.ValidationResult(r.Valid)).Inc()
	return r
}

// MySQL adapts a database.Dialer to Dialer.
func MySQL(d database.Dialer) Dialer { return mysqlDialer{d} }

type mysqlDialer struct{ d database.Dialer }

func (m mysqlDialer) DialServer(ctx context.Context) (ServerSession, error) {
	c, err := m.d.Server(ctx)
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (m mysqlDialer) DialDatabase(ctx context.Context, name string) (Session, error) {
	c, err := m.d.Scoped(ctx, name)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// AdvisoryLocker serialises Run across processes with GET_LOCK.
func AdvisoryLocker(name string, timeout time.Duration) Locker {
	return func(ctx context.Context, s ServerSession) (func(), error) {
		return database.AdvisoryLock(ctx, s.DB(), name, timeout)
	}
}

// lockName is the GET_LOCK key shared by every replica of one database.
func lockName(db string) string { return "schema_init:" + db }

// FromConfig builds Options for the MySQL endpoint in c.  The advisory lock
// is enabled when c.LockTimeout is positive.
func FromConfig(c config.Database, script string, d schema.Descriptor, log *zap.Logger) Options {
	dialer := database.Dialer{Options: database.Options{
		Host:     c.Host,
		Port:     c.Port,
		User:     c.User,
		Password: c.Password,
		MaxOpen:  c.MaxOpen,
		MaxIdle:  c.MaxIdle,
	}}
	o := Options{
		Database:   c.Name,
		Script:     script,
		Descriptor: d,
		Dialer:     MySQL(dialer),
		Logger:     log,
	}
	if c.LockTimeout > 0 {
		o.Lock = AdvisoryLocker(lockName(c.Name), c.LockTimeout)
	}
	return o
}
