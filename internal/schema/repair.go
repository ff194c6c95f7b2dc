package schema

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"go.uber.org/zap"

	"github.com/yanizio/animecatalog/internal/database"
)

// Executor runs one statement.  *database.Conn satisfies it.
type Executor interface {
	Exec(ctx context.Context, stmt string, args ...any) error
}

// Conn is everything Repair needs from a connection.
type Conn interface {
	Inspector
	Executor
}

// Outcome is the terminal result of one Repair call.
type Outcome struct {
	Success       bool     `json:"success"`
	ColumnsAdded  []string `json:"columnsAdded"` // "table.column"
	Message       string   `json:"message"`
	Error         string   `json:"error,omitempty"`
	FailureReason string   `json:"failureReason,omitempty"`
	Executed      int      `json:"executed"` // script statements sent to the server
	Ignored       int      `json:"ignored"`  // script statements that failed ignorably
}

// ReplayResult summarises one pass over a DDL script.
type ReplayResult struct {
	Executed      int
	Ignored       int
	Skipped       int    // USE statements
	Statement     string // statement that failed fatally
	Err           error  // nil when every statement succeeded or was ignorable
	FailureReason string // set when existing data blocked a structural change
}

const dataBlockedReason = "existing data blocks this migration; clean data or adjust the script manually"

// Repair reconciles the live structure with d in two phases: targeted
// ALTER TABLE … ADD COLUMN for columns missing from existing tables, then a
// full replay of script.  Column additions fail independently; the replay
// halts at the first non-ignorable error.  Type mismatches are reported by
// Validate but never altered here.
func Repair(ctx context.Context, c Conn, d Descriptor, script string, log *zap.Logger) Outcome {
	if log == nil {
		log = zap.L()
	}
	log = log.Named("repair")

	out := Outcome{ColumnsAdded: addMissingColumns(ctx, c, d, log)}

	res := Replay(ctx, c, script, log)
	out.Executed = res.Executed
	out.Ignored = res.Ignored

	if res.Err != nil {
		out.Error = res.Err.Error()
		out.FailureReason = res.FailureReason
		out.Message = fmt.Sprintf("repair halted after %d statement(s); %s",
			res.Executed, summarizeColumns(out.ColumnsAdded))
		log.Error("✗ repair failed",
			zap.String("statement", abbreviate(res.Statement)),
			zap.String("reason", res.FailureReason),
			zap.Error(res.Err))
		return out
	}

	out.Success = true
	out.Message = "repair complete; " + summarizeColumns(out.ColumnsAdded)
	log.Info("✓ "+out.Message,
		zap.Int("executed", res.Executed),
		zap.Int("ignored", res.Ignored))
	return out
}

// addMissingColumns is phase A.  Tables absent from the live database are
// left to the script replay.  Each column is added together with its
// nullability and key in one statement so the table never holds a
// half-declared column.
func addMissingColumns(ctx context.Context, c Conn, d Descriptor, log *zap.Logger) []string {
	added := []string{}

	names, err := c.ListTables(ctx)
	if err != nil {
		log.Warn("⚠ column phase skipped: cannot list tables", zap.Error(err))
		return added
	}
	live := make(map[string]string, len(names))
	for _, n := range names {
		live[strings.ToLower(n)] = n
	}

	for _, spec := range d.tables {
		liveName, ok := live[strings.ToLower(spec.Name)]
		if !ok {
			continue
		}
		cols, err := c.Describe(ctx, liveName)
		if err != nil {
			log.Warn("⚠ column phase skipped table", zap.String("table", spec.Name), zap.Error(err))
			continue
		}

		diff := diffColumns(spec, cols)
		for _, name := range diff.missing {
			col := columnSpec(spec, name)
			stmt := fmt.Sprintf("ALTER TABLE %s ADD COLUMN %s", spec.Name, ColumnDefinition(col))
			if col.Key == KeyIndexed {
				stmt += fmt.Sprintf(", ADD INDEX %s (%s)", IndexName(spec.Name, col.Name), col.Name)
			}
			if err := c.Exec(ctx, stmt); err != nil {
				log.Warn("⚠ column add failed",
					zap.String("table", spec.Name),
					zap.String("column", col.Name),
					zap.Error(err))
				continue
			}
			added = append(added, spec.Name+"."+col.Name)
			log.Info("✓ column added", zap.String("table", spec.Name), zap.String("column", col.Name))
		}
	}
	return added
}

// Replay executes script statement by statement, skipping USE.  Ignorable
// errors are logged and passed over.  A data-incompatibility error on a
// structural statement, or any other error, stops the replay.
func Replay(ctx context.Context, ex Executor, script string, log *zap.Logger) ReplayResult {
	if log == nil {
		log = zap.L()
	}
	var res ReplayResult

	for _, stmt := range SplitStatements(script) {
		if isUse(stmt) {
			res.Skipped++
			continue
		}

		res.Executed++
		err := ex.Exec(ctx, stmt)
		if err == nil {
			continue
		}

		kind := database.KindOf(err)
		switch {
		case isStructural(stmt) && kind.DataIncompatible():
			res.Statement = stmt
			res.Err = err
			res.FailureReason = fmt.Sprintf("%s (%s)", dataBlockedReason, kind)
			return res

		case kind.Ignorable():
			res.Ignored++
			log.Warn("⚠ ignorable DDL error",
				zap.Stringer("kind", kind),
				zap.String("statement", abbreviate(stmt)))

		default:
			res.Statement = stmt
			res.Err = err
			return res
		}
	}
	return res
}

func columnSpec(t TableSpec, name string) ColumnSpec {
	for _, c := range t.Columns {
		if c.Name == name {
			return c
		}
	}
	return ColumnSpec{Name: name}
}

func summarizeColumns(cols []string) string {
	if len(cols) == 0 {
		return "no columns added"
	}
	return fmt.Sprintf("added %d column(s): %s", len(cols), strings.Join(cols, ", "))
}

// abbreviate keeps log lines readable for long CREATE TABLE statements.
func abbreviate(stmt string) string {
	s := strings.Join(strings.Fields(stmt), " ")
	if utf8.RuneCountInString(s) <= 120 {
		return s
	}
	r := []rune(s)
	return string(r[:117]) + "..."
}
