// internal/database/errors.go
//
// Structured error classification for MySQL failures.
//
// Context
// -------
// Every error that leaves this package passes through `Classify`, which maps
// the server's numeric error code (or a transport-level failure) onto a small
// `Kind` enum.  Callers such as the schema repair engine switch on `Kind`
// rather than matching substrings in human-readable messages.
//
// Notes
// -----
//   - Codes follow the MySQL/MariaDB server error reference.
//   - Oxford commas, two spaces after periods.
package database

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"github.com/go-sql-driver/mysql"
)

// Kind is the machine-readable class of a database failure.
type Kind int

const (
	KindUnknown Kind = iota
	KindConnection
	KindAccessDenied
	KindDatabaseExists
	KindUnknownDatabase
	KindTableExists
	KindDuplicateKeyName
	KindDuplicateColumn
	KindDuplicateEntry
	KindBadField
	KindNoSuchTable
	KindDataTruncated
	KindDataTooLong
	KindOutOfRange
	KindInvalidNull
	KindSyntax
	KindForeignKey
)

var kindNames = [...]string{
	KindUnknown:          "unknown",
	KindConnection:       "connection",
	KindAccessDenied:     "access_denied",
	KindDatabaseExists:   "database_exists",
	KindUnknownDatabase:  "unknown_database",
	KindTableExists:      "table_exists",
	KindDuplicateKeyName: "duplicate_key_name",
	KindDuplicateColumn:  "duplicate_column",
	KindDuplicateEntry:   "duplicate_entry",
	KindBadField:         "bad_field",
	KindNoSuchTable:      "no_such_table",
	KindDataTruncated:    "data_truncated",
	KindDataTooLong:      "data_too_long",
	KindOutOfRange:       "out_of_range",
	KindInvalidNull:      "invalid_null",
	KindSyntax:           "syntax",
	KindForeignKey:       "foreign_key",
}

func (k Kind) String() string {
	if k < 0 || int(k) >= len(kindNames) {
		return "unknown"
	}
	return kindNames[k]
}

// Ignorable reports whether k means "the target state already exists".
func (k Kind) Ignorable() bool {
	switch k {
	case KindTableExists, KindDuplicateKeyName, KindDuplicateColumn,
		KindDuplicateEntry, KindDatabaseExists:
		return true
	}
	return false
}

// DataIncompatible reports whether k means existing rows block a
// structural change.
func (k Kind) DataIncompatible() bool {
	switch k {
	case KindInvalidNull, KindDataTruncated, KindDataTooLong,
		KindOutOfRange, KindDuplicateEntry, KindForeignKey:
		return true
	}
	return false
}

// Fatal reports whether k means no usable connection exists.
func (k Kind) Fatal() bool {
	return k == KindConnection || k == KindAccessDenied || k == KindUnknownDatabase
}

// codeKinds maps server error numbers to kinds.
var codeKinds = map[uint16]Kind{
	1007: KindDatabaseExists,
	1049: KindUnknownDatabase,
	1044: KindAccessDenied,
	1045: KindAccessDenied,
	1142: KindAccessDenied,
	1143: KindAccessDenied,
	1227: KindAccessDenied,
	1050: KindTableExists,
	1060: KindDuplicateColumn,
	1061: KindDuplicateKeyName,
	1022: KindDuplicateKeyName,
	1826: KindDuplicateKeyName,
	1062: KindDuplicateEntry,
	1169: KindDuplicateEntry,
	1054: KindBadField,
	1146: KindNoSuchTable,
	1265: KindDataTruncated,
	1292: KindDataTruncated,
	1366: KindDataTruncated,
	1406: KindDataTooLong,
	1264: KindOutOfRange,
	1048: KindInvalidNull,
	1138: KindInvalidNull,
	1263: KindInvalidNull,
	1064: KindSyntax,
	1216: KindForeignKey,
	1452: KindForeignKey,
}

// Error is the structured failure returned by Conn and Open.
type Error struct {
	Kind      Kind
	Code      uint16 // server error number; zero for transport failures
	Message   string
	Statement string // offending statement, if any
	Err       error
}

func (e *Error) Error() string {
	if e.Code != 0 {
		return fmt.Sprintf("%s (mysql %d): %s", e.Kind, e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// Classify converts a driver error into *Error.  nil stays nil and errors
// that are already classified pass through untouched.
func Classify(err error, stmt string) error {
	if err == nil {
		return nil
	}
	var de *Error
	if errors.As(err, &de) {
		return err
	}

	out := &Error{Kind: KindUnknown, Message: err.Error(), Statement: stmt, Err: err}

	var me *mysql.MySQLError
	var ne net.Error
	switch {
	case errors.As(err, &me):
		out.Code = me.Number
		out.Message = me.Message
		if k, ok := codeKinds[me.Number]; ok {
			out.Kind = k
		}
	case errors.Is(err, driver.ErrBadConn),
		errors.Is(err, mysql.ErrInvalidConn),
		errors.Is(err, context.DeadlineExceeded),
		errors.As(err, &ne):
		out.Kind = KindConnection
	}
	return out
}

// KindOf returns the Kind carried by err, or KindUnknown.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return KindUnknown
}
