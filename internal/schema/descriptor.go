// Package schema declares the expected database structure, compares it with
// the live structure, and repairs the difference.
//
// Context
// -------
// A Descriptor is a process-wide constant: an ordered list of TableSpecs,
// each an ordered list of ColumnSpecs.  Validate reads live metadata through
// an Inspector and returns a fresh Report.  Repair adds missing columns and
// then replays the canonical DDL script, tolerating "already exists" errors.
//
// Notes
// -----
//   - Nothing here opens or closes connections; callers lend one for the
//     duration of a call.
//   - Error classification switches on database.Kind, never on messages.
//   - Oxford commas, two spaces after periods.
package schema

import (
	"fmt"
	"strings"
)

// BaseType is the semantic column type a descriptor expects.
type BaseType string

const (
	TypeInt       BaseType = "int"
	TypeBigint    BaseType = "bigint"
	TypeVarchar   BaseType = "varchar"
	TypeText      BaseType = "text"
	TypeTinyint   BaseType = "tinyint"
	TypeBoolean   BaseType = "boolean"
	TypeDate      BaseType = "date"
	TypeDatetime  BaseType = "datetime"
	TypeTimestamp BaseType = "timestamp"
	TypeDecimal   BaseType = "decimal"
)

// KeyKind is the index requirement on a column.  The zero value skips the
// check entirely.
type KeyKind int

const (
	KeyAny KeyKind = iota
	KeyNone
	KeyIndexed
	KeyUnique
	KeyPrimary
)

func (k KeyKind) String() string {
	switch k {
	case KeyNone:
		return "NONE"
	case KeyIndexed:
		return "INDEXED"
	case KeyUnique:
		return "UNIQUE"
	case KeyPrimary:
		return "PRIMARY"
	}
	return "ANY"
}

// ColumnSpec describes one expected column.  Nullable is checked only when
// non-nil.
type ColumnSpec struct {
	Name     string
	Type     BaseType
	Nullable *bool
	Key      KeyKind
}

// Null returns a Nullable value for ColumnSpec literals.
func Null(b bool) *bool { return &b }

// TableSpec is one required table.
type TableSpec struct {
	Name    string
	Columns []ColumnSpec
}

// Descriptor maps table names to specs while keeping declaration order.
// Zero value describes no tables.
type Descriptor struct {
	tables []TableSpec
	index  map[string]int
}

// NewDescriptor validates and freezes tables.  Table names and column names
// within a table must be unique (case-insensitive, as MySQL treats them).
func NewDescriptor(tables ...TableSpec) (Descriptor, error) {
	d := Descriptor{
		tables: make([]TableSpec, 0, len(tables)),
		index:  make(map[string]int, len(tables)),
	}
	for _, t := range tables {
		if t.Name == "" {
			return Descriptor{}, fmt.Errorf("schema: table with empty name")
		}
		key := strings.ToLower(t.Name)
		if _, dup := d.index[key]; dup {
			return Descriptor{}, fmt.Errorf("schema: duplicate table %q", t.Name)
		}

		seen := make(map[string]struct{}, len(t.Columns))
		cols := make([]ColumnSpec, 0, len(t.Columns))
		for _, c := range t.Columns {
			if c.Name == "" || c.Type == "" {
				return Descriptor{}, fmt.Errorf("schema: table %q has a column without name or type", t.Name)
			}
			ck := strings.ToLower(c.Name)
			if _, dup := seen[ck]; dup {
				return Descriptor{}, fmt.Errorf("schema: table %q declares column %q twice", t.Name, c.Name)
			}
			seen[ck] = struct{}{}
			cols = append(cols, c)
		}

		d.index[key] = len(d.tables)
		d.tables = append(d.tables, TableSpec{Name: t.Name, Columns: cols})
	}
	return d, nil
}

// MustDescriptor is NewDescriptor for package-level constants.
func MustDescriptor(tables ...TableSpec) Descriptor {
	d, err := NewDescriptor(tables...)
	if err != nil {
		panic(err)
	}
	return d
}

// Tables returns the specs in declaration order.  The slice is a copy.
func (d Descriptor) Tables() []TableSpec {
	out := make([]TableSpec, len(d.tables))
	copy(out, d.tables)
	return out
}

// Table looks up a spec by name.
func (d Descriptor) Table(name string) (TableSpec, bool) {
	i, ok := d.index[strings.ToLower(name)]
	if !ok {
		return TableSpec{}, false
	}
	return d.tables[i], true
}

// Names lists table names in declaration order.
func (d Descriptor) Names() []string {
	out := make([]string, len(d.tables))
	for i, t := range d.tables {
		out[i] = t.Name
	}
	return out
}

// DDLType maps a semantic type to the concrete type used by targeted
// column additions.
func DDLType(t BaseType) string {
	switch t {
	case TypeInt:
		return "INT"
	case TypeVarchar:
		return "VARCHAR(255)"
	case TypeText:
		return "TEXT"
	case TypeTinyint, TypeBoolean:
		return "TINYINT(1)"
	}
	return strings.ToUpper(string(t))
}

// ColumnDefinition renders the column clause used when phase A adds col
// to an existing table.  A NOT NULL requirement carries an explicit
// default so existing rows get a value; TEXT takes MySQL's implicit empty
// string because it cannot declare a literal default.
func ColumnDefinition(col ColumnSpec) string {
	def := col.Name + " " + DDLType(col.Type)
	if col.Key == KeyPrimary {
		def += " NOT NULL"
		if col.Type == TypeInt || col.Type == TypeBigint {
			def += " AUTO_INCREMENT"
		}
		return def + " PRIMARY KEY"
	}
	if col.Nullable != nil && !*col.Nullable {
		def += " NOT NULL"
		if v := zeroDefault(col.Type); v != "" {
			def += " DEFAULT " + v
		}
	}
	if col.Key == KeyUnique {
		def += " UNIQUE"
	}
	return def
}

// IndexName is the name phase A gives the secondary index of an
// indexed column.  MySQL caps identifiers at 64 characters.
func IndexName(table, column string) string {
	n := "idx_" + table + "_" + column
	if len(n) > 64 {
		n = n[:64]
	}
	return n
}

func zeroDefault(t BaseType) string {
	switch t {
	case TypeInt, TypeBigint, TypeTinyint, TypeBoolean, TypeDecimal:
		return "0"
	case TypeVarchar:
		return "''"
	case TypeTimestamp, TypeDatetime:
		return "CURRENT_TIMESTAMP"
	case TypeDate:
		return "'1970-01-01'"
	}
	return ""
}
