package schema

import (
	"strings"

	"github.com/yanizio/animecatalog/internal/database"
)

// TypeMismatch records a column whose live base type differs.
type TypeMismatch struct {
	Column   string `json:"column"`
	Expected string `json:"expected"`
	Actual   string `json:"actual"`
}

// ConstraintMismatch records a nullability or key difference.
type ConstraintMismatch struct {
	Column    string `json:"column"`
	Attribute string `json:"attribute"` // "nullable" or "key"
	Expected  string `json:"expected"`
	Actual    string `json:"actual"`
}

type columnDiff struct {
	missing     []string
	types       []TypeMismatch
	constraints []ConstraintMismatch
}

func (d columnDiff) clean() bool {
	return len(d.missing) == 0 && len(d.types) == 0 && len(d.constraints) == 0
}

// diffColumns compares one table spec with its live columns.  It is shared
// by Validate and the column-addition phase of Repair.
func diffColumns(spec TableSpec, live []database.LiveColumn) columnDiff {
	byName := make(map[string]database.LiveColumn, len(live))
	for _, c := range live {
		byName[strings.ToLower(c.Field)] = c
	}

	d := columnDiff{
		missing:     []string{},
		types:       []TypeMismatch{},
		constraints: []ConstraintMismatch{},
	}
	for _, want := range spec.Columns {
		got, ok := byName[strings.ToLower(want.Name)]
		if !ok {
			d.missing = append(d.missing, want.Name)
			continue
		}

		if !typeSatisfies(want.Type, got.Type) {
			d.types = append(d.types, TypeMismatch{
				Column:   want.Name,
				Expected: string(want.Type),
				Actual:   got.Type,
			})
		}

		if want.Nullable != nil && *want.Nullable != got.Nullable {
			d.constraints = append(d.constraints, ConstraintMismatch{
				Column:    want.Name,
				Attribute: "nullable",
				Expected:  nullWord(*want.Nullable),
				Actual:    nullWord(got.Nullable),
			})
		}

		if !keySatisfies(want.Key, got.Key) {
			actual := got.Key
			if actual == "" {
				actual = "NONE"
			}
			d.constraints = append(d.constraints, ConstraintMismatch{
				Column:    want.Name,
				Attribute: "key",
				Expected:  want.Key.String(),
				Actual:    actual,
			})
		}
	}
	return d
}

// typeSatisfies compares the leading type token of actual with expected,
// case-insensitively, so "varchar(255)" satisfies varchar and "int unsigned"
// satisfies int.  tinyint(1) doubles as boolean.
func typeSatisfies(expected BaseType, actual string) bool {
	a := strings.ToLower(strings.TrimSpace(actual))
	base := a
	if i := strings.IndexAny(a, "( "); i >= 0 {
		base = a[:i]
	}
	want := strings.ToLower(string(expected))

	switch want {
	case string(TypeBoolean), "bool":
		return base == "tinyint" && (base == a || strings.HasPrefix(a, "tinyint(1)"))
	case string(TypeInt):
		return base == "int" || base == "integer"
	}
	return base == want
}

// keySatisfies applies key-strength subsumption: PRI satisfies UNIQUE and
// any key satisfies INDEXED.
func keySatisfies(expected KeyKind, live string) bool {
	switch expected {
	case KeyNone:
		return live == ""
	case KeyIndexed:
		return live != ""
	case KeyUnique:
		return live == "PRI" || live == "UNI"
	case KeyPrimary:
		return live == "PRI"
	}
	return true
}

func nullWord(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}
