package schema

import (
	"context"
	"fmt"
	"strings"

	"github.com/yanizio/animecatalog/internal/database"
)

// Inspector reads live structure.  *database.Conn satisfies it.
type Inspector interface {
	ListTables(ctx context.Context) ([]string, error)
	Describe(ctx context.Context, table string) ([]database.LiveColumn, error)
}

// TableReport is the validation result for one descriptor table.
type TableReport struct {
	Exists               bool                 `json:"exists"`
	MissingColumns       []string             `json:"missingColumns"`
	TypeMismatches       []TypeMismatch       `json:"typeMismatches"`
	ConstraintMismatches []ConstraintMismatch `json:"constraintMismatches"`
	Valid                bool                 `json:"valid"`
	Error                string               `json:"error,omitempty"`
}

// Report is the result of one validation pass.  It is built once and never
// patched; a later pass produces a new Report.
type Report struct {
	Valid  bool                   `json:"overallValid"`
	Tables map[string]TableReport `json:"perTable"`
	Errors []string               `json:"errors"`
}

// Validate compares the live structure with d.  It is read-only.  An
// introspection failure on one table is recorded on that table and the
// pass continues with the rest.
func Validate(ctx context.Context, in Inspector, d Descriptor) Report {
	r := Report{
		Valid:  true,
		Tables: make(map[string]TableReport, len(d.tables)),
		Errors: []string{},
	}

	names, err := in.ListTables(ctx)
	if err != nil {
		msg := fmt.Sprintf("list tables: %v", err)
		r.Valid = false
		r.Errors = append(r.Errors, msg)
		for _, t := range d.tables {
			r.Tables[t.Name] = emptyTableReport(msg)
		}
		return r
	}

	live := make(map[string]string, len(names))
	for _, n := range names {
		live[strings.ToLower(n)] = n
	}

	for _, spec := range d.tables {
		liveName, ok := live[strings.ToLower(spec.Name)]
		if !ok {
			r.Valid = false
			r.Errors = append(r.Errors, fmt.Sprintf("table '%s' not found", spec.Name))
			r.Tables[spec.Name] = emptyTableReport("")
			continue
		}

		cols, err := in.Describe(ctx, liveName)
		if err != nil {
			msg := fmt.Sprintf("table '%s': describe failed: %v", spec.Name, err)
			r.Valid = false
			r.Errors = append(r.Errors, msg)
			tr := emptyTableReport(msg)
			tr.Exists = true
			r.Tables[spec.Name] = tr
			continue
		}

		diff := diffColumns(spec, cols)
		tr := TableReport{
			Exists:               true,
			MissingColumns:       diff.missing,
			TypeMismatches:       diff.types,
			ConstraintMismatches: diff.constraints,
			Valid:                diff.clean(),
		}
		r.Tables[spec.Name] = tr
		if !tr.Valid {
			r.Valid = false
			r.Errors = append(r.Errors, diffMessages(spec.Name, diff)...)
		}
	}
	return r
}

func emptyTableReport(errMsg string) TableReport {
	return TableReport{
		MissingColumns:       []string{},
		TypeMismatches:       []TypeMismatch{},
		ConstraintMismatches: []ConstraintMismatch{},
		Error:                errMsg,
	}
}

func diffMessages(table string, d columnDiff) []string {
	out := make([]string, 0, len(d.missing)+len(d.types)+len(d.constraints))
	for _, c := range d.missing {
		out = append(out, fmt.Sprintf("table '%s': column '%s' missing", table, c))
	}
	for _, m := range d.types {
		out = append(out, fmt.Sprintf("table '%s': column '%s' type mismatch (expected %s, actual %s)",
			table, m.Column, m.Expected, m.Actual))
	}
	for _, m := range d.constraints {
		out = append(out, fmt.Sprintf("table '%s': column '%s' %s mismatch (expected %s, actual %s)",
			table, m.Column, m.Attribute, m.Expected, m.Actual))
	}
	return out
}
