package schema

import (
	"fmt"
	"io"
	"sort"
	"strings"
)

// WriteReport renders r, and o when non-nil, as the plain-text report
// printed by the diagnostic command.
func WriteReport(w io.Writer, r Report, o *Outcome) error {
	var b strings.Builder

	names := make([]string, 0, len(r.Tables))
	for n := range r.Tables {
		names = append(names, n)
	}
	sort.Strings(names)

	b.WriteString("Schema report\n=============\n")
	for _, n := range names {
		t := r.Tables[n]
		switch {
		case t.Error != "":
			fmt.Fprintf(&b, "✗ %-20s %s\n", n, t.Error)
		case !t.Exists:
			fmt.Fprintf(&b, "✗ %-20s table not found\n", n)
		case t.Valid:
			fmt.Fprintf(&b, "✓ %-20s ok\n", n)
		default:
			fmt.Fprintf(&b, "⚠ %-20s invalid\n", n)
			for _, c := range t.MissingColumns {
				fmt.Fprintf(&b, "    missing column  %s\n", c)
			}
			for _, m := range t.TypeMismatches {
				fmt.Fprintf(&b, "    type mismatch   %s: expected %s, actual %s\n", m.Column, m.Expected, m.Actual)
			}
			for _, m := range t.ConstraintMismatches {
				fmt.Fprintf(&b, "    %-15s %s: expected %s, actual %s\n", m.Attribute+" mismatch", m.Column, m.Expected, m.Actual)
			}
		}
	}

	if o != nil {
		b.WriteString("\nRepair\n------\n")
		if o.Success {
			fmt.Fprintf(&b, "✓ %s\n", o.Message)
		} else {
			fmt.Fprintf(&b, "✗ %s\n", o.Message)
			if o.FailureReason != "" {
				fmt.Fprintf(&b, "    reason: %s\n", o.FailureReason)
			}
			if o.Error != "" {
				fmt.Fprintf(&b, "    error:  %s\n", o.Error)
			}
		}
		fmt.Fprintf(&b, "    statements executed %d, ignored %d\n", o.Executed, o.Ignored)
	}

	if r.Valid {
		b.WriteString("\n✓ schema valid\n")
	} else {
		fmt.Fprintf(&b, "\n✗ schema invalid (%d problem(s))\n", len(r.Errors))
	}

	_, err := io.WriteString(w, b.String())
	return err
}
