package schema

import "strings"

// SplitStatements breaks a DDL script on ';' terminators.  Quoted strings,
// backquoted identifiers, and comments are honoured; comments are dropped,
// and fragments that end up blank are discarded.
func SplitStatements(script string) []string {
	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if s := strings.TrimSpace(cur.String()); s != "" {
			out = append(out, s)
		}
		cur.Reset()
	}

	n := len(script)
	for i := 0; i < n; i++ {
		ch := script[i]
		switch {
		case ch == '\'' || ch == '"' || ch == '`':
			end := closingQuote(script, i)
			cur.WriteString(script[i:end])
			i = end - 1

		case ch == '#' || isDashComment(script, i):
			for i < n && script[i] != '\n' {
				i++
			}
			cur.WriteByte('\n')

		case ch == '/' && i+1 < n && script[i+1] == '*':
			end := strings.Index(script[i+2:], "*/")
			if end < 0 {
				i = n
			} else {
				i += end + 3
			}
			cur.WriteByte(' ')

		case ch == ';':
			flush()

		default:
			cur.WriteByte(ch)
		}
	}
	flush()
	return out
}

// closingQuote returns the index just past the quote that closes the one at
// start.  Backslash escapes apply inside ' and " but not inside backticks.
func closingQuote(s string, start int) int {
	q := s[start]
	for i := start + 1; i < len(s); i++ {
		switch {
		case s[i] == '\\' && q != '`':
			i++
		case s[i] == q:
			return i + 1
		}
	}
	return len(s)
}

// isDashComment matches "-- " style comments; MySQL requires whitespace or
// end of input after the dashes.
func isDashComment(s string, i int) bool {
	if i+1 >= len(s) || s[i] != '-' || s[i+1] != '-' {
		return false
	}
	if i+2 == len(s) {
		return true
	}
	switch s[i+2] {
	case ' ', '\t', '\n', '\r':
		return true
	}
	return false
}

func keywords(stmt string, n int) []string {
	f := strings.Fields(stmt)
	if len(f) > n {
		f = f[:n]
	}
	for i := range f {
		f[i] = strings.ToUpper(f[i])
	}
	return f
}

// isUse matches "USE <database>".
func isUse(stmt string) bool {
	kw := keywords(stmt, 1)
	return len(kw) == 1 && kw[0] == "USE"
}

// isStructural matches statements that reshape existing tables and can
// therefore be blocked by the rows already in them.
func isStructural(stmt string) bool {
	kw := keywords(stmt, 3)
	if len(kw) < 2 {
		return false
	}
	switch {
	case kw[0] == "ALTER" && kw[1] == "TABLE":
		return true
	case kw[0] == "CREATE" && kw[1] == "INDEX":
		return true
	case kw[0] == "CREATE" && len(kw) == 3 && kw[1] == "UNIQUE" && kw[2] == "INDEX":
		return true
	}
	return false
}
