package schema

import (
	"reflect"
	"testing"
)

func TestSplitStatements(t *testing.T) {
	cases := []struct {
		name   string
		script string
		want   []string
	}{
		{
			name:   "simple",
			script: "CREATE TABLE a (id INT); CREATE TABLE b (id INT);",
			want:   []string{"CREATE TABLE a (id INT)", "CREATE TABLE b (id INT)"},
		},
		{
			name:   "no trailing terminator",
			script: "USE anime;\nSELECT 1",
			want:   []string{"USE anime", "SELECT 1"},
		},
		{
			name:   "blank and comment-only fragments",
			script: ";;\n-- only a comment;\n# hash comment\n/* block; */ ;\nSELECT 1;",
			want:   []string{"SELECT 1"},
		},
		{
			name:   "terminator inside quotes",
			script: "INSERT INTO t VALUES ('a;b', \"c;d\");ALTER TABLE `we;ird` ADD COLUMN x INT;",
			want: []string{
				"INSERT INTO t VALUES ('a;b', \"c;d\")",
				"ALTER TABLE `we;ird` ADD COLUMN x INT",
			},
		},
		{
			name:   "escaped quote",
			script: `INSERT INTO t VALUES ('it\'s; fine'); SELECT 2;`,
			want:   []string{`INSERT INTO t VALUES ('it\'s; fine')`, "SELECT 2"},
		},
		{
			name:   "double dash without space is not a comment",
			script: "SELECT 1--2;",
			want:   []string{"SELECT 1--2"},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := SplitStatements(tc.script); !reflect.DeepEqual(got, tc.want) {
				t.Fatalf("got %#v\nwant %#v", got, tc.want)
			}
		})
	}
}

func TestStatementClasses(t *testing.T) {
	if !isUse("use anime_catalog") || isUse("USER_TABLE") {
		t.Fatalf("isUse misclassified")
	}
	structural := []string{
		"ALTER TABLE catalogo MODIFY nombre VARCHAR(255) NOT NULL",
		"alter table catalogo add unique (nombre)",
		"CREATE INDEX idx ON t (c)",
		"CREATE UNIQUE INDEX uq ON t (c)",
	}
	for _, s := range structural {
		if !isStructural(s) {
			t.Errorf("%q should be structural", s)
		}
	}
	for _, s := range []string{"CREATE TABLE t (id INT)", "INSERT INTO t VALUES (1)", "USE x"} {
		if isStructural(s) {
			t.Errorf("%q should not be structural", s)
		}
	}
}
