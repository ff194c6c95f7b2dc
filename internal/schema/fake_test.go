package schema

import (
	"context"
	"sort"
	"strings"

	"github.com/yanizio/animecatalog/internal/database"
)

// fakeDB models live tables in memory and records every executed
// statement.  It understands just enough DDL for the engine's tests:
// CREATE TABLE [IF NOT EXISTS], CREATE [UNIQUE] INDEX, and
// ALTER TABLE … ADD COLUMN.
type fakeDB struct {
	tables      map[string][]database.LiveColumn
	indexes     map[string]bool
	creates     map[string][]database.LiveColumn // columns installed by CREATE TABLE
	fail        map[string]error                 // statement prefix → injected error
	describeErr map[string]error
	listErr     error
	executed    []string
}

func newFake() *fakeDB {
	return &fakeDB{
		tables:      map[string][]database.LiveColumn{},
		indexes:     map[string]bool{},
		creates:     map[string][]database.LiveColumn{},
		fail:        map[string]error{},
		describeErr: map[string]error{},
	}
}

func dbErr(k database.Kind) error {
	return &database.Error{Kind: k, Message: k.String()}
}

func (f *fakeDB) ListTables(context.Context) ([]string, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	out := make([]string, 0, len(f.tables))
	for n := range f.tables {
		out = append(out, n)
	}
	sort.Strings(out)
	return out, nil
}

func (f *fakeDB) Describe(_ context.Context, table string) ([]database.LiveColumn, error) {
	if err := f.describeErr[table]; err != nil {
		return nil, err
	}
	cols, ok := f.tables[table]
	if !ok {
		return nil, dbErr(database.KindNoSuchTable)
	}
	out := make([]database.LiveColumn, len(cols))
	copy(out, cols)
	return out, nil
}

func (f *fakeDB) Exec(_ context.Context, stmt string, _ ...any) error {
	f.executed = append(f.executed, stmt)
	for prefix, err := range f.fail {
		if strings.HasPrefix(stmt, prefix) {
			return err
		}
	}

	w := strings.Fields(stmt)
	up := keywords(stmt, 6)
	switch {
	case len(up) >= 6 && up[0] == "CREATE" && up[1] == "TABLE" && up[2] == "IF":
		f.createTable(trimIdent(w[5]))
	case len(up) >= 3 && up[0] == "CREATE" && up[1] == "TABLE":
		name := trimIdent(w[2])
		if _, ok := f.tables[name]; ok {
			return dbErr(database.KindTableExists)
		}
		f.createTable(name)
	case len(up) >= 3 && up[0] == "CREATE" && (up[1] == "INDEX" || up[1] == "UNIQUE"):
		name := w[2]
		if up[1] == "UNIQUE" {
			name = w[3]
		}
		if f.indexes[name] {
			return dbErr(database.KindDuplicateKeyName)
		}
		f.indexes[name] = true
	case len(up) >= 5 && up[0] == "ALTER" && up[3] == "ADD" && up[4] == "COLUMN":
		return f.addColumn(w[2], stmt)
	}
	return nil
}

// addColumn applies ALTER TABLE t ADD COLUMN c TYPE [NOT NULL …]
// [PRIMARY KEY|UNIQUE] [, ADD INDEX name (c)].
func (f *fakeDB) addColumn(table, stmt string) error {
	cols, ok := f.tables[table]
	if !ok {
		return dbErr(database.KindNoSuchTable)
	}
	def, index, _ := strings.Cut(stmt, ", ADD INDEX ")
	w := strings.Fields(def)
	up := strings.ToUpper(def)
	for _, c := range cols {
		if strings.EqualFold(c.Field, w[5]) {
			return dbErr(database.KindDuplicateColumn)
		}
	}

	col := database.LiveColumn{
		Field:    w[5],
		Type:     strings.ToLower(w[6]),
		Nullable: !strings.Contains(up, " NOT NULL"),
	}
	switch {
	case strings.Contains(up, " PRIMARY KEY"):
		col.Key, col.Nullable = "PRI", false
	case strings.Contains(up, " UNIQUE"):
		col.Key = "UNI"
	}
	if index != "" {
		name := strings.Fields(index)[0]
		if f.indexes[name] {
			return dbErr(database.KindDuplicateKeyName)
		}
		f.indexes[name] = true
		col.Key = "MUL"
	}
	f.tables[table] = append(cols, col)
	return nil
}

func (f *fakeDB) createTable(name string) {
	if _, ok := f.tables[name]; ok {
		return
	}
	f.tables[name] = append([]database.LiveColumn(nil), f.creates[name]...)
}

func trimIdent(s string) string {
	if i := strings.IndexByte(s, '('); i >= 0 {
		s = s[:i]
	}
	return strings.Trim(s, "`")
}

// Fixtures shared by the engine tests.

var testDescriptor = MustDescriptor(
	TableSpec{Name: "catalogo", Columns: []ColumnSpec{
		{Name: "id", Type: TypeInt, Key: KeyPrimary},
		{Name: "nombre", Type: TypeVarchar, Nullable: Null(false)},
		{Name: "recomendacion", Type: TypeTinyint},
	}},
	TableSpec{Name: "temporadas", Columns: []ColumnSpec{
		{Name: "id", Type: TypeInt, Key: KeyPrimary},
		{Name: "catalogo_id", Type: TypeInt, Key: KeyIndexed},
		{Name: "numero", Type: TypeInt},
	}},
)

func catalogoColumns() []database.LiveColumn {
	return []database.LiveColumn{
		{Field: "id", Type: "int(11)", Key: "PRI"},
		{Field: "nombre", Type: "varchar(255)"},
		{Field: "recomendacion", Type: "tinyint(1)", Nullable: true},
	}
}

func temporadasColumns() []database.LiveColumn {
	return []database.LiveColumn{
		{Field: "id", Type: "int(11)", Key: "PRI"},
		{Field: "catalogo_id", Type: "int(11)", Key: "MUL"},
		{Field: "numero", Type: "int(11)"},
	}
}

// healthyFake returns a fake whose live structure matches testDescriptor.
func healthyFake() *fakeDB {
	f := newFake()
	f.tables["catalogo"] = catalogoColumns()
	f.tables["temporadas"] = temporadasColumns()
	f.creates["catalogo"] = catalogoColumns()
	f.creates["temporadas"] = temporadasColumns()
	f.indexes["idx_temporadas_catalogo"] = true
	return f
}

const testScript = `
-- canonical test schema
USE anime_catalog;

CREATE TABLE IF NOT EXISTS catalogo (
    id INT AUTO_INCREMENT PRIMARY KEY,
    nombre VARCHAR(255) NOT NULL,
    recomendacion TINYINT(1) DEFAULT 0
);

CREATE TABLE IF NOT EXISTS temporadas (
    id INT AUTO_INCREMENT PRIMARY KEY,
    catalogo_id INT NOT NULL,
    numero INT NOT NULL
);

/* plain index, not idempotent on its own */
CREATE INDEX idx_temporadas_catalogo ON temporadas (catalogo_id);
`
