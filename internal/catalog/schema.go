// Package catalog is the anime catalog: its expected schema, its storage,
// and its REST API.  The hierarchy is catalogo → temporadas → episodios →
// episodio_idiomas, each level owned by the one above through ON DELETE
// CASCADE foreign keys.
package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/yanizio/animecatalog/internal/schema"
)

// Script is the canonical DDL, used both to provision and to repair.
//
//go:embed schema.sql
var Script string

var descriptor = schema.MustDescriptor(
	schema.TableSpec{Name: "catalogo", Columns: []schema.ColumnSpec{
		{Name: "id", Type: schema.TypeInt, Key: schema.KeyPrimary},
		{Name: "nombre", Type: schema.TypeVarchar, Nullable: schema.Null(false), Key: schema.KeyIndexed},
		{Name: "nombre_alternativo", Type: schema.TypeVarchar},
		{Name: "sinopsis", Type: schema.TypeText},
		{Name: "portada", Type: schema.TypeVarchar},
		{Name: "estado", Type: schema.TypeVarchar},
		{Name: "anio", Type: schema.TypeInt},
		{Name: "recomendacion", Type: schema.TypeTinyint},
		{Name: "creado_en", Type: schema.TypeTimestamp},
	}},
	schema.TableSpec{Name: "temporadas", Columns: []schema.ColumnSpec{
		{Name: "id", Type: schema.TypeInt, Key: schema.KeyPrimary},
		{Name: "catalogo_id", Type: schema.TypeInt, Nullable: schema.Null(false), Key: schema.KeyIndexed},
		{Name: "numero", Type: schema.TypeInt},
		{Name: "titulo", Type: schema.TypeVarchar},
	}},
	schema.TableSpec{Name: "episodios", Columns: []schema.ColumnSpec{
		{Name: "id", Type: schema.TypeInt, Key: schema.KeyPrimary},
		{Name: "temporada_id", Type: schema.TypeInt, Nullable: schema.Null(false), Key: schema.KeyIndexed},
		{Name: "numero", Type: schema.TypeInt},
		{Name: "titulo", Type: schema.TypeVarchar},
		{Name: "duracion", Type: schema.TypeInt},
		{Name: "fecha_emision", Type: schema.TypeDate},
	}},
	schema.TableSpec{Name: "episodio_idiomas", Columns: []schema.ColumnSpec{
		{Name: "id", Type: schema.TypeInt, Key: schema.KeyPrimary},
		{Name: "episodio_id", Type: schema.TypeInt, Nullable: schema.Null(false), Key: schema.KeyIndexed},
		{Name: "idioma", Type: schema.TypeVarchar},
		{Name: "tipo", Type: schema.TypeVarchar},
		{Name: "url", Type: schema.TypeVarchar},
	}},
)

// Descriptor returns the schema the catalog depends on.
func Descriptor() schema.Descriptor { return descriptor }

// LoadScript returns the DDL at path, or the embedded Script when path is
// empty.
func LoadScript(path string) (string, error) {
	if path == "" {
		return Script, nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("schema script: %w", err)
	}
	return string(b), nil
}
