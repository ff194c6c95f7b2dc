// internal/catalog/model.go
//
// Row models for the four catalog tables.
//
// Notes
// -----
//   - Nullable columns map to pointers; callers must nil-check.
//   - `Recomendacion` is TINYINT(1) in SQL and a Go bool.
//   - The `validate` tags are checked on every create and update.
package catalog

import "time"

// Anime mirrors one row in `catalogo`.
type Anime struct {
	ID                int64     `db:"id"                 json:"id"`
	Nombre            string    `db:"nombre"             json:"nombre"                       validate:"required,max=255"`
	NombreAlternativo *string   `db:"nombre_alternativo" json:"nombre_alternativo,omitempty" validate:"omitempty,max=255"`
	Sinopsis          *string   `db:"sinopsis"           json:"sinopsis,omitempty"`
	Portada           *string   `db:"portada"            json:"portada,omitempty"            validate:"omitempty,url,max=255"`
	Estado            string    `db:"estado"             json:"estado"                       validate:"required,oneof=emision finalizado proximamente"`
	Anio              *int      `db:"anio"               json:"anio,omitempty"               validate:"omitempty,min=1900,max=2100"`
	Recomendacion     bool      `db:"recomendacion"      json:"recomendacion"`
	CreadoEn          time.Time `db:"creado_en"          json:"creado_en"`
}

// Season mirrors one row in `temporadas`.
type Season struct {
	ID         int64   `db:"id"          json:"id"`
	CatalogoID int64   `db:"catalogo_id" json:"catalogo_id"`
	Numero     int     `db:"numero"      json:"numero"           validate:"required,min=1"`
	Titulo     *string `db:"titulo"      json:"titulo,omitempty" validate:"omitempty,max=255"`
}

// Episode mirrors one row in `episodios`.
type Episode struct {
	ID           int64      `db:"id"            json:"id"`
	TemporadaID  int64      `db:"temporada_id"  json:"temporada_id"`
	Numero       int        `db:"numero"        json:"numero"                  validate:"required,min=1"`
	Titulo       *string    `db:"titulo"        json:"titulo,omitempty"        validate:"omitempty,max=255"`
	Duracion     *int       `db:"duracion"      json:"duracion,omitempty"      validate:"omitempty,min=1"`
	FechaEmision *time.Time `db:"fecha_emision" json:"fecha_emision,omitempty"`
}

// Track mirrors one row in `episodio_idiomas`: one language and kind
// (subtitled or dubbed) of one episode.
type Track struct {
	ID         int64  `db:"id"          json:"id"`
	EpisodioID int64  `db:"episodio_id" json:"episodio_id"`
	Idioma     string `db:"idioma"      json:"idioma" validate:"required,max=64"`
	Tipo       string `db:"tipo"        json:"tipo"   validate:"required,oneof=sub dub"`
	URL        string `db:"url"         json:"url"    validate:"required,url,max=512"`
}

// Filter narrows ListAnime.
type Filter struct {
	Query       string // substring of nombre or nombre_alternativo
	Recommended *bool  // nil lists both
}
