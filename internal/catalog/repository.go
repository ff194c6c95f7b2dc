// internal/catalog/repository.go
//
// sqlx query helpers for the catalog hierarchy.
//
// Context
// -------
// Each helper runs one parameterised statement against the pool handed out
// by dbinit.  Errors are passed through database.Classify so handlers can
// tell a duplicate, a missing parent, and a still-malformed table apart.
//
// Notes
// -----
//   - MySQL reports zero affected rows for an UPDATE that changes nothing,
//     so updates confirm existence separately before returning ErrNotFound.
//   - Oxford commas, two spaces after periods.
package catalog

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/yanizio/animecatalog/internal/database"
)

// ErrNotFound is returned when the addressed row does not exist.
var ErrNotFound = errors.New("catalog: not found")

// Repository wraps the application pool.
type Repository struct {
	db *sqlx.DB
}

// NewRepository returns a Repository over db.
func NewRepository(db *sqlx.DB) *Repository { return &Repository{db: db} }

const animeColumns = `id, nombre, nombre_alternativo, sinopsis, portada, estado,
	       anio, recomendacion, creado_en`

/*──────────────────────────── catalogo ─────────────────────────────────────*/

// ListAnime returns catalog entries ordered by name.
func (r *Repository) ListAnime(ctx context.Context, f Filter) ([]Anime, error) {
	q := `SELECT ` + animeColumns + ` FROM catalogo WHERE 1 = 1`
	args := make([]any, 0, 3)
	if f.Query != "" {
		like := "%" + f.Query + "%"
		q += ` AND (nombre LIKE ? OR nombre_alternativo LIKE ?)`
		args = append(args, like, like)
	}
	if f.Recommended != nil {
		q += ` AND recomendacion = ?`
		args = append(args, *f.Recommended)
	}
	q += ` ORDER BY nombre`

	out := make([]Anime, 0, 16)
	if err := r.db.SelectContext(ctx, &out, q, args...); err != nil {
		return nil, database.Classify(err, q)
	}
	return out, nil
}

// GetAnime fetches one entry.
func (r *Repository) GetAnime(ctx context.Context, id int64) (*Anime, error) {
	const q = `SELECT ` + animeColumns + ` FROM catalogo WHERE id = ?`
	var a Anime
	if err := r.get(ctx, &a, q, id); err != nil {
		return nil, err
	}
	return &a, nil
}

// CreateAnime inserts a and sets a.ID.
func (r *Repository) CreateAnime(ctx context.Context, a *Anime) error {
	const q = `INSERT INTO catalogo
	    (nombre, nombre_alternativo, sinopsis, portada, estado, anio, recomendacion)
	    VALUES (?, ?, ?, ?, ?, ?, ?)`
	id, err := r.insert(ctx, q, a.Nombre, a.NombreAlternativo, a.Sinopsis, a.Portada,
		a.Estado, a.Anio, a.Recomendacion)
	if err != nil {
		return err
	}
	a.ID = id
	return nil
}

// UpdateAnime replaces every editable column of a.ID.
func (r *Repository) UpdateAnime(ctx context.Context, a *Anime) error {
	const q = `UPDATE catalogo
	    SET nombre = ?, nombre_alternativo = ?, sinopsis = ?, portada = ?,
	        estado = ?, anio = ?, recomendacion = ?
	    WHERE id = ?`
	return r.update(ctx, "catalogo", a.ID, q, a.Nombre, a.NombreAlternativo, a.Sinopsis,
		a.Portada, a.Estado, a.Anio, a.Recomendacion, a.ID)
}

// DeleteAnime removes an entry and, through cascading keys, its seasons.
func (r *Repository) DeleteAnime(ctx context.Context, id int64) error {
	return r.remove(ctx, `DELETE FROM catalogo WHERE id = ?`, id)
}

/*──────────────────────────── temporadas ───────────────────────────────────*/

// ListSeasons returns the seasons of one entry ordered by number.
func (r *Repository) ListSeasons(ctx context.Context, animeID int64) ([]Season, error) {
	const q = `SELECT id, catalogo_id, numero, titulo
	    FROM temporadas WHERE catalogo_id = ? ORDER BY numero`
	out := make([]Season, 0, 4)
	if err := r.db.SelectContext(ctx, &out, q, animeID); err != nil {
		return nil, database.Classify(err, q)
	}
	return out, nil
}

// GetSeason fetches one season.
func (r *Repository) GetSeason(ctx context.Context, id int64) (*Season, error) {
	const q = `SELECT id, catalogo_id, numero, titulo FROM temporadas WHERE id = ?`
	var s Season
	if err := r.get(ctx, &s, q, id); err != nil {
		return nil, err
	}
	return &s, nil
}

// CreateSeason inserts s under s.CatalogoID and sets s.ID.
func (r *Repository) CreateSeason(ctx context.Context, s *Season) error {
	const q = `INSERT INTO temporadas (catalogo_id, numero, titulo) VALUES (?, ?, ?)`
	id, err := r.insert(ctx, q, s.CatalogoID, s.Numero, s.Titulo)
	if err != nil {
		return err
	}
	s.ID = id
	return nil
}

// UpdateSeason replaces the number and title of s.ID.
func (r *Repository) UpdateSeason(ctx context.Context, s *Season) error {
	const q = `UPDATE temporadas SET numero = ?, titulo = ? WHERE id = ?`
	return r.update(ctx, "temporadas", s.ID, q, s.Numero, s.Titulo, s.ID)
}

// DeleteSeason removes a season and its episodes.
func (r *Repository) DeleteSeason(ctx context.Context, id int64) error {
	return r.remove(ctx, `DELETE FROM temporadas WHERE id = ?`, id)
}

/*──────────────────────────── episodios ────────────────────────────────────*/

// ListEpisodes returns the episodes of one season ordered by number.
func (r *Repository) ListEpisodes(ctx context.Context, seasonID int64) ([]Episode, error) {
	const q = `SELECT id, temporada_id, numero, titulo, duracion, fecha_emision
	    FROM episodios WHERE temporada_id = ? ORDER BY numero`
	out := make([]Episode, 0, 12)
	if err := r.db.SelectContext(ctx, &out, q, seasonID); err != nil {
		return nil, database.Classify(err, q)
	}
	return out, nil
}

// GetEpisode fetches one episode.
func (r *Repository) GetEpisode(ctx context.Context, id int64) (*Episode, error) {
	const q = `SELECT id, temporada_id, numero, titulo, duracion, fecha_emision
	    FROM episodios WHERE id = ?`
	var e Episode
	if err := r.get(ctx, &e, q, id); err != nil {
		return nil, err
	}
	return &e, nil
}

// CreateEpisode inserts e under e.TemporadaID and sets e.ID.
func (r *Repository) CreateEpisode(ctx context.Context, e *Episode) error {
	const q = `INSERT INTO episodios (temporada_id, numero, titulo, duracion, fecha_emision)
	    VALUES (?, ?, ?, ?, ?)`
	id, err := r.insert(ctx, q, e.TemporadaID, e.Numero, e.Titulo, e.Duracion, e.FechaEmision)
	if err != nil {
		return err
	}
	e.ID = id
	return nil
}

// UpdateEpisode replaces the editable columns of e.ID.
func (r *Repository) UpdateEpisode(ctx context.Context, e *Episode) error {
	const q = `UPDATE episodios
	    SET numero = ?, titulo = ?, duracion = ?, fecha_emision = ?
	    WHERE id = ?`
	return r.update(ctx, "episodios", e.ID, q, e.Numero, e.Titulo, e.Duracion, e.FechaEmision, e.ID)
}

// DeleteEpisode removes an episode and its language tracks.
func (r *Repository) DeleteEpisode(ctx context.Context, id int64) error {
	return r.remove(ctx, `DELETE FROM episodios WHERE id = ?`, id)
}

/*──────────────────────────── episodio_idiomas ─────────────────────────────*/

// ListTracks returns the language tracks of one episode.
func (r *Repository) ListTracks(ctx context.Context, episodeID int64) ([]Track, error) {
	const q = `SELECT id, episodio_id, idioma, tipo, url
	    FROM episodio_idiomas WHERE episodio_id = ? ORDER BY idioma, tipo`
	out := make([]Track, 0, 4)
	if err := r.db.SelectContext(ctx, &out, q, episodeID); err != nil {
		return nil, database.Classify(err, q)
	}
	return out, nil
}

// GetTrack fetches one language track.
func (r *Repository) GetTrack(ctx context.Context, id int64) (*Track, error) {
	const q = `SELECT id, episodio_id, idioma, tipo, url FROM episodio_idiomas WHERE id = ?`
	var t Track
	if err := r.get(ctx, &t, q, id); err != nil {
		return nil, err
	}
	return &t, nil
}

// CreateTrack inserts t under t.EpisodioID and sets t.ID.
func (r *Repository) CreateTrack(ctx context.Context, t *Track) error {
	const q = `INSERT INTO episodio_idiomas (episodio_id, idioma, tipo, url) VALUES (?, ?, ?, ?)`
	id, err := r.insert(ctx, q, t.EpisodioID, t.Idioma, t.Tipo, t.URL)
	if err != nil {
		return err
	}
	t.ID = id
	return nil
}

// UpdateTrack replaces the editable columns of t.ID.
func (r *Repository) UpdateTrack(ctx context.Context, t *Track) error {
	const q = `UPDATE episodio_idiomas SET idioma = ?, tipo = ?, url = ? WHERE id = ?`
	return r.update(ctx, "episodio_idiomas", t.ID, q, t.Idioma, t.Tipo, t.URL, t.ID)
}

// DeleteTrack removes one language track.
func (r *Repository) DeleteTrack(ctx context.Context, id int64) error {
	return r.remove(ctx, `DELETE FROM episodio_idiomas WHERE id = ?`, id)
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

func (r *Repository) get(ctx context.Context, dest any, q string, args ...any) error {
	err := r.db.GetContext(ctx, dest, q, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}
	return database.Classify(err, q)
}

func (r *Repository) insert(ctx context.Context, q string, args ...any) (int64, error) {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, database.Classify(err, q)
	}
	id, err := res.LastInsertId()
	return id, database.Classify(err, q)
}

// update runs q and, when nothing changed, checks that id still exists in
// table.  table is always a package constant.
func (r *Repository) update(ctx context.Context, table string, id int64, q string, args ...any) error {
	res, err := r.db.ExecContext(ctx, q, args...)
	if err != nil {
		return database.Classify(err, q)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return nil
	}

	exists := `SELECT COUNT(*) FROM ` + table + ` WHERE id = ?`
	var count int
	if err := r.db.GetContext(ctx, &count, exists, id); err != nil {
		return database.Classify(err, exists)
	}
	if count == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *Repository) remove(ctx context.Context, q string, id int64) error {
	res, err := r.db.ExecContext(ctx, q, id)
	if err != nil {
		return database.Classify(err, q)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
