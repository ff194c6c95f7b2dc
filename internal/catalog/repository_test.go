// internal/catalog/repository_test.go
//
// Repository tests against sqlmock.
//
// Run: go test ./internal/catalog -v

package catalog

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
	"github.com/jmoiron/sqlx"

	"github.com/yanizio/animecatalog/internal/database"
)

func newRepo(t *testing.T) (*Repository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return NewRepository(sqlx.NewDb(db, "mysql")), mock
}

var animeCols = []string{"id", "nombre", "nombre_alternativo", "sinopsis", "portada",
	"estado", "anio", "recomendacion", "creado_en"}

func TestListAnimeFilter(t *testing.T) {
	repo, mock := newRepo(t)
	created := time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC)
	yes := true

	mock.ExpectQuery(`FROM catalogo WHERE 1 = 1 AND \(nombre LIKE \? OR nombre_alternativo LIKE \?\) AND recomendacion = \? ORDER BY nombre`).
		WithArgs("%frieren%", "%frieren%", true).
		WillReturnRows(sqlmock.NewRows(animeCols).
			AddRow(1, "Sousou no Frieren", "Frieren", nil, nil, "finalizado", 2023, true, created))

	got, err := repo.ListAnime(context.Background(), Filter{Query: "frieren", Recommended: &yes})
	if err != nil {
		t.Fatalf("ListAnime: %v", err)
	}
	if len(got) != 1 || got[0].Nombre != "Sousou no Frieren" || !got[0].Recomendacion {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if got[0].Anio == nil || *got[0].Anio != 2023 {
		t.Fatalf("anio not scanned: %+v", got[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListAnimeNotRecommended(t *testing.T) {
	repo, mock := newRepo(t)
	no := false

	mock.ExpectQuery(`FROM catalogo WHERE 1 = 1 AND recomendacion = \? ORDER BY nombre`).
		WithArgs(false).
		WillReturnRows(sqlmock.NewRows(animeCols).
			AddRow(2, "Dorohedoro", nil, nil, nil, "finalizado", 2020, false, time.Now()))

	got, err := repo.ListAnime(context.Background(), Filter{Recommended: &no})
	if err != nil {
		t.Fatalf("ListAnime: %v", err)
	}
	if len(got) != 1 || got[0].Recomendacion {
		t.Fatalf("unexpected rows: %+v", got)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestListAnimeEmptyIsNotNil(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM catalogo WHERE 1 = 1 ORDER BY nombre`).
		WillReturnRows(sqlmock.NewRows(animeCols))

	got, err := repo.ListAnime(context.Background(), Filter{})
	if err != nil {
		t.Fatalf("ListAnime: %v", err)
	}
	if got == nil || len(got) != 0 {
		t.Fatalf("want empty non-nil slice, got %#v", got)
	}
}

func TestGetAnimeNotFound(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM catalogo WHERE id = \?`).
		WithArgs(int64(9)).
		WillReturnRows(sqlmock.NewRows(animeCols))

	if _, err := repo.GetAnime(context.Background(), 9); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestCreateSeasonSetsID(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO temporadas`).
		WithArgs(int64(1), 2, nil).
		WillReturnResult(sqlmock.NewResult(42, 1))

	s := Season{CatalogoID: 1, Numero: 2}
	if err := repo.CreateSeason(context.Background(), &s); err != nil {
		t.Fatalf("CreateSeason: %v", err)
	}
	if s.ID != 42 {
		t.Fatalf("id not set: %+v", s)
	}
}

func TestCreateSeasonDuplicateIsClassified(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO temporadas`).
		WillReturnError(&mysql.MySQLError{Number: 1062, Message: "Duplicate entry '1-2'"})

	err := repo.CreateSeason(context.Background(), &Season{CatalogoID: 1, Numero: 2})
	if database.KindOf(err) != database.KindDuplicateEntry {
		t.Fatalf("want duplicate_entry, got %v", err)
	}
}

func TestCreateTrackUnknownParent(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`INSERT INTO episodio_idiomas`).
		WillReturnError(&mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row"})

	err := repo.CreateTrack(context.Background(),
		&Track{EpisodioID: 7, Idioma: "es", Tipo: "sub", URL: "https://cdn.example/7.vtt"})
	if database.KindOf(err) != database.KindForeignKey {
		t.Fatalf("want foreign_key, got %v", err)
	}
}

func TestUpdateUnchangedRowStillExists(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE episodio_idiomas SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM episodio_idiomas WHERE id = \?`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	tr := Track{ID: 3, Idioma: "es", Tipo: "dub", URL: "https://cdn.example/3.mp4"}
	if err := repo.UpdateTrack(context.Background(), &tr); err != nil {
		t.Fatalf("UpdateTrack: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet SQL expectations: %v", err)
	}
}

func TestUpdateMissingRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`UPDATE temporadas SET`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM temporadas`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	if err := repo.UpdateSeason(context.Background(), &Season{ID: 5, Numero: 1}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestDeleteMissingRow(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectExec(`DELETE FROM episodios WHERE id = \?`).
		WithArgs(int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.DeleteEpisode(context.Background(), 11); !errors.Is(err, ErrNotFound) {
		t.Fatalf("want ErrNotFound, got %v", err)
	}
}

func TestQueryOnMissingColumnIsClassified(t *testing.T) {
	repo, mock := newRepo(t)
	mock.ExpectQuery(`FROM episodios WHERE temporada_id = \?`).
		WillReturnError(&mysql.MySQLError{Number: 1054, Message: "Unknown column 'fecha_emision'"})

	_, err := repo.ListEpisodes(context.Background(), 1)
	if database.KindOf(err) != database.KindBadField {
		t.Fatalf("want bad_field, got %v", err)
	}
}
