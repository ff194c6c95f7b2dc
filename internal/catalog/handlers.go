// internal/catalog/handlers.go
//
// JSON admin API for the catalog hierarchy.
//
// Context
// -------
// `Routes()` returns a chi sub-router that cmd/web mounts at `/api`.  Each
// level of the hierarchy gets list and create under its parent plus get,
// update, and delete by id.  `/health/schema` re-runs the schema validator
// against the live database and returns the structured report.
//
// Notes
// -----
//   - Request bodies are capped at 1 MiB and decoded strictly.
//   - Validation errors name fields by their JSON key.
//   - Oxford commas, two spaces after periods.
package catalog

import (
	"encoding/json"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/yanizio/animecatalog/internal/database"
	"github.com/yanizio/animecatalog/internal/schema"
)

const maxBody = 1 << 20

// Handler serves the admin API.  Zero value is invalid; use NewHandler.
type Handler struct {
	repo     *Repository
	inspect  schema.Inspector
	desc     schema.Descriptor
	validate *validator.Validate
	log      *zap.Logger
}

// NewHandler wires a Handler.  inspect is usually the *database.Conn that
// dbinit returned; log may be nil.
func NewHandler(repo *Repository, inspect schema.Inspector, desc schema.Descriptor, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.L()
	}
	v := validator.New()
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})
	return &Handler{repo: repo, inspect: inspect, desc: desc, validate: v, log: log.Named("api")}
}

// Routes returns the API sub-router.
func (h *Handler) Routes() http.Handler {
	r := chi.NewRouter()

	r.Get("/health/schema", h.schemaHealth)

	r.Route("/catalogo", func(r chi.Router) {
		r.Get("/", h.listAnime)
		r.Post("/", h.createAnime)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", h.getAnime)
			r.Put("/", h.updateAnime)
			r.Delete("/", h.deleteAnime)
			r.Get("/temporadas", h.listSeasons)
			r.Post("/temporadas", h.createSeason)
		})
	})

	r.Route("/temporadas/{id}", func(r chi.Router) {
		r.Get("/", h.getSeason)
		r.Put("/", h.updateSeason)
		r.Delete("/", h.deleteSeason)
		r.Get("/episodios", h.listEpisodes)
		r.Post("/episodios", h.createEpisode)
	})

	r.Route("/episodios/{id}", func(r chi.Router) {
		r.Get("/", h.getEpisode)
		r.Put("/", h.updateEpisode)
		r.Delete("/", h.deleteEpisode)
		r.Get("/idiomas", h.listTracks)
		r.Post("/idiomas", h.createTrack)
	})

	r.Route("/idiomas/{id}", func(r chi.Router) {
		r.Get("/", h.getTrack)
		r.Put("/", h.updateTrack)
		r.Delete("/", h.deleteTrack)
	})

	return r
}

/*──────────────────────────── health ───────────────────────────────────────*/

func (h *Handler) schemaHealth(w http.ResponseWriter, r *http.Request) {
	rep := schema.Validate(r.Context(), h.inspect, h.desc)
	status := http.StatusOK
	if !rep.Valid {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, rep)
}

/*──────────────────────────── catalogo ─────────────────────────────────────*/

func (h *Handler) listAnime(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := Filter{Query: strings.TrimSpace(q.Get("q"))}
	if v := q.Get("recomendado"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "recomendado must be a boolean", nil)
			return
		}
		f.Recommended = &b
	}
	out, err := h.repo.ListAnime(r.Context(), f)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) getAnime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := h.repo.GetAnime(r.Context(), id)
	h.respond(w, r, http.StatusOK, a, err)
}

func (h *Handler) createAnime(w http.ResponseWriter, r *http.Request) {
	var a Anime
	if !h.bind(w, r, &a) {
		return
	}
	err := h.repo.CreateAnime(r.Context(), &a)
	h.respond(w, r, http.StatusCreated, a, err)
}

func (h *Handler) updateAnime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var a Anime
	if !h.bind(w, r, &a) {
		return
	}
	a.ID = id
	err := h.repo.UpdateAnime(r.Context(), &a)
	h.respond(w, r, http.StatusOK, a, err)
}

func (h *Handler) deleteAnime(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusNoContent, nil, h.repo.DeleteAnime(r.Context(), id))
}

/*──────────────────────────── temporadas ───────────────────────────────────*/

func (h *Handler) listSeasons(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.repo.ListSeasons(r.Context(), id)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) getSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	s, err := h.repo.GetSeason(r.Context(), id)
	h.respond(w, r, http.StatusOK, s, err)
}

func (h *Handler) createSeason(w http.ResponseWriter, r *http.Request) {
	parent, ok := pathID(w, r)
	if !ok {
		return
	}
	var s Season
	if !h.bind(w, r, &s) {
		return
	}
	s.CatalogoID = parent
	err := h.repo.CreateSeason(r.Context(), &s)
	h.respond(w, r, http.StatusCreated, s, err)
}

func (h *Handler) updateSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var s Season
	if !h.bind(w, r, &s) {
		return
	}
	s.ID = id
	err := h.repo.UpdateSeason(r.Context(), &s)
	h.respond(w, r, http.StatusOK, s, err)
}

func (h *Handler) deleteSeason(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusNoContent, nil, h.repo.DeleteSeason(r.Context(), id))
}

/*──────────────────────────── episodios ────────────────────────────────────*/

func (h *Handler) listEpisodes(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.repo.ListEpisodes(r.Context(), id)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) getEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := h.repo.GetEpisode(r.Context(), id)
	h.respond(w, r, http.StatusOK, e, err)
}

func (h *Handler) createEpisode(w http.ResponseWriter, r *http.Request) {
	parent, ok := pathID(w, r)
	if !ok {
		return
	}
	var e Episode
	if !h.bind(w, r, &e) {
		return
	}
	e.TemporadaID = parent
	err := h.repo.CreateEpisode(r.Context(), &e)
	h.respond(w, r, http.StatusCreated, e, err)
}

func (h *Handler) updateEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var e Episode
	if !h.bind(w, r, &e) {
		return
	}
	e.ID = id
	err := h.repo.UpdateEpisode(r.Context(), &e)
	h.respond(w, r, http.StatusOK, e, err)
}

func (h *Handler) deleteEpisode(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusNoContent, nil, h.repo.DeleteEpisode(r.Context(), id))
}

/*──────────────────────────── episodio_idiomas ─────────────────────────────*/

func (h *Handler) listTracks(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	out, err := h.repo.ListTracks(r.Context(), id)
	h.respond(w, r, http.StatusOK, out, err)
}

func (h *Handler) getTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	t, err := h.repo.GetTrack(r.Context(), id)
	h.respond(w, r, http.StatusOK, t, err)
}

func (h *Handler) createTrack(w http.ResponseWriter, r *http.Request) {
	parent, ok := pathID(w, r)
	if !ok {
		return
	}
	var t Track
	if !h.bind(w, r, &t) {
		return
	}
	t.EpisodioID = parent
	err := h.repo.CreateTrack(r.Context(), &t)
	h.respond(w, r, http.StatusCreated, t, err)
}

func (h *Handler) updateTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var t Track
	if !h.bind(w, r, &t) {
		return
	}
	t.ID = id
	err := h.repo.UpdateTrack(r.Context(), &t)
	h.respond(w, r, http.StatusOK, t, err)
}

func (h *Handler) deleteTrack(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	h.respond(w, r, http.StatusNoContent, nil, h.repo.DeleteTrack(r.Context(), id))
}

/*──────────────────────────── helpers ──────────────────────────────────────*/

type errorBody struct {
	Error  string            `json:"error"`
	Fields map[string]string `json:"fields,omitempty"`
}

// bind decodes and validates the body into dst.  On failure it has already
// written the 400 response.
func (h *Handler) bind(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBody))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error(), nil)
		return false
	}
	if err := h.validate.Struct(dst); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) {
			fields := make(map[string]string, len(verrs))
			for _, fe := range verrs {
				fields[fe.Field()] = fe.Tag()
			}
			writeError(w, http.StatusBadRequest, "validation failed", fields)
			return false
		}
		writeError(w, http.StatusBadRequest, err.Error(), nil)
		return false
	}
	return true
}

// respond writes v with status, or maps err onto an HTTP status.
func (h *Handler) respond(w http.ResponseWriter, r *http.Request, status int, v any, err error) {
	if err == nil {
		if status == http.StatusNoContent {
			w.WriteHeader(status)
			return
		}
		writeJSON(w, status, v)
		return
	}

	switch kind := database.KindOf(err); {
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not found", nil)
	case kind == database.KindForeignKey:
		writeError(w, http.StatusNotFound, "parent record not found", nil)
	case kind == database.KindDuplicateEntry:
		writeError(w, http.StatusConflict, "record already exists", nil)
	case kind == database.KindNoSuchTable || kind == database.KindBadField:
		h.log.Error("✗ query hit a malformed schema",
			zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusServiceUnavailable, "database schema is incomplete; see /api/health/schema", nil)
	default:
		h.log.Error("✗ request failed",
			zap.String("method", r.Method), zap.String("path", r.URL.Path), zap.Error(err))
		writeError(w, http.StatusInternalServerError, "internal error", nil)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeError(w, http.StatusBadRequest, "id must be a positive integer", nil)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string, fields map[string]string) {
	writeJSON(w, status, errorBody{Error: msg, Fields: fields})
}
