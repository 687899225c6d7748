package worker

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog/log"

	"github.com/thebtf/promptdeck/internal/filter"
	"github.com/thebtf/promptdeck/internal/library"
	"github.com/thebtf/promptdeck/internal/view"
	"github.com/thebtf/promptdeck/pkg/models"
)

const maxStateBody = 64 << 10

type catalogKey struct{}

// StateRequest is the body of POST /api/state.
type StateRequest struct {
	State  filter.State  `json:"state"`
	Action filter.Action `json:"action"`
}

// StateResponse answers POST /api/state.
type StateResponse struct {
	State filter.State `json:"state"`
	View  view.Page    `json:"view"`
}

// PromptsResponse answers GET /api/prompts.
type PromptsResponse struct {
	State        filter.State          `json:"state"`
	Prompts      []models.MappedPrompt `json:"prompts"`
	Shown        int                   `json:"shown"`
	Total        int                   `json:"total"`
	Meta         string                `json:"meta"`
	EmptyMessage string                `json:"emptyMessage,omitempty"`
}

// FiltersResponse answers GET /api/filters.
type FiltersResponse struct {
	State      filter.State      `json:"state"`
	Industries []models.Industry `json:"industries"`
	JobAreas   []string          `json:"jobAreas"`
	UseCases   []string          `json:"useCases"`
}

// LibraryResponse answers GET /api/library.
type LibraryResponse struct {
	models.Library
	Count    int       `json:"count"`
	Version  string    `json:"version"`
	LoadedAt time.Time `json:"loadedAt"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// requireLibrary answers 503 until a library snapshot is available and otherwise
// hands the snapshot to the handler, so one request always sees one version.
func (s *Service) requireLibrary(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		catalog, err := s.store.Current()
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, library.UserMessage(err))
			return
		}
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), catalogKey{}, catalog)))
	})
}

func catalogFrom(r *http.Request) *library.Catalog {
	c, _ := r.Context().Value(catalogKey{}).(*library.Catalog)
	return c
}

// stateFromQuery reads industry, jobArea, useCase and q and normalises them.
func stateFromQuery(c *library.Catalog, r *http.Request) filter.State {
	q := r.URL.Query()
	return filter.Normalize(c, filter.State{
		IndustryID: q.Get("industry"),
		JobArea:    q.Get("jobArea"),
		UseCase:    q.Get("useCase"),
		Query:      q.Get("q"),
	})
}

func (s *Service) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{
		"version": s.version,
		"uptime":  time.Since(s.startTime).Round(time.Second).String(),
	}
	catalog, err := s.store.Current()
	if err != nil {
		resp["status"] = "error"
		if errors.Is(err, library.ErrNotLoaded) {
			resp["status"] = "starting"
		}
		resp["error"] = library.UserMessage(err)
		writeJSON(w, http.StatusServiceUnavailable, resp)
		return
	}
	resp["status"] = "ok"
	resp["prompts"] = catalog.Count()
	resp["libraryVersion"] = catalog.Version()
	writeJSON(w, http.StatusOK, resp)
}

// handleDataset serves the merged dataset. Any cache-busting parameter is ignored.
func (s *Service) handleDataset(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	writeJSON(w, http.StatusOK, catalogFrom(r).Library())
}

func (s *Service) handleLibrary(w http.ResponseWriter, r *http.Request) {
	c := catalogFrom(r)
	writeJSON(w, http.StatusOK, LibraryResponse{
		Library:  c.Library(),
		Count:    c.Count(),
		Version:  c.Version(),
		LoadedAt: c.LoadedAt(),
	})
}

func (s *Service) handlePrompts(w http.ResponseWriter, r *http.Request) {
	c := catalogFrom(r)
	st := stateFromQuery(c, r)
	visible := s.engine.VisiblePrompts(c, st)

	resp := PromptsResponse{
		State:   st,
		Prompts: visible,
		Shown:   len(visible),
		Total:   c.Count(),
		Meta:    view.ResultsMeta(len(visible), c.Count()),
	}
	if len(visible) == 0 {
		resp.EmptyMessage = view.EmptyMessage(st)
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Service) handlePrompt(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	p, ok := catalogFrom(r).Prompt(id)
	if !ok {
		writeError(w, http.StatusNotFound, "prompt not found: "+id)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (s *Service) handleFilters(w http.ResponseWriter, r *http.Request) {
	c := catalogFrom(r)
	st := stateFromQuery(c, r)
	writeJSON(w, http.StatusOK, FiltersResponse{
		State:      st,
		Industries: c.Industries(),
		JobAreas:   filter.AvailableJobAreas(c, st.IndustryID),
		UseCases:   filter.AvailableUseCases(c, st.IndustryID, st.JobArea),
	})
}

func (s *Service) handleView(w http.ResponseWriter, r *http.Request) {
	c := catalogFrom(r)
	writeJSON(w, http.StatusOK, view.Render(s.engine, c, stateFromQuery(c, r)))
}

// handleState applies one user interaction to a client-held state.
func (s *Service) handleState(w http.ResponseWriter, r *http.Request) {
	c := catalogFrom(r)

	var req StateRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxStateBody)).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	st := filter.Normalize(c, req.State)
	if req.Action.Type != "" {
		var err error
		st, err = filter.Apply(c, st, req.Action)
		if err != nil {
			if errors.Is(err, filter.ErrUnknownAction) {
				writeError(w, http.StatusBadRequest, err.Error())
				return
			}
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
	}

	page := view.Render(s.engine, c, st)
	writeJSON(w, http.StatusOK, StateResponse{State: page.State, View: page})
}

func (s *Service) handleReload(w http.ResponseWriter, r *http.Request) {
	if s.config.DashboardReadOnly {
		writeError(w, http.StatusForbidden, "reload disabled")
		return
	}
	if err := s.Reload(r.Context()); err != nil {
		writeError(w, http.StatusServiceUnavailable, library.UserMessage(err))
		return
	}
	c, _ := s.store.Current()
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "reloaded",
		"version": c.Version(),
		"count":   c.Count(),
	})
}
