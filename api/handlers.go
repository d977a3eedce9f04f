/*
handlers.go - HTTP handler implementations

PURPOSE:
  Connects the engine and the result store to HTTP. Handlers hold their
  dependencies in an explicitly constructed Handler struct injected by
  the entry point; there is no package-level state.

ENDPOINTS:
  POST /api/runs                 Execute a run from inline input tables
  GET  /api/runs                 List persisted runs (newest first)
  GET  /api/runs/{id}            Full run document ({id} may be "latest")
  GET  /api/runs/{id}/baselines  Baseline table
  GET  /api/runs/{id}/synergy/pairs
  GET  /api/runs/{id}/synergy/groups
  GET  /api/runs/{id}/roles      Scores plus assignments
  GET  /api/runs/{id}/team       Winning team with composition analysis
  GET  /api/runs/{id}/summary    Period summary
  GET  /api/health

ERROR MAPPING:
  engine data errors       -> 422 (fix the input, recompute)
  malformed request bodies -> 400
  unknown run ids          -> 404
  everything else          -> 500
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/warp/consortium-engine/engine"
	"github.com/warp/consortium-engine/logger"
	"github.com/warp/consortium-engine/store"
)

// Handler holds the API's dependencies.
type Handler struct {
	engine *engine.Engine
	store  store.Store
	log    logger.Logger
}

// NewHandler creates an API handler. A nil log disables logging.
func NewHandler(eng *engine.Engine, st store.Store, log logger.Logger) *Handler {
	if log == nil {
		log = logger.Nop()
	}
	return &Handler{engine: eng, store: st, log: log.Named("api")}
}

// =============================================================================
// RUN EXECUTION
// =============================================================================

func (h *Handler) CreateRun(w http.ResponseWriter, r *http.Request) {
	var req RunRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, "invalid JSON body: "+err.Error())
		return
	}

	dataset, err := req.Dataset()
	if err != nil {
		h.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.engine.Run(r.Context(), dataset)
	if err != nil {
		if engine.IsDataError(err) {
			h.writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		h.log.Error(r.Context(), "run failed", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "run failed")
		return
	}

	run := &store.Run{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Result:    res,
	}
	if err := h.store.SaveRun(r.Context(), run); err != nil {
		h.log.Error(r.Context(), "failed to persist run", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to persist run")
		return
	}

	h.writeJSON(w, http.StatusCreated, toRunDTO(run))
}

// =============================================================================
// RUN RETRIEVAL
// =============================================================================

func (h *Handler) ListRuns(w http.ResponseWriter, r *http.Request) {
	metas, err := h.store.ListRuns(r.Context())
	if err != nil {
		h.log.Error(r.Context(), "failed to list runs", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to list runs")
		return
	}
	out := make([]RunMetaDTO, 0, len(metas))
	for _, m := range metas {
		out = append(out, toRunMetaDTO(m))
	}
	h.writeJSON(w, http.StatusOK, out)
}

func (h *Handler) GetRun(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toRunDTO(run))
}

func (h *Handler) GetBaselines(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toBaselineDTOs(run.Result.Baselines))
}

func (h *Handler) GetSynergyPairs(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toSynergyDTOs(run.Result.Synergy.Pairs))
}

func (h *Handler) GetSynergyGroups(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toSynergyDTOs(run.Result.Synergy.Groups))
}

func (h *Handler) GetRoles(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]interface{}{
		"scores":      toRoleScoreDTOs(run.Result.RoleScores),
		"assignments": toRoleAssignmentDTOs(run.Result.Assignments),
	})
}

func (h *Handler) GetTeam(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toTeamDTO(run.Result.Team, run.Result.Analysis))
}

func (h *Handler) GetSummary(w http.ResponseWriter, r *http.Request) {
	run, ok := h.loadRun(w, r)
	if !ok {
		return
	}
	h.writeJSON(w, http.StatusOK, toSummaryDTO(run.Result.Summary))
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// =============================================================================
// HELPERS
// =============================================================================

// loadRun resolves the {id} path parameter, treating "latest" as the
// most recent run. Writes the error response itself on failure.
func (h *Handler) loadRun(w http.ResponseWriter, r *http.Request) (*store.Run, bool) {
	id := chi.URLParam(r, "id")

	var run *store.Run
	var err error
	if id == "latest" || id == "" {
		run, err = h.store.LatestRun(r.Context())
	} else {
		run, err = h.store.GetRun(r.Context(), id)
	}
	if err != nil {
		if errors.Is(err, store.ErrRunNotFound) {
			h.writeError(w, http.StatusNotFound, "run not found")
			return nil, false
		}
		h.log.Error(r.Context(), "failed to load run", logger.Error(err))
		h.writeError(w, http.StatusInternalServerError, "failed to load run")
		return nil, false
	}
	return run, true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (h *Handler) writeError(w http.ResponseWriter, status int, msg string) {
	h.writeJSON(w, status, map[string]string{"error": msg})
}
