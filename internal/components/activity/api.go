package activity

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

type (
	APIRouter struct {
		service servicer
	}

	errorResponse struct {
		Type   string            `json:"type"`
		Detail string            `json:"detail"`
		Fields map[string]string `json:"fields,omitempty"`
	}
)

func NewAPIRouter(service servicer) chi.Router {
	router := &APIRouter{service: service}
	return router.Routes()
}

func (a *APIRouter) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/", a.ListActivities)
	router.Post("/", a.CreateActivity)
	router.Get("/{id}", a.GetActivity)
	router.Patch("/{id}", a.UpdateActivity)
	router.Delete("/{id}", a.DeleteActivity)

	return router
}

func (a *APIRouter) ListActivities(w http.ResponseWriter, req *http.Request) {
	activities, err := a.service.GetActivities(req.Context())
	if err != nil {
		a.fail(w, req, err)
		return
	}
	if activities == nil {
		activities = []Activity{}
	}
	writeJSON(w, http.StatusOK, activities)
}

func (a *APIRouter) GetActivity(w http.ResponseWriter, req *http.Request) {
	activity, err := a.service.GetActivityByID(req.Context(), chi.URLParam(req, "id"))
	if err != nil {
		a.fail(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, activity)
}

func (a *APIRouter) CreateActivity(w http.ResponseWriter, req *http.Request) {
	var in CreateActivityIn
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	created, err := a.service.CreateActivity(req.Context(), in)
	if err != nil {
		a.fail(w, req, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

// UpdateActivity applies a partial update. Omitting version makes the write unconditional.
func (a *APIRouter) UpdateActivity(w http.ResponseWriter, req *http.Request) {
	var in UpdateActivityIn
	if err := json.NewDecoder(req.Body).Decode(&in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_json", err.Error())
		return
	}

	updated, err := a.service.UpdateActivity(req.Context(), chi.URLParam(req, "id"), in)
	if err != nil {
		a.fail(w, req, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

func (a *APIRouter) DeleteActivity(w http.ResponseWriter, req *http.Request) {
	if err := a.service.DeleteActivity(req.Context(), chi.URLParam(req, "id")); err != nil {
		a.fail(w, req, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// fail maps service errors onto status codes.
func (a *APIRouter) fail(w http.ResponseWriter, req *http.Request, err error) {
	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{
			Type:   "validation_failed",
			Detail: vErr.Error(),
			Fields: vErr.FieldErrors,
		})
	case errors.Is(err, ErrNotFound):
		writeError(w, http.StatusNotFound, "not_found", err.Error())
	case errors.Is(err, ErrVersionConflict):
		writeError(w, http.StatusConflict, "version_conflict", err.Error())
	default:
		hlog.FromRequest(req).Error().Err(err).Str("path", req.URL.Path).Msg("Activity API request failed")
		writeError(w, http.StatusInternalServerError, "internal", "internal server error")
	}
}

func writeError(w http.ResponseWriter, status int, code, detail string) {
	writeJSON(w, status, errorResponse{Type: code, Detail: detail})
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}
