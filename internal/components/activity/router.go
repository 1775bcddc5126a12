package activity

import (
	"encoding/csv"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/hlog"
)

type (
	Router struct {
		service servicer
	}
)

func NewRouter(service servicer) chi.Router {
	router := &Router{service: service}
	return router.Routes()
}

func (r *Router) Routes() chi.Router {
	router := chi.NewRouter()

	router.Get("/board", r.GetBoard)
	router.Get("/new", r.GetCreateForm)
	router.Post("/", r.CreateActivity)
	router.Get("/export", r.ExportCSV)
	router.Get("/{id}", r.GetCard)
	router.Get("/{id}/edit", r.GetEditForm)
	router.Put("/{id}", r.UpdateActivity)
	router.Get("/{id}/cancel-edit", r.CancelEdit)
	router.Delete("/{id}", r.DeleteActivity)

	return router
}

// NewPageHandler serves the page shell. The board itself is loaded by HTMX once the skeleton is shown.
func NewPageHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, req *http.Request) {
		logger := hlog.FromRequest(req)

		data := pageData{Title: pageTitle, Weekdays: Weekdays}
		if err := render(w, http.StatusOK, "page", data); err != nil {
			logger.Error().Err(err).Msg("Failed to render page")
		}
	}
}

// GetBoard returns the five weekday columns. It is re-requested after every successful mutation.
func (r *Router) GetBoard(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	columns, err := r.service.GetBoard(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting activities")
		triggers{toast: errorToast("Failed to load activities")}.set(w)
		if err := render(w, http.StatusOK, "board-error", nil); err != nil {
			logger.Error().Err(err).Msg("Failed to render board error")
		}
		return
	}

	if err := render(w, http.StatusOK, "board", columns); err != nil {
		logger.Error().Err(err).Msg("Failed to render board")
	}
}

// GetCreateForm returns an empty creation form, preselecting the requesting column's day.
func (r *Router) GetCreateForm(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)

	in := CreateActivityIn{}
	if day := Day(req.URL.Query().Get("day")); day.Valid() {
		in.Day = day
	}

	if err := render(w, http.StatusOK, "form", newFormData(in, nil)); err != nil {
		logger.Error().Err(err).Msg("Failed to render activity form")
	}
}

// CreateActivity inserts an activity from the dialog form. The form is cleared only on success.
func (r *Router) CreateActivity(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	in := CreateActivityIn{
		Title:       req.FormValue("title"),
		Description: req.FormValue("description"),
		Day:         Day(req.FormValue("day")),
		Time:        req.FormValue("time"),
	}

	created, err := r.service.CreateActivity(ctx, in)

	var vErr *ValidationError
	switch {
	case errors.As(err, &vErr):
		logger.Debug().Interface("fields", vErr.FieldErrors).Msg("Rejected activity form")
		triggers{toast: errorToast("Please fill in all required fields")}.set(w)
		err = render(w, http.StatusOK, "form", newFormData(in, vErr.FieldErrors))
	case err != nil:
		logger.Error().Err(err).Msg("Error creating activity")
		triggers{toast: errorToast("Failed to add activity")}.set(w)
		err = render(w, http.StatusOK, "form", newFormData(in, nil))
	default:
		logger.Info().Str("id", created.ID).Str("day", string(created.Day)).Msg("Activity added")
		triggers{refresh: true, closeDialog: true, toast: successToast("Activity added successfully!")}.set(w)
		err = render(w, http.StatusOK, "form", newFormData(CreateActivityIn{}, nil))
	}
	if err != nil {
		logger.Error().Err(err).Msg("Failed to render activity form")
	}
}

// GetCard returns the viewing fragment of a single activity.
func (r *Router) GetCard(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)
	id := chi.URLParam(req, "id")

	activity, ok := r.lookup(w, req, id)
	if !ok {
		return
	}

	if err := renderCard(w, CardViewing, editData{}, *activity); err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Failed to render card")
	}
}

// GetEditForm switches a card into editing, seeding the buffers from the stored activity.
func (r *Router) GetEditForm(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)
	id := chi.URLParam(req, "id")

	activity, ok := r.lookup(w, req, id)
	if !ok {
		return
	}

	next, _ := CardViewing.Transition(EventEdit, nil)
	if err := renderCard(w, next, newEditData(*activity), *activity); err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Failed to render edit form")
	}
}

// UpdateActivity saves the edit buffers. Validation and store failures keep the card in editing with the buffers intact.
func (r *Router) UpdateActivity(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)
	id := chi.URLParam(req, "id")

	if err := req.ParseForm(); err != nil {
		logger.Warn().Err(err).Msg("Failed to parse form")
		http.Error(w, "Invalid form data", http.StatusBadRequest)
		return
	}

	// The edit fragment always carries the version it was rendered from. Without it the save
	// would silently become an unconditional write.
	version, err := strconv.Atoi(req.FormValue("version"))
	if err != nil || version < 1 {
		logger.Warn().Str("id", id).Str("version", req.FormValue("version")).Msg("Rejected edit without a valid version")
		triggers{toast: errorToast("Failed to update activity")}.set(w)
		http.Error(w, "Invalid version", http.StatusBadRequest)
		return
	}

	buffers := editData{
		ID:          id,
		Version:     version,
		Title:       req.FormValue("title"),
		Description: req.FormValue("description"),
		Time:        req.FormValue("time"),
	}

	updated, err := r.service.UpdateActivity(ctx, id, UpdateActivityIn{
		Title:       &buffers.Title,
		Description: &buffers.Description,
		Time:        &buffers.Time,
		Version:     buffers.Version,
	})

	if errors.Is(err, ErrNotFound) {
		logger.Warn().Str("id", id).Msg("Activity vanished while editing")
		triggers{refresh: true, toast: infoToast("Activity no longer exists")}.set(w)
		if err := renderCard(w, CardRemoved, buffers, Activity{}); err != nil {
			logger.Error().Err(err).Msg("Failed to render removed card")
		}
		return
	}

	next, _ := CardEditing.Transition(EventSave, err)

	var (
		vErr *ValidationError
		t    triggers
	)
	switch {
	case errors.As(err, &vErr):
		buffers.Errors = vErr.FieldErrors
		message := vErr.FieldErrors["title"]
		if message == "" {
			message = vErr.FieldErrors["time"]
		}
		t.toast = errorToast(message)
	case errors.Is(err, ErrVersionConflict):
		logger.Info().Str("id", id).Int("version", buffers.Version).Msg("Edit conflicts with a newer version")
		t.toast = errorToast("Activity was changed elsewhere; reload to edit")
	case err != nil:
		logger.Error().Err(err).Str("id", id).Msg("Error updating activity")
		t.toast = errorToast("Failed to update activity")
	default:
		t.refresh = true
		t.toast = successToast("Activity updated!")
	}

	t.set(w)
	current := Activity{}
	if updated != nil {
		current = *updated
	}
	if err := renderCard(w, next, buffers, current); err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Failed to render card")
	}
}

// CancelEdit discards the edit buffers and returns the stored activity. Nothing is written.
func (r *Router) CancelEdit(w http.ResponseWriter, req *http.Request) {
	logger := hlog.FromRequest(req)
	id := chi.URLParam(req, "id")

	next, _ := CardEditing.Transition(EventCancel, nil)

	activity, err := r.service.GetActivityByID(req.Context(), id)
	if errors.Is(err, ErrNotFound) {
		logger.Warn().Str("id", id).Msg("Activity vanished while editing")
		triggers{refresh: true, toast: infoToast("Activity no longer exists")}.set(w)
		next = CardRemoved
		activity = &Activity{}
	} else if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error getting activity by ID")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if err := renderCard(w, next, editData{}, *activity); err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Failed to render card")
	}
}

// DeleteActivity removes an activity. The confirmation prompt is attached to the delete control,
// so this only runs once the user has confirmed. On failure the card is left in place.
func (r *Router) DeleteActivity(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)
	id := chi.URLParam(req, "id")

	err := r.service.DeleteActivity(ctx, id)

	t := triggers{}
	switch {
	case errors.Is(err, ErrNotFound):
		// Already gone; the card should disappear all the same.
		err = nil
		t.toast = infoToast("Activity was already deleted")
	case err != nil:
		logger.Error().Err(err).Str("id", id).Msg("Error deleting activity")
		t.toast = errorToast("Failed to delete activity")
	default:
		t.toast = successToast("Activity deleted!")
	}

	next, _ := CardViewing.Transition(EventDelete, err)
	if next != CardRemoved {
		// Keep the card exactly as rendered.
		w.Header().Set("HX-Reswap", "none")
		t.set(w)
		w.WriteHeader(http.StatusOK)
		return
	}

	t.refresh = true
	t.set(w)
	if err := renderCard(w, next, editData{}, Activity{}); err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Failed to render card")
	}
}

// ExportCSV exports all activities as a CSV file ordered by weekday and time
func (r *Router) ExportCSV(w http.ResponseWriter, req *http.Request) {
	ctx := req.Context()
	logger := hlog.FromRequest(req)

	activities, err := r.service.GetActivities(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Error getting activities for export")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename=activities.csv")

	writer := csv.NewWriter(w)
	defer writer.Flush()

	if err := writer.Write([]string{"Day", "Time", "Title", "Description", "Updated At"}); err != nil {
		logger.Error().Err(err).Msg("Error writing CSV header")
		return
	}

	for _, activity := range sortByWeek(activities) {
		record := []string{
			string(activity.Day),
			activity.Time,
			activity.Title,
			activity.Description,
			time.UnixMilli(activity.UpdatedAt).UTC().Format("2006-01-02 15:04:05"),
		}
		if err := writer.Write(record); err != nil {
			logger.Error().Err(err).Msg("Error writing CSV record")
			return
		}
	}
}

// lookup loads an activity for a fragment, writing 404 or 500 itself when that fails.
func (r *Router) lookup(w http.ResponseWriter, req *http.Request, id string) (*Activity, bool) {
	logger := hlog.FromRequest(req)

	activity, err := r.service.GetActivityByID(req.Context(), id)
	if errors.Is(err, ErrNotFound) {
		logger.Warn().Str("id", id).Msg("Activity not found")
		http.Error(w, "Activity not found", http.StatusNotFound)
		return nil, false
	}
	if err != nil {
		logger.Error().Err(err).Str("id", id).Msg("Error getting activity by ID")
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return nil, false
	}
	return activity, true
}
