package activity

import (
	"bytes"
	"embed"
	"encoding/json"
	"html/template"
	"net/http"
)

//go:embed templates/*.html
var templateFS embed.FS

var templates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const pageTitle = "Team Activity Scheduler"

type (
	pageData struct {
		Title    string
		Weekdays []Weekday
	}

	formData struct {
		Title       string
		Description string
		Day         Day
		Time        string
		Weekdays    []Weekday
		Errors      map[string]string
	}

	// editData holds the edit buffers. They are kept separate from the stored activity
	// so a failed save re-renders what the user typed.
	editData struct {
		ID          string
		Version     int
		Title       string
		Description string
		Time        string
		Errors      map[string]string
	}

	toast struct {
		Level   string `json:"level"`
		Message string `json:"message"`
	}

	// triggers are the client events attached to a fragment response via HX-Trigger.
	triggers struct {
		refresh     bool
		closeDialog bool
		toast       *toast
	}
)

func newFormData(in CreateActivityIn, errs map[string]string) formData {
	return formData{
		Title:       in.Title,
		Description: in.Description,
		Day:         in.Day,
		Time:        in.Time,
		Weekdays:    Weekdays,
		Errors:      errs,
	}
}

func newEditData(a Activity) editData {
	return editData{
		ID:          a.ID,
		Version:     a.Version,
		Title:       a.Title,
		Description: a.Description,
		Time:        a.Time,
	}
}

func successToast(message string) *toast { return &toast{Level: "success", Message: message} }
func errorToast(message string) *toast   { return &toast{Level: "error", Message: message} }
func infoToast(message string) *toast    { return &toast{Level: "info", Message: message} }

// set writes the HX-Trigger header. Must be called before the body is written.
func (t triggers) set(w http.ResponseWriter) {
	events := map[string]any{}
	if t.refresh {
		events["activitiesChanged"] = true
	}
	if t.closeDialog {
		events["closeDialog"] = true
	}
	if t.toast != nil {
		events["toast"] = t.toast
	}
	if len(events) == 0 {
		return
	}

	header, err := json.Marshal(events)
	if err != nil {
		return
	}
	w.Header().Set("HX-Trigger", string(header))
}

// render executes the named template into a buffer first so a template error never leaves a half-written fragment.
func render(w http.ResponseWriter, status int, name string, data any) error {
	var buf bytes.Buffer
	if err := templates.ExecuteTemplate(&buf, name, data); err != nil {
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return err
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	_, err := buf.WriteTo(w)
	return err
}

// renderCard writes the fragment for state. The removed state is an empty body, which makes HTMX drop the card.
func renderCard(w http.ResponseWriter, state CardState, data editData, current Activity) error {
	switch state {
	case CardEditing:
		return render(w, http.StatusOK, "card-edit", data)
	case CardViewing:
		return render(w, http.StatusOK, "card", current)
	default:
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		return nil
	}
}
