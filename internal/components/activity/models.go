package activity

import (
	"errors"
	"strings"
	"time"
)

// Collection is the logical namespace (table name) activities are stored under.
const Collection = "activities"

// timeLayout is the zero-padded 24-hour clock used for Activity.Time.
const timeLayout = "15:04"

var (
	ErrNotFound        = errors.New("activity not found")
	ErrVersionConflict = errors.New("activity was modified concurrently")
)

// Day is a weekday key. Only Monday to Friday are scheduled.
type Day string

const (
	Monday    Day = "monday"
	Tuesday   Day = "tuesday"
	Wednesday Day = "wednesday"
	Thursday  Day = "thursday"
	Friday    Day = "friday"
)

// Weekday pairs a day key with its display label.
type Weekday struct {
	Key   Day
	Label string
}

// Weekdays lists the scheduled days in column order.
var Weekdays = []Weekday{
	{Key: Monday, Label: "Monday"},
	{Key: Tuesday, Label: "Tuesday"},
	{Key: Wednesday, Label: "Wednesday"},
	{Key: Thursday, Label: "Thursday"},
	{Key: Friday, Label: "Friday"},
}

func (d Day) Valid() bool {
	return d.index() >= 0
}

func (d Day) index() int {
	for i, weekday := range Weekdays {
		if weekday.Key == d {
			return i
		}
	}
	return -1
}

type (
	Activity struct {
		ID          string `json:"id"`
		Title       string `json:"title"`
		Description string `json:"description"`
		Day         Day    `json:"day"`
		Time        string `json:"time"`      // HH:MM
		CreatedAt   int64  `json:"createdAt"` // unix ms
		UpdatedAt   int64  `json:"updatedAt"` // unix ms
		Version     int    `json:"version"`
	}

	CreateActivityIn struct {
		Title       string `json:"title" yaml:"title"`
		Description string `json:"description" yaml:"description"`
		Day         Day    `json:"day" yaml:"day"`
		Time        string `json:"time" yaml:"time"`
	}

	// UpdateActivityIn carries the editable fields. Day cannot change after creation.
	// Version, when non-zero, must match the stored version for the update to apply.
	UpdateActivityIn struct {
		Title       *string `json:"title,omitempty"`
		Description *string `json:"description,omitempty"`
		Time        *string `json:"time,omitempty"`
		Version     int     `json:"version,omitempty"`
	}

	// Patch is the partial document merged into a stored activity.
	Patch struct {
		Title           *string
		Description     *string
		Time            *string
		UpdatedAt       int64
		ExpectedVersion int
	}
)

// ValidationError captures field level problems that are surfaced to the user.
type ValidationError struct {
	FieldErrors map[string]string
}

func (v *ValidationError) Error() string {
	return "validation failed"
}

func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}

// normalizeTime parses a 24-hour clock value and returns it zero-padded, so that
// string order equals chronological order.
func normalizeTime(value string) (string, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", false
	}
	parsed, err := time.Parse(timeLayout, value)
	if err != nil {
		return "", false
	}
	return parsed.Format(timeLayout), true
}

// normalize trims text fields and canonicalizes the time, returning every field problem at once.
func (in CreateActivityIn) normalize() (CreateActivityIn, error) {
	var vErr ValidationError

	in.Title = strings.TrimSpace(in.Title)
	in.Description = strings.TrimSpace(in.Description)
	in.Day = Day(strings.ToLower(strings.TrimSpace(string(in.Day))))

	if in.Title == "" {
		vErr.add("title", "Title is required")
	}
	if !in.Day.Valid() {
		vErr.add("day", "Day is required")
	}
	if t, ok := normalizeTime(in.Time); ok {
		in.Time = t
	} else {
		vErr.add("time", "Time is required (HH:MM)")
	}

	if vErr.HasErrors() {
		return in, &vErr
	}
	return in, nil
}

func (in UpdateActivityIn) normalize() (UpdateActivityIn, error) {
	var vErr ValidationError

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		in.Title = &title
		if title == "" {
			vErr.add("title", "Title is required")
		}
	}
	if in.Description != nil {
		description := strings.TrimSpace(*in.Description)
		in.Description = &description
	}
	if in.Time != nil {
		if t, ok := normalizeTime(*in.Time); ok {
			in.Time = &t
		} else {
			vErr.add("time", "Time is required (HH:MM)")
		}
	}

	if vErr.HasErrors() {
		return in, &vErr
	}
	return in, nil
}

// apply merges the patch into a copy of a.
func (p Patch) apply(a Activity) Activity {
	if p.Title != nil {
		a.Title = *p.Title
	}
	if p.Description != nil {
		a.Description = *p.Description
	}
	if p.Time != nil {
		a.Time = *p.Time
	}
	a.UpdatedAt = p.UpdatedAt
	a.Version++
	return a
}
