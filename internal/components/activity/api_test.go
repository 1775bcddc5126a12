package activity

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doJSON(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestAPIActivityLifecycle(t *testing.T) {
	handler, _ := newTestRouter(t, NewMemoryStore())

	rr := doJSON(t, handler, http.MethodGet, "/api/activities/", "")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `[]`, rr.Body.String())

	rr = doJSON(t, handler, http.MethodPost, "/api/activities/",
		`{"title":"Standup","description":"Daily sync","day":"monday","time":"9:00"}`)
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())

	var created Activity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &created))
	assert.NotEmpty(t, created.ID)
	assert.Equal(t, "09:00", created.Time)
	assert.Equal(t, 1, created.Version)

	rr = doJSON(t, handler, http.MethodGet, "/api/activities/"+created.ID, "")
	require.Equal(t, http.StatusOK, rr.Code)

	rr = doJSON(t, handler, http.MethodPatch, "/api/activities/"+created.ID, `{"time":"09:30","version":1}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var updated Activity
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &updated))
	assert.Equal(t, "Standup", updated.Title)
	assert.Equal(t, "09:30", updated.Time)
	assert.Equal(t, 2, updated.Version)

	rr = doJSON(t, handler, http.MethodPatch, "/api/activities/"+created.ID, `{"title":"Stale","version":1}`)
	require.Equal(t, http.StatusConflict, rr.Code)
	assert.JSONEq(t, `{"type":"version_conflict","detail":"activity was modified concurrently"}`, rr.Body.String())

	rr = doJSON(t, handler, http.MethodDelete, "/api/activities/"+created.ID, "")
	require.Equal(t, http.StatusNoContent, rr.Code)

	rr = doJSON(t, handler, http.MethodDelete, "/api/activities/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, rr.Code)

	rr = doJSON(t, handler, http.MethodGet, "/api/activities/"+created.ID, "")
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestAPICreateValidation(t *testing.T) {
	handler, _ := newTestRouter(t, NewMemoryStore())

	rr := doJSON(t, handler, http.MethodPost, "/api/activities/", `{"title":"","day":"sunday"}`)

	require.Equal(t, http.StatusUnprocessableEntity, rr.Code)
	var resp errorResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	assert.Equal(t, "validation_failed", resp.Type)
	assert.Equal(t, map[string]string{
		"title": "Title is required",
		"day":   "Day is required",
		"time":  "Time is required (HH:MM)",
	}, resp.Fields)
}

func TestAPIRejectsMalformedJSON(t *testing.T) {
	handler, _ := newTestRouter(t, NewMemoryStore())

	rr := doJSON(t, handler, http.MethodPost, "/api/activities/", `{"title":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestAPIStoreFailure(t *testing.T) {
	handler, _ := newTestRouter(t, brokenStore{Store: NewMemoryStore(), err: errors.New("down")})

	rr := doJSON(t, handler, http.MethodGet, "/api/activities/", "")

	require.Equal(t, http.StatusInternalServerError, rr.Code)
	assert.JSONEq(t, `{"type":"internal","detail":"internal server error"}`, rr.Body.String())
}
