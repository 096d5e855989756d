package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/colonyops/saveslots/internal/core/saves"
	"github.com/colonyops/saveslots/internal/saveslots"
	"github.com/colonyops/saveslots/internal/store/jsonfile"
)

type testAPI struct {
	handler http.Handler
	dir     string
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	dir := t.TempDir()
	store, err := jsonfile.NewSlotStore(dir)
	require.NoError(t, err)

	svc := saveslots.NewService(store, zerolog.Nop())
	srv := NewServer(zerolog.Nop(), svc, ServerConfig{})

	return &testAPI{handler: srv.Handler(), dir: dir}
}

func (a *testAPI) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}

	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func (a *testAPI) writeSlotFile(t *testing.T, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(a.dir, name), []byte(content), 0o644))
}

func TestSaves_SaveThenGet(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/saves", `{"id":2,"data":{"meta":{"name":"Hero"},"time":"2024-01-01","hp":12}}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	rec = a.do(t, http.MethodGet, "/api/saves/2", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"meta":{"name":"Hero"},"time":"2024-01-01","hp":12}`, rec.Body.String())
}

func TestSaves_SaveDefaults(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodPost, "/api/saves", `{}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = a.do(t, http.MethodGet, "/api/saves/1", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{}`, rec.Body.String())
}

func TestSaves_SaveErrors(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
		msg    string
	}{
		{name: "malformed body", body: `{"id":1,`, status: http.StatusBadRequest, msg: "Invalid JSON"},
		{name: "not an object", body: `[1,2]`, status: http.StatusBadRequest, msg: "Invalid JSON"},
		{name: "empty body", body: ``, status: http.StatusBadRequest, msg: "Invalid JSON"},
		{name: "string id", body: `{"id":"1","data":{}}`, status: http.StatusBadRequest, msg: "Invalid JSON"},
		{name: "zero id", body: `{"id":0,"data":{}}`, status: http.StatusBadRequest, msg: "Invalid slot"},
		{name: "negative id", body: `{"id":-4,"data":{}}`, status: http.StatusBadRequest, msg: "Invalid slot"},
		{name: "trailing garbage", body: `{"id":4,"data":{"a":1}} garbage`, status: http.StatusBadRequest, msg: "Invalid JSON"},
		{name: "second value", body: `{"id":4,"data":{}} {"id":5}`, status: http.StatusBadRequest, msg: "Invalid JSON"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI(t)

			req := httptest.NewRequest(http.MethodPost, "/api/saves", strings.NewReader(tt.body))
			rec := httptest.NewRecorder()
			a.handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, fmt.Sprintf(`{"error":%q}`, tt.msg), rec.Body.String())
		})
	}
}

func TestSaves_SaveTooLarge(t *testing.T) {
	a := newTestAPI(t)

	body := `{"id":1,"data":"` + strings.Repeat("x", maxBodyBytes) + `"}`
	rec := a.do(t, http.MethodPost, "/api/saves", body)

	assert.Equal(t, http.StatusRequestEntityTooLarge, rec.Code)
	assert.JSONEq(t, `{"error":"Save too large"}`, rec.Body.String())
}

func TestSaves_List(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/saves", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
	assert.Equal(t, "0", rec.Header().Get(SkippedHeader))

	a.do(t, http.MethodPost, "/api/saves", `{"id":3,"data":{"meta":{"name":"C"},"time":"t3"}}`)
	a.do(t, http.MethodPost, "/api/saves", `{"id":1,"data":{"meta":{"name":"A"}}}`)
	a.writeSlotFile(t, "slot_2.json", `{broken`)
	a.writeSlotFile(t, "notes.txt", `ignored`)

	rec = a.do(t, http.MethodGet, "/api/saves", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[
		{"id":1,"meta":{"name":"A"},"time":null},
		{"id":3,"meta":{"name":"C"},"time":"t3"}
	]`, rec.Body.String())
	assert.Equal(t, "1", rec.Header().Get(SkippedHeader))
}

func TestSaves_Get(t *testing.T) {
	a := newTestAPI(t)
	a.writeSlotFile(t, "slot_5.json", `{"a":`)

	tests := []struct {
		name   string
		path   string
		status int
		body   string
	}{
		{name: "missing slot", path: "/api/saves/9", status: http.StatusNotFound, body: `{"error":"Save not found"}`},
		{name: "corrupt slot", path: "/api/saves/5", status: http.StatusInternalServerError, body: `{"error":"Invalid save format"}`},
		{name: "slot zero", path: "/api/saves/0", status: http.StatusBadRequest, body: `{"error":"Invalid slot"}`},
		{name: "overflowing slot", path: "/api/saves/99999999999999999999999", status: http.StatusBadRequest, body: `{"error":"Invalid slot"}`},
		{name: "non numeric slot", path: "/api/saves/abc", status: http.StatusNotFound, body: `{"error":"Not found"}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := a.do(t, http.MethodGet, tt.path, "")
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.body, rec.Body.String())
		})
	}
}

func TestSaves_Delete(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/api/saves", `{"id":4,"data":{}}`)

	rec := a.do(t, http.MethodDelete, "/api/saves/4", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"ok":true}`, rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/saves/4", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	// deleting an absent slot still succeeds
	rec = a.do(t, http.MethodDelete, "/api/saves/4", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestSaves_Import(t *testing.T) {
	tests := []struct {
		name     string
		existing string
		body     string
		status   int
		resp     string
		slot     int
		stored   string
	}{
		{
			name:   "stringified document",
			body:   `{"id":3,"json":"{\"meta\":{\"name\":\"X\"}}"}`,
			status: http.StatusOK,
			resp:   `{"ok":true}`,
			slot:   3,
			stored: `{"meta":{"name":"X"}}`,
		},
		{
			name:   "defaults",
			body:   `{}`,
			status: http.StatusOK,
			resp:   `{"ok":true}`,
			slot:   1,
			stored: `{}`,
		},
		{
			name:   "invalid inner json",
			body:   `{"id":2,"json":"{not json"}`,
			status: http.StatusBadRequest,
			resp:   `{"error":"Invalid JSON"}`,
		},
		{
			name:   "json is not a string",
			body:   `{"id":2,"json":{"meta":{}}}`,
			status: http.StatusBadRequest,
			resp:   `{"error":"Invalid JSON"}`,
		},
		{
			name:   "invalid slot",
			body:   `{"id":-1,"json":"{}"}`,
			status: http.StatusBadRequest,
			resp:   `{"error":"Invalid slot"}`,
		},
		{
			name:     "null json keeps existing save",
			existing: `{"meta":{"name":"Hero"},"level":9}`,
			body:     `{"id":2,"json":null}`,
			status:   http.StatusBadRequest,
			resp:     `{"error":"Invalid JSON"}`,
			slot:     2,
			stored:   `{"meta":{"name":"Hero"},"level":9}`,
		},
		{
			name:     "numeric json keeps existing save",
			existing: `{"level":1}`,
			body:     `{"id":2,"json":12}`,
			status:   http.StatusBadRequest,
			resp:     `{"error":"Invalid JSON"}`,
			slot:     2,
			stored:   `{"level":1}`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newTestAPI(t)
			if tt.existing != "" {
				rec := a.do(t, http.MethodPost, "/api/saves", fmt.Sprintf(`{"id":%d,"data":%s}`, tt.slot, tt.existing))
				require.Equal(t, http.StatusOK, rec.Code)
			}

			rec := a.do(t, http.MethodPost, "/api/saves/import", tt.body)
			assert.Equal(t, tt.status, rec.Code)
			assert.JSONEq(t, tt.resp, rec.Body.String())

			if tt.stored == "" {
				entries, err := os.ReadDir(a.dir)
				require.NoError(t, err)
				for _, e := range entries {
					assert.NotContains(t, e.Name(), "slot_")
				}
				return
			}

			rec = a.do(t, http.MethodGet, fmt.Sprintf("/api/saves/%d", tt.slot), "")
			require.Equal(t, http.StatusOK, rec.Code)
			assert.JSONEq(t, tt.stored, rec.Body.String())
		})
	}
}

func TestSaves_Export(t *testing.T) {
	a := newTestAPI(t)
	a.do(t, http.MethodPost, "/api/saves", `{"id":7,"data":{"meta":{"name":"Z"}}}`)

	rec := a.do(t, http.MethodGet, "/api/saves/7/export", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, `attachment; filename="slot_7.json"`, rec.Header().Get("Content-Disposition"))
	assert.Equal(t, "{\n  \"meta\": {\n    \"name\": \"Z\"\n  }\n}\n", rec.Body.String())

	rec = a.do(t, http.MethodGet, "/api/saves/8/export", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Empty(t, rec.Header().Get("Content-Disposition"))
}

func TestSaves_UnknownRoutes(t *testing.T) {
	a := newTestAPI(t)

	rec := a.do(t, http.MethodGet, "/api/nope", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"error":"Not found"}`, rec.Body.String())

	rec = a.do(t, http.MethodPut, "/api/saves/1", `{}`)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.JSONEq(t, `{"error":"Method not allowed"}`, rec.Body.String())
}

func TestErrorStatus(t *testing.T) {
	tests := []struct {
		err    error
		status int
		msg    string
	}{
		{err: saves.ErrNotFound, status: http.StatusNotFound, msg: "Save not found"},
		{err: fmt.Errorf("slot 2: %w", saves.ErrCorrupt), status: http.StatusInternalServerError, msg: "Invalid save format"},
		{err: fmt.Errorf("%w: eof", saves.ErrInvalidInput), status: http.StatusBadRequest, msg: "Invalid JSON"},
		{err: saves.ErrInvalidSlot, status: http.StatusBadRequest, msg: "Invalid slot"},
		{err: &http.MaxBytesError{Limit: 1}, status: http.StatusRequestEntityTooLarge, msg: "Save too large"},
		{err: errors.New("disk on fire"), status: http.StatusInternalServerError, msg: "Internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.msg, func(t *testing.T) {
			status, msg := errorStatus(tt.err)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.msg, msg)
		})
	}
}

type failingService struct {
	SaveService
	err error
}

func (f failingService) List(context.Context) (saves.ListResult, error) {
	return saves.ListResult{}, f.err
}

func TestSaves_InternalErrorIsNotLeaked(t *testing.T) {
	srv := NewServer(zerolog.Nop(), failingService{err: errors.New("permission denied: /secret/path")}, ServerConfig{})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/saves", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"Internal error"}`, rec.Body.String())

	var body map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.NotContains(t, body["error"], "secret")
}
