package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog"

	"github.com/colonyops/saveslots/internal/core/saves"
)

const (
	// maxBodyBytes bounds request bodies. Save documents are game state, not
	// uploads.
	maxBodyBytes = 8 << 20

	// SkippedHeader reports how many unreadable slots a listing left out.
	SkippedHeader = "X-Skipped-Saves"
)

// SaveService is the save slot API the handlers call into.
type SaveService interface {
	List(ctx context.Context) (saves.ListResult, error)
	Save(ctx context.Context, id int, doc json.RawMessage) error
	Get(ctx context.Context, id int) (json.RawMessage, error)
	Delete(ctx context.Context, id int) error
	Import(ctx context.Context, id int, raw string) error
	Export(ctx context.Context, id int) (json.RawMessage, error)
}

type (
	saveRequest struct {
		ID   *int            `json:"id"`
		Data json.RawMessage `json:"data"`
	}

	importRequest struct {
		ID   *int            `json:"id"`
		JSON json.RawMessage `json:"json"`
	}

	okResponse struct {
		OK bool `json:"ok"`
	}

	errorResponse struct {
		Error string `json:"error"`
	}
)

type saveHandlers struct {
	svc SaveService
	log zerolog.Logger
}

func (h *saveHandlers) addHandlers(r *mux.Router) {
	r.HandleFunc("/saves", h.list).Methods(http.MethodGet)
	r.HandleFunc("/saves", h.save).Methods(http.MethodPost)
	r.HandleFunc("/saves/import", h.importSave).Methods(http.MethodPost)
	r.HandleFunc("/saves/{slot:[0-9]+}", h.get).Methods(http.MethodGet)
	r.HandleFunc("/saves/{slot:[0-9]+}", h.delete).Methods(http.MethodDelete)
	r.HandleFunc("/saves/{slot:[0-9]+}/export", h.export).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusNotFound, errorResponse{Error: "Not found"})
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusMethodNotAllowed, errorResponse{Error: "Method not allowed"})
	})
}

func (h *saveHandlers) list(w http.ResponseWriter, r *http.Request) {
	result, err := h.svc.List(r.Context())
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set(SkippedHeader, strconv.Itoa(result.Skipped))
	writeJSON(w, http.StatusOK, result.Saves)
}

func (h *saveHandlers) save(w http.ResponseWriter, r *http.Request) {
	var req saveRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.Save(r.Context(), slotOrDefault(req.ID), req.Data); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *saveHandlers) importSave(w http.ResponseWriter, r *http.Request) {
	var req importRequest
	if err := decodeBody(w, r, &req); err != nil {
		h.handleError(w, r, err)
		return
	}

	raw, err := importText(req.JSON)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.Import(r.Context(), slotOrDefault(req.ID), raw); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *saveHandlers) get(w http.ResponseWriter, r *http.Request) {
	id, err := slotParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	doc, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	writeRaw(w, http.StatusOK, doc)
}

func (h *saveHandlers) delete(w http.ResponseWriter, r *http.Request) {
	id, err := slotParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.handleError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, okResponse{OK: true})
}

func (h *saveHandlers) export(w http.ResponseWriter, r *http.Request) {
	id, err := slotParam(r)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	doc, err := h.svc.Export(r.Context(), id)
	if err != nil {
		h.handleError(w, r, err)
		return
	}

	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="slot_%d.json"`, id))
	writeRaw(w, http.StatusOK, doc)
}

// handleError maps err onto the API's error responses. Internal errors are
// logged and never echoed to the client.
func (h *saveHandlers) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := errorStatus(err)
	if status >= http.StatusInternalServerError && !errors.Is(err, saves.ErrCorrupt) {
		h.log.Error().Ctx(r.Context()).Err(err).
			Str("path", r.URL.Path).
			Msg("request failed")
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

func errorStatus(err error) (int, string) {
	var maxBytesErr *http.MaxBytesError
	switch {
	case errors.Is(err, saves.ErrNotFound):
		return http.StatusNotFound, "Save not found"
	case errors.Is(err, saves.ErrCorrupt):
		return http.StatusInternalServerError, "Invalid save format"
	case errors.As(err, &maxBytesErr):
		return http.StatusRequestEntityTooLarge, "Save too large"
	case errors.Is(err, saves.ErrInvalidInput):
		return http.StatusBadRequest, "Invalid JSON"
	case errors.Is(err, saves.ErrInvalidSlot):
		return http.StatusBadRequest, "Invalid slot"
	default:
		return http.StatusInternalServerError, "Internal error"
	}
}

func slotOrDefault(id *int) int {
	if id == nil {
		return saves.DefaultSlot
	}
	return *id
}

// importText returns the save text carried by an import request. An absent
// field imports an empty object; anything but a JSON string, null included,
// is invalid input.
func importText(field json.RawMessage) (string, error) {
	if len(field) == 0 {
		return "{}", nil
	}
	if field[0] != '"' {
		return "", fmt.Errorf("%w: json must be a string", saves.ErrInvalidInput)
	}

	var text string
	if err := json.Unmarshal(field, &text); err != nil {
		return "", fmt.Errorf("%w: %v", saves.ErrInvalidInput, err)
	}
	return text, nil
}

// slotParam reads the {slot} route variable. The route pattern only admits
// digits, so a parse failure means the number does not fit in an int.
func slotParam(r *http.Request) (int, error) {
	id, err := strconv.Atoi(mux.Vars(r)["slot"])
	if err != nil {
		return 0, saves.ErrInvalidSlot
	}
	return id, nil
}

// decodeBody decodes a JSON request body into dst. The body must hold exactly
// one JSON value; anything malformed is reported as saves.ErrInvalidInput.
func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)

	if err := dec.Decode(dst); err != nil {
		return bodyError(err)
	}

	var extra json.RawMessage
	switch err := dec.Decode(&extra); {
	case errors.Is(err, io.EOF):
		return nil
	case err != nil:
		return bodyError(err)
	default:
		return fmt.Errorf("%w: unexpected data after JSON body", saves.ErrInvalidInput)
	}
}

func bodyError(err error) error {
	var maxBytesErr *http.MaxBytesError
	if errors.As(err, &maxBytesErr) {
		return err
	}
	return fmt.Errorf("%w: %v", saves.ErrInvalidInput, err)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeRaw(w http.ResponseWriter, status int, doc json.RawMessage) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(doc)
}
