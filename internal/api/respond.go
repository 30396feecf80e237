package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/hackgods/clinicdesk/internal/apperr"
	"github.com/hackgods/clinicdesk/internal/db"
	"github.com/hackgods/clinicdesk/internal/schedule"
)

type ErrorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

// ListResponse wraps one page of a collection.
type ListResponse[T any] struct {
	Data   []T `json:"data"`
	Total  int `json:"total"`
	Limit  int `json:"limit"`
	Offset int `json:"offset"`
}

func newList[T any](data []T, total int, page db.Page) ListResponse[T] {
	if data == nil {
		data = []T{}
	}
	page = page.Clamp()
	return ListResponse[T]{Data: data, Total: total, Limit: page.Limit, Offset: page.Offset}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, details string) {
	writeJSON(w, status, ErrorResponse{Error: code, Details: details})
}

// statusFor maps an error kind onto its HTTP status.
func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindBusinessRule:
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

// writeAppError renders err as the error body. Internal errors are logged and
// their details hidden from the caller.
func writeAppError(w http.ResponseWriter, r *http.Request, err error) {
	if ae, ok := apperr.As(err); ok && ae.Kind != apperr.KindInternal {
		writeError(w, statusFor(ae.Kind), ae.Code, ae.Message)
		return
	}
	zerolog.Ctx(r.Context()).Error().Err(err).Msg("request failed")
	writeError(w, http.StatusInternalServerError, "internal_error", "internal server error")
}

var errEmptyBody = errors.New("request body is empty")

func decodeJSON(r *http.Request, v any) error {
	if err := decodeBody(r, v); err != nil {
		if errors.Is(err, io.EOF) {
			err = errEmptyBody
		}
		return apperr.Validation("invalid_request_body", err.Error())
	}
	return nil
}

// decodeOptionalJSON is decodeJSON for endpoints whose body may be omitted.
func decodeOptionalJSON(r *http.Request, v any) error {
	if err := decodeBody(r, v); err != nil && !errors.Is(err, io.EOF) {
		return apperr.Validation("invalid_request_body", err.Error())
	}
	return nil
}

func decodeBody(r *http.Request, v any) error {
	if r.Body == nil {
		return io.EOF
	}
	return json.NewDecoder(io.LimitReader(r.Body, 1<<20)).Decode(v)
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(chi.URLParam(r, name))
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid_"+name, "%s must be a valid UUID", name)
	}
	return id, nil
}

func queryID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, nil
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, apperr.Validationf("invalid_"+name, "%s must be a valid UUID", name)
	}
	return id, nil
}

// queryDate parses an optional YYYY-MM-DD query parameter.
func queryDate(r *http.Request, name string) (schedule.Date, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return schedule.Date{}, nil
	}
	d, err := schedule.ParseDate(raw)
	if err != nil {
		return schedule.Date{}, apperr.Validation("invalid_"+name, err.Error())
	}
	return d, nil
}

func queryInt(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, apperr.Validationf("invalid_"+name, "%s must be an integer", name)
	}
	return n, nil
}

func parsePage(r *http.Request) (db.Page, error) {
	limit, err := queryInt(r, "limit")
	if err != nil {
		return db.Page{}, err
	}
	offset, err := queryInt(r, "offset")
	if err != nil {
		return db.Page{}, err
	}
	return db.Page{Limit: limit, Offset: offset}.Clamp(), nil
}

func queryStatus(r *http.Request) db.RecordStatus {
	return db.RecordStatus(r.URL.Query().Get("status"))
}
