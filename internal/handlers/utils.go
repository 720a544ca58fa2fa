package handlers

import (
	"context"
	"errors"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/foodgram/apiserver/internal/logging"
	"github.com/foodgram/apiserver/internal/services"
	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
)

const maxJSONBody = 16 << 20

type contextKey string

const contextSubjectKey contextKey = "sub"

// ErrorResponse is the error payload. Field is set for field-level failures.
type ErrorResponse struct {
	Error string `json:"error"`
	Field string `json:"field,omitempty"`
}

// userIDFromContext returns the authenticated user id, or 0 for anonymous requests.
func userIDFromContext(ctx context.Context) int {
	subject, _ := ctx.Value(contextSubjectKey).(string)
	id, err := strconv.Atoi(strings.TrimSpace(subject))
	if err != nil || id < 1 {
		return 0
	}
	return id
}

func writeJSON(w http.ResponseWriter, status int, value any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(value)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, ErrorResponse{Error: message})
}

// writeServiceError maps the service error taxonomy onto HTTP statuses.
// Unexpected errors are logged and hidden behind a generic message.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error, fallback string) {
	var fieldErr *services.FieldError
	switch {
	case errors.As(err, &fieldErr):
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fieldErr.Err.Error(), Field: fieldErr.Field})
	case errors.Is(err, services.ErrUnauthorized):
		writeError(w, http.StatusUnauthorized, err.Error())
	case errors.Is(err, services.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, services.ErrNotFound):
		writeError(w, http.StatusNotFound, "not found")
	case errors.Is(err, services.ErrAlreadyExists),
		errors.Is(err, services.ErrInvalidOperation),
		errors.Is(err, services.ErrMissingField),
		errors.Is(err, services.ErrEmptyField),
		errors.Is(err, services.ErrDuplicateValue),
		errors.Is(err, services.ErrOutOfRange),
		errors.Is(err, services.ErrInvalidValue):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg(fallback)
		writeError(w, http.StatusInternalServerError, fallback)
	}
}

// decodeJSON reads the request body into dst. A value of the wrong JSON type
// is reported as a *services.FieldError naming the offending key.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	decoder := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody))
	if err := decoder.Decode(dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if errors.As(err, &typeErr) {
			if field := jsonKey(reflect.TypeOf(dst), typeErr.Struct, typeErr.Field); field != "" {
				return &services.FieldError{Field: field, Err: services.ErrInvalidValue}
			}
		}
		return errors.New("invalid request")
	}
	return nil
}

// writeDecodeError answers a body that decodeJSON rejected.
func writeDecodeError(w http.ResponseWriter, err error) {
	var fieldErr *services.FieldError
	if errors.As(err, &fieldErr) {
		writeJSON(w, http.StatusBadRequest, ErrorResponse{Error: fieldErr.Err.Error(), Field: fieldErr.Field})
		return
	}
	writeError(w, http.StatusBadRequest, err.Error())
}

// jsonKey resolves the Go field a type error points at to its JSON key by
// walking the decode target. field may be a dotted path.
func jsonKey(t reflect.Type, structName, field string) string {
	if i := strings.LastIndexByte(field, '.'); i >= 0 {
		field = field[i+1:]
	}
	if field == "" {
		return ""
	}
	return findJSONKey(t, structName, field, map[reflect.Type]bool{})
}

func findJSONKey(t reflect.Type, structName, field string, seen map[reflect.Type]bool) string {
	for t.Kind() == reflect.Pointer || t.Kind() == reflect.Slice || t.Kind() == reflect.Array {
		t = t.Elem()
	}
	if t.Kind() != reflect.Struct || seen[t] {
		return ""
	}
	seen[t] = true

	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		if !f.IsExported() {
			continue
		}
		key := f.Name
		if tag, _, _ := strings.Cut(f.Tag.Get("json"), ","); tag != "" && tag != "-" {
			key = tag
		}
		if (structName == "" || t.Name() == structName) && (f.Name == field || key == field) {
			return key
		}
	}
	for i := 0; i < t.NumField(); i++ {
		if key := findJSONKey(t.Field(i).Type, structName, field, seen); key != "" {
			return key
		}
	}
	return ""
}

func parseIDParam(r *http.Request, name string) (int, error) {
	id, err := strconv.Atoi(chi.URLParam(r, name))
	if err != nil || id < 1 {
		return 0, errors.New("invalid " + name)
	}
	return id, nil
}

// Healthz reports liveness.
func Healthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
