package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/hugh/go-recipes/internal/api/dto"
	"github.com/hugh/go-recipes/internal/auth"
	"github.com/hugh/go-recipes/internal/store"
	"github.com/hugh/go-recipes/internal/validation"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeValidation(w http.ResponseWriter, errs validation.Errors) {
	writeJSON(w, http.StatusBadRequest, dto.ErrorResponse{Error: "Validation failed", Details: errs})
}

// writeError maps service errors onto HTTP responses. Anything unexpected is
// logged and reported as a 500 without detail.
func writeError(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	if errs, ok := validation.As(err); ok {
		writeValidation(w, errs)
		return
	}

	switch {
	case errors.Is(err, auth.ErrUserExists):
		writeValidation(w, validation.Errors{"email": "user with this email already exists."})
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeValidation(w, validation.Errors{"non_field_errors": "Unable to authenticate with provided credentials."})
	case errors.Is(err, store.ErrNotFound), errors.Is(err, auth.ErrUserNotFound):
		writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Not found."})
	default:
		logger.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", chimw.GetReqID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, dto.ErrorResponse{Error: "Internal server error"})
	}
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return validation.DecodeError(err)
	}
	return nil
}

// idParam reads the {id} URL parameter. Malformed ids cannot match a row.
func idParam(r *http.Request) (uint, error) {
	id, err := strconv.ParseUint(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id == 0 {
		return 0, store.ErrNotFound
	}
	return uint(id), nil
}

// MethodNotAllowed answers with the same JSON error shape as every other handler.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusMethodNotAllowed, dto.ErrorResponse{Error: "Method \"" + r.Method + "\" not allowed."})
}

func NotFound(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusNotFound, dto.ErrorResponse{Error: "Not found."})
}

func parseFlag(field, raw string) (bool, error) {
	switch raw {
	case "", "0", "false", "False":
		return false, nil
	case "1", "true", "True":
		return true, nil
	}
	return false, validation.Errors{field: "Must be 0 or 1."}
}
