package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/kshaab/Coursework-5/internal/ctxkeys"
	"github.com/kshaab/Coursework-5/internal/pagination"
	"github.com/kshaab/Coursework-5/internal/repository"
	"github.com/kshaab/Coursework-5/internal/service"
	"github.com/kshaab/Coursework-5/internal/validation"
)

const maxJSONBody = 1 << 20 // 1MB

var errBadID = errors.New("invalid id")

type errorBody struct {
	Error string `json:"error"`
	Rule  string `json:"rule,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	err := json.NewEncoder(w).Encode(v)
	if err != nil {
		slog.Warn("failed to encode response", "error", err)
	}
}

// writeError maps service and store errors onto HTTP statuses. Anything
// unrecognized is logged and reported as a 500 without details.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	var ruleErr *validation.HabitRuleError
	switch {
	case errors.As(err, &ruleErr):
		writeJSON(w, http.StatusUnprocessableEntity, errorBody{Error: ruleErr.Message, Rule: ruleErr.Rule})
	case errors.Is(err, service.ErrInvalidInput), errors.Is(err, errBadID):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: err.Error()})
	case errors.Is(err, repository.ErrDuplicateEmail):
		writeJSON(w, http.StatusBadRequest, errorBody{Error: "user with this email already exists"})
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: err.Error()})
	case errors.Is(err, service.ErrInvalidToken):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "token is invalid or expired"})
	case errors.Is(err, service.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "forbidden"})
	case service.IsNotFound(err), errors.Is(err, pagination.ErrInvalidPage):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "not found"})
	default:
		slog.Error("request failed",
			"error", err,
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", ctxkeys.RequestID(r.Context()),
		)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal server error"})
	}
}

// decodeJSON reads a JSON object body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBody)
	err := json.NewDecoder(r.Body).Decode(dst)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is empty", service.ErrInvalidInput)
		}
		return fmt.Errorf("%w: malformed JSON: %w", service.ErrInvalidInput, err)
	}
	return nil
}

func pathID(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, errBadID
	}
	return id, nil
}

// partialUpdate is true for PATCH and false for PUT.
func partialUpdate(r *http.Request) bool {
	return r.Method == http.MethodPatch
}
