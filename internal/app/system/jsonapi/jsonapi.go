// internal/app/system/jsonapi/jsonapi.go

// Package jsonapi writes JSON responses and maps the errs taxonomy onto HTTP
// status codes. Error bodies have the shape {"code": "...", "error": "..."}.
package jsonapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"

	"github.com/dalemusser/linguashift/internal/domain/errs"
	"go.uber.org/zap"
)

// MaxBodyBytes caps request bodies read by DecodeJSON.
const MaxBodyBytes = 1 << 20

// Error codes carried in the "code" field.
const (
	CodeInvalidRequest     = "invalid_request"
	CodeUnauthorized       = "unauthorized"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeTooManyRequests    = "too_many_requests"
	CodeServiceUnavailable = "service_unavailable"
	CodeRewriteFailed      = "rewrite_failed"
	CodeInternal           = "internal"
)

// WriteJSON writes payload with the given status.
func WriteJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

// WriteStatus writes an error body with an explicit status and code.
func WriteStatus(w http.ResponseWriter, status int, code, message string) {
	WriteJSON(w, status, map[string]string{
		"code":  code,
		"error": message,
	})
}

// WriteError maps err onto a status code. Unclassified errors are logged
// and reported as a generic 500 without their cause.
func WriteError(w http.ResponseWriter, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, errs.ErrValidation):
		WriteStatus(w, http.StatusBadRequest, CodeInvalidRequest, err.Error())
	case errors.Is(err, errs.ErrForbidden):
		WriteStatus(w, http.StatusForbidden, CodeForbidden, err.Error())
	case errors.Is(err, errs.ErrNotFound):
		WriteStatus(w, http.StatusNotFound, CodeNotFound, err.Error())
	case errors.Is(err, errs.ErrServiceUnavailable):
		WriteStatus(w, http.StatusServiceUnavailable, CodeServiceUnavailable, "jargon detection is temporarily unavailable")
	case errors.Is(err, errs.ErrRewriteFailed):
		WriteStatus(w, http.StatusBadGateway, CodeRewriteFailed, "rewrite failed, the draft is unchanged")
	default:
		if log != nil {
			log.Error("request failed", zap.Error(err))
		}
		WriteStatus(w, http.StatusInternalServerError, CodeInternal, "internal error")
	}
}

// DecodeJSON reads a JSON body into dst. Malformed or oversized bodies are
// reported as validation errors.
func DecodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if r.Body == nil {
		return fmt.Errorf("%w: request body is required", errs.ErrValidation)
	}
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: request body is required", errs.ErrValidation)
		}
		return fmt.Errorf("%w: invalid JSON body", errs.ErrValidation)
	}
	return nil
}
