// Package httpx writes the console's JSON responses and error envelopes.
package httpx

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"

	"github.com/diewo77/go-hoardings/i18n"
	"github.com/diewo77/go-hoardings/internal/apperr"
)

// MaxBodyBytes caps decoded request bodies.
const MaxBodyBytes = 1 << 20

type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Details any    `json:"details,omitempty"`
}

func JSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	var body []byte
	var err error
	if payload != nil {
		body, err = json.Marshal(payload)
		if err != nil {
			// best-effort error response; avoid writing partial JSON
			http.Error(w, `{"error":"encode_error"}`, http.StatusInternalServerError)
			return
		}
	} else {
		body = []byte("null")
	}
	w.WriteHeader(status)
	if _, err := w.Write(body); err != nil {
		// nothing we can do at this point
		_ = err
	}
}

func JSONError(w http.ResponseWriter, status int, msg string, details any) {
	JSON(w, status, ErrorResponse{Error: msg, Details: details})
}

// Error writes code with its message translated into the request language.
func Error(w http.ResponseWriter, r *http.Request, status int, code string) {
	JSON(w, status, ErrorResponse{Error: code, Message: i18n.T(i18n.LangFromContext(r.Context()), code)})
}

// WriteError maps err onto a status and the error envelope. Validation
// failures carry their field codes translated in details.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	e := apperr.As(err)
	lang := i18n.LangFromContext(r.Context())
	resp := ErrorResponse{Error: e.Code, Message: i18n.T(lang, e.Code)}
	if len(e.Fields) > 0 {
		details := make(map[string]string, len(e.Fields))
		for field, code := range e.Fields {
			details[field] = i18n.T(lang, code)
		}
		resp.Details = details
	}
	status := StatusOf(err)
	if status >= http.StatusInternalServerError {
		log.Printf("%s %s: %v", r.Method, r.URL.Path, err)
	}
	JSON(w, status, resp)
}

// StatusOf is the console status for err.
func StatusOf(err error) int {
	e := apperr.As(err)
	switch e.Kind {
	case apperr.KindValidation:
		return http.StatusUnprocessableEntity
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindAuth:
		if e.Status == http.StatusForbidden {
			return http.StatusForbidden
		}
		return http.StatusUnauthorized
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindNetwork:
		if errors.Is(err, context.DeadlineExceeded) {
			return http.StatusGatewayTimeout
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// Decode reads a JSON body into v. Malformed bodies are validation errors.
func Decode(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes))
	if err := dec.Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_json", Message: "empty body", Status: http.StatusBadRequest}
		}
		return &apperr.Error{Kind: apperr.KindValidation, Code: "invalid_json", Status: http.StatusBadRequest, Err: err}
	}
	return nil
}
