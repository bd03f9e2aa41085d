// Package httputil centralizes JSON response and error envelope handling so
// every handler returns the same shapes.
package httputil

import (
	"encoding/json"
	"log/slog"
	"net/http"

	dErrors "medboard/pkg/domain-errors"
)

var statusByCode = map[dErrors.Code]int{
	dErrors.CodeNotFound:     http.StatusNotFound,
	dErrors.CodeInvalidState: http.StatusConflict,
	dErrors.CodeValidation:   http.StatusUnprocessableEntity,
	dErrors.CodeConflict:     http.StatusConflict,
	dErrors.CodeBadRequest:   http.StatusBadRequest,
	dErrors.CodeUnauthorized: http.StatusUnauthorized,
	dErrors.CodeForbidden:    http.StatusForbidden,
	dErrors.CodeTimeout:      http.StatusGatewayTimeout,
	dErrors.CodeInternal:     http.StatusInternalServerError,
}

// ToHTTPStatus maps a domain error code to an HTTP status.
func ToHTTPStatus(code dErrors.Code) int {
	if status, ok := statusByCode[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// WriteError translates a domain error into a JSON error envelope.
// Internal errors omit the description so store/driver details never leak.
func WriteError(w http.ResponseWriter, err error) {
	code := dErrors.CodeOf(err)
	body := map[string]string{"error": string(code)}
	if code != dErrors.CodeInternal {
		if msg := dErrors.MessageOf(err); msg != "" {
			body["error_description"] = msg
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(ToHTTPStatus(code))
	_ = json.NewEncoder(w).Encode(body)
}

// WriteJSON writes v as a JSON response with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// StringList accepts either a JSON array of strings or a single string.
// Legacy admin tooling sends credential fields both ways, so boundary types
// normalize instead of rejecting.
type StringList []string

func (l *StringList) UnmarshalJSON(data []byte) error {
	var many []string
	if err := json.Unmarshal(data, &many); err == nil {
		*l = many
		return nil
	}
	var one string
	if err := json.Unmarshal(data, &one); err != nil {
		return err
	}
	if one == "" {
		*l = nil
		return nil
	}
	*l = []string{one}
	return nil
}

// Decode decodes the request body into T, writing a bad_request envelope and
// returning ok=false on failure. Unknown fields are rejected so typos in
// client payloads surface instead of silently dropping data.
func Decode[T any](w http.ResponseWriter, r *http.Request, logger *slog.Logger) (T, bool) {
	var req T
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		if logger != nil {
			logger.WarnContext(r.Context(), "invalid request body", "error", err.Error())
		}
		WriteError(w, dErrors.New(dErrors.CodeBadRequest, "invalid request body"))
		return req, false
	}
	return req, true
}
