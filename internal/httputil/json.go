package httputil

import (
	"encoding/json"
	"net/http"

	"github.com/sandeep-jaiswar/core/internal/apperr"
)

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return apperr.Validationf("invalid json body")
	}
	return nil
}

// WriteError maps the error taxonomy onto HTTP statuses: validation and
// business-rule failures are 400-class, unknown resources 404, transient
// infrastructure failures 503.
func WriteError(w http.ResponseWriter, err error) {
	code := string(apperr.CodeOf(err))
	switch apperr.KindOf(err) {
	case apperr.Validation:
		WriteJSON(w, http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: code})
	case apperr.BusinessRule:
		status := http.StatusBadRequest
		switch apperr.CodeOf(err) {
		case apperr.CodeUnauthorized:
			status = http.StatusForbidden
		case apperr.CodeInvalidState:
			status = http.StatusConflict
		}
		WriteJSON(w, status, ErrorResponse{Error: err.Error(), Code: code})
	case apperr.NotFound:
		WriteJSON(w, http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: code})
	default:
		WriteJSON(w, http.StatusServiceUnavailable, ErrorResponse{Error: "service temporarily unavailable", Code: code})
	}
}
