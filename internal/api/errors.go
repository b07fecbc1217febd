package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/ebrhq/backoffice/internal/backend"
	"github.com/ebrhq/backoffice/internal/onboarding"
	"github.com/ebrhq/backoffice/internal/validate"
	"github.com/ebrhq/backoffice/internal/workspace"
)

// maxBodySize is the maximum allowed JSON request body size (1 MB).
const maxBodySize = 1 << 20

// maxUploadSize bounds multipart menu uploads.
const maxUploadSize = 8 << 20

// errorEnvelope is the standard error response shape. State is the flow
// state after the failure.
type errorEnvelope struct {
	Error errorDetail      `json:"error"`
	State onboarding.State `json:"state,omitempty"`
}

type errorDetail struct {
	Code    string            `json:"code"`
	Message string            `json:"message"`
	Fields  map[string]string `json:"fields,omitempty"`
}

// writeError writes a JSON error response with the given status code.
func writeError(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message,
		},
	})
}

// writeJSON writes a JSON response with the given status code and data.
func writeJSON(w http.ResponseWriter, statusCode int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(data)
}

// readJSON decodes the request body into v, enforcing a size limit. An
// empty body leaves v untouched.
func readJSON(r *http.Request, v any) error {
	lr := io.LimitReader(r.Body, maxBodySize)
	err := json.NewDecoder(lr).Decode(v)
	if errors.Is(err, io.EOF) {
		return nil
	}
	return err
}

// classify maps a flow or workspace error to an HTTP status and code.
func classify(err error) (int, string) {
	var be *backend.Error
	switch {
	case errors.Is(err, onboarding.ErrSessionExpired):
		return http.StatusUnauthorized, "session_expired"
	case errors.Is(err, validate.ErrInvalid):
		return http.StatusUnprocessableEntity, "validation_error"
	case errors.Is(err, onboarding.ErrBusy):
		return http.StatusConflict, "busy"
	case errors.Is(err, onboarding.ErrIllegalTransition), errors.Is(err, onboarding.ErrGuardRejected):
		return http.StatusConflict, "illegal_transition"
	case errors.Is(err, onboarding.ErrNoActiveCompany):
		return http.StatusConflict, "no_active_company"
	case errors.Is(err, onboarding.ErrNoOfferSelected), errors.Is(err, onboarding.ErrUnknownOffer),
		errors.Is(err, onboarding.ErrUnknownCompany), errors.Is(err, onboarding.ErrUnknownPayment),
		errors.Is(err, onboarding.ErrNoRegistration):
		return http.StatusBadRequest, "invalid_request"
	case errors.Is(err, workspace.ErrNotManager):
		return http.StatusForbidden, "not_manager"
	case errors.Is(err, workspace.ErrNoTables):
		return http.StatusConflict, "no_tables"
	case errors.Is(err, workspace.ErrInvalidPeriod):
		return http.StatusBadRequest, "invalid_period"
	case errors.Is(err, workspace.ErrNotFound):
		return http.StatusNotFound, "not_found"
	case errors.As(err, &be):
		if be.Transport || be.StatusCode >= 500 {
			return http.StatusBadGateway, "backend_unavailable"
		}
		return be.StatusCode, "backend_error"
	default:
		return http.StatusInternalServerError, "internal_error"
	}
}

// message is the user-facing text for err.
func message(err error) string {
	switch {
	case errors.Is(err, onboarding.ErrSessionExpired):
		return "your session has expired, please log in again"
	case errors.Is(err, onboarding.ErrBusy), errors.Is(err, onboarding.ErrIllegalTransition),
		errors.Is(err, onboarding.ErrGuardRejected), errors.Is(err, onboarding.ErrNoActiveCompany),
		errors.Is(err, onboarding.ErrNoRegistration):
		return err.Error()
	case errors.Is(err, workspace.ErrNotManager), errors.Is(err, workspace.ErrNoTables),
		errors.Is(err, workspace.ErrInvalidPeriod), errors.Is(err, workspace.ErrNotFound):
		return err.Error()
	}
	return onboarding.Message(err)
}

// writeFailure writes the envelope for err, with the field errors of a
// rejected form and the flow state when known.
func writeFailure(w http.ResponseWriter, err error, state onboarding.State) {
	status, code := classify(err)
	writeJSON(w, status, errorEnvelope{
		Error: errorDetail{
			Code:    code,
			Message: message(err),
			Fields:  validate.FieldErrors(err),
		},
		State: state,
	})
}
