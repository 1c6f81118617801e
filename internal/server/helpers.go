package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/bobmcallan/folio/internal/common"
	"github.com/bobmcallan/folio/internal/interfaces"
	"github.com/bobmcallan/folio/internal/models"
	"github.com/bobmcallan/folio/internal/services/ledger"
	"github.com/bobmcallan/folio/internal/services/user"
)

// ErrorResponse is the standard error format for REST API responses.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// envelope wraps successful payloads.
type envelope struct {
	Status string      `json:"status"`
	Data   interface{} `json:"data,omitempty"`
}

// WriteJSON writes a JSON response with the given status code.
func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// WriteData writes data inside the {"status":"ok","data":...} envelope.
func WriteData(w http.ResponseWriter, statusCode int, data interface{}) {
	WriteJSON(w, statusCode, envelope{Status: "ok", Data: data})
}

// WriteError writes a JSON error response.
func WriteError(w http.ResponseWriter, statusCode int, message string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message})
}

// WriteErrorWithCode writes a JSON error response with an error code.
func WriteErrorWithCode(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// DecodeJSON reads and decodes JSON from the request body into v.
// Returns false and writes a 400 error if decoding fails.
func DecodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if r.Body == nil || r.Body == http.NoBody {
		WriteErrorWithCode(w, http.StatusBadRequest, "Request body is required", "validation_error")
		return false
	}
	r.Body = http.MaxBytesReader(w, r.Body, 1<<20) // 1MB limit
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		WriteErrorWithCode(w, http.StatusBadRequest, "Invalid JSON: "+err.Error(), "validation_error")
		return false
	}
	return true
}

// writeServiceError maps a service error onto a status code and error code.
func (s *Server) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var perr *models.ProviderError

	switch {
	case errors.Is(err, models.ErrValidation):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), "validation_error")
	case errors.Is(err, ledger.ErrInvalidTrade):
		WriteErrorWithCode(w, http.StatusBadRequest, err.Error(), ledger.RejectionCode(err))
	case errors.Is(err, ledger.ErrInsufficientCash),
		errors.Is(err, ledger.ErrInsufficientShares),
		errors.Is(err, ledger.ErrPositionNotHeld):
		WriteErrorWithCode(w, http.StatusUnprocessableEntity, err.Error(), ledger.RejectionCode(err))
	case errors.Is(err, user.ErrInvalidCredentials):
		writeBearerChallenge(w, "", "invalid credentials")
	case errors.Is(err, interfaces.ErrNotFound):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "not_found")
	case errors.Is(err, interfaces.ErrConflict):
		WriteErrorWithCode(w, http.StatusConflict, err.Error(), "conflict")
	case errors.Is(err, models.ErrNoData):
		WriteErrorWithCode(w, http.StatusNotFound, err.Error(), "no_data")
	case errors.As(err, &perr):
		s.logger.Warn().Err(err).Str("provider", perr.Provider).Str("path", r.URL.Path).Msg("Price provider unavailable")
		WriteErrorWithCode(w, http.StatusBadGateway, "price provider unavailable, retry later", "provider_unavailable")
	default:
		s.logger.Error().Err(err).
			Str("path", r.URL.Path).
			Str("correlation_id", common.CorrelationIDFromContext(r.Context())).
			Msg("Request failed")
		WriteErrorWithCode(w, http.StatusInternalServerError, "Internal server error", "internal_error")
	}
}

// rangeFromQuery reads period, start and interval query parameters.
func rangeFromQuery(r *http.Request) models.RangeRequest {
	q := r.URL.Query()
	return models.RangeRequest{
		Period:   q.Get("period"),
		Start:    q.Get("start"),
		Interval: q.Get("interval"),
	}
}

// currentUserID returns the authenticated caller. Routes using it sit
// behind requireAuth.
func currentUserID(r *http.Request) string {
	return common.ResolveUserID(r.Context())
}
