package server

import (
	"encoding/json"
	"net/http"

	"github.com/teranos/taxa/errors"
	"github.com/teranos/taxa/taxonomy"
)

// ErrorResponse is the body of every non-2xx answer
type ErrorResponse struct {
	Error     string   `json:"error"`
	Hints     []string `json:"hints,omitempty"`
	RequestID string   `json:"request_id,omitempty"`
}

// writeJSON writes a JSON response with the given status code
func writeJSON(w http.ResponseWriter, status int, data interface{}) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		return errors.Wrap(err, "failed to encode JSON")
	}
	return nil
}

// writeError writes a JSON error response
func writeError(w http.ResponseWriter, status int, message string, hints []string) {
	writeJSON(w, status, ErrorResponse{
		Error:     message,
		Hints:     hints,
		RequestID: w.Header().Get(RequestIDHeader),
	})
}

// statusFor maps engine and cache errors onto HTTP codes
func statusFor(err error) int {
	switch {
	case errors.IsInvalidRequestError(err):
		return http.StatusBadRequest
	case errors.IsAny(err, taxonomy.ErrUnknownTaxid, taxonomy.ErrUnknownClade, taxonomy.ErrNoRankInLineage),
		errors.IsNotFoundError(err):
		return http.StatusNotFound
	case errors.IsServiceUnavailableError(err):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// handleError answers with the status err maps to. Server errors are
// logged; client errors are left to the access log.
func (s *TaxaServer) handleError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	message := err.Error()
	if status == http.StatusInternalServerError {
		s.logger.Errorw("Request error",
			"path", r.URL.Path,
			"request_id", w.Header().Get(RequestIDHeader),
			"error", err,
		)
		message = "internal error"
	}
	writeError(w, status, message, errors.GetAllHints(err))
}
