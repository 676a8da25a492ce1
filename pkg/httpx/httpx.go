package httpx

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/google/uuid"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

const maxBodyBytes = 8 << 20 // signature images arrive inline as data URLs

func NewRequestID() string { return "req_" + uuid.NewString() }

func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func ReadJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

func WriteError(w http.ResponseWriter, status int, code, message string, details any) {
	resp := map[string]any{
		"request_id": NewRequestID(),
		"error": map[string]any{
			"code": code, "message": message, "details": details,
		},
	}
	WriteJSON(w, status, resp)
}

// WriteDomainError maps the signing error taxonomy onto HTTP statuses. The
// structured failures keep their payloads so callers can self-correct
// (candidate lists, missing field names).
func WriteDomainError(w http.ResponseWriter, err error) {
	var (
		validation *domain.ValidationError
		profile    *domain.IncompleteProfileError
		ambiguous  *domain.AmbiguousIdentityError
		unknown    *domain.UnknownTenantError
		external   *domain.ExternalServiceError
	)
	switch {
	case errors.Is(err, domain.ErrDocumentNotFound), errors.Is(err, domain.ErrLeaseNotFound):
		WriteError(w, 404, "NOT_FOUND", err.Error(), nil)
	case errors.As(err, &validation):
		WriteError(w, 400, "VALIDATION_ERROR", err.Error(), map[string]any{"field": validation.Field})
	case errors.As(err, &profile):
		WriteError(w, 422, "INCOMPLETE_PROFILE", err.Error(), map[string]any{"missing": profile.Missing})
	case errors.As(err, &ambiguous):
		WriteError(w, 409, "AMBIGUOUS_IDENTITY", err.Error(), map[string]any{"tenants": ambiguous.Candidates})
	case errors.As(err, &unknown):
		WriteError(w, 404, "UNKNOWN_TENANT", err.Error(), map[string]any{"tenant_id": unknown.TenantID})
	case errors.As(err, &external):
		WriteError(w, 502, "EXTERNAL_SERVICE_ERROR", err.Error(), map[string]any{"service": external.Service, "op": external.Op})
	default:
		WriteError(w, 500, "INTERNAL", err.Error(), nil)
	}
}
