package domain

import (
	"errors"
	"fmt"
	"sort"
	"strings"
)

var (
	ErrDocumentNotFound = errors.New("document not found")
	ErrLeaseNotFound    = errors.New("lease not found")
)

// ValidationError covers missing or malformed request fields, including
// signature images that do not decode as PNG.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IncompleteProfileError blocks all signing for a lease whose tenants lack
// required personal fields. Missing maps tenant full name to field names.
type IncompleteProfileError struct {
	Missing map[string][]string
}

func (e *IncompleteProfileError) Error() string {
	names := make([]string, 0, len(e.Missing))
	for name := range e.Missing {
		names = append(names, name)
	}
	sort.Strings(names)
	parts := make([]string, 0, len(names))
	for _, name := range names {
		parts = append(parts, name+": "+strings.Join(e.Missing[name], ", "))
	}
	return "tenant profiles incomplete (" + strings.Join(parts, "; ") + ")"
}

// TenantCandidate is returned with AmbiguousIdentityError so the caller can
// re-prompt with an explicit tenant id.
type TenantCandidate struct {
	TenantID string     `json:"tenantId"`
	FullName string     `json:"fullName"`
	Role     RosterRole `json:"role"`
}

type AmbiguousIdentityError struct {
	SignerName string
	Candidates []TenantCandidate
}

func (e *AmbiguousIdentityError) Error() string {
	return fmt.Sprintf("cannot resolve signer %q among %d tenants", e.SignerName, len(e.Candidates))
}

type UnknownTenantError struct {
	TenantID string
}

func (e *UnknownTenantError) Error() string {
	return fmt.Sprintf("tenant %s is not on the lease roster", e.TenantID)
}

// ExternalServiceError wraps a failure of the PDF render/merge service.
// Finalization never persists partial state when one of these surfaces.
type ExternalServiceError struct {
	Service string
	Op      string
	Err     error
}

func (e *ExternalServiceError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Service, e.Op, e.Err)
}

func (e *ExternalServiceError) Unwrap() error { return e.Err }
