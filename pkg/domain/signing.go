package domain

import (
	"time"
)

type SignerRole string

const (
	RoleLandlord SignerRole = "LANDLORD"
	RoleTenant   SignerRole = "TENANT"
)

// SignerIdentity is the ledger dedup key together with the document id.
// For the landlord TenantID is empty; there is only one landlord per document.
type SignerIdentity struct {
	Role     SignerRole `json:"role"`
	TenantID string     `json:"tenant_id,omitempty"`
}

func LandlordIdentity() SignerIdentity {
	return SignerIdentity{Role: RoleLandlord}
}

func TenantIdentity(tenantID string) SignerIdentity {
	return SignerIdentity{Role: RoleTenant, TenantID: tenantID}
}

type RosterRole string

const (
	RosterPrincipal RosterRole = "principal"
	RosterCotenant  RosterRole = "cotenant"
)

// RosterEntry is one tenant required to sign a lease's documents.
// Position is the canonical signing order, 0-based, principal first.
type RosterEntry struct {
	TenantID   string     `json:"tenant_id"`
	FullName   string     `json:"full_name"`
	BirthDate  string     `json:"birth_date"`
	BirthPlace string     `json:"birth_place"`
	Address    string     `json:"address"`
	Role       RosterRole `json:"role"`
	Position   int        `json:"position"`
}

type DocumentState string

const (
	StateUnsigned        DocumentState = "UNSIGNED"
	StatePartiallySigned DocumentState = "PARTIALLY_SIGNED"
	StatePendingFinalize DocumentState = "FULLY_SIGNED_PENDING_FINALIZE"
	StateFinalized       DocumentState = "FINALIZED"
)

type Document struct {
	DocumentID       string     `json:"document_id"`
	LeaseID          string     `json:"lease_id"`
	UnitID           string     `json:"unit_id"`
	DocType          string     `json:"doc_type"`
	Filename         string     `json:"filename"`
	StoragePath      string     `json:"storage_path"`
	SHA256           string     `json:"sha256"`
	ParentDocumentID string     `json:"parent_document_id,omitempty"`
	FinalDocumentID  string     `json:"final_document_id,omitempty"`
	FinalizedAt      *time.Time `json:"finalized_at,omitempty"`
	CreatedAt        time.Time  `json:"created_at"`
}

// AuditPayload is captured at signing time and is immutable once written.
// DocumentSHA256 binds the signature to the exact bytes the signer reviewed.
type AuditPayload struct {
	Consent        bool   `json:"consent"`
	IP             string `json:"ip"`
	UserAgent      string `json:"user_agent"`
	DocumentSHA256 string `json:"document_sha256"`
}

type SignatureEvent struct {
	SignatureID string         `json:"signature_id"`
	DocumentID  string         `json:"document_id"`
	Identity    SignerIdentity `json:"identity"`
	SignerName  string         `json:"signer_name"`
	ImagePath   string         `json:"image_path"`
	Sequence    int            `json:"sequence"`
	SignedAt    time.Time      `json:"signed_at"`
	Audit       AuditPayload   `json:"audit"`
}

// Completeness is derived on demand from the active signatures and the
// current roster; it is never stored.
type Completeness struct {
	TenantsSigned  []string `json:"tenants_signed"`
	TenantsMissing []string `json:"tenants_missing"`
	TenantsTotal   int      `json:"tenants_total"`
	LandlordSigned bool     `json:"landlord_signed"`
}

func (c Completeness) Complete() bool {
	return c.LandlordSigned && len(c.TenantsMissing) == 0
}

func (c Completeness) State() DocumentState {
	switch {
	case c.Complete():
		return StatePendingFinalize
	case len(c.TenantsSigned) > 0 || c.LandlordSigned:
		return StatePartiallySigned
	default:
		return StateUnsigned
	}
}
