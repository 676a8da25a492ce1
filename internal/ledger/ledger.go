// Package ledger is the append-only record of signature events. At most
// one active event exists per (document, signer identity); the uniqueness
// index on signature_events enforces that against concurrent writers.
package ledger

import (
	"context"
	"sort"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

// Insert writes a signature event unless one already exists for the same
// (document, identity). Compare-and-insert: the reported bool says whether
// this call's row landed, so two concurrent submissions for the same
// tenant store exactly one event.
func (s *Store) Insert(ctx context.Context, ev domain.SignatureEvent) (bool, error) {
	tag, err := s.DB.Exec(ctx, `
INSERT INTO signature_events(signature_id,document_id,signer_role,tenant_id,signer_name,image_path,sequence,consent,ip,user_agent,document_sha256,signed_at)
VALUES($1,$2,$3,NULLIF($4,''),$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (document_id,signer_role,COALESCE(tenant_id,'')) DO NOTHING
`, ev.SignatureID, ev.DocumentID, string(ev.Identity.Role), ev.Identity.TenantID, ev.SignerName,
		ev.ImagePath, ev.Sequence, ev.Audit.Consent, ev.Audit.IP, ev.Audit.UserAgent, ev.Audit.DocumentSHA256, ev.SignedAt)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

// Events returns every ledger row for a document, oldest first.
func (s *Store) Events(ctx context.Context, documentID string) ([]domain.SignatureEvent, error) {
	rows, err := s.DB.Query(ctx, `
SELECT signature_id,document_id,signer_role,COALESCE(tenant_id,''),signer_name,image_path,sequence,consent,ip,user_agent,document_sha256,signed_at
FROM signature_events WHERE document_id=$1 ORDER BY signed_at ASC
`, documentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.SignatureEvent
	for rows.Next() {
		var ev domain.SignatureEvent
		var role string
		if err := rows.Scan(&ev.SignatureID, &ev.DocumentID, &role, &ev.Identity.TenantID, &ev.SignerName,
			&ev.ImagePath, &ev.Sequence, &ev.Audit.Consent, &ev.Audit.IP, &ev.Audit.UserAgent,
			&ev.Audit.DocumentSHA256, &ev.SignedAt); err != nil {
			return nil, err
		}
		ev.Identity.Role = domain.SignerRole(role)
		out = append(out, ev)
	}
	return out, rows.Err()
}

// Active returns the latest-wins reduction of the document's ledger.
func (s *Store) Active(ctx context.Context, documentID string) ([]domain.SignatureEvent, error) {
	events, err := s.Events(ctx, documentID)
	if err != nil {
		return nil, err
	}
	return Reduce(events), nil
}

// Reduce keeps the most recent event per signer identity, ties broken by
// the later ledger position, and returns the survivors in assembly order
// (tenants by sequence, landlord last).
func Reduce(events []domain.SignatureEvent) []domain.SignatureEvent {
	latest := make(map[domain.SignerIdentity]domain.SignatureEvent, len(events))
	for _, ev := range events {
		cur, ok := latest[ev.Identity]
		if !ok || !ev.SignedAt.Before(cur.SignedAt) {
			latest[ev.Identity] = ev
		}
	}
	out := make([]domain.SignatureEvent, 0, len(latest))
	for _, ev := range latest {
		out = append(out, ev)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Sequence != out[j].Sequence {
			return out[i].Sequence < out[j].Sequence
		}
		return out[i].SignedAt.Before(out[j].SignedAt)
	})
	return out
}

// Completeness intersects the active tenant identities against the current
// roster. Signatures from tenants no longer on the roster do not count.
func Completeness(active []domain.SignatureEvent, entries []domain.RosterEntry) domain.Completeness {
	signed := make(map[string]bool, len(active))
	landlord := false
	for _, ev := range active {
		switch ev.Identity.Role {
		case domain.RoleLandlord:
			landlord = true
		case domain.RoleTenant:
			signed[ev.Identity.TenantID] = true
		}
	}
	c := domain.Completeness{
		TenantsSigned:  []string{},
		TenantsMissing: []string{},
		TenantsTotal:   len(entries),
		LandlordSigned: landlord,
	}
	for _, e := range entries {
		if signed[e.TenantID] {
			c.TenantsSigned = append(c.TenantsSigned, e.TenantID)
		} else {
			c.TenantsMissing = append(c.TenantsMissing, e.TenantID)
		}
	}
	return c
}
