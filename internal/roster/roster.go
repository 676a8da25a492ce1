// Package roster derives the ordered set of tenants required to sign a
// lease's documents and resolves ambiguous signer identity among them.
package roster

import (
	"context"
	"sort"
	"strings"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

// LeaseStore is the slice of the relational store the resolver needs.
// LeaseTenants returns association rows in creation order; PrimaryTenant is
// the fallback for leases created before co-tenant associations existed.
type LeaseStore interface {
	LeaseTenants(ctx context.Context, leaseID string) ([]domain.RosterEntry, error)
	PrimaryTenant(ctx context.Context, leaseID string) (*domain.RosterEntry, error)
}

type Resolver struct {
	store LeaseStore
}

func NewResolver(store LeaseStore) *Resolver { return &Resolver{store: store} }

// Roster returns the deduplicated signing roster: principal first, then
// co-tenants in association creation order. Position is assigned here and
// is the canonical signing order used for attestation sequencing.
func (r *Resolver) Roster(ctx context.Context, leaseID string) ([]domain.RosterEntry, error) {
	entries, err := r.store.LeaseTenants(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		primary, err := r.store.PrimaryTenant(ctx, leaseID)
		if err != nil {
			return nil, err
		}
		if primary == nil {
			return nil, domain.ErrLeaseNotFound
		}
		p := *primary
		p.Role = domain.RosterPrincipal
		p.Position = 0
		return []domain.RosterEntry{p}, nil
	}

	seen := make(map[string]bool, len(entries))
	out := make([]domain.RosterEntry, 0, len(entries))
	for _, e := range entries {
		if seen[e.TenantID] {
			continue
		}
		seen[e.TenantID] = true
		out = append(out, e)
	}
	// Creation order is preserved within each role; the principal always
	// leads regardless of when its association row was written.
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Role == domain.RosterPrincipal && out[j].Role != domain.RosterPrincipal
	})
	for i := range out {
		out[i].Position = i
	}
	return out, nil
}

var requiredFields = []struct {
	name string
	get  func(domain.RosterEntry) string
}{
	{"birth_date", func(e domain.RosterEntry) string { return e.BirthDate }},
	{"birth_place", func(e domain.RosterEntry) string { return e.BirthPlace }},
	{"address", func(e domain.RosterEntry) string { return e.Address }},
}

// CheckSignable fails when any roster tenant is missing a personal field a
// legally valid signature requires. It gates every submission for the
// lease, for any role.
func (r *Resolver) CheckSignable(ctx context.Context, leaseID string) ([]domain.RosterEntry, error) {
	entries, err := r.Roster(ctx, leaseID)
	if err != nil {
		return nil, err
	}
	missing := map[string][]string{}
	for _, e := range entries {
		for _, f := range requiredFields {
			if strings.TrimSpace(f.get(e)) == "" {
				missing[e.FullName] = append(missing[e.FullName], f.name)
			}
		}
	}
	if len(missing) > 0 {
		return nil, &domain.IncompleteProfileError{Missing: missing}
	}
	return entries, nil
}

// ResolveIdentity picks the tenant a submission belongs to.
//
// A single-tenant roster wins outright. An explicit tenant id must be on
// the roster. Otherwise the signer name must match exactly one entry,
// case-insensitively and whitespace-trimmed; anything else is ambiguous and
// the caller gets the full candidate list to re-prompt with.
func ResolveIdentity(entries []domain.RosterEntry, signerName, explicitTenantID string) (domain.RosterEntry, error) {
	if len(entries) == 1 {
		return entries[0], nil
	}
	if explicitTenantID != "" {
		for _, e := range entries {
			if e.TenantID == explicitTenantID {
				return e, nil
			}
		}
		return domain.RosterEntry{}, &domain.UnknownTenantError{TenantID: explicitTenantID}
	}

	want := normalizeName(signerName)
	var matches []domain.RosterEntry
	for _, e := range entries {
		if normalizeName(e.FullName) == want {
			matches = append(matches, e)
		}
	}
	if len(matches) == 1 {
		return matches[0], nil
	}
	candidates := make([]domain.TenantCandidate, len(entries))
	for i, e := range entries {
		candidates[i] = domain.TenantCandidate{TenantID: e.TenantID, FullName: e.FullName, Role: e.Role}
	}
	return domain.RosterEntry{}, &domain.AmbiguousIdentityError{SignerName: signerName, Candidates: candidates}
}

func normalizeName(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
