// Package store is the pgx-backed relational store for documents, leases
// and tenants. Everything receives the pool through its constructor; there
// is no package-level connection state.
package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

type Store struct {
	DB *pgxpool.Pool
}

func New(db *pgxpool.Pool) *Store { return &Store{DB: db} }

func (s *Store) GetDocument(ctx context.Context, id string) (domain.Document, error) {
	var d domain.Document
	var parent, final *string
	var finalizedAt *time.Time
	err := s.DB.QueryRow(ctx, `
SELECT document_id,lease_id,unit_id,doc_type,filename,storage_path,sha256,parent_document_id,final_document_id,finalized_at,created_at
FROM documents WHERE document_id=$1
`, id).Scan(&d.DocumentID, &d.LeaseID, &d.UnitID, &d.DocType, &d.Filename, &d.StoragePath, &d.SHA256,
		&parent, &final, &finalizedAt, &d.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, domain.ErrDocumentNotFound
		}
		return domain.Document{}, err
	}
	if parent != nil {
		d.ParentDocumentID = *parent
	}
	if final != nil {
		d.FinalDocumentID = *final
	}
	d.FinalizedAt = finalizedAt
	return d, nil
}

func (s *Store) InsertDocument(ctx context.Context, d domain.Document) error {
	_, err := s.DB.Exec(ctx, `
INSERT INTO documents(document_id,lease_id,unit_id,doc_type,filename,storage_path,sha256,parent_document_id)
VALUES($1,$2,$3,$4,$5,$6,$7,NULLIF($8,''))
`, d.DocumentID, d.LeaseID, d.UnitID, d.DocType, d.Filename, d.StoragePath, d.SHA256, d.ParentDocumentID)
	return err
}

// FinalizeOnce claims the one-time transition into FINALIZED. The parent
// row is locked for the duration, so of two concurrent completing
// submissions exactly one runs build; the loser blocks on the lock, then
// observes the reference already set and returns the existing artifact.
// If build fails the transaction rolls back and the parent keeps no
// finalized reference, leaving a retry safe.
func (s *Store) FinalizeOnce(ctx context.Context, parentID string, build func(ctx context.Context) (domain.Document, error)) (domain.Document, bool, error) {
	tx, err := s.DB.Begin(ctx)
	if err != nil {
		return domain.Document{}, false, err
	}
	defer tx.Rollback(ctx)

	var final *string
	err = tx.QueryRow(ctx, `SELECT final_document_id FROM documents WHERE document_id=$1 FOR UPDATE`, parentID).Scan(&final)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Document{}, false, domain.ErrDocumentNotFound
		}
		return domain.Document{}, false, err
	}
	if final != nil {
		existing, err := s.GetDocument(ctx, *final)
		if err != nil {
			return domain.Document{}, false, fmt.Errorf("load finalized artifact %s: %w", *final, err)
		}
		return existing, false, nil
	}

	doc, err := build(ctx)
	if err != nil {
		return domain.Document{}, false, err
	}
	doc.ParentDocumentID = parentID

	_, err = tx.Exec(ctx, `
INSERT INTO documents(document_id,lease_id,unit_id,doc_type,filename,storage_path,sha256,parent_document_id)
VALUES($1,$2,$3,$4,$5,$6,$7,$8)
`, doc.DocumentID, doc.LeaseID, doc.UnitID, doc.DocType, doc.Filename, doc.StoragePath, doc.SHA256, doc.ParentDocumentID)
	if err != nil {
		return domain.Document{}, false, err
	}
	_, err = tx.Exec(ctx, `UPDATE documents SET final_document_id=$1, finalized_at=now() WHERE document_id=$2`, doc.DocumentID, parentID)
	if err != nil {
		return domain.Document{}, false, err
	}
	if err := tx.Commit(ctx); err != nil {
		return domain.Document{}, false, err
	}
	return doc, true, nil
}

// LeaseTenants returns the lease's association rows in creation order. A
// row with an unrecognized role fails loudly instead of being defaulted.
func (s *Store) LeaseTenants(ctx context.Context, leaseID string) ([]domain.RosterEntry, error) {
	rows, err := s.DB.Query(ctx, `
SELECT t.tenant_id,t.full_name,COALESCE(t.birth_date,''),COALESCE(t.birth_place,''),COALESCE(t.address,''),lt.role
FROM lease_tenants lt
JOIN tenants t ON t.tenant_id = lt.tenant_id
WHERE lt.lease_id=$1
ORDER BY lt.created_at ASC, t.tenant_id ASC
`, leaseID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []domain.RosterEntry
	for rows.Next() {
		var e domain.RosterEntry
		var role string
		if err := rows.Scan(&e.TenantID, &e.FullName, &e.BirthDate, &e.BirthPlace, &e.Address, &role); err != nil {
			return nil, err
		}
		switch domain.RosterRole(role) {
		case domain.RosterPrincipal, domain.RosterCotenant:
			e.Role = domain.RosterRole(role)
		default:
			return nil, &domain.ValidationError{Field: "lease_tenants.role", Reason: fmt.Sprintf("unknown role %q for tenant %s", role, e.TenantID)}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

// PrimaryTenant is the roster fallback for leases without association rows.
func (s *Store) PrimaryTenant(ctx context.Context, leaseID string) (*domain.RosterEntry, error) {
	var e domain.RosterEntry
	err := s.DB.QueryRow(ctx, `
SELECT t.tenant_id,t.full_name,COALESCE(t.birth_date,''),COALESCE(t.birth_place,''),COALESCE(t.address,'')
FROM leases l
JOIN tenants t ON t.tenant_id = l.primary_tenant_id
WHERE l.lease_id=$1
`, leaseID).Scan(&e.TenantID, &e.FullName, &e.BirthDate, &e.BirthPlace, &e.Address)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &e, nil
}
