package workflow

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/bensalemGit/rentalos-sub000/internal/attestation"
	"github.com/bensalemGit/rentalos-sub000/pkg/dochash"
	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

// assemble builds the finalized artifact: the original document followed
// by one attestation page per active signature, merged into a single PDF.
// Signatures arrive already in assembly order (tenants by roster position,
// landlord last). Any failure aborts without persisting document state;
// FinalizeOnce rolls the claim back so a retry re-runs the merge.
func (e *Engine) assemble(ctx context.Context, parent domain.Document, active []domain.SignatureEvent) (domain.Document, error) {
	original, err := e.blobs.Read(ctx, parent.StoragePath)
	if err != nil {
		return domain.Document{}, fmt.Errorf("read original document: %w", err)
	}

	parts := make([][]byte, 0, len(active)+1)
	parts = append(parts, original)
	for _, ev := range active {
		imagePNG, err := e.blobs.Read(ctx, ev.ImagePath)
		if err != nil {
			return domain.Document{}, fmt.Errorf("read signature image %s: %w", ev.ImagePath, err)
		}
		page, err := e.pdf.Render(ctx, attestation.PageHTML(ev, imagePNG))
		if err != nil {
			return domain.Document{}, err
		}
		parts = append(parts, page)
	}

	merged, err := e.pdf.Merge(ctx, parts)
	if err != nil {
		return domain.Document{}, err
	}

	finalID := "doc_" + uuid.NewString()
	storagePath := fmt.Sprintf("documents/%s/%s.pdf", parent.LeaseID, finalID)
	if err := e.blobs.Write(ctx, storagePath, merged); err != nil {
		return domain.Document{}, fmt.Errorf("store finalized document: %w", err)
	}

	return domain.Document{
		DocumentID:  finalID,
		LeaseID:     parent.LeaseID,
		UnitID:      parent.UnitID,
		DocType:     parent.DocType,
		Filename:    "signed_" + parent.Filename,
		StoragePath: storagePath,
		SHA256:      dochash.SHA256Hex(merged),
	}, nil
}
