// Package workflow orchestrates multi-party signing of a lease document:
// identity resolution, idempotent ledger writes, completeness tracking and
// the one-time finalization into a merged, hash-recorded artifact.
package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/bensalemGit/rentalos-sub000/internal/blob"
	"github.com/bensalemGit/rentalos-sub000/internal/ledger"
	"github.com/bensalemGit/rentalos-sub000/internal/notify"
	"github.com/bensalemGit/rentalos-sub000/internal/roster"
	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

type DocumentStore interface {
	GetDocument(ctx context.Context, id string) (domain.Document, error)
	// FinalizeOnce atomically claims the transition into FINALIZED; build
	// runs at most once per document across concurrent callers.
	FinalizeOnce(ctx context.Context, parentID string, build func(ctx context.Context) (domain.Document, error)) (domain.Document, bool, error)
}

type Ledger interface {
	Insert(ctx context.Context, ev domain.SignatureEvent) (bool, error)
	Active(ctx context.Context, documentID string) ([]domain.SignatureEvent, error)
}

type RosterSource interface {
	Roster(ctx context.Context, leaseID string) ([]domain.RosterEntry, error)
	CheckSignable(ctx context.Context, leaseID string) ([]domain.RosterEntry, error)
}

type Renderer interface {
	Render(ctx context.Context, html string) ([]byte, error)
	Merge(ctx context.Context, docs [][]byte) ([]byte, error)
}

type Engine struct {
	docs     DocumentStore
	ledger   Ledger
	roster   RosterSource
	blobs    blob.Store
	pdf      Renderer
	notifier notify.Notifier
	logger   *slog.Logger
	now      func() time.Time
}

type Config struct {
	Documents DocumentStore
	Ledger    Ledger
	Roster    RosterSource
	Blobs     blob.Store
	PDF       Renderer
	Notifier  notify.Notifier
	Logger    *slog.Logger
	Now       func() time.Time
}

func NewEngine(cfg Config) *Engine {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	now := cfg.Now
	if now == nil {
		now = func() time.Time { return time.Now().UTC() }
	}
	notifier := cfg.Notifier
	if notifier == nil {
		notifier = notify.NewLogNotifier(logger)
	}
	return &Engine{
		docs:     cfg.Documents,
		ledger:   cfg.Ledger,
		roster:   cfg.Roster,
		blobs:    cfg.Blobs,
		pdf:      cfg.PDF,
		notifier: notifier,
		logger:   logger,
		now:      now,
	}
}

type SubmitRequest struct {
	DocumentID     string
	Role           domain.SignerRole
	SignerName     string
	SignatureImage string // PNG data URL
	TenantID       string // optional explicit identity
	Consent        bool
	IP             string
	UserAgent      string
}

type Result struct {
	Pending         bool
	Completeness    domain.Completeness
	Signatures      []domain.SignatureEvent
	FinalDocument   *domain.Document
	SignedPDFSHA256 string
}

// Submit runs one signature submission end to end. Resubmission for an
// already-signed identity is a successful no-op that returns the current
// state; the completing submission additionally finalizes the document,
// exactly once.
func (e *Engine) Submit(ctx context.Context, req SubmitRequest) (*Result, error) {
	doc, err := e.docs.GetDocument(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}

	entries, err := e.roster.CheckSignable(ctx, doc.LeaseID)
	if err != nil {
		return nil, err
	}

	if req.Role != domain.RoleLandlord && req.Role != domain.RoleTenant {
		return nil, &domain.ValidationError{Field: "role", Reason: fmt.Sprintf("unknown role %q", req.Role)}
	}
	if !req.Consent {
		return nil, &domain.ValidationError{Field: "consent", Reason: "consent is required to sign"}
	}
	imagePNG, err := decodePNGDataURL(req.SignatureImage)
	if err != nil {
		return nil, err
	}

	identity, signerName, sequence, err := e.resolveSigner(req, entries)
	if err != nil {
		return nil, err
	}

	active, err := e.ledger.Active(ctx, req.DocumentID)
	if err != nil {
		return nil, err
	}
	if !hasIdentity(active, identity) {
		if err := e.appendSignature(ctx, doc, identity, signerName, sequence, imagePNG, req); err != nil {
			return nil, err
		}
		active, err = e.ledger.Active(ctx, req.DocumentID)
		if err != nil {
			return nil, err
		}
	} else {
		e.logger.InfoContext(ctx, "duplicate signature submission ignored",
			"document_id", req.DocumentID, "role", identity.Role, "tenant_id", identity.TenantID)
	}

	completeness := ledger.Completeness(active, entries)
	if !completeness.Complete() {
		return &Result{Pending: true, Completeness: completeness, Signatures: active}, nil
	}

	final, created, err := e.docs.FinalizeOnce(ctx, doc.DocumentID, func(ctx context.Context) (domain.Document, error) {
		return e.assemble(ctx, doc, active)
	})
	if err != nil {
		return nil, err
	}
	if created {
		if err := e.notifier.DocumentFinalized(ctx, final, active); err != nil {
			e.logger.WarnContext(ctx, "finalization notification failed",
				"document_id", doc.DocumentID, "error", err)
		}
	}
	return &Result{
		Pending:         false,
		Completeness:    completeness,
		Signatures:      active,
		FinalDocument:   &final,
		SignedPDFSHA256: final.SHA256,
	}, nil
}

// Status reports the document's current completeness without writing
// anything. Works even while tenant profiles are still incomplete.
func (e *Engine) Status(ctx context.Context, documentID string) (*Result, error) {
	doc, err := e.docs.GetDocument(ctx, documentID)
	if err != nil {
		return nil, err
	}
	entries, err := e.roster.Roster(ctx, doc.LeaseID)
	if err != nil {
		return nil, err
	}
	active, err := e.ledger.Active(ctx, documentID)
	if err != nil {
		return nil, err
	}
	res := &Result{
		Pending:      true,
		Completeness: ledger.Completeness(active, entries),
		Signatures:   active,
	}
	if doc.FinalDocumentID != "" {
		final, err := e.docs.GetDocument(ctx, doc.FinalDocumentID)
		if err != nil {
			return nil, err
		}
		res.Pending = false
		res.FinalDocument = &final
		res.SignedPDFSHA256 = final.SHA256
	}
	return res, nil
}

// resolveSigner turns the request into a ledger identity plus the
// deterministic assembly sequence: tenants by roster position, landlord
// always last regardless of when it actually signs.
func (e *Engine) resolveSigner(req SubmitRequest, entries []domain.RosterEntry) (domain.SignerIdentity, string, int, error) {
	if req.Role == domain.RoleLandlord {
		name := req.SignerName
		if name == "" {
			name = "Landlord"
		}
		return domain.LandlordIdentity(), name, len(entries) + 1, nil
	}
	entry, err := roster.ResolveIdentity(entries, req.SignerName, req.TenantID)
	if err != nil {
		return domain.SignerIdentity{}, "", 0, err
	}
	return domain.TenantIdentity(entry.TenantID), entry.FullName, entry.Position + 1, nil
}

// appendSignature persists the image then the ledger row. A failed or
// conflicting insert removes the just-written image so nothing dangles.
func (e *Engine) appendSignature(ctx context.Context, doc domain.Document, identity domain.SignerIdentity, signerName string, sequence int, imagePNG []byte, req SubmitRequest) error {
	signatureID := "sig_" + uuid.NewString()
	imagePath := fmt.Sprintf("signatures/%s/%s.png", doc.DocumentID, signatureID)
	if err := e.blobs.Write(ctx, imagePath, imagePNG); err != nil {
		return fmt.Errorf("store signature image: %w", err)
	}

	ev := domain.SignatureEvent{
		SignatureID: signatureID,
		DocumentID:  doc.DocumentID,
		Identity:    identity,
		SignerName:  signerName,
		ImagePath:   imagePath,
		Sequence:    sequence,
		SignedAt:    e.now(),
		Audit: domain.AuditPayload{
			Consent:        req.Consent,
			IP:             req.IP,
			UserAgent:      req.UserAgent,
			DocumentSHA256: doc.SHA256,
		},
	}
	inserted, err := e.ledger.Insert(ctx, ev)
	if err != nil {
		e.discardImage(ctx, imagePath)
		return err
	}
	if !inserted {
		// A concurrent submission for the same identity won the insert.
		e.discardImage(ctx, imagePath)
		e.logger.InfoContext(ctx, "lost signature insert race, treating as idempotent",
			"document_id", doc.DocumentID, "role", identity.Role, "tenant_id", identity.TenantID)
	}
	return nil
}

func (e *Engine) discardImage(ctx context.Context, imagePath string) {
	if err := e.blobs.Delete(ctx, imagePath); err != nil {
		e.logger.WarnContext(ctx, "orphan signature image not removed", "path", imagePath, "error", err)
	}
}

func hasIdentity(active []domain.SignatureEvent, identity domain.SignerIdentity) bool {
	for _, ev := range active {
		if ev.Identity == identity {
			return true
		}
	}
	return false
}
