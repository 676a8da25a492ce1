// Package notify announces finalized documents to the signing parties.
// Actual email delivery lives behind the Notifier interface; the default
// implementation records the event in the service log.
package notify

import (
	"context"
	"log/slog"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

type Notifier interface {
	DocumentFinalized(ctx context.Context, final domain.Document, signers []domain.SignatureEvent) error
}

type LogNotifier struct {
	Logger *slog.Logger
}

func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogNotifier{Logger: logger}
}

func (n *LogNotifier) DocumentFinalized(ctx context.Context, final domain.Document, signers []domain.SignatureEvent) error {
	names := make([]string, len(signers))
	for i, s := range signers {
		names[i] = s.SignerName
	}
	n.Logger.InfoContext(ctx, "document finalized",
		"document_id", final.DocumentID,
		"parent_document_id", final.ParentDocumentID,
		"sha256", final.SHA256,
		"signers", names,
	)
	return nil
}
