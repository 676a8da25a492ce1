// Package api exposes the signing workflow over HTTP. Handlers depend on
// narrow interfaces so tests drive them with fakes.
package api

import (
	"context"
	"errors"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bensalemGit/rentalos-sub000/internal/signlink"
	"github.com/bensalemGit/rentalos-sub000/internal/workflow"
	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
	"github.com/bensalemGit/rentalos-sub000/pkg/httpx"
)

type SignatureWorkflow interface {
	Submit(ctx context.Context, req workflow.SubmitRequest) (*workflow.Result, error)
	Status(ctx context.Context, documentID string) (*workflow.Result, error)
}

type Links interface {
	Issue(ctx context.Context, documentID string) (token string, expiresAt time.Time, err error)
	Resolve(ctx context.Context, token string) (documentID string, err error)
}

type Handler struct {
	Workflow SignatureWorkflow
	Links    Links
}

func NewHandler(wf SignatureWorkflow, links Links) *Handler {
	return &Handler{Workflow: wf, Links: links}
}

func (h *Handler) Routes(r chi.Router) {
	r.Post("/documents/{document_id}/signatures", h.SubmitSignature)
	r.Get("/documents/{document_id}/signatures", h.SignatureStatus)
	r.Post("/documents/{document_id}/signing-links", h.IssueSigningLink)
	r.Post("/sign/{token}/signatures", h.SubmitByLink)
}

type submitBody struct {
	Role           string `json:"role"`
	SignerName     string `json:"signerName"`
	SignatureImage string `json:"signatureImage"`
	TenantID       string `json:"tenantId,omitempty"`
	Consent        bool   `json:"consent"`
}

func (h *Handler) SubmitSignature(w http.ResponseWriter, r *http.Request) {
	h.submit(w, r, chi.URLParam(r, "document_id"))
}

// SubmitByLink is the unauthenticated path: the token stands in for the
// document id and nothing else about the submission changes.
func (h *Handler) SubmitByLink(w http.ResponseWriter, r *http.Request) {
	documentID, err := h.Links.Resolve(r.Context(), chi.URLParam(r, "token"))
	if err != nil {
		switch {
		case errors.Is(err, signlink.ErrLinkNotFound):
			httpx.WriteError(w, 404, "NOT_FOUND", "signing link not found", nil)
		case errors.Is(err, signlink.ErrLinkExpired):
			httpx.WriteError(w, 410, "LINK_EXPIRED", "signing link expired", nil)
		default:
			httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		}
		return
	}
	h.submit(w, r, documentID)
}

func (h *Handler) submit(w http.ResponseWriter, r *http.Request, documentID string) {
	var body submitBody
	if err := httpx.ReadJSON(w, r, &body); err != nil {
		httpx.WriteError(w, 400, "BAD_JSON", err.Error(), nil)
		return
	}
	res, err := h.Workflow.Submit(r.Context(), workflow.SubmitRequest{
		DocumentID:     documentID,
		Role:           domain.SignerRole(strings.ToUpper(strings.TrimSpace(body.Role))),
		SignerName:     strings.TrimSpace(body.SignerName),
		SignatureImage: body.SignatureImage,
		TenantID:       strings.TrimSpace(body.TenantID),
		Consent:        body.Consent,
		IP:             clientIP(r),
		UserAgent:      r.UserAgent(),
	})
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, 200, resultJSON(res))
}

func (h *Handler) SignatureStatus(w http.ResponseWriter, r *http.Request) {
	res, err := h.Workflow.Status(r.Context(), chi.URLParam(r, "document_id"))
	if err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	httpx.WriteJSON(w, 200, resultJSON(res))
}

func (h *Handler) IssueSigningLink(w http.ResponseWriter, r *http.Request) {
	documentID := chi.URLParam(r, "document_id")
	// Status doubles as an existence check before a link is handed out.
	if _, err := h.Workflow.Status(r.Context(), documentID); err != nil {
		httpx.WriteDomainError(w, err)
		return
	}
	token, expiresAt, err := h.Links.Issue(r.Context(), documentID)
	if err != nil {
		httpx.WriteError(w, 500, "DB_ERROR", err.Error(), nil)
		return
	}
	httpx.WriteJSON(w, 201, map[string]any{
		"request_id": httpx.NewRequestID(),
		"token":      token,
		"signUrl":    "/sign/" + token + "/signatures",
		"expiresAt":  expiresAt.UTC().Format(time.RFC3339),
	})
}

func resultJSON(res *workflow.Result) map[string]any {
	out := map[string]any{
		"ok":         true,
		"pending":    res.Pending,
		"signatures": res.Signatures,
	}
	if res.Pending {
		out["need"] = map[string]any{
			"landlord":       !res.Completeness.LandlordSigned,
			"tenantsMissing": res.Completeness.TenantsMissing,
			"tenantsSigned":  res.Completeness.TenantsSigned,
			"tenantsTotal":   res.Completeness.TenantsTotal,
		}
		return out
	}
	out["finalSignedDocument"] = res.FinalDocument
	out["signedPdfSha256"] = res.SignedPDFSHA256
	return out
}

func clientIP(r *http.Request) string {
	if fwd := r.Header.Get("X-Forwarded-For"); fwd != "" {
		parts := strings.Split(fwd, ",")
		return strings.TrimSpace(parts[0])
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
