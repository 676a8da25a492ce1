package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/bensalemGit/rentalos-sub000/internal/signlink"
	"github.com/bensalemGit/rentalos-sub000/internal/workflow"
	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

type fakeWorkflow struct {
	lastSubmit workflow.SubmitRequest
	result     *workflow.Result
	err        error
}

func (f *fakeWorkflow) Submit(ctx context.Context, req workflow.SubmitRequest) (*workflow.Result, error) {
	f.lastSubmit = req
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

func (f *fakeWorkflow) Status(ctx context.Context, documentID string) (*workflow.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.result, nil
}

type fakeLinks struct {
	token      string
	documentID string
	resolveErr error
}

func (f *fakeLinks) Issue(ctx context.Context, documentID string) (string, time.Time, error) {
	return f.token, time.Date(2025, 7, 1, 0, 0, 0, 0, time.UTC), nil
}

func (f *fakeLinks) Resolve(ctx context.Context, token string) (string, error) {
	if f.resolveErr != nil {
		return "", f.resolveErr
	}
	return f.documentID, nil
}

func withChiParams(req *http.Request, kv ...string) *http.Request {
	rc := chi.NewRouteContext()
	for i := 0; i+1 < len(kv); i += 2 {
		rc.URLParams.Add(kv[i], kv[i+1])
	}
	return req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rc))
}

func pendingResult() *workflow.Result {
	return &workflow.Result{
		Pending: true,
		Completeness: domain.Completeness{
			TenantsSigned:  []string{"t1"},
			TenantsMissing: []string{"t2"},
			TenantsTotal:   2,
			LandlordSigned: false,
		},
		Signatures: []domain.SignatureEvent{{SignatureID: "sig-1"}},
	}
}

func finalizedResult() *workflow.Result {
	return &workflow.Result{
		Pending:         false,
		Completeness:    domain.Completeness{TenantsSigned: []string{"t1"}, TenantsMissing: []string{}, TenantsTotal: 1, LandlordSigned: true},
		Signatures:      []domain.SignatureEvent{{SignatureID: "sig-1"}, {SignatureID: "sig-2"}},
		FinalDocument:   &domain.Document{DocumentID: "doc-final", SHA256: "finalsha"},
		SignedPDFSHA256: "finalsha",
	}
}

func TestSubmitSignaturePendingShape(t *testing.T) {
	wf := &fakeWorkflow{result: pendingResult()}
	h := NewHandler(wf, &fakeLinks{})

	body := `{"role":"tenant","signerName":"Alice Durand","signatureImage":"data:image/png;base64,x","consent":true}`
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/signatures", strings.NewReader(body))
	req.Header.Set("User-Agent", "test-agent")
	req.Header.Set("X-Forwarded-For", "203.0.113.7, 10.0.0.1")
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.SubmitSignature(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}

	if wf.lastSubmit.DocumentID != "doc-1" || wf.lastSubmit.Role != domain.RoleTenant {
		t.Fatalf("submit request not mapped: %+v", wf.lastSubmit)
	}
	if wf.lastSubmit.IP != "203.0.113.7" || wf.lastSubmit.UserAgent != "test-agent" {
		t.Fatalf("audit fields not captured: %+v", wf.lastSubmit)
	}

	var resp struct {
		OK      bool `json:"ok"`
		Pending bool `json:"pending"`
		Need    struct {
			Landlord       bool     `json:"landlord"`
			TenantsMissing []string `json:"tenantsMissing"`
			TenantsSigned  []string `json:"tenantsSigned"`
			TenantsTotal   int      `json:"tenantsTotal"`
		} `json:"need"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.OK || !resp.Pending {
		t.Fatalf("unexpected envelope: %s", rr.Body.String())
	}
	if !resp.Need.Landlord || resp.Need.TenantsTotal != 2 || resp.Need.TenantsMissing[0] != "t2" {
		t.Fatalf("unexpected need payload: %s", rr.Body.String())
	}
}

func TestSubmitSignatureFinalizedShape(t *testing.T) {
	h := NewHandler(&fakeWorkflow{result: finalizedResult()}, &fakeLinks{})

	body := `{"role":"LANDLORD","signerName":"Marc","signatureImage":"data:image/png;base64,x","consent":true}`
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/signatures", strings.NewReader(body))
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.SubmitSignature(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}

	var resp struct {
		OK                  bool             `json:"ok"`
		Pending             bool             `json:"pending"`
		FinalSignedDocument *domain.Document `json:"finalSignedDocument"`
		SignedPdfSha256     string           `json:"signedPdfSha256"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Pending || resp.FinalSignedDocument == nil || resp.FinalSignedDocument.DocumentID != "doc-final" {
		t.Fatalf("unexpected finalized payload: %s", rr.Body.String())
	}
	if resp.SignedPdfSha256 != "finalsha" {
		t.Fatalf("expected signedPdfSha256, got %s", rr.Body.String())
	}
}

func TestSubmitSignatureAmbiguousIdentity(t *testing.T) {
	wf := &fakeWorkflow{err: &domain.AmbiguousIdentityError{
		SignerName: "X",
		Candidates: []domain.TenantCandidate{
			{TenantID: "t1", FullName: "Alice Durand", Role: domain.RosterPrincipal},
			{TenantID: "t2", FullName: "Bob Martin", Role: domain.RosterCotenant},
		},
	}}
	h := NewHandler(wf, &fakeLinks{})

	body := `{"role":"TENANT","signerName":"X","signatureImage":"data:image/png;base64,x","consent":true}`
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/signatures", strings.NewReader(body))
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.SubmitSignature(rr, req)
	if rr.Code != 409 {
		t.Fatalf("expected 409, got %d", rr.Code)
	}
	var resp struct {
		Error struct {
			Code    string `json:"code"`
			Details struct {
				Tenants []struct {
					TenantID string `json:"tenantId"`
					FullName string `json:"fullName"`
					Role     string `json:"role"`
				} `json:"tenants"`
			} `json:"details"`
		} `json:"error"`
	}
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.Error.Code != "AMBIGUOUS_IDENTITY" || len(resp.Error.Details.Tenants) != 2 {
		t.Fatalf("unexpected error payload: %s", rr.Body.String())
	}
	if resp.Error.Details.Tenants[0].TenantID != "t1" || resp.Error.Details.Tenants[0].FullName != "Alice Durand" {
		t.Fatalf("candidate list not usable for a selector: %s", rr.Body.String())
	}
}

func TestSubmitSignatureIncompleteProfile(t *testing.T) {
	wf := &fakeWorkflow{err: &domain.IncompleteProfileError{
		Missing: map[string][]string{"Bob Martin": {"birth_place"}},
	}}
	h := NewHandler(wf, &fakeLinks{})

	body := `{"role":"TENANT","signerName":"Bob Martin","signatureImage":"data:image/png;base64,x","consent":true}`
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/signatures", strings.NewReader(body))
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.SubmitSignature(rr, req)
	if rr.Code != 422 {
		t.Fatalf("expected 422, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "birth_place") {
		t.Fatalf("missing field name must surface: %s", rr.Body.String())
	}
}

func TestSubmitSignatureBadJSON(t *testing.T) {
	h := NewHandler(&fakeWorkflow{result: pendingResult()}, &fakeLinks{})
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/signatures", strings.NewReader("{nope"))
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.SubmitSignature(rr, req)
	if rr.Code != 400 {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
}

func TestSubmitByLinkResolvesDocument(t *testing.T) {
	wf := &fakeWorkflow{result: pendingResult()}
	h := NewHandler(wf, &fakeLinks{documentID: "doc-42"})

	body := `{"role":"TENANT","signerName":"Alice Durand","signatureImage":"data:image/png;base64,x","consent":true}`
	req := httptest.NewRequest(http.MethodPost, "/sign/tok/signatures", strings.NewReader(body))
	req = withChiParams(req, "token", "tok")
	rr := httptest.NewRecorder()
	h.SubmitByLink(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d body=%s", rr.Code, rr.Body.String())
	}
	if wf.lastSubmit.DocumentID != "doc-42" {
		t.Fatalf("token did not resolve to document: %+v", wf.lastSubmit)
	}
}

func TestSubmitByLinkExpired(t *testing.T) {
	h := NewHandler(&fakeWorkflow{result: pendingResult()}, &fakeLinks{resolveErr: signlink.ErrLinkExpired})
	req := httptest.NewRequest(http.MethodPost, "/sign/tok/signatures", strings.NewReader("{}"))
	req = withChiParams(req, "token", "tok")
	rr := httptest.NewRecorder()
	h.SubmitByLink(rr, req)
	if rr.Code != 410 {
		t.Fatalf("expected 410, got %d", rr.Code)
	}
}

func TestIssueSigningLink(t *testing.T) {
	h := NewHandler(&fakeWorkflow{result: pendingResult()}, &fakeLinks{token: "tok-123"})
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-1/signing-links", nil)
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.IssueSigningLink(rr, req)
	if rr.Code != 201 {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "tok-123") {
		t.Fatalf("token missing from response: %s", rr.Body.String())
	}
}

func TestIssueSigningLinkUnknownDocument(t *testing.T) {
	h := NewHandler(&fakeWorkflow{err: domain.ErrDocumentNotFound}, &fakeLinks{token: "tok-123"})
	req := httptest.NewRequest(http.MethodPost, "/documents/doc-x/signing-links", nil)
	req = withChiParams(req, "document_id", "doc-x")
	rr := httptest.NewRecorder()
	h.IssueSigningLink(rr, req)
	if rr.Code != 404 {
		t.Fatalf("expected 404, got %d", rr.Code)
	}
}

func TestSignatureStatus(t *testing.T) {
	h := NewHandler(&fakeWorkflow{result: finalizedResult()}, &fakeLinks{})
	req := httptest.NewRequest(http.MethodGet, "/documents/doc-1/signatures", nil)
	req = withChiParams(req, "document_id", "doc-1")
	rr := httptest.NewRecorder()
	h.SignatureStatus(rr, req)
	if rr.Code != 200 {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if !strings.Contains(rr.Body.String(), "doc-final") {
		t.Fatalf("final document missing: %s", rr.Body.String())
	}
}
