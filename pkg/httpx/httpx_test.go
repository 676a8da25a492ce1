package httpx

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

func TestReadJSONRejectsUnknownFields(t *testing.T) {
	req := httptest.NewRequest("POST", "/", strings.NewReader(`{"role":"TENANT","bogus":1}`))
	rr := httptest.NewRecorder()
	var dst struct {
		Role string `json:"role"`
	}
	if err := ReadJSON(rr, req, &dst); err == nil {
		t.Fatal("expected unknown-field error")
	}
}

func TestWriteDomainErrorStatuses(t *testing.T) {
	cases := []struct {
		err    error
		status int
		code   string
	}{
		{domain.ErrDocumentNotFound, 404, "NOT_FOUND"},
		{&domain.ValidationError{Field: "role", Reason: "bad"}, 400, "VALIDATION_ERROR"},
		{&domain.IncompleteProfileError{Missing: map[string][]string{"A": {"address"}}}, 422, "INCOMPLETE_PROFILE"},
		{&domain.AmbiguousIdentityError{SignerName: "X"}, 409, "AMBIGUOUS_IDENTITY"},
		{&domain.UnknownTenantError{TenantID: "t9"}, 404, "UNKNOWN_TENANT"},
		{&domain.ExternalServiceError{Service: "pdf", Op: "merge", Err: errors.New("down")}, 502, "EXTERNAL_SERVICE_ERROR"},
		{errors.New("boom"), 500, "INTERNAL"},
	}
	for _, tc := range cases {
		rr := httptest.NewRecorder()
		WriteDomainError(rr, tc.err)
		if rr.Code != tc.status {
			t.Errorf("%T: expected %d, got %d", tc.err, tc.status, rr.Code)
		}
		var resp struct {
			Error struct {
				Code string `json:"code"`
			} `json:"error"`
		}
		if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
			t.Fatalf("%T: decode: %v", tc.err, err)
		}
		if resp.Error.Code != tc.code {
			t.Errorf("%T: expected code %s, got %s", tc.err, tc.code, resp.Error.Code)
		}
	}
}

func TestWriteDomainErrorWrappedSentinel(t *testing.T) {
	rr := httptest.NewRecorder()
	WriteDomainError(rr, errors.Join(errors.New("lookup doc-1"), domain.ErrDocumentNotFound))
	if rr.Code != 404 {
		t.Fatalf("wrapped sentinel must still map to 404, got %d", rr.Code)
	}
}
