// Package attestation renders the per-signer page appended during
// finalization. Each page binds the signer to the SHA-256 of the original
// unsigned document, so the final artifact is verifiable against the exact
// bytes every party reviewed.
package attestation

import (
	"encoding/base64"
	"html"
	"strings"
	"time"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

func roleLabel(identity domain.SignerIdentity) string {
	if identity.Role == domain.RoleLandlord {
		return "Landlord"
	}
	return "Tenant"
}

// PageHTML builds one attestation page. Output is deterministic for a
// given event and image, and every audit field is reproduced verbatim.
func PageHTML(ev domain.SignatureEvent, imagePNG []byte) string {
	var b strings.Builder
	b.WriteString("<!doctype html>\n<html><body>\n")
	b.WriteString("<h1>Signature attestation</h1>\n")

	writeRow(&b, "Signer", ev.SignerName)
	writeRow(&b, "Role", roleLabel(ev.Identity))
	if ev.Identity.TenantID != "" {
		writeRow(&b, "Tenant ID", ev.Identity.TenantID)
	}
	writeRow(&b, "Signed at", ev.SignedAt.UTC().Format(time.RFC3339))
	writeRow(&b, "Document SHA-256", ev.Audit.DocumentSHA256)
	writeRow(&b, "Consent given", boolWord(ev.Audit.Consent))
	writeRow(&b, "IP address", ev.Audit.IP)
	writeRow(&b, "User agent", ev.Audit.UserAgent)

	b.WriteString(`<img alt="signature" src="data:image/png;base64,`)
	b.WriteString(base64.StdEncoding.EncodeToString(imagePNG))
	b.WriteString("\">\n")
	b.WriteString("</body></html>\n")
	return b.String()
}

func writeRow(b *strings.Builder, label, value string) {
	b.WriteString("<p><strong>")
	b.WriteString(html.EscapeString(label))
	b.WriteString(":</strong> ")
	b.WriteString(html.EscapeString(value))
	b.WriteString("</p>\n")
}

func boolWord(v bool) string {
	if v {
		return "yes"
	}
	return "no"
}
