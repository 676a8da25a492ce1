package workflow

import (
	"bytes"
	"encoding/base64"
	"image/png"
	"strings"

	"github.com/bensalemGit/rentalos-sub000/pkg/domain"
)

const pngDataURLPrefix = "data:image/png;base64,"

// decodePNGDataURL accepts the signature pad's data URL and returns the
// raw PNG bytes. The payload must actually decode as a PNG; a renamed
// JPEG or truncated upload is rejected up front.
func decodePNGDataURL(dataURL string) ([]byte, error) {
	s := strings.TrimSpace(dataURL)
	if s == "" {
		return nil, &domain.ValidationError{Field: "signature_image", Reason: "signature image is required"}
	}
	if !strings.HasPrefix(s, pngDataURLPrefix) {
		return nil, &domain.ValidationError{Field: "signature_image", Reason: "expected a PNG data URL"}
	}
	raw, err := base64.StdEncoding.DecodeString(strings.TrimPrefix(s, pngDataURLPrefix))
	if err != nil {
		return nil, &domain.ValidationError{Field: "signature_image", Reason: "invalid base64 payload"}
	}
	if _, err := png.DecodeConfig(bytes.NewReader(raw)); err != nil {
		return nil, &domain.ValidationError{Field: "signature_image", Reason: "payload is not a valid PNG"}
	}
	return raw, nil
}
