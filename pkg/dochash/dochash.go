// Package dochash computes the SHA-256 hashes recorded on documents and
// signature audit payloads. Hex encoding everywhere; the hash of the
// original unsigned document is what attestation pages embed.
package dochash

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

func SHA256Hex(b []byte) string {
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}

// CanonicalSHA256 hashes json.Marshal(v) bytes. Map keys are sorted by
// encoding/json, so equivalent payloads hash identically.
func CanonicalSHA256(v any) (hexHash string, canonical []byte, err error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", nil, err
	}
	return SHA256Hex(b), b, nil
}
