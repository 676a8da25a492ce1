// Package signlink issues the tokenized links that front the signing
// workflow for unauthenticated signers. Only the SHA-256 of a token is
// stored; possession of the raw token is the whole credential.
package signlink

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/bensalemGit/rentalos-sub000/pkg/dochash"
)

var (
	ErrLinkNotFound = errors.New("signing link not found")
	ErrLinkExpired  = errors.New("signing link expired")
)

type Store struct {
	DB  *pgxpool.Pool
	TTL time.Duration
}

func New(db *pgxpool.Pool, ttl time.Duration) *Store {
	if ttl <= 0 {
		ttl = 14 * 24 * time.Hour
	}
	return &Store{DB: db, TTL: ttl}
}

func HashToken(token string) string {
	return dochash.SHA256Hex([]byte(token))
}

func newToken() string {
	b := make([]byte, 24)
	_, _ = rand.Read(b)
	return hex.EncodeToString(b)
}

// Issue creates a link for the document and returns the raw token exactly
// once; it is never recoverable afterwards.
func (s *Store) Issue(ctx context.Context, documentID string) (token string, expiresAt time.Time, err error) {
	token = newToken()
	expiresAt = time.Now().UTC().Add(s.TTL)
	_, err = s.DB.Exec(ctx, `
INSERT INTO signing_links(link_id,document_id,token_hash,expires_at)
VALUES($1,$2,$3,$4)
`, "lnk_"+uuid.NewString(), documentID, HashToken(token), expiresAt)
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expiresAt, nil
}

// Resolve maps a raw token back to its document id.
func (s *Store) Resolve(ctx context.Context, token string) (string, error) {
	var documentID string
	var expiresAt time.Time
	err := s.DB.QueryRow(ctx, `
SELECT document_id, expires_at FROM signing_links WHERE token_hash=$1
`, HashToken(token)).Scan(&documentID, &expiresAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrLinkNotFound
		}
		return "", err
	}
	if time.Now().After(expiresAt) {
		return "", ErrLinkExpired
	}
	return documentID, nil
}
