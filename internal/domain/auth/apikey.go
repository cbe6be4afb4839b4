package auth

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/go-faster/errors"
)

// ErrUnauthorized is returned when a presented API key does not match any
// stored key.
var ErrUnauthorized = errors.New("unauthorized")

// APIKey holds the identity data for a validated API key.
type APIKey struct {
	ID      int64
	KeyHash string
	Name    string
}

// Repository provides lookup of API keys by their HMAC hash.
type Repository interface {
	FindByHash(ctx context.Context, hash string) (*APIKey, error)
}

// HashKey computes the hex-encoded HMAC-SHA256 of a raw API key under the
// given pepper. Keys are only ever stored and compared in this form.
func HashKey(raw string, pepper []byte) string {
	mac := hmac.New(sha256.New, pepper)
	mac.Write([]byte(raw))
	return hex.EncodeToString(mac.Sum(nil))
}
