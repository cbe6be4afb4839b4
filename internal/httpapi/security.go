package httpapi

import (
	"crypto/subtle"
	"encoding/hex"
	"net/http"

	"github.com/go-faster/errors"

	"github.com/ordersvc/ordersvc/internal/domain/auth"
)

// apiKeyHeader carries the raw API key on incoming requests.
const apiKeyHeader = "api_key"

// NewSecurityMiddleware wraps next with API key authentication: the raw key
// from the api_key header is HMAC-SHA256 hashed under pepper, looked up, and
// compared in constant time. Unauthenticated requests get a 401 envelope.
func NewSecurityMiddleware(apikeys auth.Repository, pepper []byte, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw := r.Header.Get(apiKeyHeader)
		if raw == "" {
			writeError(w, http.StatusUnauthorized, "api key required")
			return
		}

		hash := auth.HashKey(raw, pepper)
		key, err := apikeys.FindByHash(r.Context(), hash)
		if err != nil {
			if errors.Is(err, auth.ErrUnauthorized) {
				writeError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeInternalError(w, r, err)
			return
		}

		computed, err1 := hex.DecodeString(hash)
		stored, err2 := hex.DecodeString(key.KeyHash)
		if err1 != nil || err2 != nil || subtle.ConstantTimeCompare(computed, stored) != 1 {
			writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}

		next.ServeHTTP(w, r)
	})
}
