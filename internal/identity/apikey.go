// Package identity issues and validates bot credentials and resolves the
// acting principal (anonymous, user, or bot) for each request.
package identity

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"
)

// API keys look like "bot_" followed by 32 lowercase hex characters.
const (
	apiKeyPrefix    = "bot_"
	apiKeyRandomLen = 32
	apiKeyHintLen   = 4
)

// GenerateAPIKey creates a new bot API key. The plaintext key is returned
// exactly once and must never be persisted or logged; only the hash is
// stored. The hint is the last four characters of the plaintext, kept so
// owners can recognize which key a bot holds.
func GenerateAPIKey() (key, hash, hint string, err error) {
	buf := make([]byte, apiKeyRandomLen/2)
	if _, err = rand.Read(buf); err != nil {
		return "", "", "", fmt.Errorf("failed to generate API key: %w", err)
	}
	key = apiKeyPrefix + hex.EncodeToString(buf)
	hash = HashAPIKey(key)
	hint = key[len(key)-apiKeyHintLen:]
	return key, hash, hint, nil
}

// HashAPIKey computes the storage digest for a key. It is deterministic so
// presented keys can be matched by hash equality instead of decryption.
func HashAPIKey(key string) string {
	sum := sha256.Sum256([]byte(key))
	return hex.EncodeToString(sum[:])
}

// IsBotToken reports whether a bearer token is bot-shaped. Tokens without
// the prefix are delegated to the session collaborator instead.
func IsBotToken(token string) bool {
	return strings.HasPrefix(token, apiKeyPrefix)
}

// ValidKeyFormat checks the shape of a presented bot key before any store
// lookup, so malformed tokens are rejected without a database round-trip.
func ValidKeyFormat(key string) bool {
	if !strings.HasPrefix(key, apiKeyPrefix) {
		return false
	}
	rest := key[len(apiKeyPrefix):]
	if len(rest) != apiKeyRandomLen {
		return false
	}
	for _, r := range rest {
		if (r < '0' || r > '9') && (r < 'a' || r > 'f') {
			return false
		}
	}
	return true
}
