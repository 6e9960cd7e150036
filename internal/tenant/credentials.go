package tenant

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// HashAPIToken returns the deterministic SHA-256 hex digest of a raw
// tenant API token. The digest, never the raw token, is what gets
// persisted on the Tenant record and looked up during authentication.
func HashAPIToken(token string) (string, error) {
	if token == "" {
		return "", fmt.Errorf("token must not be empty")
	}
	sum := sha256.Sum256([]byte(token))
	return hex.EncodeToString(sum[:]), nil
}

// VerifyAPIToken reports whether token hashes to the stored digest,
// using a constant-time comparison so hash-matching can't leak timing
// information about how much of the token was guessed correctly.
func VerifyAPIToken(hash, token string) bool {
	if hash == "" || token == "" {
		return false
	}
	computed, err := HashAPIToken(token)
	if err != nil {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(computed), []byte(hash)) == 1
}

// GenerateAPIToken returns a cryptographically random 64-character hex
// token suitable for issuing to a new tenant.
func GenerateAPIToken() (string, error) {
	buf := make([]byte, 32)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("generate api token: %w", err)
	}
	return hex.EncodeToString(buf), nil
}
