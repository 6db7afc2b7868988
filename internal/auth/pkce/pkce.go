// Package pkce generates code verifier and challenge pairs for the OAuth 2.0
// PKCE extension (RFC 7636), binding the authorization code to this client.
package pkce

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/base64"
	"fmt"
)

// Codes holds a verifier and its derived S256 challenge.
type Codes struct {
	Verifier  string
	Challenge string
}

// Generate creates a new verifier/challenge pair. 32 random bytes encode to
// exactly 43 unpadded base64url characters, the RFC 7636 minimum length, all
// drawn from the unreserved URI set.
func Generate() (*Codes, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return nil, fmt.Errorf("failed to generate random bytes: %w", err)
	}
	verifier := base64.RawURLEncoding.EncodeToString(b)
	return &Codes{
		Verifier:  verifier,
		Challenge: Challenge(verifier),
	}, nil
}

// Challenge computes BASE64URL(SHA-256(verifier)) without padding. The
// authorization server verifies the code against a genuine SHA-256 digest,
// so no weaker hash can stand in here.
func Challenge(verifier string) string {
	sum := sha256.Sum256([]byte(verifier))
	return base64.RawURLEncoding.EncodeToString(sum[:])
}
