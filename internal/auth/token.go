package auth

import (
	"crypto/subtle"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const minTokenLength = 16

// ValidateToken checks minimal API token requirements.
func ValidateToken(token string) error {
	if len(strings.TrimSpace(token)) < minTokenLength {
		return fmt.Errorf("api token must be at least %d characters", minTokenLength)
	}
	return nil
}

// HashToken hashes one plaintext API token for the config file.
func HashToken(token string) (string, error) {
	if err := ValidateToken(token); err != nil {
		return "", err
	}
	hashed, err := bcrypt.GenerateFromPassword([]byte(token), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hashed), nil
}

// VerifyToken verifies a plaintext token against a bcrypt hash.
func VerifyToken(tokenHash, candidate string) bool {
	if strings.TrimSpace(tokenHash) == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(tokenHash), []byte(candidate)) == nil
}

// Verifier accepts either a plain token or a bcrypt hash. A zero Verifier
// accepts nothing and reports itself disabled.
type Verifier struct {
	plain string
	hash  string
}

// NewVerifier builds a Verifier. Both arguments may be empty.
func NewVerifier(plain, hash string) Verifier {
	return Verifier{plain: strings.TrimSpace(plain), hash: strings.TrimSpace(hash)}
}

// Enabled reports whether any credential is configured.
func (v Verifier) Enabled() bool {
	return v.plain != "" || v.hash != ""
}

// Verify checks a presented bearer token.
func (v Verifier) Verify(candidate string) bool {
	if candidate == "" {
		return false
	}
	if v.plain != "" && subtle.ConstantTimeCompare([]byte(v.plain), []byte(candidate)) == 1 {
		return true
	}
	return VerifyToken(v.hash, candidate)
}
