// Package auth generates and verifies the local API key used to authenticate
// against a remote build cache.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

const (
	// KeyIDPrefix is the prefix for cache credential IDs.
	KeyIDPrefix = "forge_key_"

	// TokenPrefix is the prefix for remote-cache API tokens.
	TokenPrefix = "forge_sk_" // #nosec G101 //nolint:gosec // Not a credential, just a prefix pattern

	// TokenPrefixLength is the number of characters stored alongside the hash for lookup.
	TokenPrefixLength = 8

	// KeyIDLength is the length of the random part of key IDs, in bytes before hex encoding.
	KeyIDLength = 8

	// TokenLength is the length of the random part of tokens, in bytes before hex encoding.
	TokenLength = 32

	// bcryptCost is the cost factor for bcrypt hashing.
	bcryptCost = 12
)

// GenerateKeyID generates a new unique credential ID.
// Format: forge_key_<16 hex chars>
func GenerateKeyID() (string, error) {
	bytes := make([]byte, KeyIDLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", fmt.Errorf("generate key ID: %w", err)
	}
	return KeyIDPrefix + hex.EncodeToString(bytes), nil
}

// GenerateToken generates a new remote-cache API token.
// Returns the raw token (shown once to the caller) and its lookup prefix.
// Format: forge_sk_<64 hex chars>
func GenerateToken() (token string, prefix string, err error) {
	bytes := make([]byte, TokenLength)
	if _, err := rand.Read(bytes); err != nil {
		return "", "", fmt.Errorf("generate token: %w", err)
	}

	hexToken := hex.EncodeToString(bytes)
	prefix = hexToken[:TokenPrefixLength]
	token = TokenPrefix + hexToken
	return token, prefix, nil
}

// HashToken returns a bcrypt hash of a token's secret portion, suitable for
// storing on disk in place of the raw token.
func HashToken(token string) (string, error) {
	secret := strings.TrimPrefix(token, TokenPrefix)

	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcryptCost)
	if err != nil {
		return "", fmt.Errorf("hash token: %w", err)
	}
	return string(hash), nil
}

// VerifyToken reports whether token matches a previously stored hash.
func VerifyToken(token, hash string) bool {
	secret := strings.TrimPrefix(token, TokenPrefix)
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// ExtractTokenPrefix extracts the lookup prefix from a full token.
func ExtractTokenPrefix(token string) string {
	secret := strings.TrimPrefix(token, TokenPrefix)
	if len(secret) < TokenPrefixLength {
		return secret
	}
	return secret[:TokenPrefixLength]
}

// IsValidTokenFormat reports whether token has the expected shape.
func IsValidTokenFormat(token string) bool {
	if !strings.HasPrefix(token, TokenPrefix) {
		return false
	}
	secret := strings.TrimPrefix(token, TokenPrefix)
	if len(secret) != TokenLength*2 {
		return false
	}
	_, err := hex.DecodeString(secret)
	return err == nil
}

// MaskToken returns a display-safe masked form of a token.
// Example: forge_sk_a1b2c3d4****...****
func MaskToken(token string) string {
	if len(token) < len(TokenPrefix)+TokenPrefixLength {
		return "****"
	}
	return token[:len(TokenPrefix)+TokenPrefixLength] + "****...****"
}
