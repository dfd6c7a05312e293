package helpers

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

// HashSecret returns the lowercase sha256 hex digest of a shared secret.
// The server only ever stores and compares digests, never the plaintext.
func HashSecret(secret string) string {
	sum := sha256.Sum256([]byte(secret))
	return hex.EncodeToString(sum[:])
}

// IsHexHash reports whether s already looks like a sha256 hex digest, in
// which case the client hashed the passphrase itself.
func IsHexHash(s string) bool {
	if len(s) != 64 {
		return false
	}
	for _, c := range s {
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}

// NormalizeToken converts a presented token to its comparable hash form: a
// 64-char hex value passes through (lowercased), anything else is hashed
// exactly as presented so the result matches what hash-secret printed.
func NormalizeToken(token string) string {
	token = strings.TrimSpace(token)
	if hex := strings.ToLower(token); IsHexHash(hex) {
		return hex
	}
	return HashSecret(token)
}

func FormatValidationErrors(errs validator.ValidationErrors) map[string]string {
	errorMessages := make(map[string]string)
	for _, err := range errs {
		field := strings.ToLower(err.Field())
		switch err.Tag() {
		case "required":
			errorMessages[field] = fmt.Sprintf("%s is required.", err.Field())
		case "url":
			errorMessages[field] = fmt.Sprintf("%s must be a valid URL.", err.Field())
		case "min":
			errorMessages[field] = fmt.Sprintf("%s must be at least %s characters.", err.Field(), err.Param())
		case "max":
			errorMessages[field] = fmt.Sprintf("%s must be at most %s characters.", err.Field(), err.Param())
		default:
			errorMessages[field] = fmt.Sprintf("%s failed %s validation.", err.Field(), err.Tag())
		}
	}
	return errorMessages
}
