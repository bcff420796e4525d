package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// MinSecretBytes is the smallest accepted JWT secret size (256-bit)
const MinSecretBytes = 32

// GenerateSecret returns n random bytes hex encoded
func GenerateSecret(n int) (string, error) {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// GenerateJWTSecrets returns a distinct access and refresh secret pair.
// Config validation rejects equal secrets, so equal draws are retried.
func GenerateJWTSecrets(n int) (accessSecret, refreshSecret string, err error) {
	if n < MinSecretBytes {
		n = MinSecretBytes
	}
	if accessSecret, err = GenerateSecret(n); err != nil {
		return "", "", fmt.Errorf("access secret: %w", err)
	}
	for refreshSecret == "" || refreshSecret == accessSecret {
		if refreshSecret, err = GenerateSecret(n); err != nil {
			return "", "", fmt.Errorf("refresh secret: %w", err)
		}
	}
	return accessSecret, refreshSecret, nil
}
