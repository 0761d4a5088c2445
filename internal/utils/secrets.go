package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// RandomHexSecret returns n random bytes from crypto/rand, hex-encoded.
func RandomHexSecret(n int) (string, error) {
	buf := make([]byte, n)
	if _, err := rand.Read(buf); err != nil {
		return "", fmt.Errorf("failed to read random bytes: %w", err)
	}
	return hex.EncodeToString(buf), nil
}

// GenerateJWTSecrets returns a fresh access/refresh secret pair. The
// two tokens are verified against different secrets, so a leaked access
// secret never lets anyone mint refresh tokens.
func GenerateJWTSecrets() (accessSecret, refreshSecret string, err error) {
	// 256-bit each, enough for HS256
	if accessSecret, err = RandomHexSecret(32); err != nil {
		return "", "", fmt.Errorf("access secret: %w", err)
	}
	if refreshSecret, err = RandomHexSecret(32); err != nil {
		return "", "", fmt.Errorf("refresh secret: %w", err)
	}
	return accessSecret, refreshSecret, nil
}
