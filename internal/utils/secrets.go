package utils

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
)

// GenerateSecret returns a hex encoded random secret of the given byte length
func GenerateSecret(bytes int) (string, error) {
	b := make([]byte, bytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("failed to generate random bytes: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// JWTSecrets holds the signing keys for operator access and refresh tokens
type JWTSecrets struct {
	Access  string
	Refresh string
}

// EnvLines renders the secrets in .env format
func (s JWTSecrets) EnvLines() string {
	return fmt.Sprintf("JWT_SECRET=%s\nJWT_REFRESH_SECRET=%s\n", s.Access, s.Refresh)
}

// GenerateJWTSecrets generates two distinct 256-bit secrets
func GenerateJWTSecrets() (JWTSecrets, error) {
	access, err := GenerateSecret(32)
	if err != nil {
		return JWTSecrets{}, fmt.Errorf("failed to generate access secret: %w", err)
	}
	refresh, err := GenerateSecret(32)
	if err != nil {
		return JWTSecrets{}, fmt.Errorf("failed to generate refresh secret: %w", err)
	}
	return JWTSecrets{Access: access, Refresh: refresh}, nil
}
