package domain

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
)

const tokenBytes = 32

// AuthToken is the opaque bearer credential; one per user.
type AuthToken struct {
	Key       string
	UserID    uuid.UUID
	CreatedAt time.Time
}

// NewTokenKey returns 64 hex characters of CSPRNG output.
func NewTokenKey() (string, error) {
	b := make([]byte, tokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token key: %w", err)
	}
	return hex.EncodeToString(b), nil
}
