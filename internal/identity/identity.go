// Package identity assigns and persists the random per-device user id.
// There are no accounts: the id is the identity. Collisions are guarded
// statistically, not cryptographically — two 13-character base-36 segments
// carry roughly 134 bits of entropy.
package identity

import (
	"crypto/rand"
	"encoding/json"
	"fmt"
	"math/big"
	"os"
	"path/filepath"
)

const base36 = "0123456789abcdefghijklmnopqrstuvwxyz"

type identityFile struct {
	UserID string `json:"user_id"`
}

// Load returns the device user id stored at path, generating and persisting
// a new one on first run.
func Load(path string) (string, error) {
	raw, err := os.ReadFile(path)
	if err == nil {
		var f identityFile
		if jsonErr := json.Unmarshal(raw, &f); jsonErr == nil && f.UserID != "" {
			return f.UserID, nil
		}
		// Unreadable identity means a fresh id; the old one is unrecoverable anyway.
	} else if !os.IsNotExist(err) {
		return "", fmt.Errorf("failed to read identity file: %w", err)
	}

	id, err := NewUserID()
	if err != nil {
		return "", err
	}
	if err := save(path, id); err != nil {
		return "", err
	}
	return id, nil
}

// NewUserID generates a fresh device user id.
func NewUserID() (string, error) {
	a, err := randBase36(13)
	if err != nil {
		return "", err
	}
	b, err := randBase36(13)
	if err != nil {
		return "", err
	}
	return a + b, nil
}

func randBase36(n int) (string, error) {
	out := make([]byte, n)
	max := big.NewInt(int64(len(base36)))
	for i := range out {
		idx, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("failed to generate random id: %w", err)
		}
		out[i] = base36[idx.Int64()]
	}
	return string(out), nil
}

func save(path, id string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create identity directory: %w", err)
	}
	raw, err := json.Marshal(identityFile{UserID: id})
	if err != nil {
		return fmt.Errorf("failed to encode identity: %w", err)
	}
	if err := os.WriteFile(path, raw, 0600); err != nil {
		return fmt.Errorf("failed to write identity file: %w", err)
	}
	return nil
}
