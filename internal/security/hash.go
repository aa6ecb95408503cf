package security

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
)

// Hash represents a SHA-256 hash (32 bytes)
type Hash [32]byte

// CalculateDataHash computes the SHA-256 hash of byte data
func CalculateDataHash(data []byte) *Hash {
	hashArray := sha256.Sum256(data)
	hash := Hash(hashArray)
	return &hash
}

// String returns the hash as a hex string
func (h *Hash) String() string {
	return hex.EncodeToString(h[:])
}

// Equal compares two hashes using constant-time comparison
func (h *Hash) Equal(other *Hash) bool {
	if other == nil {
		return false
	}
	return subtle.ConstantTimeCompare(h[:], other[:]) == 1
}

// FromHexString creates a Hash from a hex string
func FromHexString(s string) (*Hash, error) {
	bytes, err := hex.DecodeString(s)
	if err != nil {
		return nil, fmt.Errorf("invalid hex string: %w", err)
	}

	if len(bytes) != 32 {
		return nil, fmt.Errorf("invalid hash length: expected 32 bytes, got %d", len(bytes))
	}

	var hash Hash
	copy(hash[:], bytes)
	return &hash, nil
}

// Verify checks if the given data matches the hash
func (h *Hash) Verify(data []byte) bool {
	return h.Equal(CalculateDataHash(data))
}
