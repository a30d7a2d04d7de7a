package registry

import (
	"crypto/rand"
	"encoding/hex"
)

// KeyPrefix marks company API keys so they are recognisable in logs and
// config files.
const KeyPrefix = "COMP_"

const keyBytes = 16

// newAPIKey returns KeyPrefix followed by 128 random bits in hex.
func newAPIKey() (string, error) {
	b := make([]byte, keyBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return KeyPrefix + hex.EncodeToString(b), nil
}
