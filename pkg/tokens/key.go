package tokens

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
)

// MinKeyBytes is the shortest secret accepted for HS256.
const MinKeyBytes = 32

var ErrWeakKey = errors.New("signing key too short")

// SigningKey is the process-wide HMAC secret. It is immutable after
// construction and safe for concurrent reads.
type SigningKey struct {
	material []byte
}

func (k *SigningKey) bytes() []byte { return k.material }

// KeyHolder derives the SigningKey from the configured secret once and
// hands out the cached key for the lifetime of the process.
type KeyHolder struct {
	key *SigningKey
}

// NewKeyHolder decodes a base64 secret (padded or unpadded) into key bytes.
// An error here means the process cannot run safely and should exit.
func NewKeyHolder(secret string) (*KeyHolder, error) {
	secret = strings.TrimSpace(secret)
	material, err := base64.StdEncoding.DecodeString(secret)
	if err != nil {
		material, err = base64.RawStdEncoding.DecodeString(secret)
		if err != nil {
			return nil, fmt.Errorf("signing secret is not valid base64: %v", err)
		}
	}
	if len(material) < MinKeyBytes {
		return nil, fmt.Errorf("%w: got %d bytes, need at least %d",
			ErrWeakKey, len(material), MinKeyBytes)
	}
	return &KeyHolder{key: &SigningKey{material: material}}, nil
}

func (h *KeyHolder) Key() *SigningKey { return h.key }

// GenerateSecret returns a fresh random 64-byte secret, base64 encoded,
// suitable for NewKeyHolder.
func GenerateSecret() (string, error) {
	randomBytes := make([]byte, 64)
	if _, err := rand.Read(randomBytes); err != nil {
		return "", fmt.Errorf("failed to generate random secret bytes: %v", err)
	}
	return base64.StdEncoding.EncodeToString(randomBytes), nil
}
