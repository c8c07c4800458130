package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// GenerateKey creates a cache key with prefix and ID.
func GenerateKey(prefix string, id string) string {
	return fmt.Sprintf("%s:%s", prefix, id)
}

// HashKey addresses a call by content: the function identity and the canonical JSON
// of its parameters. encoding/json sorts map keys, so equal params hash equally.
func HashKey(fn string, params interface{}) (string, error) {
	body, err := json.Marshal(params)
	if err != nil {
		return "", fmt.Errorf("hash key params: %w", err)
	}
	hasher := sha256.New()
	hasher.Write([]byte(fn))
	hasher.Write([]byte{0})
	hasher.Write(body)
	return hex.EncodeToString(hasher.Sum(nil)), nil
}
