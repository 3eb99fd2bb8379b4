package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
)

// InputHash fingerprints the inputs of a computation. Callers pass values
// whose JSON encoding is deterministic (structs and sorted slices).
func InputHash(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		panic("domain: unhashable input: " + err.Error())
	}
	sum := sha256.Sum256(b)
	return hex.EncodeToString(sum[:])
}
