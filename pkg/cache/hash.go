package cache

import (
	"crypto/sha256"
	"encoding/hex"
)

// Hash computes a SHA-256 hash of the input data.
// Returns the full 64-character hex string.
//
// This is the hash behind every cache key in boardsnap: render-cache entries
// hash the target identity tuple, layer-listing entries hash the board file
// content. A stable hash keeps keys valid across runs and across platforms.
func Hash(data []byte) string {
	hash := sha256.Sum256(data)
	return hex.EncodeToString(hash[:])
}
