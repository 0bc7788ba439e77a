package idhash

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// ComputeInputHash computes a deterministic fingerprint of a parsed file.
// Formula: SHA256(row_0 | row_1 | ...), cells joined by the unit separator.
// Returns hex-encoded hash (64 characters).
func ComputeInputHash(rows [][]string) string {
	h := sha256.New()
	for _, row := range rows {
		h.Write([]byte(strings.Join(row, "\x1f")))
		h.Write([]byte{'\x1e'})
	}
	return hex.EncodeToString(h.Sum(nil))
}
