package utils

import (
	"crypto/rand"
	"encoding/hex"
)

// matchIDBytes is the entropy of a match identifier. 24 random bytes
// hex-encode to a 48-character id, enough that collisions are only a
// theoretical concern; the unique key on matches.match_id catches the
// theoretical case as an ordinary duplicate-key conflict.
const matchIDBytes = 24

// NewMatchID returns a fresh opaque match identifier built from
// cryptographically secure random bytes.
func NewMatchID() (string, error) {
	buf := make([]byte, matchIDBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
