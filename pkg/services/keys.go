package services

import "crypto/sha256"

// deriveKeys stretches a configured secret into the 32-byte hash and
// block keys securecookie expects.
func deriveKeys(secret []byte) (hashKey, blockKey []byte) {
	h := sha256.Sum256(append([]byte("hash:"), secret...))
	b := sha256.Sum256(append([]byte("block:"), secret...))
	return h[:], b[:]
}
