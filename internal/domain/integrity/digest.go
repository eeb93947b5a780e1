// Package integrity builds the canonical inspection record and its digest.
package integrity

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
)

// DigestLength is the length of a hex-encoded SHA-256 digest.
const DigestLength = 64

// Digest returns the lowercase hex SHA-256 of the UTF-8 bytes of canonical.
func Digest(canonical string) string {
	sum := sha256.Sum256([]byte(canonical))
	return hex.EncodeToString(sum[:])
}

// Matches reports whether digest is the digest of canonical.
// Anything other than 64 lowercase hex characters never matches.
func Matches(canonical, digest string) bool {
	if !IsDigest(digest) {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(Digest(canonical)), []byte(digest)) == 1
}

// IsDigest reports whether s has the shape of a digest produced by Digest.
func IsDigest(s string) bool {
	if len(s) != DigestLength {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if (c < '0' || c > '9') && (c < 'a' || c > 'f') {
			return false
		}
	}
	return true
}
