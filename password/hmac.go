package password

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"io"
)

const (
	// DefaultSaltBytes is the number of random bytes in an HMAC salt before
	// hex encoding.
	DefaultSaltBytes = 256
	minHMACSaltBytes = 256
)

// HMAC hashes passwords as hex(HMAC-SHA256(key=saltHex, msg=password)).
//
// The key is the bytes of the hex-encoded salt string, not the decoded
// random bytes. Stored digests depend on this.
type HMAC struct {
	saltBytes int
}

// NewHMAC returns an HMAC hasher. A zero saltBytes selects [DefaultSaltBytes].
func NewHMAC(saltBytes int) (*HMAC, error) {
	if saltBytes == 0 {
		saltBytes = DefaultSaltBytes
	}
	if saltBytes < minHMACSaltBytes {
		return nil, fmt.Errorf("%w: hmac-sha256 needs %d bytes, got %d", errSaltTooShort, minHMACSaltBytes, saltBytes)
	}
	return &HMAC{saltBytes: saltBytes}, nil
}

// Hash draws a fresh random salt and returns the hex digest and the hex salt.
func (h *HMAC) Hash(plaintext string) (string, string, error) {
	raw := make([]byte, h.saltBytes)
	if _, err := io.ReadFull(rand.Reader, raw); err != nil {
		return "", "", err
	}
	salt := hex.EncodeToString(raw)
	return hex.EncodeToString(hmacDigest(plaintext, salt)), salt, nil
}

// Verify reports whether plaintext hashes to expectedDigest under salt. A
// digest that is not 32 bytes of hex never matches.
func (h *HMAC) Verify(plaintext, salt, expectedDigest string) bool {
	expected, err := hex.DecodeString(expectedDigest)
	if err != nil || len(expected) != sha256.Size {
		return false
	}
	return subtle.ConstantTimeCompare(hmacDigest(plaintext, salt), expected) == 1
}

// hmacDigest keys HMAC-SHA256 with the bytes of the hex salt string.
func hmacDigest(plaintext, salt string) []byte {
	mac := hmac.New(sha256.New, []byte(salt))
	mac.Write([]byte(plaintext))
	return mac.Sum(nil)
}
