package password

import (
	"errors"
	"fmt"
)

// Algorithm names accepted by [New].
const (
	AlgorithmHMAC   = "hmac-sha256"
	AlgorithmArgon2 = "argon2id"
)

// Hasher derives a digest from a plaintext password and a fresh random salt,
// and verifies a plaintext against a stored salt and digest.
//
// Digest and salt are hex strings. Verify never returns an error: a wrong
// password and a malformed stored value both report false.
type Hasher interface {
	Hash(plaintext string) (digest string, salt string, err error)
	Verify(plaintext, salt, expectedDigest string) bool
}

// Config selects the algorithm and its parameters.
type Config struct {
	Algorithm string
	SaltBytes int

	// Argon2id only.
	Memory      uint32
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

// New returns the Hasher for cfg.Algorithm. An empty algorithm selects
// HMAC-SHA256.
func New(cfg Config) (Hasher, error) {
	switch cfg.Algorithm {
	case "", AlgorithmHMAC:
		return NewHMAC(cfg.SaltBytes)
	case AlgorithmArgon2:
		return NewArgon2(Argon2Config{
			Memory:      cfg.Memory,
			Time:        cfg.Time,
			Parallelism: cfg.Parallelism,
			SaltLength:  uint32(cfg.SaltBytes),
			KeyLength:   cfg.KeyLength,
		})
	default:
		return nil, fmt.Errorf("unsupported password algorithm %q", cfg.Algorithm)
	}
}

var errSaltTooShort = errors.New("password salt length is below the minimum")
