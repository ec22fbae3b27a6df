package password

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"errors"
	"fmt"
	"io"

	"golang.org/x/crypto/argon2"
)

const (
	minMemoryKB    uint32 = 8 * 1024
	minTimeCost    uint32 = 1
	minParallelism uint8  = 1
	minSaltLength  uint32 = 16
	minKeyLength   uint32 = 16
)

// Argon2Config holds the Argon2id cost parameters. Memory is in KB.
type Argon2Config struct {
	Memory      uint32
	Time        uint32
	Parallelism uint8
	SaltLength  uint32
	KeyLength   uint32
}

// Argon2 hashes passwords with Argon2id. Parameters are fixed for the life of
// the hasher and are not encoded in the digest, so changing them invalidates
// every stored digest.
type Argon2 struct {
	config Argon2Config
}

func NewArgon2(cfg Argon2Config) (*Argon2, error) {
	if err := validateArgon2Config(cfg); err != nil {
		return nil, err
	}

	return &Argon2{config: cfg}, nil
}

func (a *Argon2) Hash(plaintext string) (string, string, error) {
	// raw bytes, no Unicode normalization
	salt := make([]byte, a.config.SaltLength)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return "", "", err
	}

	key := a.derive(plaintext, salt)
	return hex.EncodeToString(key), hex.EncodeToString(salt), nil
}

func (a *Argon2) Verify(plaintext, salt, expectedDigest string) bool {
	rawSalt, err := hex.DecodeString(salt)
	if err != nil || len(rawSalt) < int(minSaltLength) {
		return false
	}
	expected, err := hex.DecodeString(expectedDigest)
	if err != nil || len(expected) != int(a.config.KeyLength) {
		return false
	}

	computed := a.derive(plaintext, rawSalt)
	return subtle.ConstantTimeCompare(computed, expected) == 1
}

func (a *Argon2) derive(plaintext string, salt []byte) []byte {
	return argon2.IDKey(
		[]byte(plaintext),
		salt,
		a.config.Time,
		a.config.Memory,
		a.config.Parallelism,
		a.config.KeyLength,
	)
}

func validateArgon2Config(cfg Argon2Config) error {
	if cfg.Memory < minMemoryKB {
		return errors.New("password memory must be >= 8192 KB")
	}
	if cfg.Time < minTimeCost {
		return errors.New("password time must be >= 1")
	}
	if cfg.Parallelism < minParallelism {
		return errors.New("password parallelism must be >= 1")
	}
	if cfg.SaltLength < minSaltLength {
		return fmt.Errorf("%w: argon2id needs %d bytes", errSaltTooShort, minSaltLength)
	}
	if cfg.KeyLength < minKeyLength {
		return errors.New("password key length must be >= 16")
	}

	return nil
}
