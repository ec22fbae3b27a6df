package goCred

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// Config holds every tunable of an [Engine]. Obtain a baseline with
// [DefaultConfig] and override fields before passing it to [Builder.WithConfig].
type Config struct {
	Mode     CredentialMode
	Token    TokenConfig
	Session  SessionConfig
	Password PasswordConfig
	Security SecurityConfig
	Audit    AuditConfig
	Metrics  MetricsConfig
}

/*
====================================
CREDENTIAL MODE
====================================
*/

// CredentialMode selects how signin represents a session. It is fixed at
// startup; an Engine never mixes modes.
type CredentialMode int

const (
	// ModeStateless issues signed tokens that verify without any store access.
	ModeStateless CredentialMode = iota
	// ModeOpaque issues random session ids that are looked up in the SessionStore on every request.
	ModeOpaque
)

func (m CredentialMode) String() string {
	switch m {
	case ModeStateless:
		return "stateless"
	case ModeOpaque:
		return "opaque"
	default:
		return fmt.Sprintf("CredentialMode(%d)", int(m))
	}
}

// MarshalText implements encoding.TextMarshaler.
func (m CredentialMode) MarshalText() ([]byte, error) {
	switch m {
	case ModeStateless, ModeOpaque:
		return []byte(m.String()), nil
	default:
		return nil, fmt.Errorf("invalid CredentialMode: %d", int(m))
	}
}

// UnmarshalText implements encoding.TextUnmarshaler. It accepts "stateless"
// or "jwt", and "opaque" or "session".
func (m *CredentialMode) UnmarshalText(text []byte) error {
	v := strings.ToLower(strings.TrimSpace(string(text)))
	switch v {
	case "stateless", "jwt", "token":
		*m = ModeStateless
		return nil
	case "opaque", "session":
		*m = ModeOpaque
		return nil
	default:
		return fmt.Errorf("invalid CredentialMode: %q (valid options: stateless, opaque)", v)
	}
}

/*
====================================
TOKEN CONFIG
====================================
*/

// TokenConfig configures stateless token issuance. Secret is used for
// hs256; PrivateKey and PublicKey for ed25519.
type TokenConfig struct {
	TTL           time.Duration
	SigningMethod string // "hs256" (default) or "ed25519"
	Secret        []byte
	PrivateKey    []byte
	PublicKey     []byte
	Issuer        string
	Audience      string
	Leeway        time.Duration
}

/*
====================================
SESSION CONFIG
====================================
*/

// SessionConfig configures the opaque session backend. A zero TTL keeps
// sessions until logout.
type SessionConfig struct {
	TTL         time.Duration
	RedisPrefix string
}

/*
====================================
PASSWORD CONFIG
====================================
*/

// PasswordConfig selects and tunes the password hasher.
type PasswordConfig struct {
	Algorithm string // "hmac-sha256" (default) or "argon2id"
	SaltBytes int

	// Argon2id parameters; ignored by hmac-sha256.
	Memory      uint32 // in KB
	Time        uint32
	Parallelism uint8
	KeyLength   uint32
}

/*
====================================
SECURITY CONFIG
====================================
*/

// SecurityConfig holds hardening switches.
type SecurityConfig struct {
	// CollapseSigninFailures reports unknown emails as ErrInvalidCredentials
	// so callers cannot enumerate registered users. The distinction is still
	// recorded in logs, audit events and metrics.
	CollapseSigninFailures bool
	// MinSecretBytes is the minimum hs256 secret length accepted by Validate.
	MinSecretBytes int
}

// AuditConfig controls the asynchronous audit dispatcher.
type AuditConfig struct {
	Enabled    bool
	BufferSize int
	DropIfFull bool
}

// MetricsConfig controls in-process counters and the resolve latency histogram.
type MetricsConfig struct {
	Enabled                 bool
	EnableLatencyHistograms bool
}

/*
====================================
DEFAULT CONFIG
====================================
*/

// DefaultConfig returns the baseline configuration: stateless hs256 tokens
// with a 10 minute lifetime, HMAC-SHA256 passwords with 256 byte salts and
// collapsed signin failures. Token.Secret must still be supplied.
func DefaultConfig() Config {
	return Config{
		Mode: ModeStateless,
		Token: TokenConfig{
			TTL:           10 * time.Minute,
			SigningMethod: "hs256",
		},
		Session: SessionConfig{
			TTL:         0,
			RedisPrefix: "gc:sess",
		},
		Password: PasswordConfig{
			Algorithm:   "hmac-sha256",
			SaltBytes:   256,
			Memory:      65536,
			Time:        3,
			Parallelism: 2,
			KeyLength:   32,
		},
		Security: SecurityConfig{
			CollapseSigninFailures: true,
			MinSecretBytes:         32,
		},
		Audit: AuditConfig{
			Enabled:    false,
			BufferSize: 1024,
			DropIfFull: true,
		},
		Metrics: MetricsConfig{
			Enabled:                 true,
			EnableLatencyHistograms: true,
		},
	}
}

func cloneConfig(cfg Config) Config {
	out := cfg
	out.Token.Secret = cloneBytes(cfg.Token.Secret)
	out.Token.PrivateKey = cloneBytes(cfg.Token.PrivateKey)
	out.Token.PublicKey = cloneBytes(cfg.Token.PublicKey)
	return out
}

func cloneBytes(b []byte) []byte {
	if b == nil {
		return nil
	}
	out := make([]byte, len(b))
	copy(out, b)
	return out
}

// Validate reports the first inconsistent setting in c.
func (c *Config) Validate() error {
	switch c.Mode {
	case ModeStateless, ModeOpaque:
	default:
		return errors.New("invalid CredentialMode")
	}

	// Token
	if c.Mode == ModeStateless {
		if c.Token.TTL <= 0 {
			return errors.New("Token TTL must be > 0")
		}
		if c.Token.Leeway < 0 || c.Token.Leeway > 2*time.Minute {
			return errors.New("Token Leeway must be between 0 and 2m")
		}
		switch c.Token.SigningMethod {
		case "hs256":
			if len(c.Token.Secret) == 0 {
				return errors.New("hs256 requires Token Secret")
			}
			if c.Security.MinSecretBytes > 0 && len(c.Token.Secret) < c.Security.MinSecretBytes {
				return fmt.Errorf("Token Secret must be at least %d bytes", c.Security.MinSecretBytes)
			}
		case "ed25519":
			if len(c.Token.PrivateKey) == 0 {
				return errors.New("ed25519 requires Token PrivateKey")
			}
			if len(c.Token.PublicKey) == 0 {
				return errors.New("ed25519 requires Token PublicKey")
			}
		default:
			return errors.New("unsupported Token SigningMethod")
		}
	}

	// Session
	if c.Session.TTL < 0 {
		return errors.New("Session TTL must be >= 0")
	}
	if c.Mode == ModeOpaque && strings.TrimSpace(c.Session.RedisPrefix) == "" {
		return errors.New("Session RedisPrefix must not be empty")
	}

	// Password
	switch c.Password.Algorithm {
	case "hmac-sha256":
	case "argon2id":
		if c.Password.Memory < 8*1024 {
			return errors.New("Password Memory must be >= 8192 KB")
		}
		if c.Password.Time < 1 {
			return errors.New("Password Time must be >= 1")
		}
		if c.Password.Parallelism < 1 {
			return errors.New("Password Parallelism must be >= 1")
		}
		if c.Password.KeyLength < 16 {
			return errors.New("Password KeyLength must be >= 16")
		}
	default:
		return errors.New("unsupported Password Algorithm")
	}
	if c.Password.Algorithm == "hmac-sha256" && c.Password.SaltBytes < 256 {
		return errors.New("Password SaltBytes must be >= 256 for hmac-sha256")
	}
	if c.Password.SaltBytes < 16 {
		return errors.New("Password SaltBytes must be >= 16")
	}

	// Audit
	if c.Audit.Enabled && c.Audit.BufferSize <= 0 {
		return errors.New("Audit BufferSize must be > 0 when enabled")
	}

	return nil
}
