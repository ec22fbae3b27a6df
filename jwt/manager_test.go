package jwt

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("0123456789abcdef0123456789abcdef")

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func newHSManager(t *testing.T, clock *fakeClock) *Manager {
	t.Helper()

	cfg := Config{
		TTL:           10 * time.Minute,
		SigningMethod: MethodHS256,
		PrivateKey:    testSecret,
	}
	if clock != nil {
		cfg.Now = clock.Now
	}
	m, err := NewManager(cfg)
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}
	return m
}

func TestIssueAndParseRoundTrip(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newHSManager(t, clock)

	token, expiresAt, err := m.Issue(Subject{ID: "u1", Email: "a@x.io", Name: "A"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if want := clock.now.Add(10 * time.Minute); !expiresAt.Equal(want) {
		t.Fatalf("expiresAt = %v, want %v", expiresAt, want)
	}
	if strings.Count(token, ".") != 2 {
		t.Fatalf("expected compact JWS, got %q", token)
	}

	claims, err := m.Parse(token)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if claims.ID != "u1" || claims.Email != "a@x.io" || claims.Name != "A" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
	if !claims.IssuedAt.Time.Equal(clock.now) {
		t.Fatalf("iat = %v, want %v", claims.IssuedAt.Time, clock.now)
	}
}

func TestClaimNamesOnTheWire(t *testing.T) {
	m := newHSManager(t, nil)

	token, _, err := m.Issue(Subject{ID: "u1", Email: "a@x.io", Name: "A"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	payload, err := base64.RawURLEncoding.DecodeString(strings.Split(token, ".")[1])
	if err != nil {
		t.Fatalf("decode payload: %v", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(payload, &raw); err != nil {
		t.Fatalf("unmarshal payload: %v", err)
	}
	for _, key := range []string{"id", "email", "name", "iat", "exp"} {
		if _, ok := raw[key]; !ok {
			t.Fatalf("expected claim %q in payload %s", key, payload)
		}
	}
}

func TestParseRejectsExpiredToken(t *testing.T) {
	clock := &fakeClock{now: time.Unix(1_700_000_000, 0)}
	m := newHSManager(t, clock)

	token, _, err := m.Issue(Subject{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	clock.now = clock.now.Add(10*time.Minute + time.Second)
	if _, err := m.Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired, got %v", err)
	}

	// exp == now is already expired
	clock.now = time.Unix(1_700_000_000, 0).Add(10 * time.Minute)
	if _, err := m.Parse(token); !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at exp boundary, got %v", err)
	}
}

func TestParseRejectsTamperedSignature(t *testing.T) {
	m := newHSManager(t, nil)

	token, _, err := m.Issue(Subject{ID: "u1", Email: "a@x.io", Name: "A"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	sig := []byte(parts[2])
	// flip a character in the middle so base64 padding bits are unaffected
	i := len(sig) / 2
	if sig[i] == 'A' {
		sig[i] = 'B'
	} else {
		sig[i] = 'A'
	}
	tampered := parts[0] + "." + parts[1] + "." + string(sig)

	if _, err := m.Parse(tampered); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsTamperedPayload(t *testing.T) {
	m := newHSManager(t, nil)

	token, _, err := m.Issue(Subject{ID: "u1", Email: "a@x.io", Name: "A"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}

	parts := strings.Split(token, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"id":"admin","email":"a@x.io","name":"A","iat":1,"exp":9999999999}`))
	if _, err := m.Parse(parts[0] + "." + forged + "." + parts[2]); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsWrongSecret(t *testing.T) {
	m := newHSManager(t, nil)
	other, err := NewManager(Config{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: []byte("another-secret-another-secret-xx")})
	if err != nil {
		t.Fatalf("new manager: %v", err)
	}

	token, _, err := other.Issue(Subject{ID: "u1"})
	if err != nil {
		t.Fatalf("issue: %v", err)
	}
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected ErrInvalid, got %v", err)
	}
}

func TestParseRejectsNoneAlgorithm(t *testing.T) {
	m := newHSManager(t, nil)

	claims := Claims{ID: "u1", RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		IssuedAt:  gjwt.NewNumericDate(time.Now()),
	}}
	tok := gjwt.NewWithClaims(gjwt.SigningMethodNone, claims)
	token, err := tok.SignedString(gjwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}

	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected none algorithm to be rejected, got %v", err)
	}
}

func TestParseRequiresExpAndIat(t *testing.T) {
	m := newHSManager(t, nil)

	noExp := Claims{ID: "u1", RegisteredClaims: gjwt.RegisteredClaims{IssuedAt: gjwt.NewNumericDate(time.Now())}}
	token, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, noExp).SignedString(testSecret)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected missing exp to fail, got %v", err)
	}

	noIat := Claims{ID: "u1", RegisteredClaims: gjwt.RegisteredClaims{ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute))}}
	token, _ = gjwt.NewWithClaims(gjwt.SigningMethodHS256, noIat).SignedString(testSecret)
	if _, err := m.Parse(token); !errors.Is(err, ErrInvalid) {
		t.Fatalf("expected missing iat to fail, got %v", err)
	}
}

func TestParseRejectsFutureIssuedAt(t *testing.T) {
	m := newHSManager(t, nil)

	claims := Claims{ID: "u1", RegisteredClaims: gjwt.RegisteredClaims{
		ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Hour)),
		IssuedAt:  gjwt.NewNumericDate(time.Now().Add(30 * time.Minute)),
	}}
	token, _ := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims).SignedString(testSecret)
	if _, err := m.Parse(token); err == nil {
		t.Fatal("expected future iat to fail")
	}
}

func TestNewManagerValidation(t *testing.T) {
	cases := []Config{
		{TTL: 0, SigningMethod: MethodHS256, PrivateKey: testSecret},
		{TTL: time.Minute, SigningMethod: MethodHS256},
		{TTL: time.Minute, SigningMethod: MethodHS256, PrivateKey: testSecret, Leeway: time.Hour},
		{TTL: time.Minute, SigningMethod: "rs256", PrivateKey: testSecret},
		{TTL: time.Minute, SigningMethod: MethodEd25519},
	}
	for i, cfg := range cases {
		if _, err := NewManager(cfg); err == nil {
			t.Fatalf("case %d: expected error", i)
		}
	}
}
