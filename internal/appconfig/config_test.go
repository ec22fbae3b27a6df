package appconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/samber/oops"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	goCred "github.com/MrEthical07/goCred"
)

const secret = "0123456789abcdef0123456789abcdef"

func parseEnv(t *testing.T, vars map[string]string) (Config, error) {
	t.Helper()
	return Parse(env.Options{Environment: vars})
}

func TestDefaults(t *testing.T) {
	cfg, err := parseEnv(t, map[string]string{"JWT_SECRET": secret})
	require.NoError(t, err)

	assert.Equal(t, 8000, cfg.Port)
	assert.Equal(t, ":8000", cfg.Addr())
	assert.Equal(t, ":9090", cfg.MetricsAddr)
	assert.Equal(t, goCred.ModeStateless, cfg.Auth.Mode)
	assert.Equal(t, 10*time.Minute, cfg.Auth.TokenTTL)
	assert.Zero(t, cfg.Auth.SessionTTL)
	assert.True(t, cfg.Auth.CollapseSigninFailures)
	assert.Equal(t, "hmac-sha256", cfg.Auth.PasswordAlgorithm)
	assert.Equal(t, StoreMemory, cfg.Store.Backend)
	assert.Equal(t, SessionsFromStore, cfg.Store.SessionBackend)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "gc:sess", cfg.Redis.SessionPrefix)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestOpaqueModeNeedsNoSecret(t *testing.T) {
	cfg, err := parseEnv(t, map[string]string{
		"AUTH_MODE":       "session",
		"SESSION_TTL":     "24h",
		"SESSION_BACKEND": "Redis",
		"REDIS_ADDR":      "cache:6379",
		"REDIS_DB":        "2",
	})
	require.NoError(t, err)

	assert.Equal(t, goCred.ModeOpaque, cfg.Auth.Mode)
	assert.Equal(t, SessionsFromRedis, cfg.Store.SessionBackend)
	assert.Equal(t, 2, cfg.Redis.DB)

	ec := cfg.EngineConfig()
	assert.Equal(t, goCred.ModeOpaque, ec.Mode)
	assert.Equal(t, 24*time.Hour, ec.Session.TTL)
	assert.Empty(t, ec.Token.Secret)
}

func TestEngineConfigMapping(t *testing.T) {
	cfg, err := parseEnv(t, map[string]string{
		"JWT_SECRET":                    secret,
		"JWT_ISSUER":                    "gocred",
		"TOKEN_TTL":                     "5m",
		"AUTH_COLLAPSE_SIGNIN_FAILURES": "false",
		"PASSWORD_ALGORITHM":            "ARGON2ID",
		"AUDIT_LOG":                     "true",
	})
	require.NoError(t, err)

	ec := cfg.EngineConfig()
	assert.Equal(t, []byte(secret), ec.Token.Secret)
	assert.Equal(t, "gocred", ec.Token.Issuer)
	assert.Equal(t, 5*time.Minute, ec.Token.TTL)
	assert.False(t, ec.Security.CollapseSigninFailures)
	assert.Equal(t, "argon2id", ec.Password.Algorithm)
	assert.True(t, ec.Audit.Enabled)
	require.NoError(t, ec.Validate())
}

func TestValidationErrors(t *testing.T) {
	cases := []struct {
		name string
		vars map[string]string
		want string
	}{
		{"stateless without secret", map[string]string{}, "Token Secret"},
		{"short secret", map[string]string{"JWT_SECRET": "short"}, "at least 32 bytes"},
		{"bad port", map[string]string{"JWT_SECRET": secret, "PORT": "70000"}, "PORT"},
		{"unknown store", map[string]string{"JWT_SECRET": secret, "STORE_BACKEND": "mongo"}, "STORE_BACKEND"},
		{"postgres without url", map[string]string{"JWT_SECRET": secret, "STORE_BACKEND": "postgres"}, "DATABASE_URL"},
		{"unknown session backend", map[string]string{"JWT_SECRET": secret, "SESSION_BACKEND": "memcached"}, "SESSION_BACKEND"},
		{"unknown log format", map[string]string{"JWT_SECRET": secret, "LOG_FORMAT": "xml"}, "LOG_FORMAT"},
		{"unknown password algorithm", map[string]string{"JWT_SECRET": secret, "PASSWORD_ALGORITHM": "md5"}, "Password Algorithm"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := parseEnv(t, tc.vars)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tc.want)

			oopsErr, ok := oops.AsOops(err)
			require.True(t, ok)
			assert.Equal(t, "CONFIG_INVALID", oopsErr.Code())
		})
	}
}

func TestParseRejectsBadMode(t *testing.T) {
	_, err := parseEnv(t, map[string]string{"AUTH_MODE": "cookie"})
	require.Error(t, err)

	oopsErr, ok := oops.AsOops(err)
	require.True(t, ok)
	assert.Equal(t, "CONFIG_PARSE_FAILED", oopsErr.Code())
}

func TestLoadReadsDotEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "test.env")
	require.NoError(t, os.WriteFile(path, []byte("PORT=8123\nAUTH_MODE=opaque\n"), 0o600))

	// godotenv never overrides variables that are already set.
	t.Setenv("PORT", "")
	require.NoError(t, os.Unsetenv("PORT"))
	t.Setenv("AUTH_MODE", "")
	require.NoError(t, os.Unsetenv("AUTH_MODE"))
	t.Setenv("LOG_LEVEL", "debug")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 8123, cfg.Port)
	assert.Equal(t, goCred.ModeOpaque, cfg.Auth.Mode)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestLoadMissingDotEnvIsIgnored(t *testing.T) {
	t.Setenv("JWT_SECRET", secret)

	_, err := Load(filepath.Join(t.TempDir(), "absent.env"))
	require.NoError(t, err)
}

func TestStringMasksSecrets(t *testing.T) {
	cfg, err := parseEnv(t, map[string]string{"JWT_SECRET": secret, "REDIS_PASSWORD": "hunter2"})
	require.NoError(t, err)

	s := cfg.String()
	assert.NotContains(t, s, secret)
	assert.NotContains(t, s, "hunter2")
	assert.Contains(t, s, "jwt_secret=***")
}

func TestDatabaseURL(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "absent.env")

	t.Setenv("DATABASE_URL", "")
	_, err := DatabaseURL(missing)
	require.Error(t, err)

	t.Setenv("DATABASE_URL", "postgres://u:p@db:5432/gocred")
	url, err := DatabaseURL(missing)
	require.NoError(t, err)
	assert.Equal(t, "postgres://u:p@db:5432/gocred", url)
}
