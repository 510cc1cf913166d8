package config

import (
	"encoding/base64"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var strongSecret = base64.StdEncoding.EncodeToString([]byte(strings.Repeat("k", MinSecretBytes)))

func setBaseEnv(t *testing.T) {
	t.Helper()
	t.Setenv("CONFIG_FILE", "")
	t.Setenv("DB_DRIVER", "")
	t.Setenv("DATABASE_URL", "postgres://u:p@localhost:5432/app?sslmode=disable")
	t.Setenv("JWT_SECRET", strongSecret)
	t.Setenv("JWT_TTL", "")
	t.Setenv("JWT_ISSUER", "")
	t.Setenv("BCRYPT_COST", "")
	t.Setenv("KAFKA_BROKERS", "")
	t.Setenv("SERVER_PORT", "")
	t.Setenv("ES_INDEX", "")
	t.Setenv("CORS_ALLOWED_ORIGINS", "")
	t.Setenv("DB_PORT", "")
	t.Setenv("DB_USER", "")
	t.Setenv("DB_PASSWORD", "")
	t.Setenv("COOKIE_SECURE", "")
}

func TestLoad_Defaults(t *testing.T) {
	setBaseEnv(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.ServerPort)
	assert.True(t, cfg.CookieSecure)
	assert.Equal(t, "postgres", cfg.DBDriver)
	assert.Equal(t, DefaultTokenTTL, cfg.TokenTTL)
	assert.Equal(t, DefaultBcryptCost, cfg.BcryptCost)
	assert.Equal(t, "security-backend", cfg.JWTIssuer)
	assert.Equal(t, "products", cfg.ESIndex)
	assert.Equal(t, []string{"*"}, cfg.AllowedOrigins)
	assert.Len(t, cfg.JWTSecret, MinSecretBytes)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoad_EnvOverrides(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("JWT_TTL", "90m")
	t.Setenv("BCRYPT_COST", "11")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SERVER_PORT", "9000")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 90*time.Minute, cfg.TokenTTL)
	assert.Equal(t, 11, cfg.BcryptCost)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 9000, cfg.ServerPort)
}

func TestLoad_YAMLFileWithEnvPrecedence(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DATABASE_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("DB_HOST", "")
	t.Setenv("DB_NAME", "")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
server:
  port: 7000
db:
  host: db.local
  name: shop
  user: app
  password: pw
jwt:
  secret: ` + strongSecret + `
  ttl: 2h
kafka:
  brokers: [kafka:9092]
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("SERVER_PORT", "7100")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 7100, cfg.ServerPort)
	assert.Equal(t, "postgres://app:pw@db.local:5432/shop?sslmode=disable", cfg.DatabaseURL)
	assert.Equal(t, 2*time.Hour, cfg.TokenTTL)
	assert.Equal(t, []string{"kafka:9092"}, cfg.KafkaBrokers)
}

func TestLoad_Rejects(t *testing.T) {
	tests := []struct {
		name    string
		env     map[string]string
		wantErr error
	}{
		{name: "missing secret", env: map[string]string{"JWT_SECRET": ""}, wantErr: ErrMissingSecret},
		{
			name:    "short secret",
			env:     map[string]string{"JWT_SECRET": base64.StdEncoding.EncodeToString([]byte("too-short"))},
			wantErr: ErrWeakSecret,
		},
		{name: "not base64", env: map[string]string{"JWT_SECRET": "!!!not base64!!!"}, wantErr: ErrInvalidConfig},
		{name: "low bcrypt cost", env: map[string]string{"BCRYPT_COST": "4"}, wantErr: ErrInvalidConfig},
		{name: "bad ttl", env: map[string]string{"JWT_TTL": "forever"}, wantErr: ErrInvalidConfig},
		{name: "negative ttl", env: map[string]string{"JWT_TTL": "-1h"}, wantErr: ErrInvalidConfig},
		{name: "unknown driver", env: map[string]string{"DB_DRIVER": "oracle"}, wantErr: ErrInvalidConfig},
		{
			name:    "postgres without dsn",
			env:     map[string]string{"DATABASE_URL": "", "DB_HOST": "", "DB_NAME": ""},
			wantErr: ErrInvalidConfig,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			setBaseEnv(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			cfg, err := Load()
			require.Error(t, err)
			assert.Nil(t, cfg)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoad_SQLiteDefaultsDSN(t *testing.T) {
	setBaseEnv(t)
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DATABASE_URL", "")
	t.Setenv("DB_HOST", "")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "sqlite", cfg.DBDriver)
	assert.Equal(t, "file:security.db", cfg.DatabaseURL)
}

func TestDecodeSecret_Alphabets(t *testing.T) {
	t.Parallel()

	raw := []byte(strings.Repeat("\xfb\xff", MinSecretBytes))
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		key, err := DecodeSecret(enc.EncodeToString(raw))
		require.NoError(t, err)
		assert.Equal(t, raw, key)
	}
}

func TestCSV(t *testing.T) {
	t.Parallel()

	assert.Nil(t, CSV(""))
	assert.Equal(t, []string{"a", "b"}, CSV(" a ,, b "))
}
