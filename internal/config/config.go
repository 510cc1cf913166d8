package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// MinSecretBytes is the HS256 key floor: one SHA-256 block of entropy.
const MinSecretBytes = 32

const (
	MinBcryptCost     = 10
	MaxBcryptCost     = 31
	DefaultBcryptCost = 12
	DefaultTokenTTL   = 5 * time.Hour
)

var (
	ErrMissingSecret = errors.New("JWT_SECRET is required")
	ErrWeakSecret    = fmt.Errorf("JWT_SECRET must decode to at least %d bytes", MinSecretBytes)
	ErrInvalidConfig = errors.New("invalid configuration")
)

type Config struct {
	ServerPort int
	LogLevel   string

	DBDriver    string
	DatabaseURL string

	JWTSecret []byte
	JWTIssuer string
	TokenTTL  time.Duration

	BcryptCost int

	KafkaBrokers []string

	ESURL      string
	ESUser     string
	ESPassword string
	ESIndex    string

	AllowedOrigins []string
	CookieSecure   bool
}

// fileConfig mirrors the optional YAML file named by CONFIG_FILE.
type fileConfig struct {
	Server struct {
		Port     int    `yaml:"port"`
		LogLevel string `yaml:"log_level"`
	} `yaml:"server"`
	DB struct {
		Driver   string `yaml:"driver"`
		URL      string `yaml:"url"`
		Host     string `yaml:"host"`
		Port     string `yaml:"port"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Name     string `yaml:"name"`
	} `yaml:"db"`
	JWT struct {
		Secret string `yaml:"secret"`
		Issuer string `yaml:"issuer"`
		TTL    string `yaml:"ttl"`
	} `yaml:"jwt"`
	BcryptCost int `yaml:"bcrypt_cost"`
	Kafka      struct {
		Brokers []string `yaml:"brokers"`
	} `yaml:"kafka"`
	ES struct {
		URL      string `yaml:"url"`
		User     string `yaml:"user"`
		Password string `yaml:"password"`
		Index    string `yaml:"index"`
	} `yaml:"elasticsearch"`
	CORS struct {
		AllowedOrigins []string `yaml:"allowed_origins"`
	} `yaml:"cors"`
}

// Load reads .env, then CONFIG_FILE, then the process environment. Later sources win.
func Load() (*Config, error) {
	if err := godotenv.Load(".env"); err != nil {
		log.Printf("Notice: .env file not found: %v. Using system environment variables", err)
	}

	var fc fileConfig
	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if err := readFile(path, &fc); err != nil {
			return nil, err
		}
	}

	return build(fc)
}

func readFile(path string, fc *fileConfig) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open config file: %w", err)
	}
	defer f.Close()

	if err := yaml.NewDecoder(f).Decode(fc); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrInvalidConfig, path, err)
	}
	return nil
}

func build(fc fileConfig) (*Config, error) {
	cfg := &Config{
		ServerPort:     EnvIntDefault("SERVER_PORT", intOr(fc.Server.Port, 8080)),
		LogLevel:       EnvDefault("LOG_LEVEL", fc.Server.LogLevel),
		DBDriver:       strings.ToLower(EnvDefault("DB_DRIVER", strOr(fc.DB.Driver, "postgres"))),
		JWTIssuer:      EnvDefault("JWT_ISSUER", strOr(fc.JWT.Issuer, "security-backend")),
		BcryptCost:     EnvIntDefault("BCRYPT_COST", intOr(fc.BcryptCost, DefaultBcryptCost)),
		KafkaBrokers:   CSV(EnvDefault("KAFKA_BROKERS", strings.Join(fc.Kafka.Brokers, ","))),
		ESURL:          EnvDefault("ES_URL", fc.ES.URL),
		ESUser:         EnvDefault("ES_USER", fc.ES.User),
		ESPassword:     EnvDefault("ES_PASSWORD", fc.ES.Password),
		ESIndex:        EnvDefault("ES_INDEX", strOr(fc.ES.Index, "products")),
		AllowedOrigins: CSV(EnvDefault("CORS_ALLOWED_ORIGINS", strOr(strings.Join(fc.CORS.AllowedOrigins, ","), "*"))),
		CookieSecure:   !strings.EqualFold(EnvDefault("COOKIE_SECURE", "true"), "false"),
	}

	cfg.DatabaseURL = resolveDatabaseURL(fc)

	ttl := EnvDefault("JWT_TTL", fc.JWT.TTL)
	if ttl == "" {
		cfg.TokenTTL = DefaultTokenTTL
	} else {
		d, err := time.ParseDuration(ttl)
		if err != nil || d <= 0 {
			return nil, fmt.Errorf("%w: JWT_TTL %q", ErrInvalidConfig, ttl)
		}
		cfg.TokenTTL = d
	}

	secret, err := DecodeSecret(EnvDefault("JWT_SECRET", fc.JWT.Secret))
	if err != nil {
		return nil, err
	}
	cfg.JWTSecret = secret

	if cfg.BcryptCost < MinBcryptCost || cfg.BcryptCost > MaxBcryptCost {
		return nil, fmt.Errorf("%w: BCRYPT_COST must be within [%d, %d], got %d",
			ErrInvalidConfig, MinBcryptCost, MaxBcryptCost, cfg.BcryptCost)
	}

	switch cfg.DBDriver {
	case "postgres":
		if cfg.DatabaseURL == "" {
			return nil, fmt.Errorf("%w: provide DATABASE_URL or DB_HOST/DB_NAME", ErrInvalidConfig)
		}
	case "sqlite":
		if cfg.DatabaseURL == "" {
			cfg.DatabaseURL = "file:security.db"
		}
	default:
		return nil, fmt.Errorf("%w: unknown DB_DRIVER %q", ErrInvalidConfig, cfg.DBDriver)
	}

	return cfg, nil
}

// DecodeSecret accepts standard or URL-safe base64, padded or not.
func DecodeSecret(raw string) ([]byte, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, ErrMissingSecret
	}

	var key []byte
	var err error
	for _, enc := range []*base64.Encoding{
		base64.StdEncoding, base64.RawStdEncoding, base64.URLEncoding, base64.RawURLEncoding,
	} {
		if key, err = enc.DecodeString(raw); err == nil {
			break
		}
	}
	if err != nil {
		return nil, fmt.Errorf("%w: JWT_SECRET is not valid base64", ErrInvalidConfig)
	}
	if len(key) < MinSecretBytes {
		return nil, ErrWeakSecret
	}
	return key, nil
}

func resolveDatabaseURL(fc fileConfig) string {
	if v := EnvDefault("DATABASE_URL", fc.DB.URL); v != "" {
		return v
	}

	host := EnvDefault("DB_HOST", fc.DB.Host)
	name := EnvDefault("DB_NAME", fc.DB.Name)
	if host == "" || name == "" {
		return ""
	}
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%s/%s?sslmode=disable",
		EnvDefault("DB_USER", fc.DB.User),
		EnvDefault("DB_PASSWORD", fc.DB.Password),
		host,
		EnvDefault("DB_PORT", strOr(fc.DB.Port, "5432")),
		name,
	)
}

func CSV(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func EnvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func EnvIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func strOr(v, def string) string {
	if v != "" {
		return v
	}
	return def
}

func intOr(v, def int) int {
	if v != 0 {
		return v
	}
	return def
}
