package app

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/yungbote/coursehub-backend/internal/data/db"
	"github.com/yungbote/coursehub-backend/internal/observability"
	"github.com/yungbote/coursehub-backend/internal/platform/envutil"
	"github.com/yungbote/coursehub-backend/internal/platform/gcp"
	"github.com/yungbote/coursehub-backend/internal/realtime/bus"
)

const defaultJWTSecret = "defaultsecret"

type Config struct {
	Port            string        `yaml:"port"`
	LogMode         string        `yaml:"log_mode"`
	JWTSecretKey    string        `yaml:"jwt_secret_key"`
	AccessTokenTTL  time.Duration `yaml:"access_token_ttl"`
	RefreshTokenTTL time.Duration `yaml:"refresh_token_ttl"`
	CORSOrigins     []string      `yaml:"cors_origins"`
	MaxUploadBytes  int64         `yaml:"max_upload_bytes"`

	Postgres db.PostgresConfig        `yaml:"postgres"`
	Redis    bus.RedisConfig          `yaml:"redis"`
	Storage  gcp.StorageConfig        `yaml:"object_storage"`
	Otel     observability.OtelConfig `yaml:"otel"`
}

func defaultConfig() Config {
	return Config{
		Port:            "8080",
		LogMode:         "development",
		JWTSecretKey:    defaultJWTSecret,
		AccessTokenTTL:  time.Hour,
		RefreshTokenTTL: 24 * time.Hour,
		MaxUploadBytes:  50 << 20,
		Postgres: db.PostgresConfig{
			Host:    "localhost",
			Port:    "5432",
			User:    "postgres",
			Name:    "coursehub",
			SSLMode: "disable",
		},
		Redis: bus.RedisConfig{Channel: "coursehub:realtime"},
		Otel: observability.OtelConfig{
			ServiceName: "coursehub",
			SampleRatio: 0.1,
		},
	}
}

// loadDotEnv reads .env (or ENV_FILE) into the process environment without overriding set variables.
func loadDotEnv() error {
	path := envutil.String("ENV_FILE", ".env")
	if err := godotenv.Load(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

// LoadConfig layers defaults, the optional CONFIG_FILE yaml, then environment variables.
func LoadConfig() (Config, error) {
	cfg := defaultConfig()
	if path := envutil.String("CONFIG_FILE", ""); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("read config file: %w", err)
		}
		if err := yaml.Unmarshal(raw, &cfg); err != nil {
			return Config{}, fmt.Errorf("parse config file %s: %w", path, err)
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.JWTSecretKey = envutil.String("JWT_SECRET_KEY", cfg.JWTSecretKey)
	cfg.AccessTokenTTL = envutil.Duration("ACCESS_TOKEN_TTL", cfg.AccessTokenTTL)
	cfg.RefreshTokenTTL = envutil.Duration("REFRESH_TOKEN_TTL", cfg.RefreshTokenTTL)
	cfg.CORSOrigins = envutil.List("CORS_ORIGINS", cfg.CORSOrigins)
	cfg.MaxUploadBytes = int64(envutil.Int("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))

	pg := &cfg.Postgres
	pg.Host = envutil.String("POSTGRES_HOST", pg.Host)
	pg.Port = envutil.String("POSTGRES_PORT", pg.Port)
	pg.User = envutil.String("POSTGRES_USER", pg.User)
	pg.Password = envutil.String("POSTGRES_PASSWORD", pg.Password)
	pg.Name = envutil.String("POSTGRES_NAME", pg.Name)
	pg.SSLMode = envutil.String("POSTGRES_SSLMODE", pg.SSLMode)

	rd := &cfg.Redis
	rd.Addr = envutil.String("REDIS_ADDR", rd.Addr)
	rd.Password = envutil.String("REDIS_PASSWORD", rd.Password)
	rd.DB = envutil.Int("REDIS_DB", rd.DB)
	rd.Channel = envutil.String("REDIS_CHANNEL", rd.Channel)

	st := &cfg.Storage
	st.Mode = gcp.StorageMode(strings.ToLower(envutil.String("OBJECT_STORAGE_MODE", string(st.Mode))))
	st.EmulatorHost = strings.TrimRight(envutil.String("STORAGE_EMULATOR_HOST", st.EmulatorHost), "/")
	st.Bucket = envutil.String("OBJECT_STORAGE_BUCKET", envutil.String("GCS_BUCKET_NAME", st.Bucket))
	st.PublicBaseURL = strings.TrimRight(envutil.String("OBJECT_STORAGE_PUBLIC_BASE_URL", st.PublicBaseURL), "/")
	st.Credentials = envutil.String("OBJECT_STORAGE_CREDENTIALS", st.Credentials)

	ot := &cfg.Otel
	ot.Enabled = envutil.Bool("OTEL_ENABLED", ot.Enabled)
	ot.ServiceName = envutil.String("OTEL_SERVICE_NAME", ot.ServiceName)
	ot.Environment = envutil.String("OTEL_ENVIRONMENT", ot.Environment)
	ot.Version = envutil.String("OTEL_SERVICE_VERSION", ot.Version)
	ot.Endpoint = envutil.String("OTEL_EXPORTER_OTLP_ENDPOINT", ot.Endpoint)
	ot.Insecure = envutil.Bool("OTEL_EXPORTER_OTLP_INSECURE", ot.Insecure)
	ot.Headers = envutil.String("OTEL_EXPORTER_OTLP_HEADERS", ot.Headers)
	if raw := envutil.String("OTEL_SAMPLER_RATIO", ""); raw != "" {
		ot.SampleRatio = observability.ParseSampleRatio(raw)
	}
}

func (c Config) validate() error {
	if strings.TrimSpace(c.JWTSecretKey) == "" {
		return fmt.Errorf("JWT_SECRET_KEY must not be empty")
	}
	if c.AccessTokenTTL <= 0 || c.RefreshTokenTTL <= 0 {
		return fmt.Errorf("token TTLs must be positive")
	}
	if c.RefreshTokenTTL < c.AccessTokenTTL {
		return fmt.Errorf("REFRESH_TOKEN_TTL must not be shorter than ACCESS_TOKEN_TTL")
	}
	if c.Port == "" {
		return fmt.Errorf("PORT must not be empty")
	}
	return nil
}

// Addr is the listen address for the API server.
func (c Config) Addr() string {
	if strings.Contains(c.Port, ":") {
		return c.Port
	}
	return ":" + c.Port
}

func (c Config) StorageEnabled() bool {
	return strings.TrimSpace(c.Storage.Bucket) != ""
}

func (c Config) UsingDefaultSecret() bool {
	return c.JWTSecretKey == defaultJWTSecret
}
