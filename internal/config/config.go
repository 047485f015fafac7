package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	StorageDriverMinIO = "minio"
	StorageDriverS3    = "s3"
)

type Config struct {
	ServiceName string `mapstructure:"SERVICE_NAME"`
	AppEnv      string `mapstructure:"APP_ENV"`

	HTTPPort        string        `mapstructure:"HTTP_PORT"`
	GRPCPort        string        `mapstructure:"GRPC_PORT"`
	ReadTimeout     time.Duration `mapstructure:"READ_TIMEOUT"`
	WriteTimeout    time.Duration `mapstructure:"WRITE_TIMEOUT"`
	ShutdownTimeout time.Duration `mapstructure:"SHUTDOWN_TIMEOUT"`

	MongoURI      string `mapstructure:"MONGO_URI"`
	MongoDatabase string `mapstructure:"MONGO_DATABASE"`

	RedisAddress  string        `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int           `mapstructure:"REDIS_DB"`
	CacheTTL      time.Duration `mapstructure:"CACHE_TTL"`

	NATSURL string `mapstructure:"NATS_URL"` // empty disables event publishing

	StorageDriver    string `mapstructure:"STORAGE_DRIVER"`
	StoragePublicURL string `mapstructure:"STORAGE_PUBLIC_URL"`
	MinIOEndpoint    string `mapstructure:"MINIO_ENDPOINT"`
	MinIOAccessKey   string `mapstructure:"MINIO_ACCESS_KEY"`
	MinIOSecretKey   string `mapstructure:"MINIO_SECRET_KEY"`
	MinIOBucket      string `mapstructure:"MINIO_BUCKET"`
	MinIOUseSSL      bool   `mapstructure:"MINIO_USE_SSL"`
	S3Region         string `mapstructure:"S3_REGION"`
	S3BaseEndpoint   string `mapstructure:"S3_BASE_ENDPOINT"`
	S3AccessKey      string `mapstructure:"S3_ACCESS_KEY"`
	S3SecretKey      string `mapstructure:"S3_SECRET_KEY"`
	S3Bucket         string `mapstructure:"S3_BUCKET"`

	JWTSecret          string        `mapstructure:"JWT_SECRET"`
	JWTTTL             time.Duration `mapstructure:"JWT_TTL"`
	AllowedEmailDomain string        `mapstructure:"ALLOWED_EMAIL_DOMAIN"`
	AuthRateLimit      int           `mapstructure:"AUTH_RATE_LIMIT"` // requests per minute per IP

	MaxUploadFiles  int   `mapstructure:"MAX_UPLOAD_FILES"`
	MaxUploadBytes  int64 `mapstructure:"MAX_UPLOAD_BYTES"`
	PageSizeDefault int64 `mapstructure:"PAGE_SIZE_DEFAULT"`
	PageSizeMax     int64 `mapstructure:"PAGE_SIZE_MAX"`

	SMTPHost     string `mapstructure:"SMTP_HOST"` // empty disables mail
	SMTPPort     int    `mapstructure:"SMTP_PORT"`
	SMTPUsername string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword string `mapstructure:"SMTP_PASSWORD"`
	SMTPFrom     string `mapstructure:"SMTP_FROM"`

	OTELEndpoint  string `mapstructure:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	LogLevel      string `mapstructure:"LOG_LEVEL"`
	LogFormat     string `mapstructure:"LOG_FORMAT"`
	LogOutputFile string `mapstructure:"LOG_OUTPUT_FILE"`
}

var defaults = map[string]interface{}{
	"SERVICE_NAME":     "stylerental",
	"APP_ENV":          "development",
	"HTTP_PORT":        "3001",
	"GRPC_PORT":        "50052",
	"READ_TIMEOUT":     "15s",
	"WRITE_TIMEOUT":    "30s",
	"SHUTDOWN_TIMEOUT": "10s",

	"MONGO_URI":      "mongodb://localhost:27017",
	"MONGO_DATABASE": "clothshop",

	"REDIS_ADDRESS":  "localhost:6379",
	"REDIS_PASSWORD": "",
	"REDIS_DB":       0,
	"CACHE_TTL":      "1h",

	"NATS_URL": "",

	"STORAGE_DRIVER":     StorageDriverMinIO,
	"STORAGE_PUBLIC_URL": "",
	"MINIO_ENDPOINT":     "localhost:9000",
	"MINIO_ACCESS_KEY":   "minioadmin",
	"MINIO_SECRET_KEY":   "minioadmin",
	"MINIO_BUCKET":       "clothes-photos",
	"MINIO_USE_SSL":      false,
	"S3_REGION":          "us-east-1",
	"S3_BASE_ENDPOINT":   "",
	"S3_ACCESS_KEY":      "",
	"S3_SECRET_KEY":      "",
	"S3_BUCKET":          "",

	"JWT_SECRET":           "",
	"JWT_TTL":              "168h",
	"ALLOWED_EMAIL_DOMAIN": "gmail.com",
	"AUTH_RATE_LIMIT":      20,

	"MAX_UPLOAD_FILES":  5,
	"MAX_UPLOAD_BYTES":  10 << 20,
	"PAGE_SIZE_DEFAULT": 8,
	"PAGE_SIZE_MAX":     50,

	"SMTP_HOST":     "",
	"SMTP_PORT":     587,
	"SMTP_USERNAME": "",
	"SMTP_PASSWORD": "",
	"SMTP_FROM":     "",

	"OTEL_EXPORTER_OTLP_ENDPOINT": "",
	"LOG_LEVEL":                   "info",
	"LOG_FORMAT":                  "json",
	"LOG_OUTPUT_FILE":             "stdout",
}

// Load reads .env (when present) and the process environment.
func Load() (*Config, error) {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("config: unmarshal: %w", err)
	}
	cfg.StorageDriver = strings.ToLower(strings.TrimSpace(cfg.StorageDriver))
	cfg.AllowedEmailDomain = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(cfg.AllowedEmailDomain), "@"))

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) Validate() error {
	var errs []error
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET is required"))
	}
	if c.MongoURI == "" || c.MongoDatabase == "" {
		errs = append(errs, errors.New("MONGO_URI and MONGO_DATABASE are required"))
	}
	switch c.StorageDriver {
	case StorageDriverMinIO:
		if c.MinIOEndpoint == "" || c.MinIOBucket == "" {
			errs = append(errs, errors.New("MINIO_ENDPOINT and MINIO_BUCKET are required for the minio driver"))
		}
	case StorageDriverS3:
		if c.S3Bucket == "" {
			errs = append(errs, errors.New("S3_BUCKET is required for the s3 driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("STORAGE_DRIVER %q is not one of minio, s3", c.StorageDriver))
	}
	if c.MaxUploadFiles < 1 {
		errs = append(errs, errors.New("MAX_UPLOAD_FILES must be at least 1"))
	}
	if c.MaxUploadBytes < 1 {
		errs = append(errs, errors.New("MAX_UPLOAD_BYTES must be positive"))
	}
	if c.PageSizeDefault < 1 || c.PageSizeMax < c.PageSizeDefault {
		errs = append(errs, errors.New("PAGE_SIZE_DEFAULT must be positive and not exceed PAGE_SIZE_MAX"))
	}
	if c.JWTTTL <= 0 {
		errs = append(errs, errors.New("JWT_TTL must be positive"))
	}
	if len(errs) > 0 {
		return fmt.Errorf("config: %w", errors.Join(errs...))
	}
	return nil
}

func (c *Config) IsProduction() bool { return strings.EqualFold(c.AppEnv, "production") }

func (c *Config) MailEnabled() bool { return c.SMTPHost != "" }
