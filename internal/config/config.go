package config

import (
	"errors"
	"fmt"
	"io/fs"
	"net/url"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Storage drivers
const (
	StorageDriverLocal = "local"
	StorageDriverS3    = "s3"
)

// DBConfig holds database configuration
type DBConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// S3Config holds settings for the S3 artifact store
type S3Config struct {
	Bucket          string
	Region          string
	Endpoint        string
	PublicBaseURL   string
	KeyPrefix       string
	ForcePathStyle  bool
	AccessKeyID     string
	SecretAccessKey string
}

// LocalStorageConfig holds settings for the filesystem artifact store
type LocalStorageConfig struct {
	Dir           string
	PublicBaseURL string
}

// StorageConfig selects and configures the artifact store
type StorageConfig struct {
	Driver string
	S3     S3Config
	Local  LocalStorageConfig
}

// Config holds all configuration for the application
type Config struct {
	APISecret         string
	ModalURL          string
	ModalAPIKey       string
	UpstreamTimeout   time.Duration
	HTTPAddr          string
	LogLevel          string
	LogFormat         string
	OrphanSchedule    string
	OrphanGracePeriod time.Duration
	Storage           StorageConfig
	DB                DBConfig
}

// Load loads the configuration from environment variables.
// A .env file in the working directory is read first when present.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}
	return FromEnv()
}

// FromEnv builds the configuration from the process environment only
func FromEnv() (*Config, error) {
	config := &Config{
		APISecret:         os.Getenv("API_SECRET"),
		ModalURL:          strings.TrimSpace(os.Getenv("MODAL_URL")),
		ModalAPIKey:       os.Getenv("API_KEY"),
		UpstreamTimeout:   getenvSeconds("UPSTREAM_TIMEOUT", 0),
		HTTPAddr:          getenv("HTTP_ADDR", ":8080"),
		LogLevel:          getenv("LOG_LEVEL", "info"),
		LogFormat:         getenv("LOG_FORMAT", "json"),
		OrphanSchedule:    getenv("ORPHAN_AUDIT_SCHEDULE", "0 0 * * * *"),
		OrphanGracePeriod: getenvSeconds("ORPHAN_GRACE_PERIOD", 10*time.Minute),
	}
	// An explicitly empty schedule disables the audit
	if v, ok := os.LookupEnv("ORPHAN_AUDIT_SCHEDULE"); ok && strings.TrimSpace(v) == "" {
		config.OrphanSchedule = ""
	}

	config.Storage = StorageConfig{
		Driver: strings.ToLower(getenv("STORAGE_DRIVER", StorageDriverLocal)),
		S3: S3Config{
			Bucket:          os.Getenv("S3_BUCKET"),
			Region:          getenv("S3_REGION", "us-east-1"),
			Endpoint:        os.Getenv("S3_ENDPOINT"),
			PublicBaseURL:   strings.TrimRight(os.Getenv("S3_PUBLIC_BASE_URL"), "/"),
			KeyPrefix:       strings.Trim(os.Getenv("S3_KEY_PREFIX"), "/"),
			ForcePathStyle:  getenvBool("S3_FORCE_PATH_STYLE", false),
			AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("S3_SECRET_ACCESS_KEY"),
		},
		Local: LocalStorageConfig{
			Dir:           getenv("LOCAL_STORAGE_DIR", "./data/images"),
			PublicBaseURL: strings.TrimRight(getenv("LOCAL_PUBLIC_BASE_URL", "http://localhost:8080/images"), "/"),
		},
	}

	config.DB = DBConfig{
		Host:            os.Getenv("DB_HOST"),
		Port:            getenvInt("DB_PORT", 5432),
		User:            os.Getenv("DB_USER"),
		Password:        os.Getenv("DB_PASSWORD"),
		Database:        os.Getenv("DB_NAME"),
		SSLMode:         getenv("DB_SSL_MODE", "disable"),
		MaxOpenConns:    getenvInt("DB_MAX_OPEN_CONNS", 25),
		MaxIdleConns:    getenvInt("DB_MAX_IDLE_CONNS", 25),
		ConnMaxLifetime: getenvSeconds("DB_CONN_MAX_LIFETIME", 5*time.Minute),
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}
	return config, nil
}

// Validate checks required fields
func (c *Config) Validate() error {
	if c.APISecret == "" {
		return fmt.Errorf("API_SECRET is required")
	}
	if c.ModalURL == "" {
		return fmt.Errorf("MODAL_URL is required")
	}
	u, err := url.Parse(c.ModalURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("MODAL_URL must be an absolute http(s) URL")
	}
	if c.ModalAPIKey == "" {
		return fmt.Errorf("API_KEY is required")
	}

	switch c.Storage.Driver {
	case StorageDriverS3:
		if c.Storage.S3.Bucket == "" {
			return fmt.Errorf("S3_BUCKET is required when STORAGE_DRIVER=s3")
		}
	case StorageDriverLocal:
		if c.Storage.Local.Dir == "" {
			return fmt.Errorf("LOCAL_STORAGE_DIR is required when STORAGE_DRIVER=local")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER %q", c.Storage.Driver)
	}

	// Validate database configuration
	if c.DB.Host == "" {
		return fmt.Errorf("DB_HOST is required")
	}
	if c.DB.User == "" {
		return fmt.Errorf("DB_USER is required")
	}
	if c.DB.Password == "" {
		return fmt.Errorf("DB_PASSWORD is required")
	}
	if c.DB.Database == "" {
		return fmt.Errorf("DB_NAME is required")
	}
	return nil
}

// GetDSN returns the PostgreSQL connection string
func (c *Config) GetDSN() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		c.DB.Host, c.DB.Port, c.DB.User, c.DB.Password, c.DB.Database, c.DB.SSLMode)
}

// GetMigrateURL returns the connection string in URL form, as golang-migrate expects
func (c *Config) GetMigrateURL() string {
	u := url.URL{
		Scheme:   "postgres",
		User:     url.UserPassword(c.DB.User, c.DB.Password),
		Host:     fmt.Sprintf("%s:%d", c.DB.Host, c.DB.Port),
		Path:     "/" + c.DB.Database,
		RawQuery: "sslmode=" + url.QueryEscape(c.DB.SSLMode),
	}
	return u.String()
}

func getenv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) int {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil {
		return v
	}
	return def
}

func getenvSeconds(key string, def time.Duration) time.Duration {
	if v, err := strconv.Atoi(strings.TrimSpace(os.Getenv(key))); err == nil && v >= 0 {
		return time.Duration(v) * time.Second
	}
	return def
}

func getenvBool(key string, def bool) bool {
	switch strings.ToLower(strings.TrimSpace(os.Getenv(key))) {
	case "1", "true", "yes", "y", "on":
		return true
	case "0", "false", "no", "n", "off":
		return false
	default:
		return def
	}
}
