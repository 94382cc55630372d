package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// LoggingConfig holds logging-related configuration.
type LoggingConfig struct {
	Level      string
	Pretty     bool
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// AxiomConfig holds Axiom logging configuration.
type AxiomConfig struct {
	Send          bool
	APIKey        string
	OrgID         string
	Dataset       string
	FlushInterval time.Duration
}

// OCRConfig controls the worker pool and the OCR pass.
type OCRConfig struct {
	// Workers > 0 overrides CPU detection.
	Workers    int
	Timeout    time.Duration
	Language   string
	Engine     string // "tesseract"|"gosseract"
	Rasterizer string // "fitz"|"mutool"
	Preprocess bool
	Admission  string // "wait"|"reject"
	TempDir    string
	// TempMaxAge is the age after which leftover temp files are swept.
	TempMaxAge    time.Duration
	SweepInterval time.Duration
}

// StorageConfig holds Redis and S3 connectivity.
type StorageConfig struct {
	RedisURL     string
	S3Bucket     string
	AWSRegion    string
	AWSAccessKey string
	AWSSecretKey string
	// MaxDocumentBytes bounds downloads.
	MaxDocumentBytes int64
}

// ServerConfig holds the HTTP listener settings.
type ServerConfig struct {
	Port           string
	RequestTimeout time.Duration
}

// Config is the top-level configuration.
type Config struct {
	Logging LoggingConfig
	Axiom   AxiomConfig
	OCR     OCRConfig
	Storage StorageConfig
	Server  ServerConfig
}

// FromEnv loads configuration from environment with sensible defaults.
func FromEnv() Config {
	cfg := Config{}

	// Logging defaults
	cfg.Logging = LoggingConfig{
		Level:      getEnv("LOG_LEVEL", "info"),
		Pretty:     parseBool(getEnv("LOG_PRETTY", devDefaultPretty())),
		File:       getEnv("LOG_FILE", "logs/ocrdispatcher.log"),
		MaxSizeMB:  parseInt(getEnv("LOG_MAX_SIZE_MB", "100"), 100),
		MaxBackups: parseInt(getEnv("LOG_MAX_BACKUPS", "10"), 10),
		MaxAgeDays: parseInt(getEnv("LOG_MAX_AGE_DAYS", "30"), 30),
		Compress:   parseBool(getEnv("LOG_COMPRESS", "true")),
	}

	// Axiom defaults
	baseDataset := getEnv("AXIOM_DATASET", "dev")
	cfg.Axiom = AxiomConfig{
		Send:          parseBool(getEnv("SEND_LOGS_TO_AXIOM", "0")),
		APIKey:        getEnv("AXIOM_API_KEY", ""),
		OrgID:         getEnv("AXIOM_ORG_ID", ""),
		Dataset:       baseDataset + "_ocrdispatcher",
		FlushInterval: parseDuration(getEnv("AXIOM_FLUSH_INTERVAL", "10s"), 10*time.Second),
	}

	// OCR defaults
	cfg.OCR = OCRConfig{
		Workers:       parseInt(getEnv("OCR_WORKERS", "0"), 0),
		Timeout:       parseDuration(getEnv("OCR_TIMEOUT", "5m"), 5*time.Minute),
		Language:      getEnv("OCR_LANGUAGE", "eng"),
		Engine:        strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
		Rasterizer:    strings.ToLower(getEnv("OCR_RASTERIZER", "fitz")),
		Preprocess:    parseBool(getEnv("OCR_PREPROCESS", "true")),
		Admission:     strings.ToLower(getEnv("OCR_ADMISSION", "wait")),
		TempDir:       getEnv("OCR_TEMP_DIR", ""),
		TempMaxAge:    parseDuration(getEnv("OCR_TEMP_MAX_AGE", "1h"), time.Hour),
		SweepInterval: parseDuration(getEnv("OCR_SWEEP_INTERVAL", "10m"), 10*time.Minute),
	}
	if cfg.OCR.Workers < 0 {
		cfg.OCR.Workers = 0
	}

	// Storage defaults; an empty REDIS_URL disables the status store
	cfg.Storage = StorageConfig{
		RedisURL:         getEnv("REDIS_URL", ""),
		S3Bucket:         getEnv("AWS_S3_BUCKET", ""),
		AWSRegion:        getEnv("AWS_REGION", ""),
		AWSAccessKey:     getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretKey:     getEnv("AWS_SECRET_ACCESS_KEY", ""),
		MaxDocumentBytes: int64(parseInt(getEnv("MAX_DOCUMENT_MB", "200"), 200)) << 20,
	}

	cfg.Server = ServerConfig{
		Port:           getEnv("PORT", "8080"),
		RequestTimeout: parseDuration(getEnv("REQUEST_TIMEOUT", "10m"), 10*time.Minute),
	}

	return cfg
}

// Helpers
func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func parseInt(s string, def int) int {
	if s == "" {
		return def
	}
	if n, err := strconv.Atoi(s); err == nil {
		return n
	}
	return def
}

func parseBool(s string) bool {
	v := strings.ToLower(strings.TrimSpace(s))
	return v == "1" || v == "true" || v == "yes" || v == "on"
}

func parseDuration(s string, def time.Duration) time.Duration {
	if s == "" {
		return def
	}
	if d, err := time.ParseDuration(s); err == nil {
		return d
	}
	return def
}

func devDefaultPretty() string {
	env := strings.ToLower(os.Getenv("ENVIRONMENT"))
	if env == "dev" || env == "development" || env == "local" {
		return "true"
	}
	return "false"
}
