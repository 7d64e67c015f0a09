package common

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// ConfigPathEnv names the optional TOML file layered under the environment.
const ConfigPathEnv = "BOXSCORE_CONFIG"

// Config holds all application configuration
type Config struct {
	Database    DatabaseConfig
	Server      ServerConfig
	OCR         OCRConfig
	LLM         LLMConfig
	Validation  ValidationConfig
	Consistency ConsistencyConfig
	Batch       BatchConfig
	LogLevel    string
}

// DatabaseConfig holds database-related configuration
type DatabaseConfig struct {
	DSN              string
	MaxConns         int32
	MinConns         int32
	MaxConnLifetime  time.Duration
	MaxConnIdleTime  time.Duration
	DialTimeout      time.Duration
	StatementTimeout time.Duration
}

// ServerConfig holds server-related configuration
type ServerConfig struct {
	GRPCAddr string
	LockPath string
}

// OCRConfig holds OCR-related configuration
type OCRConfig struct {
	HeicConverter       string
	TessdataDir         string
	ArtifactCacheDir    string
	DPI                 int
	MaxPages            int
	EnableTSVConfidence bool
	ConfidenceThreshold float32
}

// LLMConfig holds LLM-related configuration
type LLMConfig struct {
	Model       string
	APIKey      string
	BaseURL     string
	Temperature float32
	Timeout     time.Duration
	MaxAttempts int
	BackoffBase time.Duration
	BackoffMax  time.Duration
}

// ValidationConfig holds the advisory thresholds of the schema validator.
type ValidationConfig struct {
	MaxMinutes    float64
	FoulLimit     int
	MinPlayers    int
	LowConfidence float32
}

// ConsistencyConfig holds the allowed drift between player sums and team totals.
type ConsistencyConfig struct {
	Tolerance         int
	CategoryTolerance map[string]int
}

// For returns the tolerance for one counting category.
func (c ConsistencyConfig) For(category string) int {
	if v, ok := c.CategoryTolerance[category]; ok {
		return v
	}
	return c.Tolerance
}

// BatchConfig holds settings for directory batch runs.
type BatchConfig struct {
	Workers        int
	QueueSize      int
	ProcessTimeout time.Duration
	ReviewDir      string
}

// fileConfig mirrors Config for TOML decoding; durations are strings ("45s").
type fileConfig struct {
	LogLevel string `toml:"log_level"`
	Database struct {
		DSN              string `toml:"dsn"`
		MaxConns         int32  `toml:"max_conns"`
		MinConns         int32  `toml:"min_conns"`
		MaxConnLifetime  string `toml:"max_conn_lifetime"`
		MaxConnIdleTime  string `toml:"max_conn_idle_time"`
		DialTimeout      string `toml:"dial_timeout"`
		StatementTimeout string `toml:"statement_timeout"`
	} `toml:"database"`
	Server struct {
		GRPCAddr string `toml:"grpc_addr"`
		LockPath string `toml:"lock_path"`
	} `toml:"server"`
	OCR struct {
		HeicConverter       string  `toml:"heic_converter"`
		TessdataDir         string  `toml:"tessdata_dir"`
		ArtifactCacheDir    string  `toml:"artifact_cache_dir"`
		DPI                 int     `toml:"dpi"`
		MaxPages            int     `toml:"max_pages"`
		EnableTSVConfidence *bool   `toml:"tsv_confidence"`
		ConfidenceThreshold float32 `toml:"confidence_threshold"`
	} `toml:"ocr"`
	LLM struct {
		Model       string   `toml:"model"`
		APIKey      string   `toml:"api_key"`
		BaseURL     string   `toml:"base_url"`
		Temperature *float32 `toml:"temperature"`
		Timeout     string   `toml:"timeout"`
		MaxAttempts int      `toml:"max_attempts"`
		BackoffBase string   `toml:"backoff_base"`
		BackoffMax  string   `toml:"backoff_max"`
	} `toml:"llm"`
	Validation struct {
		MaxMinutes    float64 `toml:"max_minutes"`
		FoulLimit     int     `toml:"foul_limit"`
		MinPlayers    int     `toml:"min_players"`
		LowConfidence float32 `toml:"low_confidence"`
	} `toml:"validation"`
	Consistency struct {
		Tolerance         *int           `toml:"tolerance"`
		CategoryTolerance map[string]int `toml:"category_tolerance"`
	} `toml:"consistency"`
	Batch struct {
		Workers        int    `toml:"workers"`
		QueueSize      int    `toml:"queue_size"`
		ProcessTimeout string `toml:"process_timeout"`
		ReviewDir      string `toml:"review_dir"`
	} `toml:"batch"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		Database: DatabaseConfig{
			DSN:             "file:boxscores.db",
			MaxConns:        20,
			MinConns:        5,
			MaxConnLifetime: 30 * time.Minute,
			MaxConnIdleTime: 5 * time.Minute,
			DialTimeout:     3 * time.Second,
		},
		Server: ServerConfig{
			GRPCAddr: ":8080",
		},
		OCR: OCRConfig{
			HeicConverter:       "magick",
			ArtifactCacheDir:    "./tmp",
			DPI:                 300,
			ConfidenceThreshold: 0.6,
		},
		LLM: LLMConfig{
			Model:       "gpt-4o-mini",
			BaseURL:     "https://api.openai.com/v1",
			Timeout:     45 * time.Second,
			MaxAttempts: 3,
			BackoffBase: 500 * time.Millisecond,
			BackoffMax:  4 * time.Second,
		},
		Validation: ValidationConfig{
			MaxMinutes:    40,
			FoulLimit:     6,
			MinPlayers:    5,
			LowConfidence: 0.5,
		},
		Consistency: ConsistencyConfig{
			CategoryTolerance: map[string]int{},
		},
		Batch: BatchConfig{
			Workers:        4,
			QueueSize:      64,
			ProcessTimeout: 3 * time.Minute,
			ReviewDir:      "./review",
		},
		LogLevel: "info",
	}
}

// LoadConfig layers defaults, the optional TOML file at path (or $BOXSCORE_CONFIG),
// and environment variables, in that order.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()
	if strings.TrimSpace(path) == "" {
		path = os.Getenv(ConfigPathEnv)
	}
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
	}
	cfg.applyEnv()
	return cfg, nil
}

func (c *Config) applyFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("open config: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(raw, &fc); err != nil {
		return NewAppError("CONFIG_ERROR", "parse "+path, err)
	}

	setString(&c.LogLevel, fc.LogLevel)

	setString(&c.Database.DSN, fc.Database.DSN)
	setInt32(&c.Database.MaxConns, fc.Database.MaxConns)
	setInt32(&c.Database.MinConns, fc.Database.MinConns)
	durations := []struct {
		dst *time.Duration
		raw string
		key string
	}{
		{&c.Database.MaxConnLifetime, fc.Database.MaxConnLifetime, "database.max_conn_lifetime"},
		{&c.Database.MaxConnIdleTime, fc.Database.MaxConnIdleTime, "database.max_conn_idle_time"},
		{&c.Database.DialTimeout, fc.Database.DialTimeout, "database.dial_timeout"},
		{&c.Database.StatementTimeout, fc.Database.StatementTimeout, "database.statement_timeout"},
		{&c.LLM.Timeout, fc.LLM.Timeout, "llm.timeout"},
		{&c.LLM.BackoffBase, fc.LLM.BackoffBase, "llm.backoff_base"},
		{&c.LLM.BackoffMax, fc.LLM.BackoffMax, "llm.backoff_max"},
		{&c.Batch.ProcessTimeout, fc.Batch.ProcessTimeout, "batch.process_timeout"},
	}
	for _, d := range durations {
		if d.raw == "" {
			continue
		}
		v, err := time.ParseDuration(d.raw)
		if err != nil {
			return NewAppError("CONFIG_ERROR", d.key+" must be a duration", err)
		}
		*d.dst = v
	}

	setString(&c.Server.GRPCAddr, fc.Server.GRPCAddr)
	setString(&c.Server.LockPath, fc.Server.LockPath)

	setString(&c.OCR.HeicConverter, fc.OCR.HeicConverter)
	setString(&c.OCR.TessdataDir, fc.OCR.TessdataDir)
	setString(&c.OCR.ArtifactCacheDir, fc.OCR.ArtifactCacheDir)
	setInt(&c.OCR.DPI, fc.OCR.DPI)
	setInt(&c.OCR.MaxPages, fc.OCR.MaxPages)
	if fc.OCR.EnableTSVConfidence != nil {
		c.OCR.EnableTSVConfidence = *fc.OCR.EnableTSVConfidence
	}
	if fc.OCR.ConfidenceThreshold > 0 {
		c.OCR.ConfidenceThreshold = fc.OCR.ConfidenceThreshold
	}

	setString(&c.LLM.Model, fc.LLM.Model)
	setString(&c.LLM.APIKey, fc.LLM.APIKey)
	setString(&c.LLM.BaseURL, fc.LLM.BaseURL)
	if fc.LLM.Temperature != nil {
		c.LLM.Temperature = *fc.LLM.Temperature
	}
	setInt(&c.LLM.MaxAttempts, fc.LLM.MaxAttempts)

	if fc.Validation.MaxMinutes > 0 {
		c.Validation.MaxMinutes = fc.Validation.MaxMinutes
	}
	setInt(&c.Validation.FoulLimit, fc.Validation.FoulLimit)
	setInt(&c.Validation.MinPlayers, fc.Validation.MinPlayers)
	if fc.Validation.LowConfidence > 0 {
		c.Validation.LowConfidence = fc.Validation.LowConfidence
	}

	if fc.Consistency.Tolerance != nil {
		c.Consistency.Tolerance = *fc.Consistency.Tolerance
	}
	for k, v := range fc.Consistency.CategoryTolerance {
		c.Consistency.CategoryTolerance[k] = v
	}

	setInt(&c.Batch.Workers, fc.Batch.Workers)
	setInt(&c.Batch.QueueSize, fc.Batch.QueueSize)
	setString(&c.Batch.ReviewDir, fc.Batch.ReviewDir)
	return nil
}

func (c *Config) applyEnv() {
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)

	c.Database.DSN = getEnv("DB_URL", c.Database.DSN)
	c.Database.MaxConns = getEnvAsInt32("DB_MAX_CONNS", c.Database.MaxConns)
	c.Database.MinConns = getEnvAsInt32("DB_MIN_CONNS", c.Database.MinConns)
	c.Database.MaxConnLifetime = getEnvAsDuration("DB_MAX_CONN_LIFETIME", c.Database.MaxConnLifetime)
	c.Database.MaxConnIdleTime = getEnvAsDuration("DB_MAX_CONN_IDLE_TIME", c.Database.MaxConnIdleTime)
	c.Database.DialTimeout = getEnvAsDuration("DB_DIAL_TIMEOUT", c.Database.DialTimeout)
	c.Database.StatementTimeout = getEnvAsDuration("DB_STATEMENT_TIMEOUT", c.Database.StatementTimeout)

	c.Server.GRPCAddr = getEnv("GRPC_ADDR", c.Server.GRPCAddr)
	c.Server.LockPath = getEnv("LOCK_PATH", c.Server.LockPath)

	c.OCR.HeicConverter = getEnv("HEIC_CONVERTER", c.OCR.HeicConverter)
	c.OCR.TessdataDir = getEnv("TESSDATA_PREFIX", c.OCR.TessdataDir)
	c.OCR.ArtifactCacheDir = getEnv("ARTIFACT_CACHE_DIR", c.OCR.ArtifactCacheDir)
	c.OCR.DPI = getEnvAsInt("OCR_DPI", c.OCR.DPI)
	c.OCR.MaxPages = getEnvAsInt("OCR_MAX_PAGES", c.OCR.MaxPages)
	c.OCR.EnableTSVConfidence = getEnvAsBool("OCR_TSV_CONFIDENCE", c.OCR.EnableTSVConfidence)
	c.OCR.ConfidenceThreshold = getEnvAsFloat32("OCR_CONFIDENCE_THRESHOLD", c.OCR.ConfidenceThreshold)

	c.LLM.Model = getEnv("OPENAI_MODEL", c.LLM.Model)
	c.LLM.APIKey = getEnv("OPENAI_API_KEY", c.LLM.APIKey)
	c.LLM.BaseURL = getEnv("OPENAI_BASE_URL", c.LLM.BaseURL)
	c.LLM.Temperature = getEnvAsFloat32("OPENAI_TEMPERATURE", c.LLM.Temperature)
	c.LLM.Timeout = getEnvAsDuration("OPENAI_TIMEOUT", c.LLM.Timeout)
	c.LLM.MaxAttempts = getEnvAsInt("LLM_MAX_ATTEMPTS", c.LLM.MaxAttempts)
	c.LLM.BackoffBase = getEnvAsDuration("LLM_BACKOFF_BASE", c.LLM.BackoffBase)
	c.LLM.BackoffMax = getEnvAsDuration("LLM_BACKOFF_MAX", c.LLM.BackoffMax)

	c.Validation.MaxMinutes = getEnvAsFloat64("VALIDATION_MAX_MINUTES", c.Validation.MaxMinutes)
	c.Validation.FoulLimit = getEnvAsInt("VALIDATION_FOUL_LIMIT", c.Validation.FoulLimit)
	c.Validation.MinPlayers = getEnvAsInt("VALIDATION_MIN_PLAYERS", c.Validation.MinPlayers)

	c.Consistency.Tolerance = getEnvAsInt("CONSISTENCY_TOLERANCE", c.Consistency.Tolerance)

	c.Batch.Workers = getEnvAsInt("BATCH_WORKERS", c.Batch.Workers)
	c.Batch.QueueSize = getEnvAsInt("BATCH_QUEUE_SIZE", c.Batch.QueueSize)
	c.Batch.ProcessTimeout = getEnvAsDuration("BATCH_PROCESS_TIMEOUT", c.Batch.ProcessTimeout)
	c.Batch.ReviewDir = getEnv("BATCH_REVIEW_DIR", c.Batch.ReviewDir)
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setInt32(dst *int32, v int32) {
	if v != 0 {
		*dst = v
	}
}

// Helper functions for environment variable parsing
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsInt32(key string, defaultValue int32) int32 {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.ParseInt(value, 10, 32); err == nil {
			return int32(intVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat32(key string, defaultValue float32) float32 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 32); err == nil {
			return float32(floatVal)
		}
	}
	return defaultValue
}

func getEnvAsFloat64(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}
	return defaultValue
}

// Validate checks the keys every command needs.
func (c *Config) Validate() error {
	if c.Database.DSN == "" {
		return NewAppError("CONFIG_ERROR", "DB_URL is required", ErrInvalidInput)
	}
	if c.LLM.MaxAttempts < 1 {
		return NewAppError("CONFIG_ERROR", "LLM_MAX_ATTEMPTS must be at least 1", ErrInvalidInput)
	}
	if c.Validation.MaxMinutes <= 0 {
		return NewAppError("CONFIG_ERROR", "VALIDATION_MAX_MINUTES must be positive", ErrInvalidInput)
	}
	if c.Consistency.Tolerance < 0 {
		return NewAppError("CONFIG_ERROR", "CONSISTENCY_TOLERANCE must not be negative", ErrInvalidInput)
	}
	for k, v := range c.Consistency.CategoryTolerance {
		if v < 0 {
			return NewAppError("CONFIG_ERROR", "category tolerance for "+k+" must not be negative", ErrInvalidInput)
		}
	}
	return nil
}

// ValidateForExtraction additionally requires the extraction service credentials.
func (c *Config) ValidateForExtraction() error {
	if err := c.Validate(); err != nil {
		return err
	}
	if c.LLM.APIKey == "" {
		return NewAppError("CONFIG_ERROR", "OPENAI_API_KEY is required", ErrInvalidInput)
	}
	return nil
}

// ValidateForServer additionally requires the listen address.
func (c *Config) ValidateForServer() error {
	if err := c.ValidateForExtraction(); err != nil {
		return err
	}
	if c.Server.GRPCAddr == "" {
		return NewAppError("CONFIG_ERROR", "GRPC_ADDR is required", ErrInvalidInput)
	}
	return nil
}
