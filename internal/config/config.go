// internal/config/config.go
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

const (
	StorageDriverFile   = "file"
	StorageDriverSQLite = "sqlite"

	defaultMaxUploadMB = 30
)

// Config holds every setting the server needs.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Providers ProvidersConfig `yaml:"providers"`
	Storage   StorageConfig   `yaml:"storage"`
	Logging   LoggingConfig   `yaml:"logging"`
}

type ServerConfig struct {
	Port        string `yaml:"port"`
	DebugMode   bool   `yaml:"debug_mode"`
	MaxUploadMB int    `yaml:"max_upload_mb"`
	// requests per minute per client IP, 0 disables limiting
	RateLimit int `yaml:"rate_limit"`
}

// ProvidersConfig holds credentials and model names for the two collaborators.
// An empty key means that collaborator is not configured.
type ProvidersConfig struct {
	OpenAIAPIKey          string `yaml:"openai_api_key"`
	GoogleAIAPIKey        string `yaml:"google_ai_api_key"`
	GenerationProvider    string `yaml:"generation_provider"`
	GenerationModel       string `yaml:"generation_model"`
	TranscriptionModel    string `yaml:"transcription_model"`
	TranscriptionLanguage string `yaml:"transcription_language"`
	OpenAIBaseURL         string `yaml:"openai_base_url"`
}

type StorageConfig struct {
	Driver  string `yaml:"driver"`
	DataDir string `yaml:"data_dir"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

// Load reads .env, then the optional YAML file at path, then environment
// overrides, and finally fills defaults and validates.
func Load(path string) (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config file: %w", err)
		}

		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), &cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	cfg.applyEnv()
	cfg.setDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyEnv() {
	c.Server.Port = getEnv("PORT", c.Server.Port)
	c.Server.DebugMode = getEnvBool("DEBUG_MODE", c.Server.DebugMode)
	c.Server.MaxUploadMB = getEnvInt("MAX_UPLOAD_MB", c.Server.MaxUploadMB)
	c.Server.RateLimit = getEnvInt("RATE_LIMIT", c.Server.RateLimit)

	c.Providers.OpenAIAPIKey = getEnv("OPENAI_API_KEY", c.Providers.OpenAIAPIKey)
	c.Providers.GoogleAIAPIKey = getEnv("GOOGLE_AI_API_KEY", c.Providers.GoogleAIAPIKey)
	c.Providers.GenerationProvider = getEnv("GENERATION_PROVIDER", c.Providers.GenerationProvider)
	c.Providers.GenerationModel = getEnv("GENERATION_MODEL", c.Providers.GenerationModel)

	c.Storage.Driver = getEnv("STORAGE_DRIVER", c.Storage.Driver)
	c.Storage.DataDir = getEnv("DATA_DIR", c.Storage.DataDir)

	c.Logging.Level = getEnv("LOG_LEVEL", c.Logging.Level)
	c.Logging.File = getEnv("LOG_FILE", c.Logging.File)
}

func (c *Config) setDefaults() {
	if c.Server.Port == "" {
		c.Server.Port = "8080"
	}
	if c.Server.MaxUploadMB == 0 {
		c.Server.MaxUploadMB = defaultMaxUploadMB
	}
	if c.Providers.GenerationProvider == "" {
		c.Providers.GenerationProvider = "google"
	}
	if c.Providers.GenerationModel == "" {
		c.Providers.GenerationModel = "gemini-2.0-flash-exp"
		if c.Providers.GenerationProvider == "openai" {
			c.Providers.GenerationModel = "gpt-4o-mini"
		}
	}
	if c.Providers.TranscriptionModel == "" {
		c.Providers.TranscriptionModel = "whisper-1"
	}
	if c.Providers.TranscriptionLanguage == "" {
		c.Providers.TranscriptionLanguage = "ja"
	}
	if c.Storage.Driver == "" {
		c.Storage.Driver = StorageDriverFile
	}
	if c.Storage.DataDir == "" {
		c.Storage.DataDir = "data"
	}
	if c.Logging.Level == "" {
		c.Logging.Level = "info"
	}
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if _, err := strconv.Atoi(c.Server.Port); err != nil {
		return fmt.Errorf("invalid port %q", c.Server.Port)
	}
	if c.Server.MaxUploadMB < 0 {
		return fmt.Errorf("max_upload_mb must not be negative")
	}
	if c.Server.RateLimit < 0 {
		return fmt.Errorf("rate_limit must not be negative")
	}
	switch c.Storage.Driver {
	case StorageDriverFile, StorageDriverSQLite:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}
	if strings.TrimSpace(c.Storage.DataDir) == "" {
		return fmt.Errorf("data_dir is required")
	}
	return nil
}

// HasTranscriptionKey reports whether the transcription collaborator is configured.
func (c *Config) HasTranscriptionKey() bool {
	return strings.TrimSpace(c.Providers.OpenAIAPIKey) != ""
}

// HasGenerationKey reports whether the generation collaborator is configured.
func (c *Config) HasGenerationKey() bool {
	switch c.Providers.GenerationProvider {
	case "openai":
		return c.HasTranscriptionKey()
	default:
		return strings.TrimSpace(c.Providers.GoogleAIAPIKey) != ""
	}
}

// MockMode reports whether requests are served with canned responses.
func (c *Config) MockMode() bool {
	return !c.HasTranscriptionKey() || !c.HasGenerationKey()
}

// MaxUploadBytes returns the upload ceiling in bytes.
func (c *Config) MaxUploadBytes() int64 {
	return int64(c.Server.MaxUploadMB) * 1024 * 1024
}

// getEnv returns the environment value for key or defaultValue when unset
func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}

// getEnvBool reads a boolean environment variable
func getEnvBool(key string, defaultValue bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}

	return value == "true" || value == "1" || value == "yes"
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		return defaultValue
	}
	return n
}
