package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

type Config struct {
	// Server settings
	ServerPort      string        `toml:"server_port"`
	ReadTimeout     time.Duration `toml:"read_timeout"`
	WriteTimeout    time.Duration `toml:"write_timeout"`
	IdleTimeout     time.Duration `toml:"idle_timeout"`
	ShutdownTimeout time.Duration `toml:"shutdown_timeout"`
	Debug           bool          `toml:"debug"`
	Version         string        `toml:"version"`

	// Application paths
	TempDir string `toml:"temp_dir"`

	Log        LogConfig        `toml:"log"`
	CORS       CORSConfig       `toml:"cors"`
	RateLimit  RateLimitConfig  `toml:"rate_limit"`
	Transcript TranscriptConfig `toml:"transcript"`
	Summary    SummaryConfig    `toml:"summary"`
}

type LogConfig struct {
	Dir    string `toml:"dir"`
	Level  string `toml:"level"`
	Format string `toml:"format"`
}

type CORSConfig struct {
	Enabled        bool     `toml:"enabled"`
	AllowedOrigins []string `toml:"allowed_origins"`
	AllowedMethods []string `toml:"allowed_methods"`
	AllowedHeaders []string `toml:"allowed_headers"`
	MaxAge         int      `toml:"max_age"`
}

type RateLimitConfig struct {
	Enabled           bool `toml:"enabled"`
	RequestsPerMinute int  `toml:"requests_per_minute"`
	BurstSize         int  `toml:"burst_size"`
}

type TranscriptConfig struct {
	// Source is either "youtube" or "ytdlp".
	Source      string        `toml:"source"`
	Languages   []string      `toml:"languages"`
	BaseURL     string        `toml:"base_url"`
	YtDlpPath   string        `toml:"ytdlp_path"`
	HTTPTimeout time.Duration `toml:"http_timeout"`
}

type SummaryConfig struct {
	// Backend is one of "worker", "huggingface", "openai" or "gemini".
	Backend        string `toml:"backend"`
	Model          string `toml:"model"`
	TokenizerPath  string `toml:"tokenizer_path"`
	ChunkMaxTokens int    `toml:"chunk_max_tokens"`
	ChunkMinLength int    `toml:"chunk_min_length"`
	ChunkMaxLength int    `toml:"chunk_max_length"`
	FinalMinLength int    `toml:"final_min_length"`
	FinalMaxLength int    `toml:"final_max_length"`
	IncludeChunks  bool   `toml:"include_chunks"`

	// worker backend
	PythonPath  string   `toml:"python_path"`
	ScriptsPath string   `toml:"scripts_path"`
	Workers     int      `toml:"workers"`
	Environment []string `toml:"environment"`

	// remote backends
	HuggingFaceURL   string        `toml:"huggingface_url"`
	HuggingFaceToken string        `toml:"huggingface_token"`
	OpenAIAPIKey     string        `toml:"openai_api_key"`
	OpenAIBaseURL    string        `toml:"openai_base_url"`
	GeminiAPIKey     string        `toml:"gemini_api_key"`
	RequestTimeout   time.Duration `toml:"request_timeout"`
}

const (
	BackendWorker      = "worker"
	BackendHuggingFace = "huggingface"
	BackendOpenAI      = "openai"
	BackendGemini      = "gemini"

	SourceYouTube = "youtube"
	SourceYtDlp   = "ytdlp"

	DefaultModel = "facebook/bart-large-cnn"

	// ModelMaxInputTokens is the input window of the local BART models.
	ModelMaxInputTokens = 1024
)

// Default returns the configuration used when nothing is overridden.
func Default() *Config {
	return &Config{
		ServerPort:      "5000",
		ReadTimeout:     15 * time.Second,
		WriteTimeout:    0,
		IdleTimeout:     60 * time.Second,
		ShutdownTimeout: 30 * time.Second,
		Version:         "1.0.0",
		TempDir:         os.TempDir(),

		Log: LogConfig{
			Dir:    "./logs",
			Level:  "info",
			Format: "text",
		},

		CORS: CORSConfig{
			Enabled:        true,
			AllowedOrigins: []string{"*"},
			AllowedMethods: []string{"GET", "POST", "OPTIONS"},
			AllowedHeaders: []string{"Content-Type"},
			MaxAge:         86400,
		},

		RateLimit: RateLimitConfig{
			Enabled:           false,
			RequestsPerMinute: 60,
			BurstSize:         10,
		},

		Transcript: TranscriptConfig{
			Source:      SourceYouTube,
			Languages:   []string{"en"},
			BaseURL:     "https://www.youtube.com",
			YtDlpPath:   "yt-dlp",
			HTTPTimeout: 30 * time.Second,
		},

		Summary: SummaryConfig{
			Backend:        BackendWorker,
			Model:          DefaultModel,
			TokenizerPath:  "./models/bart-large-cnn/tokenizer.json",
			ChunkMaxTokens: 1024,
			ChunkMinLength: 50,
			ChunkMaxLength: 200,
			FinalMinLength: 100,
			FinalMaxLength: 300,
			IncludeChunks:  true,
			PythonPath:     "python3",
			ScriptsPath:    "./scripts",
			Workers:        1,
			HuggingFaceURL: "https://api-inference.huggingface.co/models/facebook/bart-large-cnn",
			OpenAIBaseURL:  "https://api.openai.com/v1",
			RequestTimeout: 5 * time.Minute,
		},
	}
}

// Load builds the configuration from defaults, an optional TOML file named by
// CONFIG_FILE and the environment, in that order of precedence.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		logrus.WithError(err).Warn("Failed to load .env file")
	}

	cfg := Default()

	if path := os.Getenv("CONFIG_FILE"); path != "" {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to decode config file %s: %w", path, err)
		}
	}

	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

func applyEnv(cfg *Config) {
	cfg.ServerPort = getEnv("SERVER_PORT", cfg.ServerPort)
	cfg.ReadTimeout = getEnvAsDuration("READ_TIMEOUT", cfg.ReadTimeout)
	cfg.WriteTimeout = getEnvAsDuration("WRITE_TIMEOUT", cfg.WriteTimeout)
	cfg.IdleTimeout = getEnvAsDuration("IDLE_TIMEOUT", cfg.IdleTimeout)
	cfg.ShutdownTimeout = getEnvAsDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout)
	cfg.Debug = getEnvAsBool("DEBUG", cfg.Debug)
	cfg.Version = getEnv("VERSION", cfg.Version)
	cfg.TempDir = getEnv("TEMP_DIR", cfg.TempDir)

	cfg.Log.Dir = getEnv("LOG_DIR", cfg.Log.Dir)
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.Format = getEnv("LOG_FORMAT", cfg.Log.Format)

	cfg.CORS.Enabled = getEnvAsBool("CORS_ENABLED", cfg.CORS.Enabled)
	cfg.CORS.AllowedOrigins = getEnvAsStringSlice("CORS_ALLOWED_ORIGINS", cfg.CORS.AllowedOrigins)
	cfg.CORS.AllowedMethods = getEnvAsStringSlice("CORS_ALLOWED_METHODS", cfg.CORS.AllowedMethods)
	cfg.CORS.AllowedHeaders = getEnvAsStringSlice("CORS_ALLOWED_HEADERS", cfg.CORS.AllowedHeaders)
	cfg.CORS.MaxAge = getEnvAsInt("CORS_MAX_AGE", cfg.CORS.MaxAge)

	cfg.RateLimit.Enabled = getEnvAsBool("RATE_LIMIT_ENABLED", cfg.RateLimit.Enabled)
	cfg.RateLimit.RequestsPerMinute = getEnvAsInt("RATE_LIMIT_RPM", cfg.RateLimit.RequestsPerMinute)
	cfg.RateLimit.BurstSize = getEnvAsInt("RATE_LIMIT_BURST", cfg.RateLimit.BurstSize)

	cfg.Transcript.Source = getEnv("TRANSCRIPT_SOURCE", cfg.Transcript.Source)
	cfg.Transcript.Languages = getEnvAsStringSlice("TRANSCRIPT_LANGUAGES", cfg.Transcript.Languages)
	cfg.Transcript.BaseURL = getEnv("YOUTUBE_BASE_URL", cfg.Transcript.BaseURL)
	cfg.Transcript.YtDlpPath = getEnv("YTDLP_PATH", cfg.Transcript.YtDlpPath)
	cfg.Transcript.HTTPTimeout = getEnvAsDuration("TRANSCRIPT_HTTP_TIMEOUT", cfg.Transcript.HTTPTimeout)

	s := &cfg.Summary
	s.Backend = getEnv("SUMMARY_BACKEND", s.Backend)
	s.Model = getEnv("SUMMARY_MODEL", s.Model)
	s.TokenizerPath = getEnv("TOKENIZER_PATH", s.TokenizerPath)
	s.ChunkMaxTokens = getEnvAsInt("CHUNK_MAX_TOKENS", s.ChunkMaxTokens)
	s.ChunkMinLength = getEnvAsInt("CHUNK_MIN_LENGTH", s.ChunkMinLength)
	s.ChunkMaxLength = getEnvAsInt("CHUNK_MAX_LENGTH", s.ChunkMaxLength)
	s.FinalMinLength = getEnvAsInt("FINAL_MIN_LENGTH", s.FinalMinLength)
	s.FinalMaxLength = getEnvAsInt("FINAL_MAX_LENGTH", s.FinalMaxLength)
	s.IncludeChunks = getEnvAsBool("INCLUDE_CHUNKS", s.IncludeChunks)
	s.PythonPath = getEnv("PYTHON_PATH", s.PythonPath)
	s.ScriptsPath = getEnv("SCRIPTS_PATH", s.ScriptsPath)
	s.Workers = getEnvAsInt("SUMMARY_WORKERS", s.Workers)
	s.Environment = getEnvAsStringSlice("SUMMARY_WORKER_ENV", s.Environment)
	s.HuggingFaceURL = getEnv("HF_API_URL", s.HuggingFaceURL)
	s.HuggingFaceToken = getEnv("HF_API_TOKEN", s.HuggingFaceToken)
	s.OpenAIAPIKey = getEnv("OPENAI_API_KEY", s.OpenAIAPIKey)
	s.OpenAIBaseURL = getEnv("OPENAI_BASE_URL", s.OpenAIBaseURL)
	s.GeminiAPIKey = getEnv("GEMINI_API_KEY", s.GeminiAPIKey)
	s.RequestTimeout = getEnvAsDuration("SUMMARY_REQUEST_TIMEOUT", s.RequestTimeout)
}

func (c *Config) Validate() error {
	if err := validateServer(c); err != nil {
		return err
	}

	if err := validateTranscript(c); err != nil {
		return err
	}

	if err := validateSummary(c); err != nil {
		return err
	}

	return nil
}

func validateServer(c *Config) error {
	if c.ServerPort == "" {
		return fmt.Errorf("server port is required")
	}
	if c.ReadTimeout <= 0 {
		return fmt.Errorf("read timeout must be positive")
	}
	// Zero leaves the write deadline off; summarizing a long video can take minutes.
	if c.WriteTimeout < 0 {
		return fmt.Errorf("write timeout must not be negative")
	}
	if c.RateLimit.Enabled && c.RateLimit.RequestsPerMinute <= 0 {
		return fmt.Errorf("rate limit requests per minute must be positive")
	}
	return nil
}

func validateTranscript(c *Config) error {
	switch c.Transcript.Source {
	case SourceYouTube:
		if c.Transcript.BaseURL == "" {
			return fmt.Errorf("youtube base URL is required")
		}
	case SourceYtDlp:
		if c.Transcript.YtDlpPath == "" {
			return fmt.Errorf("yt-dlp path is required")
		}
	default:
		return fmt.Errorf("unknown transcript source %q", c.Transcript.Source)
	}
	if len(c.Transcript.Languages) == 0 {
		return fmt.Errorf("at least one transcript language is required")
	}
	return nil
}

func validateSummary(c *Config) error {
	s := c.Summary

	if s.ChunkMaxTokens <= 0 {
		return fmt.Errorf("chunk max tokens must be positive")
	}
	if s.TokenizerPath == "" {
		return fmt.Errorf("tokenizer path is required")
	}
	if err := validateBounds("chunk", s.ChunkMinLength, s.ChunkMaxLength); err != nil {
		return err
	}
	if err := validateBounds("final", s.FinalMinLength, s.FinalMaxLength); err != nil {
		return err
	}

	switch s.Backend {
	case BackendWorker:
		if s.Workers <= 0 {
			return fmt.Errorf("summary workers must be positive")
		}
		if s.ChunkMaxTokens > ModelMaxInputTokens {
			return fmt.Errorf("chunk max tokens must not exceed %d for the %s backend", ModelMaxInputTokens, s.Backend)
		}
	case BackendHuggingFace:
		if s.HuggingFaceURL == "" {
			return fmt.Errorf("huggingface URL is required")
		}
		if s.ChunkMaxTokens > ModelMaxInputTokens {
			return fmt.Errorf("chunk max tokens must not exceed %d for the %s backend", ModelMaxInputTokens, s.Backend)
		}
	case BackendOpenAI:
		if s.OpenAIAPIKey == "" {
			return fmt.Errorf("openai API key is required")
		}
	case BackendGemini:
		if s.GeminiAPIKey == "" {
			return fmt.Errorf("gemini API key is required")
		}
	default:
		return fmt.Errorf("unknown summary backend %q", s.Backend)
	}

	return nil
}

func validateBounds(name string, minLength, maxLength int) error {
	if minLength < 0 {
		return fmt.Errorf("%s min length must not be negative", name)
	}
	if maxLength <= 0 {
		return fmt.Errorf("%s max length must be positive", name)
	}
	if minLength > maxLength {
		return fmt.Errorf("%s min length cannot be greater than max length", name)
	}
	return nil
}

// Helper functions for reading environment variables
func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid integer, using default")
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value, exists := os.LookupEnv(key); exists {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid boolean, using default")
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value, exists := os.LookupEnv(key); exists {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
		logrus.WithFields(logrus.Fields{
			"key":          key,
			"value":        value,
			"defaultValue": defaultValue,
		}).Warn("Invalid duration, using default")
	}
	return defaultValue
}

func getEnvAsStringSlice(key string, defaultValue []string) []string {
	if value, exists := os.LookupEnv(key); exists {
		if value = strings.TrimSpace(value); value != "" {
			parts := strings.Split(value, ",")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			return parts
		}
	}
	return defaultValue
}
