package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level application configuration.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Provider ProviderConfig `yaml:"provider"`
	Speech   SpeechConfig   `yaml:"speech"`
	Images   ImagesConfig   `yaml:"images"`
	Access   AccessConfig   `yaml:"access"`
	Logger   LoggerConfig   `yaml:"logger"`
	Tracer   TracerConfig   `yaml:"tracer"`
}

// AppConfig holds chat behavior settings.
type AppConfig struct {
	Name               string  `yaml:"name"`
	SystemPrompt       string  `yaml:"system_prompt"`
	Temperature        float64 `yaml:"temperature"`
	MaxTokens          int     `yaml:"max_tokens"`
	HistoryTokenBudget int     `yaml:"history_token_budget"` // trim provider history above this
}

// ProviderConfig holds settings for the generative-AI backend.
type ProviderConfig struct {
	Name            string               `yaml:"name"`
	BaseURL         string               `yaml:"base_url"`
	APIKey          string               `yaml:"api_key"`
	Model           string               `yaml:"model"`
	ImageModel      string               `yaml:"image_model"`
	SpeechModel     string               `yaml:"speech_model"`
	TranscribeModel string               `yaml:"transcribe_model"`
	ConnTimeout     time.Duration        `yaml:"conn_timeout"`
	RespTimeout     time.Duration        `yaml:"resp_timeout"`
	Pool            PoolConfig           `yaml:"pool"`
	CircuitBreaker  CircuitBreakerConfig `yaml:"circuit_breaker"`
}

// PoolConfig holds HTTP connection pool settings for provider calls.
type PoolConfig struct {
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	MaxConnsPerHost     int           `yaml:"max_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// CircuitBreakerConfig holds circuit breaker settings for the provider.
type CircuitBreakerConfig struct {
	Enabled     bool          `yaml:"enabled"`
	MaxFailures uint32        `yaml:"max_failures"`
	Timeout     time.Duration `yaml:"timeout"`
	Interval    time.Duration `yaml:"interval"`
}

// SpeechConfig holds text-to-speech and transcription settings.
type SpeechConfig struct {
	Voice     string     `yaml:"voice"`
	OutputDir string     `yaml:"output_dir"`
	Live      LiveConfig `yaml:"live"`
}

// LiveConfig holds realtime transcription session settings.
type LiveConfig struct {
	Enabled           bool   `yaml:"enabled"`
	BaseURL           string `yaml:"base_url"` // websocket endpoint
	SilenceDurationMs int    `yaml:"silence_duration_ms"`
}

// ImagesConfig holds image generation settings.
type ImagesConfig struct {
	OutputDir string `yaml:"output_dir"`
	Count     int    `yaml:"count"`
}

// AccessConfig holds the premium gate settings. CodeDigest and Salt are
// hex-encoded; the digest is Argon2id over the access code so the plaintext
// never lives in config.
type AccessConfig struct {
	CodeDigest string `yaml:"code_digest"`
	Salt       string `yaml:"salt"`
}

// LoggerConfig holds logging settings.
type LoggerConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // text, json
	Output string `yaml:"output"` // stdout, stderr, or file path
}

// TracerConfig holds OpenTelemetry settings.
type TracerConfig struct {
	Enabled  bool   `yaml:"enabled"`
	Exporter string `yaml:"exporter"` // "stdout" or "noop"
}

// Defaults returns a Config with sensible defaults applied.
func Defaults() *Config {
	return &Config{
		App: AppConfig{
			Name:               "sparkdesk",
			Temperature:        0.7,
			MaxTokens:          4096,
			HistoryTokenBudget: 24000,
		},
		Provider: ProviderConfig{
			Name:            "gemini",
			BaseURL:         "https://generativelanguage.googleapis.com",
			Model:           "gemini-2.5-flash",
			ImageModel:      "gemini-2.5-flash-image",
			SpeechModel:     "gemini-2.5-flash-preview-tts",
			TranscribeModel: "gemini-2.5-flash",
			ConnTimeout:     10 * time.Second,
			RespTimeout:     120 * time.Second,
			Pool: PoolConfig{
				MaxIdleConns:        10,
				MaxIdleConnsPerHost: 5,
				MaxConnsPerHost:     10,
				IdleConnTimeout:     90 * time.Second,
			},
			CircuitBreaker: CircuitBreakerConfig{
				Enabled:     true,
				MaxFailures: 5,
				Timeout:     30 * time.Second,
				Interval:    60 * time.Second,
			},
		},
		Speech: SpeechConfig{
			Voice:     "Kore",
			OutputDir: "./out/audio",
			Live: LiveConfig{
				BaseURL:           "wss://generativelanguage.googleapis.com/ws/google.ai.generativelanguage.v1beta.GenerativeService.BidiGenerateContent",
				SilenceDurationMs: 800,
			},
		},
		Images: ImagesConfig{
			OutputDir: "./out/images",
			Count:     2,
		},
		Logger: LoggerConfig{Level: "info", Format: "text", Output: "stderr"},
		Tracer: TracerConfig{Enabled: false, Exporter: "noop"},
	}
}

// Load reads a YAML config file and applies env var overrides. A missing
// file is not an error: defaults plus environment are used.
func Load(path string) (*Config, error) {
	cfg := Defaults()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			ApplyEnvOverrides(cfg)
			if err := Validate(cfg); err != nil {
				return nil, err
			}
			return cfg, nil
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	ApplyEnvOverrides(cfg)

	if err := Validate(cfg); err != nil {
		return nil, err
	}

	return cfg, nil
}

// ApplyEnvOverrides maps SPARKDESK_* env vars to config fields. The provider
// key also falls back to GEMINI_API_KEY for parity with the vendor tooling.
func ApplyEnvOverrides(cfg *Config) {
	if v := os.Getenv("SPARKDESK_API_KEY"); v != "" {
		cfg.Provider.APIKey = v
	} else if v := os.Getenv("GEMINI_API_KEY"); v != "" && cfg.Provider.APIKey == "" {
		cfg.Provider.APIKey = v
	}
	if v := os.Getenv("SPARKDESK_MODEL"); v != "" {
		cfg.Provider.Model = v
	}
	if v := os.Getenv("SPARKDESK_BASE_URL"); v != "" {
		cfg.Provider.BaseURL = v
	}
	if v := os.Getenv("SPARKDESK_LOGGER_LEVEL"); v != "" {
		cfg.Logger.Level = v
	}
	if v := os.Getenv("SPARKDESK_LOGGER_OUTPUT"); v != "" {
		cfg.Logger.Output = v
	}
	if v := os.Getenv("SPARKDESK_TRACER_ENABLED"); v == "true" {
		cfg.Tracer.Enabled = true
	}
	if v := os.Getenv("SPARKDESK_TRACER_EXPORTER"); v != "" {
		cfg.Tracer.Exporter = v
	}
	if v := os.Getenv("SPARKDESK_IMAGES_COUNT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.Images.Count = n
		}
	}
	if v := os.Getenv("SPARKDESK_SPEECH_VOICE"); v != "" {
		cfg.Speech.Voice = v
	}
}

// Validate checks config invariants that would otherwise surface as
// confusing runtime failures. A missing API key is deliberately not an
// error here: features surface it per call as an unavailable state.
func Validate(cfg *Config) error {
	if cfg.Provider.BaseURL == "" {
		return fmt.Errorf("provider.base_url must not be empty")
	}
	if cfg.Provider.Model == "" {
		return fmt.Errorf("provider.model must not be empty")
	}
	if cfg.App.Temperature < 0 || cfg.App.Temperature > 2 {
		return fmt.Errorf("app.temperature must be in [0, 2], got %g", cfg.App.Temperature)
	}
	if cfg.Images.Count < 1 || cfg.Images.Count > 4 {
		return fmt.Errorf("images.count must be in [1, 4], got %d", cfg.Images.Count)
	}
	if (cfg.Access.CodeDigest == "") != (cfg.Access.Salt == "") {
		return fmt.Errorf("access.code_digest and access.salt must be set together")
	}
	switch cfg.Tracer.Exporter {
	case "", "noop", "stdout":
	default:
		return fmt.Errorf("tracer.exporter must be noop or stdout, got %q", cfg.Tracer.Exporter)
	}
	return nil
}
