// Package config loads readaloud settings.
//
// Values are layered, later layers winning:
//
//  1. Default()
//  2. the YAML settings file (readaloud.yaml when present)
//  3. .env files, which never override variables already set
//  4. environment variables (READALOUD_*, OPENAI_API_KEY, ANTHROPIC_API_KEY)
//  5. command line flags, applied by the caller
//
// Validate reports every problem as a *core.ConfigurationError.
package config

import (
	"time"

	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/observability"
)

// Providers.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// Routing strategies.
const (
	RoutingModel   = "model"
	RoutingKeyword = "keyword"
)

// Config is the complete runtime configuration.
type Config struct {
	// Provider serves chat completions: openai or anthropic.
	Provider string `yaml:"provider"`
	// Model overrides the provider's default chat model.
	Model string `yaml:"model"`
	// BaseURL points the OpenAI client at a compatible endpoint.
	BaseURL string `yaml:"base_url"`

	OpenAIAPIKey    string `yaml:"-"`
	AnthropicAPIKey string `yaml:"-"`

	// Routing selects the triage classifier: model or keyword.
	Routing string `yaml:"routing"`
	// CatalogPath replaces the embedded reading catalog.
	CatalogPath string `yaml:"catalog_path"`

	MaxResponseChars     int           `yaml:"max_response_chars"`
	ResponseTimeout      time.Duration `yaml:"response_timeout"`
	MaxHandoffs          int           `yaml:"max_handoffs"`
	MaxModelCalls        int           `yaml:"max_model_calls"`
	MaxConsecutiveErrors int           `yaml:"max_consecutive_errors"`
	ChainedHandoffs      bool          `yaml:"chained_handoffs"`
	Streaming            bool          `yaml:"streaming"`

	Voice   VoiceConfig                 `yaml:"voice"`
	Logging LoggingConfig               `yaml:"logging"`
	Tracing observability.TracingConfig `yaml:"tracing"`
	Metrics observability.MetricsConfig `yaml:"metrics"`
}

// VoiceConfig holds speech settings.
type VoiceConfig struct {
	Voice              string   `yaml:"voice"`
	Speed              float64  `yaml:"speed"`
	SpeechModel        string   `yaml:"speech_model"`
	TranscriptionModel string   `yaml:"transcription_model"`
	Language           string   `yaml:"language"`
	Format             string   `yaml:"format"`
	Instructions       string   `yaml:"instructions"`
	RecordCommand      []string `yaml:"record_command"`
	PlayCommand        []string `yaml:"play_command"`
	// OutputDir receives answers as files instead of playing them.
	OutputDir string `yaml:"output_dir"`
}

// LoggingConfig selects the log level and format.
type LoggingConfig struct {
	Level     string `yaml:"level"`
	Format    string `yaml:"format"`
	AddSource bool   `yaml:"add_source"`
}

// Default returns the built-in configuration.
func Default() Config {
	return Config{
		Provider:             ProviderOpenAI,
		Routing:              RoutingModel,
		MaxResponseChars:     200,
		ResponseTimeout:      30 * time.Second,
		MaxHandoffs:          3,
		MaxModelCalls:        10,
		MaxConsecutiveErrors: 3,
		Voice: VoiceConfig{
			Voice:              "alloy",
			Speed:              0.9,
			SpeechModel:        "tts-1",
			TranscriptionModel: "whisper-1",
			Language:           "en",
			Format:             "wav",
		},
		Logging: LoggingConfig{Level: "warn", Format: "text"},
		Tracing: observability.TracingConfig{Exporter: observability.ExporterNone, SamplingRate: 1, ServiceName: "readaloud"},
		Metrics: observability.MetricsConfig{Addr: ":9090"},
	}
}

// APIKey returns the credential of the selected provider.
func (c Config) APIKey() string {
	if c.Provider == ProviderAnthropic {
		return c.AnthropicAPIKey
	}

	return c.OpenAIAPIKey
}

// CredentialEnv names the environment variable holding the provider credential.
func (c Config) CredentialEnv() string {
	if c.Provider == ProviderAnthropic {
		return EnvAnthropicAPIKey
	}

	return EnvOpenAIAPIKey
}

var voices = map[string]bool{"alloy": true, "ash": true, "ballad": true, "coral": true, "echo": true, "fable": true, "nova": true, "onyx": true, "sage": true, "shimmer": true, "verse": true}

// Validate checks the configuration needed for text sessions.
func (c Config) Validate() error {
	switch c.Provider {
	case ProviderOpenAI, ProviderAnthropic:
	default:
		return core.NewConfigurationError("provider", "unsupported provider %q (want openai or anthropic)", c.Provider)
	}

	if c.APIKey() == "" {
		return core.NewConfigurationError(c.CredentialEnv(), "is required for the %s provider", c.Provider)
	}

	switch c.Routing {
	case RoutingModel, RoutingKeyword:
	default:
		return core.NewConfigurationError("routing", "unsupported routing %q (want model or keyword)", c.Routing)
	}

	if c.MaxResponseChars <= 0 {
		return core.NewConfigurationError("max_response_chars", "must be positive, got %d", c.MaxResponseChars)
	}

	if c.ResponseTimeout <= 0 {
		return core.NewConfigurationError("response_timeout", "must be positive, got %s", c.ResponseTimeout)
	}

	if c.MaxHandoffs < 1 {
		return core.NewConfigurationError("max_handoffs", "must be at least 1, got %d", c.MaxHandoffs)
	}

	if c.MaxModelCalls < 1 {
		return core.NewConfigurationError("max_model_calls", "must be at least 1, got %d", c.MaxModelCalls)
	}

	if c.MaxConsecutiveErrors < 0 {
		return core.NewConfigurationError("max_consecutive_errors", "must not be negative, got %d", c.MaxConsecutiveErrors)
	}

	return nil
}

// ValidateVoice checks the extra configuration needed for spoken sessions.
// Speech always runs on OpenAI, whatever the chat provider.
func (c Config) ValidateVoice() error {
	if c.OpenAIAPIKey == "" {
		return core.NewConfigurationError(EnvOpenAIAPIKey, "is required for voice mode")
	}

	if !voices[c.Voice.Voice] {
		return core.NewConfigurationError("voice.voice", "unsupported voice %q", c.Voice.Voice)
	}

	if c.Voice.Speed < 0.25 || c.Voice.Speed > 4.0 {
		return core.NewConfigurationError("voice.speed", "must be between 0.25 and 4.0, got %g", c.Voice.Speed)
	}

	if c.Voice.Format == "" {
		return core.NewConfigurationError("voice.format", "must not be empty")
	}

	return nil
}
