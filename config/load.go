package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/hupe1980/readaloud/core"
)

// DefaultFile is read from the working directory when no file is given.
const DefaultFile = "readaloud.yaml"

// Environment variables.
const (
	EnvOpenAIAPIKey    = "OPENAI_API_KEY"
	EnvAnthropicAPIKey = "ANTHROPIC_API_KEY"
	EnvOpenAIBaseURL   = "OPENAI_BASE_URL"

	envPrefix = "READALOUD_"
)

// Load builds a Config from defaults, the settings file, .env files and the
// environment. An explicit path must exist; the default file is optional.
func Load(path string, envFiles ...string) (Config, error) {
	cfg := Default()

	if err := loadFile(&cfg, path); err != nil {
		return Config{}, err
	}

	if err := LoadDotEnv(envFiles...); err != nil {
		return Config{}, core.NewConfigurationError("dotenv", "%v", err)
	}

	if err := applyEnv(&cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func loadFile(cfg *Config, path string) error {
	explicit := path != ""
	if !explicit {
		path = DefaultFile
	}

	f, err := os.Open(path) //nolint:gosec // operator supplied
	if err != nil {
		if !explicit && errors.Is(err, os.ErrNotExist) {
			return nil
		}

		return core.NewConfigurationError("config", "failed to open %s: %v", path, err)
	}
	defer f.Close()

	if err := Decode(f, cfg); err != nil {
		return core.NewConfigurationError("config", "%s: %v", path, err)
	}

	return nil
}

// Decode overlays YAML settings from r onto cfg. Unknown keys are rejected.
func Decode(r io.Reader, cfg *Config) error {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("failed to decode settings: %w", err)
	}

	return nil
}

// LoadDotEnv loads the given .env files and ./.env when present. Variables
// that are already set are never overwritten.
func LoadDotEnv(paths ...string) error {
	for _, p := range append(paths, ".env") {
		if p == "" {
			continue
		}

		if _, err := os.Stat(p); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				continue
			}

			return err
		}

		if err := godotenv.Load(filepath.Clean(p)); err != nil {
			return fmt.Errorf("failed to load %s: %w", p, err)
		}
	}

	return nil
}

func applyEnv(cfg *Config) error {
	setString(&cfg.OpenAIAPIKey, EnvOpenAIAPIKey)
	setString(&cfg.AnthropicAPIKey, EnvAnthropicAPIKey)
	setString(&cfg.BaseURL, EnvOpenAIBaseURL)

	setString(&cfg.Provider, envPrefix+"PROVIDER")
	setString(&cfg.Model, envPrefix+"MODEL")
	setString(&cfg.BaseURL, envPrefix+"BASE_URL")
	setString(&cfg.Routing, envPrefix+"ROUTING")
	setString(&cfg.CatalogPath, envPrefix+"CATALOG")
	setString(&cfg.Voice.Voice, envPrefix+"VOICE")
	setString(&cfg.Voice.OutputDir, envPrefix+"AUDIO_DIR")
	setString(&cfg.Logging.Level, envPrefix+"LOG_LEVEL")
	setString(&cfg.Logging.Format, envPrefix+"LOG_FORMAT")
	setString(&cfg.Tracing.Exporter, envPrefix+"TRACING_EXPORTER")
	setString(&cfg.Tracing.Endpoint, envPrefix+"TRACING_ENDPOINT")
	setString(&cfg.Metrics.Addr, envPrefix+"METRICS_ADDR")

	cfg.Provider = strings.ToLower(cfg.Provider)
	cfg.Routing = strings.ToLower(cfg.Routing)

	return errors.Join(
		setInt(&cfg.MaxResponseChars, envPrefix+"MAX_RESPONSE_CHARS"),
		setInt(&cfg.MaxHandoffs, envPrefix+"MAX_HANDOFFS"),
		setInt(&cfg.MaxModelCalls, envPrefix+"MAX_MODEL_CALLS"),
		setInt(&cfg.MaxConsecutiveErrors, envPrefix+"MAX_CONSECUTIVE_ERRORS"),
		setDuration(&cfg.ResponseTimeout, envPrefix+"RESPONSE_TIMEOUT"),
		setBool(&cfg.ChainedHandoffs, envPrefix+"CHAINED_HANDOFFS"),
		setBool(&cfg.Streaming, envPrefix+"STREAMING"),
		setBool(&cfg.Metrics.Enabled, envPrefix+"METRICS_ENABLED"),
		setFloat(&cfg.Voice.Speed, envPrefix+"VOICE_SPEED"),
	)
}

func setString(dst *string, name string) {
	if v, ok := os.LookupEnv(name); ok && strings.TrimSpace(v) != "" {
		*dst = strings.TrimSpace(v)
	}
}

func setInt(dst *int, name string) error {
	return parseEnv(name, func(v string) error {
		n, err := strconv.Atoi(v)
		*dst = n

		return err
	})
}

func setFloat(dst *float64, name string) error {
	return parseEnv(name, func(v string) error {
		f, err := strconv.ParseFloat(v, 64)
		*dst = f

		return err
	})
}

func setBool(dst *bool, name string) error {
	return parseEnv(name, func(v string) error {
		b, err := strconv.ParseBool(v)
		*dst = b

		return err
	})
}

// setDuration accepts Go durations and plain seconds.
func setDuration(dst *time.Duration, name string) error {
	return parseEnv(name, func(v string) error {
		if secs, err := strconv.Atoi(v); err == nil {
			*dst = time.Duration(secs) * time.Second
			return nil
		}

		d, err := time.ParseDuration(v)
		*dst = d

		return err
	})
}

func parseEnv(name string, parse func(string) error) error {
	v, ok := os.LookupEnv(name)
	if !ok || strings.TrimSpace(v) == "" {
		return nil
	}

	if err := parse(strings.TrimSpace(v)); err != nil {
		return core.NewConfigurationError(name, "invalid value %q", v)
	}

	return nil
}
