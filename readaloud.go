// Package readaloud assembles the preschool reading classroom: a main
// teacher that routes each turn to a phonics, sight-words or progress
// specialist, the reading tools behind them and the runner that executes
// turns.
//
// Typical use:
//
//	cfg, _ := config.Load("")
//	classroom, err := readaloud.New(cfg)
//	if err != nil { ... } // *core.ConfigurationError
//	d := classroom.NewDriver()
//	_ = d.Run(ctx, driver.NewScriptSource())
package readaloud

import (
	"fmt"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/readaloud/agent"
	"github.com/hupe1980/readaloud/config"
	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/curriculum"
	"github.com/hupe1980/readaloud/driver"
	"github.com/hupe1980/readaloud/logging"
	"github.com/hupe1980/readaloud/model"
	"github.com/hupe1980/readaloud/model/anthropic"
	"github.com/hupe1980/readaloud/model/openai"
	"github.com/hupe1980/readaloud/observability"
	"github.com/hupe1980/readaloud/route"
	"github.com/hupe1980/readaloud/runner"
	"github.com/hupe1980/readaloud/voice"
)

// Version is the release version.
const Version = "0.1.0"

// Options override the components New would build from the configuration.
type Options struct {
	// Model replaces the provider chat model.
	Model model.Model
	// Classifier replaces the configured routing strategy.
	Classifier route.Classifier
	// Catalog replaces the configured reading catalog.
	Catalog *curriculum.Catalog
	Logger  logging.Logger
	Metrics *observability.Metrics
	// SessionStore and ArtifactStore default to in-memory stores.
	SessionStore  core.SessionStore
	ArtifactStore core.ArtifactStore
}

// Classroom is a configured set of agents ready to run sessions.
type Classroom struct {
	Config   config.Config
	Catalog  *curriculum.Catalog
	Registry *agent.Registry
	Runner   *runner.Runner
	Logger   logging.Logger
	Metrics  *observability.Metrics
}

// New validates cfg and builds the classroom. Invalid or missing settings,
// the provider credential first of all, are reported as
// *core.ConfigurationError before anything else happens.
func New(cfg config.Config, optFns ...func(o *Options)) (*Classroom, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var opts Options
	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		logger, err := NewLogger(cfg.Logging)
		if err != nil {
			return nil, err
		}

		opts.Logger = logger
	}

	if opts.Catalog == nil {
		catalog, err := loadCatalog(cfg.CatalogPath)
		if err != nil {
			return nil, err
		}

		opts.Catalog = catalog
	}

	if opts.Model == nil {
		opts.Model = NewModel(cfg)
	}

	if opts.Classifier == nil {
		opts.Classifier = NewClassifier(cfg, opts.Model)
	}

	registry, err := agent.NewClassroom(opts.Model, opts.Catalog, func(o *agent.ClassroomOptions) {
		o.Classifier = opts.Classifier
		o.TriageModel = opts.Model
		o.MaxResponseChars = cfg.MaxResponseChars
		o.EnableStreaming = cfg.Streaming
		o.ChainedHandoffs = cfg.ChainedHandoffs
	})
	if err != nil {
		return nil, err
	}

	r := runner.New(registry, func(o *runner.Options) {
		o.MaxHandoffs = cfg.MaxHandoffs
		o.MaxModelCalls = cfg.MaxModelCalls
		o.Timeout = cfg.ResponseTimeout
		o.Logger = opts.Logger
		o.Metrics = opts.Metrics

		if opts.SessionStore != nil {
			o.SessionStore = opts.SessionStore
		}

		if opts.ArtifactStore != nil {
			o.ArtifactStore = opts.ArtifactStore
		}
	})

	opts.Logger.Info("classroom.ready",
		"provider", cfg.Provider,
		"model", opts.Model.Info().Name,
		"routing", cfg.Routing,
		"agents", registry.Names(),
	)

	return &Classroom{
		Config:   cfg,
		Catalog:  opts.Catalog,
		Registry: registry,
		Runner:   r,
		Logger:   opts.Logger,
		Metrics:  opts.Metrics,
	}, nil
}

// NewDriver starts a session driver on the classroom runner.
func (c *Classroom) NewDriver(optFns ...func(o *driver.Options)) *driver.Driver {
	return driver.New(c.Runner, append([]func(o *driver.Options){func(o *driver.Options) {
		o.MaxConsecutiveErrors = c.Config.MaxConsecutiveErrors
		o.Logger = c.Logger
	}}, optFns...)...)
}

// NewVoicePipeline builds the OpenAI speech pipeline from the voice settings.
func (c *Classroom) NewVoicePipeline() (*voice.Pipeline, error) {
	if err := c.Config.ValidateVoice(); err != nil {
		return nil, err
	}

	vc := c.Config.Voice

	client := voice.NewOpenAI(func(o *voice.OpenAIOptions) {
		o.APIKey = c.Config.OpenAIAPIKey
		o.BaseURL = c.Config.BaseURL
		o.Voice = vc.Voice
		o.Speed = vc.Speed
		o.SpeechModel = vc.SpeechModel
		o.TranscriptionModel = vc.TranscriptionModel
		o.Language = vc.Language
		o.Format = vc.Format

		if vc.Instructions != "" {
			o.Instructions = vc.Instructions
		}
	})

	return voice.NewPipeline(client, client, func(o *voice.Options) {
		o.Logger = c.Logger
		o.Metrics = c.Metrics
	}), nil
}

// NewModel builds the chat model of the configured provider.
func NewModel(cfg config.Config) model.Model {
	if cfg.Provider == config.ProviderAnthropic {
		return anthropic.NewModel(func(o *anthropic.Options) {
			o.APIKey = cfg.AnthropicAPIKey

			if cfg.Model != "" {
				o.Model = anthropicsdk.Model(cfg.Model)
			}
		})
	}

	return openai.NewModel(func(o *openai.Options) {
		o.APIKey = cfg.OpenAIAPIKey
		o.BaseURL = cfg.BaseURL

		if cfg.Model != "" {
			o.Model = cfg.Model
		}
	})
}

// NewClassifier builds the triage routing strategy. Model routing tries the
// deterministic keyword match first and asks the model only when it is
// inconclusive.
func NewClassifier(cfg config.Config, llm model.Model) route.Classifier {
	keywords := route.NewKeywordClassifier()

	if cfg.Routing == config.RoutingKeyword || llm == nil {
		return keywords
	}

	return route.Chain(keywords, route.NewModelClassifier(llm))
}

// NewLogger builds the classroom logger from the logging settings.
func NewLogger(cfg config.LoggingConfig) (*logging.ClassroomLogger, error) {
	level, err := logging.ParseLevel(cfg.Level)
	if err != nil {
		return nil, core.NewConfigurationError("logging.level", "%v", err)
	}

	return logging.NewSlogLogger(level, cfg.Format, cfg.AddSource), nil
}

func loadCatalog(path string) (*curriculum.Catalog, error) {
	if path == "" {
		catalog, err := curriculum.Default()
		if err != nil {
			return nil, fmt.Errorf("failed to load embedded catalog: %w", err)
		}

		return catalog, nil
	}

	catalog, err := curriculum.LoadFile(path)
	if err != nil {
		return nil, core.NewConfigurationError("catalog_path", "%v", err)
	}

	return catalog, nil
}
