// Command readaloud is a voice reading teacher for preschoolers.
//
// Without a subcommand it runs the scripted demo and then offers an
// interactive voice session when attached to a terminal.
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.opentelemetry.io/otel"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/hupe1980/readaloud"
	"github.com/hupe1980/readaloud/config"
	"github.com/hupe1980/readaloud/core"
	"github.com/hupe1980/readaloud/driver"
	"github.com/hupe1980/readaloud/observability"
	"github.com/hupe1980/readaloud/voice"
)

// CLI is the command line surface. Flags override the settings file and
// the environment.
type CLI struct {
	Demo    DemoCmd    `cmd:"" default:"withargs" help:"Run the scripted demo, then offer a voice session."`
	Chat    ChatCmd    `cmd:"" help:"Type questions to the teacher."`
	Voice   VoiceCmd   `cmd:"" help:"Talk to the teacher."`
	Version VersionCmd `cmd:"" help:"Show version information."`

	Config      string `short:"c" help:"Path to the settings file (default: ./readaloud.yaml when present)." type:"path"`
	EnvFile     string `name:"env-file" help:"Additional .env file to load." type:"path"`
	Provider    string `help:"Chat provider (openai, anthropic)."`
	Model       string `help:"Chat model name."`
	Routing     string `help:"Routing strategy (model, keyword)."`
	Chained     *bool  `negatable:"" help:"Allow specialists to hand off to each other."`
	Speak       bool   `help:"Speak every answer."`
	ShowRouting bool   `name:"show-routing" help:"Print the handoff chain of each turn."`
	LogLevel    string `name:"log-level" help:"Log level (debug, info, warn, error)."`
	LogFormat   string `name:"log-format" help:"Log format (text, json)."`
	Trace       string `help:"Trace exporter (none, stdout, otlp)."`
	Metrics     bool   `help:"Serve Prometheus metrics."`
	MetricsAddr string `name:"metrics-addr" help:"Metrics listen address."`
}

// VersionCmd prints the version.
type VersionCmd struct{}

// Run implements the version command.
func (c *VersionCmd) Run() error {
	fmt.Printf("readaloud version %s\n", readaloud.Version)
	return nil
}

// DemoCmd replays the four scripted questions.
type DemoCmd struct {
	NoVoice bool `name:"no-voice" help:"Skip the voice session offer."`
}

// Run implements the demo command.
func (c *DemoCmd) Run(cli *CLI) error {
	return cli.session(func(ctx context.Context, s *app) error {
		fmt.Fprintln(os.Stdout, "PRESCHOOL READING AI - CHAINED VOICE AGENT DEMO")
		fmt.Fprintln(os.Stdout, strings.Repeat("=", 60))

		pipeline, err := s.speakPipeline()
		if err != nil {
			return err
		}

		d := s.classroom.NewDriver(s.driverOptions(pipeline))

		demoCtx, span := otel.Tracer("github.com/hupe1980/readaloud/cmd/readaloud").Start(ctx, "readaloud.demo")
		err = d.Run(demoCtx, driver.NewScriptSource())
		span.End()

		if err != nil {
			d.Close()
			return err
		}

		if c.NoVoice || !term.IsTerminal(int(os.Stdin.Fd())) || !confirm("\nWould you like to try voice mode? (y/n): ") {
			d.Close()
			return nil
		}

		return s.voiceSession(ctx, d.SessionID())
	})
}

// ChatCmd runs a typed session.
type ChatCmd struct{}

// Run implements the chat command.
func (c *ChatCmd) Run(cli *CLI) error {
	return cli.session(func(ctx context.Context, s *app) error {
		fmt.Fprintln(os.Stdout, "Type your question for the teacher. Type 'quit' to exit.")

		pipeline, err := s.speakPipeline()
		if err != nil {
			return err
		}

		d := s.classroom.NewDriver(s.driverOptions(pipeline))
		defer d.Close()

		return d.Run(ctx, driver.NewTextSource(os.Stdin, os.Stdout))
	})
}

// VoiceCmd runs a spoken session.
type VoiceCmd struct{}

// Run implements the voice command.
func (c *VoiceCmd) Run(cli *CLI) error {
	return cli.session(func(ctx context.Context, s *app) error {
		return s.voiceSession(ctx, "")
	})
}

// app is what every session command shares.
type app struct {
	cli       *CLI
	classroom *readaloud.Classroom
}

// speakPipeline returns the voice pipeline when answers should be spoken.
func (s *app) speakPipeline() (*voice.Pipeline, error) {
	if !s.cli.Speak {
		return nil, nil
	}

	return s.classroom.NewVoicePipeline()
}

func (s *app) driverOptions(pipeline *voice.Pipeline) func(o *driver.Options) {
	return func(o *driver.Options) {
		presenter := driver.NewConsolePresenter(os.Stdout)
		presenter.ShowRouting = s.cli.ShowRouting

		o.Presenter = presenter
		o.Voice = pipeline
		o.Speak = pipeline != nil
		o.Player = newPlayer(s.classroom.Config.Voice)
	}
}

// voiceSession runs spoken input, continuing sessionID when set.
func (s *app) voiceSession(ctx context.Context, sessionID string) error {
	pipeline, err := s.classroom.NewVoicePipeline()
	if err != nil {
		return err
	}

	vc := s.classroom.Config.Voice

	recorder := voice.NewCommandRecorder()
	if len(vc.RecordCommand) > 0 {
		recorder.Command = vc.RecordCommand
	}

	recorder.Format = vc.Format

	src := driver.NewVoiceSource(os.Stdin, os.Stdout, recorder)

	fmt.Fprintln(os.Stdout, "\n=== PRESCHOOL READING AI - VOICE MODE ===")
	fmt.Fprintln(os.Stdout, "Press Enter to speak, then press Enter again to stop recording.")
	fmt.Fprintln(os.Stdout, "Type 'quit' to exit.")

	d := s.classroom.NewDriver(s.driverOptions(pipeline), func(o *driver.Options) {
		o.SessionID = sessionID
		o.Fallback = src.Fallback()
	})
	defer d.Close()

	return d.Run(ctx, src)
}

func newPlayer(vc config.VoiceConfig) voice.Player {
	if vc.OutputDir != "" {
		return voice.NewFilePlayer(vc.OutputDir)
	}

	p := voice.NewCommandPlayer()
	if len(vc.PlayCommand) > 0 {
		p.Command = vc.PlayCommand
	}

	return p
}

// load merges settings file, environment and flags.
func (cli *CLI) load() (config.Config, error) {
	var envFiles []string
	if cli.EnvFile != "" {
		envFiles = append(envFiles, cli.EnvFile)
	}

	cfg, err := config.Load(cli.Config, envFiles...)
	if err != nil {
		return config.Config{}, err
	}

	override(&cfg.Provider, strings.ToLower(cli.Provider))
	override(&cfg.Model, cli.Model)
	override(&cfg.Routing, strings.ToLower(cli.Routing))
	override(&cfg.Logging.Level, cli.LogLevel)
	override(&cfg.Logging.Format, cli.LogFormat)
	override(&cfg.Tracing.Exporter, cli.Trace)
	override(&cfg.Metrics.Addr, cli.MetricsAddr)

	if cli.Chained != nil {
		cfg.ChainedHandoffs = *cli.Chained
	}

	if cli.Metrics {
		cfg.Metrics.Enabled = true
	}

	return cfg, nil
}

func override(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

// session sets up tracing, metrics and the classroom, then runs body next to
// the optional metrics server.
func (cli *CLI) session(body func(ctx context.Context, s *app) error) error {
	cfg, err := cli.load()
	if err != nil {
		return err
	}

	// Credentials are checked before any tracing or metrics setup.
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := observability.InitTracing(ctx, cfg.Tracing)
	if err != nil {
		return core.NewConfigurationError("tracing", "%v", err)
	}

	defer func() {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		_ = shutdownTracing(sctx)
	}()

	metrics, err := observability.NewMetrics(cfg.Metrics)
	if err != nil {
		return err
	}

	classroom, err := readaloud.New(cfg, func(o *readaloud.Options) { o.Metrics = metrics })
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(ctx)

	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", metrics.Handler())

		srv := &http.Server{Addr: cfg.Metrics.Addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}

		g.Go(func() error {
			if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}

			return nil
		})

		g.Go(func() error {
			<-gctx.Done()

			sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()

			_ = srv.Shutdown(sctx)

			return metrics.Shutdown(sctx)
		})
	}

	g.Go(func() error {
		defer cancel()

		// Blocked terminal reads only return once stdin is closed.
		go func() {
			<-gctx.Done()
			_ = os.Stdin.Close()
		}()

		err := body(gctx, &app{cli: cli, classroom: classroom})
		if gctx.Err() != nil {
			return nil
		}

		return err
	})

	return g.Wait()
}

func confirm(prompt string) bool {
	fmt.Fprint(os.Stdout, prompt)

	var answer string
	if _, err := fmt.Fscanln(os.Stdin, &answer); err != nil {
		return false
	}

	return strings.EqualFold(strings.TrimSpace(answer), "y")
}

func main() {
	var cli CLI

	kctx := kong.Parse(&cli,
		kong.Name("readaloud"),
		kong.Description("Preschool reading teacher with phonics, sight-word and progress specialists."),
		kong.UsageOnError(),
	)

	err := kctx.Run(&cli)

	var cfgErr *core.ConfigurationError
	if errors.As(err, &cfgErr) {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	kctx.FatalIfErrorf(err)
}
