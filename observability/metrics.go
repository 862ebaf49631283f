package observability

import (
	"context"
	"fmt"
	"net/http"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/metric"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// MetricsConfig enables the Prometheus endpoint.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Addr    string `yaml:"addr"`
}

// Metrics records classroom counters and histograms. A nil *Metrics, or one
// built with metrics disabled, records nothing.
type Metrics struct {
	registry *promclient.Registry
	provider *sdkmetric.MeterProvider

	turns         metric.Int64Counter
	turnErrors    metric.Int64Counter
	turnDuration  metric.Float64Histogram
	handoffs      metric.Int64Counter
	toolCalls     metric.Int64Counter
	voiceCalls    metric.Int64Counter
	voiceFailures metric.Int64Counter
}

// NewMetrics builds the instruments on a private Prometheus registry.
func NewMetrics(cfg MetricsConfig) (*Metrics, error) {
	if !cfg.Enabled {
		return &Metrics{}, nil
	}

	registry := promclient.NewRegistry()

	exporter, err := prometheus.New(prometheus.WithRegisterer(registry))
	if err != nil {
		return nil, fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(exporter))
	meter := provider.Meter("readaloud")

	m := &Metrics{registry: registry, provider: provider}

	if m.turns, err = meter.Int64Counter("readaloud_turns_total",
		metric.WithDescription("Total completed turns")); err != nil {
		return nil, fmt.Errorf("failed to create turns counter: %w", err)
	}

	if m.turnErrors, err = meter.Int64Counter("readaloud_turn_errors_total",
		metric.WithDescription("Total failed turns")); err != nil {
		return nil, fmt.Errorf("failed to create turn errors counter: %w", err)
	}

	if m.turnDuration, err = meter.Float64Histogram("readaloud_turn_duration_seconds",
		metric.WithDescription("Turn duration in seconds")); err != nil {
		return nil, fmt.Errorf("failed to create turn duration histogram: %w", err)
	}

	if m.handoffs, err = meter.Int64Counter("readaloud_handoffs_total",
		metric.WithDescription("Total handoffs between agents")); err != nil {
		return nil, fmt.Errorf("failed to create handoffs counter: %w", err)
	}

	if m.toolCalls, err = meter.Int64Counter("readaloud_tool_calls_total",
		metric.WithDescription("Total tool calls")); err != nil {
		return nil, fmt.Errorf("failed to create tool calls counter: %w", err)
	}

	if m.voiceCalls, err = meter.Int64Counter("readaloud_voice_calls_total",
		metric.WithDescription("Total speech-to-text and text-to-speech calls")); err != nil {
		return nil, fmt.Errorf("failed to create voice calls counter: %w", err)
	}

	if m.voiceFailures, err = meter.Int64Counter("readaloud_voice_failures_total",
		metric.WithDescription("Total failed voice calls")); err != nil {
		return nil, fmt.Errorf("failed to create voice failures counter: %w", err)
	}

	return m, nil
}

func (m *Metrics) enabled() bool { return m != nil && m.turns != nil }

// RecordTurn counts a finished turn by responder.
func (m *Metrics) RecordTurn(ctx context.Context, responder string, duration time.Duration, err error) {
	if !m.enabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String("responder", responder))

	m.turns.Add(ctx, 1, attrs)
	m.turnDuration.Record(ctx, duration.Seconds(), attrs)

	if err != nil {
		m.turnErrors.Add(ctx, 1, attrs)
	}
}

// RecordHandoff counts a delegation.
func (m *Metrics) RecordHandoff(ctx context.Context, from, to string) {
	if !m.enabled() {
		return
	}

	m.handoffs.Add(ctx, 1, metric.WithAttributes(
		attribute.String("from", from),
		attribute.String("to", to),
	))
}

// RecordToolCall counts a tool invocation.
func (m *Metrics) RecordToolCall(ctx context.Context, tool string, failed bool) {
	if !m.enabled() {
		return
	}

	m.toolCalls.Add(ctx, 1, metric.WithAttributes(
		attribute.String("tool", tool),
		attribute.Bool("failed", failed),
	))
}

// RecordVoice counts a voice pipeline call by direction.
func (m *Metrics) RecordVoice(ctx context.Context, direction string, err error) {
	if !m.enabled() {
		return
	}

	attrs := metric.WithAttributes(attribute.String("direction", direction))

	m.voiceCalls.Add(ctx, 1, attrs)

	if err != nil {
		m.voiceFailures.Add(ctx, 1, attrs)
	}
}

// Handler serves the Prometheus exposition format. Disabled metrics serve 404.
func (m *Metrics) Handler() http.Handler {
	if !m.enabled() {
		return http.NotFoundHandler()
	}

	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// Shutdown stops the meter provider.
func (m *Metrics) Shutdown(ctx context.Context) error {
	if !m.enabled() {
		return nil
	}

	return m.provider.Shutdown(ctx)
}
