package observability

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
)

func TestMetrics_NilSafe(t *testing.T) {
	ctx := context.Background()

	var m *Metrics

	m.RecordTurn(ctx, "PhonicsTeacher", time.Second, nil)
	m.RecordHandoff(ctx, "MainTeacher", "PhonicsTeacher")
	m.RecordToolCall(ctx, "get_sight_words", false)
	m.RecordVoice(ctx, "text-to-speech", errors.New("down"))
	assert.NoError(t, m.Shutdown(ctx))

	disabled, err := NewMetrics(MetricsConfig{})
	require.NoError(t, err)
	disabled.RecordTurn(ctx, "PhonicsTeacher", time.Second, nil)

	rec := httptest.NewRecorder()
	disabled.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestMetrics_Prometheus(t *testing.T) {
	ctx := context.Background()

	m, err := NewMetrics(MetricsConfig{Enabled: true})
	require.NoError(t, err)

	t.Cleanup(func() { _ = m.Shutdown(ctx) })

	m.RecordTurn(ctx, "PhonicsTeacher", 150*time.Millisecond, nil)
	m.RecordTurn(ctx, "MainTeacher", 80*time.Millisecond, errors.New("boom"))
	m.RecordHandoff(ctx, "MainTeacher", "PhonicsTeacher")
	m.RecordToolCall(ctx, "create_phonics_exercise", false)
	m.RecordVoice(ctx, "speech-to-text", nil)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)

	text := string(body)
	assert.Contains(t, text, "readaloud_turns_total")
	assert.Contains(t, text, `responder="PhonicsTeacher"`)
	assert.Contains(t, text, "readaloud_handoffs_total")
	assert.Contains(t, text, "readaloud_turn_errors_total")
}

func TestInitTracing(t *testing.T) {
	ctx := context.Background()

	shutdown, err := InitTracing(ctx, TracingConfig{Exporter: ExporterNone})
	require.NoError(t, err)
	assert.NoError(t, shutdown(ctx))

	_, err = InitTracing(ctx, TracingConfig{Exporter: "carrier-pigeon"})
	assert.Error(t, err)

	var buf bytes.Buffer

	shutdown, err = InitTracing(ctx, TracingConfig{Exporter: ExporterStdout, Output: &buf})
	require.NoError(t, err)

	_, span := otel.Tracer("test").Start(ctx, "turn.demo")
	span.End()

	require.NoError(t, shutdown(ctx))
	assert.Contains(t, buf.String(), "turn.demo")
}
