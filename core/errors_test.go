package core

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestErrorTaxonomy_MatchesThroughWrapping(t *testing.T) {
	cause := errors.New("connection reset")

	svc := fmt.Errorf("turn failed: %w", NewServiceError("Triage", "generate", cause))

	var se *ServiceError
	assert.True(t, errors.As(svc, &se))
	assert.Equal(t, "Triage", se.Agent)
	assert.ErrorIs(t, svc, cause)

	voice := NewVoiceServiceError(TextToSpeech, cause)

	var ve *VoiceServiceError
	assert.True(t, errors.As(voice, &ve))
	assert.Equal(t, TextToSpeech, ve.Direction)
	assert.Contains(t, voice.Error(), "text-to-speech")

	cfg := NewConfigurationError("OPENAI_API_KEY", "credential is required")
	assert.Equal(t, "configuration error: OPENAI_API_KEY: credential is required", cfg.Error())
}
