package core

import "fmt"

// ConfigurationError reports invalid or missing startup configuration.
// It is fatal: no session starts when one is returned.
type ConfigurationError struct {
	Field   string
	Message string
}

// Error implements the error interface.
func (e *ConfigurationError) Error() string {
	if e.Field == "" {
		return fmt.Sprintf("configuration error: %s", e.Message)
	}

	return fmt.Sprintf("configuration error: %s: %s", e.Field, e.Message)
}

// NewConfigurationError creates a ConfigurationError for field.
func NewConfigurationError(field, format string, args ...any) *ConfigurationError {
	return &ConfigurationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// ServiceError reports a failed routing or response generation call. The
// session driver reports it as a turn failure and keeps the session running.
type ServiceError struct {
	Agent string
	Op    string
	Err   error
}

// Error implements the error interface.
func (e *ServiceError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("service error during %s: %v", e.Op, e.Err)
	}

	return fmt.Sprintf("service error in agent %s during %s: %v", e.Agent, e.Op, e.Err)
}

// Unwrap returns the underlying cause.
func (e *ServiceError) Unwrap() error { return e.Err }

// NewServiceError wraps err as a ServiceError.
func NewServiceError(agent, op string, err error) *ServiceError {
	return &ServiceError{Agent: agent, Op: op, Err: err}
}

// VoiceDirection names the direction of a voice pipeline call.
type VoiceDirection string

const (
	// SpeechToText converts recorded audio into text.
	SpeechToText VoiceDirection = "speech-to-text"
	// TextToSpeech converts a response into audio.
	TextToSpeech VoiceDirection = "text-to-speech"
)

// VoiceServiceError reports a failed speech-to-text or text-to-speech call.
// The session driver degrades the affected turn to text only.
type VoiceServiceError struct {
	Direction VoiceDirection
	Err       error
}

// Error implements the error interface.
func (e *VoiceServiceError) Error() string {
	return fmt.Sprintf("voice service error (%s): %v", e.Direction, e.Err)
}

// Unwrap returns the underlying cause.
func (e *VoiceServiceError) Unwrap() error { return e.Err }

// NewVoiceServiceError wraps err as a VoiceServiceError.
func NewVoiceServiceError(dir VoiceDirection, err error) *VoiceServiceError {
	return &VoiceServiceError{Direction: dir, Err: err}
}
