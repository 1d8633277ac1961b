package orchestrator

import "errors"

var (
	// ErrEmptyInstruction is returned when the instruction or prompt is blank.
	ErrEmptyInstruction = errors.New("instruction is required")

	// ErrNotConfigured is returned when the generator has no API key.
	ErrNotConfigured = errors.New("OpenAI API key is not configured. Use POST /api/config/openai-key to set it")

	// ErrUpstream wraps failures of the generation service.
	ErrUpstream = errors.New("generation service failed")

	// ErrMalformedResponse is returned when a strict reply cannot be parsed.
	ErrMalformedResponse = errors.New("malformed model response")
)
