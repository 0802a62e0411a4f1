package driven

import "context"

// GenerateOptions configures text generation behaviour.
type GenerateOptions struct {
	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// MaxTokens caps the generated length (0 = model default).
	MaxTokens int

	// JSONMode constrains the output to a JSON value.
	JSONMode bool
}

// LLMService provides text generation for extraction and answering.
//
// Only malformed structured output is retried; connectivity failures
// surface as domain.ErrUpstreamUnavailable and are never retried
// unboundedly.
type LLMService interface {
	// Generate produces a text completion for the prompt.
	Generate(ctx context.Context, prompt string, opts GenerateOptions) (string, error)

	// GenerateJSON produces a completion and unmarshals it into out.
	// Malformed output is retried up to a fixed bound; exhausting the
	// retries returns domain.ErrMalformedResponse.
	GenerateJSON(ctx context.Context, prompt string, temperature float64, out any) error

	// ModelName returns the name of the generation model in use.
	ModelName() string

	// Ping validates the backend is reachable.
	Ping(ctx context.Context) error
}
