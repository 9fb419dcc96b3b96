package driven

import "context"

// LLMService produces a natural-language answer from system instructions,
// a question and the assembled context.
//
// Implementations may include:
//   - OpenAI (chat completions)
//   - Ollama (local models)
type LLMService interface {
	// Generate produces an answer for question grounded in context,
	// steered by the system prompt.
	Generate(ctx context.Context, system, question, contextBlock string) (string, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable with a lightweight request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}
