package generation

import "context"

// maxCompletionTokens bounds every completion request.
const maxCompletionTokens = 2000

// Provider abstracts a text-generation endpoint. Complete sends the
// rendered prompt as a single user message and returns the reply text.
// Any transport error, non-success status or malformed response envelope
// is returned as an error and treated as retryable by the gateway.
type Provider interface {
	Complete(ctx context.Context, model, prompt string) (string, error)
	Name() string
}
