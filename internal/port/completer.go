package port

import "context"

// Completer is the hosted text-completion service that turns retrieved
// context plus a question into an answer. One blocking call per query,
// no streaming, no automatic retry.
type Completer interface {
	// Complete sends the prompt and returns the answer text.
	Complete(ctx context.Context, prompt string) (string, error)

	// ModelName returns the name of the completion model.
	ModelName() string
}
