package domain

import "context"

// Embedder is the shared text vectorization contract between layers.
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// HealthChecker verifies embedding provider availability.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Completer produces a chat completion from an ordered message transcript.
type Completer interface {
	Complete(ctx context.Context, messages []Message) (string, error)
}

// Message is one entry of a completion transcript.
type Message struct {
	Role    string
	Content string
}

// Completion transcript roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)
