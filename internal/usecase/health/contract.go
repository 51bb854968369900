package health

import "context"

// StorePinger checks shared cache store connectivity.
type StorePinger interface {
	Ping(ctx context.Context) error
}

// EmbeddingChecker probes embedding provider availability.
type EmbeddingChecker interface {
	HealthCheck(ctx context.Context) error
}
