// Package embedding defines the narrow embedding-provider contract the
// orchestrator consumes for turning text into vectors.
package embedding

import "context"

// Client is the minimum contract every embedding provider must satisfy.
// Dimension is stable for the lifetime of the process.
type Client interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
	Dimension() int
}
