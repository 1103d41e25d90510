// Package ports defines the interfaces the application layer depends on.
// Implementations live under infrastructure; the application never imports
// them directly.
package ports

import (
	"context"

	"memory-backend/domain"
)

// MemoryRepository defines the interface for memory persistence.
//
// Every operation that takes a userID treats "" as unscoped (the
// unauthenticated deployment). With a userID set, rows owned by anyone
// else are reported as not found, never as forbidden.
type MemoryRepository interface {
	// Create persists a memory together with its embedding. The row insert
	// and the vector write are atomic.
	Create(ctx context.Context, memory *domain.Memory, embedding []float32) error

	// GetByID retrieves a memory by its ID.
	GetByID(ctx context.Context, id, userID string) (*domain.Memory, error)

	// Search retrieves memories matching the query filters, ordered by
	// creation time descending.
	Search(ctx context.Context, query domain.SearchQuery) ([]domain.Memory, error)

	// Update replaces the fields present in the update. The embedding is
	// never touched.
	Update(ctx context.Context, id, userID string, update domain.MemoryUpdate) (*domain.Memory, error)

	// Delete removes a memory.
	Delete(ctx context.Context, id, userID string) error
}

// Enricher derives an embedding vector and topical tags from content via
// the external language-model API.
type Enricher interface {
	// GenerateEmbedding returns a fixed-length vector for the text.
	GenerateEmbedding(ctx context.Context, text string) ([]float32, error)

	// GenerateTags returns 2-5 short lowercase tags for the content.
	GenerateTags(ctx context.Context, content string) ([]string, error)
}
