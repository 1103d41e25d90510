// Package domain holds the Memory entity and the value types that travel
// between the HTTP layer, the service, and the repositories.
package domain

import (
	"strings"
	"time"

	pkgerrors "memory-backend/pkg/errors"
)

// EmbeddingDimensions is the fixed length of the embedding vector stored
// alongside each memory. It must match the dimension of the vector column.
const EmbeddingDimensions = 1536

// Memory is a single stored memory. The embedding is deliberately not part
// of this type: it is written once at creation and never read back.
type Memory struct {
	ID        string    `json:"id"`
	UserID    string    `json:"-"`
	Content   string    `json:"content"`
	Tags      []string  `json:"tags"`
	CreatedAt time.Time `json:"createdAt"`
}

// SearchQuery describes the optional filters for listing memories.
// A zero Limit means unbounded. An empty UserID means unscoped
// (the unauthenticated deployment).
type SearchQuery struct {
	UserID  string
	Tag     string
	Keyword string
	Limit   int
}

// MemoryUpdate is a partial update. Nil fields are left untouched.
// The embedding is never recomputed on update.
type MemoryUpdate struct {
	Content *string
	Tags    *[]string
}

// IsEmpty reports whether the update carries no fields at all.
func (u MemoryUpdate) IsEmpty() bool {
	return u.Content == nil && u.Tags == nil
}

// Validate checks that an update which carries a content field carries a
// usable one.
func (u MemoryUpdate) Validate() error {
	if u.IsEmpty() {
		return pkgerrors.NewValidationError("at least one of content or tags must be provided")
	}
	if u.Content != nil && strings.TrimSpace(*u.Content) == "" {
		return pkgerrors.NewValidationError("content cannot be empty")
	}
	return nil
}

// ValidateContent checks content for creation: required and non-empty after
// trimming.
func ValidateContent(content string) error {
	if strings.TrimSpace(content) == "" {
		return pkgerrors.NewValidationError("content must be a non-empty string")
	}
	return nil
}
