// Package services contains the application service orchestrating memory
// creation, enrichment, and retrieval.
package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"memory-backend/application/ports"
	"memory-backend/domain"
	pkgerrors "memory-backend/pkg/errors"
)

// MemoryService coordinates the enrichment calls and the repository for a
// single request. It holds no mutable state and is safe for concurrent use.
type MemoryService struct {
	repo     ports.MemoryRepository
	enricher ports.Enricher
	logger   *zap.Logger
}

// NewMemoryService creates a new memory service
func NewMemoryService(repo ports.MemoryRepository, enricher ports.Enricher, logger *zap.Logger) *MemoryService {
	return &MemoryService{
		repo:     repo,
		enricher: enricher,
		logger:   logger,
	}
}

// CreateMemory validates the content, derives tags and an embedding from
// it, and persists the result. A failure in either enrichment call aborts
// the whole operation; no record is created.
//
// Tags are generated before the embedding. The content itself is stored
// unchanged.
func (s *MemoryService) CreateMemory(ctx context.Context, userID, content string) (*domain.Memory, error) {
	if err := domain.ValidateContent(content); err != nil {
		return nil, err
	}

	tags, err := s.enricher.GenerateTags(ctx, content)
	if err != nil {
		s.logger.Error("tag generation failed", zap.Error(err))
		return nil, err
	}

	embedding, err := s.enricher.GenerateEmbedding(ctx, content)
	if err != nil {
		s.logger.Error("embedding generation failed", zap.Error(err))
		return nil, err
	}
	if len(embedding) != domain.EmbeddingDimensions {
		return nil, pkgerrors.NewDependencyError("Failed to generate embeddings for the content", nil)
	}

	memory := &domain.Memory{
		ID:        uuid.New().String(),
		UserID:    userID,
		Content:   content,
		Tags:      tags,
		CreatedAt: time.Now().UTC(),
	}

	if err := s.repo.Create(ctx, memory, embedding); err != nil {
		s.logger.Error("failed to persist memory",
			zap.String("memoryID", memory.ID),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("memory created",
		zap.String("memoryID", memory.ID),
		zap.Int("tags", len(tags)),
	)
	return memory, nil
}

// GetMemory retrieves a single memory scoped to the caller.
func (s *MemoryService) GetMemory(ctx context.Context, id, userID string) (*domain.Memory, error) {
	return s.repo.GetByID(ctx, id, userID)
}

// SearchMemories lists memories matching the optional tag and keyword
// filters, newest first.
func (s *MemoryService) SearchMemories(ctx context.Context, query domain.SearchQuery) ([]domain.Memory, error) {
	if query.Limit < 0 {
		return nil, pkgerrors.NewValidationError("Invalid limit parameter. Must be a positive number.")
	}

	memories, err := s.repo.Search(ctx, query)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("memories searched",
		zap.Int("count", len(memories)),
		zap.String("tag", query.Tag),
		zap.String("keyword", query.Keyword),
		zap.Int("limit", query.Limit),
	)
	return memories, nil
}

// UpdateMemory replaces content and/or tags on an owned memory. The stored
// embedding is left as is, even when the content changes.
func (s *MemoryService) UpdateMemory(ctx context.Context, id, userID string, update domain.MemoryUpdate) (*domain.Memory, error) {
	if err := update.Validate(); err != nil {
		return nil, err
	}
	return s.repo.Update(ctx, id, userID, update)
}

// DeleteMemory removes an owned memory.
func (s *MemoryService) DeleteMemory(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}
