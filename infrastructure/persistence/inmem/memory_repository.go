// Package inmem provides an in-memory MemoryRepository used by tests and
// local development without a database.
package inmem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"memory-backend/domain"
	pkgerrors "memory-backend/pkg/errors"
)

type storedMemory struct {
	memory    domain.Memory
	embedding []float32
}

// MemoryRepository is a map-backed implementation of ports.MemoryRepository.
// It mirrors the Postgres implementation's visibility rules, including the
// not-found masking of rows owned by other users.
type MemoryRepository struct {
	mu       sync.RWMutex
	memories map[string]*storedMemory

	// For testing error scenarios
	failOn map[string]error
}

// NewMemoryRepository creates an empty in-memory repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{
		memories: make(map[string]*storedMemory),
		failOn:   make(map[string]error),
	}
}

// SetError makes the named operation fail with err. Pass nil to clear.
func (r *MemoryRepository) SetError(op string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err == nil {
		delete(r.failOn, op)
		return
	}
	r.failOn[op] = err
}

func (r *MemoryRepository) errFor(op string) error {
	return r.failOn[op]
}

// Create stores the memory and its embedding.
func (r *MemoryRepository) Create(ctx context.Context, memory *domain.Memory, embedding []float32) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errFor("Create"); err != nil {
		return err
	}

	m := *memory
	m.Tags = append([]string(nil), memory.Tags...)
	r.memories[m.ID] = &storedMemory{
		memory:    m,
		embedding: append([]float32(nil), embedding...),
	}
	return nil
}

// GetByID retrieves a memory visible to userID.
func (r *MemoryRepository) GetByID(ctx context.Context, id, userID string) (*domain.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.errFor("GetByID"); err != nil {
		return nil, err
	}

	stored, ok := r.memories[id]
	if !ok || !visible(stored, userID) {
		return nil, pkgerrors.NewNotFoundError("Memory")
	}
	m := stored.memory
	return &m, nil
}

// Search lists matching memories, newest first.
func (r *MemoryRepository) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Memory, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if err := r.errFor("Search"); err != nil {
		return nil, err
	}

	var results []domain.Memory
	for _, stored := range r.memories {
		if !visible(stored, query.UserID) {
			continue
		}
		if query.Tag != "" && !containsTag(stored.memory.Tags, query.Tag) {
			continue
		}
		if query.Keyword != "" &&
			!strings.Contains(strings.ToLower(stored.memory.Content), strings.ToLower(query.Keyword)) {
			continue
		}
		results = append(results, stored.memory)
	}

	sort.Slice(results, func(i, j int) bool {
		return results[i].CreatedAt.After(results[j].CreatedAt)
	})
	if query.Limit > 0 && len(results) > query.Limit {
		results = results[:query.Limit]
	}
	return results, nil
}

// Update replaces the given fields on a visible memory.
func (r *MemoryRepository) Update(ctx context.Context, id, userID string, update domain.MemoryUpdate) (*domain.Memory, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errFor("Update"); err != nil {
		return nil, err
	}

	stored, ok := r.memories[id]
	if !ok || !visible(stored, userID) {
		return nil, pkgerrors.NewNotFoundError("Memory")
	}

	if update.Content != nil {
		stored.memory.Content = *update.Content
	}
	if update.Tags != nil {
		stored.memory.Tags = append([]string(nil), (*update.Tags)...)
	}
	m := stored.memory
	return &m, nil
}

// Delete removes a visible memory.
func (r *MemoryRepository) Delete(ctx context.Context, id, userID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if err := r.errFor("Delete"); err != nil {
		return err
	}

	stored, ok := r.memories[id]
	if !ok || !visible(stored, userID) {
		return pkgerrors.NewNotFoundError("Memory")
	}
	delete(r.memories, id)
	return nil
}

// Embedding exposes the stored embedding for assertions in tests.
func (r *MemoryRepository) Embedding(id string) []float32 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if stored, ok := r.memories[id]; ok {
		return stored.embedding
	}
	return nil
}

// visible reports whether the row may be seen by userID. An empty userID
// is the unscoped deployment and sees everything.
func visible(stored *storedMemory, userID string) bool {
	return userID == "" || stored.memory.UserID == userID
}

// containsTag is exact, case-sensitive containment.
func containsTag(tags []string, tag string) bool {
	for _, t := range tags {
		if t == tag {
			return true
		}
	}
	return false
}
