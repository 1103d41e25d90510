package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"memory-backend/domain"
	pkgerrors "memory-backend/pkg/errors"
)

// memoryRecord is the gorm mapping for the memories table. The embedding
// column is not mapped: gorm cannot express the vector type, so it is
// written with a raw statement and never selected.
type memoryRecord struct {
	ID        string         `gorm:"primaryKey;type:uuid"`
	UserID    *string        `gorm:"type:uuid;index"`
	Content   string         `gorm:"not null"`
	Tags      pq.StringArray `gorm:"type:text[];not null"`
	CreatedAt time.Time      `gorm:"not null;index"`
}

// TableName sets the table name for gorm.
func (memoryRecord) TableName() string { return "memories" }

// MemoryRepository persists memories in PostgreSQL.
type MemoryRepository struct {
	db     *gorm.DB
	logger *zap.Logger
}

// NewMemoryRepository creates a new repository.
func NewMemoryRepository(db *gorm.DB, logger *zap.Logger) *MemoryRepository {
	return &MemoryRepository{db: db, logger: logger}
}

// Ping reports whether the database is reachable.
func (r *MemoryRepository) Ping(ctx context.Context) error {
	sqlDB, err := r.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}

// Create inserts the memory row and then writes the embedding through a
// raw parameterized UPDATE. Both statements run in one transaction so a
// crash cannot leave a row without its embedding.
func (r *MemoryRepository) Create(ctx context.Context, memory *domain.Memory, embedding []float32) error {
	rec := toRecord(memory)

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&rec).Error; err != nil {
			return err
		}
		return tx.Exec(
			"UPDATE memories SET embedding = ? WHERE id = ?",
			pgvector.NewVector(embedding), rec.ID,
		).Error
	})
	if err != nil {
		r.logger.Error("failed to create memory", zap.String("memoryID", memory.ID), zap.Error(err))
		return pkgerrors.NewInternalError("Internal server error while creating memory", err)
	}

	return nil
}

// GetByID retrieves a memory, scoped to userID when one is given. A row
// owned by someone else is indistinguishable from a missing row.
func (r *MemoryRepository) GetByID(ctx context.Context, id, userID string) (*domain.Memory, error) {
	var rec memoryRecord

	q := r.scoped(ctx, userID).Where("id = ?", id)
	if err := q.First(&rec).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NewNotFoundError("Memory")
		}
		return nil, pkgerrors.NewInternalError("Internal server error while retrieving memory", err)
	}

	return fromRecord(rec), nil
}

// Search lists memories matching the filters, newest first. The tag filter
// is exact containment in the tags array; the keyword filter is a
// case-insensitive substring match on content. Both combine with AND.
func (r *MemoryRepository) Search(ctx context.Context, query domain.SearchQuery) ([]domain.Memory, error) {
	q := r.scoped(ctx, query.UserID)

	if query.Tag != "" {
		q = q.Where("? = ANY(tags)", query.Tag)
	}
	if query.Keyword != "" {
		q = q.Where("content ILIKE ?", "%"+escapeLike(query.Keyword)+"%")
	}
	q = q.Order("created_at DESC")
	if query.Limit > 0 {
		q = q.Limit(query.Limit)
	}

	var recs []memoryRecord
	if err := q.Find(&recs).Error; err != nil {
		return nil, pkgerrors.NewInternalError("Internal server error while searching memories", err)
	}

	memories := make([]domain.Memory, len(recs))
	for i, rec := range recs {
		memories[i] = *fromRecord(rec)
	}
	return memories, nil
}

// Update replaces the fields present in the update and returns the fresh
// row. Zero rows affected means the memory does not exist or is not owned
// by the caller; both report not found.
func (r *MemoryRepository) Update(ctx context.Context, id, userID string, update domain.MemoryUpdate) (*domain.Memory, error) {
	values := map[string]interface{}{}
	if update.Content != nil {
		values["content"] = *update.Content
	}
	if update.Tags != nil {
		values["tags"] = pq.StringArray(*update.Tags)
	}

	res := r.scoped(ctx, userID).Where("id = ?", id).Updates(values)
	if res.Error != nil {
		return nil, pkgerrors.NewInternalError("Internal server error while updating memory", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, pkgerrors.NewNotFoundError("Memory")
	}

	return r.GetByID(ctx, id, userID)
}

// Delete removes a memory. Zero rows affected reports not found, whether
// the row never existed or belongs to another user.
func (r *MemoryRepository) Delete(ctx context.Context, id, userID string) error {
	res := r.scoped(ctx, userID).Where("id = ?", id).Delete(&memoryRecord{})
	if res.Error != nil {
		return pkgerrors.NewInternalError("Internal server error while deleting memory", res.Error)
	}
	if res.RowsAffected == 0 {
		return pkgerrors.NewNotFoundError("Memory")
	}
	return nil
}

// scoped returns a query on the memories table with the mandatory owner
// filter applied when a userID is present.
func (r *MemoryRepository) scoped(ctx context.Context, userID string) *gorm.DB {
	q := r.db.WithContext(ctx).Model(&memoryRecord{})
	if userID != "" {
		q = q.Where("user_id = ?", userID)
	}
	return q
}

func toRecord(m *domain.Memory) memoryRecord {
	rec := memoryRecord{
		ID:        m.ID,
		Content:   m.Content,
		Tags:      pq.StringArray(m.Tags),
		CreatedAt: m.CreatedAt,
	}
	if m.UserID != "" {
		uid := m.UserID
		rec.UserID = &uid
	}
	return rec
}

func fromRecord(rec memoryRecord) *domain.Memory {
	m := &domain.Memory{
		ID:        rec.ID,
		Content:   rec.Content,
		Tags:      []string(rec.Tags),
		CreatedAt: rec.CreatedAt,
	}
	if rec.UserID != nil {
		m.UserID = *rec.UserID
	}
	return m
}

// escapeLike escapes LIKE metacharacters so a keyword matches literally.
func escapeLike(s string) string {
	out := make([]rune, 0, len(s))
	for _, r := range s {
		if r == '%' || r == '_' || r == '\\' {
			out = append(out, '\\')
		}
		out = append(out, r)
	}
	return string(out)
}
