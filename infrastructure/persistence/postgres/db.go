// Package postgres implements memory persistence on PostgreSQL with the
// pgvector extension.
package postgres

import (
	"context"
	"fmt"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"memory-backend/domain"
)

// Open connects to the database, verifies the connection, and ensures the
// memories table and its vector column exist. The vector column is created
// with raw DDL because gorm does not model the pgvector type.
func Open(ctx context.Context, dsn string) (*gorm.DB, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		return nil, fmt.Errorf("database ping failed: %w", err)
	}

	if err := migrate(ctx, db); err != nil {
		return nil, err
	}

	return db, nil
}

// migrate performs first-boot setup; it is idempotent.
func migrate(ctx context.Context, db *gorm.DB) error {
	tx := db.WithContext(ctx)

	if err := tx.Exec("CREATE EXTENSION IF NOT EXISTS vector").Error; err != nil {
		return fmt.Errorf("failed to enable vector extension: %w", err)
	}
	if err := tx.AutoMigrate(&memoryRecord{}); err != nil {
		return fmt.Errorf("failed to migrate memories table: %w", err)
	}
	ddl := fmt.Sprintf(
		"ALTER TABLE memories ADD COLUMN IF NOT EXISTS embedding vector(%d)",
		domain.EmbeddingDimensions,
	)
	if err := tx.Exec(ddl).Error; err != nil {
		return fmt.Errorf("failed to add embedding column: %w", err)
	}

	return nil
}
