package di

import (
	"context"

	"go.uber.org/zap"
	"gorm.io/gorm"

	"memory-backend/application/ports"
	"memory-backend/application/services"
	"memory-backend/infrastructure/config"
	"memory-backend/infrastructure/enrichment"
	"memory-backend/infrastructure/persistence/postgres"
	"memory-backend/pkg/auth"
)

// Container holds all application dependencies
type Container struct {
	Config     *config.Config
	Logger     *zap.Logger
	DB         *gorm.DB
	Repository ports.MemoryRepository
	Enricher   ports.Enricher
	Verifier   auth.TokenVerifier
	Service    *services.MemoryService
}

// ReadyCheck returns a readiness probe bound to the database connection.
func (c *Container) ReadyCheck() func(context.Context) error {
	return func(ctx context.Context) error {
		sqlDB, err := c.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	}
}

// ProvideLogger creates a new logger instance
func ProvideLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

// ProvideDatabase opens the Postgres connection and runs first-boot setup
func ProvideDatabase(ctx context.Context, cfg *config.Config) (*gorm.DB, error) {
	return postgres.Open(ctx, cfg.DatabaseURL)
}

// ProvideMemoryRepository creates the Postgres-backed repository
func ProvideMemoryRepository(db *gorm.DB, logger *zap.Logger) ports.MemoryRepository {
	return postgres.NewMemoryRepository(db, logger)
}

// ProvideEnricher creates the LLM enrichment client, once, at startup
func ProvideEnricher(cfg *config.Config, logger *zap.Logger) ports.Enricher {
	return enrichment.NewClient(enrichment.Config{
		APIKey:         cfg.OpenAIAPIKey,
		BaseURL:        cfg.OpenAIBaseURL,
		EmbeddingModel: cfg.EmbeddingModel,
		ChatModel:      cfg.ChatModel,
	}, logger)
}

// ProvideTokenVerifier creates the token verifier for the auth gate.
// Returns nil when auth is disabled: the router then mounts only the
// unauthenticated routes.
func ProvideTokenVerifier(cfg *config.Config) (auth.TokenVerifier, error) {
	if !cfg.AuthEnabled {
		return nil, nil
	}
	if cfg.SupabaseJWTSecret != "" {
		return auth.NewHS256Verifier(cfg.SupabaseJWTSecret)
	}
	return auth.NewGoTrueVerifier(cfg.SupabaseURL, cfg.SupabaseServiceKey), nil
}

// ProvideMemoryService creates the memory service
func ProvideMemoryService(repo ports.MemoryRepository, enricher ports.Enricher, logger *zap.Logger) *services.MemoryService {
	return services.NewMemoryService(repo, enricher, logger)
}
