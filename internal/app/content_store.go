package app

import (
	"context"
	"time"

	"brainy-quiz-service/internal/domain"
)

// ContentStore supplies stage and question content and persists stage
// results (in-memory, Postgres, Redis-cached, etc).
type ContentStore interface {
	// LoadInitialDataIfNeeded seeds stage/question content. It is a no-op
	// when stages already exist.
	LoadInitialDataIfNeeded(ctx context.Context) error
	FetchQuestionsForStage(ctx context.Context, stageID string) ([]domain.Question, error)
	FetchStagesByCategory(ctx context.Context, category domain.Category) ([]domain.Stage, error)
	GetCategoryStageStats(ctx context.Context, userID string, category domain.Category) (domain.CategoryStats, error)
	CreateStageResult(ctx context.Context, userID, stageID string, score int, timeSpent time.Duration) (domain.StageResult, error)
	FetchStageResults(ctx context.Context, userID string) ([]domain.StageResult, error)
	DeleteAllData(ctx context.Context) error
}
