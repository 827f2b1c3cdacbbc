package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"brainy-quiz-service/internal/domain"
	"brainy-quiz-service/internal/seed"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

type stageRow struct {
	bun.BaseModel `bun:"table:stages,alias:stage"`

	ID               string  `bun:"id,pk"`
	StageNumber      int     `bun:"stage_number"`
	Category         string  `bun:"category"`
	Difficulty       string  `bun:"difficulty"`
	Title            string  `bun:"title"`
	RequiredAccuracy float64 `bun:"required_accuracy"`
	TotalQuestions   int     `bun:"total_questions"`
}

type questionRow struct {
	bun.BaseModel `bun:"table:questions,alias:question"`

	ID           string `bun:"id,pk"`
	StageID      string `bun:"stage_id"`
	OrderInStage int    `bun:"order_in_stage"`
	Data         []byte `bun:"data,type:jsonb"`
}

type stageResultRow struct {
	bun.BaseModel `bun:"table:stage_results,alias:stage_result"`

	ID                 string    `bun:"id,pk"`
	UserID             string    `bun:"user_id"`
	StageID            string    `bun:"stage_id"`
	Score              int       `bun:"score"`
	Stars              int       `bun:"stars"`
	TimeSpentMS        int64     `bun:"time_spent_ms"`
	IsCleared          bool      `bun:"is_cleared"`
	CompletedAt        time.Time `bun:"completed_at"`
	Accuracy           float64   `bun:"accuracy"`
	AccuracyPercentage string    `bun:"accuracy_percentage"`
	StarsDisplay       string    `bun:"stars_display"`
}

// Store is the Postgres-backed ContentStore. Question reads go through a
// dedicated loader on the pgx pool (the hot path during session start);
// everything else runs on bun.
type Store struct {
	db       *bun.DB
	loader   *QuestionLoader
	seedData seed.Data
	clock    func() time.Time
	newID    func() string
}

func NewStore(db *bun.DB, loader *QuestionLoader, data seed.Data) *Store {
	return &Store{
		db:       db,
		loader:   loader,
		seedData: data,
		clock:    time.Now,
		newID:    uuid.NewString,
	}
}

func (s *Store) LoadInitialDataIfNeeded(ctx context.Context) error {
	count, err := s.db.NewSelect().Model((*stageRow)(nil)).Count(ctx)
	if err != nil {
		return fmt.Errorf("count stages: %w", err)
	}
	if count > 0 {
		return nil
	}
	return s.insertSeed(ctx, s.seedData)
}

// ImportSeed bulk-inserts a seed document, regardless of existing content.
// Used by the seed CLI command.
func (s *Store) ImportSeed(ctx context.Context, data seed.Data) error {
	return s.insertSeed(ctx, data)
}

func (s *Store) insertSeed(ctx context.Context, data seed.Data) error {
	if len(data.Stages) == 0 {
		return nil
	}
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		stages := make([]stageRow, 0, len(data.Stages))
		for _, stage := range data.Stages {
			stages = append(stages, stageRow{
				ID:               stage.ID,
				StageNumber:      stage.StageNumber,
				Category:         string(stage.Category),
				Difficulty:       string(stage.Difficulty),
				Title:            stage.Title,
				RequiredAccuracy: stage.RequiredAccuracy,
				TotalQuestions:   stage.TotalQuestions,
			})
		}
		if _, err := tx.NewInsert().Model(&stages).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("insert stages: %w", err)
		}

		if len(data.Questions) == 0 {
			return nil
		}
		questions := make([]questionRow, 0, len(data.Questions))
		for _, q := range data.Questions {
			raw, err := json.Marshal(q)
			if err != nil {
				return fmt.Errorf("marshal question %s: %w", q.ID, err)
			}
			questions = append(questions, questionRow{
				ID:           q.ID,
				StageID:      q.StageID,
				OrderInStage: q.OrderInStage,
				Data:         raw,
			})
		}
		if _, err := tx.NewInsert().Model(&questions).On("CONFLICT (id) DO NOTHING").Exec(ctx); err != nil {
			return fmt.Errorf("insert questions: %w", err)
		}
		return nil
	})
}

func (s *Store) FetchQuestionsForStage(ctx context.Context, stageID string) ([]domain.Question, error) {
	if _, err := s.fetchStage(ctx, stageID); err != nil {
		return nil, err
	}
	return s.loader.LoadQuestions(ctx, stageID)
}

func (s *Store) FetchStagesByCategory(ctx context.Context, category domain.Category) ([]domain.Stage, error) {
	var rows []stageRow
	err := s.db.NewSelect().Model(&rows).
		Where("category = ?", string(category)).
		Order("stage_number ASC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stages: %w", err)
	}
	stages := make([]domain.Stage, 0, len(rows))
	for _, row := range rows {
		stages = append(stages, row.toDomain())
	}
	return stages, nil
}

func (s *Store) GetCategoryStageStats(ctx context.Context, userID string, category domain.Category) (domain.CategoryStats, error) {
	var rows []stageResultRow
	err := s.db.NewSelect().Model(&rows).
		Join("JOIN stages AS st ON st.id = stage_result.stage_id").
		Where("stage_result.user_id = ?", userID).
		Where("st.category = ?", string(category)).
		Scan(ctx)
	if err != nil {
		return domain.CategoryStats{}, fmt.Errorf("fetch category results: %w", err)
	}

	cleared := make(map[string]bool)
	totalStars := 0
	for _, row := range rows {
		totalStars += row.Stars
		if row.IsCleared {
			cleared[row.StageID] = true
		}
	}
	return domain.CategoryStats{
		CompletedStages: len(cleared),
		TotalStars:      totalStars,
		UnlockedStage:   len(cleared) + 1,
	}, nil
}

func (s *Store) CreateStageResult(ctx context.Context, userID, stageID string, score int, timeSpent time.Duration) (domain.StageResult, error) {
	stage, err := s.fetchStage(ctx, stageID)
	if err != nil {
		return domain.StageResult{}, err
	}

	result := domain.NewStageResult(s.newID(), userID, stage, score, timeSpent, s.clock())
	row := stageResultRow{
		ID:                 result.ID,
		UserID:             result.UserID,
		StageID:            result.StageID,
		Score:              result.Score,
		Stars:              result.Stars,
		TimeSpentMS:        result.TimeSpent.Milliseconds(),
		IsCleared:          result.IsCleared,
		CompletedAt:        result.CompletedAt,
		Accuracy:           result.Accuracy,
		AccuracyPercentage: result.AccuracyPercentage,
		StarsDisplay:       result.StarsDisplay,
	}
	if _, err := s.db.NewInsert().Model(&row).Exec(ctx); err != nil {
		return domain.StageResult{}, fmt.Errorf("insert stage result: %w", err)
	}
	return result, nil
}

func (s *Store) FetchStageResults(ctx context.Context, userID string) ([]domain.StageResult, error) {
	var rows []stageResultRow
	err := s.db.NewSelect().Model(&rows).
		Where("user_id = ?", userID).
		Order("completed_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, fmt.Errorf("fetch stage results: %w", err)
	}
	results := make([]domain.StageResult, 0, len(rows))
	for _, row := range rows {
		results = append(results, row.toDomain())
	}
	return results, nil
}

func (s *Store) DeleteAllData(ctx context.Context) error {
	return s.db.RunInTx(ctx, &sql.TxOptions{}, func(ctx context.Context, tx bun.Tx) error {
		for _, model := range []interface{}{(*stageResultRow)(nil), (*questionRow)(nil), (*stageRow)(nil)} {
			if _, err := tx.NewDelete().Model(model).Where("TRUE").Exec(ctx); err != nil {
				return fmt.Errorf("delete all data: %w", err)
			}
		}
		return nil
	})
}

func (s *Store) fetchStage(ctx context.Context, stageID string) (domain.Stage, error) {
	var row stageRow
	err := s.db.NewSelect().Model(&row).Where("id = ?", stageID).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Stage{}, domain.ErrStageNotFound
	}
	if err != nil {
		return domain.Stage{}, fmt.Errorf("fetch stage: %w", err)
	}
	return row.toDomain(), nil
}

func (r stageRow) toDomain() domain.Stage {
	return domain.Stage{
		ID:               r.ID,
		StageNumber:      r.StageNumber,
		Category:         domain.Category(r.Category),
		Difficulty:       domain.Difficulty(r.Difficulty),
		Title:            r.Title,
		RequiredAccuracy: r.RequiredAccuracy,
		TotalQuestions:   r.TotalQuestions,
	}
}

func (r stageResultRow) toDomain() domain.StageResult {
	return domain.StageResult{
		ID:                 r.ID,
		UserID:             r.UserID,
		StageID:            r.StageID,
		Score:              r.Score,
		Stars:              r.Stars,
		TimeSpent:          time.Duration(r.TimeSpentMS) * time.Millisecond,
		IsCleared:          r.IsCleared,
		CompletedAt:        r.CompletedAt,
		Accuracy:           r.Accuracy,
		AccuracyPercentage: r.AccuracyPercentage,
		StarsDisplay:       r.StarsDisplay,
	}
}
