package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"brainy-quiz-service/internal/domain"
	"brainy-quiz-service/internal/seed"
	"github.com/google/uuid"
)

// ContentStore is an in-memory implementation of app.ContentStore, seeded
// from a decoded seed document. Useful for tests and single-node demos.
type ContentStore struct {
	seedData seed.Data
	clock    func() time.Time
	newID    func() string

	mu        sync.RWMutex
	stages    map[string]domain.Stage
	questions map[string][]domain.Question
	results   []domain.StageResult
}

func NewContentStore(data seed.Data) *ContentStore {
	return NewContentStoreWithClock(data, time.Now)
}

// NewContentStoreWithClock allows deterministic timestamps in tests.
func NewContentStoreWithClock(data seed.Data, now func() time.Time) *ContentStore {
	return &ContentStore{
		seedData:  data,
		clock:     now,
		newID:     uuid.NewString,
		stages:    make(map[string]domain.Stage),
		questions: make(map[string][]domain.Question),
	}
}

func (s *ContentStore) LoadInitialDataIfNeeded(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.stages) > 0 {
		return nil
	}
	for _, stage := range s.seedData.Stages {
		s.stages[stage.ID] = stage
	}
	for _, q := range s.seedData.Questions {
		s.questions[q.StageID] = append(s.questions[q.StageID], q)
	}
	for stageID := range s.questions {
		qs := s.questions[stageID]
		sort.SliceStable(qs, func(i, j int) bool { return qs[i].OrderInStage < qs[j].OrderInStage })
	}
	return nil
}

func (s *ContentStore) FetchQuestionsForStage(_ context.Context, stageID string) ([]domain.Question, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if _, ok := s.stages[stageID]; !ok {
		return nil, domain.ErrStageNotFound
	}
	return append([]domain.Question(nil), s.questions[stageID]...), nil
}

func (s *ContentStore) FetchStagesByCategory(_ context.Context, category domain.Category) ([]domain.Stage, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var stages []domain.Stage
	for _, stage := range s.stages {
		if stage.Category == category {
			stages = append(stages, stage)
		}
	}
	sort.SliceStable(stages, func(i, j int) bool { return stages[i].StageNumber < stages[j].StageNumber })
	return stages, nil
}

func (s *ContentStore) GetCategoryStageStats(ctx context.Context, userID string, category domain.Category) (domain.CategoryStats, error) {
	stages, err := s.FetchStagesByCategory(ctx, category)
	if err != nil {
		return domain.CategoryStats{}, err
	}
	inCategory := make(map[string]bool, len(stages))
	for _, stage := range stages {
		inCategory[stage.ID] = true
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	cleared := make(map[string]bool)
	totalStars := 0
	for _, result := range s.results {
		if result.UserID != userID || !inCategory[result.StageID] {
			continue
		}
		totalStars += result.Stars
		if result.IsCleared {
			cleared[result.StageID] = true
		}
	}
	return domain.CategoryStats{
		CompletedStages: len(cleared),
		TotalStars:      totalStars,
		UnlockedStage:   len(cleared) + 1,
	}, nil
}

func (s *ContentStore) CreateStageResult(_ context.Context, userID, stageID string, score int, timeSpent time.Duration) (domain.StageResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	stage, ok := s.stages[stageID]
	if !ok {
		return domain.StageResult{}, domain.ErrStageNotFound
	}
	result := domain.NewStageResult(s.newID(), userID, stage, score, timeSpent, s.clock())
	s.results = append(s.results, result)
	return result, nil
}

func (s *ContentStore) FetchStageResults(_ context.Context, userID string) ([]domain.StageResult, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var results []domain.StageResult
	for _, result := range s.results {
		if result.UserID == userID {
			results = append(results, result)
		}
	}
	sort.SliceStable(results, func(i, j int) bool { return results[i].CompletedAt.After(results[j].CompletedAt) })
	return results, nil
}

func (s *ContentStore) DeleteAllData(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stages = make(map[string]domain.Stage)
	s.questions = make(map[string][]domain.Question)
	s.results = nil
	return nil
}
