package app

import (
	"context"
	"log"
	"sync"

	"brainy-quiz-service/internal/domain"
)

// ModeSelectionScreen holds the quiz-mode choice.
type ModeSelectionScreen struct {
	mu       sync.Mutex
	selected domain.Mode
}

func NewModeSelectionScreen() *ModeSelectionScreen {
	return &ModeSelectionScreen{}
}

func (s *ModeSelectionScreen) Kind() ScreenKind { return KindModeSelection }

func (s *ModeSelectionScreen) Handle(context.Context, ScreenAction) {}

func (s *ModeSelectionScreen) Teardown() {}

func (s *ModeSelectionScreen) SelectMode(mode domain.Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = mode
}

func (s *ModeSelectionScreen) Selected() domain.Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

// CategoryProgress is one category's stage progress for the selection screen.
type CategoryProgress struct {
	StageID         string
	TotalStages     int
	CompletedStages int
}

// Fraction returns completed/total, zero when the category has no stages.
func (p CategoryProgress) Fraction() float64 {
	if p.TotalStages == 0 {
		return 0
	}
	return float64(p.CompletedStages) / float64(p.TotalStages)
}

// CategorySelectionScreen loads per-category progress and resolves the next
// stage to play for the chosen category.
type CategorySelectionScreen struct {
	store  ContentStore
	userID string
	mode   domain.Mode

	mu       sync.Mutex
	selected domain.Category
	progress map[domain.Category]CategoryProgress
}

func NewCategorySelectionScreen(store ContentStore, userID string, mode domain.Mode) *CategorySelectionScreen {
	return &CategorySelectionScreen{
		store:    store,
		userID:   userID,
		mode:     mode,
		selected: domain.CategoryGeneral,
		progress: make(map[domain.Category]CategoryProgress),
	}
}

func (s *CategorySelectionScreen) Kind() ScreenKind { return KindCategorySelection }

func (s *CategorySelectionScreen) Handle(context.Context, ScreenAction) {}

func (s *CategorySelectionScreen) Teardown() {}

func (s *CategorySelectionScreen) Mode() domain.Mode { return s.mode }

// LoadProgress fetches stats and stages for every category. A failed
// category degrades to zero progress rather than failing the screen.
func (s *CategorySelectionScreen) LoadProgress(ctx context.Context) {
	loaded := make(map[domain.Category]CategoryProgress, len(domain.Categories))
	for _, category := range domain.Categories {
		stats, err := s.store.GetCategoryStageStats(ctx, s.userID, category)
		if err != nil {
			log.Printf("load stats for category %s: %v", category, err)
			loaded[category] = CategoryProgress{}
			continue
		}
		stages, err := s.store.FetchStagesByCategory(ctx, category)
		if err != nil {
			log.Printf("load stages for category %s: %v", category, err)
			loaded[category] = CategoryProgress{}
			continue
		}
		loaded[category] = CategoryProgress{
			StageID:         nextStageID(stages, stats.UnlockedStage),
			TotalStages:     len(stages),
			CompletedStages: stats.CompletedStages,
		}
	}

	s.mu.Lock()
	s.progress = loaded
	s.mu.Unlock()
}

func (s *CategorySelectionScreen) SelectCategory(category domain.Category) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.selected = category
}

func (s *CategorySelectionScreen) SelectedCategory() domain.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *CategorySelectionScreen) Progress(category domain.Category) CategoryProgress {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress[category]
}

// NextStageID resolves the stage to enter for the selected category.
func (s *CategorySelectionScreen) NextStageID() (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.progress[s.selected]
	if !ok || p.StageID == "" {
		return "", false
	}
	return p.StageID, true
}

// nextStageID picks the unlocked stage; past the final stage, the last one
// stays replayable.
func nextStageID(stages []domain.Stage, unlockedStage int) string {
	if len(stages) == 0 {
		return ""
	}
	for _, stage := range stages {
		if stage.StageNumber == unlockedStage {
			return stage.ID
		}
	}
	return stages[len(stages)-1].ID
}

// HistoryScreen lists a user's past stage results, newest first.
type HistoryScreen struct {
	store  ContentStore
	userID string

	mu      sync.Mutex
	results []domain.StageResult
	errMsg  string
	loading bool
}

func NewHistoryScreen(store ContentStore, userID string) *HistoryScreen {
	return &HistoryScreen{store: store, userID: userID}
}

func (s *HistoryScreen) Kind() ScreenKind { return KindHistory }

func (s *HistoryScreen) Handle(context.Context, ScreenAction) {}

func (s *HistoryScreen) Teardown() {}

// Refresh reloads the result list. Errors are held as a screen message.
func (s *HistoryScreen) Refresh(ctx context.Context) {
	s.mu.Lock()
	s.loading = true
	s.errMsg = ""
	s.mu.Unlock()

	results, err := s.store.FetchStageResults(ctx, s.userID)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	if err != nil {
		s.errMsg = err.Error()
		return
	}
	s.results = results
}

func (s *HistoryScreen) Results() []domain.StageResult {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]domain.StageResult(nil), s.results...)
}

func (s *HistoryScreen) ErrorMessage() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.errMsg
}

func (s *HistoryScreen) Loading() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.loading
}

// QuizSessionScreen wraps the engine for one stage attempt.
type QuizSessionScreen struct {
	engine *SessionEngine
}

func NewQuizSessionScreen(engine *SessionEngine) *QuizSessionScreen {
	return &QuizSessionScreen{engine: engine}
}

func (s *QuizSessionScreen) Kind() ScreenKind { return KindQuizSession }

func (s *QuizSessionScreen) Engine() *SessionEngine { return s.engine }

// Handle restarts the same engine instance on RestartQuiz; the entry keeps
// its identity across the retry flow.
func (s *QuizSessionScreen) Handle(ctx context.Context, action ScreenAction) {
	switch action.(type) {
	case RestartQuiz:
		s.engine.Retry(ctx)
	}
}

func (s *QuizSessionScreen) Teardown() {
	s.engine.Stop()
}

// ResultScreen shows one persisted stage result, presented modally over the
// session it came from.
type ResultScreen struct {
	result domain.StageResult
}

func NewResultScreen(result domain.StageResult) *ResultScreen {
	return &ResultScreen{result: result}
}

func (s *ResultScreen) Kind() ScreenKind { return KindResult }

func (s *ResultScreen) Handle(context.Context, ScreenAction) {}

func (s *ResultScreen) Teardown() {}

func (s *ResultScreen) Result() domain.StageResult { return s.result }
