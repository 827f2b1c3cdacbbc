package app

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"brainy-quiz-service/internal/domain"
)

// Phase is the coarse state of a quiz session.
type Phase string

const (
	PhaseIdle       Phase = "idle"
	PhaseLoading    Phase = "loading"
	PhaseError      Phase = "error"
	PhaseEmpty      Phase = "empty"
	PhaseInProgress Phase = "inProgress"
	PhaseCompleted  Phase = "completed"
)

// DefaultQuestionSeconds is the per-question countdown length.
const DefaultQuestionSeconds = 15

// SessionState is a snapshot of one stage attempt. Mutated solely by the
// engine; consumers receive copies through Subscribe.
type SessionState struct {
	Mode     domain.Mode     `json:"mode"`
	Category domain.Category `json:"category"`
	StageID  string          `json:"stageId"`

	Phase          Phase             `json:"phase"`
	Questions      []domain.Question `json:"questions,omitempty"`
	CurrentIndex   int               `json:"currentIndex"`
	TimeRemaining  int               `json:"timeRemaining"`
	SelectedOption int               `json:"selectedOption"` // -1 when nothing selected
	ShortAnswer    string            `json:"shortAnswer,omitempty"`
	Answers        []string          `json:"answers"`
	Score          int               `json:"score"`
	Progress       float64           `json:"progress"`
	IsLastQuestion bool              `json:"isLastQuestion"`
	ErrorMessage   string            `json:"errorMessage,omitempty"`
	StartedAt      time.Time         `json:"startedAt"`

	Result     *domain.StageResult `json:"result,omitempty"`
	SaveFailed bool                `json:"saveFailed"`
}

// CurrentQuestion returns the active question, if any.
func (s SessionState) CurrentQuestion() (domain.Question, bool) {
	if s.Phase != PhaseInProgress || s.CurrentIndex >= len(s.Questions) {
		return domain.Question{}, false
	}
	return s.Questions[s.CurrentIndex], true
}

// HasAnswered reports whether the active question has a tentative answer.
func (s SessionState) HasAnswered() bool {
	q, ok := s.CurrentQuestion()
	if !ok {
		return false
	}
	if q.Mode == domain.ModeMultipleChoice {
		return s.SelectedOption >= 0
	}
	return strings.TrimSpace(s.ShortAnswer) != ""
}

// Presenter receives the fire-and-forget signal to show a persisted result.
type Presenter interface {
	PresentResult(result domain.StageResult)
}

// PresenterFunc adapts a function to the Presenter interface.
type PresenterFunc func(domain.StageResult)

func (f PresenterFunc) PresentResult(r domain.StageResult) { f(r) }

// SessionEngine owns the timed progression through a stage's questions,
// per-answer scoring and result submission. One engine per stage attempt.
type SessionEngine struct {
	store     ContentStore
	presenter Presenter
	userID    string

	questionSeconds int
	tickEvery       time.Duration // zero disables the background ticker (tests drive ticks)
	clock           func() time.Time

	mu          sync.Mutex
	state       SessionState
	attempt     int // bumped on every reset; ties an in-flight save to its attempt
	subscribers map[chan SessionState]struct{}
	timerCancel chan struct{}
}

// NewSessionEngine builds an engine for one attempt at stageID.
func NewSessionEngine(store ContentStore, presenter Presenter, userID string, mode domain.Mode, category domain.Category, stageID string) *SessionEngine {
	e := newSessionEngine(store, presenter, userID, mode, category, stageID)
	e.tickEvery = time.Second
	return e
}

// NewSessionEngineWithClock is test-only: deterministic timestamps and no
// background ticker, countdown ticks are driven manually.
func NewSessionEngineWithClock(store ContentStore, presenter Presenter, userID string, mode domain.Mode, category domain.Category, stageID string, now func() time.Time) *SessionEngine {
	e := newSessionEngine(store, presenter, userID, mode, category, stageID)
	e.clock = now
	return e
}

func newSessionEngine(store ContentStore, presenter Presenter, userID string, mode domain.Mode, category domain.Category, stageID string) *SessionEngine {
	return &SessionEngine{
		store:           store,
		presenter:       presenter,
		userID:          userID,
		questionSeconds: DefaultQuestionSeconds,
		clock:           time.Now,
		state: SessionState{
			Mode:           mode,
			Category:       category,
			StageID:        stageID,
			Phase:          PhaseIdle,
			SelectedOption: -1,
		},
		subscribers: make(map[chan SessionState]struct{}),
	}
}

// SetQuestionSeconds overrides the per-question countdown length. Applies to
// questions dealt after the call; non-positive values are ignored.
func (e *SessionEngine) SetQuestionSeconds(seconds int) {
	if seconds <= 0 {
		return
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.questionSeconds = seconds
}

// State returns a snapshot of the current session state.
func (e *SessionEngine) State() SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.snapshotLocked()
}

// Subscribe returns a channel receiving state snapshots after every
// transition. The caller must invoke the returned cancel function.
func (e *SessionEngine) Subscribe() (<-chan SessionState, func()) {
	ch := make(chan SessionState, 8)

	e.mu.Lock()
	e.subscribers[ch] = struct{}{}
	initial := e.snapshotLocked()
	e.mu.Unlock()

	ch <- initial

	cancel := func() {
		e.mu.Lock()
		if _, ok := e.subscribers[ch]; ok {
			delete(e.subscribers, ch)
			close(ch)
		}
		e.mu.Unlock()
	}
	return ch, cancel
}

// Start loads the stage's questions and begins the attempt. An empty stage
// id or a failed fetch lands in the Error phase; a fetch returning zero
// questions lands in Empty; otherwise the attempt begins with a fresh score
// and a running countdown.
func (e *SessionEngine) Start(ctx context.Context) {
	e.mu.Lock()
	e.stopTimerLocked()
	stageID := e.state.StageID
	e.resetLocked()

	if stageID == "" {
		e.state.Phase = PhaseError
		e.state.ErrorMessage = domain.ErrEmptyStageID.Error()
		e.broadcastLocked()
		e.mu.Unlock()
		return
	}

	e.state.Phase = PhaseLoading
	e.broadcastLocked()
	e.mu.Unlock()

	questions, err := e.store.FetchQuestionsForStage(ctx, stageID)

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state.Phase != PhaseLoading {
		// Retried or torn down while the fetch was in flight.
		return
	}
	if err != nil {
		e.state.Phase = PhaseError
		e.state.ErrorMessage = fmt.Sprintf("failed to load stage: %v", err)
		e.broadcastLocked()
		return
	}
	if len(questions) == 0 {
		e.state.Phase = PhaseEmpty
		e.broadcastLocked()
		return
	}

	sort.SliceStable(questions, func(i, j int) bool {
		return questions[i].OrderInStage < questions[j].OrderInStage
	})

	e.state.Phase = PhaseInProgress
	e.state.Questions = questions
	e.state.Answers = make([]string, 0, len(questions))
	e.state.IsLastQuestion = len(questions) == 1
	e.state.TimeRemaining = e.questionSeconds
	e.state.StartedAt = e.clock()
	e.startTimerLocked()
	e.broadcastLocked()
}

// SelectOption records a tentative multiple-choice selection. It does not
// advance. Out-of-range indexes and calls outside an awaiting question are
// silently rejected (stale UI events, not faults).
func (e *SessionEngine) SelectOption(index int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.state.CurrentQuestion()
	if !ok || index < 0 || index >= len(q.Options) {
		return
	}
	e.state.SelectedOption = index
	e.broadcastLocked()
}

// SetShortAnswer records the free-response text for voice/ai questions.
func (e *SessionEngine) SetShortAnswer(text string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	q, ok := e.state.CurrentQuestion()
	if !ok || q.Mode == domain.ModeMultipleChoice {
		return
	}
	e.state.ShortAnswer = text
	e.broadcastLocked()
}

// SubmitAnswer commits the selected answer for the current question.
// Rejected (no-op) unless an answer has been selected.
func (e *SessionEngine) SubmitAnswer(ctx context.Context) {
	e.mu.Lock()
	q, ok := e.state.CurrentQuestion()
	if !ok || !e.state.HasAnswered() {
		e.mu.Unlock()
		return
	}
	answer := userAnswer(q, e.state.SelectedOption, e.state.ShortAnswer)
	completed := e.advanceLocked(answer)
	e.mu.Unlock()
	if completed {
		e.finishSession(ctx)
	}
}

// Skip records the no-answer sentinel for the current question and advances.
func (e *SessionEngine) Skip(ctx context.Context) {
	e.mu.Lock()
	if _, ok := e.state.CurrentQuestion(); !ok {
		e.mu.Unlock()
		return
	}
	completed := e.advanceLocked("")
	e.mu.Unlock()
	if completed {
		e.finishSession(ctx)
	}
}

// Retry discards the in-progress attempt and restarts the stage from scratch.
func (e *SessionEngine) Retry(ctx context.Context) {
	e.mu.Lock()
	e.stopTimerLocked()
	e.state.Phase = PhaseIdle
	e.mu.Unlock()
	e.Start(ctx)
}

// RetrySave re-submits only the result save after a save failure; the
// computed score is preserved.
func (e *SessionEngine) RetrySave(ctx context.Context) {
	e.mu.Lock()
	retryable := e.state.Phase == PhaseCompleted && e.state.SaveFailed
	e.mu.Unlock()
	if retryable {
		e.finishSession(ctx)
	}
}

// Stop cancels the countdown. Called when the session screen is torn down.
func (e *SessionEngine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopTimerLocked()
}

// advanceLocked is the single advance path shared by submit, skip and timer
// expiry: record the answer, score it, then move to the next question or
// complete. Returns true when the session just completed.
func (e *SessionEngine) advanceLocked(answer string) bool {
	q := e.state.Questions[e.state.CurrentIndex]
	e.state.Answers = append(e.state.Answers, answer)
	if isCorrect(q, answer) {
		e.state.Score++
	}

	if e.state.CurrentIndex+1 < len(e.state.Questions) {
		e.state.CurrentIndex++
		e.state.SelectedOption = -1
		e.state.ShortAnswer = ""
		e.state.Progress = float64(e.state.CurrentIndex) / float64(len(e.state.Questions))
		e.state.IsLastQuestion = e.state.CurrentIndex == len(e.state.Questions)-1
		e.state.TimeRemaining = e.questionSeconds
		e.startTimerLocked()
		e.broadcastLocked()
		return false
	}

	e.stopTimerLocked()
	e.state.Phase = PhaseCompleted
	e.state.SelectedOption = -1
	e.broadcastLocked()
	return true
}

// finishSession persists the completed attempt. On failure the session
// stays Completed with the score intact so the save alone can be retried.
func (e *SessionEngine) finishSession(ctx context.Context) {
	e.mu.Lock()
	if e.state.Phase != PhaseCompleted {
		e.mu.Unlock()
		return
	}
	attempt := e.attempt
	stageID := e.state.StageID
	score := e.state.Score
	elapsed := e.clock().Sub(e.state.StartedAt)
	e.mu.Unlock()

	result, err := e.store.CreateStageResult(ctx, e.userID, stageID, score, elapsed)

	e.mu.Lock()
	// A retry (or teardown) may have restarted the session while the save was
	// in flight; its outcome belongs to the old attempt and is discarded.
	if e.state.Phase != PhaseCompleted || e.attempt != attempt {
		e.mu.Unlock()
		return
	}
	if err != nil {
		e.state.SaveFailed = true
		e.state.ErrorMessage = fmt.Sprintf("failed to save result: %v", err)
		e.broadcastLocked()
		e.mu.Unlock()
		return
	}
	e.state.Result = &result
	e.state.SaveFailed = false
	e.state.ErrorMessage = ""
	e.broadcastLocked()
	e.mu.Unlock()

	if e.presenter != nil {
		e.presenter.PresentResult(result)
	}
}

func (e *SessionEngine) resetLocked() {
	e.attempt++
	e.state = SessionState{
		Mode:           e.state.Mode,
		Category:       e.state.Category,
		StageID:        e.state.StageID,
		Phase:          PhaseIdle,
		SelectedOption: -1,
	}
}

// startTimerLocked replaces the countdown's cancel token; the previous
// countdown (if any) is cancelled first, so a single timer runs at a time.
func (e *SessionEngine) startTimerLocked() {
	e.stopTimerLocked()
	cancel := make(chan struct{})
	e.timerCancel = cancel
	if e.tickEvery > 0 {
		go e.runTimer(cancel)
	}
}

func (e *SessionEngine) stopTimerLocked() {
	if e.timerCancel != nil {
		close(e.timerCancel)
		e.timerCancel = nil
	}
}

func (e *SessionEngine) runTimer(cancel chan struct{}) {
	ticker := time.NewTicker(e.tickEvery)
	defer ticker.Stop()
	for {
		select {
		case <-cancel:
			return
		case <-ticker.C:
			if e.tick(cancel) {
				return
			}
		}
	}
}

// tick decrements the countdown and fires the expiry advance at zero.
// A stale cancel token (the timer was replaced or stopped) ends the ticker
// without touching state, so expiry fires at most once per question.
func (e *SessionEngine) tick(cancel chan struct{}) bool {
	e.mu.Lock()
	if e.timerCancel != cancel || e.state.Phase != PhaseInProgress {
		e.mu.Unlock()
		return true
	}
	e.state.TimeRemaining--
	if e.state.TimeRemaining > 0 {
		e.broadcastLocked()
		e.mu.Unlock()
		return false
	}
	completed := e.advanceLocked("")
	e.mu.Unlock()
	if completed {
		e.finishSession(context.Background())
	}
	return true
}

func (e *SessionEngine) broadcastLocked() {
	snapshot := e.snapshotLocked()
	for ch := range e.subscribers {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}

func (e *SessionEngine) snapshotLocked() SessionState {
	s := e.state
	s.Answers = append([]string(nil), e.state.Answers...)
	return s
}

func userAnswer(q domain.Question, selectedOption int, shortAnswer string) string {
	if q.Mode == domain.ModeMultipleChoice {
		if selectedOption < 0 || selectedOption >= len(q.Options) {
			return ""
		}
		return q.Options[selectedOption]
	}
	return strings.TrimSpace(shortAnswer)
}

// isCorrect matches exactly for multiple choice and case-insensitively on
// trimmed text for free-response modes. The empty string is the no-answer
// sentinel and never matches.
func isCorrect(q domain.Question, answer string) bool {
	if answer == "" {
		return false
	}
	if q.Mode == domain.ModeMultipleChoice {
		return answer == q.CorrectAnswer
	}
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(q.CorrectAnswer))
}
