package app

import (
	"context"
	"sync"

	"brainy-quiz-service/internal/domain"
)

// ScreenKind discriminates navigation destinations.
type ScreenKind string

const (
	KindModeSelection     ScreenKind = "modeSelection"
	KindCategorySelection ScreenKind = "categorySelection"
	KindQuizSession       ScreenKind = "quizSession"
	KindHistory           ScreenKind = "history"
	KindResult            ScreenKind = "result"
)

// ScreenAction is a cross-cutting action routed to a screen by the
// coordinator (e.g. restarting the quiz underneath a presented result).
type ScreenAction interface{}

// RestartQuiz asks a quiz session screen to restart its stage.
type RestartQuiz struct{}

// Screen is one navigation entry: a kind plus its own screen state.
type Screen interface {
	Kind() ScreenKind
	// Handle applies a routed action. Unknown actions are ignored.
	Handle(ctx context.Context, action ScreenAction)
	// Teardown releases screen-owned resources when the entry leaves the stack.
	Teardown()
}

// Coordinator maintains an ordered stack of screens plus at most one
// presented (modal) screen layered above it. All mutations are serialized.
type Coordinator struct {
	mu        sync.Mutex
	stack     []Screen
	presented Screen
}

func NewCoordinator() *Coordinator {
	return &Coordinator{}
}

// Push appends a screen to the stack.
func (c *Coordinator) Push(s Screen) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.stack = append(c.stack, s)
}

// Pop removes the top entry; no-op when the stack is empty.
func (c *Coordinator) Pop() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return
	}
	top := c.stack[len(c.stack)-1]
	c.stack = c.stack[:len(c.stack)-1]
	top.Teardown()
}

// Present sets the modal slot, replacing any previously presented screen.
func (c *Coordinator) Present(s Screen) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presented != nil {
		c.presented.Teardown()
	}
	c.presented = s
}

// Dismiss clears the modal slot.
func (c *Coordinator) Dismiss() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.dismissLocked()
}

func (c *Coordinator) dismissLocked() {
	if c.presented == nil {
		return
	}
	c.presented.Teardown()
	c.presented = nil
}

// Presented returns the modal screen, if any.
func (c *Coordinator) Presented() (Screen, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.presented, c.presented != nil
}

// Top returns the top stack entry, if any.
func (c *Coordinator) Top() (Screen, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.stack) == 0 {
		return nil, false
	}
	return c.stack[len(c.stack)-1], true
}

// Visible returns what the user currently sees: the presented modal when
// set, otherwise the top of the stack.
func (c *Coordinator) Visible() (Screen, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.presented != nil {
		return c.presented, true
	}
	if len(c.stack) == 0 {
		return nil, false
	}
	return c.stack[len(c.stack)-1], true
}

// Depth reports the stack size, excluding the modal slot.
func (c *Coordinator) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.stack)
}

// ReplaceTopMatchingOrPush scans for the most recent entry of the same
// kind; when found, the stack is truncated to that position and the entry
// replaced in place, otherwise the screen is pushed. Keeps re-entry from a
// result screen from stacking duplicate category-selection screens.
func (c *Coordinator) ReplaceTopMatchingOrPush(s Screen) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].Kind() != s.Kind() {
			continue
		}
		removed := append([]Screen(nil), c.stack[i:]...)
		c.stack = append(c.stack[:i], s)
		for _, old := range removed {
			old.Teardown()
		}
		return
	}
	c.stack = append(c.stack, s)
}

// RouteToMostRecent dismisses the modal, then forwards action to the most
// recent stack entry of the given kind. Reports whether a target was found.
func (c *Coordinator) RouteToMostRecent(ctx context.Context, kind ScreenKind, action ScreenAction) bool {
	c.mu.Lock()
	c.dismissLocked()
	var target Screen
	for i := len(c.stack) - 1; i >= 0; i-- {
		if c.stack[i].Kind() == kind {
			target = c.stack[i]
			break
		}
	}
	c.mu.Unlock()

	if target == nil {
		return false
	}
	target.Handle(ctx, action)
	return true
}

// PresentResult implements Presenter: completed results are presented
// modally over the session so a retry can resume the same stack entry.
func (c *Coordinator) PresentResult(result domain.StageResult) {
	c.Present(NewResultScreen(result))
}
