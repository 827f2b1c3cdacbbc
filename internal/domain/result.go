package domain

import (
	"fmt"
	"strings"
	"time"
)

// DefaultRequiredAccuracy is the clearance threshold applied when a stage
// does not specify one.
const DefaultRequiredAccuracy = 0.7

// StarsForAccuracy maps accuracy to a 0-3 star rating. Monotonic in accuracy.
func StarsForAccuracy(accuracy, requiredAccuracy float64) int {
	if requiredAccuracy <= 0 {
		requiredAccuracy = DefaultRequiredAccuracy
	}
	switch {
	case accuracy >= 0.9:
		return 3
	case accuracy >= 0.8:
		return 2
	case accuracy >= requiredAccuracy:
		return 1
	default:
		return 0
	}
}

// NewStageResult builds a fully derived result for a completed session.
// Derived fields are frozen here so historical rows keep the values they
// were created with even if stage metadata changes later.
func NewStageResult(id, userID string, stage Stage, score int, timeSpent time.Duration, completedAt time.Time) StageResult {
	accuracy := 0.0
	if stage.TotalQuestions > 0 {
		accuracy = float64(score) / float64(stage.TotalQuestions)
	}
	required := stage.RequiredAccuracy
	if required <= 0 {
		required = DefaultRequiredAccuracy
	}
	stars := StarsForAccuracy(accuracy, required)
	return StageResult{
		ID:                 id,
		UserID:             userID,
		StageID:            stage.ID,
		Score:              score,
		Stars:              stars,
		TimeSpent:          timeSpent,
		IsCleared:          accuracy >= required,
		CompletedAt:        completedAt,
		Accuracy:           accuracy,
		AccuracyPercentage: fmt.Sprintf("%.0f%%", accuracy*100),
		StarsDisplay:       strings.Repeat("⭐", stars),
	}
}
