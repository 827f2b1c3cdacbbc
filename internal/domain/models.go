package domain

import "time"

// Mode identifies how a quiz question is answered.
type Mode string

const (
	ModeMultipleChoice Mode = "multipleChoice"
	ModeVoice          Mode = "voice"
	ModeAI             Mode = "ai"
)

// Category groups stages by subject.
type Category string

const (
	CategoryGeneral Category = "general"
	CategoryCountry Category = "country"
	CategoryDrama   Category = "drama"
	CategoryHistory Category = "history"
	CategoryPerson  Category = "person"
	CategoryMusic   Category = "music"
	CategoryFood    Category = "food"
	CategorySports  Category = "sports"
	CategoryMovie   Category = "movie"
)

// Categories lists every quiz category in display order.
var Categories = []Category{
	CategoryGeneral, CategoryCountry, CategoryDrama, CategoryHistory,
	CategoryPerson, CategoryMusic, CategoryFood, CategorySports, CategoryMovie,
}

// Difficulty grades a stage or question.
type Difficulty string

const (
	DifficultyEasy   Difficulty = "easy"
	DifficultyMedium Difficulty = "medium"
	DifficultyHard   Difficulty = "hard"
	DifficultyAll    Difficulty = "all"
)

// Question is a single quiz item. Immutable once loaded into a session.
type Question struct {
	ID            string     `json:"id"`
	Prompt        string     `json:"question"`
	CorrectAnswer string     `json:"correctAnswer"`
	Options       []string   `json:"options"`
	Category      Category   `json:"category"`
	Difficulty    Difficulty `json:"difficulty"`
	Mode          Mode       `json:"mode"`
	AudioURL      string     `json:"audioURL,omitempty"`
	StageID       string     `json:"stageId"`
	OrderInStage  int        `json:"orderInStage"`
}

// Stage is a fixed bundle of questions within a category. Created at
// content-seeding time and read-only afterwards.
type Stage struct {
	ID               string     `json:"id"`
	StageNumber      int        `json:"stageNumber"`
	Category         Category   `json:"category"`
	Difficulty       Difficulty `json:"difficulty"`
	Title            string     `json:"title"`
	RequiredAccuracy float64    `json:"requiredAccuracy"`
	TotalQuestions   int        `json:"totalQuestions"`
}

// StageResult is the persisted outcome of one completed session.
// Accuracy, AccuracyPercentage and StarsDisplay are frozen at creation time
// for historical display.
type StageResult struct {
	ID                 string        `json:"id"`
	UserID             string        `json:"userId"`
	StageID            string        `json:"stageId"`
	Score              int           `json:"score"`
	Stars              int           `json:"stars"`
	TimeSpent          time.Duration `json:"timeSpent"`
	IsCleared          bool          `json:"isCleared"`
	CompletedAt        time.Time     `json:"completedAt"`
	Accuracy           float64       `json:"accuracy"`
	AccuracyPercentage string        `json:"accuracyPercentage"`
	StarsDisplay       string        `json:"starsDisplay"`
}

// CategoryStats summarizes a user's progress within one category.
type CategoryStats struct {
	CompletedStages int `json:"completedStages"`
	TotalStars      int `json:"totalStars"`
	UnlockedStage   int `json:"unlockedStage"`
}
