// Package seed decodes the JSON content-seeding format: a single document
// holding initial stages and questions.
package seed

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"brainy-quiz-service/internal/domain"
)

// Data is the decoded seed document.
type Data struct {
	Stages    []domain.Stage    `json:"stages"`
	Questions []domain.Question `json:"questions"`
}

// Load decodes seed data and fills in derivable stage fields: a missing
// clearance threshold defaults, a zero question count is derived from the
// stage's questions.
func Load(r io.Reader) (Data, error) {
	var data Data
	if err := json.NewDecoder(r).Decode(&data); err != nil {
		return Data{}, fmt.Errorf("decode seed data: %w", err)
	}

	perStage := make(map[string]int)
	for _, q := range data.Questions {
		perStage[q.StageID]++
	}
	for i := range data.Stages {
		if data.Stages[i].RequiredAccuracy <= 0 {
			data.Stages[i].RequiredAccuracy = domain.DefaultRequiredAccuracy
		}
		if data.Stages[i].TotalQuestions == 0 {
			data.Stages[i].TotalQuestions = perStage[data.Stages[i].ID]
		}
	}
	return data, nil
}

// LoadFile reads seed data from a JSON file.
func LoadFile(path string) (Data, error) {
	f, err := os.Open(path)
	if err != nil {
		return Data{}, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return Load(f)
}

// Sample provides a minimal built-in data set used when no seed file is
// configured.
func Sample() Data {
	return Data{
		Stages: []domain.Stage{
			{
				ID:               "general_stage_1",
				StageNumber:      1,
				Category:         domain.CategoryGeneral,
				Difficulty:       domain.DifficultyEasy,
				Title:            "General Knowledge 1",
				RequiredAccuracy: domain.DefaultRequiredAccuracy,
				TotalQuestions:   2,
			},
			{
				ID:               "country_stage_1",
				StageNumber:      1,
				Category:         domain.CategoryCountry,
				Difficulty:       domain.DifficultyEasy,
				Title:            "Countries 1",
				RequiredAccuracy: domain.DefaultRequiredAccuracy,
				TotalQuestions:   1,
			},
		},
		Questions: []domain.Question{
			{
				ID:            "general_q1",
				Prompt:        "What is 2 + 2?",
				CorrectAnswer: "4",
				Options:       []string{"3", "4", "5"},
				Category:      domain.CategoryGeneral,
				Difficulty:    domain.DifficultyEasy,
				Mode:          domain.ModeMultipleChoice,
				StageID:       "general_stage_1",
				OrderInStage:  1,
			},
			{
				ID:            "general_q2",
				Prompt:        "How many days are in a week?",
				CorrectAnswer: "7",
				Options:       []string{"5", "6", "7"},
				Category:      domain.CategoryGeneral,
				Difficulty:    domain.DifficultyEasy,
				Mode:          domain.ModeMultipleChoice,
				StageID:       "general_stage_1",
				OrderInStage:  2,
			},
			{
				ID:            "country_q1",
				Prompt:        "What is the capital of France?",
				CorrectAnswer: "Paris",
				Options:       []string{"Paris", "Lyon", "Marseille"},
				Category:      domain.CategoryCountry,
				Difficulty:    domain.DifficultyEasy,
				Mode:          domain.ModeMultipleChoice,
				StageID:       "country_stage_1",
				OrderInStage:  1,
			},
		},
	}
}
