package seed

import (
	"strings"
	"testing"

	"brainy-quiz-service/internal/domain"
)

func TestLoadFillsDerivableFields(t *testing.T) {
	doc := `{
		"stages": [
			{"id": "general_stage_1", "stageNumber": 1, "category": "general", "difficulty": "easy", "title": "General 1"}
		],
		"questions": [
			{"id": "q1", "question": "2+2?", "correctAnswer": "4", "options": ["3","4"], "category": "general", "difficulty": "easy", "mode": "multipleChoice", "stageId": "general_stage_1", "orderInStage": 1},
			{"id": "q2", "question": "days in a week?", "correctAnswer": "7", "options": ["6","7"], "category": "general", "difficulty": "easy", "mode": "multipleChoice", "stageId": "general_stage_1", "orderInStage": 2}
		]
	}`

	data, err := Load(strings.NewReader(doc))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(data.Stages) != 1 || len(data.Questions) != 2 {
		t.Fatalf("unexpected counts: %d stages, %d questions", len(data.Stages), len(data.Questions))
	}
	stage := data.Stages[0]
	if stage.RequiredAccuracy != domain.DefaultRequiredAccuracy {
		t.Fatalf("expected default threshold, got %v", stage.RequiredAccuracy)
	}
	if stage.TotalQuestions != 2 {
		t.Fatalf("expected question count derived, got %d", stage.TotalQuestions)
	}
}

func TestLoadRejectsMalformedJSON(t *testing.T) {
	if _, err := Load(strings.NewReader(`{"stages": [`)); err == nil {
		t.Fatalf("expected decode error")
	}
}

func TestSampleIsConsistent(t *testing.T) {
	data := Sample()
	perStage := make(map[string]int)
	for _, q := range data.Questions {
		perStage[q.StageID]++
	}
	for _, stage := range data.Stages {
		if stage.TotalQuestions != perStage[stage.ID] {
			t.Fatalf("stage %s declares %d questions, has %d", stage.ID, stage.TotalQuestions, perStage[stage.ID])
		}
	}
}
