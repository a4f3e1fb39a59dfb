package services

import (
	"testing"

	"github.com/sahilchouksey/paper-insights-api/model"
)

func TestParseExtractedQuestionsBareArray(t *testing.T) {
	raw := `[
		{"question_number": "1", "question_text": "Define deadlock.", "marks": 5, "question_type": "Subjective"},
		{"question_number": "2a", "question_text": "Calculate average waiting time.", "marks": 10, "question_type": "Numerical"}
	]`

	questions, err := parseExtractedQuestions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(questions))
	}
	if questions[0].QuestionNumber != "1" || questions[0].Marks == nil || *questions[0].Marks != 5 {
		t.Errorf("unexpected first question: %+v", questions[0])
	}
	if questions[1].QuestionType != model.QuestionNumerical {
		t.Errorf("second question type = %q, want Numerical", questions[1].QuestionType)
	}
}

func TestParseExtractedQuestionsWrappedObject(t *testing.T) {
	raw := `{"questions": [{"question_number": "Q1", "question_text": "Explain paging.", "marks": null, "question_type": "Subjective"}]}`

	questions, err := parseExtractedQuestions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 1 {
		t.Fatalf("got %d questions, want 1", len(questions))
	}
	if questions[0].Marks != nil {
		t.Errorf("null marks parsed as %v, want nil", *questions[0].Marks)
	}
}

func TestParseExtractedQuestionsNumericNumber(t *testing.T) {
	raw := `[{"question_number": 3, "question_text": "State Belady's anomaly.", "marks": 2, "question_type": "Subjective"}]`

	questions, err := parseExtractedQuestions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if questions[0].QuestionNumber != "3" {
		t.Errorf("question_number = %q, want \"3\"", questions[0].QuestionNumber)
	}
}

func TestParseExtractedQuestionsMissingFieldFails(t *testing.T) {
	raw := `[{"question_number": "1", "marks": 5, "question_type": "Subjective"}]`

	if _, err := parseExtractedQuestions(raw); err == nil {
		t.Fatal("expected error for question missing question_text")
	}
}

func TestParseExtractedQuestionsCoercesUnknownType(t *testing.T) {
	raw := `[{"question_number": "1", "question_text": "Fill in the blank.", "marks": 1, "question_type": "Fill-in"}]`

	questions, err := parseExtractedQuestions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if questions[0].QuestionType != model.QuestionOther {
		t.Errorf("question_type = %q, want Other", questions[0].QuestionType)
	}
}

func TestParseExtractedQuestionsNegativeMarksDropped(t *testing.T) {
	raw := `[{"question_number": "1", "question_text": "Trick question.", "marks": -5, "question_type": "MCQ"}]`

	questions, err := parseExtractedQuestions(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if questions[0].Marks != nil {
		t.Errorf("negative marks kept as %v, want nil", *questions[0].Marks)
	}
}

func TestParseExtractedQuestionsEmptyArray(t *testing.T) {
	questions, err := parseExtractedQuestions(`[]`)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(questions) != 0 {
		t.Errorf("got %d questions, want 0", len(questions))
	}
}

func TestParseExtractedQuestionsNotAnArrayFails(t *testing.T) {
	if _, err := parseExtractedQuestions(`{"answer": 42}`); err == nil {
		t.Fatal("expected error for non-array response")
	}
}

func TestTrimFloat(t *testing.T) {
	cases := []struct {
		in   float64
		want string
	}{
		{3, "3"},
		{12, "12"},
		{2.5, "2.5"},
	}
	for _, tc := range cases {
		if got := trimFloat(tc.in); got != tc.want {
			t.Errorf("trimFloat(%v) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
