package model

import "testing"

func TestParseQuestionType(t *testing.T) {
	cases := []struct {
		in   string
		want QuestionType
	}{
		{"Subjective", QuestionSubjective},
		{"Numerical", QuestionNumerical},
		{"MCQ", QuestionMCQ},
		{"Other", QuestionOther},
		{"subjective", QuestionOther},
		{"True/False", QuestionOther},
		{"", QuestionOther},
	}

	for _, tc := range cases {
		if got := ParseQuestionType(tc.in); got != tc.want {
			t.Errorf("ParseQuestionType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestParseExamType(t *testing.T) {
	cases := []struct {
		in, want string
	}{
		{"Mid Semester", "Mid Semester"},
		{"End Semester", "End Semester"},
		{"Quiz", "Quiz"},
		{"Other", "Other"},
		{"Final", "Other"},
		{"", "Other"},
	}

	for _, tc := range cases {
		if got := ParseExamType(tc.in); got != tc.want {
			t.Errorf("ParseExamType(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestPipelineStatusDuplicate(t *testing.T) {
	canonical := "b2f0c7a0-0000-0000-0000-000000000000"
	p := Paper{
		OCRStatus:            StageCompleted,
		ClassificationStatus: StageSkipped,
		ExtractionStatus:     StageSkipped,
		TopicInferenceStatus: StageSkipped,
		DuplicateOf:          &canonical,
	}

	status := p.PipelineStatus()
	if !status.Duplicate {
		t.Error("duplicate paper not flagged")
	}
	if status.CanonicalPaper == nil || *status.CanonicalPaper != canonical {
		t.Errorf("canonical paper = %v, want %s", status.CanonicalPaper, canonical)
	}
	if status.Classification.Status != StageSkipped {
		t.Errorf("classification status = %q, want skipped", status.Classification.Status)
	}
}

func TestPipelineStatusCarriesErrors(t *testing.T) {
	p := Paper{
		OCRStatus:            StageCompleted,
		ClassificationStatus: StageFailed,
		ClassificationError:  "inference timeout",
		ExtractionStatus:     StageCompleted,
		TopicInferenceStatus: StagePartial,
		TopicInferenceError:  "topic inference failed for 2 of 10 questions",
	}

	status := p.PipelineStatus()
	if status.Duplicate {
		t.Error("non-duplicate paper flagged as duplicate")
	}
	if status.Classification.Error != "inference timeout" {
		t.Errorf("classification error = %q", status.Classification.Error)
	}
	if status.TopicInference.Status != StagePartial {
		t.Errorf("topic status = %q, want partial", status.TopicInference.Status)
	}
}

func TestToResponseIncludesQuestions(t *testing.T) {
	topic := "Deadlocks"
	marks := 5
	subject := "Operating Systems"
	p := Paper{
		ID:          "paper-1",
		Fingerprint: "abc",
		Subject:     &subject,
		Questions: []Question{
			{ID: "q-1", QuestionNumber: "1", QuestionText: "Define deadlock.", Marks: &marks, QuestionType: QuestionSubjective, Topic: &topic},
			{ID: "q-2", QuestionNumber: "2", QuestionText: "Explain paging.", QuestionType: QuestionSubjective},
		},
	}

	resp := p.ToResponse()
	if len(resp.Questions) != 2 {
		t.Fatalf("got %d questions, want 2", len(resp.Questions))
	}
	if resp.Questions[0].Topic == nil || *resp.Questions[0].Topic != "Deadlocks" {
		t.Errorf("first question topic = %v", resp.Questions[0].Topic)
	}
	if resp.Questions[1].Marks != nil {
		t.Errorf("second question marks = %v, want nil", resp.Questions[1].Marks)
	}
}
