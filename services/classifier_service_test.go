package services

import "testing"

func TestParseClassificationValid(t *testing.T) {
	raw := `{"subject": "Operating Systems", "course_code": "MCA-301", "exam_type": "End Semester", "confidence": 0.92}`

	result, err := parseClassification(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if result.Subject == nil || *result.Subject != "Operating Systems" {
		t.Errorf("subject = %v, want Operating Systems", result.Subject)
	}
	if result.CourseCode == nil || *result.CourseCode != "MCA-301" {
		t.Errorf("course_code = %v, want MCA-301", result.CourseCode)
	}
	if result.ExamType != "End Semester" {
		t.Errorf("exam_type = %q, want End Semester", result.ExamType)
	}
	if result.Confidence != 0.92 {
		t.Errorf("confidence = %v, want 0.92", result.Confidence)
	}
}

func TestParseClassificationNullFields(t *testing.T) {
	raw := `{"subject": null, "course_code": null, "exam_type": "Quiz", "confidence": 0.4}`

	result, err := parseClassification(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Subject != nil {
		t.Errorf("subject = %v, want nil", result.Subject)
	}
	if result.CourseCode != nil {
		t.Errorf("course_code = %v, want nil", result.CourseCode)
	}
}

func TestParseClassificationMissingKeyFails(t *testing.T) {
	raw := `{"subject": "Operating Systems", "exam_type": "Quiz", "confidence": 0.4}`

	if _, err := parseClassification(raw); err == nil {
		t.Fatal("expected error for missing course_code key")
	}
}

func TestParseClassificationCoercesUnknownExamType(t *testing.T) {
	raw := `{"subject": "OS", "course_code": null, "exam_type": "Final Exam", "confidence": 0.8}`

	result, err := parseClassification(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.ExamType != "Other" {
		t.Errorf("exam_type = %q, want Other", result.ExamType)
	}
}

func TestParseClassificationClampsConfidence(t *testing.T) {
	for _, raw := range []string{
		`{"subject": "OS", "course_code": null, "exam_type": "Quiz", "confidence": 1.7}`,
		`{"subject": "OS", "course_code": null, "exam_type": "Quiz", "confidence": -0.2}`,
	} {
		result, err := parseClassification(raw)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if result.Confidence != 0.5 {
			t.Errorf("confidence = %v, want 0.5 fallback", result.Confidence)
		}
	}
}

func TestParseClassificationMarkdownFenced(t *testing.T) {
	raw := "```json\n{\"subject\": \"DBMS\", \"course_code\": null, \"exam_type\": \"Mid Semester\", \"confidence\": 0.7}\n```"

	result, err := parseClassification(raw)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.Subject == nil || *result.Subject != "DBMS" {
		t.Errorf("subject = %v, want DBMS", result.Subject)
	}
}

func TestParseClassificationGarbageFails(t *testing.T) {
	if _, err := parseClassification("I could not determine the subject."); err == nil {
		t.Fatal("expected error for non-JSON response")
	}
}

func TestTruncateForInference(t *testing.T) {
	short := "short text"
	if got := truncateForInference(short); got != short {
		t.Errorf("short text was modified: %q", got)
	}

	long := make([]byte, 60000)
	for i := range long {
		long[i] = 'a'
	}
	got := truncateForInference(string(long))
	if len(got) >= 60000 {
		t.Errorf("long text was not truncated, len = %d", len(got))
	}
}
