package services

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/services/digitalocean"
	"github.com/sahilchouksey/paper-insights-api/utils"
)

// classificationPrompt is the system prompt for exam paper classification
const classificationPrompt = `You are an academic exam paper classifier.

Given the raw OCR text of a university exam paper, extract the following fields:

- subject: official subject name
- course_code: if explicitly mentioned, else null
- exam_type: one of ["Mid Semester", "End Semester", "Quiz", "Other"]
- confidence: number between 0 and 1 indicating certainty

Rules:
- Do NOT hallucinate course codes
- Use only information present in the text
- If unsure, set field to null
- Output STRICT JSON ONLY
- No explanations`

// classificationSchema is the JSON schema for structured classification output
var classificationSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"subject": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Official subject name, null if not determinable",
		},
		"course_code": map[string]any{
			"type":        []string{"string", "null"},
			"description": "Course code if explicitly mentioned, else null",
		},
		"exam_type": map[string]any{
			"type":        "string",
			"description": "One of: Mid Semester, End Semester, Quiz, Other",
		},
		"confidence": map[string]any{
			"type":        "number",
			"description": "Certainty between 0 and 1",
		},
	},
	"required": []string{"subject", "course_code", "exam_type", "confidence"},
}

// ClassificationResult holds validated classifier output
type ClassificationResult struct {
	Subject    *string `json:"subject"`
	CourseCode *string `json:"course_code"`
	ExamType   string  `json:"exam_type"`
	Confidence float64 `json:"confidence"`
}

// ClassifierService extracts paper metadata from normalized OCR text
type ClassifierService struct {
	inference *digitalocean.InferenceClient
}

// NewClassifierService creates a new classifier service
func NewClassifierService(inference *digitalocean.InferenceClient) *ClassifierService {
	return &ClassifierService{inference: inference}
}

// Classify runs the classification LLM call over normalized paper text
func (s *ClassifierService) Classify(ctx context.Context, normalizedText string) (*ClassificationResult, error) {
	userPrompt := fmt.Sprintf("Classify the following exam paper:\n\n%s", truncateForInference(normalizedText))

	response, err := s.inference.StructuredCompletion(
		ctx,
		classificationPrompt,
		userPrompt,
		"paper_classification",
		"Subject, course code, exam type and confidence for an exam paper",
		classificationSchema,
		digitalocean.WithInferenceMaxTokens(512),
		digitalocean.WithInferenceTemperature(0),
	)
	if err != nil {
		response, err = s.inference.JSONCompletion(
			ctx,
			classificationPrompt,
			userPrompt,
			digitalocean.WithInferenceMaxTokens(512),
			digitalocean.WithInferenceTemperature(0),
		)
		if err != nil {
			return nil, fmt.Errorf("classification failed: %w", err)
		}
	}

	return parseClassification(response)
}

// parseClassification validates a raw classifier response. Missing keys
// are a hard failure; invalid enum and confidence values are coerced.
func parseClassification(response string) (*ClassificationResult, error) {
	jsonStr, err := utils.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("classification returned no JSON: %w", err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &raw); err != nil {
		return nil, fmt.Errorf("classification returned malformed JSON: %w", err)
	}

	for _, key := range []string{"subject", "course_code", "exam_type", "confidence"} {
		if _, ok := raw[key]; !ok {
			return nil, fmt.Errorf("classification response missing %q field", key)
		}
	}

	var result ClassificationResult
	if err := json.Unmarshal([]byte(jsonStr), &result); err != nil {
		return nil, fmt.Errorf("classification response has wrong field types: %w", err)
	}

	result.ExamType = model.ParseExamType(result.ExamType)
	if result.Confidence < 0 || result.Confidence > 1 {
		result.Confidence = 0.5
	}

	return &result, nil
}

// truncateForInference caps prompt text at a safe input size
func truncateForInference(text string) string {
	const maxChars = 50000
	if len(text) > maxChars {
		return text[:maxChars] + "\n\n[Document truncated due to length]"
	}
	return text
}
