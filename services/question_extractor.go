package services

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/services/digitalocean"
	"github.com/sahilchouksey/paper-insights-api/utils"
)

// questionExtractionPrompt is the system prompt for question extraction
const questionExtractionPrompt = `You are an exam paper parser.

Given the OCR text of a university exam paper, extract ALL questions.

For each question, return:
- question_number (string, preserve original numbering)
- question_text (string)
- marks (number or null)
- question_type (one of ["Subjective", "Numerical", "MCQ", "Other"])

Rules:
- Do NOT summarize or rephrase questions
- Preserve original wording
- If marks are not mentioned, set null
- Output STRICT JSON ONLY
- Output an array of objects
- No explanations, no markdown`

// questionExtractionSchema is the JSON schema for structured extraction output
var questionExtractionSchema = map[string]any{
	"type": "object",
	"properties": map[string]any{
		"questions": map[string]any{
			"type":        "array",
			"description": "All questions found in the paper",
			"items": map[string]any{
				"type": "object",
				"properties": map[string]any{
					"question_number": map[string]any{
						"type":        "string",
						"description": "Question number preserving original formatting (e.g. 1, 2a, Q3)",
					},
					"question_text": map[string]any{
						"type":        "string",
						"description": "Full question text, original wording",
					},
					"marks": map[string]any{
						"type":        []string{"number", "null"},
						"description": "Marks for this question, null if not stated",
					},
					"question_type": map[string]any{
						"type":        "string",
						"description": "One of: Subjective, Numerical, MCQ, Other",
					},
				},
				"required": []string{"question_number", "question_text", "marks", "question_type"},
			},
		},
	},
	"required": []string{"questions"},
}

// ExtractedQuestion is one validated question from the extraction response
type ExtractedQuestion struct {
	QuestionNumber string
	QuestionText   string
	Marks          *int
	QuestionType   model.QuestionType
}

// ExtractorService parses normalized OCR text into structured questions
type ExtractorService struct {
	inference *digitalocean.InferenceClient
}

// NewExtractorService creates a new extractor service
func NewExtractorService(inference *digitalocean.InferenceClient) *ExtractorService {
	return &ExtractorService{inference: inference}
}

// ExtractQuestions runs the extraction LLM call over normalized paper text
func (s *ExtractorService) ExtractQuestions(ctx context.Context, normalizedText string) ([]ExtractedQuestion, error) {
	userPrompt := fmt.Sprintf("Extract all questions from the following exam paper:\n\n%s", truncateForInference(normalizedText))

	response, err := s.inference.StructuredCompletion(
		ctx,
		questionExtractionPrompt,
		userPrompt,
		"question_extraction",
		"Structured extraction of exam paper questions",
		questionExtractionSchema,
		digitalocean.WithInferenceMaxTokens(8192),
		digitalocean.WithInferenceTemperature(0),
	)
	if err != nil {
		response, err = s.inference.JSONCompletion(
			ctx,
			questionExtractionPrompt,
			userPrompt,
			digitalocean.WithInferenceMaxTokens(8192),
			digitalocean.WithInferenceTemperature(0),
		)
		if err != nil {
			return nil, fmt.Errorf("question extraction failed: %w", err)
		}
	}

	return parseExtractedQuestions(response)
}

// rawQuestion mirrors the extraction wire format before validation
type rawQuestion struct {
	QuestionNumber *json.RawMessage `json:"question_number"`
	QuestionText   *json.RawMessage `json:"question_text"`
	Marks          *float64         `json:"marks"`
	QuestionType   string           `json:"question_type"`
}

// parseExtractedQuestions validates an extraction response. The response
// may be a bare array or wrapped in a {"questions": [...]} object. A
// question missing required keys fails the whole stage; invalid types are
// coerced to Other and negative marks clamped away.
func parseExtractedQuestions(response string) ([]ExtractedQuestion, error) {
	jsonStr, err := utils.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("extraction returned no JSON: %w", err)
	}

	var items []json.RawMessage
	if err := json.Unmarshal([]byte(jsonStr), &items); err != nil {
		var wrapped struct {
			Questions []json.RawMessage `json:"questions"`
		}
		if err := json.Unmarshal([]byte(jsonStr), &wrapped); err != nil || wrapped.Questions == nil {
			return nil, fmt.Errorf("extraction response is not a question array")
		}
		items = wrapped.Questions
	}

	questions := make([]ExtractedQuestion, 0, len(items))
	for i, item := range items {
		var raw rawQuestion
		if err := json.Unmarshal(item, &raw); err != nil {
			return nil, fmt.Errorf("question at index %d is malformed: %w", i, err)
		}
		if raw.QuestionNumber == nil || raw.QuestionText == nil {
			return nil, fmt.Errorf("question at index %d missing required fields", i)
		}

		var number, text string
		if err := json.Unmarshal(*raw.QuestionNumber, &number); err != nil {
			// Numeric question numbers are accepted and stringified
			var n float64
			if err := json.Unmarshal(*raw.QuestionNumber, &n); err != nil {
				return nil, fmt.Errorf("question at index %d has invalid question_number", i)
			}
			number = trimFloat(n)
		}
		if err := json.Unmarshal(*raw.QuestionText, &text); err != nil {
			return nil, fmt.Errorf("question at index %d has invalid question_text", i)
		}

		var marks *int
		if raw.Marks != nil && *raw.Marks >= 0 {
			m := int(math.Round(*raw.Marks))
			marks = &m
		}

		questions = append(questions, ExtractedQuestion{
			QuestionNumber: number,
			QuestionText:   text,
			Marks:          marks,
			QuestionType:   model.ParseQuestionType(raw.QuestionType),
		})
	}

	return questions, nil
}

// trimFloat renders a numeric question number without trailing zeros
func trimFloat(f float64) string {
	if f == math.Trunc(f) {
		return fmt.Sprintf("%d", int64(f))
	}
	return fmt.Sprintf("%g", f)
}
