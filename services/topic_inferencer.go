package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sahilchouksey/paper-insights-api/services/digitalocean"
	"github.com/sahilchouksey/paper-insights-api/utils"
)

// topicInferencePrompt is the system prompt for per-question topic inference
const topicInferencePrompt = `You are an academic question classifier.

Given:
- a subject name
- a single exam question

Return the MOST LIKELY topic this question belongs to.

Rules:
- Topic must be a short academic noun phrase (2-4 words)
- Do NOT include marks or question type
- Do NOT invent syllabus units
- Use standard university terminology
- Output STRICT JSON ONLY
- No explanations

Return format:
{
  "topic": "<topic name>"
}`

// TopicInferencer infers a topic label for a single question
type TopicInferencer struct {
	inference *digitalocean.InferenceClient
}

// NewTopicInferencer creates a new topic inferencer
func NewTopicInferencer(inference *digitalocean.InferenceClient) *TopicInferencer {
	return &TopicInferencer{inference: inference}
}

// InferTopic returns the topic label for one question of a subject
func (s *TopicInferencer) InferTopic(ctx context.Context, subject, questionText string) (string, error) {
	if subject == "" {
		subject = "Unknown Subject"
	}

	userPrompt := fmt.Sprintf("SUBJECT:\n%s\n\nQUESTION:\n%s", subject, questionText)

	response, err := s.inference.JSONCompletion(
		ctx,
		topicInferencePrompt,
		userPrompt,
		digitalocean.WithInferenceMaxTokens(128),
		digitalocean.WithInferenceTemperature(0),
	)
	if err != nil {
		return "", fmt.Errorf("topic inference failed: %w", err)
	}

	return parseTopic(response)
}

// parseTopic validates a topic inference response
func parseTopic(response string) (string, error) {
	jsonStr, err := utils.ExtractJSON(response)
	if err != nil {
		return "", fmt.Errorf("topic inference returned no JSON: %w", err)
	}

	var parsed struct {
		Topic *string `json:"topic"`
	}
	if err := json.Unmarshal([]byte(jsonStr), &parsed); err != nil {
		return "", fmt.Errorf("topic inference returned malformed JSON: %w", err)
	}
	if parsed.Topic == nil || strings.TrimSpace(*parsed.Topic) == "" {
		return "", fmt.Errorf("topic inference response missing topic field")
	}

	return strings.TrimSpace(*parsed.Topic), nil
}
