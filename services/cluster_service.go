package services

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/services/digitalocean"
	"github.com/sahilchouksey/paper-insights-api/utils"
)

// maxClusters caps how many repeated-question clusters are kept
const maxClusters = 5

// clusteringPrompt is the system prompt for repeated-question clustering
const clusteringPrompt = `Given a list of exam questions from the same subject,
group semantically similar questions.

Rules:
- Group only if meaning is essentially the same
- Output STRICT JSON
- No explanations

Output format:
[
  {
    "cluster_label": "...",
    "questions": ["...", "..."]
  }
]`

// ClusterService groups near-duplicate question texts. This backs the
// optional, best-effort clustering step of the aggregator; callers treat
// any error as "no clusters".
type ClusterService struct {
	inference *digitalocean.InferenceClient
}

// NewClusterService creates a new cluster service
func NewClusterService(inference *digitalocean.InferenceClient) *ClusterService {
	return &ClusterService{inference: inference}
}

// ClusterQuestions asks the model to group semantically similar questions
// and returns at most maxClusters clusters in the order the model emitted
// them.
func (s *ClusterService) ClusterQuestions(ctx context.Context, questionTexts []string) ([]model.QuestionCluster, error) {
	if len(questionTexts) == 0 {
		return []model.QuestionCluster{}, nil
	}

	var b strings.Builder
	for i, q := range questionTexts {
		fmt.Fprintf(&b, "%d. %s\n", i+1, q)
	}
	userPrompt := fmt.Sprintf("QUESTIONS:\n%s", truncateForInference(b.String()))

	response, err := s.inference.JSONCompletion(
		ctx,
		clusteringPrompt,
		userPrompt,
		digitalocean.WithInferenceMaxTokens(4096),
		digitalocean.WithInferenceTemperature(0),
	)
	if err != nil {
		return nil, fmt.Errorf("clustering call failed: %w", err)
	}

	return parseClusters(response)
}

// parseClusters validates a clustering response and applies the cluster cap
func parseClusters(response string) ([]model.QuestionCluster, error) {
	jsonStr, err := utils.ExtractJSON(response)
	if err != nil {
		return nil, fmt.Errorf("clustering returned no JSON: %w", err)
	}

	var clusters []model.QuestionCluster
	if err := json.Unmarshal([]byte(jsonStr), &clusters); err != nil {
		return nil, fmt.Errorf("clustering returned malformed JSON: %w", err)
	}

	if len(clusters) > maxClusters {
		clusters = clusters[:maxClusters]
	}
	return clusters, nil
}
