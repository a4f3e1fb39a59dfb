package services

import (
	"context"
	"fmt"
	"log"
	"math"
	"strconv"
	"time"

	"github.com/sahilchouksey/paper-insights-api/model"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// clusterThreshold is the minimum number of aggregated questions before the
// optional repeated-question clustering step is attempted.
const clusterThreshold = 20

// InsightService computes subject-level statistics from canonical papers.
// The whole computation is a pure function of the fetched rows; iteration
// order is pinned (papers by created_at then id, questions by position) so
// the result is reproducible for a given dataset.
type InsightService struct {
	db        *gorm.DB
	clusterer *ClusterService // optional, nil when AI is disabled
}

// NewInsightService creates a new insight service
func NewInsightService(db *gorm.DB, clusterer *ClusterService) *InsightService {
	return &InsightService{
		db:        db,
		clusterer: clusterer,
	}
}

// aggregatedQuestion is the flattened view of one question the aggregation
// pass runs over. Questions without an inferred topic never reach it.
type aggregatedQuestion struct {
	Topic        string
	QuestionType model.QuestionType
	Marks        int // nil marks are counted as 0
	QuestionText string
	Year         string
}

// ComputeSubjectInsights aggregates all canonical, classified papers for a
// subject into a SubjectInsight. Any fetch failure fails the whole
// computation so a stale insight is left in place rather than a wrong one.
func (s *InsightService) ComputeSubjectInsights(ctx context.Context, subject string) (*model.SubjectInsight, error) {
	if subject == "" {
		return nil, fmt.Errorf("subject must not be empty")
	}

	var papers []model.Paper
	if err := s.db.WithContext(ctx).
		Where("subject = ? AND duplicate_of IS NULL", subject).
		Order("created_at ASC, id ASC").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Find(&papers).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch papers for subject %q: %w", subject, err)
	}

	questions := collectQuestions(papers)
	insight := buildSubjectInsight(subject, len(papers), questions, time.Now())

	// Optional best-effort clustering. A failure here degrades to an empty
	// cluster list and never fails the aggregation.
	if len(questions) > clusterThreshold && s.clusterer != nil {
		texts := make([]string, len(questions))
		for i, q := range questions {
			texts[i] = q.QuestionText
		}

		clusters, err := s.clusterer.ClusterQuestions(ctx, texts)
		if err != nil {
			log.Printf("InsightService: question clustering failed for %q: %v", subject, err)
		} else {
			insight.RepeatedQuestionClusters = datatypes.NewJSONType(clusters)
		}
	}

	return insight, nil
}

// collectQuestions flattens papers into the aggregation input, skipping
// questions whose topic inference is still pending.
func collectQuestions(papers []model.Paper) []aggregatedQuestion {
	var questions []aggregatedQuestion
	for _, paper := range papers {
		year := strconv.Itoa(paper.CreatedAt.Year())
		for _, q := range paper.Questions {
			if q.Topic == nil || *q.Topic == "" {
				continue
			}
			marks := 0
			if q.Marks != nil && *q.Marks > 0 {
				marks = *q.Marks
			}
			questions = append(questions, aggregatedQuestion{
				Topic:        *q.Topic,
				QuestionType: q.QuestionType,
				Marks:        marks,
				QuestionText: q.QuestionText,
				Year:         year,
			})
		}
	}
	return questions
}

// buildSubjectInsight is the deterministic aggregation pass. Ties are
// broken by first appearance in question order.
func buildSubjectInsight(subject string, paperCount int, questions []aggregatedQuestion, now time.Time) *model.SubjectInsight {
	// 1. Topic frequency and marks. topicOrder pins first-appearance order
	// so the max scans below are reproducible.
	topicCount := make(map[string]int)
	topicMarks := make(map[string]int)
	var topicOrder []string

	for _, q := range questions {
		if _, seen := topicCount[q.Topic]; !seen {
			topicOrder = append(topicOrder, q.Topic)
		}
		topicCount[q.Topic]++
		topicMarks[q.Topic] += q.Marks
	}

	// 2. Most-asked topic, by count and by total marks
	byCount := maxTopic(topicOrder, topicCount)
	byMarks := maxTopic(topicOrder, topicMarks)

	// 3. Topic weightage: each topic's share of total marks, rounded
	// independently. The values may not sum to exactly 100.
	totalMarks := 0
	for _, m := range topicMarks {
		totalMarks += m
	}

	topicWeightage := make(map[string]int, len(topicOrder))
	for _, topic := range topicOrder {
		topicWeightage[topic] = percentage(topicMarks[topic], totalMarks)
	}

	// 4. Question-type distribution over all aggregated questions
	typeCount := make(map[string]int)
	for _, q := range questions {
		typeCount[string(q.QuestionType)]++
	}

	typeDistribution := make(map[string]int, len(typeCount))
	for ty, count := range typeCount {
		typeDistribution[ty] = percentage(count, len(questions))
	}

	// 5. Dominant question type per topic
	topicTypeMap := dominantTypePerTopic(questions, topicOrder)

	// 6. Yearly trends: distinct topics per upload year, insertion order
	yearlyTrends := make(map[string][]string)
	yearSeen := make(map[string]map[string]bool)
	for _, q := range questions {
		if yearSeen[q.Year] == nil {
			yearSeen[q.Year] = make(map[string]bool)
		}
		if !yearSeen[q.Year][q.Topic] {
			yearSeen[q.Year][q.Topic] = true
			yearlyTrends[q.Year] = append(yearlyTrends[q.Year], q.Topic)
		}
	}

	return &model.SubjectInsight{
		Slug:                     SubjectSlug(subject),
		Subject:                  subject,
		ComputedAt:               now,
		PaperCount:               paperCount,
		MostAskedTopicByCount:    byCount,
		MostAskedTopicByMarks:    byMarks,
		TopicWeightage:           datatypes.NewJSONType(topicWeightage),
		QuestionTypeDistribution: datatypes.NewJSONType(typeDistribution),
		TopicQuestionTypeMap:     datatypes.NewJSONType(topicTypeMap),
		YearlyTrends:             datatypes.NewJSONType(yearlyTrends),
		RepeatedQuestionClusters: datatypes.NewJSONType([]model.QuestionCluster{}),
	}
}

// maxTopic returns the topic with the highest tally, first-encountered
// winning ties. Returns the sentinel when there are no topics.
func maxTopic(order []string, tally map[string]int) string {
	if len(order) == 0 {
		return model.MostAskedSentinel
	}

	best := order[0]
	for _, topic := range order[1:] {
		if tally[topic] > tally[best] {
			best = topic
		}
	}
	return best
}

// percentage returns round(part/total*100), or 0 when total is 0
func percentage(part, total int) int {
	if total == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(total) * 100))
}

// dominantTypePerTopic finds each topic's most frequent question type,
// ties broken by the order types first appear for that topic.
func dominantTypePerTopic(questions []aggregatedQuestion, topicOrder []string) map[string]string {
	counts := make(map[string]map[string]int)
	typeOrder := make(map[string][]string)

	for _, q := range questions {
		ty := string(q.QuestionType)
		if counts[q.Topic] == nil {
			counts[q.Topic] = make(map[string]int)
		}
		if _, seen := counts[q.Topic][ty]; !seen {
			typeOrder[q.Topic] = append(typeOrder[q.Topic], ty)
		}
		counts[q.Topic][ty]++
	}

	result := make(map[string]string, len(topicOrder))
	for _, topic := range topicOrder {
		order := typeOrder[topic]
		if len(order) == 0 {
			continue
		}
		best := order[0]
		for _, ty := range order[1:] {
			if counts[topic][ty] > counts[topic][best] {
				best = ty
			}
		}
		result[topic] = best
	}
	return result
}

// ListSubjects returns the distinct classified subjects with their
// canonical paper counts, ordered by count descending.
func (s *InsightService) ListSubjects(ctx context.Context) ([]SubjectSummary, error) {
	var results []SubjectSummary
	if err := s.db.WithContext(ctx).
		Model(&model.Paper{}).
		Select("subject, COUNT(*) as paper_count").
		Where("subject IS NOT NULL AND duplicate_of IS NULL").
		Group("subject").
		Order("paper_count DESC, subject ASC").
		Scan(&results).Error; err != nil {
		return nil, fmt.Errorf("failed to list subjects: %w", err)
	}

	for i := range results {
		results[i].Slug = SubjectSlug(results[i].Subject)
	}
	return results, nil
}

// SubjectSummary is one row of the subject listing
type SubjectSummary struct {
	Subject    string `json:"subject"`
	Slug       string `json:"slug" gorm:"-"`
	PaperCount int    `json:"paper_count"`
}
