package model

import (
	"time"

	"gorm.io/datatypes"
)

// MostAskedSentinel is returned for the most-asked topic when a subject
// has no aggregated questions yet.
const MostAskedSentinel = "N/A"

// QuestionCluster groups near-duplicate question texts under one label.
// Produced by the optional LLM clustering step; empty when the step is
// skipped or fails.
type QuestionCluster struct {
	ClusterLabel string   `json:"cluster_label"`
	Questions    []string `json:"questions"`
}

// SubjectInsight is the derived per-subject aggregate. It is disposable:
// every recompute replaces the whole row, nothing is patched in place, so
// a field empty in the latest computation never survives from an earlier
// write.
type SubjectInsight struct {
	Slug       string    `gorm:"type:varchar(255);primaryKey" json:"slug"`
	Subject    string    `gorm:"type:varchar(255);not null" json:"subject"`
	ComputedAt time.Time `gorm:"not null" json:"computed_at"`
	PaperCount int       `gorm:"not null;default:0" json:"paper_count"`

	MostAskedTopicByCount string `gorm:"type:varchar(255)" json:"most_asked_topic_by_count"`
	MostAskedTopicByMarks string `gorm:"type:varchar(255)" json:"most_asked_topic_by_marks"`

	TopicWeightage           datatypes.JSONType[map[string]int]      `json:"topic_weightage"`
	QuestionTypeDistribution datatypes.JSONType[map[string]int]      `json:"question_type_distribution"`
	TopicQuestionTypeMap     datatypes.JSONType[map[string]string]   `json:"topic_question_type_map"`
	YearlyTrends             datatypes.JSONType[map[string][]string] `json:"yearly_trends"`
	RepeatedQuestionClusters datatypes.JSONType[[]QuestionCluster]   `json:"repeated_question_clusters"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TableName specifies the table name for SubjectInsight
func (SubjectInsight) TableName() string {
	return "subject_insights"
}

// SubjectInsightResponse is the API response form with JSON columns unwrapped
type SubjectInsightResponse struct {
	Subject                  string              `json:"subject"`
	ComputedAt               time.Time           `json:"computed_at"`
	PaperCount               int                 `json:"paper_count"`
	Bootstrapping            bool                `json:"bootstrapping"`
	MostAskedTopic           MostAskedTopic      `json:"most_asked_topic"`
	TopicWeightage           map[string]int      `json:"topic_weightage"`
	QuestionTypeDistribution map[string]int      `json:"question_type_distribution"`
	TopicQuestionTypeMap     map[string]string   `json:"topic_question_type_map"`
	YearlyTrends             map[string][]string `json:"yearly_trends"`
	RepeatedQuestionClusters []QuestionCluster   `json:"repeated_question_clusters"`
}

// MostAskedTopic pairs the by-count and by-marks winners
type MostAskedTopic struct {
	ByCount string `json:"by_count"`
	ByMarks string `json:"by_marks"`
}

// ReliabilityThreshold is the canonical paper count below which a
// subject's statistics are flagged as bootstrapping (not yet reliable).
const ReliabilityThreshold = 5

// ToResponse converts a SubjectInsight to its API response form
func (s *SubjectInsight) ToResponse() SubjectInsightResponse {
	clusters := s.RepeatedQuestionClusters.Data()
	if clusters == nil {
		clusters = []QuestionCluster{}
	}

	return SubjectInsightResponse{
		Subject:       s.Subject,
		ComputedAt:    s.ComputedAt,
		PaperCount:    s.PaperCount,
		Bootstrapping: s.PaperCount < ReliabilityThreshold,
		MostAskedTopic: MostAskedTopic{
			ByCount: s.MostAskedTopicByCount,
			ByMarks: s.MostAskedTopicByMarks,
		},
		TopicWeightage:           s.TopicWeightage.Data(),
		QuestionTypeDistribution: s.QuestionTypeDistribution.Data(),
		TopicQuestionTypeMap:     s.TopicQuestionTypeMap.Data(),
		YearlyTrends:             s.YearlyTrends.Data(),
		RepeatedQuestionClusters: clusters,
	}
}
