package model

import (
	"time"

	"gorm.io/gorm"
)

// StageStatus represents the outcome of one pipeline stage for a paper
type StageStatus string

const (
	StagePending   StageStatus = "pending"
	StageCompleted StageStatus = "completed"
	StagePartial   StageStatus = "partial"
	StageFailed    StageStatus = "failed"
	StageSkipped   StageStatus = "skipped"
)

// QuestionType classifies an extracted exam question
type QuestionType string

const (
	QuestionSubjective QuestionType = "Subjective"
	QuestionNumerical  QuestionType = "Numerical"
	QuestionMCQ        QuestionType = "MCQ"
	QuestionOther      QuestionType = "Other"
)

// ParseQuestionType coerces arbitrary LLM output to a known question type.
// Unknown values fall back to Other.
func ParseQuestionType(s string) QuestionType {
	switch QuestionType(s) {
	case QuestionSubjective, QuestionNumerical, QuestionMCQ, QuestionOther:
		return QuestionType(s)
	default:
		return QuestionOther
	}
}

// ExamType values recognized by the classifier. Anything else is coerced to Other.
var ValidExamTypes = []string{"Mid Semester", "End Semester", "Quiz", "Other"}

// ParseExamType coerces a classifier exam_type value to a known exam type
func ParseExamType(s string) string {
	for _, t := range ValidExamTypes {
		if s == t {
			return t
		}
	}
	return "Other"
}

// Paper represents one uploaded exam paper and its pipeline state.
// A paper whose DuplicateOf is set is a duplicate upload and is never
// counted by the insight aggregator; the canonical paper is the first
// upload with the same fingerprint.
type Paper struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	Fingerprint string  `gorm:"type:varchar(64);not null;index" json:"fingerprint"`
	DuplicateOf *string `gorm:"type:uuid;index" json:"duplicate_of,omitempty"`

	// Classification results (nil until the classifier has run)
	Subject    *string `gorm:"type:varchar(255);index" json:"subject,omitempty"`
	CourseCode *string `gorm:"type:varchar(50)" json:"course_code,omitempty"`
	ExamType   string  `gorm:"type:varchar(50)" json:"exam_type,omitempty"`
	Confidence float64 `gorm:"default:0" json:"confidence,omitempty"`

	// Upload metadata
	UploadFilename string `gorm:"type:varchar(255)" json:"upload_filename"`
	SpacesKey      string `gorm:"type:varchar(512)" json:"-"`
	PageCount      int    `gorm:"default:0" json:"page_count"`
	OCRText        string `gorm:"type:text" json:"-"`

	// Per-stage pipeline status. Each stage records its own failure so a
	// partial pipeline still yields a usable paper record.
	OCRStatus            StageStatus `gorm:"type:varchar(20);default:'pending'" json:"ocr_status"`
	OCRError             string      `gorm:"type:text" json:"ocr_error,omitempty"`
	ClassificationStatus StageStatus `gorm:"type:varchar(20);default:'pending'" json:"classification_status"`
	ClassificationError  string      `gorm:"type:text" json:"classification_error,omitempty"`
	ExtractionStatus     StageStatus `gorm:"type:varchar(20);default:'pending'" json:"extraction_status"`
	ExtractionError      string      `gorm:"type:text" json:"extraction_error,omitempty"`
	TopicInferenceStatus StageStatus `gorm:"type:varchar(20);default:'pending'" json:"topic_inference_status"`
	TopicInferenceError  string      `gorm:"type:text" json:"topic_inference_error,omitempty"`

	// Relationships
	Questions []Question `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
}

// Question represents a single extracted question of a paper.
// Topic stays nil until topic inference has run; questions without a
// topic are skipped by the aggregator.
type Question struct {
	ID        string         `gorm:"type:uuid;primaryKey" json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	PaperID string `gorm:"type:uuid;not null;index" json:"paper_id"`
	// Position preserves extraction order; aggregation iterates questions
	// in this order so tie-breaking is reproducible.
	Position       int          `gorm:"not null;default:0" json:"position"`
	QuestionNumber string       `gorm:"type:varchar(20);not null" json:"question_number"` // e.g. "1", "2a", "Q3"
	QuestionText   string       `gorm:"type:text;not null" json:"question_text"`
	Marks          *int         `json:"marks"` // nil when the paper does not state marks
	QuestionType   QuestionType `gorm:"type:varchar(20);default:'Other'" json:"question_type"`
	Topic          *string      `gorm:"type:varchar(255);index" json:"topic,omitempty"`
	TopicError     string       `gorm:"type:text" json:"topic_error,omitempty"`

	Paper Paper `gorm:"foreignKey:PaperID;constraint:OnDelete:CASCADE" json:"-"`
}

// ============= Response Types =============

// PaperResponse is used for API responses
type PaperResponse struct {
	ID             string             `json:"id"`
	Fingerprint    string             `json:"fingerprint"`
	DuplicateOf    *string            `json:"duplicate_of,omitempty"`
	Subject        *string            `json:"subject,omitempty"`
	CourseCode     *string            `json:"course_code,omitempty"`
	ExamType       string             `json:"exam_type,omitempty"`
	Confidence     float64            `json:"confidence,omitempty"`
	UploadFilename string             `json:"upload_filename"`
	PageCount      int                `json:"page_count"`
	Questions      []QuestionResponse `json:"questions"`
	Status         PipelineStatus     `json:"status"`
	CreatedAt      time.Time          `json:"created_at"`
}

// QuestionResponse is used for API responses
type QuestionResponse struct {
	ID             string       `json:"id"`
	QuestionNumber string       `json:"question_number"`
	QuestionText   string       `json:"question_text"`
	Marks          *int         `json:"marks"`
	QuestionType   QuestionType `json:"question_type"`
	Topic          *string      `json:"topic,omitempty"`
	TopicError     string       `json:"topic_error,omitempty"`
}

// PipelineStatus summarizes how far the ingestion pipeline got for a paper
type PipelineStatus struct {
	OCR            StageReport `json:"ocr"`
	Classification StageReport `json:"classification"`
	Extraction     StageReport `json:"extraction"`
	TopicInference StageReport `json:"topic_inference"`
	Duplicate      bool        `json:"duplicate"`
	CanonicalPaper *string     `json:"canonical_paper_id,omitempty"`
}

// StageReport is the status of one pipeline stage plus its error, if any
type StageReport struct {
	Status StageStatus `json:"status"`
	Error  string      `json:"error,omitempty"`
}

// PipelineStatus builds the per-stage status payload for a paper
func (p *Paper) PipelineStatus() PipelineStatus {
	return PipelineStatus{
		OCR:            StageReport{Status: p.OCRStatus, Error: p.OCRError},
		Classification: StageReport{Status: p.ClassificationStatus, Error: p.ClassificationError},
		Extraction:     StageReport{Status: p.ExtractionStatus, Error: p.ExtractionError},
		TopicInference: StageReport{Status: p.TopicInferenceStatus, Error: p.TopicInferenceError},
		Duplicate:      p.DuplicateOf != nil,
		CanonicalPaper: p.DuplicateOf,
	}
}

// ToResponse converts a Paper to its API response form
func (p *Paper) ToResponse() PaperResponse {
	questions := make([]QuestionResponse, len(p.Questions))
	for i, q := range p.Questions {
		questions[i] = QuestionResponse{
			ID:             q.ID,
			QuestionNumber: q.QuestionNumber,
			QuestionText:   q.QuestionText,
			Marks:          q.Marks,
			QuestionType:   q.QuestionType,
			Topic:          q.Topic,
			TopicError:     q.TopicError,
		}
	}

	return PaperResponse{
		ID:             p.ID,
		Fingerprint:    p.Fingerprint,
		DuplicateOf:    p.DuplicateOf,
		Subject:        p.Subject,
		CourseCode:     p.CourseCode,
		ExamType:       p.ExamType,
		Confidence:     p.Confidence,
		UploadFilename: p.UploadFilename,
		PageCount:      p.PageCount,
		Questions:      questions,
		Status:         p.PipelineStatus(),
		CreatedAt:      p.CreatedAt,
	}
}
