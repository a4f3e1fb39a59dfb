package services

import (
	"context"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/services/digitalocean"
	"github.com/sahilchouksey/paper-insights-api/utils/textnorm"
)

// defaultTopicWorkers bounds concurrent topic inference calls per paper
const defaultTopicWorkers = 4

// PipelineService runs the upload pipeline: store the original file,
// extract text, fingerprint, register against the dedup registry and,
// for genuinely new papers, fan out classification, question extraction
// and topic inference. Each stage degrades independently; an upload
// only fails outright when the paper row itself cannot be written.
type PipelineService struct {
	db           *gorm.DB
	spaces       *digitalocean.SpacesClient
	ocr          *OCRClient
	pdfExtractor *PDFExtractor
	registry     *RegistryService
	classifier   *ClassifierService
	extractor    *ExtractorService
	topics       *TopicInferencer
	recompute    *RecomputeService
	topicWorkers int
}

// NewPipelineService creates a new pipeline service. spaces may be nil
// when object storage is not configured; the pipeline then skips the
// upload stage.
func NewPipelineService(
	db *gorm.DB,
	spaces *digitalocean.SpacesClient,
	ocr *OCRClient,
	pdfExtractor *PDFExtractor,
	registry *RegistryService,
	classifier *ClassifierService,
	extractor *ExtractorService,
	topics *TopicInferencer,
	recompute *RecomputeService,
	topicWorkers int,
) *PipelineService {
	if topicWorkers <= 0 {
		topicWorkers = defaultTopicWorkers
	}
	return &PipelineService{
		db:           db,
		spaces:       spaces,
		ocr:          ocr,
		pdfExtractor: pdfExtractor,
		registry:     registry,
		classifier:   classifier,
		extractor:    extractor,
		topics:       topics,
		recompute:    recompute,
		topicWorkers: topicWorkers,
	}
}

// ProcessUpload runs the full pipeline for one uploaded PDF and returns
// the resulting paper with per-stage statuses populated.
func (p *PipelineService) ProcessUpload(ctx context.Context, filename string, pdfBytes []byte) (*model.Paper, error) {
	paper := &model.Paper{
		ID:                   uuid.New().String(),
		UploadFilename:       filename,
		OCRStatus:            model.StagePending,
		ClassificationStatus: model.StagePending,
		ExtractionStatus:     model.StagePending,
		TopicInferenceStatus: model.StagePending,
	}

	p.uploadOriginal(ctx, paper, filename, pdfBytes)

	text, pageCount, err := p.extractText(ctx, filename, pdfBytes)
	if err != nil {
		// Without text there is nothing to fingerprint or analyze.
		paper.OCRStatus = model.StageFailed
		paper.OCRError = err.Error()
		p.skipRemainingStages(paper, "no text extracted")
		if dbErr := p.db.WithContext(ctx).Create(paper).Error; dbErr != nil {
			return nil, fmt.Errorf("failed to persist paper: %w", dbErr)
		}
		return paper, nil
	}

	normalized := textnorm.Normalize(text)
	paper.OCRStatus = model.StageCompleted
	paper.OCRText = normalized
	paper.PageCount = pageCount
	paper.Fingerprint = textnorm.Fingerprint(normalized)

	if err := p.db.WithContext(ctx).Create(paper).Error; err != nil {
		return nil, fmt.Errorf("failed to persist paper: %w", err)
	}

	check, err := p.registry.CheckDuplicate(ctx, paper.Fingerprint, paper.ID)
	if err != nil {
		// Registry unavailable means dedup cannot be guaranteed; do not
		// run analysis on a paper that may be a duplicate.
		log.Printf("Pipeline: registry check failed for paper %s: %v", paper.ID, err)
		p.skipRemainingStages(paper, "duplicate check unavailable")
		p.savePaper(ctx, paper)
		return paper, nil
	}

	if check.IsDuplicate {
		log.Printf("Pipeline: paper %s is a duplicate of %s", paper.ID, check.CanonicalPaperID)
		paper.DuplicateOf = &check.CanonicalPaperID
		p.skipRemainingStages(paper, "duplicate of existing paper")
		p.savePaper(ctx, paper)
		return paper, nil
	}

	p.classify(ctx, paper, normalized)
	questions := p.extractQuestions(ctx, paper, normalized)
	p.inferTopics(ctx, paper, questions)

	p.savePaper(ctx, paper)

	p.recompute.OnNewCanonicalPaper(ctx, paper.ID)

	return paper, nil
}

// uploadOriginal stores the raw PDF in object storage. Storage failures
// degrade the upload, they never fail it.
func (p *PipelineService) uploadOriginal(ctx context.Context, paper *model.Paper, filename string, pdfBytes []byte) {
	if p.spaces == nil {
		return
	}

	key := digitalocean.GenerateKey("papers", filename)
	if _, err := p.spaces.UploadBytes(ctx, key, pdfBytes, digitalocean.GetContentType(filename)); err != nil {
		log.Printf("Pipeline: spaces upload failed for %s: %v", filename, err)
		return
	}
	paper.SpacesKey = key
}

// extractText obtains raw text for the PDF, preferring the OCR sidecar
// and falling back to local extraction when the sidecar is unreachable
// or returns nothing usable.
func (p *PipelineService) extractText(ctx context.Context, filename string, pdfBytes []byte) (string, int, error) {
	ocrResp, ocrErr := p.ocr.ProcessPDFFile(ctx, pdfBytes, filename)
	if ocrErr == nil && len(ocrResp.Text) > 0 {
		return ocrResp.Text, ocrResp.PageCount, nil
	}
	if ocrErr != nil {
		log.Printf("Pipeline: OCR service failed for %s, falling back to local extraction: %v", filename, ocrErr)
	}

	text, localErr := p.pdfExtractor.ExtractText(pdfBytes)
	if localErr != nil {
		return "", 0, fmt.Errorf("OCR failed (%v) and local extraction failed (%v)", ocrErr, localErr)
	}

	pageCount, err := p.pdfExtractor.GetPageCount(pdfBytes)
	if err != nil {
		pageCount = 0
	}
	return text, pageCount, nil
}

// classify runs the classification stage and records its outcome
func (p *PipelineService) classify(ctx context.Context, paper *model.Paper, normalized string) {
	result, err := p.classifier.Classify(ctx, normalized)
	if err != nil {
		log.Printf("Pipeline: classification failed for paper %s: %v", paper.ID, err)
		paper.ClassificationStatus = model.StageFailed
		paper.ClassificationError = err.Error()
		return
	}

	paper.ClassificationStatus = model.StageCompleted
	paper.Subject = result.Subject
	paper.CourseCode = result.CourseCode
	paper.ExamType = result.ExamType
	paper.Confidence = result.Confidence
}

// extractQuestions runs the extraction stage, persists questions in a
// transaction and returns the created rows for topic inference.
func (p *PipelineService) extractQuestions(ctx context.Context, paper *model.Paper, normalized string) []model.Question {
	extracted, err := p.extractor.ExtractQuestions(ctx, normalized)
	if err != nil {
		log.Printf("Pipeline: question extraction failed for paper %s: %v", paper.ID, err)
		paper.ExtractionStatus = model.StageFailed
		paper.ExtractionError = err.Error()
		return nil
	}

	questions := make([]model.Question, 0, len(extracted))
	for i, q := range extracted {
		questions = append(questions, model.Question{
			ID:             uuid.New().String(),
			PaperID:        paper.ID,
			Position:       i,
			QuestionNumber: q.QuestionNumber,
			QuestionText:   q.QuestionText,
			Marks:          q.Marks,
			QuestionType:   q.QuestionType,
		})
	}

	if len(questions) > 0 {
		err = p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return tx.Create(&questions).Error
		})
		if err != nil {
			log.Printf("Pipeline: failed to persist questions for paper %s: %v", paper.ID, err)
			paper.ExtractionStatus = model.StageFailed
			paper.ExtractionError = err.Error()
			return nil
		}
	}

	paper.ExtractionStatus = model.StageCompleted
	return questions
}

// inferTopics runs topic inference over all extracted questions with a
// bounded worker pool. Individual question failures degrade the stage
// to partial; only a total miss marks it failed.
func (p *PipelineService) inferTopics(ctx context.Context, paper *model.Paper, questions []model.Question) {
	if paper.ExtractionStatus != model.StageCompleted {
		paper.TopicInferenceStatus = model.StageSkipped
		paper.TopicInferenceError = "no questions extracted"
		return
	}
	if len(questions) == 0 {
		paper.TopicInferenceStatus = model.StageCompleted
		return
	}

	subject := ""
	if paper.Subject != nil {
		subject = *paper.Subject
	}

	var wg sync.WaitGroup
	sem := make(chan struct{}, p.topicWorkers)
	errs := make([]error, len(questions))

	for i := range questions {
		wg.Add(1)
		sem <- struct{}{}
		go func(idx int) {
			defer wg.Done()
			defer func() { <-sem }()

			topic, err := p.topics.InferTopic(ctx, subject, questions[idx].QuestionText)
			if err != nil {
				errs[idx] = err
				return
			}
			questions[idx].Topic = &topic
		}(i)
	}
	wg.Wait()

	succeeded := 0
	for i := range questions {
		update := map[string]interface{}{}
		if errs[i] != nil {
			update["topic_error"] = errs[i].Error()
		} else {
			update["topic"] = questions[i].Topic
			succeeded++
		}
		if err := p.db.WithContext(ctx).Model(&model.Question{}).
			Where("id = ?", questions[i].ID).
			Updates(update).Error; err != nil {
			log.Printf("Pipeline: failed to save topic for question %s: %v", questions[i].ID, err)
			if errs[i] == nil {
				errs[i] = err
				succeeded--
			}
		}
	}

	switch {
	case succeeded == len(questions):
		paper.TopicInferenceStatus = model.StageCompleted
	case succeeded > 0:
		paper.TopicInferenceStatus = model.StagePartial
		paper.TopicInferenceError = fmt.Sprintf("topic inference failed for %d of %d questions", len(questions)-succeeded, len(questions))
	default:
		paper.TopicInferenceStatus = model.StageFailed
		paper.TopicInferenceError = "topic inference failed for all questions"
	}
}

// skipRemainingStages marks all analysis stages skipped with a reason
func (p *PipelineService) skipRemainingStages(paper *model.Paper, reason string) {
	paper.ClassificationStatus = model.StageSkipped
	paper.ClassificationError = reason
	paper.ExtractionStatus = model.StageSkipped
	paper.ExtractionError = reason
	paper.TopicInferenceStatus = model.StageSkipped
	paper.TopicInferenceError = reason
}

// savePaper persists stage outcomes; failures are logged, the in-memory
// paper is still returned to the caller.
func (p *PipelineService) savePaper(ctx context.Context, paper *model.Paper) {
	if err := p.db.WithContext(ctx).Save(paper).Error; err != nil {
		log.Printf("Pipeline: failed to save paper %s: %v", paper.ID, err)
	}
}

// GetPaper fetches one paper with its questions
func (p *PipelineService) GetPaper(ctx context.Context, id string) (*model.Paper, error) {
	var paper model.Paper
	err := p.db.WithContext(ctx).
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		First(&paper, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &paper, nil
}

// GetPaperStatus fetches only the pipeline status of one paper
func (p *PipelineService) GetPaperStatus(ctx context.Context, id string) (*model.PipelineStatus, error) {
	var paper model.Paper
	if err := p.db.WithContext(ctx).First(&paper, "id = ?", id).Error; err != nil {
		return nil, err
	}
	status := paper.PipelineStatus()
	return &status, nil
}

// DeletePaper removes a paper, its questions and, when it was the
// canonical paper for its fingerprint, the registry entry. The subject
// insight is recomputed afterwards so it stops reflecting the removed
// paper.
func (p *PipelineService) DeletePaper(ctx context.Context, id string) error {
	var paper model.Paper
	if err := p.db.WithContext(ctx).First(&paper, "id = ?", id).Error; err != nil {
		return err
	}

	err := p.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("paper_id = ?", id).Delete(&model.Question{}).Error; err != nil {
			return err
		}
		return tx.Delete(&model.Paper{}, "id = ?", id).Error
	})
	if err != nil {
		return fmt.Errorf("failed to delete paper: %w", err)
	}

	if err := p.registry.RemoveEntry(ctx, id); err != nil {
		log.Printf("Pipeline: failed to remove registry entry for paper %s: %v", id, err)
	}

	if p.spaces != nil && paper.SpacesKey != "" {
		if err := p.spaces.DeleteFile(ctx, paper.SpacesKey); err != nil {
			log.Printf("Pipeline: failed to delete stored file %s: %v", paper.SpacesKey, err)
		}
	}

	if paper.Subject != nil && *paper.Subject != "" && paper.DuplicateOf == nil {
		if err := p.recompute.RecomputeSubject(ctx, *paper.Subject); err != nil {
			log.Printf("Pipeline: recompute after delete failed for %q: %v", *paper.Subject, err)
		}
	}

	return nil
}
