package services

import (
	"context"
	"fmt"
	"log"

	"github.com/sahilchouksey/paper-insights-api/model"
	"gorm.io/gorm"
)

// RecomputeService reacts to new canonical papers by recomputing the
// affected subject's insight. Failures here are logged and swallowed: a
// failed recompute leaves a stale insight, it must never fail the upload
// that triggered it.
type RecomputeService struct {
	db       *gorm.DB
	insights *InsightService
	store    *InsightStore
}

// NewRecomputeService creates a new recompute service
func NewRecomputeService(db *gorm.DB, insights *InsightService, store *InsightStore) *RecomputeService {
	return &RecomputeService{
		db:       db,
		insights: insights,
		store:    store,
	}
}

// OnNewCanonicalPaper is the event hook fired when a genuinely new
// (non-duplicate) paper has been registered. When the paper has no
// subject yet - classification pending or failed - this is a no-op; the
// periodic sweep picks such papers up once they are classified.
func (r *RecomputeService) OnNewCanonicalPaper(ctx context.Context, paperID string) {
	var paper model.Paper
	if err := r.db.WithContext(ctx).First(&paper, "id = ?", paperID).Error; err != nil {
		log.Printf("RecomputeService: paper %s not found: %v", paperID, err)
		return
	}

	if paper.Subject == nil || *paper.Subject == "" {
		log.Printf("RecomputeService: paper %s has no subject classification yet, skipping", paperID)
		return
	}

	if err := r.RecomputeSubject(ctx, *paper.Subject); err != nil {
		log.Printf("RecomputeService: recompute failed for subject %q: %v", *paper.Subject, err)
	}
}

// RecomputeSubject recomputes and stores the insight for one subject.
// Used by the event hook, the manual recompute endpoint and the cron
// sweep; unlike the hook, callers of this method see the error.
func (r *RecomputeService) RecomputeSubject(ctx context.Context, subject string) error {
	insight, err := r.insights.ComputeSubjectInsights(ctx, subject)
	if err != nil {
		return fmt.Errorf("compute failed: %w", err)
	}

	if err := r.store.StoreSubjectInsights(ctx, insight); err != nil {
		return fmt.Errorf("store failed: %w", err)
	}

	log.Printf("RecomputeService: insights updated for %q (%d papers)", subject, insight.PaperCount)
	return nil
}

// RecomputeAll recomputes every subject that has at least one canonical
// classified paper. Returns the number of subjects refreshed and the
// first error encountered, if any; remaining subjects are still
// attempted.
func (r *RecomputeService) RecomputeAll(ctx context.Context) (int, error) {
	subjects, err := r.insights.ListSubjects(ctx)
	if err != nil {
		return 0, err
	}

	refreshed := 0
	var firstErr error
	for _, s := range subjects {
		if err := r.RecomputeSubject(ctx, s.Subject); err != nil {
			log.Printf("RecomputeService: sweep failed for %q: %v", s.Subject, err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		refreshed++
	}

	return refreshed, firstErr
}
