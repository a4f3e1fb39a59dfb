package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/paper-insights-api/model"
)

// RecomputeSubjectInsights refreshes the stored insight of every subject
// with at least one canonical classified paper.
// Runs hourly; also heals insights for papers classified after their
// upload-time recompute already ran.
func (m *CronManager) RecomputeSubjectInsights() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Minute)
	defer cancel()

	jobName := "recompute_subject_insights"

	refreshed, err := m.recompute.RecomputeAll(ctx)
	if err != nil {
		m.logJobError(jobName, fmt.Errorf("refreshed %d subjects, first error: %w", refreshed, err))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Refreshed insights for %d subjects", refreshed))
}

// CleanupStalledPapers marks papers whose pipeline never finished as
// failed. A paper still pending after 24 hours is stuck; the upload
// request that owned it is long gone.
func (m *CronManager) CleanupStalledPapers() {
	jobName := "cleanup_stalled_papers"

	cutoff := time.Now().Add(-24 * time.Hour)

	res := m.db.Model(&model.Paper{}).
		Where("ocr_status = ? AND created_at < ?", model.StagePending, cutoff).
		Updates(map[string]interface{}{
			"ocr_status": model.StageFailed,
			"ocr_error":  "pipeline stalled, marked failed by cleanup job",
		})
	if res.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to mark stalled papers: %w", res.Error))
		return
	}

	m.logJobComplete(jobName, fmt.Sprintf("Marked %d stalled papers as failed", res.RowsAffected))
}

// CleanupOldData prunes aged operational records.
// Runs daily: cron job logs older than 30 days and soft-deleted papers
// older than 7 days are removed for good.
func (m *CronManager) CleanupOldData() {
	jobName := "cleanup_old_data"

	logCutoff := time.Now().AddDate(0, 0, -30)
	logsRes := m.db.Unscoped().
		Where("created_at < ?", logCutoff).
		Delete(&model.CronJobLog{})
	if logsRes.Error != nil {
		m.logJobError(jobName, fmt.Errorf("failed to prune cron logs: %w", logsRes.Error))
		return
	}

	paperCutoff := time.Now().AddDate(0, 0, -7)

	var papers []model.Paper
	if err := m.db.Unscoped().
		Where("deleted_at IS NOT NULL AND deleted_at < ?", paperCutoff).
		Find(&papers).Error; err != nil {
		m.logJobError(jobName, fmt.Errorf("failed to query soft-deleted papers: %w", err))
		return
	}

	purged := 0
	for _, paper := range papers {
		if err := m.db.Unscoped().
			Where("paper_id = ?", paper.ID).
			Delete(&model.Question{}).Error; err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to purge questions of paper %s: %w", paper.ID, err))
			return
		}
		if err := m.db.Unscoped().Delete(&paper).Error; err != nil {
			m.logJobError(jobName, fmt.Errorf("failed to purge paper %s: %w", paper.ID, err))
			return
		}
		purged++
	}

	m.logJobComplete(jobName, fmt.Sprintf("Pruned %d cron logs, purged %d papers", logsRes.RowsAffected, purged))
}
