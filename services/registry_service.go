package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sahilchouksey/paper-insights-api/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RegistryService owns the canonical-paper dedup registry: the mapping
// from content fingerprint to the first paper uploaded with that content.
type RegistryService struct {
	db *gorm.DB
}

// NewRegistryService creates a new registry service
func NewRegistryService(db *gorm.DB) *RegistryService {
	return &RegistryService{db: db}
}

// DuplicateCheckResult is the outcome of a registry check
type DuplicateCheckResult struct {
	IsDuplicate      bool   `json:"is_duplicate"`
	CanonicalPaperID string `json:"canonical_paper_id,omitempty"`
}

// CheckDuplicate registers candidatePaperID as canonical for fingerprint if
// no entry exists yet, otherwise records another upload of known content.
//
// The check-and-create is a single conditional insert: ON CONFLICT on the
// fingerprint primary key does nothing, so when two uploads of the same
// content race, exactly one insert lands and the loser takes the duplicate
// path. There is no read-then-write window.
//
// A registry error is a hard failure - the caller must not treat the
// candidate paper as canonical when the registry cannot answer.
func (s *RegistryService) CheckDuplicate(ctx context.Context, fingerprint, candidatePaperID string) (*DuplicateCheckResult, error) {
	if fingerprint == "" {
		return nil, fmt.Errorf("fingerprint must not be empty")
	}
	if candidatePaperID == "" {
		return nil, fmt.Errorf("candidate paper id must not be empty")
	}

	now := time.Now()
	entry := model.CanonicalPaper{
		Fingerprint:    fingerprint,
		PaperID:        candidatePaperID,
		UploadCount:    1,
		LastUploadedAt: now,
	}

	res := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "fingerprint"}},
			DoNothing: true,
		}).
		Create(&entry)
	if res.Error != nil {
		return nil, fmt.Errorf("registry write failed: %w", res.Error)
	}

	if res.RowsAffected == 1 {
		// New canonical entry - the candidate is the first upload.
		return &DuplicateCheckResult{IsDuplicate: false}, nil
	}

	// Entry already existed (or we lost the race): duplicate upload.
	// The increment runs as a SQL expression so concurrent duplicates
	// cannot clobber each other's counts.
	if err := s.db.WithContext(ctx).
		Model(&model.CanonicalPaper{}).
		Where("fingerprint = ?", fingerprint).
		Updates(map[string]interface{}{
			"upload_count":     gorm.Expr("upload_count + 1"),
			"last_uploaded_at": now,
		}).Error; err != nil {
		return nil, fmt.Errorf("failed to record duplicate upload: %w", err)
	}

	var existing model.CanonicalPaper
	if err := s.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		First(&existing).Error; err != nil {
		return nil, fmt.Errorf("failed to fetch canonical entry: %w", err)
	}

	return &DuplicateCheckResult{
		IsDuplicate:      true,
		CanonicalPaperID: existing.PaperID,
	}, nil
}

// GetEntry returns the registry entry for a fingerprint
func (s *RegistryService) GetEntry(ctx context.Context, fingerprint string) (*model.CanonicalPaper, error) {
	var entry model.CanonicalPaper
	if err := s.db.WithContext(ctx).
		Where("fingerprint = ?", fingerprint).
		First(&entry).Error; err != nil {
		return nil, err
	}
	return &entry, nil
}

// RemoveEntry deletes the registry entry owned by paperID, if any. Used by
// paper rollback so a re-upload of the same content can become canonical
// again.
func (s *RegistryService) RemoveEntry(ctx context.Context, paperID string) error {
	return s.db.WithContext(ctx).
		Where("paper_id = ?", paperID).
		Delete(&model.CanonicalPaper{}).Error
}
