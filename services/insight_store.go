package services

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/utils/cache"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var (
	slugWhitespace = regexp.MustCompile(`\s+`)
	slugInvalid    = regexp.MustCompile(`[^a-z0-9-]`)
)

// SubjectSlug derives the storage key for a subject name: lowercased,
// whitespace runs collapsed to single hyphens, everything outside
// [a-z0-9-] stripped.
func SubjectSlug(subject string) string {
	slug := strings.ToLower(strings.TrimSpace(subject))
	slug = slugWhitespace.ReplaceAllString(slug, "-")
	return slugInvalid.ReplaceAllString(slug, "")
}

// InsightStore persists computed subject insights under their normalized
// slug. Writes are full replacements: every column is overwritten, so a
// field the latest computation left empty never survives from an earlier
// write.
type InsightStore struct {
	db    *gorm.DB
	cache *cache.RedisCache // optional, nil when redis is unavailable
}

// NewInsightStore creates a new insight store
func NewInsightStore(db *gorm.DB, redisCache *cache.RedisCache) *InsightStore {
	return &InsightStore{db: db, cache: redisCache}
}

// insightCacheKey is the redis key for a stored insight
func insightCacheKey(slug string) string {
	return "subject_insight:" + slug
}

// StoreSubjectInsights writes (or fully replaces) the insight row for the
// insight's subject and invalidates the read cache.
func (s *InsightStore) StoreSubjectInsights(ctx context.Context, insight *model.SubjectInsight) error {
	if insight == nil {
		return fmt.Errorf("insight must not be nil")
	}

	slug := SubjectSlug(insight.Subject)
	if slug == "" {
		return fmt.Errorf("subject %q normalizes to an empty slug", insight.Subject)
	}
	insight.Slug = slug

	if err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "slug"}},
			UpdateAll: true,
		}).
		Create(insight).Error; err != nil {
		return fmt.Errorf("failed to store insight for %q: %w", insight.Subject, err)
	}

	if s.cache != nil {
		if err := s.cache.Delete(ctx, insightCacheKey(slug)); err != nil {
			// Cache invalidation failure only means a stale read until TTL.
			log.Printf("InsightStore: failed to invalidate cache for %s: %v", slug, err)
		}
	}

	return nil
}

// GetSubjectInsights reads the stored insight for a subject slug, through
// the redis cache when available.
func (s *InsightStore) GetSubjectInsights(ctx context.Context, slug string) (*model.SubjectInsight, error) {
	if s.cache != nil {
		var cached model.SubjectInsight
		if err := s.cache.GetJSON(ctx, insightCacheKey(slug), &cached); err == nil {
			return &cached, nil
		}
	}

	var insight model.SubjectInsight
	if err := s.db.WithContext(ctx).
		Where("slug = ?", slug).
		First(&insight).Error; err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetJSON(ctx, insightCacheKey(slug), &insight, cache.InsightTTL); err != nil {
			log.Printf("InsightStore: failed to cache insight for %s: %v", slug, err)
		}
	}

	return &insight, nil
}

// ListSlugs returns the slugs of all stored insights
func (s *InsightStore) ListSlugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := s.db.WithContext(ctx).
		Model(&model.SubjectInsight{}).
		Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to list insight slugs: %w", err)
	}
	return slugs, nil
}
