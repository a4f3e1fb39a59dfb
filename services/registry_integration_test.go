package services

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/sahilchouksey/paper-insights-api/config"
	"github.com/sahilchouksey/paper-insights-api/database"
	"github.com/sahilchouksey/paper-insights-api/model"
	"github.com/sahilchouksey/paper-insights-api/utils/textnorm"
	"gorm.io/gorm"
)

// setupIntegrationDB connects to the configured Postgres for integration
// tests. Requires RUN_INTEGRATION_TESTS=true and a reachable database.
func setupIntegrationDB(t *testing.T) *gorm.DB {
	t.Helper()

	if os.Getenv("RUN_INTEGRATION_TESTS") != "true" {
		t.Skip("Skipping integration test. Set RUN_INTEGRATION_TESTS=true to run")
	}

	_ = config.LoadENV()

	store, err := database.StartGORM()
	if err != nil {
		t.Fatalf("failed to connect to database: %v", err)
	}
	if err := store.Init(); err != nil {
		t.Fatalf("failed to migrate: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	return store.DB()
}

func TestRegistryFirstUploadIsCanonical(t *testing.T) {
	db := setupIntegrationDB(t)
	registry := NewRegistryService(db)
	ctx := context.Background()

	fingerprint := textnorm.Fingerprint("registry canonical test " + uuid.New().String())
	paperID := uuid.New().String()
	t.Cleanup(func() {
		db.Where("fingerprint = ?", fingerprint).Delete(&model.CanonicalPaper{})
	})

	result, err := registry.CheckDuplicate(ctx, fingerprint, paperID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsDuplicate {
		t.Fatal("first upload reported as duplicate")
	}

	entry, err := registry.GetEntry(ctx, fingerprint)
	if err != nil {
		t.Fatalf("failed to fetch entry: %v", err)
	}
	if entry.PaperID != paperID {
		t.Errorf("canonical paper = %s, want %s", entry.PaperID, paperID)
	}
	if entry.UploadCount != 1 {
		t.Errorf("upload count = %d, want 1", entry.UploadCount)
	}
}

func TestRegistryDuplicateDetection(t *testing.T) {
	db := setupIntegrationDB(t)
	registry := NewRegistryService(db)
	ctx := context.Background()

	fingerprint := textnorm.Fingerprint("registry duplicate test " + uuid.New().String())
	firstID := uuid.New().String()
	t.Cleanup(func() {
		db.Where("fingerprint = ?", fingerprint).Delete(&model.CanonicalPaper{})
	})

	if _, err := registry.CheckDuplicate(ctx, fingerprint, firstID); err != nil {
		t.Fatalf("first check failed: %v", err)
	}

	// Re-uploads of identical content must always resolve to the first paper.
	for i := 0; i < 3; i++ {
		result, err := registry.CheckDuplicate(ctx, fingerprint, uuid.New().String())
		if err != nil {
			t.Fatalf("duplicate check %d failed: %v", i, err)
		}
		if !result.IsDuplicate {
			t.Fatalf("duplicate check %d: not reported as duplicate", i)
		}
		if result.CanonicalPaperID != firstID {
			t.Errorf("duplicate check %d: canonical = %s, want %s", i, result.CanonicalPaperID, firstID)
		}
	}

	entry, err := registry.GetEntry(ctx, fingerprint)
	if err != nil {
		t.Fatalf("failed to fetch entry: %v", err)
	}
	if entry.UploadCount != 4 {
		t.Errorf("upload count = %d, want 4", entry.UploadCount)
	}
}

func TestRegistryRemoveEntry(t *testing.T) {
	db := setupIntegrationDB(t)
	registry := NewRegistryService(db)
	ctx := context.Background()

	fingerprint := textnorm.Fingerprint("registry remove test " + uuid.New().String())
	paperID := uuid.New().String()

	if _, err := registry.CheckDuplicate(ctx, fingerprint, paperID); err != nil {
		t.Fatalf("check failed: %v", err)
	}

	if err := registry.RemoveEntry(ctx, paperID); err != nil {
		t.Fatalf("remove failed: %v", err)
	}

	// The same content can become canonical again after removal.
	result, err := registry.CheckDuplicate(ctx, fingerprint, uuid.New().String())
	if err != nil {
		t.Fatalf("recheck failed: %v", err)
	}
	if result.IsDuplicate {
		t.Error("re-upload after removal still reported as duplicate")
	}
	db.Where("fingerprint = ?", fingerprint).Delete(&model.CanonicalPaper{})
}

func TestInsightStoreFullReplace(t *testing.T) {
	db := setupIntegrationDB(t)
	store := NewInsightStore(db, nil)
	ctx := context.Background()

	subject := "Integration Test Subject " + uuid.New().String()[:8]
	slug := SubjectSlug(subject)
	t.Cleanup(func() {
		db.Where("slug = ?", slug).Delete(&model.SubjectInsight{})
	})

	first := buildSubjectInsight(subject, 3, []aggregatedQuestion{
		aq("Deadlocks", model.QuestionSubjective, 10, "2024"),
		aq("Paging", model.QuestionNumerical, 5, "2024"),
	}, time.Now())
	if err := store.StoreSubjectInsights(ctx, first); err != nil {
		t.Fatalf("first store failed: %v", err)
	}

	// Second computation drops Paging entirely; the stored row must not
	// keep any trace of it.
	second := buildSubjectInsight(subject, 4, []aggregatedQuestion{
		aq("Deadlocks", model.QuestionSubjective, 10, "2024"),
	}, time.Now())
	if err := store.StoreSubjectInsights(ctx, second); err != nil {
		t.Fatalf("second store failed: %v", err)
	}

	stored, err := store.GetSubjectInsights(ctx, slug)
	if err != nil {
		t.Fatalf("fetch failed: %v", err)
	}
	if stored.PaperCount != 4 {
		t.Errorf("paper count = %d, want 4", stored.PaperCount)
	}
	if _, ok := stored.TopicWeightage.Data()["Paging"]; ok {
		t.Error("stale topic survived full replace")
	}
}
