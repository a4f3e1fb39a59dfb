package subject

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/paper-insights-api/services"
	"github.com/sahilchouksey/paper-insights-api/utils/response"
	"gorm.io/gorm"
)

// SubjectHandler serves subject listings and their aggregated insights
type SubjectHandler struct {
	db        *gorm.DB
	insights  *services.InsightService
	store     *services.InsightStore
	recompute *services.RecomputeService
}

// NewSubjectHandler creates a new subject handler
func NewSubjectHandler(db *gorm.DB, insights *services.InsightService, store *services.InsightStore, recompute *services.RecomputeService) *SubjectHandler {
	return &SubjectHandler{
		db:        db,
		insights:  insights,
		store:     store,
		recompute: recompute,
	}
}

// ListSubjects handles GET /api/v1/subjects
func (h *SubjectHandler) ListSubjects(c *fiber.Ctx) error {
	subjects, err := h.insights.ListSubjects(c.Context())
	if err != nil {
		return response.InternalServerError(c, "Failed to list subjects")
	}

	return response.Success(c, fiber.Map{
		"subjects": subjects,
		"total":    len(subjects),
	})
}

// GetInsights handles GET /api/v1/subjects/:slug/insights
func (h *SubjectHandler) GetInsights(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return response.BadRequest(c, "Missing subject slug")
	}

	insight, err := h.store.GetSubjectInsights(c.Context(), slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "No insights computed for this subject yet")
		}
		return response.InternalServerError(c, "Failed to fetch insights")
	}

	return response.Success(c, insight.ToResponse())
}

// RecomputeInsights handles POST /api/v1/subjects/:slug/recompute
// Recomputes the subject's insight synchronously.
func (h *SubjectHandler) RecomputeInsights(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return response.BadRequest(c, "Missing subject slug")
	}

	// Resolve the slug back to its subject name via the stored insight
	// or, for subjects never computed, via the paper table.
	subject, err := h.resolveSubject(c, slug)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return response.NotFound(c, "Unknown subject")
		}
		return response.InternalServerError(c, "Failed to resolve subject")
	}

	if err := h.recompute.RecomputeSubject(c.Context(), subject); err != nil {
		return response.InternalServerError(c, "Failed to recompute insights")
	}

	insight, err := h.store.GetSubjectInsights(c.Context(), slug)
	if err != nil {
		return response.InternalServerError(c, "Recompute succeeded but insight fetch failed")
	}

	return response.SuccessWithMessage(c, "Insights recomputed", insight.ToResponse())
}

// resolveSubject maps a slug to the subject name it was derived from
func (h *SubjectHandler) resolveSubject(c *fiber.Ctx, slug string) (string, error) {
	if insight, err := h.store.GetSubjectInsights(c.Context(), slug); err == nil {
		return insight.Subject, nil
	}

	subjects, err := h.insights.ListSubjects(c.Context())
	if err != nil {
		return "", err
	}
	for _, s := range subjects {
		if s.Slug == slug {
			return s.Subject, nil
		}
	}
	return "", gorm.ErrRecordNotFound
}
