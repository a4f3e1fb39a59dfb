package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/paper-insights-api/database"
	"github.com/sahilchouksey/paper-insights-api/services"
	"github.com/sahilchouksey/paper-insights-api/utils/cache"
	"github.com/sahilchouksey/paper-insights-api/utils/response"
)

// HealthHandler reports liveness of the API and its collaborators
type HealthHandler struct {
	store *database.GORMStore
	cache *cache.RedisCache // nil when redis is not configured
	ocr   *services.OCRClient
}

// NewHealthHandler creates a new health handler
func NewHealthHandler(store *database.GORMStore, redisCache *cache.RedisCache, ocr *services.OCRClient) *HealthHandler {
	return &HealthHandler{
		store: store,
		cache: redisCache,
		ocr:   ocr,
	}
}

// Check handles GET /health
func (h *HealthHandler) Check(c *fiber.Ctx) error {
	checks := fiber.Map{
		"database": "ok",
		"cache":    "ok",
		"ocr":      "ok",
	}
	healthy := true

	if err := h.store.HealthCheck(); err != nil {
		checks["database"] = err.Error()
		healthy = false
	}

	if h.cache == nil {
		checks["cache"] = "not configured"
	} else if err := h.cache.Ping(c.Context()); err != nil {
		checks["cache"] = err.Error()
	}

	// OCR down only degrades uploads to local extraction, the API stays up.
	if err := h.ocr.HealthCheck(c.Context()); err != nil {
		checks["ocr"] = err.Error()
	}

	if !healthy {
		return response.ServiceUnavailable(c, "One or more dependencies are down")
	}

	return response.Success(c, fiber.Map{
		"status": "ok",
		"checks": checks,
	})
}
