package router

import (
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/sahilchouksey/paper-insights-api/config"
	"github.com/sahilchouksey/paper-insights-api/database"
	"github.com/sahilchouksey/paper-insights-api/handlers"
	paper_handlers "github.com/sahilchouksey/paper-insights-api/handlers/paper"
	subject_handlers "github.com/sahilchouksey/paper-insights-api/handlers/subject"
	"github.com/sahilchouksey/paper-insights-api/services"
	"github.com/sahilchouksey/paper-insights-api/services/digitalocean"
	"github.com/sahilchouksey/paper-insights-api/utils/cache"
	"github.com/sahilchouksey/paper-insights-api/utils/middleware"
)

// Services bundles the service layer so the app can share it with the
// cron manager.
type Services struct {
	Registry  *services.RegistryService
	Insights  *services.InsightService
	Store     *services.InsightStore
	Recompute *services.RecomputeService
	Pipeline  *services.PipelineService
	OCR       *services.OCRClient
}

// BuildServices wires the full service graph from configuration
func BuildServices(getEnv *config.EnviornmentVariable, store *database.GORMStore, redisCache *cache.RedisCache) *Services {
	db := store.DB()

	// Object storage is optional; without it papers are analyzed but the
	// original PDFs are not retained.
	var spaces *digitalocean.SpacesClient
	if getEnv.DO_SPACES_KEY != "" && getEnv.DO_SPACES_BUCKET != "" {
		var err error
		spaces, err = digitalocean.NewSpacesClient(digitalocean.SpacesConfig{
			AccessKey: getEnv.DO_SPACES_KEY,
			SecretKey: getEnv.DO_SPACES_SECRET,
			Bucket:    getEnv.DO_SPACES_BUCKET,
			Region:    getEnv.DO_SPACES_REGION,
			Endpoint:  getEnv.DO_SPACES_ENDPOINT,
			CDNURL:    getEnv.DO_SPACES_CDN_URL,
		})
		if err != nil {
			log.Printf("Warning: Spaces client unavailable, uploads will not be retained: %v", err)
		}
	}

	inference := digitalocean.NewInferenceClient(digitalocean.InferenceConfig{
		APIKey: getEnv.MODEL_ACCESS_KEY,
	})

	registry := services.NewRegistryService(db)
	classifier := services.NewClassifierService(inference)
	extractor := services.NewExtractorService(inference)
	topics := services.NewTopicInferencer(inference)
	clusterer := services.NewClusterService(inference)

	insights := services.NewInsightService(db, clusterer)
	insightStore := services.NewInsightStore(db, redisCache)
	recompute := services.NewRecomputeService(db, insights, insightStore)

	ocrClient := services.NewOCRClient(getEnv.OCR_SERVICE_URL)

	pipeline := services.NewPipelineService(
		db,
		spaces,
		ocrClient,
		services.NewPDFExtractor(),
		registry,
		classifier,
		extractor,
		topics,
		recompute,
		getEnv.TOPIC_WORKERS,
	)

	return &Services{
		Registry:  registry,
		Insights:  insights,
		Store:     insightStore,
		Recompute: recompute,
		Pipeline:  pipeline,
		OCR:       ocrClient,
	}
}

// SetupRoutes registers middleware and all API routes
func SetupRoutes(app *fiber.App, store *database.GORMStore, redisCache *cache.RedisCache, svc *Services) {
	db := store.DB()

	// Apply security middleware
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	if allowedOrigins == "" {
		allowedOrigins = "http://localhost:3000,http://localhost:3001"
	}

	middleware.SetupSecurity(app, middleware.SecurityConfig{
		AllowedOrigins:    allowedOrigins,
		RateLimitRequests: 100,             // 100 requests
		RateLimitWindow:   1 * time.Minute, // per minute
	})

	healthHandler := handlers.NewHealthHandler(store, redisCache, svc.OCR)
	paperHandler := paper_handlers.NewPaperHandler(db, svc.Pipeline)
	subjectHandler := subject_handlers.NewSubjectHandler(db, svc.Insights, svc.Store, svc.Recompute)

	// Health check endpoint (public)
	app.Get("/health", healthHandler.Check)

	// API v1 group
	api := app.Group("/api/v1")

	// Paper routes
	papers := api.Group("/papers")
	papers.Post("/upload", paperHandler.UploadPaper)       // Upload a paper PDF, runs the full pipeline
	papers.Get("/", paperHandler.ListPapers)               // List recent papers
	papers.Get("/:id", paperHandler.GetPaper)              // Get paper with questions
	papers.Get("/:id/status", paperHandler.GetPaperStatus) // Get pipeline status only
	papers.Delete("/:id", paperHandler.DeletePaper)        // Delete paper and roll back registry

	// Subject routes
	subjects := api.Group("/subjects")
	subjects.Get("/", subjectHandler.ListSubjects)                      // List classified subjects
	subjects.Get("/:slug/insights", subjectHandler.GetInsights)         // Get stored insight
	subjects.Post("/:slug/recompute", subjectHandler.RecomputeInsights) // Force recompute
}
