package app

import (
	"fmt"
	"log"

	"github.com/sahilchouksey/paper-insights-api/api"
	"github.com/sahilchouksey/paper-insights-api/config"
	"github.com/sahilchouksey/paper-insights-api/database"
	"github.com/sahilchouksey/paper-insights-api/router"
	"github.com/sahilchouksey/paper-insights-api/services/cron"
	"github.com/sahilchouksey/paper-insights-api/utils/cache"
)

func SetupAndRunServer() error {

	// Load ENV
	if err := config.LoadENV(); err != nil {
		return err
	}

	getEnv, err := config.Get()
	if err != nil {
		return err
	}

	// Initialize GORM database connection
	store, err := database.StartGORM()
	if err != nil {
		print("Check whether the Postgres is running or not\n")
		return err
	}

	if err := store.Init(); err != nil {
		print("Failed to initialize database tables\n")
		return err
	}

	// Redis is optional: without it insight reads just skip the cache
	var redisCache *cache.RedisCache
	if getEnv.REDIS_URL != "" {
		redisCache, err = cache.NewRedisCache(getEnv.REDIS_URL)
		if err != nil {
			log.Printf("Warning: Failed to connect to Redis, insight caching disabled: %v", err)
			redisCache = nil
		}
	}

	// Wire the service graph
	svc := router.BuildServices(getEnv, store, redisCache)

	// Initialize Cron Manager (only if enabled via environment variable)
	var cronManager *cron.CronManager
	if getEnv.CRON_ENABLED {
		cronManager = cron.NewCronManager(store.DB(), svc.Recompute)
		if err := cronManager.Start(); err != nil {
			// Don't fail the app, just log the warning
			log.Printf("Warning: Failed to start cron jobs: %v", err)
		}
	}

	// Defer Closing DB and stopping cron jobs
	defer func() {
		if cronManager != nil {
			cronManager.Stop()
		}
		if redisCache != nil {
			redisCache.Close()
		}
		store.Close()
	}()

	// Init API
	var server *api.APIServer = api.NewAPIServer(fmt.Sprintf(":%d", getEnv.PORT))
	app := server.GetEngine()

	// Setup Routes
	router.SetupRoutes(app, store, redisCache, svc)

	// Get the PORT & Start the Server
	return server.Run()
}
