package main

import (
	"context"
	"errors"
	"imtfit/coaching-app/internal/api"
	"imtfit/coaching-app/internal/cache"
	"imtfit/coaching-app/internal/config"
	"imtfit/coaching-app/internal/logger"
	"imtfit/coaching-app/internal/repository/mongo"
	"imtfit/coaching-app/internal/service"
	"imtfit/coaching-app/internal/storage"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
)

func main() {
	// --- Configuration ---
	cfg, err := config.LoadConfig(".")
	if err != nil {
		// Logger is not configured yet at this point.
		panic("could not load config: " + err.Error())
	}

	log := logger.New(cfg.Log.Level)
	log.Info("Starting IMT coaching server...")

	// --- Database Connection ---
	dbClient, err := mongo.ConnectDB(cfg.Database.URI)
	if err != nil {
		log.Fatalf("Could not connect to MongoDB: %v", err)
	}
	defer func() {
		log.Info("Disconnecting MongoDB...")
		if err := mongo.DisconnectDB(dbClient); err != nil {
			log.Errorf("Failed to disconnect MongoDB: %v", err)
		}
	}()
	appDB := dbClient.Database(cfg.Database.Name)
	log.Info("Database connection established.")

	// --- Ensure Indexes ---
	go func() { // Run index creation concurrently/in background
		ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
		defer cancel()
		mongo.EnsureUserIndexes(ctx, appDB.Collection("users"))
		mongo.EnsureIMTHistoryIndexes(ctx, appDB.Collection("imt_history"))
		mongo.EnsureScheduleIndexes(ctx, appDB.Collection("schedules"))
		mongo.EnsureWorkoutProofIndexes(ctx, appDB.Collection("workout_proofs"))
		mongo.EnsureRecommendationIndexes(ctx, appDB.Collection("recommendations"))
		mongo.EnsureFoodRecommendationIndexes(ctx, appDB.Collection("food_recommendations"))
		mongo.EnsureMessageIndexes(ctx, appDB.Collection("messages"))
		mongo.EnsureVideoIndexes(ctx, appDB.Collection("videos"))
		log.Info("Index creation process completed.")
	}()

	// --- Initialize Storage ---
	fileStorage, err := storage.NewS3Storage(cfg.S3)
	if err != nil {
		log.Fatalf("Failed to initialize S3 storage: %v", err)
	}

	// --- Initialize Cache ---
	var statsCache *cache.RedisCache
	if cfg.Redis.URL != "" {
		statsCache, err = cache.NewRedisCache(cfg.Redis.URL)
		if err != nil {
			// The stats endpoint works without it, just slower.
			log.Warnf("Redis unavailable, running without stats cache: %v", err)
			statsCache = nil
		} else {
			defer statsCache.Close()
			log.Info("Redis stats cache connected.")
		}
	}

	// --- Initialize Repositories ---
	userRepo := mongo.NewMongoUserRepository(appDB)
	imtHistoryRepo := mongo.NewMongoIMTHistoryRepository(appDB)
	scheduleRepo := mongo.NewMongoScheduleRepository(appDB)
	proofRepo := mongo.NewMongoWorkoutProofRepository(appDB)
	recRepo := mongo.NewMongoRecommendationRepository(appDB)
	foodRecRepo := mongo.NewMongoFoodRecommendationRepository(appDB)
	messageRepo := mongo.NewMongoMessageRepository(appDB)
	videoRepo := mongo.NewMongoVideoRepository(appDB)

	// --- Initialize Services ---
	authService := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration)
	imtService := service.NewIMTService(userRepo, imtHistoryRepo)
	clientService := service.NewClientService(userRepo, imtService, scheduleRepo, proofRepo, recRepo, foodRecRepo, messageRepo, videoRepo, fileStorage)
	coachService := service.NewCoachService(userRepo, imtService, scheduleRepo, proofRepo, recRepo, foodRecRepo, messageRepo, videoRepo, fileStorage)
	adminService := service.NewAdminService(userRepo, videoRepo, messageRepo, statsCache)

	// --- Initialize Gin Engine ---
	// gin.SetMode(gin.ReleaseMode) // Uncomment for production
	router := gin.Default() // Includes Logger and Recovery middleware

	// --- Setup Routes ---
	api.SetupRoutes(router, cfg.JWT.Secret, authService, imtService, clientService, coachService, adminService)

	// --- Start HTTP Server ---
	server := &http.Server{
		Addr:         cfg.Server.Address,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	log.Infof("Server starting on %s", cfg.Server.Address)

	// --- Graceful Shutdown ---
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("ListenAndServe error: %v", err)
		}
	}()

	// Wait for interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	ctxShutdown, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(ctxShutdown); err != nil {
		log.Fatalf("Server forced to shutdown: %v", err)
	}

	log.Info("Server exiting.")
}
