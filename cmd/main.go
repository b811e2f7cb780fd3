package main

import (
	"context"
	"fmt"
	"os"
	"time"

	campaignrepo "github.com/harumcare/harumcare-backend/internal/data/repos/campaign"
	contentrepo "github.com/harumcare/harumcare-backend/internal/data/repos/content"
	donationrepo "github.com/harumcare/harumcare-backend/internal/data/repos/donation"
	userrepo "github.com/harumcare/harumcare-backend/internal/data/repos/user"

	"github.com/harumcare/harumcare-backend/internal/data/db"
	httpserver "github.com/harumcare/harumcare-backend/internal/http"
	"github.com/harumcare/harumcare-backend/internal/http/handlers"
	"github.com/harumcare/harumcare-backend/internal/http/middleware"
	"github.com/harumcare/harumcare-backend/internal/observability"
	"github.com/harumcare/harumcare-backend/internal/platform/envutil"
	"github.com/harumcare/harumcare-backend/internal/platform/gcp"
	"github.com/harumcare/harumcare-backend/internal/platform/logger"
	"github.com/harumcare/harumcare-backend/internal/platform/rediscache"
	"github.com/harumcare/harumcare-backend/internal/services"
)

func main() {
	// Logger
	logMode := os.Getenv("LOG_MODE")
	if logMode == "" {
		logMode = "development"
	}
	log, err := logger.New(logMode)
	if err != nil {
		fmt.Printf("Failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	ctx := context.Background()

	// Tracing
	serviceName := envutil.String("SERVICE_NAME", "harumcare-backend")
	shutdownOTel := observability.InitOTel(ctx, log, observability.OtelConfig{
		ServiceName: serviceName,
		Environment: envutil.String("DEPLOY_ENV", "development"),
		Version:     envutil.String("SERVICE_VERSION", "dev"),
	})
	if shutdownOTel != nil {
		defer func() {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOTel(shutdownCtx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := envutil.String("JWT_SECRET_KEY", "defaultsecret")
	tokenTTL := envutil.Duration("ACCESS_TOKEN_TTL", 24*time.Hour)

	// Postgres
	postgresService, err := db.NewPostgresService(log)
	if err != nil {
		log.Error("Postgres init failed", "error", err)
		os.Exit(1)
	}
	if err = postgresService.AutoMigrateAll(); err != nil {
		log.Warn("Postgres auto migration failed", "error", err)
	}
	thePG := postgresService.DB()

	// Repos
	log.Info("Setting up Repos from main...")
	userRepo := userrepo.NewUserRepo(thePG, log)
	campaignRepo := campaignrepo.NewCampaignRepo(thePG, log)
	donationRepo := donationrepo.NewDonationRepo(thePG, log)
	newsRepo := contentrepo.NewNewsRepo(thePG, log)
	blogRepo := contentrepo.NewBlogRepo(thePG, log)

	// Redis (optional; stats caching degrades to direct reads without it)
	cache, err := rediscache.New(log)
	if err != nil {
		log.Warn("Could not init redis cache, running without it", "error", err)
		cache = rediscache.Noop()
	}
	defer cache.Close()

	// Services
	log.Info("Setting up Services from main...")
	bucketService, err := gcp.NewBucketService(log)
	if err != nil {
		log.Warn("Could not init BucketService, uploads disabled", "error", err)
		bucketService = nil
	}

	var avatarService services.AvatarService
	if bucketService != nil {
		avatarService, err = services.NewAvatarService(log, userRepo, bucketService)
		if err != nil {
			log.Warn("Could not init AvatarService, avatars disabled", "error", err)
			avatarService = nil
		}
	}

	campaignService := services.NewCampaignService(thePG, log, campaignRepo, donationRepo, newsRepo, bucketService, cache)
	aggregateService := services.NewAggregateService(thePG, log, donationRepo, campaignRepo, campaignService.InvalidateStats)
	donationService := services.NewDonationService(thePG, log, donationRepo, campaignRepo, userRepo, aggregateService)
	authService := services.NewAuthService(thePG, log, userRepo, avatarService, jwtSecretKey, tokenTTL)
	contentService := services.NewContentService(thePG, log, newsRepo, blogRepo, campaignRepo, bucketService)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthHandler := handlers.NewHealthHandler()
	authHandler := handlers.NewAuthHandler(authService, avatarService)
	campaignHandler := handlers.NewCampaignHandler(campaignService, donationService)
	donationHandler := handlers.NewDonationHandler(donationService, bucketService)
	contentHandler := handlers.NewContentHandler(contentService)
	uploadHandler := handlers.NewUploadHandler(bucketService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	server := httpserver.NewServer(httpserver.RouterConfig{
		ServiceName:     serviceName,
		Log:             log,
		AuthMiddleware:  authMiddleware,
		HealthHandler:   healthHandler,
		AuthHandler:     authHandler,
		CampaignHandler: campaignHandler,
		DonationHandler: donationHandler,
		ContentHandler:  contentHandler,
		UploadHandler:   uploadHandler,
	})

	port := envutil.String("PORT", "8080")
	fmt.Printf("Server listening on :%s\n", port)
	if err := server.Run(":" + port); err != nil {
		log.Error("Server failed", "error", err)
		os.Exit(1)
	}
}
