package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/pagevault/pagevault-backend/internal/db"
	"github.com/pagevault/pagevault-backend/internal/handlers"
	"github.com/pagevault/pagevault-backend/internal/middleware"
	"github.com/pagevault/pagevault-backend/internal/observability"
	"github.com/pagevault/pagevault-backend/internal/platform/logger"
	"github.com/pagevault/pagevault-backend/internal/repos"
	"github.com/pagevault/pagevault-backend/internal/server"
	"github.com/pagevault/pagevault-backend/internal/services"
	"github.com/pagevault/pagevault-backend/internal/utils"
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

	// Tracing
	shutdownOtel := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: "pagevault",
		Environment: utils.GetEnv("ENVIRONMENT", "development", log),
		Version:     utils.GetEnv("SERVICE_VERSION", "dev", log),
	})
	if shutdownOtel != nil {
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = shutdownOtel(ctx)
		}()
	}

	// Env
	log.Info("Loading environment variables from main...")
	jwtSecretKey := utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log)
	accessTokenTTL := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTL := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 86400, log)

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
	userRepo := repos.NewUserRepo(thePG, log)
	userTokenRepo := repos.NewUserTokenRepo(thePG, log)
	projectRepo := repos.NewProjectRepo(thePG, log)
	membershipRepo := repos.NewProjectMembershipRepo(thePG, log)
	documentRepo := repos.NewDocumentRepo(thePG, log)
	navigationRepo := repos.NewNavigationRepo(thePG, log)

	// Services
	log.Info("Setting up Services from main...")
	authService := services.NewAuthService(thePG, userRepo, userTokenRepo, jwtSecretKey, time.Duration(accessTokenTTL)*time.Second, time.Duration(refreshTokenTTL)*time.Second, log)
	projectService := services.NewProjectService(thePG, projectRepo, membershipRepo, log)
	contentService := services.NewContentService(thePG, documentRepo, navigationRepo, log)
	resolverService := services.NewResolverService(thePG, documentRepo, navigationRepo, log)
	sectionService := services.NewSectionService(thePG, documentRepo, navigationRepo, log)
	searchService := services.NewSearchService(thePG, documentRepo, navigationRepo, log)

	// Handlers
	log.Info("Setting up handlers from main...")
	healthcheckHandler := handlers.NewHealthcheckHandler(log)
	authHandler := handlers.NewAuthHandler(log, authService)
	projectHandler := handlers.NewProjectHandler(log, projectService)
	docsHandler := handlers.NewDocsHandler(log, projectService, contentService, resolverService)
	navigationHandler := handlers.NewNavigationHandler(log, projectService, contentService)
	sectionsHandler := handlers.NewSectionsHandler(log, projectService, sectionService)
	searchHandler := handlers.NewSearchHandler(log, projectService, searchService)

	// Middleware
	log.Info("Setting up middleware from main...")
	authMiddleware := middleware.NewAuthMiddleware(log, authService)

	// Router
	log.Info("Setting up router from main...")
	router := server.NewRouter(server.RouterConfig{
		AuthHandler:        authHandler,
		AuthMiddleware:     authMiddleware,
		HealthcheckHandler: healthcheckHandler,
		ProjectHandler:     projectHandler,
		DocsHandler:        docsHandler,
		NavigationHandler:  navigationHandler,
		SectionsHandler:    sectionsHandler,
		SearchHandler:      searchHandler,
	})

	port := utils.GetEnv("PORT", "8080", log)
	fmt.Printf("Server listening on :%s\n", port)
	if err := router.Run(":" + port); err != nil {
		log.Warn("Server failed", "error", err)
	}
}
