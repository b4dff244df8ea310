package server

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/pagevault/pagevault-backend/internal/handlers"
	"github.com/pagevault/pagevault-backend/internal/middleware"
)

type RouterConfig struct {
	AuthHandler        *handlers.AuthHandler
	AuthMiddleware     *middleware.AuthMiddleware
	HealthcheckHandler *handlers.HealthcheckHandler
	ProjectHandler     *handlers.ProjectHandler
	DocsHandler        *handlers.DocsHandler
	NavigationHandler  *handlers.NavigationHandler
	SectionsHandler    *handlers.SectionsHandler
	SearchHandler      *handlers.SearchHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.Default()
	router.Use(otelgin.Middleware("pagevault"))

	// Cors
	router.Use(cors.New(cors.Config{
		AllowOrigins: []string{
			"http://localhost:80",
			"http://localhost:3000",
			"http://localhost:5173",
		},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "PATCH", "OPTIONS"},
		AllowHeaders:     []string{"Authorization", "Content-Type", "X-Requested-With"},
		AllowCredentials: true,
	}))

	// ===============
	// || Public    ||
	// ===============
	router.GET("/healthcheck", cfg.HealthcheckHandler.Healthcheck)
	router.POST("/register", cfg.AuthHandler.Register)
	router.POST("/login", cfg.AuthHandler.Login)

	// Reads are public; OptionalAuth lets role-aware payloads through
	// for logged-in visitors.
	api := router.Group("/api")
	api.Use(cfg.AuthMiddleware.OptionalAuth())
	{
		api.GET("/projects", cfg.ProjectHandler.ListProjects)
		api.GET("/projects/:project", cfg.ProjectHandler.GetProject)
		api.GET("/projects/:project/navigation", cfg.NavigationHandler.GetNavigation)
		api.GET("/projects/:project/documents", cfg.DocsHandler.ListDocs)
		api.GET("/projects/:project/docs/*slug", cfg.DocsHandler.GetDoc)
		api.GET("/projects/:project/search", cfg.SearchHandler.Search)
	}

	// ===============
	// || Protected ||
	// ===============
	protected := router.Group("/")
	protected.Use(cfg.AuthMiddleware.RequireAuth())
	// Auth
	protected.POST("/refresh", cfg.AuthHandler.Refresh)
	protected.POST("/logout", cfg.AuthHandler.Logout)
	// Documents
	protected.PUT("/api/projects/:project/docs/*slug", cfg.DocsHandler.SaveDoc)
	protected.DELETE("/api/projects/:project/docs/*slug", cfg.DocsHandler.DeleteDoc)
	// Navigation
	protected.POST("/api/projects/:project/navigation/reorder", cfg.NavigationHandler.Reorder)
	// Sections
	protected.POST("/api/projects/:project/sections", cfg.SectionsHandler.CreateSection)
	protected.PATCH("/api/projects/:project/sections/:section", cfg.SectionsHandler.RenameSection)
	protected.DELETE("/api/projects/:project/sections/:section", cfg.SectionsHandler.DeleteSection)
	protected.POST("/api/projects/:project/sections/:section/documents", cfg.SectionsHandler.CreateDocument)
	protected.POST("/api/projects/:project/sections/:section/overview", cfg.SectionsHandler.AddOverview)
	protected.DELETE("/api/projects/:project/sections/:section/overview", cfg.SectionsHandler.RemoveOverview)

	return router
}
