package http

import (
	"github.com/gin-gonic/gin"

	"github.com/Atchyuteswar/ZenReader/internal/auth"
	"github.com/Atchyuteswar/ZenReader/internal/database"
	"github.com/Atchyuteswar/ZenReader/internal/files"
)

// RouterConfig carries the dependencies for the HTTP router, improving
// testability and reducing parameter count.
type RouterConfig struct {
	Database       *database.Database
	FileStore      *files.Store
	AuthService    *auth.Service
	AuthMiddleware *auth.Middleware
	Version        string
}

// NewRouter creates and configures the HTTP router with all endpoints.
func NewRouter(cfg RouterConfig) *gin.Engine {
	router := gin.New()
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	health := NewHealthController(cfg.Database, cfg.Version)
	authController := NewAuthController(cfg.AuthService)
	booksController := NewBooksController(cfg.Database, cfg.FileStore)

	router.GET("/health", health.Status)

	authRoutes := router.Group("/api/auth")
	authRoutes.POST("/signup", authController.Signup)
	authRoutes.POST("/login", authController.Login)
	authRoutes.POST("/google", authController.GoogleLogin)
	authRoutes.GET("/me", cfg.AuthMiddleware.Handler(), authController.Me)

	bookRoutes := router.Group("/api/books", cfg.AuthMiddleware.Handler())
	bookRoutes.POST("", booksController.Upload)
	bookRoutes.GET("", booksController.List)
	bookRoutes.DELETE("/:id", booksController.Delete)
	bookRoutes.PUT("/:id/progress", booksController.UpdateProgress)
	bookRoutes.GET("/:id/download", booksController.Download)

	return router
}
