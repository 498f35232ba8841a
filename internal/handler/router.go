package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyforge/studyforge/internal/middleware"
)

type RouterDeps struct {
	Documents       *DocumentHandler
	Generate        *GenerateHandler
	Usage           *UsageHandler
	Files           *FileHandler
	JWTSecret       []byte
	GenerateLimiter time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	authGroup := api.Group("")
	authGroup.Use(middleware.JWTAuth(deps.JWTSecret))

	authGroup.POST("/documents", deps.Documents.Create)
	authGroup.GET("/documents", deps.Documents.List)
	authGroup.GET("/documents/:id", deps.Documents.Get)
	authGroup.DELETE("/documents/:id", deps.Documents.Delete)

	authGroup.POST("/documents/:id/source", deps.Files.UploadSource)
	authGroup.GET("/documents/:id/source", deps.Files.DownloadSource)

	generateGroup := authGroup.Group("")
	generateGroup.Use(middleware.RateLimit(deps.GenerateLimiter))
	generateGroup.POST("/documents/:id/generate", deps.Generate.Start)

	authGroup.GET("/documents/:id/generate/:mode/progress", deps.Generate.Progress)
	authGroup.GET("/documents/:id/artifacts/:mode", deps.Generate.Artifact)

	authGroup.GET("/usage", deps.Usage.List)
	authGroup.GET("/usage/:activity", deps.Usage.Balance)
}
