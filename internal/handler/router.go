package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/xxxsen/docask/internal/pkg/response"
)

type RouterDeps struct {
	Documents *DocumentHandler
	Ask       *AskHandler
}

// RegisterRoutes mounts the api surface on the given group.
func RegisterRoutes(g *gin.RouterGroup, deps RouterDeps) {
	g.GET("/documents", deps.Documents.List)
	g.POST("/upload", deps.Documents.Upload)
	g.DELETE("/documents/:id", deps.Documents.Delete)
	g.POST("/ask", deps.Ask.Ask)
	g.GET("/health", Health)
}

func Health(c *gin.Context) {
	response.Success(c, gin.H{"status": "ok"})
}
