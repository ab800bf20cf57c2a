package handler

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/recapd/recapd/internal/middleware"
)

type RouterDeps struct {
	Transcripts   *TranscriptHandler
	Embeddings    *EmbeddingHandler
	Chat          *ChatHandler
	ChatRateLimit time.Duration
}

func RegisterRoutes(api *gin.RouterGroup, deps RouterDeps) {
	api.POST("/transcripts", deps.Transcripts.Create)
	api.GET("/transcripts", deps.Transcripts.List)
	api.GET("/transcripts/:id", deps.Transcripts.Get)
	api.POST("/transcripts/import", deps.Transcripts.Import)

	api.POST("/embeddings/generate", deps.Embeddings.Generate)
	api.GET("/embeddings/status", deps.Embeddings.Status)

	chatGroup := api.Group("")
	if deps.ChatRateLimit > 0 {
		chatGroup.Use(middleware.RateLimit(deps.ChatRateLimit))
	}
	chatGroup.POST("/chat/message", deps.Chat.Message)
}
