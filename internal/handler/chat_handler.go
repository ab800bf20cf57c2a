package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recapd/recapd/internal/pkg/errcode"
	"github.com/recapd/recapd/internal/pkg/response"
	"github.com/recapd/recapd/internal/service"
)

type ChatHandler struct {
	chat *service.ChatService
}

func NewChatHandler(chat *service.ChatService) *ChatHandler {
	return &ChatHandler{chat: chat}
}

type messageRequest struct {
	Question      string   `json:"question"`
	TranscriptIDs []string `json:"transcript_ids"`
}

func (h *ChatHandler) Message(c *gin.Context) {
	var req messageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	if strings.TrimSpace(req.Question) == "" || len(req.TranscriptIDs) == 0 {
		response.Error(c, errcode.ErrInvalid, "question and transcript_ids required")
		return
	}
	result, err := h.chat.Message(c.Request.Context(), req.Question, req.TranscriptIDs)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
