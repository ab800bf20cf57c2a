package handler

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/recapd/recapd/internal/pkg/errcode"
	"github.com/recapd/recapd/internal/pkg/response"
	"github.com/recapd/recapd/internal/service"
)

type EmbeddingHandler struct {
	ingest *service.IngestService
}

func NewEmbeddingHandler(ingest *service.IngestService) *EmbeddingHandler {
	return &EmbeddingHandler{ingest: ingest}
}

type generateRequest struct {
	TranscriptIDs []string `json:"transcript_ids"`
}

func (h *EmbeddingHandler) Generate(c *gin.Context) {
	var req generateRequest
	if err := c.ShouldBindJSON(&req); err != nil || len(req.TranscriptIDs) == 0 {
		response.Error(c, errcode.ErrInvalid, "transcript_ids required")
		return
	}
	summary := h.ingest.GenerateBatch(c.Request.Context(), req.TranscriptIDs)
	response.Success(c, summary)
}

func (h *EmbeddingHandler) Status(c *gin.Context) {
	raw := c.Query("ids")
	if raw == "" {
		response.Error(c, errcode.ErrInvalid, "ids required")
		return
	}
	var ids []string
	for _, id := range strings.Split(raw, ",") {
		id = strings.TrimSpace(id)
		if id != "" {
			ids = append(ids, id)
		}
	}
	report, err := h.ingest.Status(c.Request.Context(), ids)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, report)
}
