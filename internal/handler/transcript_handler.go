package handler

import (
	"io"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/recapd/recapd/internal/model"
	"github.com/recapd/recapd/internal/pkg/errcode"
	"github.com/recapd/recapd/internal/pkg/response"
	"github.com/recapd/recapd/internal/service"
)

const maxImportSize = 8 << 20 // 8 MiB per transcript upload

type TranscriptHandler struct {
	transcripts *service.TranscriptService
}

func NewTranscriptHandler(transcripts *service.TranscriptService) *TranscriptHandler {
	return &TranscriptHandler{transcripts: transcripts}
}

func (h *TranscriptHandler) Create(c *gin.Context) {
	var req service.TranscriptCreateInput
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, errcode.ErrInvalid, "invalid request")
		return
	}
	transcript, err := h.transcripts.Create(c.Request.Context(), req)
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, transcript)
}

func (h *TranscriptHandler) Get(c *gin.Context) {
	transcript, err := h.transcripts.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, transcript)
}

func (h *TranscriptHandler) List(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	items, err := h.transcripts.List(c.Request.Context(), limit, offset)
	if err != nil {
		handleError(c, err)
		return
	}
	if items == nil {
		items = []model.Transcript{}
	}
	response.Success(c, gin.H{"items": items})
}

func (h *TranscriptHandler) Import(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		response.Error(c, errcode.ErrInvalid, "file required")
		return
	}
	if fileHeader.Size > maxImportSize {
		response.Error(c, errcode.ErrUploadFailed, "file too large")
		return
	}
	file, err := fileHeader.Open()
	if err != nil {
		response.Error(c, errcode.ErrUploadFailed, "open upload failed")
		return
	}
	defer file.Close()
	data, err := io.ReadAll(io.LimitReader(file, maxImportSize+1))
	if err != nil || int64(len(data)) > maxImportSize {
		response.Error(c, errcode.ErrUploadFailed, "read upload failed")
		return
	}

	result, err := h.transcripts.Import(c.Request.Context(), service.TranscriptImportInput{
		MeetingID:   c.PostForm("meeting_id"),
		Title:       c.PostForm("title"),
		MeetingDate: c.PostForm("meeting_date"),
		FileName:    fileHeader.Filename,
		Data:        data,
		AutoIngest:  c.PostForm("auto_ingest") == "true",
	})
	if err != nil {
		handleError(c, err)
		return
	}
	response.Success(c, result)
}
