package service

import (
	"bytes"
	"context"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/filestore"
	"github.com/recapd/recapd/internal/model"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
	"github.com/recapd/recapd/internal/repo"
)

type TranscriptCreateInput struct {
	MeetingID   string `json:"meeting_id"`
	Title       string `json:"title"`
	MeetingDate string `json:"meeting_date"`
	Content     string `json:"content"`
}

type TranscriptImportInput struct {
	MeetingID   string
	Title       string
	MeetingDate string
	FileName    string
	Data        []byte
	AutoIngest  bool
}

type TranscriptImportResult struct {
	Transcript *model.Transcript `json:"transcript"`
	ArchiveKey string            `json:"archive_key"`
	Ingest     *IngestOutcome    `json:"ingest,omitempty"`
}

type TranscriptService struct {
	transcripts *repo.TranscriptRepo
	archive     filestore.Store
	ingest      *IngestService
}

func NewTranscriptService(transcripts *repo.TranscriptRepo, archive filestore.Store, ingest *IngestService) *TranscriptService {
	return &TranscriptService{transcripts: transcripts, archive: archive, ingest: ingest}
}

func (s *TranscriptService) Create(ctx context.Context, input TranscriptCreateInput) (*model.Transcript, error) {
	if strings.TrimSpace(input.Content) == "" || input.MeetingDate == "" {
		return nil, apperr.ErrInvalid
	}
	if _, err := time.Parse("2006-01-02", input.MeetingDate); err != nil {
		return nil, apperr.ErrInvalid
	}
	now := time.Now().UnixMilli()
	transcript := &model.Transcript{
		ID:          newID(),
		MeetingID:   input.MeetingID,
		Title:       input.Title,
		MeetingDate: input.MeetingDate,
		Content:     input.Content,
		Ctime:       now,
		Mtime:       now,
	}
	if transcript.MeetingID == "" {
		transcript.MeetingID = transcript.ID
	}
	if err := s.transcripts.Create(ctx, transcript); err != nil {
		return nil, err
	}
	return transcript, nil
}

func (s *TranscriptService) Get(ctx context.Context, id string) (*model.Transcript, error) {
	return s.transcripts.GetByID(ctx, id)
}

func (s *TranscriptService) List(ctx context.Context, limit, offset int) ([]model.Transcript, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.transcripts.List(ctx, limit, offset)
}

// Import archives the raw upload, flattens markdown formatting if present,
// creates the transcript row, and optionally runs ingestion inline.
func (s *TranscriptService) Import(ctx context.Context, input TranscriptImportInput) (*TranscriptImportResult, error) {
	if len(input.Data) == 0 {
		return nil, apperr.ErrInvalid
	}
	content := string(input.Data)
	if looksLikeMarkdown(input.FileName, content) {
		content = markdownToText(content)
	}

	transcript, err := s.Create(ctx, TranscriptCreateInput{
		MeetingID:   input.MeetingID,
		Title:       input.Title,
		MeetingDate: input.MeetingDate,
		Content:     content,
	})
	if err != nil {
		return nil, err
	}

	archiveKey := transcript.ID + strings.ToLower(filepath.Ext(input.FileName))
	if s.archive != nil {
		if err := s.archive.Save(ctx, archiveKey, bytes.NewReader(input.Data), int64(len(input.Data))); err != nil {
			// the transcript row is the source of truth; a failed archive
			// write is logged, not fatal
			logutil.GetLogger(ctx).Warn("archive raw transcript failed",
				zap.String("transcript_id", transcript.ID), zap.Error(err))
			archiveKey = ""
		}
	} else {
		archiveKey = ""
	}

	result := &TranscriptImportResult{Transcript: transcript, ArchiveKey: archiveKey}
	if input.AutoIngest && s.ingest != nil {
		outcome := s.ingest.Generate(ctx, transcript.ID)
		result.Ingest = &outcome
	}
	return result, nil
}

// OpenArchive streams the original upload back out of the archive store.
func (s *TranscriptService) OpenArchive(ctx context.Context, key string) (io.ReadCloser, error) {
	if s.archive == nil {
		return nil, apperr.ErrNotFound
	}
	return s.archive.Open(ctx, key)
}
