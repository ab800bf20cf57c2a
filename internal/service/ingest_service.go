package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/ai"
	"github.com/recapd/recapd/internal/model"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
)

const embedTaskDocument = "RETRIEVAL_DOCUMENT"

// Outcome kinds and skip/failure reasons are stable strings; handlers and
// batch summaries rely on them.
const (
	OutcomeGenerated = "generated"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"

	ReasonInProgress      = "in-progress"
	ReasonAlreadyEmbedded = "already-embedded"
	ReasonNotFound        = "not-found"
	ReasonNoContent       = "no-content"
	ReasonEmbeddingFailed = "embedding-failure"
	ReasonStoreFailed     = "store-failure"
)

type IngestOutcome struct {
	TranscriptID string `json:"transcript_id"`
	Outcome      string `json:"outcome"`
	Reason       string `json:"reason,omitempty"`
	Detail       string `json:"detail,omitempty"`
	ChunkCount   int    `json:"chunk_count,omitempty"`
}

type IngestSummary struct {
	Processed int             `json:"processed"`
	Generated int             `json:"generated"`
	Skipped   int             `json:"skipped"`
	Errors    int             `json:"errors"`
	Outcomes  []IngestOutcome `json:"outcomes"`
}

type EmbeddingStatus struct {
	TranscriptID string `json:"transcript_id"`
	HasEmbedding bool   `json:"has_embedding"`
	ChunkCount   int    `json:"chunk_count"`
}

type EmbeddingStatusReport struct {
	State string            `json:"state"` // ready | partial | none
	Items []EmbeddingStatus `json:"items"`
}

type TranscriptStore interface {
	GetByID(ctx context.Context, id string) (*model.Transcript, error)
	ListByIDs(ctx context.Context, ids []string) ([]model.Transcript, error)
	UpdateEmbeddingMeta(ctx context.Context, id string, modelName string, chunkCount int, embeddedAt int64) error
}

type ChunkStore interface {
	InsertMany(ctx context.Context, chunks []*model.TranscriptChunk) error
	DeleteStale(ctx context.Context, transcriptID string, keepHash string) error
	DeleteGeneration(ctx context.Context, transcriptID string, contentHash string) error
	ExistsCurrent(ctx context.Context, transcriptID string, contentHash string) (bool, error)
	CountByTranscriptIDs(ctx context.Context, transcriptIDs []string) (map[string]int, error)
}

type ChunkEmbedder interface {
	EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error)
	ModelName() string
}

// IngestService turns raw transcripts into embedded chunks. At most one
// ingestion runs per transcript ID at a time; a contended call skips
// immediately instead of queueing.
type IngestService struct {
	transcripts TranscriptStore
	chunks      ChunkStore
	embedder    ChunkEmbedder

	maxChunkLen  int
	chunkOverlap int

	mu       sync.Mutex
	inflight map[string]struct{}
}

func NewIngestService(transcripts TranscriptStore, chunks ChunkStore, embedder ChunkEmbedder, maxChunkLen, chunkOverlap int) *IngestService {
	if maxChunkLen <= 0 {
		maxChunkLen = ai.DefaultMaxChunkLen
	}
	if chunkOverlap <= 0 || chunkOverlap >= maxChunkLen {
		chunkOverlap = ai.DefaultChunkOverlap
	}
	return &IngestService{
		transcripts:  transcripts,
		chunks:       chunks,
		embedder:     embedder,
		maxChunkLen:  maxChunkLen,
		chunkOverlap: chunkOverlap,
		inflight:     make(map[string]struct{}),
	}
}

func (s *IngestService) tryLock(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, held := s.inflight[id]; held {
		return false
	}
	s.inflight[id] = struct{}{}
	return true
}

func (s *IngestService) unlock(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.inflight, id)
}

// Generate runs one ingestion attempt for the transcript. It never returns
// an error: every failure mode is reported as a structured outcome so a
// batch caller can aggregate without aborting.
func (s *IngestService) Generate(ctx context.Context, transcriptID string) IngestOutcome {
	if !s.tryLock(transcriptID) {
		return IngestOutcome{TranscriptID: transcriptID, Outcome: OutcomeSkipped, Reason: ReasonInProgress}
	}
	defer s.unlock(transcriptID)
	return s.generateLocked(ctx, transcriptID)
}

func (s *IngestService) generateLocked(ctx context.Context, transcriptID string) IngestOutcome {
	logger := logutil.GetLogger(ctx).With(zap.String("transcript_id", transcriptID))
	failed := func(reason string, err error) IngestOutcome {
		out := IngestOutcome{TranscriptID: transcriptID, Outcome: OutcomeFailed, Reason: reason}
		if err != nil {
			out.Detail = err.Error()
			logger.Error("ingestion failed", zap.String("reason", reason), zap.Error(err))
		} else {
			logger.Warn("ingestion failed", zap.String("reason", reason))
		}
		return out
	}

	transcript, err := s.transcripts.GetByID(ctx, transcriptID)
	if err != nil {
		if errors.Is(err, apperr.ErrNotFound) {
			return failed(ReasonNotFound, nil)
		}
		return failed(ReasonStoreFailed, err)
	}

	normalized := normalizeSpeakerTurns(transcript.Content)
	if normalized == "" {
		return failed(ReasonNoContent, nil)
	}
	hash := Fingerprint(normalized)

	current, err := s.chunks.ExistsCurrent(ctx, transcriptID, hash)
	if err != nil {
		return failed(ReasonStoreFailed, err)
	}
	if current {
		logger.Debug("chunks already current", zap.String("content_hash", hash))
		return IngestOutcome{TranscriptID: transcriptID, Outcome: OutcomeSkipped, Reason: ReasonAlreadyEmbedded}
	}

	// sweep leftovers of a partial attempt at this same generation; safe
	// when none exist
	if err := s.chunks.DeleteGeneration(ctx, transcriptID, hash); err != nil {
		return failed(ReasonStoreFailed, err)
	}

	fragments := ai.Chunk(normalized, s.maxChunkLen, s.chunkOverlap)
	if len(fragments) == 0 {
		return failed(ReasonNoContent, nil)
	}

	vectors, err := s.embedder.EmbedBatch(ctx, fragments, embedTaskDocument)
	if err != nil {
		return failed(ReasonEmbeddingFailed, err)
	}

	now := time.Now().UnixMilli()
	chunks := make([]*model.TranscriptChunk, 0, len(fragments))
	for i, fragment := range fragments {
		chunks = append(chunks, &model.TranscriptChunk{
			ID:             newID(),
			TranscriptID:   transcript.ID,
			MeetingID:      transcript.MeetingID,
			MeetingDate:    transcript.MeetingDate,
			ChunkIndex:     i,
			ChunkTotal:     len(fragments),
			Content:        fragment,
			Embedding:      vectors[i],
			ContentHash:    hash,
			EmbeddingModel: s.embedder.ModelName(),
			Ctime:          now,
		})
	}
	if err := s.chunks.InsertMany(ctx, chunks); err != nil {
		return failed(ReasonStoreFailed, err)
	}
	// old generations go away only after the new one is fully persisted,
	// so a failed replacement never leaves the transcript unreachable
	if err := s.chunks.DeleteStale(ctx, transcriptID, hash); err != nil {
		return failed(ReasonStoreFailed, err)
	}
	if err := s.transcripts.UpdateEmbeddingMeta(ctx, transcriptID, s.embedder.ModelName(), len(chunks), now); err != nil {
		return failed(ReasonStoreFailed, err)
	}
	logger.Info("transcript ingested", zap.Int("chunks", len(chunks)), zap.String("content_hash", hash))
	return IngestOutcome{TranscriptID: transcriptID, Outcome: OutcomeGenerated, ChunkCount: len(chunks)}
}

// GenerateBatch ingests each ID in order; one bad transcript never aborts
// the rest.
func (s *IngestService) GenerateBatch(ctx context.Context, transcriptIDs []string) IngestSummary {
	summary := IngestSummary{Outcomes: make([]IngestOutcome, 0, len(transcriptIDs))}
	for _, id := range transcriptIDs {
		outcome := s.Generate(ctx, id)
		summary.Processed++
		switch outcome.Outcome {
		case OutcomeGenerated:
			summary.Generated++
		case OutcomeSkipped:
			summary.Skipped++
		default:
			summary.Errors++
		}
		summary.Outcomes = append(summary.Outcomes, outcome)
	}
	return summary
}

func (s *IngestService) Status(ctx context.Context, transcriptIDs []string) (*EmbeddingStatusReport, error) {
	counts, err := s.chunks.CountByTranscriptIDs(ctx, transcriptIDs)
	if err != nil {
		return nil, err
	}
	report := &EmbeddingStatusReport{Items: make([]EmbeddingStatus, 0, len(transcriptIDs))}
	ready := 0
	for _, id := range transcriptIDs {
		n := counts[id]
		if n > 0 {
			ready++
		}
		report.Items = append(report.Items, EmbeddingStatus{
			TranscriptID: id,
			HasEmbedding: n > 0,
			ChunkCount:   n,
		})
	}
	switch {
	case len(transcriptIDs) == 0 || ready == 0:
		report.State = "none"
	case ready == len(transcriptIDs):
		report.State = "ready"
	default:
		report.State = "partial"
	}
	return report, nil
}
