package job

import (
	"context"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/repo"
	"github.com/recapd/recapd/internal/service"
)

// EmbeddingBackfillJob picks up transcripts whose content changed after
// their last embedding run and regenerates their chunks.
type EmbeddingBackfillJob struct {
	transcripts *repo.TranscriptRepo
	ingest      *service.IngestService
	batch       int
}

func NewEmbeddingBackfillJob(transcripts *repo.TranscriptRepo, ingest *service.IngestService, batch int) *EmbeddingBackfillJob {
	if batch <= 0 {
		batch = 20
	}
	return &EmbeddingBackfillJob{transcripts: transcripts, ingest: ingest, batch: batch}
}

func (j *EmbeddingBackfillJob) Name() string {
	return "embedding_backfill"
}

func (j *EmbeddingBackfillJob) Run(ctx context.Context) error {
	pending, err := j.transcripts.ListPendingEmbedding(ctx, j.batch)
	if err != nil {
		return err
	}
	if len(pending) == 0 {
		return nil
	}
	ids := make([]string, 0, len(pending))
	for _, t := range pending {
		ids = append(ids, t.ID)
	}
	summary := j.ingest.GenerateBatch(ctx, ids)
	logutil.GetLogger(ctx).Info("embedding backfill finished",
		zap.Int("processed", summary.Processed),
		zap.Int("generated", summary.Generated),
		zap.Int("skipped", summary.Skipped),
		zap.Int("errors", summary.Errors),
	)
	return nil
}
