package ai

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	apperr "github.com/recapd/recapd/internal/pkg/errors"
)

// legacy whole-document path: inputs above this many bytes are split and
// their sub-chunk vectors averaged into a single embedding
const docEmbedThreshold = 8000

// BatchEmbedder layers order-preserving batch calls and the legacy
// whole-document averaging path on top of a plain IEmbedder. The delay
// between successive upstream calls is a rate-limit courtesy, not a
// correctness requirement.
type BatchEmbedder struct {
	next  IEmbedder
	delay time.Duration
}

func NewBatchEmbedder(next IEmbedder, delay time.Duration) *BatchEmbedder {
	return &BatchEmbedder{next: next, delay: delay}
}

func (b *BatchEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	return b.next.Embed(ctx, text, taskType)
}

func (b *BatchEmbedder) ModelName() string {
	return b.next.ModelName()
}

// EmbedBatch embeds each input in order. A failed input aborts the batch
// with an error naming its index; partial results are never returned.
func (b *BatchEmbedder) EmbedBatch(ctx context.Context, texts []string, taskType string) ([][]float32, error) {
	vectors := make([][]float32, 0, len(texts))
	for i, text := range texts {
		if i > 0 && b.delay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(b.delay):
			}
		}
		vec, err := b.next.Embed(ctx, text, taskType)
		if err != nil {
			return nil, fmt.Errorf("%w: input %d: %v", apperr.ErrEmbeddingFailure, i, err)
		}
		vectors = append(vectors, vec)
	}
	return vectors, nil
}

// EmbedDocument is the legacy whole-document path: oversized input is split
// into sub-chunks whose vectors are averaged component-wise into a single
// embedding. Chunk-level ingestion does not use it.
func (b *BatchEmbedder) EmbedDocument(ctx context.Context, text string, taskType string) ([]float32, error) {
	if len(text) <= docEmbedThreshold {
		vec, err := b.next.Embed(ctx, text, taskType)
		if err != nil {
			return nil, fmt.Errorf("%w: input 0: %v", apperr.ErrEmbeddingFailure, err)
		}
		return vec, nil
	}
	parts := Chunk(text, docEmbedThreshold, 0)
	logutil.GetLogger(ctx).Debug("averaging oversized document embedding", zap.Int("sub_chunks", len(parts)))
	vectors, err := b.EmbedBatch(ctx, parts, taskType)
	if err != nil {
		return nil, err
	}
	return MeanVectors(vectors)
}

// MeanVectors computes the component-wise arithmetic mean of the given
// vectors. All vectors must share one dimension.
func MeanVectors(vectors [][]float32) ([]float32, error) {
	if len(vectors) == 0 {
		return nil, fmt.Errorf("%w: no vectors to average", apperr.ErrEmbeddingFailure)
	}
	dim := len(vectors[0])
	sum := make([]float64, dim)
	for i, vec := range vectors {
		if len(vec) != dim {
			return nil, fmt.Errorf("%w: vector %d has dimension %d, want %d", apperr.ErrDimensionMismatch, i, len(vec), dim)
		}
		for j, v := range vec {
			sum[j] += float64(v)
		}
	}
	mean := make([]float32, dim)
	for j := range sum {
		mean[j] = float32(sum[j] / float64(len(vectors)))
	}
	return mean, nil
}

// Cosine computes the cosine similarity of two vectors. Mismatched
// dimensions or a zero-norm operand yield 0 rather than NaN, so callers can
// rank the result without a degenerate-input check of their own.
func Cosine(a, b []float32) float32 {
	if len(a) == 0 || len(a) != len(b) {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}
