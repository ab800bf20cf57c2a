package service

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/ai"
	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/internal/model"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
	"github.com/recapd/recapd/internal/repo"
)

const embedTaskQuery = "RETRIEVAL_QUERY"

type VectorIndex interface {
	NearestNeighbors(ctx context.Context, vector []float32, transcriptIDs []string, k int) ([]repo.ChunkMatch, error)
}

type LiteralScanner interface {
	ScanIdentifiers(ctx context.Context, transcriptIDs []string) ([]model.SearchHit, error)
	SearchKeywords(ctx context.Context, query string, transcriptIDs []string) ([]model.SearchHit, error)
}

type RetrieveOptions struct {
	// MaxResults of 0 means the configured default (widened for
	// cross-meeting queries).
	MaxResults int
}

// RetrievalService fuses the three retrieval strategies into one ranked,
// deduplicated, budget-capped hit list. Strategies run concurrently and the
// merge happens only after all of them complete, so the output order is
// deterministic for identical inputs.
type RetrievalService struct {
	embedder ai.IEmbedder
	index    VectorIndex
	scanner  LiteralScanner
	cfg      config.RetrievalConfig
}

func NewRetrievalService(embedder ai.IEmbedder, index VectorIndex, scanner LiteralScanner, cfg config.RetrievalConfig) *RetrievalService {
	return &RetrievalService{embedder: embedder, index: index, scanner: scanner, cfg: cfg}
}

func (s *RetrievalService) Retrieve(ctx context.Context, query string, transcriptIDs []string, opts RetrieveOptions) ([]model.SearchHit, error) {
	if len(transcriptIDs) == 0 {
		return nil, nil
	}
	logger := logutil.GetLogger(ctx).With(zap.String("query", query), zap.Int("scope", len(transcriptIDs)))

	if s.cfg.TimeoutSeconds > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(s.cfg.TimeoutSeconds)*time.Second)
		defer cancel()
	}

	isIdentifier := IsIdentifierQuery(query)
	isCross := IsCrossMeetingQuery(query)

	k := s.cfg.VectorTopK
	if isCross {
		k = s.cfg.CrossMeetingVectorTopK
	}
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = s.cfg.MaxResults
		if isCross {
			maxResults = s.cfg.CrossMeetingMaxResults
		}
	}

	var (
		wg sync.WaitGroup

		vectorHits     []model.SearchHit
		keywordHits    []model.SearchHit
		identifierHits []model.SearchHit
		vectorErr      error
		keywordErr     error
		identifierErr  error
	)

	wg.Add(2)
	go func() {
		defer wg.Done()
		vectorHits, vectorErr = s.vectorSearch(ctx, query, transcriptIDs, k)
	}()
	go func() {
		defer wg.Done()
		keywordHits, keywordErr = s.scanner.SearchKeywords(ctx, query, transcriptIDs)
	}()
	if isIdentifier {
		wg.Add(1)
		go func() {
			defer wg.Done()
			identifierHits, identifierErr = s.scanner.ScanIdentifiers(ctx, transcriptIDs)
		}()
	}

	done := make(chan struct{})
	go func() {
		wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		logger.Warn("retrieval timed out")
		return nil, apperr.ErrRetrievalTimeout
	}

	launched := 2
	failures := 0
	for _, item := range []struct {
		name string
		err  error
	}{
		{"vector", vectorErr},
		{"keyword", keywordErr},
		{"identifier", identifierErr},
	} {
		if item.name == "identifier" {
			if !isIdentifier {
				continue
			}
			launched++
		}
		if item.err != nil {
			failures++
			logger.Warn("retrieval strategy failed", zap.String("strategy", item.name), zap.Error(item.err))
		}
	}
	if failures == launched {
		return nil, apperr.ErrRetrievalUnavailable
	}

	// priority order: literal and structural matches must not be crowded
	// out by softer vector matches
	var ordered []model.SearchHit
	if isIdentifier {
		ordered = append(ordered, identifierHits...)
	}
	ordered = append(ordered, keywordHits...)
	ordered = append(ordered, vectorHits...)

	merged := dedupeByContent(ordered)
	if len(merged) > maxResults {
		merged = merged[:maxResults]
	}
	logger.Debug("retrieval fused",
		zap.Bool("identifier_query", isIdentifier),
		zap.Bool("cross_meeting", isCross),
		zap.Int("vector", len(vectorHits)),
		zap.Int("keyword", len(keywordHits)),
		zap.Int("identifier", len(identifierHits)),
		zap.Int("merged", len(merged)),
	)
	return merged, nil
}

func (s *RetrievalService) vectorSearch(ctx context.Context, query string, transcriptIDs []string, k int) ([]model.SearchHit, error) {
	vector, err := s.embedder.Embed(ctx, query, embedTaskQuery)
	if err != nil {
		return nil, err
	}
	matches, err := s.index.NearestNeighbors(ctx, vector, transcriptIDs, k)
	if err != nil {
		return nil, err
	}
	hits := make([]model.SearchHit, 0, len(matches))
	for _, match := range matches {
		score := match.Score
		// a zero-norm embedding makes the index distance NaN; treat any
		// non-finite score as no similarity
		if math.IsNaN(float64(score)) || math.IsInf(float64(score), 0) {
			score = 0
		}
		if score < 0 {
			score = 0
		}
		if score > 1 {
			score = 1
		}
		hits = append(hits, model.SearchHit{
			ChunkID:      match.Chunk.ID,
			TranscriptID: match.Chunk.TranscriptID,
			MeetingID:    match.Chunk.MeetingID,
			MeetingDate:  match.Chunk.MeetingDate,
			Content:      match.Chunk.Content,
			Score:        score,
			Provenance:   model.ProvenanceVector,
		})
	}
	return hits, nil
}

// dedupeByContent drops hits whose chunk text was already seen; since input
// is in priority order, the first (highest-priority) occurrence wins.
func dedupeByContent(hits []model.SearchHit) []model.SearchHit {
	seen := make(map[string]struct{}, len(hits))
	out := make([]model.SearchHit, 0, len(hits))
	for _, hit := range hits {
		if _, dup := seen[hit.Content]; dup {
			continue
		}
		seen[hit.Content] = struct{}{}
		out = append(out, hit)
	}
	return out
}
