package service

import (
	"context"
	"fmt"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/recapd/recapd/internal/config"
	"github.com/recapd/recapd/internal/model"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
	"github.com/recapd/recapd/internal/repo"
)

type fakeVectorIndex struct {
	matches []repo.ChunkMatch
	err     error
	lastK   int
	delay   time.Duration
}

func (f *fakeVectorIndex) NearestNeighbors(ctx context.Context, vector []float32, transcriptIDs []string, k int) ([]repo.ChunkMatch, error) {
	f.lastK = k
	if f.delay > 0 {
		select {
		case <-time.After(f.delay):
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return f.matches, f.err
}

type fakeScanner struct {
	identifierHits []model.SearchHit
	keywordHits    []model.SearchHit
	identifierErr  error
	keywordErr     error
	delay          time.Duration
}

func (f *fakeScanner) ScanIdentifiers(ctx context.Context, transcriptIDs []string) ([]model.SearchHit, error) {
	return f.identifierHits, f.identifierErr
}

func (f *fakeScanner) SearchKeywords(ctx context.Context, query string, transcriptIDs []string) ([]model.SearchHit, error) {
	if f.delay > 0 {
		time.Sleep(f.delay)
	}
	return f.keywordHits, f.keywordErr
}

type fixedEmbedder struct {
	err error
}

func (f *fixedEmbedder) Embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	return []float32{1, 0, 0}, nil
}

func (f *fixedEmbedder) ModelName() string { return "fixed" }

func retrievalTestConfig() config.RetrievalConfig {
	return config.RetrievalConfig{
		MaxResults:             15,
		CrossMeetingMaxResults: 25,
		VectorTopK:             8,
		CrossMeetingVectorTopK: 20,
	}
}

func hit(content string, score float32, provenance model.Provenance) model.SearchHit {
	return model.SearchHit{
		ChunkID:      "chunk-" + content,
		TranscriptID: "t1",
		MeetingID:    "m1",
		MeetingDate:  "2025-03-10",
		Content:      content,
		Score:        score,
		Provenance:   provenance,
	}
}

func match(content string, score float32) repo.ChunkMatch {
	return repo.ChunkMatch{
		Chunk: model.TranscriptChunk{
			ID:           "chunk-" + content,
			TranscriptID: "t1",
			MeetingID:    "m1",
			MeetingDate:  "2025-03-10",
			Content:      content,
		},
		Score: score,
	}
}

func TestRetrieveEmptyScope(t *testing.T) {
	svc := NewRetrievalService(&fixedEmbedder{}, &fakeVectorIndex{}, &fakeScanner{}, retrievalTestConfig())
	hits, err := svc.Retrieve(context.Background(), "anything", nil, RetrieveOptions{})
	require.NoError(t, err)
	require.Nil(t, hits)
}

func TestRetrievePriorityOrder(t *testing.T) {
	index := &fakeVectorIndex{matches: []repo.ChunkMatch{match("vector match", 0.7)}}
	scanner := &fakeScanner{
		identifierHits: []model.SearchHit{hit("identifier match", 0.95, model.ProvenanceIdentifier)},
		keywordHits:    []model.SearchHit{hit("keyword match", 0.9, model.ProvenanceKeyword)},
	}
	svc := NewRetrievalService(&fixedEmbedder{}, index, scanner, retrievalTestConfig())

	hits, err := svc.Retrieve(context.Background(), "what tasks were discussed", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, model.ProvenanceIdentifier, hits[0].Provenance)
	require.Equal(t, model.ProvenanceKeyword, hits[1].Provenance)
	require.Equal(t, model.ProvenanceVector, hits[2].Provenance)
}

func TestRetrieveDedupesByContent(t *testing.T) {
	shared := "bob: SP-42 moved to done"
	index := &fakeVectorIndex{matches: []repo.ChunkMatch{match(shared, 0.8)}}
	scanner := &fakeScanner{
		keywordHits: []model.SearchHit{hit(shared, 0.9, model.ProvenanceKeyword)},
	}
	svc := NewRetrievalService(&fixedEmbedder{}, index, scanner, retrievalTestConfig())

	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
	require.Equal(t, model.ProvenanceKeyword, hits[0].Provenance)
}

func TestRetrievePartialStrategyFailureDegrades(t *testing.T) {
	index := &fakeVectorIndex{err: fmt.Errorf("index down")}
	scanner := &fakeScanner{
		keywordHits: []model.SearchHit{hit("keyword match", 0.9, model.ProvenanceKeyword)},
	}
	svc := NewRetrievalService(&fixedEmbedder{}, index, scanner, retrievalTestConfig())

	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 1)
}

func TestRetrieveAllStrategiesFail(t *testing.T) {
	index := &fakeVectorIndex{}
	scanner := &fakeScanner{
		identifierErr: fmt.Errorf("scanner down"),
		keywordErr:    fmt.Errorf("scanner down"),
	}
	svc := NewRetrievalService(&fixedEmbedder{err: fmt.Errorf("embed down")}, index, scanner, retrievalTestConfig())

	_, err := svc.Retrieve(context.Background(), "what tasks were discussed", []string{"t1"}, RetrieveOptions{})
	require.ErrorIs(t, err, apperr.ErrRetrievalUnavailable)
}

func TestRetrieveZeroHitsIsNotAnError(t *testing.T) {
	svc := NewRetrievalService(&fixedEmbedder{}, &fakeVectorIndex{}, &fakeScanner{}, retrievalTestConfig())
	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Empty(t, hits)
}

func TestRetrieveCrossMeetingWidensBudget(t *testing.T) {
	var matches []repo.ChunkMatch
	for i := 0; i < 30; i++ {
		matches = append(matches, match(fmt.Sprintf("vector match %d", i), 0.7))
	}
	index := &fakeVectorIndex{matches: matches}
	cfg := retrievalTestConfig()
	cfg.MaxResults = 3
	cfg.CrossMeetingMaxResults = 6
	svc := NewRetrievalService(&fixedEmbedder{}, index, &fakeScanner{}, cfg)

	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 3)
	require.Equal(t, cfg.VectorTopK, index.lastK)

	hits, err = svc.Retrieve(context.Background(), "summarize each meeting separately", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 6)
	require.Equal(t, cfg.CrossMeetingVectorTopK, index.lastK)
}

func TestRetrieveMaxResultsOverride(t *testing.T) {
	var matches []repo.ChunkMatch
	for i := 0; i < 10; i++ {
		matches = append(matches, match(fmt.Sprintf("vector match %d", i), 0.7))
	}
	svc := NewRetrievalService(&fixedEmbedder{}, &fakeVectorIndex{matches: matches}, &fakeScanner{}, retrievalTestConfig())

	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{MaxResults: 4})
	require.NoError(t, err)
	require.Len(t, hits, 4)
}

func TestRetrieveClampsVectorScores(t *testing.T) {
	index := &fakeVectorIndex{matches: []repo.ChunkMatch{
		match("too high", 1.4),
		match("too low", -0.2),
	}}
	svc := NewRetrievalService(&fixedEmbedder{}, index, &fakeScanner{}, retrievalTestConfig())

	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	require.Equal(t, float32(1), hits[0].Score)
	require.Equal(t, float32(0), hits[1].Score)
}

func TestRetrieveSanitizesNonFiniteScores(t *testing.T) {
	// a zero-norm stored embedding makes the index distance NaN
	index := &fakeVectorIndex{matches: []repo.ChunkMatch{
		match("nan score", float32(math.NaN())),
		match("inf score", float32(math.Inf(1))),
	}}
	svc := NewRetrievalService(&fixedEmbedder{}, index, &fakeScanner{}, retrievalTestConfig())

	hits, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Len(t, hits, 2)
	for _, h := range hits {
		require.False(t, math.IsNaN(float64(h.Score)))
		require.False(t, math.IsInf(float64(h.Score), 0))
		require.Equal(t, float32(0), h.Score)
	}
}

func TestRetrieveDeterministicForIdenticalInput(t *testing.T) {
	index := &fakeVectorIndex{matches: []repo.ChunkMatch{match("vector match", 0.7)}}
	scanner := &fakeScanner{
		identifierHits: []model.SearchHit{hit("identifier match", 0.95, model.ProvenanceIdentifier)},
		keywordHits:    []model.SearchHit{hit("keyword match", 0.9, model.ProvenanceKeyword)},
	}
	svc := NewRetrievalService(&fixedEmbedder{}, index, scanner, retrievalTestConfig())

	first, err := svc.Retrieve(context.Background(), "what tasks were discussed", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	second, err := svc.Retrieve(context.Background(), "what tasks were discussed", []string{"t1"}, RetrieveOptions{})
	require.NoError(t, err)
	require.Equal(t, first, second)
}

func TestRetrieveTimeout(t *testing.T) {
	cfg := retrievalTestConfig()
	cfg.TimeoutSeconds = 1
	scanner := &fakeScanner{delay: 2 * time.Second}
	svc := NewRetrievalService(&fixedEmbedder{}, &fakeVectorIndex{}, scanner, cfg)

	_, err := svc.Retrieve(context.Background(), "what was decided about the roadmap", []string{"t1"}, RetrieveOptions{})
	require.ErrorIs(t, err, apperr.ErrRetrievalTimeout)
}
