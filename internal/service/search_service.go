package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/model"
)

// Literal matches are high-precision signals, so they carry fixed
// confidence constants. These are priority markers, never comparable with
// cosine scores.
const (
	identifierScore = float32(0.95)
	keywordScore    = float32(0.9)

	identifierScanLimit = 20
	keywordScanLimit    = 15

	minKeywordLen = 3
)

// identifierPattern matches structured references like "SP-123", "sp 123"
// or "SP123": a two-letter prefix, an optional hyphen or space, digits.
var identifierPattern = regexp.MustCompile(`(?i)\b[a-z]{2}[-\s]?[0-9]+\b`)

// taskSynonyms is the small vocabulary that marks a query as being about
// tracked work items even when no literal identifier appears in it.
var taskSynonyms = map[string]struct{}{
	"task": {}, "tasks": {},
	"ticket": {}, "tickets": {},
	"item": {}, "items": {},
	"issue": {}, "issues": {},
	"todo": {}, "todos": {},
	"action": {}, "actions": {},
	"work": {},
}

var crossMeetingPhrases = []string{
	"each meeting", "every meeting", "all meetings", "per meeting",
	"separately", "individual meeting", "meeting by meeting", "across meetings",
	"each transcript", "every transcript",
}

type ChunkLister interface {
	ListByTranscriptIDs(ctx context.Context, transcriptIDs []string) ([]model.TranscriptChunk, error)
}

// SearchService runs the two literal scanners over chunk text scoped to an
// allowed transcript set.
type SearchService struct {
	chunks ChunkLister
}

func NewSearchService(chunks ChunkLister) *SearchService {
	return &SearchService{chunks: chunks}
}

// ScanIdentifiers surfaces every chunk containing at least one structured
// identifier, capped at identifierScanLimit. All occurrences inside a chunk
// are located so that "all X" style questions see every distinct reference.
func (s *SearchService) ScanIdentifiers(ctx context.Context, transcriptIDs []string) ([]model.SearchHit, error) {
	chunks, err := s.chunks.ListByTranscriptIDs(ctx, transcriptIDs)
	if err != nil {
		return nil, err
	}
	var hits []model.SearchHit
	total := 0
	for _, chunk := range chunks {
		matches := identifierPattern.FindAllString(chunk.Content, -1)
		if len(matches) == 0 {
			continue
		}
		total += len(matches)
		hits = append(hits, hitFromChunk(chunk, identifierScore, model.ProvenanceIdentifier))
		if len(hits) >= identifierScanLimit {
			break
		}
	}
	logutil.GetLogger(ctx).Debug("identifier scan finished",
		zap.Int("chunks", len(chunks)), zap.Int("hits", len(hits)), zap.Int("occurrences", total))
	return hits, nil
}

// SearchKeywords returns chunks containing any query term. When the query
// is identifier-related the identifier scan output is merged in, since a
// question about "tasks" should surface ticket references even without the
// literal word nearby.
func (s *SearchService) SearchKeywords(ctx context.Context, query string, transcriptIDs []string) ([]model.SearchHit, error) {
	terms := keywordTerms(query)
	chunks, err := s.chunks.ListByTranscriptIDs(ctx, transcriptIDs)
	if err != nil {
		return nil, err
	}
	var hits []model.SearchHit
	seen := make(map[string]struct{})
	for _, chunk := range chunks {
		lower := strings.ToLower(chunk.Content)
		for _, term := range terms {
			if strings.Contains(lower, term) {
				hits = append(hits, hitFromChunk(chunk, keywordScore, model.ProvenanceKeyword))
				seen[chunk.ID] = struct{}{}
				break
			}
		}
	}
	if IsIdentifierQuery(query) {
		for _, chunk := range chunks {
			if _, dup := seen[chunk.ID]; dup {
				continue
			}
			if identifierPattern.MatchString(chunk.Content) {
				hits = append(hits, hitFromChunk(chunk, keywordScore, model.ProvenanceKeyword))
			}
		}
	}
	if len(hits) > keywordScanLimit {
		hits = hits[:keywordScanLimit]
	}
	logutil.GetLogger(ctx).Debug("keyword scan finished",
		zap.Int("terms", len(terms)), zap.Int("hits", len(hits)))
	return hits, nil
}

// IsIdentifierQuery reports whether the query is about tracked work items,
// either through the synonym vocabulary or a literal identifier.
func IsIdentifierQuery(query string) bool {
	for _, token := range strings.Fields(strings.ToLower(query)) {
		token = strings.Trim(token, ".,!?;:'\"()[]")
		if _, ok := taskSynonyms[token]; ok {
			return true
		}
	}
	return identifierPattern.MatchString(query)
}

// IsCrossMeetingQuery reports whether the query asks for per-meeting or
// cross-meeting treatment, which widens the retrieval budget.
func IsCrossMeetingQuery(query string) bool {
	lower := strings.ToLower(query)
	for _, phrase := range crossMeetingPhrases {
		if strings.Contains(lower, phrase) {
			return true
		}
	}
	return false
}

func keywordTerms(query string) []string {
	var terms []string
	seen := make(map[string]struct{})
	for _, token := range strings.Fields(strings.ToLower(query)) {
		token = strings.Trim(token, ".,!?;:'\"()[]")
		if len(token) < minKeywordLen {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		terms = append(terms, token)
	}
	return terms
}

func hitFromChunk(chunk model.TranscriptChunk, score float32, provenance model.Provenance) model.SearchHit {
	return model.SearchHit{
		ChunkID:      chunk.ID,
		TranscriptID: chunk.TranscriptID,
		MeetingID:    chunk.MeetingID,
		MeetingDate:  chunk.MeetingDate,
		Content:      chunk.Content,
		Score:        score,
		Provenance:   provenance,
	}
}
