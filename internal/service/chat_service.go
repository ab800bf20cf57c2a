package service

import (
	"context"
	"errors"

	"github.com/xxxsen/common/logutil"
	"go.uber.org/zap"

	"github.com/recapd/recapd/internal/model"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
)

type SourceRef struct {
	ChunkID      string           `json:"chunk_id"`
	TranscriptID string           `json:"transcript_id"`
	MeetingID    string           `json:"meeting_id"`
	MeetingDate  string           `json:"meeting_date"`
	Score        float32          `json:"score"`
	Provenance   model.Provenance `json:"provenance"`
}

type ChatResult struct {
	Answer            string      `json:"answer"`
	Confidence        string      `json:"confidence"`
	FollowUpQuestions []string    `json:"follow_up_questions"`
	Sources           []SourceRef `json:"sources"`
	ContextUsed       string      `json:"context_used"`
	ChunksRetrieved   int         `json:"chunks_retrieved"`
}

type Answerer interface {
	Answer(ctx context.Context, question string, meetingContext string) (model.Answer, error)
}

type Retriever interface {
	Retrieve(ctx context.Context, query string, transcriptIDs []string, opts RetrieveOptions) ([]model.SearchHit, error)
}

// ChatService glues retrieval, formatting and generation into the message
// operation.
type ChatService struct {
	retrieval Retriever
	answerer  Answerer
}

func NewChatService(retrieval Retriever, answerer Answerer) *ChatService {
	return &ChatService{retrieval: retrieval, answerer: answerer}
}

func (s *ChatService) Message(ctx context.Context, question string, transcriptIDs []string) (*ChatResult, error) {
	logger := logutil.GetLogger(ctx).With(zap.String("question", question))

	hits, err := s.retrieval.Retrieve(ctx, question, transcriptIDs, RetrieveOptions{})
	if err != nil {
		if errors.Is(err, apperr.ErrRetrievalTimeout) {
			return nil, err
		}
		// total retrieval failure degrades to the sentinel context; the
		// model still gets to say it cannot find anything
		logger.Warn("retrieval failed, answering without context", zap.Error(err))
		hits = nil
	}

	meetingContext := FormatContext(hits)
	answer, err := s.answerer.Answer(ctx, question, meetingContext)
	if err != nil {
		return nil, err
	}

	result := &ChatResult{
		Answer:          answer.Text,
		Confidence:      model.ConfidenceLow,
		ContextUsed:     meetingContext,
		ChunksRetrieved: len(hits),
		Sources:         make([]SourceRef, 0, len(hits)),
	}
	if answer.IsStructured() {
		result.Confidence = answer.Structured.Confidence
		result.FollowUpQuestions = answer.Structured.FollowUpQuestions
	}
	for _, hit := range hits {
		result.Sources = append(result.Sources, SourceRef{
			ChunkID:      hit.ChunkID,
			TranscriptID: hit.TranscriptID,
			MeetingID:    hit.MeetingID,
			MeetingDate:  hit.MeetingDate,
			Score:        hit.Score,
			Provenance:   hit.Provenance,
		})
	}
	return result, nil
}
