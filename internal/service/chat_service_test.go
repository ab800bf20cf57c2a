package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recapd/recapd/internal/model"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
)

type fakeRetriever struct {
	hits []model.SearchHit
	err  error
}

func (f *fakeRetriever) Retrieve(ctx context.Context, query string, transcriptIDs []string, opts RetrieveOptions) ([]model.SearchHit, error) {
	return f.hits, f.err
}

type fakeAnswerer struct {
	answer      model.Answer
	err         error
	lastContext string
}

func (f *fakeAnswerer) Answer(ctx context.Context, question string, meetingContext string) (model.Answer, error) {
	f.lastContext = meetingContext
	return f.answer, f.err
}

func structuredAnswer(text, confidence string, followUps ...string) model.Answer {
	return model.Answer{
		Text: text,
		Structured: &model.StructuredAnswer{
			Answer:            text,
			Confidence:        confidence,
			FollowUpQuestions: followUps,
		},
	}
}

func TestChatMessageHappyPath(t *testing.T) {
	retriever := &fakeRetriever{hits: []model.SearchHit{
		{
			ChunkID:      "c1",
			TranscriptID: "t1",
			MeetingID:    "m1",
			MeetingDate:  "2025-03-10",
			Content:      "alice: we ship friday",
			Score:        0.92,
			Provenance:   model.ProvenanceVector,
		},
	}}
	answerer := &fakeAnswerer{answer: structuredAnswer("Shipping on Friday.", model.ConfidenceHigh, "Who owns the release?")}
	svc := NewChatService(retriever, answerer)

	result, err := svc.Message(context.Background(), "when do we ship?", []string{"t1"})
	require.NoError(t, err)
	require.Equal(t, "Shipping on Friday.", result.Answer)
	require.Equal(t, model.ConfidenceHigh, result.Confidence)
	require.Equal(t, []string{"Who owns the release?"}, result.FollowUpQuestions)
	require.Equal(t, 1, result.ChunksRetrieved)
	require.Len(t, result.Sources, 1)
	require.Equal(t, "c1", result.Sources[0].ChunkID)
	require.Contains(t, answerer.lastContext, "alice: we ship friday")
	require.Contains(t, answerer.lastContext, "==== Meeting 2025-03-10 ====")
}

func TestChatMessageNoHitsUsesSentinelContext(t *testing.T) {
	answerer := &fakeAnswerer{answer: model.PlainAnswer("I could not find that.")}
	svc := NewChatService(&fakeRetriever{}, answerer)

	result, err := svc.Message(context.Background(), "anything?", []string{"t1"})
	require.NoError(t, err)
	require.Equal(t, NoContextSentinel, result.ContextUsed)
	require.Equal(t, NoContextSentinel, answerer.lastContext)
	require.Equal(t, model.ConfidenceLow, result.Confidence)
	require.Zero(t, result.ChunksRetrieved)
}

func TestChatMessageRetrievalFailureDegrades(t *testing.T) {
	retriever := &fakeRetriever{err: fmt.Errorf("index offline")}
	answerer := &fakeAnswerer{answer: model.PlainAnswer("nothing found")}
	svc := NewChatService(retriever, answerer)

	result, err := svc.Message(context.Background(), "status?", []string{"t1"})
	require.NoError(t, err)
	require.Equal(t, NoContextSentinel, result.ContextUsed)
}

func TestChatMessageRetrievalTimeoutPropagates(t *testing.T) {
	retriever := &fakeRetriever{err: apperr.ErrRetrievalTimeout}
	svc := NewChatService(retriever, &fakeAnswerer{})

	_, err := svc.Message(context.Background(), "status?", []string{"t1"})
	require.ErrorIs(t, err, apperr.ErrRetrievalTimeout)
}

func TestChatMessageAnswererFailurePropagates(t *testing.T) {
	svc := NewChatService(&fakeRetriever{}, &fakeAnswerer{err: fmt.Errorf("provider down")})
	_, err := svc.Message(context.Background(), "status?", []string{"t1"})
	require.Error(t, err)
}
