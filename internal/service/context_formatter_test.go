package service

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/recapd/recapd/internal/model"
)

func formatterHit(date, content string, score float32) model.SearchHit {
	return model.SearchHit{
		ChunkID:      "chunk-" + content,
		TranscriptID: "t1",
		MeetingID:    "m1",
		MeetingDate:  date,
		Content:      content,
		Score:        score,
		Provenance:   model.ProvenanceVector,
	}
}

func TestFormatContextEmptyUsesSentinel(t *testing.T) {
	require.Equal(t, NoContextSentinel, FormatContext(nil))
	require.Equal(t, NoContextSentinel, FormatContext([]model.SearchHit{}))
}

func TestFormatContextGroupsByMeetingDate(t *testing.T) {
	hits := []model.SearchHit{
		formatterHit("2025-01-10", "alpha", 0.95),
		formatterHit("2025-01-11", "beta", 0.8),
		formatterHit("2025-01-10", "gamma", 0.9),
	}
	got := FormatContext(hits)

	want := "==== Meeting 2025-01-10 ====\n\n" +
		"[Source 1 | relevance 95.0%]\nalpha\n\n" +
		"[Source 2 | relevance 90.0%]\ngamma\n\n" +
		"==== Meeting 2025-01-11 ====\n\n" +
		"[Source 1 | relevance 80.0%]\nbeta"
	require.Equal(t, want, got)
}

func TestFormatContextSameDateIsOneMeeting(t *testing.T) {
	hits := []model.SearchHit{
		formatterHit("2025-01-10", "alpha", 0.95),
		formatterHit("2025-01-10", "beta", 0.9),
	}
	got := FormatContext(hits)
	require.Equal(t, 1, strings.Count(got, "==== Meeting"))
	require.Contains(t, got, "[Source 1 | relevance 95.0%]")
	require.Contains(t, got, "[Source 2 | relevance 90.0%]")
}

func TestFormatContextHeadingsAreSplittable(t *testing.T) {
	hits := []model.SearchHit{
		formatterHit("2025-01-10", "alpha", 0.95),
		formatterHit("2025-01-11", "beta", 0.8),
		formatterHit("2025-01-12", "gamma", 0.7),
	}
	got := FormatContext(hits)
	sections := strings.Split(got, "==== Meeting ")
	// leading empty element plus one section per date
	require.Len(t, sections, 4)
}

func TestFormatContextDeterministic(t *testing.T) {
	hits := []model.SearchHit{
		formatterHit("2025-01-11", "beta", 0.8),
		formatterHit("2025-01-10", "alpha", 0.95),
	}
	require.Equal(t, FormatContext(hits), FormatContext(hits))
}
