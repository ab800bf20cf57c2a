package model

// Provenance tags which retrieval strategy produced a hit. Scores are not
// comparable across provenances: literal scanners assign fixed confidence
// constants while vector hits carry cosine similarity.
type Provenance string

const (
	ProvenanceVector     Provenance = "vector"
	ProvenanceKeyword    Provenance = "keyword"
	ProvenanceIdentifier Provenance = "identifier"
)

// SearchHit is an ephemeral retrieval candidate. It is created per query
// and discarded after the response is formatted, never persisted.
type SearchHit struct {
	ChunkID      string     `json:"chunk_id"`
	TranscriptID string     `json:"transcript_id"`
	MeetingID    string     `json:"meeting_id"`
	MeetingDate  string     `json:"meeting_date"`
	Content      string     `json:"content"`
	Score        float32    `json:"score"`
	Provenance   Provenance `json:"provenance"`
}
