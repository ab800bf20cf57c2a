package model

// Transcript is one recorded meeting document. Content is immutable once
// embedded except through re-ingestion after a content change, which is
// detected via the chunk content hash.
type Transcript struct {
	ID             string `json:"id"`
	MeetingID      string `json:"meeting_id"`
	Title          string `json:"title"`
	MeetingDate    string `json:"meeting_date"` // YYYY-MM-DD
	Content        string `json:"content"`
	EmbeddingModel string `json:"embedding_model"`
	ChunkCount     int    `json:"chunk_count"`
	EmbeddedAt     int64  `json:"embedded_at"`
	Ctime          int64  `json:"ctime"`
	Mtime          int64  `json:"mtime"`
}
