package model

// TranscriptChunk is an ordered fragment of a transcript's normalized text
// carrying exactly one embedding vector. Chunk indexes within a transcript
// are contiguous, 0..ChunkTotal-1.
type TranscriptChunk struct {
	ID             string    `json:"id"`
	TranscriptID   string    `json:"transcript_id"`
	MeetingID      string    `json:"meeting_id"`
	MeetingDate    string    `json:"meeting_date"`
	ChunkIndex     int       `json:"chunk_index"`
	ChunkTotal     int       `json:"chunk_total"`
	Content        string    `json:"content"`
	Embedding      []float32 `json:"embedding"`
	ContentHash    string    `json:"content_hash"`
	EmbeddingModel string    `json:"embedding_model"`
	Ctime          int64     `json:"ctime"`
}
