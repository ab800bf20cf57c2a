package repo

import (
	"context"
	"database/sql"

	"github.com/lib/pq"
	"github.com/pgvector/pgvector-go"

	"github.com/recapd/recapd/internal/model"
)

// ChunkMatch pairs a chunk with its cosine similarity against a query
// vector, as computed by the index.
type ChunkMatch struct {
	Chunk model.TranscriptChunk
	Score float32
}

type ChunkRepo struct {
	db *sql.DB
}

func NewChunkRepo(db *sql.DB) *ChunkRepo {
	return &ChunkRepo{db: db}
}

func (r *ChunkRepo) InsertMany(ctx context.Context, chunks []*model.TranscriptChunk) error {
	if len(chunks) == 0 {
		return nil
	}
	const query = `
		INSERT INTO transcript_chunks
			(id, transcript_id, meeting_id, meeting_date, chunk_index, chunk_total,
			 content, embedding, content_hash, embedding_model, ctime)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`
	for _, chunk := range chunks {
		_, err := r.db.ExecContext(ctx, query,
			chunk.ID,
			chunk.TranscriptID,
			chunk.MeetingID,
			chunk.MeetingDate,
			chunk.ChunkIndex,
			chunk.ChunkTotal,
			chunk.Content,
			pgvector.NewVector(chunk.Embedding),
			chunk.ContentHash,
			chunk.EmbeddingModel,
			chunk.Ctime,
		)
		if err != nil {
			return err
		}
	}
	return nil
}

func (r *ChunkRepo) DeleteByTranscriptID(ctx context.Context, transcriptID string) error {
	const query = `DELETE FROM transcript_chunks WHERE transcript_id = $1`
	_, err := r.db.ExecContext(ctx, query, transcriptID)
	return err
}

// DeleteStale removes a transcript's chunks from generations other than
// keepHash. Replacement inserts the new generation first and sweeps the old
// one afterwards, so a failure in between never leaves the transcript
// without retrievable content.
func (r *ChunkRepo) DeleteStale(ctx context.Context, transcriptID string, keepHash string) error {
	const query = `DELETE FROM transcript_chunks WHERE transcript_id = $1 AND content_hash <> $2`
	_, err := r.db.ExecContext(ctx, query, transcriptID, keepHash)
	return err
}

func (r *ChunkRepo) ExistsForTranscriptID(ctx context.Context, transcriptID string) (bool, error) {
	const query = `SELECT 1 FROM transcript_chunks WHERE transcript_id = $1 LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, transcriptID)
	var one int
	if err := row.Scan(&one); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// ExistsCurrent reports whether the transcript already has a complete chunk
// generation for the given fingerprint. A partial generation (crashed
// ingestion) does not count as current.
func (r *ChunkRepo) ExistsCurrent(ctx context.Context, transcriptID string, contentHash string) (bool, error) {
	const query = `
		SELECT COUNT(*), COALESCE(MAX(chunk_total), 0)
		FROM transcript_chunks
		WHERE transcript_id = $1 AND content_hash = $2
	`
	row := r.db.QueryRowContext(ctx, query, transcriptID, contentHash)
	var count, total int
	if err := row.Scan(&count, &total); err != nil {
		return false, err
	}
	return count > 0 && count == total, nil
}

// DeleteGeneration removes a transcript's chunks carrying the given
// fingerprint, used to sweep a partial generation before re-inserting it.
func (r *ChunkRepo) DeleteGeneration(ctx context.Context, transcriptID string, contentHash string) error {
	const query = `DELETE FROM transcript_chunks WHERE transcript_id = $1 AND content_hash = $2`
	_, err := r.db.ExecContext(ctx, query, transcriptID, contentHash)
	return err
}

// ListByTranscriptIDs returns chunk text and metadata (no vectors) for the
// literal scanners, in stable (transcript, index) order.
func (r *ChunkRepo) ListByTranscriptIDs(ctx context.Context, transcriptIDs []string) ([]model.TranscriptChunk, error) {
	if len(transcriptIDs) == 0 {
		return nil, nil
	}
	const query = `
		SELECT id, transcript_id, meeting_id, meeting_date, chunk_index, chunk_total,
		       content, content_hash, embedding_model, ctime
		FROM transcript_chunks
		WHERE transcript_id = ANY($1)
		ORDER BY transcript_id, chunk_index
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(transcriptIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.TranscriptChunk
	for rows.Next() {
		var chunk model.TranscriptChunk
		if err := rows.Scan(&chunk.ID, &chunk.TranscriptID, &chunk.MeetingID, &chunk.MeetingDate,
			&chunk.ChunkIndex, &chunk.ChunkTotal, &chunk.Content, &chunk.ContentHash,
			&chunk.EmbeddingModel, &chunk.Ctime); err != nil {
			return nil, err
		}
		results = append(results, chunk)
	}
	return results, rows.Err()
}

// NearestNeighbors runs the cosine ANN query scoped to the allowed
// transcripts. Scoping happens in the WHERE clause, never as post-hoc
// filtering. Ties on distance break on id to keep results deterministic.
func (r *ChunkRepo) NearestNeighbors(ctx context.Context, vector []float32, transcriptIDs []string, k int) ([]ChunkMatch, error) {
	if len(transcriptIDs) == 0 || k <= 0 {
		return nil, nil
	}
	const query = `
		SELECT id, transcript_id, meeting_id, meeting_date, chunk_index, chunk_total,
		       content, 1 - (embedding <=> $1) AS score
		FROM transcript_chunks
		WHERE transcript_id = ANY($2) AND embedding IS NOT NULL
		ORDER BY embedding <=> $1, id
		LIMIT $3
	`
	rows, err := r.db.QueryContext(ctx, query, pgvector.NewVector(vector), pq.Array(transcriptIDs), k)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []ChunkMatch
	for rows.Next() {
		var m ChunkMatch
		if err := rows.Scan(&m.Chunk.ID, &m.Chunk.TranscriptID, &m.Chunk.MeetingID, &m.Chunk.MeetingDate,
			&m.Chunk.ChunkIndex, &m.Chunk.ChunkTotal, &m.Chunk.Content, &m.Score); err != nil {
			return nil, err
		}
		results = append(results, m)
	}
	return results, rows.Err()
}

// CountByTranscriptIDs reports how many chunks each transcript owns, for
// the embedding status endpoint. Transcripts without chunks are absent.
func (r *ChunkRepo) CountByTranscriptIDs(ctx context.Context, transcriptIDs []string) (map[string]int, error) {
	if len(transcriptIDs) == 0 {
		return map[string]int{}, nil
	}
	const query = `
		SELECT transcript_id, COUNT(*)
		FROM transcript_chunks
		WHERE transcript_id = ANY($1)
		GROUP BY transcript_id
	`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(transcriptIDs))
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	counts := make(map[string]int, len(transcriptIDs))
	for rows.Next() {
		var id string
		var n int
		if err := rows.Scan(&id, &n); err != nil {
			return nil, err
		}
		counts[id] = n
	}
	return counts, rows.Err()
}
