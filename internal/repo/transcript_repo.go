package repo

import (
	"context"
	"database/sql"

	"github.com/didi/gendry/builder"

	"github.com/recapd/recapd/internal/model"
	"github.com/recapd/recapd/internal/pkg/dbutil"
	apperr "github.com/recapd/recapd/internal/pkg/errors"
)

var transcriptFields = []string{
	"id", "meeting_id", "title", "meeting_date", "content",
	"embedding_model", "chunk_count", "embedded_at", "ctime", "mtime",
}

type TranscriptRepo struct {
	db *sql.DB
}

func NewTranscriptRepo(db *sql.DB) *TranscriptRepo {
	return &TranscriptRepo{db: db}
}

func (r *TranscriptRepo) Create(ctx context.Context, t *model.Transcript) error {
	data := map[string]interface{}{
		"id":              t.ID,
		"meeting_id":      t.MeetingID,
		"title":           t.Title,
		"meeting_date":    t.MeetingDate,
		"content":         t.Content,
		"embedding_model": t.EmbeddingModel,
		"chunk_count":     t.ChunkCount,
		"embedded_at":     t.EmbeddedAt,
		"ctime":           t.Ctime,
		"mtime":           t.Mtime,
	}
	sqlStr, args, err := builder.BuildInsert("transcripts", []map[string]interface{}{data})
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	if _, err := r.db.ExecContext(ctx, sqlStr, args...); err != nil {
		if dbutil.IsConflict(err) {
			return apperr.ErrConflict
		}
		return err
	}
	return nil
}

func (r *TranscriptRepo) GetByID(ctx context.Context, id string) (*model.Transcript, error) {
	where := map[string]interface{}{"id": id}
	sqlStr, args, err := builder.BuildSelect("transcripts", where, transcriptFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	row := r.db.QueryRowContext(ctx, sqlStr, args...)
	t, err := scanTranscript(row)
	if err == sql.ErrNoRows {
		return nil, apperr.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return t, nil
}

func (r *TranscriptRepo) ListByIDs(ctx context.Context, ids []string) ([]model.Transcript, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	where := map[string]interface{}{
		"id in":    ids,
		"_orderby": "meeting_date, id",
	}
	sqlStr, args, err := builder.BuildSelect("transcripts", where, transcriptFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryMany(ctx, sqlStr, args)
}

func (r *TranscriptRepo) List(ctx context.Context, limit, offset int) ([]model.Transcript, error) {
	where := map[string]interface{}{
		"_orderby": "meeting_date desc, id",
		"_limit":   []uint{uint(offset), uint(limit)},
	}
	sqlStr, args, err := builder.BuildSelect("transcripts", where, transcriptFields)
	if err != nil {
		return nil, err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	return r.queryMany(ctx, sqlStr, args)
}

// ListPendingEmbedding returns transcripts whose content changed after
// their last ingestion (never-ingested rows have embedded_at = 0).
func (r *TranscriptRepo) ListPendingEmbedding(ctx context.Context, limit int) ([]model.Transcript, error) {
	const query = `
		SELECT id, meeting_id, title, meeting_date, content,
		       embedding_model, chunk_count, embedded_at, ctime, mtime
		FROM transcripts
		WHERE mtime > embedded_at
		ORDER BY mtime ASC
		LIMIT $1
	`
	return r.queryMany(ctx, query, []interface{}{limit})
}

func (r *TranscriptRepo) UpdateEmbeddingMeta(ctx context.Context, id string, modelName string, chunkCount int, embeddedAt int64) error {
	where := map[string]interface{}{"id": id}
	update := map[string]interface{}{
		"embedding_model": modelName,
		"chunk_count":     chunkCount,
		"embedded_at":     embeddedAt,
	}
	sqlStr, args, err := builder.BuildUpdate("transcripts", where, update)
	if err != nil {
		return err
	}
	sqlStr, args = dbutil.Finalize(sqlStr, args)
	_, err = r.db.ExecContext(ctx, sqlStr, args...)
	return err
}

func (r *TranscriptRepo) queryMany(ctx context.Context, sqlStr string, args []interface{}) ([]model.Transcript, error) {
	rows, err := r.db.QueryContext(ctx, sqlStr, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var results []model.Transcript
	for rows.Next() {
		var t model.Transcript
		if err := rows.Scan(&t.ID, &t.MeetingID, &t.Title, &t.MeetingDate, &t.Content,
			&t.EmbeddingModel, &t.ChunkCount, &t.EmbeddedAt, &t.Ctime, &t.Mtime); err != nil {
			return nil, err
		}
		results = append(results, t)
	}
	return results, rows.Err()
}

func scanTranscript(row *sql.Row) (*model.Transcript, error) {
	var t model.Transcript
	if err := row.Scan(&t.ID, &t.MeetingID, &t.Title, &t.MeetingDate, &t.Content,
		&t.EmbeddingModel, &t.ChunkCount, &t.EmbeddedAt, &t.Ctime, &t.Mtime); err != nil {
		return nil, err
	}
	return &t, nil
}
