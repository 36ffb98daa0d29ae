package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"mock-interviewer/internal/domain"
)

// TranscriptRepository archiva la transcripción completa de una entrevista.
type TranscriptRepository interface {
	Save(ctx context.Context, rec domain.InterviewRecord) error
}

type execer interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
}

type PgTranscriptRepository struct {
	db execer
}

func NewPgTranscriptRepository(pool *pgxpool.Pool) *PgTranscriptRepository {
	return &PgTranscriptRepository{db: pool}
}

func (r *PgTranscriptRepository) Save(ctx context.Context, rec domain.InterviewRecord) error {
	const query = `
		INSERT INTO transcripts (session_id, stage, payload, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (session_id) DO UPDATE
		SET stage = EXCLUDED.stage, payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
	`
	payload, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal transcript: %w", err)
	}
	_, err = r.db.Exec(ctx, query,
		rec.ID,
		int(rec.Stage),
		payload,
		rec.CreatedAt,
		time.Now().UTC(),
	)
	return err
}
