package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/aiworkforce/dashboard-server-go/internal/model"
)

// TranscriptRepository stores one chat transcript per user and agent.
type TranscriptRepository interface {
	Find(ctx context.Context, userEmail, agentID string) (*model.Transcript, error)
	Upsert(ctx context.Context, params model.UpsertTranscriptParams) (*model.Transcript, error)
	Delete(ctx context.Context, userEmail, agentID string) error
}

type transcriptRepo struct {
	db *sqlx.DB
}

func NewTranscriptRepository(db *sqlx.DB) TranscriptRepository {
	return &transcriptRepo{db: db}
}

func (r *transcriptRepo) Find(ctx context.Context, userEmail, agentID string) (*model.Transcript, error) {
	var transcript model.Transcript
	err := r.db.GetContext(ctx, &transcript, `
		SELECT * FROM chat_transcripts
		WHERE user_email = $1 AND agent_id = $2
	`, userEmail, agentID)
	return HandleNotFound(&transcript, err)
}

func (r *transcriptRepo) Upsert(ctx context.Context, params model.UpsertTranscriptParams) (*model.Transcript, error) {
	var transcript model.Transcript
	err := r.db.GetContext(ctx, &transcript, `
		INSERT INTO chat_transcripts (user_email, agent_id, messages)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_email, agent_id)
		DO UPDATE SET messages = EXCLUDED.messages, updated_at = NOW()
		RETURNING *
	`, params.UserEmail, params.AgentID, []byte(params.Messages))
	if err != nil {
		return nil, err
	}
	return &transcript, nil
}

func (r *transcriptRepo) Delete(ctx context.Context, userEmail, agentID string) error {
	_, err := r.db.ExecContext(ctx, `
		DELETE FROM chat_transcripts WHERE user_email = $1 AND agent_id = $2
	`, userEmail, agentID)
	return err
}
