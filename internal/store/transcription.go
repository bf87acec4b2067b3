package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/voxnote/apiserver/types"
)

// TranscriptionRepository handles persistence for transcriptions.
type TranscriptionRepository struct {
	db *sql.DB
}

func NewTranscriptionRepository(db *sql.DB) *TranscriptionRepository {
	return &TranscriptionRepository{db: db}
}

// ListByOwner returns all transcriptions owned by the given username,
// most recent first.
func (r *TranscriptionRepository) ListByOwner(ctx context.Context, owner string) ([]types.Transcription, error) {
	const query = `
		SELECT id, filename, text, owner_username, created_at
		FROM transcriptions
		WHERE owner_username = $1
		ORDER BY created_at DESC`
	rows, err := r.db.QueryContext(ctx, query, owner)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	transcriptions := make([]types.Transcription, 0)
	for rows.Next() {
		var t types.Transcription
		if err := rows.Scan(
			&t.ID,
			&t.Filename,
			&t.Text,
			&t.OwnerUsername,
			&t.CreatedAt,
		); err != nil {
			return nil, err
		}
		transcriptions = append(transcriptions, t)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return transcriptions, nil
}

func (r *TranscriptionRepository) Create(ctx context.Context, t types.Transcription) (types.Transcription, error) {
	t.CreatedAt = time.Now().UTC()

	const query = `
		INSERT INTO transcriptions (filename, text, owner_username, created_at)
		VALUES ($1, $2, $3, $4)
		RETURNING id`
	if err := r.db.QueryRowContext(
		ctx,
		query,
		t.Filename,
		t.Text,
		t.OwnerUsername,
		t.CreatedAt,
	).Scan(&t.ID); err != nil {
		return types.Transcription{}, err
	}
	return t, nil
}

// Delete removes a transcription only when it is owned by the given
// username. A foreign-owned or unknown id reports ErrNotFound.
func (r *TranscriptionRepository) Delete(ctx context.Context, owner string, id int) error {
	const query = `DELETE FROM transcriptions WHERE id = $1 AND owner_username = $2`
	result, err := r.db.ExecContext(ctx, query, id, owner)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}
