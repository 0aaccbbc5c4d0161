package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	intconfig "sessionbook/internal/config"
	"sessionbook/internal/domain"
	"sessionbook/internal/domain/models"
)

// SessionRepository is the read side of the session catalogue owned by instructors.
type SessionRepository struct {
	DB *sql.DB
}

func (r SessionRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

func (r SessionRepository) GetByID(ctx context.Context, id string) (models.Session, error) {
	var s models.Session
	err := r.db().QueryRowContext(ctx, `
		SELECT id, instructor_id, title, duration_minutes, fee, is_archived
		FROM sessions
		WHERE id = ? LIMIT 1`, id).Scan(
		&s.ID,
		&s.InstructorID,
		&s.Title,
		&s.DurationMinutes,
		&s.Fee,
		&s.IsArchived,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Session{}, domain.NotFoundError{Resource: "session", Err: err}
	}
	if err != nil {
		return models.Session{}, fmt.Errorf("get session: %w", err)
	}
	return s, nil
}

// ListActiveByIDs returns non-archived sessions among ids.
func (r SessionRepository) ListActiveByIDs(ctx context.Context, ids []string) ([]models.Session, error) {
	if len(ids) == 0 {
		return []models.Session{}, nil
	}
	args := make([]any, 0, len(ids))
	marks := make([]byte, 0, len(ids)*2)
	for i, id := range ids {
		if i > 0 {
			marks = append(marks, ',')
		}
		marks = append(marks, '?')
		args = append(args, id)
	}
	rows, err := r.db().QueryContext(ctx, `
		SELECT id, instructor_id, title, duration_minutes, fee, is_archived
		FROM sessions
		WHERE is_archived = 0 AND id IN (`+string(marks)+`)
		ORDER BY title ASC`, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()
	out := []models.Session{}
	for rows.Next() {
		var s models.Session
		if err := rows.Scan(&s.ID, &s.InstructorID, &s.Title, &s.DurationMinutes, &s.Fee, &s.IsArchived); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}
