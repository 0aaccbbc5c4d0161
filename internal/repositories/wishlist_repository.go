package repositories

import (
	"context"
	"database/sql"
	"fmt"

	intconfig "sessionbook/internal/config"
	intdb "sessionbook/internal/db"
)

type WishlistRepository struct {
	DB *sql.DB
}

func (r WishlistRepository) db() *sql.DB {
	if r.DB != nil {
		return r.DB
	}
	return intconfig.DB
}

// Delete removes the (student, session) entry; a missing entry is not an error.
func (r WishlistRepository) Delete(ctx context.Context, studentID, sessionID string) error {
	if _, err := r.db().ExecContext(ctx, `DELETE FROM wishlists WHERE student_id = ? AND session_id = ?`, studentID, sessionID); err != nil {
		return fmt.Errorf("delete wishlist: %w", err)
	}
	return nil
}

// Toggle adds the entry when absent and removes it when present. It reports whether
// the session is wishlisted afterwards.
func (r WishlistRepository) Toggle(ctx context.Context, studentID, sessionID string) (bool, error) {
	res, err := r.db().ExecContext(ctx, `DELETE FROM wishlists WHERE student_id = ? AND session_id = ?`, studentID, sessionID)
	if err != nil {
		return false, fmt.Errorf("toggle wishlist: %w", err)
	}
	if n, _ := res.RowsAffected(); n > 0 {
		return false, nil
	}
	if _, err := r.db().ExecContext(ctx, `INSERT INTO wishlists (student_id, session_id) VALUES (?, ?)`, studentID, sessionID); err != nil {
		// a concurrent toggle inserted first
		if intdb.IsDuplicateKey(err) {
			return true, nil
		}
		return false, fmt.Errorf("toggle wishlist: %w", err)
	}
	return true, nil
}

func (r WishlistRepository) SessionIDs(ctx context.Context, studentID string) ([]string, error) {
	rows, err := r.db().QueryContext(ctx, `SELECT session_id FROM wishlists WHERE student_id = ? ORDER BY created_at DESC`, studentID)
	if err != nil {
		return nil, fmt.Errorf("list wishlist: %w", err)
	}
	defer rows.Close()
	out := []string{}
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
