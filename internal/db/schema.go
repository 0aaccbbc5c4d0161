package db

import (
	"context"
	"fmt"
)

// active_marker is 1 while a booking is booked and NULL afterwards, so the unique key
// only binds live bookings; terminal rows stay for audit.
var schema = []struct {
	table string
	ddl   string
}{
	{"sessions", `
CREATE TABLE IF NOT EXISTS sessions (
	id VARCHAR(64) NOT NULL PRIMARY KEY,
	instructor_id VARCHAR(64) NOT NULL,
	title VARCHAR(255) NOT NULL DEFAULT '',
	duration_minutes INT NOT NULL,
	fee BIGINT NOT NULL DEFAULT 0,
	is_archived TINYINT(1) NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	KEY idx_sessions_instructor (instructor_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"bookings", `
CREATE TABLE IF NOT EXISTS bookings (
	id CHAR(36) NOT NULL PRIMARY KEY,
	payment_intent_id VARCHAR(255) NOT NULL,
	student_id VARCHAR(64) NOT NULL,
	instructor_id VARCHAR(64) NOT NULL,
	session_id VARCHAR(64) NOT NULL,
	booked_date DATETIME NOT NULL,
	time_slot_start DATETIME NOT NULL,
	time_slot_end DATETIME NOT NULL,
	completed_at DATETIME NULL,
	concerns TEXT NULL,
	status VARCHAR(16) NOT NULL DEFAULT 'booked',
	active_marker TINYINT AS (IF(status = 'booked', 1, NULL)) STORED,
	amount_paid BIGINT NOT NULL,
	currency VARCHAR(8) NOT NULL,
	refund_id VARCHAR(255) NULL,
	refund_status VARCHAR(16) NULL,
	refunded_amount BIGINT NULL,
	is_refunded TINYINT(1) NOT NULL DEFAULT 0,
	meeting_id VARCHAR(255) NOT NULL,
	cancelled_by VARCHAR(16) NULL,
	cancelled_at DATETIME NULL,
	cancel_reason VARCHAR(500) NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP ON UPDATE CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_bookings_payment (payment_intent_id),
	UNIQUE KEY uniq_bookings_student_slot (student_id, session_id, time_slot_start, active_marker),
	KEY idx_bookings_instructor (instructor_id, status, time_slot_start),
	KEY idx_bookings_student (student_id, status, time_slot_start),
	KEY idx_bookings_slot (session_id, time_slot_start, status),
	KEY idx_bookings_sweep (status, time_slot_end),
	KEY idx_bookings_refund (refund_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
	{"wishlists", `
CREATE TABLE IF NOT EXISTS wishlists (
	id BIGINT AUTO_INCREMENT PRIMARY KEY,
	student_id VARCHAR(64) NOT NULL,
	session_id VARCHAR(64) NOT NULL,
	created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
	UNIQUE KEY uniq_wishlist (student_id, session_id),
	KEY idx_wishlist_student (student_id)
) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4 COLLATE=utf8mb4_unicode_ci`},
}

// EnsureSchema creates missing tables. Existing tables are left untouched.
func EnsureSchema(ctx context.Context, q Querier) error {
	for _, s := range schema {
		if HasTable(ctx, q, s.table) {
			continue
		}
		if _, err := q.ExecContext(ctx, s.ddl); err != nil {
			return fmt.Errorf("create table %s: %w", s.table, err)
		}
	}
	return nil
}
