package repositories

import (
	"context"
	"testing"

	"sessionbook/internal/domain"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestSessionRepository(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := SessionRepository{DB: db}
	cols := []string{"id", "instructor_id", "title", "duration_minutes", "fee", "is_archived"}

	mock.ExpectQuery(`FROM sessions\s+WHERE id = \?`).WithArgs("sess-1").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sess-1", "ins-1", "Yoga", 60, int64(1000), false))
	mock.ExpectQuery(`FROM sessions\s+WHERE id = \?`).WithArgs("nope").
		WillReturnRows(sqlmock.NewRows(cols))
	mock.ExpectQuery(`WHERE is_archived = 0 AND id IN \(\?,\?\)`).WithArgs("sess-1", "sess-2").
		WillReturnRows(sqlmock.NewRows(cols).AddRow("sess-1", "ins-1", "Yoga", 60, int64(1000), false))

	s, err := repo.GetByID(context.Background(), "sess-1")
	if err != nil || s.DurationMinutes != 60 || s.InstructorID != "ins-1" {
		t.Fatalf("GetByID = %+v, %v", s, err)
	}
	if _, err := repo.GetByID(context.Background(), "nope"); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
	list, err := repo.ListActiveByIDs(context.Background(), []string{"sess-1", "sess-2"})
	if err != nil || len(list) != 1 {
		t.Fatalf("ListActiveByIDs = %+v, %v", list, err)
	}
	if empty, err := repo.ListActiveByIDs(context.Background(), nil); err != nil || len(empty) != 0 {
		t.Fatalf("empty ids should not query: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
