package repositories

import (
	"context"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"
)

func TestWishlistToggle(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := WishlistRepository{DB: db}

	// absent -> inserted
	mock.ExpectExec(`DELETE FROM wishlists`).WithArgs("stu-1", "sess-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO wishlists`).WithArgs("stu-1", "sess-1").WillReturnResult(sqlmock.NewResult(1, 1))
	// present -> removed
	mock.ExpectExec(`DELETE FROM wishlists`).WithArgs("stu-1", "sess-1").WillReturnResult(sqlmock.NewResult(0, 1))
	// concurrent insert wins
	mock.ExpectExec(`DELETE FROM wishlists`).WithArgs("stu-1", "sess-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(`INSERT INTO wishlists`).WithArgs("stu-1", "sess-1").WillReturnError(&mysql.MySQLError{Number: 1062})

	for i, want := range []bool{true, false, true} {
		on, err := repo.Toggle(context.Background(), "stu-1", "sess-1")
		if err != nil || on != want {
			t.Fatalf("toggle #%d = %v, %v; want %v", i, on, err, want)
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestWishlistDeleteAndList(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock init error: %v", err)
	}
	defer db.Close()
	repo := WishlistRepository{DB: db}

	mock.ExpectExec(`DELETE FROM wishlists WHERE student_id = \? AND session_id = \?`).
		WithArgs("stu-1", "sess-1").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectQuery(`SELECT session_id FROM wishlists`).WithArgs("stu-1").
		WillReturnRows(sqlmock.NewRows([]string{"session_id"}).AddRow("sess-2").AddRow("sess-3"))

	if err := repo.Delete(context.Background(), "stu-1", "sess-1"); err != nil {
		t.Fatalf("Delete error: %v", err)
	}
	ids, err := repo.SessionIDs(context.Background(), "stu-1")
	if err != nil || len(ids) != 2 || ids[0] != "sess-2" {
		t.Fatalf("SessionIDs = %v, %v", ids, err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}
