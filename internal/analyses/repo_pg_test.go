package analyses

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func TestPGCreateInsertsRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	rec := Record{
		ID:            "rec-1",
		UserID:        "u1",
		FileName:      "resume.pdf",
		ExtractedText: "text",
		Result:        Result{OverallScore: 80, ATSScore: 70},
		CreatedAt:     time.Now().UTC(),
	}

	mock.ExpectExec(`INSERT INTO analysis_records`).
		WithArgs(rec.ID, sqlmock.AnyArg(), rec.FileName, rec.ExtractedText, sqlmock.AnyArg(), rec.CreatedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPGRepo(db)
	if err := repo.Create(context.Background(), rec); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestPGGetReturnsNotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`SELECT id, user_id, file_name, extracted_text, result, created_at`).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "file_name", "extracted_text", "result", "created_at"}))

	repo := NewPGRepo(db)
	if _, err := repo.Get(context.Background(), "missing"); !errors.Is(err, ErrRecordNotFound) {
		t.Fatalf("Get = %v, want ErrRecordNotFound", err)
	}
}

func TestPGListByUserScansSummaries(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()

	result, _ := json.Marshal(Result{OverallScore: 88, ATSScore: 79})
	created := time.Now().UTC()

	mock.ExpectQuery(`SELECT id, file_name, result, created_at`).
		WithArgs("u1", 50).
		WillReturnRows(sqlmock.NewRows([]string{"id", "file_name", "result", "created_at"}).
			AddRow("rec-1", "resume.pdf", result, created))

	repo := NewPGRepo(db)
	summaries, err := repo.ListByUser(context.Background(), "u1", 0)
	if err != nil {
		t.Fatalf("ListByUser: %v", err)
	}
	if len(summaries) != 1 {
		t.Fatalf("len = %d, want 1", len(summaries))
	}
	if summaries[0].OverallScore != 88 || summaries[0].ATSScore != 79 {
		t.Fatalf("summary = %+v, want scores from result JSON", summaries[0])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}
