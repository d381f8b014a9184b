package analyses

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type pgRepo struct {
	DB *sql.DB
}

// NewPGRepo constructs a Postgres-backed repository.
func NewPGRepo(db *sql.DB) Repo {
	return &pgRepo{DB: db}
}

func (r *pgRepo) Create(ctx context.Context, rec Record) error {
	result, err := json.Marshal(rec.Result)
	if err != nil {
		return fmt.Errorf("marshal result: %w", err)
	}

	userID := sql.NullString{String: rec.UserID, Valid: rec.UserID != ""}
	_, err = r.DB.ExecContext(ctx, `
INSERT INTO analysis_records (id, user_id, file_name, extracted_text, result, created_at)
VALUES ($1, $2, $3, $4, $5, $6)`,
		rec.ID, userID, rec.FileName, rec.ExtractedText, result, rec.CreatedAt)
	return err
}

func (r *pgRepo) Get(ctx context.Context, id string) (Record, error) {
	var (
		rec    Record
		userID sql.NullString
		result []byte
	)
	row := r.DB.QueryRowContext(ctx, `
SELECT id, user_id, file_name, extracted_text, result, created_at
FROM analysis_records WHERE id = $1`, id)
	err := row.Scan(&rec.ID, &userID, &rec.FileName, &rec.ExtractedText, &result, &rec.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Record{}, ErrRecordNotFound
		}
		return Record{}, err
	}
	rec.UserID = userID.String
	if err := json.Unmarshal(result, &rec.Result); err != nil {
		return Record{}, fmt.Errorf("unmarshal result: %w", err)
	}
	return rec, nil
}

func (r *pgRepo) ListByUser(ctx context.Context, userID string, limit int) ([]Summary, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := r.DB.QueryContext(ctx, `
SELECT id, file_name, result, created_at
FROM analysis_records WHERE user_id = $1
ORDER BY created_at DESC LIMIT $2`, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]Summary, 0)
	for rows.Next() {
		var (
			s      Summary
			result []byte
		)
		if err := rows.Scan(&s.ID, &s.FileName, &result, &s.CreatedAt); err != nil {
			return nil, err
		}
		var res Result
		if err := json.Unmarshal(result, &res); err != nil {
			return nil, fmt.Errorf("unmarshal result: %w", err)
		}
		s.OverallScore = res.OverallScore
		s.ATSScore = res.ATSScore
		out = append(out, s)
	}
	return out, rows.Err()
}
