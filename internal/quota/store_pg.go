package quota

import (
	"context"
	"database/sql"
	"errors"
	"time"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed quota store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) EnsureCurrent(ctx context.Context, userID string) (State, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return State{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()
	st, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return State{}, err
	}
	if err = tx.Commit(); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *pgStore) Commit(ctx context.Context, userID string) (State, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return State{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	st, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return State{}, err
	}
	st.MonthlyCount++
	st.TotalCount++
	if _, err = tx.ExecContext(ctx, `
UPDATE quota_states SET monthly_count = $1, total_count = $2, updated_at = now() WHERE user_id = $3`,
		st.MonthlyCount, st.TotalCount, userID); err != nil {
		return State{}, err
	}
	if err = tx.Commit(); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *pgStore) SetPlan(ctx context.Context, userID string, plan Plan) (State, error) {
	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return State{}, err
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	st, err := s.lockAndEnsure(ctx, tx, userID)
	if err != nil {
		return State{}, err
	}
	st.Plan = plan
	if _, err = tx.ExecContext(ctx, `
UPDATE quota_states SET plan = $1, updated_at = now() WHERE user_id = $2`, string(plan), userID); err != nil {
		return State{}, err
	}
	if err = tx.Commit(); err != nil {
		return State{}, err
	}
	return st, nil
}

func (s *pgStore) lockAndEnsure(ctx context.Context, tx *sql.Tx, userID string) (State, error) {
	var (
		st      State
		planRaw string
	)
	st.UserID = userID
	row := tx.QueryRowContext(ctx, `
SELECT plan, monthly_count, total_count, window_start FROM quota_states WHERE user_id = $1 FOR UPDATE`, userID)
	err := row.Scan(&planRaw, &st.MonthlyCount, &st.TotalCount, &st.WindowStart)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			st = defaultState(userID, time.Now().UTC())
			if _, err = tx.ExecContext(ctx, `
INSERT INTO quota_states (user_id, plan, monthly_count, total_count, window_start) VALUES ($1, $2, $3, $4, $5)`,
				userID, string(st.Plan), st.MonthlyCount, st.TotalCount, st.WindowStart); err != nil {
				return State{}, err
			}
			return st, nil
		}
		return State{}, err
	}
	st.Plan = ParsePlan(planRaw)

	now := time.Now().UTC()
	if st.expired(now) {
		st.MonthlyCount = 0
		st.WindowStart = now
		if _, err = tx.ExecContext(ctx, `
UPDATE quota_states SET monthly_count = 0, window_start = $1, updated_at = now() WHERE user_id = $2`,
			st.WindowStart, userID); err != nil {
			return State{}, err
		}
	}
	return st, nil
}
