package experiments

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
)

type pgStore struct {
	DB *sql.DB
}

// NewPGStore constructs a Postgres-backed experiment store.
func NewPGStore(db *sql.DB) *pgStore {
	return &pgStore{DB: db}
}

func (s *pgStore) CreateExperiment(ctx context.Context, exp Experiment) error {
	variants, err := json.Marshal(exp.Variants)
	if err != nil {
		return fmt.Errorf("marshal variants: %w", err)
	}
	metrics, err := json.Marshal(exp.Metrics)
	if err != nil {
		return fmt.Errorf("marshal metrics: %w", err)
	}

	res, err := s.DB.ExecContext(ctx, `
INSERT INTO experiments (id, name, description, status, variants, metrics, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)
ON CONFLICT (name) DO NOTHING`,
		exp.ID, exp.Name, exp.Description, exp.Status, variants, metrics, exp.CreatedAt)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrAlreadyExists
	}
	return nil
}

func (s *pgStore) GetExperiment(ctx context.Context, name string) (Experiment, error) {
	row := s.DB.QueryRowContext(ctx, `
SELECT id, name, description, status, variants, metrics, created_at FROM experiments WHERE name = $1`, name)
	return scanExperiment(row)
}

func (s *pgStore) ListExperiments(ctx context.Context) ([]Experiment, error) {
	rows, err := s.DB.QueryContext(ctx, `
SELECT id, name, description, status, variants, metrics, created_at FROM experiments ORDER BY created_at DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Experiment
	for rows.Next() {
		exp, err := scanExperiment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, exp)
	}
	return out, rows.Err()
}

func (s *pgStore) SetStatus(ctx context.Context, name, status string) (Experiment, error) {
	res, err := s.DB.ExecContext(ctx, `UPDATE experiments SET status = $1 WHERE name = $2`, status, name)
	if err != nil {
		return Experiment{}, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return Experiment{}, err
	}
	if rows == 0 {
		return Experiment{}, ErrNotFound
	}
	return s.GetExperiment(ctx, name)
}

func (s *pgStore) GetAssignment(ctx context.Context, identity, experimentName string) (Assignment, bool, error) {
	a, err := s.selectAssignment(ctx, identity, experimentName)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Assignment{}, false, nil
		}
		return Assignment{}, false, err
	}
	return a, true, nil
}

// CreateAssignment inserts the proposed assignment; on a concurrent
// insert the first writer wins and its row is returned.
func (s *pgStore) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	metrics, err := json.Marshal(a.Metrics)
	if err != nil {
		return Assignment{}, fmt.Errorf("marshal metrics: %w", err)
	}
	if _, err := s.DB.ExecContext(ctx, `
INSERT INTO experiment_assignments (identity, experiment_name, variant, metrics, assigned_at)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (identity, experiment_name) DO NOTHING`,
		a.Identity, a.ExperimentName, a.Variant, metrics, a.AssignedAt); err != nil {
		return Assignment{}, err
	}
	return s.selectAssignment(ctx, a.Identity, a.ExperimentName)
}

func (s *pgStore) AppendMetric(ctx context.Context, identity, experimentName string, m Metric) error {
	metric, err := json.Marshal(m)
	if err != nil {
		return fmt.Errorf("marshal metric: %w", err)
	}
	res, err := s.DB.ExecContext(ctx, `
UPDATE experiment_assignments SET metrics = metrics || $1::jsonb
WHERE identity = $2 AND experiment_name = $3`,
		metric, identity, experimentName)
	if err != nil {
		return err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *pgStore) selectAssignment(ctx context.Context, identity, experimentName string) (Assignment, error) {
	var (
		a       Assignment
		metrics []byte
	)
	row := s.DB.QueryRowContext(ctx, `
SELECT identity, experiment_name, variant, metrics, assigned_at
FROM experiment_assignments WHERE identity = $1 AND experiment_name = $2`,
		identity, experimentName)
	if err := row.Scan(&a.Identity, &a.ExperimentName, &a.Variant, &metrics, &a.AssignedAt); err != nil {
		return Assignment{}, err
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &a.Metrics); err != nil {
			return Assignment{}, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	return a, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanExperiment(row rowScanner) (Experiment, error) {
	var (
		exp      Experiment
		variants []byte
		metrics  []byte
	)
	err := row.Scan(&exp.ID, &exp.Name, &exp.Description, &exp.Status, &variants, &metrics, &exp.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return Experiment{}, ErrNotFound
		}
		return Experiment{}, err
	}
	if err := json.Unmarshal(variants, &exp.Variants); err != nil {
		return Experiment{}, fmt.Errorf("unmarshal variants: %w", err)
	}
	if len(metrics) > 0 {
		if err := json.Unmarshal(metrics, &exp.Metrics); err != nil {
			return Experiment{}, fmt.Errorf("unmarshal metrics: %w", err)
		}
	}
	return exp, nil
}
