package quota

import "context"

type store interface {
	EnsureCurrent(ctx context.Context, userID string) (State, error)
	Commit(ctx context.Context, userID string) (State, error)
	SetPlan(ctx context.Context, userID string, plan Plan) (State, error)
}

// Service enforces per-plan monthly allowances. Admission and commit are
// split: CanAdmit runs before the expensive pipeline, Commit runs only
// after the result has been persisted.
type Service struct {
	store store
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return &Service{store: newMemoryStore()}
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return &Service{store: pgStore}
}

// CanAdmit reports whether the user has allowance left in the current
// window. It never consumes.
func (s *Service) CanAdmit(ctx context.Context, userID string) (bool, State, error) {
	st, err := s.store.EnsureCurrent(ctx, userID)
	if err != nil {
		return false, State{}, err
	}
	limit := st.Plan.Allowance()
	if limit == Unlimited {
		return true, st, nil
	}
	return st.MonthlyCount < limit, st, nil
}

// Commit records one completed analysis against the user's window.
func (s *Service) Commit(ctx context.Context, userID string) (State, error) {
	return s.store.Commit(ctx, userID)
}

// Snapshot returns the user's current state without consuming.
func (s *Service) Snapshot(ctx context.Context, userID string) (State, error) {
	return s.store.EnsureCurrent(ctx, userID)
}

// SetPlan moves the user to a different tier. Counters survive the change.
func (s *Service) SetPlan(ctx context.Context, userID string, plan Plan) (State, error) {
	return s.store.SetPlan(ctx, userID, plan)
}
