package quota

import (
	"context"
	"sync"
	"time"
)

type memoryStore struct {
	mu   sync.Mutex
	data map[string]State
	now  func() time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		data: make(map[string]State),
		now:  time.Now,
	}
}

func (s *memoryStore) EnsureCurrent(ctx context.Context, userID string) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.ensureLocked(userID)
	s.data[userID] = st
	return st, nil
}

func (s *memoryStore) Commit(ctx context.Context, userID string) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.ensureLocked(userID)
	st.MonthlyCount++
	st.TotalCount++
	s.data[userID] = st
	return st, nil
}

func (s *memoryStore) SetPlan(ctx context.Context, userID string, plan Plan) (State, error) {
	if err := ctx.Err(); err != nil {
		return State{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	st := s.ensureLocked(userID)
	st.Plan = plan
	s.data[userID] = st
	return st, nil
}

// ensureLocked creates missing state and rolls an expired window. Callers
// hold the mutex.
func (s *memoryStore) ensureLocked(userID string) State {
	now := s.now().UTC()
	st, ok := s.data[userID]
	if !ok {
		return defaultState(userID, now)
	}
	if st.expired(now) {
		st.MonthlyCount = 0
		st.WindowStart = now
	}
	return st
}
