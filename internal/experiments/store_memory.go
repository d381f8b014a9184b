package experiments

import (
	"context"
	"sync"
)

type memoryStore struct {
	mu          sync.Mutex
	experiments map[string]Experiment
	assignments map[string]Assignment
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		experiments: make(map[string]Experiment),
		assignments: make(map[string]Assignment),
	}
}

func assignmentKey(identity, experimentName string) string {
	return identity + "|" + experimentName
}

func (s *memoryStore) CreateExperiment(ctx context.Context, exp Experiment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.experiments[exp.Name]; ok {
		return ErrAlreadyExists
	}
	s.experiments[exp.Name] = exp
	return nil
}

func (s *memoryStore) GetExperiment(ctx context.Context, name string) (Experiment, error) {
	if err := ctx.Err(); err != nil {
		return Experiment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.experiments[name]
	if !ok {
		return Experiment{}, ErrNotFound
	}
	return exp, nil
}

func (s *memoryStore) ListExperiments(ctx context.Context) ([]Experiment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Experiment, 0, len(s.experiments))
	for _, exp := range s.experiments {
		out = append(out, exp)
	}
	return out, nil
}

func (s *memoryStore) SetStatus(ctx context.Context, name, status string) (Experiment, error) {
	if err := ctx.Err(); err != nil {
		return Experiment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	exp, ok := s.experiments[name]
	if !ok {
		return Experiment{}, ErrNotFound
	}
	exp.Status = status
	s.experiments[name] = exp
	return exp, nil
}

func (s *memoryStore) GetAssignment(ctx context.Context, identity, experimentName string) (Assignment, bool, error) {
	if err := ctx.Err(); err != nil {
		return Assignment{}, false, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	a, ok := s.assignments[assignmentKey(identity, experimentName)]
	return a, ok, nil
}

// CreateAssignment stores the assignment unless one already exists, in
// which case the existing one wins. This is the sticky guarantee.
func (s *memoryStore) CreateAssignment(ctx context.Context, a Assignment) (Assignment, error) {
	if err := ctx.Err(); err != nil {
		return Assignment{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey(a.Identity, a.ExperimentName)
	if existing, ok := s.assignments[key]; ok {
		return existing, nil
	}
	s.assignments[key] = a
	return a, nil
}

func (s *memoryStore) AppendMetric(ctx context.Context, identity, experimentName string, m Metric) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	key := assignmentKey(identity, experimentName)
	a, ok := s.assignments[key]
	if !ok {
		return ErrNotFound
	}
	a.Metrics = append(a.Metrics, m)
	s.assignments[key] = a
	return nil
}
