package experiments

import (
	"context"
	"math/rand"
	"time"

	"github.com/google/uuid"

	"cvpulse-backend/internal/shared/telemetry"
)

type store interface {
	CreateExperiment(ctx context.Context, exp Experiment) error
	GetExperiment(ctx context.Context, name string) (Experiment, error)
	ListExperiments(ctx context.Context) ([]Experiment, error)
	SetStatus(ctx context.Context, name, status string) (Experiment, error)
	GetAssignment(ctx context.Context, identity, experimentName string) (Assignment, bool, error)
	CreateAssignment(ctx context.Context, a Assignment) (Assignment, error)
	AppendMetric(ctx context.Context, identity, experimentName string, m Metric) error
}

// Service assigns identities to experiment variants and records
// observations against those assignments.
type Service struct {
	store store
	draw  func() float64
	now   func() time.Time
}

// NewService constructs a Service with an in-memory store.
func NewService() *Service {
	return newService(newMemoryStore())
}

// NewPostgresService constructs a Service backed by Postgres.
func NewPostgresService(pgStore store) *Service {
	return newService(pgStore)
}

func newService(s store) *Service {
	return &Service{
		store: s,
		draw:  rand.Float64,
		now:   time.Now,
	}
}

// Create registers a new experiment in draft state unless a status is given.
func (s *Service) Create(ctx context.Context, exp Experiment) (Experiment, error) {
	if exp.Status == "" {
		exp.Status = StatusDraft
	}
	if !validStatus(exp.Status) {
		return Experiment{}, ErrBadStatus
	}
	if err := exp.Validate(); err != nil {
		return Experiment{}, err
	}
	exp.ID = uuid.NewString()
	exp.CreatedAt = s.now().UTC()
	if err := s.store.CreateExperiment(ctx, exp); err != nil {
		return Experiment{}, err
	}
	return exp, nil
}

// List returns all known experiments.
func (s *Service) List(ctx context.Context) ([]Experiment, error) {
	return s.store.ListExperiments(ctx)
}

// SetStatus transitions an experiment between lifecycle states.
func (s *Service) SetStatus(ctx context.Context, name, status string) (Experiment, error) {
	if !validStatus(status) {
		return Experiment{}, ErrBadStatus
	}
	return s.store.SetStatus(ctx, name, status)
}

// Assign returns the identity's variant for the experiment, creating a
// sticky assignment on first sight. Anything that prevents a real
// assignment resolves to the control variant so the caller can proceed.
func (s *Service) Assign(ctx context.Context, experimentName, identity string) string {
	if a, ok, err := s.store.GetAssignment(ctx, identity, experimentName); err == nil && ok {
		return a.Variant
	} else if err != nil {
		telemetry.Warn("experiments.assignment_lookup_failed", map[string]any{
			"experiment": experimentName,
			"error":      err.Error(),
		})
		return ControlVariant
	}

	exp, err := s.store.GetExperiment(ctx, experimentName)
	if err != nil || exp.Status != StatusActive {
		return ControlVariant
	}

	a, err := s.store.CreateAssignment(ctx, Assignment{
		Identity:       identity,
		ExperimentName: experimentName,
		Variant:        exp.pick(s.draw() * 100),
		AssignedAt:     s.now().UTC(),
	})
	if err != nil {
		telemetry.Warn("experiments.assignment_create_failed", map[string]any{
			"experiment": experimentName,
			"error":      err.Error(),
		})
		return ControlVariant
	}
	return a.Variant
}

// RecordMetric attaches an observation to an existing assignment. Best
// effort: failures are logged, never returned, so the analysis pipeline
// cannot be disturbed by experiment bookkeeping.
func (s *Service) RecordMetric(ctx context.Context, experimentName, identity, metricName string, value float64) {
	err := s.store.AppendMetric(ctx, identity, experimentName, Metric{
		Name:       metricName,
		Value:      value,
		RecordedAt: s.now().UTC(),
	})
	if err != nil {
		telemetry.Warn("experiments.metric_dropped", map[string]any{
			"experiment": experimentName,
			"metric":     metricName,
			"error":      err.Error(),
		})
	}
}
