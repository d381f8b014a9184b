package experiments

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"
)

// ControlVariant is what callers get when no experiment can decide for
// them: unknown experiment, inactive experiment, or a storage fault.
const ControlVariant = "control"

// Experiment lifecycle states. Only active experiments hand out
// non-control variants.
const (
	StatusDraft     = "draft"
	StatusActive    = "active"
	StatusCompleted = "completed"
)

// allocationTolerance absorbs float drift when validating that variant
// allocations cover the full traffic range.
const allocationTolerance = 0.1

// Variant is one arm of an experiment. Allocation is a percentage of
// traffic in [0, 100].
type Variant struct {
	Name       string  `json:"name"`
	Allocation float64 `json:"allocation"`
}

// Experiment is a named A/B test over prompt variants.
type Experiment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Status      string    `json:"status"`
	Variants    []Variant `json:"variants"`
	Metrics     []string  `json:"metrics"`
	CreatedAt   time.Time `json:"createdAt"`
}

// Assignment pins an identity to a variant. Once written it never
// changes, even if the experiment's allocations do.
type Assignment struct {
	Identity       string    `json:"identity"`
	ExperimentName string    `json:"experimentName"`
	Variant        string    `json:"variant"`
	Metrics        []Metric  `json:"metrics"`
	AssignedAt     time.Time `json:"assignedAt"`
}

// Metric is one observation recorded against an assignment.
type Metric struct {
	Name       string    `json:"name"`
	Value      float64   `json:"value"`
	RecordedAt time.Time `json:"recordedAt"`
}

var (
	ErrNotFound      = errors.New("experiment not found")
	ErrAlreadyExists = errors.New("experiment already exists")
	ErrBadStatus     = errors.New("invalid experiment status")
)

// Validate checks an experiment definition at creation time.
// Allocations must cover the full range so every draw lands somewhere.
func (e Experiment) Validate() error {
	if strings.TrimSpace(e.Name) == "" {
		return errors.New("experiment name is required")
	}
	if len(e.Variants) == 0 {
		return errors.New("experiment needs at least one variant")
	}
	seen := make(map[string]bool, len(e.Variants))
	sum := 0.0
	for _, v := range e.Variants {
		if strings.TrimSpace(v.Name) == "" {
			return errors.New("variant name is required")
		}
		if seen[v.Name] {
			return fmt.Errorf("duplicate variant %q", v.Name)
		}
		seen[v.Name] = true
		if v.Allocation < 0 {
			return fmt.Errorf("variant %q has negative allocation", v.Name)
		}
		sum += v.Allocation
	}
	if math.Abs(sum-100) > allocationTolerance {
		return fmt.Errorf("variant allocations sum to %.2f, want 100", sum)
	}
	return nil
}

// pick walks the cumulative allocations with a draw in [0, 100). Float
// drift at the top of the range falls through to the last variant.
func (e Experiment) pick(draw float64) string {
	cumulative := 0.0
	for _, v := range e.Variants {
		cumulative += v.Allocation
		if draw < cumulative {
			return v.Name
		}
	}
	return e.Variants[len(e.Variants)-1].Name
}

func validStatus(s string) bool {
	switch s {
	case StatusDraft, StatusActive, StatusCompleted:
		return true
	}
	return false
}
