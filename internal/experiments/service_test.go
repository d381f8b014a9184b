package experiments

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"testing"
	"time"
)

func newTestService(draw func() float64) *Service {
	svc := newService(newMemoryStore())
	if draw != nil {
		svc.draw = draw
	}
	svc.now = func() time.Time { return time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC) }
	return svc
}

func activeExperiment(t *testing.T, svc *Service, variants ...Variant) Experiment {
	t.Helper()
	exp, err := svc.Create(context.Background(), Experiment{
		Name:     "analysis-prompt",
		Status:   StatusActive,
		Variants: variants,
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	return exp
}

func TestCreateValidatesAllocationSum(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Create(context.Background(), Experiment{
		Name:   "bad",
		Status: StatusActive,
		Variants: []Variant{
			{Name: "control", Allocation: 50},
			{Name: "alt", Allocation: 30},
		},
	})
	if err == nil {
		t.Fatal("Create accepted allocations summing to 80")
	}
}

func TestCreateAcceptsAllocationWithinTolerance(t *testing.T) {
	svc := newTestService(nil)
	_, err := svc.Create(context.Background(), Experiment{
		Name:   "ok",
		Status: StatusActive,
		Variants: []Variant{
			{Name: "control", Allocation: 33.33},
			{Name: "b", Allocation: 33.33},
			{Name: "c", Allocation: 33.34},
		},
	})
	if err != nil {
		t.Fatalf("Create rejected allocations within tolerance: %v", err)
	}
}

func TestAssignIsSticky(t *testing.T) {
	seq := []float64{0.10, 0.90, 0.90, 0.90}
	i := 0
	svc := newTestService(func() float64 {
		v := seq[i%len(seq)]
		i++
		return v
	})
	activeExperiment(t, svc,
		Variant{Name: "control", Allocation: 50},
		Variant{Name: "concise", Allocation: 50},
	)

	first := svc.Assign(context.Background(), "analysis-prompt", "user-1")
	if first != "control" {
		t.Fatalf("first Assign = %q, want control for draw 0.10", first)
	}
	for j := 0; j < 5; j++ {
		if got := svc.Assign(context.Background(), "analysis-prompt", "user-1"); got != first {
			t.Fatalf("Assign #%d = %q, want sticky %q", j+2, got, first)
		}
	}
}

func TestAssignUnknownExperimentReturnsControl(t *testing.T) {
	svc := newTestService(nil)
	if got := svc.Assign(context.Background(), "missing", "user-1"); got != ControlVariant {
		t.Fatalf("Assign = %q, want control", got)
	}
}

func TestAssignInactiveExperimentReturnsControl(t *testing.T) {
	svc := newTestService(nil)
	if _, err := svc.Create(context.Background(), Experiment{
		Name:   "drafted",
		Status: StatusDraft,
		Variants: []Variant{
			{Name: "control", Allocation: 100},
		},
	}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if got := svc.Assign(context.Background(), "drafted", "user-1"); got != ControlVariant {
		t.Fatalf("Assign = %q, want control for draft experiment", got)
	}
}

func TestAssignDistributionRoughlyMatchesAllocations(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	svc := newTestService(rng.Float64)
	activeExperiment(t, svc,
		Variant{Name: "control", Allocation: 30},
		Variant{Name: "detailed", Allocation: 70},
	)

	const n = 10000
	counts := map[string]int{}
	for i := 0; i < n; i++ {
		identity := fmt.Sprintf("user-%d", i)
		counts[svc.Assign(context.Background(), "analysis-prompt", identity)]++
	}

	controlShare := float64(counts["control"]) / n * 100
	if math.Abs(controlShare-30) > 3 {
		t.Fatalf("control share = %.1f%%, want ~30%%", controlShare)
	}
	if counts["control"]+counts["detailed"] != n {
		t.Fatalf("unexpected variant outside the experiment: %v", counts)
	}
}

func TestPickEdgeDraws(t *testing.T) {
	exp := Experiment{Variants: []Variant{
		{Name: "a", Allocation: 50},
		{Name: "b", Allocation: 50},
	}}
	if got := exp.pick(0); got != "a" {
		t.Fatalf("pick(0) = %q, want a", got)
	}
	if got := exp.pick(49.999); got != "a" {
		t.Fatalf("pick(49.999) = %q, want a", got)
	}
	if got := exp.pick(50); got != "b" {
		t.Fatalf("pick(50) = %q, want b", got)
	}
	// Float drift above the cumulative total lands on the last variant.
	if got := exp.pick(100.0000001); got != "b" {
		t.Fatalf("pick(>100) = %q, want b", got)
	}
}

func TestRecordMetricAppendsToAssignment(t *testing.T) {
	svc := newTestService(func() float64 { return 0.1 })
	activeExperiment(t, svc, Variant{Name: "control", Allocation: 100})

	svc.Assign(context.Background(), "analysis-prompt", "user-1")
	svc.RecordMetric(context.Background(), "analysis-prompt", "user-1", "overallScore", 82)

	mem := svc.store.(*memoryStore)
	a, ok, err := mem.GetAssignment(context.Background(), "user-1", "analysis-prompt")
	if err != nil || !ok {
		t.Fatalf("GetAssignment: ok=%v err=%v", ok, err)
	}
	if len(a.Metrics) != 1 || a.Metrics[0].Name != "overallScore" || a.Metrics[0].Value != 82 {
		t.Fatalf("metrics = %+v, want one overallScore=82", a.Metrics)
	}
}

func TestRecordMetricWithoutAssignmentIsSilent(t *testing.T) {
	svc := newTestService(nil)
	// Must not panic or error; the drop is logged only.
	svc.RecordMetric(context.Background(), "missing", "user-1", "overallScore", 50)
}
