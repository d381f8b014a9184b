package learningpath

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
)

type fakeBackend struct {
	reply string
	err   error
}

func (b fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.reply, b.err
}

func TestFallbackDetectsSkillGap(t *testing.T) {
	resume := "Engineer with JavaScript and CSS experience building web frontends."
	plan := Fallback(resume, "Frontend Developer")

	got := map[string]bool{}
	for _, s := range plan.SkillGapAnalysis.MissingSkills {
		got[s] = true
	}
	// frontend needs javascript, react, css, typescript; resume has
	// javascript and css.
	if !got["react"] || !got["typescript"] {
		t.Fatalf("MissingSkills = %v, want react and typescript", plan.SkillGapAnalysis.MissingSkills)
	}
	if got["javascript"] || got["css"] {
		t.Fatalf("MissingSkills = %v, should not include skills already present", plan.SkillGapAnalysis.MissingSkills)
	}
	if plan.SkillGapAnalysis.TargetRole != "Frontend Developer" {
		t.Fatalf("TargetRole = %q", plan.SkillGapAnalysis.TargetRole)
	}
}

func TestFallbackRecommendsCatalogCourses(t *testing.T) {
	plan := Fallback("I write Go services.", "Machine Learning Engineer")

	if len(plan.RecommendedCourses) == 0 {
		t.Fatal("no recommended courses")
	}
	found := false
	for _, c := range plan.RecommendedCourses {
		if c.Title == "Machine Learning Specialization" {
			found = true
		}
	}
	if !found {
		t.Fatalf("courses = %+v, want the machine-learning catalog entry", plan.RecommendedCourses)
	}
}

func TestFallbackShape(t *testing.T) {
	plan := Fallback("resume", "Backend Engineer")

	if len(plan.LearningPath) != 3 {
		t.Fatalf("LearningPath has %d phases, want 3", len(plan.LearningPath))
	}
	if plan.Timeline != "12 weeks" {
		t.Fatalf("Timeline = %q, want 12 weeks", plan.Timeline)
	}
	if len(plan.PracticeProjects) == 0 || len(plan.SuccessMetrics) == 0 {
		t.Fatal("practice projects and success metrics must be populated")
	}
}

func TestFallbackUnknownRoleUsesDefaults(t *testing.T) {
	plan := Fallback("resume", "Circus Performer")
	if len(plan.SkillGapAnalysis.MissingSkills) == 0 {
		t.Fatal("unknown role should still produce a default skill gap")
	}
	if len(plan.RecommendedCourses) == 0 {
		t.Fatal("unknown role should still recommend at least one course")
	}
}

func TestGenerateUsesRemoteWhenValid(t *testing.T) {
	svc := NewService(fakeBackend{reply: "```json\n{\"timeline\": \"8 weeks\"}\n```"})
	raw := svc.Generate(context.Background(), "resume", "Backend Engineer")

	var out struct {
		Timeline string `json:"timeline"`
	}
	if err := json.Unmarshal(raw, &out); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if out.Timeline != "8 weeks" {
		t.Fatalf("timeline = %q, want remote 8 weeks", out.Timeline)
	}
}

func TestGenerateFallsBackOnRemoteError(t *testing.T) {
	svc := NewService(fakeBackend{err: errors.New("deadline exceeded")})
	raw := svc.Generate(context.Background(), "resume", "Backend Engineer")

	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if plan.Timeline != "12 weeks" {
		t.Fatalf("Timeline = %q, want fallback plan", plan.Timeline)
	}
}
