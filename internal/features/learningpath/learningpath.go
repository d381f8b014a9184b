package learningpath

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cvpulse-backend/internal/provider"
)

// Course is one recommendation in a generated path.
type Course struct {
	Title    string `json:"title"`
	Provider string `json:"provider"`
	Duration string `json:"duration"`
	Level    string `json:"level"`
}

// Phase groups the path into ordered stages.
type Phase struct {
	Name   string   `json:"name"`
	Focus  string   `json:"focus"`
	Skills []string `json:"skills"`
}

// Plan is the full learning path payload.
type Plan struct {
	SkillGapAnalysis   SkillGap `json:"skillGapAnalysis"`
	LearningPath       []Phase  `json:"learningPath"`
	RecommendedCourses []Course `json:"recommendedCourses"`
	PracticeProjects   []string `json:"practiceProjects"`
	Timeline           string   `json:"timeline"`
	SuccessMetrics     []string `json:"successMetrics"`
}

// SkillGap contrasts what the resume shows against what the role needs.
type SkillGap struct {
	CurrentSkills []string `json:"currentSkills"`
	MissingSkills []string `json:"missingSkills"`
	TargetRole    string   `json:"targetRole"`
}

// courseDatabase backs the offline path when no model is reachable.
var courseDatabase = map[string]Course{
	"javascript": {
		Title:    "JavaScript: The Complete Guide",
		Provider: "Udemy",
		Duration: "52 hours",
		Level:    "Beginner to Advanced",
	},
	"react": {
		Title:    "React - The Complete Guide",
		Provider: "Udemy",
		Duration: "48 hours",
		Level:    "Intermediate",
	},
	"python": {
		Title:    "Python for Everybody",
		Provider: "Coursera",
		Duration: "8 months",
		Level:    "Beginner",
	},
	"machine-learning": {
		Title:    "Machine Learning Specialization",
		Provider: "Coursera",
		Duration: "3 months",
		Level:    "Intermediate",
	},
	"data-structures": {
		Title:    "Data Structures and Algorithms",
		Provider: "Coursera",
		Duration: "6 months",
		Level:    "Intermediate",
	},
}

// roleSkills is the baseline skill set expected per normalized target
// role keyword.
var roleSkills = map[string][]string{
	"frontend":  {"javascript", "react", "css", "typescript"},
	"backend":   {"python", "sql", "docker", "api design"},
	"fullstack": {"javascript", "react", "python", "sql"},
	"data":      {"python", "sql", "machine-learning", "statistics"},
	"machine":   {"python", "machine-learning", "data-structures", "mathematics"},
}

var defaultSkills = []string{"data-structures", "system design", "communication"}

var detectableSkills = []string{
	"javascript", "typescript", "react", "angular", "vue", "node",
	"python", "java", "go", "sql", "docker", "kubernetes", "aws",
	"machine-learning", "data-structures", "css", "git",
}

// Service builds personalized learning paths through the shared
// failover chain, preferring the remote model and degrading to the
// static catalog.
type Service struct {
	chain provider.Provider
}

func NewService(backend provider.Backend) *Service {
	fallback := provider.Func(func(ctx context.Context, in provider.Input, _ provider.PromptVariant) (json.RawMessage, error) {
		return json.Marshal(Fallback(in.Text, in.TargetRole))
	})
	if backend == nil {
		return &Service{chain: fallback}
	}

	remote := &provider.Remote{
		Backend: backend,
		Prompt: func(in provider.Input, _ provider.PromptVariant) string {
			return buildPrompt(in.Text, in.TargetRole)
		},
	}
	return &Service{chain: &provider.Failover{Remote: remote, Fallback: fallback, Attempts: 1}}
}

// Generate returns the learning path as raw JSON so a well-formed remote
// reply passes through untouched.
func (s *Service) Generate(ctx context.Context, resumeText, targetRole string) json.RawMessage {
	in := provider.Input{Text: resumeText, TargetRole: targetRole}
	raw, err := s.chain.Analyze(ctx, in, "")
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// Fallback assembles a path from the static catalog based on a keyword
// scan of the resume.
func Fallback(resumeText, targetRole string) Plan {
	current := scanSkills(resumeText)
	needed := skillsForRole(targetRole)

	currentSet := make(map[string]bool, len(current))
	for _, skill := range current {
		currentSet[skill] = true
	}
	var missing []string
	for _, skill := range needed {
		if !currentSet[skill] {
			missing = append(missing, skill)
		}
	}
	if missing == nil {
		missing = []string{}
	}

	var courses []Course
	for _, skill := range missing {
		if course, ok := courseDatabase[skill]; ok {
			courses = append(courses, course)
		}
	}
	if len(courses) == 0 {
		courses = append(courses, courseDatabase["data-structures"])
	}

	firstHalf, secondHalf := splitSkills(missing)

	return Plan{
		SkillGapAnalysis: SkillGap{
			CurrentSkills: current,
			MissingSkills: missing,
			TargetRole:    targetRole,
		},
		LearningPath: []Phase{
			{
				Name:   "Phase 1: Foundations",
				Focus:  "Close the most fundamental gaps first",
				Skills: firstHalf,
			},
			{
				Name:   "Phase 2: Applied practice",
				Focus:  "Build small projects with the new skills",
				Skills: secondHalf,
			},
			{
				Name:   "Phase 3: Interview readiness",
				Focus:  "Portfolio polish and mock interviews",
				Skills: []string{"system design", "behavioral interviews"},
			},
		},
		RecommendedCourses: courses,
		PracticeProjects: []string{
			"Build a portfolio website showcasing your work",
			"Contribute to an open source project in your target stack",
			"Recreate a feature from a product you admire, end to end",
		},
		Timeline: "12 weeks",
		SuccessMetrics: []string{
			"Complete at least two recommended courses",
			"Ship three practice projects to a public repository",
			"Pass a mock interview for the target role",
		},
	}
}

func scanSkills(resumeText string) []string {
	lower := strings.ToLower(resumeText)
	var found []string
	for _, skill := range detectableSkills {
		if strings.Contains(lower, strings.ReplaceAll(skill, "-", " ")) ||
			strings.Contains(lower, skill) {
			found = append(found, skill)
		}
	}
	if found == nil {
		found = []string{}
	}
	return found
}

func skillsForRole(targetRole string) []string {
	lower := strings.ToLower(targetRole)
	for keyword, skills := range roleSkills {
		if strings.Contains(lower, keyword) {
			return skills
		}
	}
	return defaultSkills
}

func splitSkills(skills []string) (first, second []string) {
	mid := (len(skills) + 1) / 2
	first = append([]string{}, skills[:mid]...)
	second = append([]string{}, skills[mid:]...)
	return first, second
}

func buildPrompt(resumeText, targetRole string) string {
	return fmt.Sprintf(`You are a career development expert. Create a personalized learning path for someone targeting a %s role.

Resume:
%s

Respond with a single JSON object only. Shape:
{
  "skillGapAnalysis": {"currentSkills": [], "missingSkills": [], "targetRole": "..."},
  "learningPath": [{"name": "...", "focus": "...", "skills": []}],
  "recommendedCourses": [{"title": "...", "provider": "...", "duration": "...", "level": "..."}],
  "practiceProjects": [],
  "timeline": "...",
  "successMetrics": []
}`, targetRole, resumeText)
}
