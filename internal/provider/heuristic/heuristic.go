package heuristic

import (
	"context"
	"encoding/json"
	"regexp"
	"strings"

	"cvpulse-backend/internal/analyses"
	"cvpulse-backend/internal/extract"
	"cvpulse-backend/internal/provider"
)

// Analyzer scores resumes locally without any remote calls. It is the
// terminal fallback of the provider chain and never fails.
type Analyzer struct{}

func New() *Analyzer {
	return &Analyzer{}
}

var (
	emailPattern = regexp.MustCompile(`[a-zA-Z0-9._%+-]+@[a-zA-Z0-9.-]+\.[a-zA-Z]{2,}`)
	phonePattern = regexp.MustCompile(`(\+?\d[\d\s().-]{7,}\d)`)
	yearPattern  = regexp.MustCompile(`\b(19|20)\d{2}\b`)
)

var techKeywords = []string{
	"go", "golang", "python", "java", "javascript", "typescript", "react",
	"node", "sql", "postgresql", "mysql", "mongodb", "redis", "docker",
	"kubernetes", "aws", "gcp", "azure", "terraform", "git", "linux",
	"rest", "grpc", "graphql", "kafka", "ci/cd", "agile", "scrum",
}

var educationMarkers = []string{
	"university", "college", "bachelor", "master", "phd", "degree", "b.s", "m.s", "bsc", "msc",
}

func (a *Analyzer) Analyze(ctx context.Context, in provider.Input, variant provider.PromptVariant) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return json.Marshal(a.Score(in))
}

// Score derives a full result from word counts and simple text signals.
func (a *Analyzer) Score(in provider.Input) analyses.Result {
	text := in.Text
	lower := strings.ToLower(text)
	wordCount := extract.WordCount(text)

	hasEmail := emailPattern.MatchString(text)
	hasPhone := phonePattern.MatchString(text)
	hasYears := yearPattern.MatchString(text)

	overall := capInt(60+wordCount/20, 95)
	ats := capInt(55+wordCount/25, 90)

	contactScore := 60
	if hasEmail && hasPhone {
		contactScore = 95
	}

	experienceScore := 65
	if hasYears && wordCount >= 150 {
		experienceScore = 85
	}

	educationScore := 60
	for _, marker := range educationMarkers {
		if strings.Contains(lower, marker) {
			educationScore = 85
			break
		}
	}

	found := make([]string, 0, 8)
	for _, kw := range techKeywords {
		if strings.Contains(lower, kw) {
			found = append(found, kw)
		}
	}
	skillsScore := capInt(50+len(found)*5, 95)

	missing := missingFromJobDescription(lower, in.JobDescription)

	strengths := []string{}
	improvements := []string{}
	if hasEmail && hasPhone {
		strengths = append(strengths, "Contact information is complete and easy to find")
	} else {
		improvements = append(improvements, "Add a professional email address and phone number")
	}
	if wordCount >= 300 {
		strengths = append(strengths, "Resume has substantial content for recruiters to evaluate")
	} else {
		improvements = append(improvements, "Expand your experience descriptions with measurable outcomes")
	}
	if len(found) >= 5 {
		strengths = append(strengths, "Strong technical keyword coverage for automated screening")
	} else {
		improvements = append(improvements, "Include more role-relevant technical keywords")
	}
	if !hasYears {
		improvements = append(improvements, "Add dates to your work history so the timeline is clear")
	}

	industry := "General"
	if in.TargetRole != "" {
		industry = in.TargetRole
	}

	recommendations := []string{
		"Tailor the resume to each job description before applying",
		"Use bullet points that start with strong action verbs",
		"Quantify achievements with numbers where possible",
	}

	return analyses.Result{
		OverallScore:    overall,
		ATSScore:        ats,
		Sections: map[string]analyses.SectionFeedback{
			"contact":    {Score: contactScore, Feedback: contactFeedback(hasEmail, hasPhone)},
			"experience": {Score: experienceScore, Feedback: "Experience entries are evaluated on length and dated history."},
			"education":  {Score: educationScore, Feedback: "Education is scored on the presence of institutions and credentials."},
			"skills":     {Score: skillsScore, Feedback: "Skills are scored on recognized technical keyword coverage."},
		},
		Strengths:       strengths,
		Improvements:    improvements,
		Keywords:        found,
		MissingKeywords: missing,
		IndustryMatch:   industry,
		Recommendations: recommendations,
	}
}

func contactFeedback(hasEmail, hasPhone bool) string {
	switch {
	case hasEmail && hasPhone:
		return "Email and phone number are both present."
	case hasEmail:
		return "Email found, but no phone number was detected."
	case hasPhone:
		return "Phone number found, but no email address was detected."
	default:
		return "No contact details were detected."
	}
}

// missingFromJobDescription reports known tech keywords the job
// description asks for that the resume lacks.
func missingFromJobDescription(resumeLower, jobDescription string) []string {
	missing := []string{}
	if jobDescription == "" {
		return missing
	}
	jdLower := strings.ToLower(jobDescription)
	for _, kw := range techKeywords {
		if strings.Contains(jdLower, kw) && !strings.Contains(resumeLower, kw) {
			missing = append(missing, kw)
		}
	}
	return missing
}

func capInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}
