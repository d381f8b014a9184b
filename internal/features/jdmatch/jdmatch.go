package jdmatch

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"cvpulse-backend/internal/provider"
)

// Match is the job-description comparison payload.
type Match struct {
	MatchScore          int         `json:"matchScore"`
	KeywordMatch        int         `json:"keywordMatch"`
	SkillsAlignment     int         `json:"skillsAlignment"`
	ExperienceRelevance int         `json:"experienceRelevance"`
	Suggestions         Suggestions `json:"suggestions"`
	MissingRequirements []string    `json:"missingRequirements"`
	StrongMatches       []string    `json:"strongMatches"`
	RecommendedChanges  []string    `json:"recommendedChanges"`
}

type Suggestions struct {
	AddKeywords     []string `json:"addKeywords"`
	EmphasizeSkills []string `json:"emphasizeSkills"`
	ImproveSections []string `json:"improveSections"`
	ATSOptimization []string `json:"atsOptimization"`
}

var matchKeywords = []string{"javascript", "react", "node", "python", "java", "sql", "go", "docker", "kubernetes", "aws"}

// Service compares resumes against job descriptions. It reuses the
// analysis failover chain with its own prompt and fallback: a nil
// backend or any remote failure degrades to local keyword matching.
type Service struct {
	chain provider.Provider
}

func NewService(backend provider.Backend) *Service {
	fallback := provider.Func(func(ctx context.Context, in provider.Input, _ provider.PromptVariant) (json.RawMessage, error) {
		return json.Marshal(Fallback(in.Text, in.JobDescription))
	})
	if backend == nil {
		return &Service{chain: fallback}
	}

	remote := &provider.Remote{
		Backend: backend,
		Prompt: func(in provider.Input, _ provider.PromptVariant) string {
			return buildPrompt(in.Text, in.JobDescription)
		},
	}
	// Single attempt; this endpoint is interactive and the fallback is
	// always acceptable.
	return &Service{chain: &provider.Failover{Remote: remote, Fallback: fallback, Attempts: 1}}
}

// Compare returns a match analysis as raw JSON so remote replies pass
// through unreshaped.
func (s *Service) Compare(ctx context.Context, resumeText, jobDescription string) json.RawMessage {
	in := provider.Input{Text: resumeText, JobDescription: jobDescription}
	raw, err := s.chain.Analyze(ctx, in, "")
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return raw
}

// Fallback scores the overlap between a fixed keyword set found in both
// the resume and the job description.
func Fallback(resumeText, jobDescription string) Match {
	resumeLower := strings.ToLower(resumeText)
	jdLower := strings.ToLower(jobDescription)

	matched := []string{}
	for _, kw := range matchKeywords {
		if strings.Contains(resumeLower, kw) && strings.Contains(jdLower, kw) {
			matched = append(matched, kw)
		}
	}
	m := len(matched)

	return Match{
		MatchScore:          capInt(60+m*10, 95),
		KeywordMatch:        capInt(50+m*15, 100),
		SkillsAlignment:     75,
		ExperienceRelevance: 70,
		Suggestions: Suggestions{
			AddKeywords:     []string{"Review the job requirements for missing technologies"},
			EmphasizeSkills: []string{"Problem-solving", "Communication"},
			ImproveSections: []string{"Add quantified achievements", "Include relevant projects"},
			ATSOptimization: []string{"Use exact keywords from the job description"},
		},
		MissingRequirements: []string{"Specific experience requirements"},
		StrongMatches:       matched,
		RecommendedChanges:  []string{"Tailor the resume to match the job requirements"},
	}
}

func buildPrompt(resumeText, jobDescription string) string {
	return fmt.Sprintf(`You are an expert career counselor and ATS specialist. Compare this resume with the job description and respond with a single JSON object only. Shape:
{
  "matchScore": 0-100,
  "keywordMatch": 0-100,
  "skillsAlignment": 0-100,
  "experienceRelevance": 0-100,
  "suggestions": {"addKeywords": [], "emphasizeSkills": [], "improveSections": [], "atsOptimization": []},
  "missingRequirements": [],
  "strongMatches": [],
  "recommendedChanges": []
}

Job Description:
%s

Resume Text:
%s`, jobDescription, resumeText)
}

func capInt(v, max int) int {
	if v > max {
		return max
	}
	return v
}
