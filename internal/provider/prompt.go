package provider

import (
	"fmt"
	"strings"
)

const analysisSchemaHint = `Respond with a single JSON object and nothing else. Shape:
{
  "overallScore": 0-100,
  "atsScore": 0-100,
  "sections": {"contact": {"score": 0-100, "feedback": "..."}, "experience": {...}, "education": {...}, "skills": {...}},
  "strengths": ["..."],
  "improvements": ["..."],
  "keywords": ["..."],
  "missingKeywords": ["..."],
  "industryMatch": "...",
  "recommendations": ["..."]
}`

// BuildAnalysisPrompt renders the analysis prompt for a variant. Unknown
// variants get the control wording so a misconfigured experiment cannot
// break analysis.
func BuildAnalysisPrompt(in Input, variant PromptVariant) string {
	var b strings.Builder

	switch variant {
	case "concise":
		b.WriteString("You are a resume reviewer. Give short, direct feedback with no filler.\n\n")
	case "detailed":
		b.WriteString("You are a senior career coach and ATS specialist. Give thorough, specific feedback with concrete examples from the resume.\n\n")
	default:
		b.WriteString("You are an expert resume reviewer and ATS specialist.\n\n")
	}

	b.WriteString("Analyze the following resume")
	if in.TargetRole != "" {
		fmt.Fprintf(&b, " for a %s role", in.TargetRole)
	}
	b.WriteString(".\n\n")

	if in.JobDescription != "" {
		b.WriteString("Job description:\n")
		b.WriteString(in.JobDescription)
		b.WriteString("\n\n")
	}

	b.WriteString("Resume:\n")
	b.WriteString(in.Text)
	b.WriteString("\n\n")
	b.WriteString(analysisSchemaHint)
	return b.String()
}
