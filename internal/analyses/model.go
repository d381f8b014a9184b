package analyses

import "time"

// SectionFeedback scores one resume section.
type SectionFeedback struct {
	Score    int    `json:"score"`
	Feedback string `json:"feedback"`
}

// Result is the normalized analysis payload served to clients. Every
// provider reply passes through ParseResult before it becomes one of
// these.
type Result struct {
	OverallScore    int                        `json:"overallScore"`
	ATSScore        int                        `json:"atsScore"`
	Sections        map[string]SectionFeedback `json:"sections"`
	Strengths       []string                   `json:"strengths"`
	Improvements    []string                   `json:"improvements"`
	Keywords        []string                   `json:"keywords"`
	MissingKeywords []string                   `json:"missingKeywords"`
	IndustryMatch   string                     `json:"industryMatch"`
	Recommendations []string                   `json:"recommendations"`
}

// Record is a persisted analysis.
type Record struct {
	ID            string    `json:"id"`
	UserID        string    `json:"-"`
	FileName      string    `json:"fileName"`
	ExtractedText string    `json:"-"`
	Result        Result    `json:"result"`
	CreatedAt     time.Time `json:"createdAt"`
}

// Summary is the listing shape: no extracted text, no full result body.
type Summary struct {
	ID           string    `json:"id"`
	FileName     string    `json:"fileName"`
	OverallScore int       `json:"overallScore"`
	ATSScore     int       `json:"atsScore"`
	CreatedAt    time.Time `json:"createdAt"`
}

// Submission is one upload request entering the pipeline.
type Submission struct {
	FileName       string
	MimeType       string
	Size           int64
	Data           []byte
	JobDescription string
	TargetRole     string
}

// Outcome is what Submit returns on success.
type Outcome struct {
	ID        string    `json:"id"`
	FileName  string    `json:"fileName"`
	Result    Result    `json:"result"`
	Fallback  bool      `json:"fallback,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
}
