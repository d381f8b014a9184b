package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Input carries everything a provider needs to analyze a resume.
type Input struct {
	Text           string
	JobDescription string
	TargetRole     string
}

// PromptVariant selects which prompt wording the remote provider uses.
// Variants come from the experiment layer; "control" is the baseline.
type PromptVariant string

// Provider produces an analysis result as raw JSON.
type Provider interface {
	Analyze(ctx context.Context, in Input, variant PromptVariant) (json.RawMessage, error)
}

// Func adapts a plain function to the Provider interface.
type Func func(ctx context.Context, in Input, variant PromptVariant) (json.RawMessage, error)

func (f Func) Analyze(ctx context.Context, in Input, variant PromptVariant) (json.RawMessage, error) {
	return f(ctx, in, variant)
}

// Backend is a raw text-generation client. The Gemini client satisfies
// this; tests substitute fakes.
type Backend interface {
	Generate(ctx context.Context, prompt string) (string, error)
}

type fallbackFlagKey struct{}

// WithFallbackFlag returns a context carrying a flag the failover chain
// sets when the heuristic fallback produced the result. Callers use it
// to annotate responses.
func WithFallbackFlag(ctx context.Context) (context.Context, *bool) {
	flag := new(bool)
	return context.WithValue(ctx, fallbackFlagKey{}, flag), flag
}

func noteFallback(ctx context.Context) {
	if flag, ok := ctx.Value(fallbackFlagKey{}).(*bool); ok {
		*flag = true
	}
}

// ErrMalformedReply marks a backend reply that is not valid JSON after
// fence stripping. It is not transient; retrying the same prompt tends
// to reproduce it.
var ErrMalformedReply = errors.New("provider returned malformed JSON")

// Remote sends prompts to a generation backend and insists on a JSON
// object back.
type Remote struct {
	Backend Backend
	Prompt  func(in Input, variant PromptVariant) string
	Timeout time.Duration
}

func (r *Remote) Analyze(ctx context.Context, in Input, variant PromptVariant) (json.RawMessage, error) {
	if r.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.Timeout)
		defer cancel()
	}

	prompt := BuildAnalysisPrompt(in, variant)
	if r.Prompt != nil {
		prompt = r.Prompt(in, variant)
	}

	reply, err := r.Backend.Generate(ctx, prompt)
	if err != nil {
		return nil, fmt.Errorf("provider generate: %w", err)
	}

	raw := json.RawMessage(StripFences(reply))
	if !json.Valid(raw) {
		return nil, ErrMalformedReply
	}
	return raw, nil
}

// StripFences removes a markdown code fence wrapper if the model added
// one despite instructions.
func StripFences(reply string) string {
	s := strings.TrimSpace(reply)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
