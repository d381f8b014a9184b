package provider

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"google.golang.org/api/googleapi"
)

type scriptedProvider struct {
	calls   int
	replies []json.RawMessage
	errs    []error
}

func (p *scriptedProvider) Analyze(ctx context.Context, in Input, variant PromptVariant) (json.RawMessage, error) {
	i := p.calls
	p.calls++
	if i >= len(p.errs) {
		i = len(p.errs) - 1
	}
	return p.replies[i], p.errs[i]
}

func scripted(pairs ...any) *scriptedProvider {
	p := &scriptedProvider{}
	for i := 0; i < len(pairs); i += 2 {
		raw, _ := pairs[i].(json.RawMessage)
		err, _ := pairs[i+1].(error)
		p.replies = append(p.replies, raw)
		p.errs = append(p.errs, err)
	}
	return p
}

func newTestFailover(remote, fallback Provider) (*Failover, *[]time.Duration) {
	var delays []time.Duration
	f := NewFailover(remote, fallback)
	f.sleep = func(ctx context.Context, d time.Duration) error {
		delays = append(delays, d)
		return nil
	}
	return f, &delays
}

func TestFailoverRetriesTransientThenSucceeds(t *testing.T) {
	ok := json.RawMessage(`{"overallScore":80}`)
	unavailable := errors.New("503 service unavailable")
	remote := scripted(nil, unavailable, nil, unavailable, ok, nil)
	f, delays := newTestFailover(remote, nil)

	raw, err := f.Analyze(context.Background(), Input{Text: "resume"}, "control")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if string(raw) != string(ok) {
		t.Fatalf("Analyze = %s, want %s", raw, ok)
	}
	if remote.calls != 3 {
		t.Fatalf("remote calls = %d, want 3", remote.calls)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(*delays) != len(want) || (*delays)[0] != want[0] || (*delays)[1] != want[1] {
		t.Fatalf("delays = %v, want %v", *delays, want)
	}
}

func TestFailoverExhaustionFallsBack(t *testing.T) {
	fallbackOut := json.RawMessage(`{"overallScore":62}`)
	remote := scripted(nil, errors.New("429 rate limited"))
	fallback := scripted(fallbackOut, nil)
	f, _ := newTestFailover(remote, fallback)

	raw, err := f.Analyze(context.Background(), Input{Text: "resume"}, "control")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if string(raw) != string(fallbackOut) {
		t.Fatalf("Analyze = %s, want fallback output", raw)
	}
	if remote.calls != 3 {
		t.Fatalf("remote calls = %d, want 3 before fallback", remote.calls)
	}
	if fallback.calls != 1 {
		t.Fatalf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestFailoverNonTransientSkipsRetries(t *testing.T) {
	fallbackOut := json.RawMessage(`{"overallScore":62}`)
	remote := scripted(nil, fmt.Errorf("generate: %w", ErrMalformedReply))
	fallback := scripted(fallbackOut, nil)
	f, delays := newTestFailover(remote, fallback)

	raw, err := f.Analyze(context.Background(), Input{Text: "resume"}, "control")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	if string(raw) != string(fallbackOut) {
		t.Fatalf("Analyze = %s, want fallback output", raw)
	}
	if remote.calls != 1 {
		t.Fatalf("remote calls = %d, want 1 for non-transient error", remote.calls)
	}
	if len(*delays) != 0 {
		t.Fatalf("delays = %v, want none", *delays)
	}
}

func TestIsTransient(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{"nil", nil, false},
		{"malformed reply", ErrMalformedReply, false},
		{"wrapped malformed", fmt.Errorf("x: %w", ErrMalformedReply), false},
		{"deadline", context.DeadlineExceeded, true},
		{"googleapi 429", &googleapi.Error{Code: 429}, true},
		{"googleapi 503", &googleapi.Error{Code: 503}, true},
		{"googleapi 500", &googleapi.Error{Code: 500}, true},
		{"googleapi 400", &googleapi.Error{Code: 400}, false},
		{"googleapi 401", &googleapi.Error{Code: 401}, false},
		{"connection reset", errors.New("read: connection reset by peer"), true},
		{"model overloaded", errors.New("the model is overloaded"), true},
		{"bad api key", errors.New("API key not valid"), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := IsTransient(tt.err); got != tt.want {
				t.Fatalf("IsTransient(%v) = %v, want %v", tt.err, got, tt.want)
			}
		})
	}
}

type fakeBackend struct {
	reply string
	err   error
}

func (b fakeBackend) Generate(ctx context.Context, prompt string) (string, error) {
	return b.reply, b.err
}

func TestRemoteStripsCodeFences(t *testing.T) {
	r := &Remote{Backend: fakeBackend{reply: "```json\n{\"overallScore\": 75}\n```"}}
	raw, err := r.Analyze(context.Background(), Input{Text: "resume"}, "control")
	if err != nil {
		t.Fatalf("Analyze: %v", err)
	}
	var parsed struct {
		OverallScore int `json:"overallScore"`
	}
	if err := json.Unmarshal(raw, &parsed); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if parsed.OverallScore != 75 {
		t.Fatalf("overallScore = %d, want 75", parsed.OverallScore)
	}
}

func TestRemoteRejectsNonJSON(t *testing.T) {
	r := &Remote{Backend: fakeBackend{reply: "Sure! Here is your analysis: the resume looks fine."}}
	_, err := r.Analyze(context.Background(), Input{Text: "resume"}, "control")
	if !errors.Is(err, ErrMalformedReply) {
		t.Fatalf("Analyze = %v, want ErrMalformedReply", err)
	}
}

func TestBuildAnalysisPromptVariants(t *testing.T) {
	in := Input{Text: "resume body", JobDescription: "build APIs", TargetRole: "Backend Engineer"}

	control := BuildAnalysisPrompt(in, "control")
	concise := BuildAnalysisPrompt(in, "concise")
	unknown := BuildAnalysisPrompt(in, "does-not-exist")

	if control == concise {
		t.Fatal("control and concise prompts should differ")
	}
	if unknown != control {
		t.Fatal("unknown variant should render the control prompt")
	}
	for _, prompt := range []string{control, concise} {
		for _, fragment := range []string{"resume body", "build APIs", "Backend Engineer", "overallScore"} {
			if !strings.Contains(prompt, fragment) {
				t.Fatalf("prompt missing %q", fragment)
			}
		}
	}
}
