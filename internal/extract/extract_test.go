package extract

import (
	"context"
	"errors"
	"testing"
)

func TestTextRejectsGarbage(t *testing.T) {
	_, err := Text(context.Background(), []byte("%PDF-1.4 but not really a pdf"))
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Fatalf("Text() = %v, want ErrUnreadableDocument", err)
	}
}

func TestTextRejectsEmptyPayload(t *testing.T) {
	_, err := Text(context.Background(), nil)
	if !errors.Is(err, ErrUnreadableDocument) {
		t.Fatalf("Text() = %v, want ErrUnreadableDocument", err)
	}
}

func TestTextHonorsCanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Text(ctx, []byte("%PDF-1.4"))
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("Text() = %v, want context.Canceled", err)
	}
}

func TestWordCount(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"", 0},
		{"   \n\t ", 0},
		{"one", 1},
		{"senior software engineer\nwith experience", 5},
	}
	for _, tt := range tests {
		if got := WordCount(tt.in); got != tt.want {
			t.Fatalf("WordCount(%q) = %d, want %d", tt.in, got, tt.want)
		}
	}
}
