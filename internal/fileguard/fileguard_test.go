package fileguard

import (
	"bytes"
	"errors"
	"strings"
	"testing"
)

func pdfArtifact(name string, size int) Artifact {
	data := append([]byte("%PDF-1.7\n"), bytes.Repeat([]byte{'x'}, size)...)
	return Artifact{
		Name:     name,
		MimeType: "application/pdf",
		Size:     int64(len(data)),
		Data:     data,
	}
}

func TestCheckAcceptsValidPDF(t *testing.T) {
	g := New(0)
	if err := g.Check(pdfArtifact("resume.pdf", 1024)); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestCheckRejectsOversize(t *testing.T) {
	g := New(1024)
	a := pdfArtifact("resume.pdf", 2048)
	if err := g.Check(a); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Check() = %v, want ErrFileTooLarge", err)
	}
}

func TestCheckRejectsEmptyFile(t *testing.T) {
	g := New(0)
	a := Artifact{Name: "resume.pdf", MimeType: "application/pdf", Size: 0}
	if err := g.Check(a); !errors.Is(err, ErrEmptyFile) {
		t.Fatalf("Check() = %v, want ErrEmptyFile", err)
	}
}

func TestCheckRejectsWrongMimeType(t *testing.T) {
	g := New(0)
	a := pdfArtifact("resume.pdf", 64)
	a.MimeType = "application/msword"
	if err := g.Check(a); !errors.Is(err, ErrUnsupportedType) {
		t.Fatalf("Check() = %v, want ErrUnsupportedType", err)
	}
}

func TestCheckAcceptsMimeTypeCaseInsensitive(t *testing.T) {
	g := New(0)
	a := pdfArtifact("resume.pdf", 64)
	a.MimeType = "Application/PDF"
	if err := g.Check(a); err != nil {
		t.Fatalf("Check() = %v, want nil", err)
	}
}

func TestCheckRejectsSpoofedSignature(t *testing.T) {
	g := New(0)
	a := Artifact{
		Name:     "resume.pdf",
		MimeType: "application/pdf",
		Data:     []byte("MZ\x90\x00 not a pdf at all"),
	}
	a.Size = int64(len(a.Data))
	if err := g.Check(a); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("Check() = %v, want ErrInvalidSignature", err)
	}
}

func TestCheckRejectsBadNames(t *testing.T) {
	g := New(0)
	bad := []string{
		"../../etc/passwd",
		"dir/resume.pdf",
		"dir\\resume.pdf",
		"resume\x00.pdf",
		"resumé.pdf",
		"my resume.pdf",
		strings.Repeat("a", 256) + ".pdf",
		"",
	}
	for _, name := range bad {
		a := pdfArtifact("x.pdf", 64)
		a.Name = name
		if err := g.Check(a); !errors.Is(err, ErrInvalidFilename) {
			t.Fatalf("Check(name=%q) = %v, want ErrInvalidFilename", name, err)
		}
	}
}

func TestCheckOrderSizeBeforeType(t *testing.T) {
	// Oversize and wrong type at once: size wins.
	g := New(16)
	a := Artifact{
		Name:     "../bad",
		MimeType: "text/plain",
		Data:     bytes.Repeat([]byte{'x'}, 64),
	}
	a.Size = int64(len(a.Data))
	if err := g.Check(a); !errors.Is(err, ErrFileTooLarge) {
		t.Fatalf("Check() = %v, want ErrFileTooLarge first", err)
	}
}
