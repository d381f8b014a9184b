package fileguard

import (
	"bytes"
	"errors"
	"strings"
)

// Validation failures, ordered by check priority. The first failing check
// wins; later checks never run.
var (
	ErrFileTooLarge     = errors.New("file exceeds the maximum allowed size")
	ErrEmptyFile        = errors.New("file is empty")
	ErrUnsupportedType  = errors.New("only PDF files are supported")
	ErrInvalidSignature = errors.New("file content does not match a PDF document")
	ErrInvalidFilename  = errors.New("file name contains invalid characters")
)

// DefaultMaxBytes caps uploads at 5 MiB.
const DefaultMaxBytes = 5 << 20

const maxNameLength = 255

var pdfMagic = []byte("%PDF")

// Artifact is an uploaded file as received from the client, with the
// client-declared name and content type.
type Artifact struct {
	Name     string
	MimeType string
	Size     int64
	Data     []byte
}

// Guard validates uploads before any expensive work happens.
type Guard struct {
	maxBytes int64
}

func New(maxBytes int64) *Guard {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Guard{maxBytes: maxBytes}
}

// Check runs the validation chain in a fixed order: size cap, emptiness,
// declared type, content signature, then file name. It returns the first
// failure encountered.
func (g *Guard) Check(a Artifact) error {
	if a.Size > g.maxBytes {
		return ErrFileTooLarge
	}
	if a.Size == 0 || len(a.Data) == 0 {
		return ErrEmptyFile
	}
	if !strings.EqualFold(strings.TrimSpace(a.MimeType), "application/pdf") {
		return ErrUnsupportedType
	}
	if !bytes.HasPrefix(a.Data, pdfMagic) {
		return ErrInvalidSignature
	}
	if !validName(a.Name) {
		return ErrInvalidFilename
	}
	return nil
}

// MaxBytes reports the configured size cap.
func (g *Guard) MaxBytes() int64 { return g.maxBytes }

// validName accepts names built only from letters, digits, dot, underscore
// and hyphen. Path separators, control characters and over-long names are
// rejected outright rather than sanitized.
func validName(name string) bool {
	if name == "" || len(name) > maxNameLength {
		return false
	}
	for _, r := range name {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= 'A' && r <= 'Z':
		case r >= '0' && r <= '9':
		case r == '.' || r == '_' || r == '-':
		default:
			return false
		}
	}
	return true
}
