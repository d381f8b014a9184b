package object

import (
	"context"
	"io"
)

// Descriptor identifies a stored object.
type Descriptor struct {
	Key      string
	Size     int64
	MimeType string
}

// Store is the contract for persisting uploaded resumes and their
// extracted-text sidecars.
type Store interface {
	// Put streams an uploaded file into the store under the owner's
	// namespace and returns where it landed. The content type is sniffed
	// from the first bytes.
	Put(ctx context.Context, ownerID string, fileName string, r io.Reader) (Descriptor, error)

	// PutSidecar writes derived content (extracted text, cached results)
	// at an exact storage key.
	PutSidecar(ctx context.Context, storageKey string, contentType string, r io.Reader) (int64, error)

	// Open retrieves a previously stored object.
	Open(ctx context.Context, storageKey string) (io.ReadCloser, error)
}
