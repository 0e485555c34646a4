// Package blob abstracts where file bytes live. The access-control core
// treats it as an external collaborator: decisions are made before any byte
// is read.
package blob

import (
	"context"
	"io"

	"github.com/google/uuid"
)

// Store reads and writes file contents keyed by file ID. Read returns a
// stream the caller must close; passing the request context in lets an
// in-flight download be cancelled when the client disconnects.
type Store interface {
	Read(ctx context.Context, fileID uuid.UUID) (io.ReadCloser, error)
	Write(ctx context.Context, fileID uuid.UUID, contentType string, body io.Reader) error
	Size(ctx context.Context, fileID uuid.UUID) (int64, error)
	Delete(ctx context.Context, fileID uuid.UUID) error
}
