package core

import "context"

// FileStorage is any service that can store and retrieve files by an opaque,
// caller-chosen path. The core never interprets file contents.
type FileStorage interface {
	Upload(ctx context.Context, path string, data []byte) error
	Download(ctx context.Context, path string) ([]byte, error)
}
