// Package storage holds attachment file bodies outside the database.
// Attachment rows carry only metadata plus an opaque StorageKey; this
// package resolves keys to bytes.
package storage

import (
	"context"
)

// Store persists and retrieves attachment bodies by key. Keys are assigned
// by Save and never reused.
type Store interface {
	// Save writes content and returns the key under which it was stored.
	// The original filename is advisory (extension hinting); it never
	// becomes part of the key verbatim.
	Save(ctx context.Context, filename string, content []byte) (string, error)

	// Load returns the stored content. A missing key returns (nil, nil).
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the stored content. Deleting a missing key is not an
	// error.
	Delete(ctx context.Context, key string) error
}
