package object

import (
	"context"
	"errors"
	"io"
)

var (
	// ErrExists is returned by Create when the key is already taken.
	ErrExists = errors.New("object already exists")
	// ErrNotFound is returned by Open when the key does not exist.
	ErrNotFound = errors.New("object not found")
)

// ObjectStore defines the contract for saving and retrieving binary objects.
// Keys are slash-separated and relative to the store root.
type ObjectStore interface {
	// Create writes a new object and fails with ErrExists instead of overwriting.
	Create(ctx context.Context, key, contentType string, r io.Reader) (int64, error)
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// List returns every key starting with prefix, in no particular order.
	List(ctx context.Context, prefix string) ([]string, error)
}
