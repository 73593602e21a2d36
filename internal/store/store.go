package store

import "context"

// Store is the durable key/value collaborator injected into the
// replication manager. Implementations must make Put durable before
// returning: a successful Put survives process death.
type Store interface {
	// Put writes value under key, replacing any previous value.
	Put(ctx context.Context, key string, value []byte) error

	// Get retrieves the value stored under key. The second return is
	// false when the key has never been written (not an error).
	Get(ctx context.Context, key string) ([]byte, bool, error)

	// Delete removes key. Deleting an absent key is a no-op.
	Delete(ctx context.Context, key string) error

	// Close releases the underlying resources.
	Close() error
}
