package storage

import (
	"context"
	"iter"

	"github.com/poiesic/shigen/core"
)

// Repository provides common storage operations shared across all repositories.
// Implementations must be thread-safe and support concurrent access.
type Repository interface {
	// Close releases resources held by the repository.
	Close() error
}

// ResourceRepository is the document collection holding catalog resources.
// Records are keyed by core.IDFromServiceName so re-imports upsert in place.
type ResourceRepository interface {
	Repository

	// AddResources stores new resources.
	// IDs are derived from the service name when zero.
	// Sets InsertedAt and UpdatedAt.
	// Returns ErrDuplicateKey if a resource with the same ID already exists.
	AddResources(ctx context.Context, resources ...*core.Resource) ([]*core.Resource, error)

	// UpdateResources replaces existing resources.
	// Preserves InsertedAt and refreshes UpdatedAt.
	// Returns ErrNotFound if any resource doesn't exist.
	UpdateResources(ctx context.Context, resources ...*core.Resource) ([]*core.Resource, error)

	// DeleteResources removes resources by their IDs.
	// Returns ErrNotFound if any resource doesn't exist.
	DeleteResources(ctx context.Context, ids ...core.ID) error

	// GetResource retrieves a single resource by ID.
	// Returns ErrNotFound if the resource doesn't exist.
	GetResource(ctx context.Context, id core.ID) (*core.Resource, error)

	// GetResources retrieves multiple resources by their IDs.
	// Returns only the resources that exist (no error for missing resources).
	GetResources(ctx context.Context, ids ...core.ID) ([]*core.Resource, error)

	// StreamResources yields every stored resource in key order.
	// Iteration stops at the first error, which is yielded with a nil resource.
	StreamResources(ctx context.Context) iter.Seq2[*core.Resource, error]

	// CountResources returns the number of stored resources.
	CountResources(ctx context.Context) (int, error)
}
