package storage

import "context"

type Storage interface {
	Create(ctx context.Context, key string, value any) error
	Get(ctx context.Context, key string) (any, error)
	Update(ctx context.Context, key string, value any) error
	List(ctx context.Context, offset, limit uint64) ([]any, uint64, error)
	// ListPrefix returns the values whose keys start with prefix, in key order.
	ListPrefix(ctx context.Context, prefix string) ([]any, error)
	Delete(ctx context.Context, key string) error
}
