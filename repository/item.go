package repository

import (
	"context"
	"time"

	"github.com/fastygo/shoplist/domain"
)

// ItemRepository is the server-side record store behind the /items API.
type ItemRepository interface {
	List(ctx context.Context) ([]domain.Item, error)
	GetByID(ctx context.Context, id string) (*domain.Item, error)
	Create(ctx context.Context, item *domain.Item) (*domain.Item, error)
	// Update applies the patch at the given time and returns the stored result.
	Update(ctx context.Context, id string, patch domain.ItemPatch, now time.Time) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
	Ping(ctx context.Context) error
}

// ListStore persists the whole list under a single key.
// Load on an empty store returns an empty, non-nil list.
type ListStore interface {
	Load(ctx context.Context) ([]domain.Item, error)
	Save(ctx context.Context, items []domain.Item) error
}
