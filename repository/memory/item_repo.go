package memory

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/repository"
)

// itemRepository keeps the list in process memory and mutates it only through
// domain.Apply. Contents are lost on restart.
type itemRepository struct {
	mu    sync.RWMutex
	items []domain.Item
}

// NewItemRepository returns an in-memory ItemRepository seeded with items.
func NewItemRepository(seed ...domain.Item) repository.ItemRepository {
	return &itemRepository{items: domain.Apply(nil, domain.LoadItems{Items: append([]domain.Item(nil), seed...)})}
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]domain.Item, len(r.items))
	copy(out, r.items)
	return out, nil
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if idx := r.indexOf(id); idx >= 0 {
		item := r.items[idx]
		return &item, nil
	}
	return nil, domain.ErrItemNotFound
}

func (r *itemRepository) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item == nil {
		return nil, domain.ErrInvalidPayload
	}
	if item.ID == "" {
		item.ID = uuid.NewString()
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = time.Now().UTC()
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(item.ID) >= 0 {
		return nil, domain.NewError(domain.ErrCodeConflict, "item already exists")
	}
	r.items = domain.Apply(r.items, domain.AddItem{
		ID:        item.ID,
		Text:      item.Text,
		Quantity:  item.Quantity,
		CreatedAt: item.CreatedAt,
	})
	created := r.items[len(r.items)-1]
	return &created, nil
}

func (r *itemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch, now time.Time) (*domain.Item, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	idx := r.indexOf(id)
	if idx < 0 {
		return nil, domain.ErrItemNotFound
	}

	current := r.items[idx]
	next := current.ApplyPatch(patch, now)
	if next.Text != current.Text || next.Quantity != current.Quantity {
		r.items = domain.Apply(r.items, domain.EditItem{ID: id, Text: next.Text, Quantity: next.Quantity})
	}
	if next.Completed != current.Completed {
		r.items = domain.Apply(r.items, domain.ToggleItem{ID: id, Completed: next.Completed, CompletedAt: next.CompletedAt})
	}
	updated := r.items[idx]
	return &updated, nil
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.indexOf(id) < 0 {
		return domain.ErrItemNotFound
	}
	r.items = domain.Apply(r.items, domain.RemoveItem{ID: id})
	return nil
}

func (r *itemRepository) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (r *itemRepository) indexOf(id string) int {
	for i, item := range r.items {
		if item.ID == id {
			return i
		}
	}
	return -1
}
