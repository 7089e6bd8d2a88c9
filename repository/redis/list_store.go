package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	redislib "github.com/redis/go-redis/v9"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/repository"
)

const defaultKey = "shoplist:items"

type listStore struct {
	client *redislib.Client
	key    string
}

// NewListStore creates a Redis-backed list store holding the list under key.
func NewListStore(client *redislib.Client, key string) repository.ListStore {
	if key == "" {
		key = defaultKey
	}
	return &listStore{client: client, key: key}
}

func (s *listStore) Load(ctx context.Context) ([]domain.Item, error) {
	items := make([]domain.Item, 0)
	raw, err := s.client.Get(ctx, s.key).Bytes()
	if err != nil {
		if errors.Is(err, redislib.Nil) {
			return items, nil
		}
		return nil, err
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func (s *listStore) Save(ctx context.Context, items []domain.Item) error {
	if items == nil {
		items = []domain.Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	return s.client.Set(ctx, s.key, payload, 0).Err()
}
