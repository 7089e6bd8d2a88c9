package bolt

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bbolt "go.etcd.io/bbolt"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/repository"
)

const (
	defaultBucket = "shoplist"
	defaultKey    = "items"
)

// ListStore keeps the whole list as one JSON value inside a bolt bucket.
type ListStore struct {
	db     *bbolt.DB
	bucket []byte
	key    []byte
}

var _ repository.ListStore = (*ListStore)(nil)

// Open initializes the bolt file and ensures the bucket exists.
func Open(path string) (*ListStore, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bbolt.Open(path, 0o600, &bbolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("open bolt store: %w", err)
	}

	bucket := []byte(defaultBucket)
	if err := db.Update(func(tx *bbolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists(bucket)
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &ListStore{db: db, bucket: bucket, key: []byte(defaultKey)}, nil
}

func (s *ListStore) Load(ctx context.Context) ([]domain.Item, error) {
	if s == nil || s.db == nil {
		return nil, bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	var raw []byte
	if err := s.db.View(func(tx *bbolt.Tx) error {
		if v := tx.Bucket(s.bucket).Get(s.key); v != nil {
			raw = append([]byte(nil), v...)
		}
		return nil
	}); err != nil {
		return nil, err
	}

	items := make([]domain.Item, 0)
	if len(raw) == 0 {
		return items, nil
	}
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("decode list: %w", err)
	}
	return items, nil
}

func (s *ListStore) Save(ctx context.Context, items []domain.Item) error {
	if s == nil || s.db == nil {
		return bbolt.ErrDatabaseNotOpen
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	if items == nil {
		items = []domain.Item{}
	}
	payload, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("encode list: %w", err)
	}
	return s.db.Update(func(tx *bbolt.Tx) error {
		return tx.Bucket(s.bucket).Put(s.key, payload)
	})
}

// Close closes the bolt database.
func (s *ListStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
