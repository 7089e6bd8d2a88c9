package buffer

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	bolt "go.etcd.io/bbolt"
)

const defaultBucket = "pending_ops"

// Store persists pending operations in BoltDB, ordered by priority then age.
type Store struct {
	db     *bolt.DB
	bucket []byte
}

// Open creates the file and bucket when missing.
func Open(path string, bucket string) (*Store, error) {
	if bucket == "" {
		bucket = defaultBucket
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	db, err := bolt.Open(path, 0o600, &bolt.Options{Timeout: time.Second})
	if err != nil {
		return nil, fmt.Errorf("buffer: open %s: %w", path, err)
	}

	if err := db.Update(func(tx *bolt.Tx) error {
		_, err := tx.CreateBucketIfNotExists([]byte(bucket))
		return err
	}); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db, bucket: []byte(bucket)}, nil
}

// Enqueue stores op and returns it with defaults filled in.
func (s *Store) Enqueue(op Op) (Op, error) {
	if s == nil || s.db == nil {
		return op, bolt.ErrDatabaseNotOpen
	}
	op.normalize()
	op.key = []byte(orderKey(op))

	payload, err := json.Marshal(op)
	if err != nil {
		return op, err
	}

	err = s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Put(op.key, payload)
	})
	return op, err
}

// Peek returns up to limit ops in replay order without removing them.
// Entries that fail to decode are skipped.
func (s *Store) Peek(limit int) ([]Op, error) {
	if s == nil || s.db == nil {
		return nil, bolt.ErrDatabaseNotOpen
	}
	if limit <= 0 {
		limit = 50
	}

	var ops []Op
	err := s.db.View(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil && len(ops) < limit; k, v = c.Next() {
			var op Op
			if err := json.Unmarshal(v, &op); err != nil {
				continue
			}
			op.key = append([]byte(nil), k...)
			ops = append(ops, op)
		}
		return nil
	})
	return ops, err
}

// Ack removes an op once it has been replayed or abandoned.
func (s *Store) Ack(op Op) error {
	if s == nil || s.db == nil {
		return bolt.ErrDatabaseNotOpen
	}
	if len(op.key) == 0 {
		return s.deleteByID(op.ID)
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		return tx.Bucket(s.bucket).Delete(op.key)
	})
}

// Retry bumps the retry counter and moves op to the back of its priority band.
func (s *Store) Retry(op Op) (Op, error) {
	if err := s.Ack(op); err != nil {
		return op, err
	}
	op.key = nil
	op.Retries++
	op.Timestamp = time.Now()
	return s.Enqueue(op)
}

// Len reports how many ops are pending.
func (s *Store) Len() (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	var count int
	err := s.db.View(func(tx *bolt.Tx) error {
		count = tx.Bucket(s.bucket).Stats().KeyN
		return nil
	})
	return count, err
}

// Purge drops ops enqueued before cutoff and returns how many were removed.
func (s *Store) Purge(cutoff time.Time) (int, error) {
	if s == nil || s.db == nil {
		return 0, bolt.ErrDatabaseNotOpen
	}
	removed := 0
	err := s.db.Update(func(tx *bolt.Tx) error {
		b := tx.Bucket(s.bucket)
		var stale [][]byte
		err := b.ForEach(func(k, v []byte) error {
			var op Op
			if err := json.Unmarshal(v, &op); err != nil {
				return nil
			}
			if op.Timestamp.Before(cutoff) {
				stale = append(stale, append([]byte(nil), k...))
			}
			return nil
		})
		if err != nil {
			return err
		}
		for _, k := range stale {
			if err := b.Delete(k); err != nil {
				return err
			}
			removed++
		}
		return nil
	})
	return removed, err
}

func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) deleteByID(id string) error {
	if id == "" {
		return nil
	}
	return s.db.Update(func(tx *bolt.Tx) error {
		c := tx.Bucket(s.bucket).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var op Op
			if err := json.Unmarshal(v, &op); err != nil {
				continue
			}
			if op.ID == id {
				return c.Delete()
			}
		}
		return nil
	})
}

func orderKey(op Op) string {
	return fmt.Sprintf("%d_%020d_%s", op.Priority, op.Timestamp.UnixNano(), op.ID)
}
