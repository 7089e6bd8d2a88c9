package services

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/infrastructure/buffer"
	"github.com/fastygo/shoplist/repository"
	"github.com/fastygo/shoplist/repository/memory"
	"github.com/fastygo/shoplist/usecase"
)

type switchHealth struct {
	mu     sync.Mutex
	online bool
}

func (s *switchHealth) IsOnline() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.online
}

func (s *switchHealth) set(v bool) {
	s.mu.Lock()
	s.online = v
	s.mu.Unlock()
}

// flakyRepo fails every write while down is set.
type flakyRepo struct {
	repository.ItemRepository
	down bool
}

func (f *flakyRepo) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if f.down {
		return nil, errors.New("connection refused")
	}
	return f.ItemRepository.Create(ctx, item)
}

func (f *flakyRepo) Delete(ctx context.Context, id string) error {
	if f.down {
		return errors.New("connection refused")
	}
	return f.ItemRepository.Delete(ctx, id)
}

func newTestProcessor(t *testing.T, repo repository.ItemRepository, health ConnectionHealth, cfg ProcessorConfig) (*BufferProcessor, *buffer.Store) {
	t.Helper()
	store, err := buffer.Open(filepath.Join(t.TempDir(), "buffer.db"), "")
	if err != nil {
		t.Fatalf("open buffer: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	bp, err := NewBufferProcessor(store, health, repo, nil, cfg)
	if err != nil {
		t.Fatalf("new processor: %v", err)
	}
	return bp, store
}

func TestBufferedCreateReplaysWhenOnline(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{ItemRepository: memory.NewItemRepository(), down: true}
	health := &switchHealth{}
	bp, _ := newTestProcessor(t, repo, health, ProcessorConfig{})
	bridge := NewBufferBridge(bp)

	item := &domain.Item{ID: "a", Text: "Milk", Quantity: 2, CreatedAt: time.Now().UTC()}
	if err := bridge.BufferItem(ctx, usecase.OperationCreate, item); err != nil {
		t.Fatalf("buffer: %v", err)
	}
	if bp.Size() != 1 {
		t.Fatalf("expected 1 buffered op, got %d", bp.Size())
	}

	if err := bp.Drain(ctx); err != nil {
		t.Fatalf("drain while offline: %v", err)
	}
	if bp.Size() != 1 {
		t.Fatal("offline drain must not touch the buffer")
	}

	repo.down = false
	health.set(true)
	if err := bp.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if bp.Size() != 0 {
		t.Fatalf("expected empty buffer, got %d", bp.Size())
	}
	got, err := repo.GetByID(ctx, "a")
	if err != nil || got.Text != "Milk" || got.Quantity != 2 {
		t.Fatalf("replayed item mismatch: %+v, %v", got, err)
	}
}

func TestBufferOperationAppliesImmediatelyWhenOnline(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository(domain.Item{ID: "a", Text: "Milk", Quantity: 1})
	bp, _ := newTestProcessor(t, repo, &switchHealth{online: true}, ProcessorConfig{})

	if err := NewBufferBridge(bp).BufferItem(ctx, usecase.OperationDelete, &domain.Item{ID: "a"}); err != nil {
		t.Fatalf("buffer: %v", err)
	}
	if bp.Size() != 0 {
		t.Fatal("online write must not be buffered")
	}
	if _, err := repo.GetByID(ctx, "a"); !errors.Is(err, domain.ErrItemNotFound) {
		t.Fatalf("expected item deleted, got %v", err)
	}
}

func TestReplayIsIdempotent(t *testing.T) {
	ctx := context.Background()
	repo := memory.NewItemRepository(domain.Item{ID: "a", Text: "Milk", Quantity: 1})
	bp, store := newTestProcessor(t, repo, &switchHealth{online: true}, ProcessorConfig{})

	if _, err := store.Enqueue(buffer.Op{Operation: buffer.OperationCreate, TargetID: "a", Data: []byte(`{"id":"a","text":"Milk","quantity":1}`)}); err != nil {
		t.Fatal(err)
	}
	if _, err := store.Enqueue(buffer.Op{Operation: buffer.OperationDelete, TargetID: "missing"}); err != nil {
		t.Fatal(err)
	}
	if err := bp.Drain(ctx); err != nil {
		t.Fatalf("drain: %v", err)
	}
	if bp.Size() != 0 {
		t.Fatalf("conflict and not-found replays must be acknowledged, size=%d", bp.Size())
	}
}

func TestDrainDropsAfterMaxRetries(t *testing.T) {
	ctx := context.Background()
	repo := &flakyRepo{ItemRepository: memory.NewItemRepository(), down: true}
	bp, store := newTestProcessor(t, repo, &switchHealth{online: true}, ProcessorConfig{MaxRetries: 2})

	if _, err := store.Enqueue(buffer.Op{Operation: buffer.OperationDelete, TargetID: "a"}); err != nil {
		t.Fatal(err)
	}

	_ = bp.Drain(ctx)
	if bp.Size() != 1 {
		t.Fatalf("expected op requeued after first failure, size=%d", bp.Size())
	}
	_ = bp.Drain(ctx)
	if bp.Size() != 0 {
		t.Fatalf("expected op dropped after max retries, size=%d", bp.Size())
	}
}

func TestStartStop(t *testing.T) {
	bp, _ := newTestProcessor(t, memory.NewItemRepository(), nil, ProcessorConfig{Interval: time.Second})
	bp.Start()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := bp.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
}
