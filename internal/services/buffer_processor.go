package services

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/infrastructure/buffer"
	"github.com/fastygo/shoplist/repository"
)

// ConnectionHealth abstracts the connection monitor.
type ConnectionHealth interface {
	IsOnline() bool
}

// ProcessorConfig controls how often the buffer is drained.
type ProcessorConfig struct {
	Interval   time.Duration
	BatchSize  int
	MaxRetries int
	// MaxAge drops ops older than this on each drain. Zero keeps them forever.
	MaxAge time.Duration
}

// BufferProcessor replays buffered item writes against the repository.
type BufferProcessor struct {
	store   *buffer.Store
	monitor ConnectionHealth
	items   repository.ItemRepository
	logger  *zap.Logger
	cron    *cron.Cron
	cfg     ProcessorConfig
}

func NewBufferProcessor(
	store *buffer.Store,
	monitor ConnectionHealth,
	items repository.ItemRepository,
	logger *zap.Logger,
	cfg ProcessorConfig,
) (*BufferProcessor, error) {
	if cfg.Interval < time.Second {
		cfg.Interval = 30 * time.Second
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	bp := &BufferProcessor{
		store:   store,
		monitor: monitor,
		items:   items,
		logger:  logger,
		cfg:     cfg,
		cron:    cron.New(cron.WithSeconds()),
	}

	schedule := fmt.Sprintf("@every %ds", int(cfg.Interval.Seconds()))
	if _, err := bp.cron.AddFunc(schedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Interval)
		defer cancel()
		if err := bp.Drain(ctx); err != nil {
			bp.logger.Error("buffer drain failed", zap.Error(err))
		}
	}); err != nil {
		return nil, fmt.Errorf("buffer processor: schedule %q: %w", schedule, err)
	}

	return bp, nil
}

func (bp *BufferProcessor) Start() {
	if bp == nil || bp.cron == nil {
		return
	}
	bp.cron.Start()
	bp.logger.Info("buffer processor started", zap.Duration("interval", bp.cfg.Interval))
}

// Stop waits for a running drain to finish or for ctx to expire.
func (bp *BufferProcessor) Stop(ctx context.Context) error {
	if bp == nil || bp.cron == nil {
		return nil
	}
	stopCtx := bp.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-ctx.Done():
		return ctx.Err()
	}
	bp.logger.Info("buffer processor stopped")
	return nil
}

// Drain replays one batch synchronously. It does nothing while storage is offline.
func (bp *BufferProcessor) Drain(ctx context.Context) error {
	if bp == nil || bp.store == nil {
		return nil
	}
	if bp.monitor != nil && !bp.monitor.IsOnline() {
		bp.logger.Debug("skipping buffer drain (offline)")
		return nil
	}

	if bp.cfg.MaxAge > 0 {
		if removed, err := bp.store.Purge(time.Now().Add(-bp.cfg.MaxAge)); err != nil {
			bp.logger.Warn("buffer purge failed", zap.Error(err))
		} else if removed > 0 {
			bp.logger.Warn("purged expired buffer ops", zap.Int("count", removed))
		}
	}

	ops, err := bp.store.Peek(bp.cfg.BatchSize)
	if err != nil {
		return err
	}

	for _, op := range ops {
		if err := bp.replay(ctx, op); err != nil {
			bp.logger.Error("failed to replay buffered op",
				zap.String("op_id", op.ID),
				zap.String("operation", op.Operation),
				zap.String("item_id", op.TargetID),
				zap.Error(err))

			if op.Retries+1 >= bp.cfg.MaxRetries {
				bp.logger.Warn("dropping buffered op (max retries reached)", zap.String("op_id", op.ID))
				_ = bp.store.Ack(op)
				continue
			}
			if _, err := bp.store.Retry(op); err != nil {
				bp.logger.Error("failed to requeue buffered op", zap.Error(err))
			}
			continue
		}

		if err := bp.store.Ack(op); err != nil {
			bp.logger.Warn("failed to remove replayed op", zap.Error(err))
		}
	}
	return nil
}

// BufferOperation tries op right away when storage looks healthy and
// persists it otherwise.
func (bp *BufferProcessor) BufferOperation(ctx context.Context, op buffer.Op) error {
	if bp == nil || bp.store == nil {
		return fmt.Errorf("buffer processor not configured")
	}

	if bp.monitor != nil && bp.monitor.IsOnline() {
		err := bp.replay(ctx, op)
		if err == nil {
			return nil
		}
		bp.logger.Warn("immediate replay failed, buffering", zap.Error(err))
	}
	_, err := bp.store.Enqueue(op)
	return err
}

// Size returns the number of buffered ops.
func (bp *BufferProcessor) Size() int {
	if bp == nil || bp.store == nil {
		return 0
	}
	size, err := bp.store.Len()
	if err != nil {
		return 0
	}
	return size
}

// replay treats "already there" on create and "already gone" on delete as success.
func (bp *BufferProcessor) replay(ctx context.Context, op buffer.Op) error {
	if ctx == nil {
		ctx = context.Background()
	}
	if op.Entity != buffer.EntityItem {
		return fmt.Errorf("unsupported entity %s", op.Entity)
	}

	switch op.Operation {
	case buffer.OperationCreate:
		var item domain.Item
		if err := json.Unmarshal(op.Data, &item); err != nil {
			return err
		}
		_, err := bp.items.Create(ctx, &item)
		if domain.IsDomainError(err, domain.ErrCodeConflict) {
			return nil
		}
		return err
	case buffer.OperationDelete:
		err := bp.items.Delete(ctx, op.TargetID)
		if domain.IsDomainError(err, domain.ErrCodeNotFound) {
			return nil
		}
		return err
	default:
		return fmt.Errorf("unsupported operation %s", op.Operation)
	}
}
