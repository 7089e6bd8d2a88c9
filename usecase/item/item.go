package item

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/repository"
	"github.com/fastygo/shoplist/usecase"
)

// CreateInput is a validated-on-entry request to add an item.
// A nil Quantity defaults to 1.
type CreateInput struct {
	Text     string
	Quantity *float64
}

// UpdateInput is a partial edit. Nil fields are left untouched.
type UpdateInput struct {
	Text      *string
	Quantity  *float64
	Completed *bool
}

type UseCase struct {
	items  repository.ItemRepository
	buffer usecase.OperationBuffer
	logger *zap.Logger
	now    func() time.Time
}

func New(items repository.ItemRepository, buffer usecase.OperationBuffer, logger *zap.Logger) *UseCase {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UseCase{
		items:  items,
		buffer: buffer,
		logger: logger,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *UseCase) ListItems(ctx context.Context) ([]domain.Item, error) {
	items, err := uc.items.List(ctx)
	if err != nil {
		return nil, err
	}
	if items == nil {
		items = []domain.Item{}
	}
	return items, nil
}

func (uc *UseCase) CreateItem(ctx context.Context, in CreateInput) (*domain.Item, error) {
	text := domain.NormalizeText(in.Text)
	if text == "" {
		return nil, domain.ErrEmptyText
	}
	quantity := 1
	if in.Quantity != nil {
		quantity = domain.ClampQuantityFloat(*in.Quantity)
	}

	item := &domain.Item{
		ID:        uuid.NewString(),
		Text:      text,
		Quantity:  quantity,
		CreatedAt: uc.now(),
	}

	created, err := uc.items.Create(ctx, item)
	if err != nil {
		if isClientError(err) {
			return nil, err
		}
		if uc.shouldBuffer(ctx, usecase.OperationCreate, item) {
			return item, nil
		}
		return nil, err
	}
	return created, nil
}

// UpdateItem applies a partial edit. An unknown id is reported before any
// payload validation.
func (uc *UseCase) UpdateItem(ctx context.Context, id string, in UpdateInput) (*domain.Item, error) {
	if _, err := uc.items.GetByID(ctx, id); err != nil {
		return nil, err
	}
	patch := domain.ItemPatch{Text: in.Text, Completed: in.Completed}
	if in.Quantity != nil {
		q := domain.ClampQuantityFloat(*in.Quantity)
		patch.Quantity = &q
	}
	if err := patch.Validate(); err != nil {
		return nil, err
	}
	return uc.items.Update(ctx, id, patch, uc.now())
}

func (uc *UseCase) DeleteItem(ctx context.Context, id string) error {
	if err := uc.items.Delete(ctx, id); err != nil {
		if isClientError(err) {
			return err
		}
		if uc.shouldBuffer(ctx, usecase.OperationDelete, &domain.Item{ID: id}) {
			return nil
		}
		return err
	}
	return nil
}

func (uc *UseCase) shouldBuffer(ctx context.Context, operation string, item *domain.Item) bool {
	if uc.buffer == nil {
		return false
	}
	if err := uc.buffer.BufferItem(ctx, operation, item); err != nil {
		uc.logger.Error("failed to buffer item operation", zap.String("operation", operation), zap.Error(err))
		return false
	}
	uc.logger.Warn("item operation buffered", zap.String("operation", operation), zap.String("item_id", item.ID))
	return true
}

func isClientError(err error) bool {
	if errors.Is(err, context.Canceled) {
		return true
	}
	return domain.IsDomainError(err, domain.ErrCodeNotFound) ||
		domain.IsDomainError(err, domain.ErrCodeInvalid) ||
		domain.IsDomainError(err, domain.ErrCodeConflict)
}
