package services

import (
	"context"
	"encoding/json"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/infrastructure/buffer"
	"github.com/fastygo/shoplist/usecase"
)

// BufferBridge turns item writes into buffered ops for the processor.
type BufferBridge struct {
	processor *BufferProcessor
}

func NewBufferBridge(processor *BufferProcessor) *BufferBridge {
	return &BufferBridge{processor: processor}
}

func (b *BufferBridge) BufferItem(ctx context.Context, operation string, item *domain.Item) error {
	if b.processor == nil || item == nil {
		return domain.ErrInvalidPayload
	}
	op := buffer.Op{
		Entity:    buffer.EntityItem,
		Operation: operation,
		TargetID:  item.ID,
		Priority:  buffer.PriorityNormal,
	}
	if operation == usecase.OperationCreate {
		payload, err := json.Marshal(item)
		if err != nil {
			return err
		}
		op.Data = payload
	}
	return b.processor.BufferOperation(ctx, op)
}

var _ usecase.OperationBuffer = (*BufferBridge)(nil)
