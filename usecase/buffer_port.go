package usecase

import (
	"context"

	"github.com/fastygo/shoplist/domain"
)

const (
	OperationCreate = "create"
	OperationDelete = "delete"
)

// OperationBuffer parks item writes that primary storage rejected so they can
// be replayed once it recovers.
type OperationBuffer interface {
	BufferItem(ctx context.Context, operation string, item *domain.Item) error
}
