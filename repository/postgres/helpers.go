package postgres

import (
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fastygo/shoplist/domain"
)

const uniqueViolation = "23505"

const itemColumns = `id, text, quantity, completed, created_at, completed_at`

func scanItem(row interface {
	Scan(dest ...interface{}) error
}) (*domain.Item, error) {
	var (
		item        domain.Item
		completedAt *time.Time
	)
	if err := row.Scan(
		&item.ID,
		&item.Text,
		&item.Quantity,
		&item.Completed,
		&item.CreatedAt,
		&completedAt,
	); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrItemNotFound
		}
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return nil, domain.WrapError(domain.ErrCodeConflict, "item already exists", err)
		}
		return nil, err
	}
	item.CreatedAt = item.CreatedAt.UTC()
	if completedAt != nil {
		utc := completedAt.UTC()
		item.CompletedAt = &utc
	}
	return &item, nil
}

func nullTime(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return *t
}
