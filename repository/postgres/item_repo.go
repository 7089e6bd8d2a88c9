package postgres

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/repository"
)

type itemRepository struct {
	pool *pgxpool.Pool
}

// NewItemRepository returns a Postgres-backed implementation of ItemRepository.
func NewItemRepository(pool *pgxpool.Pool) repository.ItemRepository {
	return &itemRepository{pool: pool}
}

func (r *itemRepository) List(ctx context.Context) ([]domain.Item, error) {
	const query = `
	SELECT ` + itemColumns + `
	FROM items
	ORDER BY position ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func (r *itemRepository) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	const query = `
	SELECT ` + itemColumns + `
	FROM items
	WHERE id = $1
	`
	return scanItem(r.pool.QueryRow(ctx, query, id))
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

	const query = `
	INSERT INTO items (id, text, quantity, completed, created_at, completed_at)
	VALUES ($1, $2, $3, FALSE, $4, NULL)
	RETURNING ` + itemColumns

	return scanItem(r.pool.QueryRow(ctx, query,
		item.ID,
		domain.NormalizeText(item.Text),
		domain.ClampQuantity(item.Quantity),
		item.CreatedAt,
	))
}

func (r *itemRepository) Update(ctx context.Context, id string, patch domain.ItemPatch, now time.Time) (*domain.Item, error) {
	// SET expressions all read the pre-update row, so completed_at sees the old flag.
	const query = `
	UPDATE items
	SET text = COALESCE($2::text, text),
		quantity = COALESCE($3::integer, quantity),
		completed_at = CASE
			WHEN $4::boolean IS NULL OR $4::boolean = completed THEN completed_at
			WHEN $4::boolean THEN $5::timestamptz
			ELSE NULL
		END,
		completed = COALESCE($4::boolean, completed)
	WHERE id = $1
	RETURNING ` + itemColumns

	return scanItem(r.pool.QueryRow(ctx, query,
		id,
		patch.Text,
		patch.Quantity,
		patch.Completed,
		nullTime(&now),
	))
}

func (r *itemRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM items WHERE id = $1`
	tag, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (r *itemRepository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}
