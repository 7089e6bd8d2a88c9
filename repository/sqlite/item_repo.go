// Package sqlite stores list items in an embedded SQLite database.
//
// Use Open to connect; the schema is created on open.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/repository"
)

const timeLayout = time.RFC3339Nano

const schema = `
CREATE TABLE IF NOT EXISTS items (
	id TEXT PRIMARY KEY,
	text TEXT NOT NULL,
	quantity INTEGER NOT NULL DEFAULT 1,
	completed INTEGER NOT NULL DEFAULT 0,
	created_at TEXT NOT NULL,
	completed_at TEXT
);
`

// DB wraps the SQLite connection and implements repository.ItemRepository.
type DB struct {
	db *sql.DB
}

var _ repository.ItemRepository = (*DB)(nil)

// Open opens or creates the database at path and ensures the schema exists.
func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// A single connection keeps writes serialized.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to create schema: %w", err)
	}
	return &DB{db: db}, nil
}

func (d *DB) Close() error {
	return d.db.Close()
}

func (d *DB) List(ctx context.Context) ([]domain.Item, error) {
	rows, err := d.db.QueryContext(ctx, `
		SELECT id, text, quantity, completed, created_at, completed_at
		FROM items ORDER BY rowid`)
	if err != nil {
		return nil, fmt.Errorf("failed to list items: %w", err)
	}
	defer rows.Close()

	items := make([]domain.Item, 0)
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, err
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (d *DB) GetByID(ctx context.Context, id string) (*domain.Item, error) {
	return getItem(ctx, d.db, id)
}

func (d *DB) Create(ctx context.Context, item *domain.Item) (*domain.Item, error) {
	if item == nil {
		return nil, domain.ErrInvalidPayload
	}
	created := domain.Item{
		ID:        item.ID,
		Text:      domain.NormalizeText(item.Text),
		Quantity:  domain.ClampQuantity(item.Quantity),
		CreatedAt: item.CreatedAt.UTC(),
	}
	if created.ID == "" {
		created.ID = uuid.NewString()
	}
	if created.CreatedAt.IsZero() {
		created.CreatedAt = time.Now().UTC()
	}

	_, err := d.db.ExecContext(ctx, `
		INSERT INTO items (id, text, quantity, completed, created_at, completed_at)
		VALUES (?, ?, ?, 0, ?, NULL)`,
		created.ID, created.Text, created.Quantity, created.CreatedAt.Format(timeLayout),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return nil, domain.WrapError(domain.ErrCodeConflict, "item already exists", err)
		}
		return nil, fmt.Errorf("failed to create item: %w", err)
	}
	return &created, nil
}

func (d *DB) Update(ctx context.Context, id string, patch domain.ItemPatch, now time.Time) (*domain.Item, error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	current, err := getItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	next := current.ApplyPatch(patch, now.UTC())

	if _, err := tx.ExecContext(ctx, `
		UPDATE items SET text = ?, quantity = ?, completed = ?, completed_at = ?
		WHERE id = ?`,
		next.Text, next.Quantity, next.Completed, formatNullTime(next.CompletedAt), id,
	); err != nil {
		return nil, fmt.Errorf("failed to update item: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit update: %w", err)
	}
	return &next, nil
}

func (d *DB) Delete(ctx context.Context, id string) error {
	result, err := d.db.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("failed to delete item: %w", err)
	}
	rows, _ := result.RowsAffected()
	if rows == 0 {
		return domain.ErrItemNotFound
	}
	return nil
}

func (d *DB) Ping(ctx context.Context) error {
	return d.db.PingContext(ctx)
}

type queryer interface {
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func getItem(ctx context.Context, q queryer, id string) (*domain.Item, error) {
	row := q.QueryRowContext(ctx, `
		SELECT id, text, quantity, completed, created_at, completed_at
		FROM items WHERE id = ?`, id)
	item, err := scanItem(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrItemNotFound
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func scanItem(row interface{ Scan(dest ...any) error }) (domain.Item, error) {
	var (
		item        domain.Item
		createdAt   string
		completedAt sql.NullString
	)
	if err := row.Scan(&item.ID, &item.Text, &item.Quantity, &item.Completed, &createdAt, &completedAt); err != nil {
		return domain.Item{}, err
	}

	parsed, err := time.Parse(timeLayout, createdAt)
	if err != nil {
		return domain.Item{}, fmt.Errorf("failed to parse created_at: %w", err)
	}
	item.CreatedAt = parsed

	if completedAt.Valid {
		done, err := time.Parse(timeLayout, completedAt.String)
		if err != nil {
			return domain.Item{}, fmt.Errorf("failed to parse completed_at: %w", err)
		}
		item.CompletedAt = &done
	}
	return item, nil
}

func formatNullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return t.UTC().Format(timeLayout)
}
