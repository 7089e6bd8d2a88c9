// Package shoplist holds the client-side list: the authoritative in-memory
// items, the view state and the toast, plus the gestures that change them.
package shoplist

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/fastygo/shoplist/domain"
	"github.com/fastygo/shoplist/internal/toast"
	"github.com/fastygo/shoplist/pkg/itemsapi"
	"github.com/fastygo/shoplist/repository"
)

// ErrDuplicate is returned when an add or edit would repeat an existing text.
var ErrDuplicate = domain.NewError(domain.ErrCodeConflict, "item already in list")

// Remote is the CRUD API the controller drives in remote mode.
type Remote interface {
	List(ctx context.Context) ([]domain.Item, error)
	Create(ctx context.Context, text string, quantity int) (*domain.Item, error)
	Update(ctx context.Context, id string, patch itemsapi.Patch) (*domain.Item, error)
	Delete(ctx context.Context, id string) error
}

type Options struct {
	Toast  toast.Options
	Logger *zap.Logger
	Now    func() time.Time
	NewID  func() string
	// Parallel bounds concurrent requests during toggle-all in remote mode.
	Parallel int
}

// Controller is safe for concurrent use. Gestures are serialized by gesture.
// mu guards items and view and is never held across I/O or toast delivery.
type Controller struct {
	gesture sync.Mutex

	mu    sync.Mutex
	items []domain.Item
	view  ViewOptions

	remote Remote
	store  repository.ListStore

	toast    *toast.Toast
	logger   *zap.Logger
	now      func() time.Time
	newID    func() string
	parallel int
}

// NewRemote returns a controller that applies changes only after the API
// accepts them, using the values the server returns.
func NewRemote(api Remote, opts Options) *Controller {
	c := newController(opts)
	c.remote = api
	return c
}

// NewLocal returns a controller that changes memory first and then saves the
// whole list. Save failures are reported but memory is kept.
func NewLocal(store repository.ListStore, opts Options) *Controller {
	c := newController(opts)
	c.store = store
	return c
}

func newController(opts Options) *Controller {
	if opts.Logger == nil {
		opts.Logger = zap.NewNop()
	}
	if opts.Toast.Logger == nil {
		opts.Toast.Logger = opts.Logger
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.NewID == nil {
		opts.NewID = uuid.NewString
	}
	if opts.Parallel <= 0 {
		opts.Parallel = 4
	}
	return &Controller{
		items:    []domain.Item{},
		toast:    toast.New(opts.Toast),
		logger:   opts.Logger,
		now:      opts.Now,
		newID:    opts.NewID,
		parallel: opts.Parallel,
	}
}

// Items returns a copy of the stored list in stored order.
func (c *Controller) Items() []domain.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]domain.Item(nil), c.items...)
}

// Visible returns the filtered and sorted projection.
func (c *Controller) Visible() []domain.Item {
	c.mu.Lock()
	defer c.mu.Unlock()
	return Project(c.items, c.view)
}

func (c *Controller) View() ViewOptions {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.view
}

func (c *Controller) AllCompleted() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return domain.AllCompleted(c.items)
}

func (c *Controller) Toast() toast.State {
	return c.toast.State()
}

func (c *Controller) SetFilter(text string) {
	c.mu.Lock()
	c.view.Filter = text
	c.mu.Unlock()
}

func (c *Controller) SetHideCompleted(hide bool) {
	c.mu.Lock()
	c.view.HideCompleted = hide
	c.mu.Unlock()
}

func (c *Controller) SetOrder(order SortOrder) {
	c.mu.Lock()
	c.view.Order = order
	c.mu.Unlock()
}

// FlipSort toggles ascending and descending order and returns the new order.
func (c *Controller) FlipSort() SortOrder {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.view.Order = c.view.Order.Flip()
	return c.view.Order
}

// Close stops the toast timers.
func (c *Controller) Close() {
	c.toast.Close()
}

func (c *Controller) Load(ctx context.Context) error {
	return c.run(func() (string, error) {
		var (
			items []domain.Item
			err   error
		)
		if c.remote != nil {
			items, err = c.remote.List(ctx)
		} else {
			items, err = c.store.Load(ctx)
		}
		if err != nil {
			return c.fail("load items", err)
		}
		if items == nil {
			items = []domain.Item{}
		}
		c.apply(domain.LoadItems{Items: items})
		return "", nil
	})
}

// Add appends a new item. Blank text is ignored; a duplicate shows a toast.
func (c *Controller) Add(ctx context.Context, text string, quantity int) error {
	value := domain.NormalizeText(text)
	if value == "" {
		return nil
	}
	quantity = domain.ClampQuantity(quantity)

	return c.run(func() (string, error) {
		if domain.HasDuplicate(c.Items(), value, "") {
			return DuplicateMessage(value), ErrDuplicate
		}

		if c.remote != nil {
			created, err := c.remote.Create(ctx, value, quantity)
			if err != nil {
				return c.fail("add item", err)
			}
			c.apply(domain.AddItem{
				ID:        created.ID,
				Text:      created.Text,
				Quantity:  created.Quantity,
				CreatedAt: created.CreatedAt,
			})
			return "", nil
		}

		c.apply(domain.AddItem{
			ID:        c.newID(),
			Text:      value,
			Quantity:  quantity,
			CreatedAt: c.now(),
		})
		return c.save(ctx, "add item")
	})
}

// Remove deletes by ID. A server-side 404 still drops the item locally.
func (c *Controller) Remove(ctx context.Context, id string) error {
	return c.run(func() (string, error) {
		if c.remote != nil {
			if err := c.remote.Delete(ctx, id); err != nil && !domain.IsDomainError(err, domain.ErrCodeNotFound) {
				return c.fail("delete item", err)
			}
			c.apply(domain.RemoveItem{ID: id})
			return "", nil
		}

		c.apply(domain.RemoveItem{ID: id})
		return c.save(ctx, "delete item")
	})
}

// Edit replaces text and quantity. Blank text is ignored; a duplicate of
// another item shows a toast.
func (c *Controller) Edit(ctx context.Context, id, text string, quantity int) error {
	value := domain.NormalizeText(text)
	if value == "" {
		return nil
	}
	quantity = domain.ClampQuantity(quantity)

	return c.run(func() (string, error) {
		if domain.HasDuplicate(c.Items(), value, id) {
			return DuplicateMessage(value), ErrDuplicate
		}

		if c.remote != nil {
			updated, err := c.remote.Update(ctx, id, itemsapi.Patch{Text: &value, Quantity: &quantity})
			if err != nil {
				return c.fail("edit item", err)
			}
			c.apply(domain.EditItem{ID: id, Text: updated.Text, Quantity: updated.Quantity})
			return "", nil
		}

		c.apply(domain.EditItem{ID: id, Text: value, Quantity: quantity})
		return c.save(ctx, "edit item")
	})
}

// Toggle flips one item's completion. Unknown IDs are ignored.
func (c *Controller) Toggle(ctx context.Context, id string) error {
	return c.run(func() (string, error) {
		item, ok := c.find(id)
		if !ok {
			return "", nil
		}

		if c.remote != nil {
			next := !item.Completed
			updated, err := c.remote.Update(ctx, id, itemsapi.Patch{Completed: &next})
			if err != nil {
				return c.fail("toggle item", err)
			}
			c.apply(domain.ToggleItem{ID: id, Completed: updated.Completed, CompletedAt: updated.CompletedAt})
			return "", nil
		}

		c.apply(domain.ToggleUpdateFor(item, c.now()))
		return c.save(ctx, "toggle item")
	})
}

// ToggleAll completes every item, or unchecks every item when all are
// already completed. An empty list is left alone.
func (c *Controller) ToggleAll(ctx context.Context) error {
	return c.run(func() (string, error) {
		items := c.Items()
		if len(items) == 0 {
			return "", nil
		}

		if c.remote != nil {
			updates, err := c.toggleAllRemote(ctx, items)
			if err != nil {
				return c.fail("toggle all items", err)
			}
			c.apply(domain.ToggleAll{Updates: updates})
			return "", nil
		}

		c.apply(domain.ToggleAll{Updates: domain.ToggleAllUpdates(items, c.now())})
		return c.save(ctx, "toggle all items")
	})
}

func (c *Controller) toggleAllRemote(ctx context.Context, items []domain.Item) ([]domain.ToggleUpdate, error) {
	target := !domain.AllCompleted(items)
	updates := make([]domain.ToggleUpdate, len(items))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(c.parallel)
	for i, item := range items {
		i, id := i, item.ID
		g.Go(func() error {
			updated, err := c.remote.Update(gctx, id, itemsapi.Patch{Completed: &target})
			if err != nil {
				return err
			}
			updates[i] = domain.ToggleUpdate{ID: updated.ID, Completed: updated.Completed, CompletedAt: updated.CompletedAt}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return updates, nil
}

// run serializes one gesture and shows its toast once every lock is released.
// OnChange may block until a UI loop reads it, and that loop reads the list.
func (c *Controller) run(fn func() (string, error)) error {
	c.gesture.Lock()
	msg, err := fn()
	c.gesture.Unlock()

	if msg != "" {
		c.toast.Show(msg)
	}
	return err
}

func (c *Controller) apply(action domain.Action) {
	c.mu.Lock()
	c.items = domain.Apply(c.items, action)
	c.mu.Unlock()
}

func (c *Controller) find(id string) (domain.Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, item := range c.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.Item{}, false
}

func (c *Controller) save(ctx context.Context, verb string) (string, error) {
	if err := c.store.Save(ctx, c.Items()); err != nil {
		return c.fail(verb, err)
	}
	return "", nil
}

func (c *Controller) fail(verb string, err error) (string, error) {
	c.logger.Warn("list operation failed", zap.String("operation", verb), zap.Error(err))
	return FailureMessage(verb), fmt.Errorf("%s: %w", verb, err)
}

// DuplicateMessage is the toast shown when text is already listed.
func DuplicateMessage(text string) string {
	return `"` + text + `" is already in your list`
}

// FailureMessage is the toast shown when persisting a change fails.
func FailureMessage(verb string) string {
	return "Failed to " + verb + ". Please try again."
}

// IsDuplicate reports whether err came from a rejected duplicate.
func IsDuplicate(err error) bool {
	return errors.Is(err, ErrDuplicate)
}
