package domain

import "time"

// Action describes one requested mutation of the item collection.
// The set of actions is closed: only types in this package implement it.
type Action interface {
	isAction()
}

// LoadItems replaces the whole collection verbatim.
type LoadItems struct {
	Items []Item
}

// AddItem appends a new, uncompleted item. The caller supplies the identifier.
type AddItem struct {
	ID        string
	Text      string
	Quantity  int
	CreatedAt time.Time
}

// RemoveItem drops the item with the given identifier.
type RemoveItem struct {
	ID string
}

// EditItem replaces text and quantity of the matching item as given.
// Text is not trimmed and quantity is not clamped here; callers validate first.
type EditItem struct {
	ID       string
	Text     string
	Quantity int
}

// ToggleItem sets the completion state of one item.
type ToggleItem struct {
	ID          string
	Completed   bool
	CompletedAt *time.Time
}

// ToggleUpdate is one entry of a ToggleAll batch.
type ToggleUpdate struct {
	ID          string
	Completed   bool
	CompletedAt *time.Time
}

// ToggleAll applies a batch of completion updates. Items absent from Updates are untouched.
type ToggleAll struct {
	Updates []ToggleUpdate
}

func (LoadItems) isAction()  {}
func (AddItem) isAction()    {}
func (RemoveItem) isAction() {}
func (EditItem) isAction()   {}
func (ToggleItem) isAction() {}
func (ToggleAll) isAction()  {}
