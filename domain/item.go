package domain

import (
	"math"
	"strings"
	"time"
)

// Item represents a single shopping-list entry.
type Item struct {
	ID          string     `json:"id"`
	Text        string     `json:"text"`
	Quantity    int        `json:"quantity"`
	Completed   bool       `json:"completed"`
	CreatedAt   time.Time  `json:"createdAt"`
	CompletedAt *time.Time `json:"completedAt"`
}

// ItemPatch carries a partial update. Nil fields are left untouched.
type ItemPatch struct {
	Text      *string
	Quantity  *int
	Completed *bool
}

func (p ItemPatch) IsEmpty() bool {
	return p.Text == nil && p.Quantity == nil && p.Completed == nil
}

// Validate trims and clamps the patch in place.
func (p *ItemPatch) Validate() error {
	if p == nil {
		return ErrInvalidPayload
	}
	if p.Text != nil {
		text := NormalizeText(*p.Text)
		if text == "" {
			return ErrEmptyText
		}
		p.Text = &text
	}
	if p.Quantity != nil {
		q := ClampQuantity(*p.Quantity)
		p.Quantity = &q
	}
	return nil
}

// ApplyPatch returns a copy of the item with the patch applied at the given time.
// completedAt follows the toggle rules: stamped on false->true, cleared on true->false,
// kept when the flag does not change.
func (i Item) ApplyPatch(p ItemPatch, now time.Time) Item {
	if p.Text != nil {
		i.Text = *p.Text
	}
	if p.Quantity != nil {
		i.Quantity = *p.Quantity
	}
	if p.Completed != nil && *p.Completed != i.Completed {
		i.Completed = *p.Completed
		if i.Completed {
			stamp := now
			i.CompletedAt = &stamp
		} else {
			i.CompletedAt = nil
		}
	}
	return i
}

// NormalizeText trims surrounding whitespace from a label.
func NormalizeText(text string) string {
	return strings.TrimSpace(text)
}

// ClampQuantity keeps quantity at 1 or more.
func ClampQuantity(q int) int {
	if q < 1 {
		return 1
	}
	return q
}

// ClampQuantityFloat floors a JSON-decoded number before clamping it.
func ClampQuantityFloat(q float64) int {
	if math.IsNaN(q) || q < 1 {
		return 1
	}
	if q > math.MaxInt32 {
		return math.MaxInt32
	}
	return int(math.Floor(q))
}

// FormatDate renders a nullable timestamp for display.
func FormatDate(t *time.Time) string {
	if t == nil || t.IsZero() {
		return "—"
	}
	return t.Local().Format("2006-01-02 15:04:05")
}
