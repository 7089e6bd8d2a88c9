package shoplist

import (
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/fastygo/shoplist/domain"
)

// SortOrder is the display order by item text.
type SortOrder int

const (
	Ascending SortOrder = iota
	Descending
)

// Label is what the sort button shows.
func (o SortOrder) Label() string {
	if o == Descending {
		return "Z→A"
	}
	return "A→Z"
}

func (o SortOrder) Flip() SortOrder {
	if o == Descending {
		return Ascending
	}
	return Descending
}

// ViewOptions select which items are shown and in what order.
type ViewOptions struct {
	Filter        string
	HideCompleted bool
	Order         SortOrder
}

// Project filters and sorts a copy of items. The input is never reordered.
// Text is compared with a locale-aware collator so "apple" and "Banana"
// order alphabetically rather than by byte value.
func Project(items []domain.Item, opts ViewOptions) []domain.Item {
	needle := strings.ToLower(opts.Filter)
	out := make([]domain.Item, 0, len(items))
	for _, item := range items {
		if opts.HideCompleted && item.Completed {
			continue
		}
		if needle != "" && !strings.Contains(strings.ToLower(item.Text), needle) {
			continue
		}
		out = append(out, item)
	}

	col := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(out, func(i, j int) bool {
		if opts.Order == Descending {
			return col.CompareString(out[j].Text, out[i].Text) < 0
		}
		return col.CompareString(out[i].Text, out[j].Text) < 0
	})
	return out
}
