package domain

// Apply computes the next collection for the given action. It never mutates state.
// Recognized actions always return a fresh slice; anything else returns state itself
// so callers can detect a no-op by identity.
func Apply(state []Item, action Action) []Item {
	switch a := action.(type) {
	case LoadItems:
		return a.Items

	case AddItem:
		next := make([]Item, len(state), len(state)+1)
		copy(next, state)
		return append(next, Item{
			ID:        a.ID,
			Text:      NormalizeText(a.Text),
			Quantity:  ClampQuantity(a.Quantity),
			Completed: false,
			CreatedAt: a.CreatedAt,
		})

	case RemoveItem:
		next := make([]Item, 0, len(state))
		for _, item := range state {
			if item.ID != a.ID {
				next = append(next, item)
			}
		}
		return next

	case EditItem:
		return mapItems(state, func(item Item) Item {
			if item.ID != a.ID {
				return item
			}
			item.Text = a.Text
			item.Quantity = a.Quantity
			return item
		})

	case ToggleItem:
		return mapItems(state, func(item Item) Item {
			if item.ID != a.ID {
				return item
			}
			item.Completed = a.Completed
			item.CompletedAt = a.CompletedAt
			return item
		})

	case ToggleAll:
		updates := make(map[string]ToggleUpdate, len(a.Updates))
		for _, u := range a.Updates {
			if _, seen := updates[u.ID]; !seen {
				updates[u.ID] = u
			}
		}
		return mapItems(state, func(item Item) Item {
			u, ok := updates[item.ID]
			if !ok {
				return item
			}
			item.Completed = u.Completed
			item.CompletedAt = u.CompletedAt
			return item
		})

	default:
		return state
	}
}

func mapItems(state []Item, fn func(Item) Item) []Item {
	next := make([]Item, len(state))
	for i, item := range state {
		next[i] = fn(item)
	}
	return next
}
