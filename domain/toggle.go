package domain

import "time"

// AllCompleted is true for a non-empty list where every item is completed.
func AllCompleted(items []Item) bool {
	if len(items) == 0 {
		return false
	}
	for _, item := range items {
		if !item.Completed {
			return false
		}
	}
	return true
}

// ToggleUpdateFor flips a single item's completion state at the given time.
func ToggleUpdateFor(item Item, now time.Time) ToggleItem {
	if item.Completed {
		return ToggleItem{ID: item.ID, Completed: false}
	}
	stamp := now
	return ToggleItem{ID: item.ID, Completed: true, CompletedAt: &stamp}
}

// ToggleAllUpdates builds the batch for the check/uncheck-all gesture.
// When everything is already completed every item is unchecked and loses its
// completedAt. Otherwise items that are already completed keep their original
// completedAt and the rest are completed at now.
func ToggleAllUpdates(items []Item, now time.Time) []ToggleUpdate {
	uncheck := AllCompleted(items)
	updates := make([]ToggleUpdate, 0, len(items))
	for _, item := range items {
		switch {
		case uncheck:
			updates = append(updates, ToggleUpdate{ID: item.ID, Completed: false})
		case item.Completed:
			updates = append(updates, ToggleUpdate{ID: item.ID, Completed: true, CompletedAt: item.CompletedAt})
		default:
			stamp := now
			updates = append(updates, ToggleUpdate{ID: item.ID, Completed: true, CompletedAt: &stamp})
		}
	}
	return updates
}
