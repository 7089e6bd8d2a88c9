package domain

import "strings"

// HasDuplicate reports whether text collides with an existing item, ignoring case and
// surrounding whitespace. An item whose ID equals a non-empty excludeID never matches.
func HasDuplicate(items []Item, text, excludeID string) bool {
	needle := foldText(text)
	for _, item := range items {
		if excludeID != "" && item.ID == excludeID {
			continue
		}
		if foldText(item.Text) == needle {
			return true
		}
	}
	return false
}

func foldText(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
