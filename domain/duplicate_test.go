package domain

import "testing"

func TestHasDuplicate(t *testing.T) {
	items := []Item{
		{ID: "item-1", Text: "Milk"},
		{ID: "item-2", Text: "Bread"},
	}

	tests := []struct {
		name      string
		text      string
		excludeID string
		want      bool
	}{
		{"exact", "Milk", "", true},
		{"lower case", "milk", "", true},
		{"upper case", "MILK", "", true},
		{"padded", " Milk ", "", true},
		{"no match", "Eggs", "", false},
		{"empty", "", "", false},
		{"excluded self", "milk", "item-1", false},
		{"excluded other", "milk", "item-2", true},
		{"unknown exclude", "Bread", "missing", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := HasDuplicate(items, tt.text, tt.excludeID); got != tt.want {
				t.Errorf("HasDuplicate(%q, %q) = %v, want %v", tt.text, tt.excludeID, got, tt.want)
			}
		})
	}
}

func TestHasDuplicateIgnoresStoredWhitespace(t *testing.T) {
	items := []Item{{ID: "a", Text: "  Oat Milk "}}
	if !HasDuplicate(items, "oat milk", "") {
		t.Fatal("expected stored text to be normalized before comparison")
	}
}
