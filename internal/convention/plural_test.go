package convention

import "testing"

// TestPluralize tests the pluralization heuristic.
func TestPluralize(t *testing.T) {
	t.Parallel()

	tests := []struct {
		word string
		want string
	}{
		// Already plural or s-terminated words are unchanged.
		{"Users", "Users"},
		{"Settings", "Settings"},
		{"Status", "Status"},
		// Exempt endings are unchanged.
		{"Config", "Config"},
		{"AppConfig", "AppConfig"},
		{"Health", "Health"},
		{"Metadata", "Metadata"},
		{"Media", "Media"},
		{"ServerInfo", "ServerInfo"},
		// Consonant + y becomes ies.
		{"Policy", "Policies"},
		{"Category", "Categories"},
		{"Company", "Companies"},
		// Vowel + y is regular.
		{"Key", "Keys"},
		{"Day", "Days"},
		// ch/sh/x/z endings get es.
		{"Branch", "Branches"},
		{"Dish", "Dishes"},
		{"Box", "Boxes"},
		{"Quiz", "Quizes"},
		// Default: append s.
		{"Invoice", "Invoices"},
		{"Order", "Orders"},
		{"Tenant", "Tenants"},
		// Edge cases.
		{"", ""},
		{"y", "ys"},
	}

	for _, tt := range tests {
		t.Run(tt.word, func(t *testing.T) {
			t.Parallel()

			if got := Pluralize(tt.word); got != tt.want {
				t.Errorf("Pluralize(%q) = %q, want %q", tt.word, got, tt.want)
			}
		})
	}
}

// TestPluralizeIdempotence verifies that pluralizing an already
// pluralized word changes nothing: every heuristic output ends in "s"
// or an exempt ending, both of which are returned unchanged.
func TestPluralizeIdempotence(t *testing.T) {
	t.Parallel()

	words := []string{
		"User", "Policy", "Branch", "Box", "Invoice", "Config",
		"Health", "Key", "Category", "Order", "Data",
	}

	for _, word := range words {
		once := Pluralize(word)
		twice := Pluralize(once)
		if once != twice {
			t.Errorf("Pluralize not idempotent for %q: %q -> %q", word, once, twice)
		}
	}
}
