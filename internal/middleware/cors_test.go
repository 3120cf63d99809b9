package middleware

import (
	"slices"
	"testing"
)

func TestParseOrigins(t *testing.T) {
	tests := []struct {
		raw  string
		want []string
	}{
		{"", []string{"*"}},
		{"*", []string{"*"}},
		{" * ", []string{"*"}},
		{"https://map.example.com", []string{"https://map.example.com"}},
		{"https://a.example.com, https://b.example.com ,", []string{"https://a.example.com", "https://b.example.com"}},
		{" , ", []string{"*"}},
	}
	for _, tt := range tests {
		if got := parseOrigins(tt.raw); !slices.Equal(got, tt.want) {
			t.Errorf("parseOrigins(%q) = %v, want %v", tt.raw, got, tt.want)
		}
	}
}
