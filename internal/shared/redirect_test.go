package shared

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSafeRedirect(t *testing.T) {
	cases := []struct {
		name string
		to   string
		want string
	}{
		{"empty falls back", "", "/notes"},
		{"relative path passes", "/notes/abc", "/notes/abc"},
		{"root passes", "/", "/"},
		{"absolute url rejected", "https://evil.example", "/notes"},
		{"protocol relative rejected", "//evil.example", "/notes"},
		{"backslash trick rejected", "/\\evil.example", "/notes"},
		{"missing slash rejected", "notes", "/notes"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, SafeRedirect(tc.to, "/notes"))
		})
	}
}
