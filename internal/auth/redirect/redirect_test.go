package redirect

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidate(t *testing.T) {
	v := New("/dashboard")

	tests := []struct {
		name      string
		candidate string
		want      string
	}{
		{"empty falls back", "", "/dashboard"},
		{"relative path passes", "/dashboard/my-lists", "/dashboard/my-lists"},
		{"root passes", "/", "/"},
		{"query string preserved", "/places?sort=name", "/places?sort=name"},
		{"protocol-relative rejected", "//evil.com", "/dashboard"},
		{"protocol-relative with path rejected", "//evil.com/login", "/dashboard"},
		{"absolute http rejected", "http://evil.com/", "/dashboard"},
		{"absolute https rejected", "https://evil.com/dashboard", "/dashboard"},
		{"javascript scheme rejected", "javascript:alert(1)", "/dashboard"},
		{"data scheme rejected", "data:text/html,<script></script>", "/dashboard"},
		{"bare word rejected", "dashboard", "/dashboard"},
		{"backslash prefix rejected", "\\evil.com", "/dashboard"},
		{"whitespace prefix rejected", " /dashboard", "/dashboard"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, v.Validate(tt.candidate))
		})
	}
}

// Every input maps to some safe target: either the default or a
// single-slash-prefixed path. No input may escape the origin.
func TestValidateTotal(t *testing.T) {
	v := New("/home")
	inputs := []string{
		"", "/", "//", "///x", "a", ":", "/ok", "https://x", "javascript:x", "//x/y",
	}
	for _, in := range inputs {
		got := v.Validate(in)
		if got != "/home" {
			assert.True(t, got[0] == '/' && (len(got) == 1 || got[1] != '/'),
				"unsafe target %q for input %q", got, in)
		}
	}
}

func TestDefault(t *testing.T) {
	assert.Equal(t, "/home", New("/home").Default())
}
