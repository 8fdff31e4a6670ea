// Package redirect decides whether a caller-supplied post-action destination
// is safe to navigate to. Anything that is not a same-origin relative path
// collapses to the configured default, closing the open-redirect hole.
package redirect

import "strings"

// Validator validates untrusted redirect targets. The zero value is not
// usable; construct with New.
type Validator struct {
	defaultTarget string
}

// New builds a Validator that falls back to defaultTarget.
func New(defaultTarget string) Validator {
	return Validator{defaultTarget: defaultTarget}
}

// Default returns the configured fallback target.
func (v Validator) Default() string {
	return v.defaultTarget
}

// Validate maps any input to a safe target. Valid candidates start with
// exactly one "/": absolute URLs, protocol-relative "//" URLs, and scheme
// payloads like "javascript:" all fail the prefix test and fall back to the
// default. Never returns an error; every input maps to some safe target.
func (v Validator) Validate(candidate string) string {
	if candidate == "" {
		return v.defaultTarget
	}
	if !strings.HasPrefix(candidate, "/") {
		return v.defaultTarget
	}
	if strings.HasPrefix(candidate, "//") {
		return v.defaultTarget
	}
	return candidate
}
