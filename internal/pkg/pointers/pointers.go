package pointers

import "strings"

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// NonEmpty returns a pointer to s, or nil when s is blank.
func NonEmpty(s string) *string {
	if strings.TrimSpace(s) == "" {
		return nil
	}
	return &s
}

// Deref returns *p, or the zero value when p is nil.
func Deref[T any](p *T) T {
	if p == nil {
		var zero T
		return zero
	}
	return *p
}
