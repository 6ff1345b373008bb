package pointers

// Ptr returns a pointer to v.
func Ptr[T any](v T) *T { return &v }

// NonEmpty returns nil for a blank string.
func NonEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
