package utils

// Value dereferences v, returning the zero value for nil
func Value[T any](v *T) T {
	if v == nil {
		var zero T
		return zero
	}
	return *v
}

// Ptr returns a pointer to a copy of v. Useful for optional wire fields.
func Ptr[T any](v T) *T {
	return &v
}
