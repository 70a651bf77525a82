package internal

// Pointer - converts a literal to a pointer. Used for optional config values.
func Pointer[T any](v T) *T {
	return &v
}

// Dereference - returns the pointed-to value, or the zero value when p is nil.
func Dereference[T any](p *T) T {
	if p == nil {
		return *new(T)
	}
	return *p
}

// DereferenceOr - returns the pointed-to value, or def when p is nil.
func DereferenceOr[T any](p *T, def T) T {
	if p == nil {
		return def
	}
	return *p
}
