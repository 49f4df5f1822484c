package service

// notFoundError signals an unknown element or observer id for 404 mapping.
type notFoundError struct{ what, id string }

func (e notFoundError) Error() string { return e.what + " not found: " + e.id }

// ErrNotFound constructs a notFoundError.
func ErrNotFound(what, id string) error { return notFoundError{what: what, id: id} }

// IsNotFound reports whether err indicates a missing element or observer.
func IsNotFound(err error) bool {
	_, ok := err.(notFoundError)
	return ok
}
