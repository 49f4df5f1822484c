package observer

// invalidTargetError signals a target that fails the watched-element
// capability check (must be an element owned by a host document).
type invalidTargetError struct{ msg string }

func (e invalidTargetError) Error() string { return "invalid target: " + e.msg }

// ErrInvalidTarget constructs an invalidTargetError.
func ErrInvalidTarget(msg string) error { return invalidTargetError{msg: msg} }

// IsInvalidTarget reports whether err is a target capability failure.
func IsInvalidTarget(err error) bool {
	_, ok := err.(invalidTargetError)
	return ok
}

// missingArgumentError signals a missing required argument at the public
// wrapper layer, before any delegation into the core.
type missingArgumentError struct{ what string }

func (e missingArgumentError) Error() string { return "missing argument: " + e.what }

// ErrMissingArgument constructs a missingArgumentError.
func ErrMissingArgument(what string) error { return missingArgumentError{what: what} }

// IsMissingArgument reports whether err is an arity validation failure.
func IsMissingArgument(err error) bool {
	_, ok := err.(missingArgumentError)
	return ok
}

// constructionError signals an unusable consumer callback at observer
// construction time.
type constructionError struct{ msg string }

func (e constructionError) Error() string { return e.msg }

// ErrConstruction constructs a constructionError.
func ErrConstruction(msg string) error { return constructionError{msg: msg} }

// IsConstruction reports whether err was raised at construction.
func IsConstruction(err error) bool {
	_, ok := err.(constructionError)
	return ok
}
