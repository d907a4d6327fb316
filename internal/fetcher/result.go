package fetcher

// Result represents the outcome of a fetch operation for one symbol.
// A failed Result still carries a usable Value: the empty payload for its
// type, so callers can store it without a nil check.
type Result[T any] struct {
	// Key is the symbol the result belongs to
	Key string

	// Value is the fetched payload, or the empty payload on failure
	Value T

	// Error contains the error that emptied Value, if any
	Error error
}

// OK reports whether the fetch succeeded.
func (r Result[T]) OK() bool {
	return r.Error == nil
}

// Success builds a successful Result.
func Success[T any](key string, value T) Result[T] {
	return Result[T]{Key: key, Value: value}
}

// Failure builds a failed Result carrying the empty payload.
func Failure[T any](key string, empty T, err error) Result[T] {
	return Result[T]{Key: key, Value: empty, Error: err}
}
