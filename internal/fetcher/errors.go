package fetcher

import "errors"

var (
	// ErrTransport is returned when http request can't be completed (DNS, connection, timeout).
	ErrTransport = errors.New("transport error")
	// ErrMethodNotSupported is returned when fetcher is asked to use method other than GET or HEAD.
	ErrMethodNotSupported = errors.New("http method not supported")
)
