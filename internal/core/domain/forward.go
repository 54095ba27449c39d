package domain

import (
	"errors"
	"net/http"
)

var ErrUnknownBackend = errors.New("unknown backend")
var ErrDownstreamTimeout = errors.New("downstream timeout")
var ErrDownstreamUnavailable = errors.New("downstream unavailable")

// ForwardRequest describes one proxy operation against a named backend.
//
// Body may be nil, a pre-serialized payload ([]byte or string, passed
// through untouched), or any other value, which is serialized to JSON
// before dispatch.
type ForwardRequest struct {
	Backend string
	Path    string
	Method  string
	Headers http.Header
	Body    any
}

// ForwardResponse carries the downstream exchange back verbatim. Status,
// headers and body are relayed byte-for-byte, 4xx/5xx included.
type ForwardResponse struct {
	Status  int
	Headers http.Header
	Body    []byte
}
