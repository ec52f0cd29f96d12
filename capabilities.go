package embedweb

import (
	"github.com/indigo-web/embedweb/http/method"
)

// ReadResult tells the client state machine how to proceed after a reading hook.
type ReadResult uint8

const (
	// Continue keeps on reading the request. It's the zero value.
	Continue ReadResult = iota
	// EndReading stops reading immediately and moves the client to writing, e.g. for
	// bodyless requests or when the body is complete.
	EndReading
)

// WriteResult tells the pool whether the handler is done writing its response.
type WriteResult uint8

const (
	// MoreToWrite keeps the client in writing, so it'll be polled again on the next pass.
	// It's the zero value.
	MoreToWrite WriteResult = iota
	// EndWriting marks the response as completely written.
	EndWriting
)

// ServerConfig bridges the engine to the real transport. The pool owns the only
// instance for its whole lifetime.
type ServerConfig[A comparable] interface {
	// NewHandler constructs the application logic for a freshly parsed request line.
	// The path is only valid during the call, so it must be copied if retained.
	NewHandler(addr A, m method.Method, path string) (Handler, error)
	// OnWriteComplete is called exactly once, after the handler reported EndWriting.
	// Usually used to close the connection.
	OnWriteComplete(addr A, handler Handler)
	// Write pushes the bytes to the transport of the address.
	Write(addr A, b []byte) (n int, err error)
}

// Handler is the per-request application logic. Strings and byte slices passed into
// the reading hooks are views into the delivered data and must be copied if retained.
// Any returned error aborts the processing and is returned to the host as is.
type Handler interface {
	HeaderReceived(key, value string) (ReadResult, error)
	// HeadersCompleted is called on the blank line terminating the headers section.
	// Returning Continue means a body is expected.
	HeadersCompleted() (ReadResult, error)
	// BodyReceived gets everything delivered after the headers, verbatim. It may be
	// called with an empty slice right after the headers.
	BodyReceived(body []byte) (ReadResult, error)
	// PollWrite is called once per pool write pass while the client is in writing.
	PollWrite(w ResponseWriter) (WriteResult, error)
}
