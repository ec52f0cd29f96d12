// Package errors holds every error the engine may produce. All of them are sentinel
// values, so they must be compared with errors.Is, as handler and transport errors
// may wrap them.
package errors

import (
	"errors"
)

var (
	// ErrTooManyConnections is returned when accepting a client into a pool which is
	// already full.
	ErrTooManyConnections = errors.New("too many connections")
	// ErrClientNotFound is returned when an operation addresses a client the pool
	// (or the host) doesn't track.
	ErrClientNotFound = errors.New("client not found")
	// ErrAlreadyConnected is returned when accepting an address which is still occupied
	// by a client that hasn't finished yet.
	ErrAlreadyConnected = errors.New("client is already connected")

	ErrInvalidRequestLine = errors.New("invalid request line")
	ErrInvalidHTTPMethod  = errors.New("invalid http method")
	ErrInvalidHTTPHeader  = errors.New("invalid http header")

	// ErrInvalidClientState signals a broken internal invariant: the client's state
	// doesn't match the presence of its handler. Hosts may also return it from
	// ServerConfig.Write when the transport is in a state it can't write in.
	ErrInvalidClientState = errors.New("invalid client state")
)
