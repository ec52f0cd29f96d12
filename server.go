// Package embedweb is an HTTP/1.1 server engine with a bounded number of connections
// and no transport logic of its own. The host feeds it with accept/disconnect events
// and received bytes, and the engine talks back through a ServerConfig.
//
// The engine is single-threaded: none of the methods may be called concurrently, so
// hosts having multiple goroutines must serialize their calls, e.g. via an event loop.
package embedweb

import (
	"fmt"

	"github.com/indigo-web/embedweb/errors"
)

// Server is the connection pool. Its capacity is fixed at construction, and the clients
// storage is never reallocated.
type Server[A comparable] struct {
	config  ServerConfig[A]
	clients []client[A]
}

// New returns a pool holding at most capacity clients. A non-positive capacity results
// in a pool rejecting every connection.
func New[A comparable](config ServerConfig[A], capacity int) *Server[A] {
	return &Server[A]{
		config:  config,
		clients: make([]client[A], 0, max(capacity, 0)),
	}
}

// Accept registers a new connection. An address occupied by a finished client is
// silently taken over, while an address of an active one results in
// errors.ErrAlreadyConnected.
func (s *Server[A]) Accept(addr A) error {
	if i := s.find(addr); i != -1 {
		if s.clients[i].state != Done {
			return errors.ErrAlreadyConnected
		}

		s.remove(i)
	}

	if len(s.clients) == cap(s.clients) {
		return errors.ErrTooManyConnections
	}

	s.clients = append(s.clients, newClient(addr))
	return nil
}

// Disconnect drops the client together with its handler, whatever state it's in. No
// hooks are called.
func (s *Server[A]) Disconnect(addr A) {
	if i := s.find(addr); i != -1 {
		s.remove(i)
	}
}

// Deliver feeds the client with the received data. Every line of the request line and
// headers section must be fully contained within a single delivery, otherwise it's a
// parsing error. Any error means the client must be disconnected.
func (s *Server[A]) Deliver(addr A, data []byte) error {
	i := s.find(addr)
	if i == -1 {
		return errors.ErrClientNotFound
	}

	return s.clients[i].deliver(s.config, data)
}

// PollWriteAll gives every writing client a single attempt to write. A failed attempt
// aborts the pass, returning *ClientError; the client must then be disconnected by the
// caller. Finished clients are pruned at the end of every pass, failed or not.
func (s *Server[A]) PollWriteAll() error {
	defer s.prune()

	for i := range s.clients {
		c := &s.clients[i]
		if c.state != Writing {
			continue
		}

		result, err := c.pollWrite(s.config)
		if err != nil {
			return &ClientError[A]{Addr: c.addr, Err: err}
		}

		if result == EndWriting {
			c.state = Done
			s.config.OnWriteComplete(c.addr, c.handler)
		}
	}

	return nil
}

// State returns the state of the client at the address, if there's any.
func (s *Server[A]) State(addr A) (state ClientState, found bool) {
	if i := s.find(addr); i != -1 {
		return s.clients[i].state, true
	}

	return state, false
}

// Len returns the number of clients currently occupying the pool.
func (s *Server[A]) Len() int {
	return len(s.clients)
}

// Cap returns the capacity of the pool.
func (s *Server[A]) Cap() int {
	return cap(s.clients)
}

func (s *Server[A]) find(addr A) int {
	for i := range s.clients {
		if s.clients[i].addr == addr {
			return i
		}
	}

	return -1
}

// remove preserves the order of the remaining clients.
func (s *Server[A]) remove(i int) {
	last := len(s.clients) - 1
	copy(s.clients[i:], s.clients[i+1:])
	s.clients[last] = client[A]{}
	s.clients = s.clients[:last]
}

func (s *Server[A]) prune() {
	kept := s.clients[:0]
	for _, c := range s.clients {
		if c.state != Done {
			kept = append(kept, c)
		}
	}

	clear(s.clients[len(kept):])
	s.clients = kept
}

// ClientError binds an error to the client it occurred on.
type ClientError[A comparable] struct {
	Addr A
	Err  error
}

func (c *ClientError[A]) Error() string {
	return fmt.Sprintf("client %v: %s", c.Addr, c.Err)
}

func (c *ClientError[A]) Unwrap() error {
	return c.Err
}
