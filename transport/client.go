package transport

import (
	"net"
	"net/netip"
	"time"
)

type Client interface {
	Read() ([]byte, error)
	Write([]byte) (int, error)
	Remote() netip.AddrPort
	Close() error
}

type client struct {
	conn         net.Conn
	remote       netip.AddrPort
	buff         []byte
	readTimeout  time.Duration
	writeTimeout time.Duration
}

func NewClient(conn net.Conn, readTimeout, writeTimeout time.Duration, buff []byte) Client {
	return &client{
		conn:         conn,
		remote:       addrOf(conn.RemoteAddr()),
		buff:         buff,
		readTimeout:  readTimeout,
		writeTimeout: writeTimeout,
	}
}

// Read reads data into the internal buffer and returns a piece of it back. The returned
// slice is valid until the next call. Timeouts are also handled automatically, a zero
// timeout disables them.
func (c *client) Read() ([]byte, error) {
	if err := c.conn.SetReadDeadline(deadlineOf(c.readTimeout)); err != nil {
		return nil, err
	}

	n, err := c.conn.Read(c.buff)
	return c.buff[:n], err
}

// Write writes data into the underlying connection. A peer that doesn't read fails
// the write once the write timeout is over.
func (c *client) Write(b []byte) (int, error) {
	if err := c.conn.SetWriteDeadline(deadlineOf(c.writeTimeout)); err != nil {
		return 0, err
	}

	return c.conn.Write(b)
}

// Remote returns the remote address of the connection.
func (c *client) Remote() netip.AddrPort {
	return c.remote
}

// Close closes the connection.
func (c *client) Close() error {
	return c.conn.Close()
}

// deadlineOf returns the zero time for non-positive timeouts, which disables the deadline.
func deadlineOf(timeout time.Duration) time.Time {
	if timeout <= 0 {
		return time.Time{}
	}

	return time.Now().Add(timeout)
}

func addrOf(addr net.Addr) netip.AddrPort {
	if tcp, ok := addr.(*net.TCPAddr); ok {
		return tcp.AddrPort()
	}

	// non-TCP connections, e.g. pipes, have no meaningful address. An invalid one
	// is still fine as a key, as long as there's only one such connection at a time
	ap, _ := netip.ParseAddrPort(addr.String())
	return ap
}
