package dummy

import (
	"github.com/indigo-web/embedweb"
	"github.com/indigo-web/embedweb/errors"
	"github.com/indigo-web/embedweb/http/method"
)

var _ embedweb.ServerConfig[string] = new(Config)

// Request is what a handler was constructed for.
type Request struct {
	Addr   string
	Method method.Method
	Path   string
}

// Config is a ServerConfig mock. It journals everything written per address, and
// records every constructed handler and every completion.
type Config struct {
	// Handlers produces handlers for NewHandler. If nil, a fresh NewHandler() is used.
	Handlers func(addr string, m method.Method, path string) (embedweb.Handler, error)

	Requests  []Request
	Completed []string
	written   map[string][]byte
	failing   map[string]error
	writes    int
	writeCap  int
}

func NewConfig() *Config {
	return &Config{
		written:  make(map[string][]byte),
		failing:  make(map[string]error),
		writeCap: -1,
	}
}

func (c *Config) NewHandler(addr string, m method.Method, path string) (embedweb.Handler, error) {
	c.Requests = append(c.Requests, Request{Addr: addr, Method: m, Path: path})

	if c.Handlers == nil {
		return NewHandler(), nil
	}

	return c.Handlers(addr, m, path)
}

func (c *Config) OnWriteComplete(addr string, _ embedweb.Handler) {
	c.Completed = append(c.Completed, addr)
}

func (c *Config) Write(addr string, b []byte) (n int, err error) {
	if err = c.failing[addr]; err != nil {
		return 0, err
	}

	if c.writeCap >= 0 && c.writes >= c.writeCap {
		return 0, errors.ErrClientNotFound
	}

	c.writes++
	c.written[addr] = append(c.written[addr], b...)

	return len(b), nil
}

// Fail makes every following write to the address fail with the error.
func (c *Config) Fail(addr string, err error) *Config {
	c.failing[addr] = err
	return c
}

// WriteCap limits the number of successful writes, regardless of the address. All the
// following ones fail with errors.ErrClientNotFound.
func (c *Config) WriteCap(n int) *Config {
	c.writeCap = n
	return c
}

// Writes returns the number of successful transport writes.
func (c *Config) Writes() int {
	return c.writes
}

// Written returns everything written to the address so far.
func (c *Config) Written(addr string) string {
	return string(c.written[addr])
}
