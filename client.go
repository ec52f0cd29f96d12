package embedweb

import (
	"github.com/indigo-web/embedweb/errors"
	"github.com/indigo-web/embedweb/internal/parser/http1"
)

// client is the parsing and writing progress of a single connection. The handler is nil
// only while reading the request line.
type client[A comparable] struct {
	addr    A
	state   ClientState
	handler Handler
	out     configWriter[A]
	writer  Writer
}

func newClient[A comparable](addr A) client[A] {
	return client[A]{
		addr:  addr,
		state: ReadingRequestLine,
	}
}

// deliver consumes the data line by line until either it's exhausted, the client got
// to writing, or an error occurred. Lines aren't buffered among calls, so a line
// crossing the data boundary results in a parsing error.
func (c *client[A]) deliver(config ServerConfig[A], data []byte) error {
	for {
		switch {
		case c.state == ReadingRequestLine && c.handler == nil:
			if len(data) == 0 {
				return nil
			}

			m, path, rest, err := http1.ReadRequestLine(data)
			if err != nil {
				return err
			}

			handler, err := config.NewHandler(c.addr, m, path)
			if err != nil {
				return err
			}

			c.handler = handler
			c.state = ReadingHeaders
			data = rest
		case c.state == ReadingHeaders && c.handler != nil:
			if len(data) == 0 {
				return nil
			}

			line, rest, err := http1.ReadHeaderLine(data)
			if err != nil {
				return err
			}

			var result ReadResult
			if line.Blank {
				result, err = c.handler.HeadersCompleted()
			} else {
				result, err = c.handler.HeaderReceived(line.Key, line.Value)
			}

			switch {
			case err != nil:
				return err
			case result == EndReading:
				c.state = Writing
				return nil
			case line.Blank:
				c.state = ReadingBody
			}

			data = rest
		case c.state == ReadingBody && c.handler != nil:
			result, err := c.handler.BodyReceived(data)
			if err != nil {
				return err
			}

			if result == EndReading {
				c.state = Writing
			}

			return nil
		case c.state == Writing, c.state == Done:
			return nil
		default:
			return errors.ErrInvalidClientState
		}
	}
}

// pollWrite gives the handler a single attempt to write. A client without a handler
// has nothing to write, therefore is considered done.
func (c *client[A]) pollWrite(config ServerConfig[A]) (WriteResult, error) {
	if c.handler == nil {
		return EndWriting, nil
	}

	c.out = configWriter[A]{
		config: config,
		addr:   c.addr,
	}
	c.writer.reset(&c.out)

	result, err := c.handler.PollWrite(&c.writer)
	if err == nil {
		// the handler might have ignored a failed write, but the response is broken anyway
		err = c.writer.Err()
	}

	return result, err
}
