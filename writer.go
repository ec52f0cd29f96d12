package embedweb

import (
	"fmt"
	"io"

	"github.com/indigo-web/embedweb/http/status"
	"github.com/indigo-web/utils/uf"
)

// ResponseWriter is the sink handed to the handler while writing. Every method funnels
// through the same underlying transport write, and the first failure of it sticks: all
// the following writes are suppressed and return that very error.
type ResponseWriter interface {
	io.Writer
	io.StringWriter
	// Printf is the formatted-output primitive.
	Printf(format string, args ...any) (n int, err error)
	// WriteStatus writes the status line. An empty text is replaced by the code's
	// canonical reason phrase.
	WriteStatus(code status.Code, text string) (n int, err error)
	WriteHeader(key, value string) (n int, err error)
	// EndHeaders writes the blank line separating headers from the body.
	EndHeaders() (n int, err error)
}

var _ ResponseWriter = new(Writer)

// Writer is the ResponseWriter implementation over an arbitrary io.Writer. It counts
// the written bytes and remembers the first error.
type Writer struct {
	dst     io.Writer
	err     error
	written int
}

func NewWriter(dst io.Writer) *Writer {
	return &Writer{dst: dst}
}

func (w *Writer) reset(dst io.Writer) {
	w.dst = dst
	w.err = nil
	w.written = 0
}

func (w *Writer) Write(p []byte) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}

	n, err = w.dst.Write(p)
	w.written += n
	if err != nil {
		w.err = err
	}

	return n, err
}

func (w *Writer) WriteString(s string) (n int, err error) {
	return w.Write(uf.S2B(s))
}

func (w *Writer) Printf(format string, args ...any) (n int, err error) {
	if w.err != nil {
		return 0, w.err
	}

	return fmt.Fprintf(w, format, args...)
}

func (w *Writer) WriteStatus(code status.Code, text string) (n int, err error) {
	if len(text) == 0 {
		text = status.Text(code)
	}

	return w.Printf("HTTP/1.1 %d %s\r\n", code, text)
}

func (w *Writer) WriteHeader(key, value string) (n int, err error) {
	return w.Printf("%s: %s\r\n", key, value)
}

func (w *Writer) EndHeaders() (n int, err error) {
	return w.Printf("\r\n")
}

// Written returns the number of bytes successfully handed to the destination.
func (w *Writer) Written() int {
	return w.written
}

// Err returns the first error occurred, if any.
func (w *Writer) Err() error {
	return w.err
}

// configWriter routes writes into the ServerConfig for a single address.
type configWriter[A comparable] struct {
	config ServerConfig[A]
	addr   A
}

func (c *configWriter[A]) Write(b []byte) (n int, err error) {
	return c.config.Write(c.addr, b)
}
