package dummy

import (
	"github.com/indigo-web/embedweb"
)

var _ embedweb.Handler = new(Handler)

// Handler is a scripted handler. By default, it ends reading right after the headers
// and writes the Response in a single poll.
type Handler struct {
	Headers [][2]string
	Body    []byte
	// BodyLength makes the handler expect a body of that many bytes.
	BodyLength int
	// Response is written as is, split into Chunks polls.
	Response string
	Chunks   int
	Polls    int
	// Err, if set, is returned from the hook with the matching name.
	Err     error
	ErrHook string

	stopOnHeader string
	ignoreErrors bool
}

func NewHandler() *Handler {
	return &Handler{
		Response: "HTTP/1.1 200 OK\r\n\r\n",
		Chunks:   1,
	}
}

// ExpectBody makes the handler read a body of n bytes after the headers.
func (h *Handler) ExpectBody(n int) *Handler {
	h.BodyLength = n
	return h
}

// Respond sets the response and the number of polls it's split into.
func (h *Handler) Respond(response string, chunks int) *Handler {
	h.Response, h.Chunks = response, max(chunks, 1)
	return h
}

// FailOn makes the hook named so return the error. Hooks are named after their methods.
func (h *Handler) FailOn(hook string, err error) *Handler {
	h.ErrHook, h.Err = hook, err
	return h
}

// StopOnHeader makes the handler end reading as soon as the header with the key arrives.
func (h *Handler) StopOnHeader(key string) *Handler {
	h.stopOnHeader = key
	return h
}

// IgnoreWriteErrors makes PollWrite pretend every write succeeded.
func (h *Handler) IgnoreWriteErrors() *Handler {
	h.ignoreErrors = true
	return h
}

func (h *Handler) HeaderReceived(key, value string) (embedweb.ReadResult, error) {
	if h.ErrHook == "HeaderReceived" {
		return embedweb.Continue, h.Err
	}

	h.Headers = append(h.Headers, [2]string{key, value})
	if len(h.stopOnHeader) > 0 && key == h.stopOnHeader {
		return embedweb.EndReading, nil
	}

	return embedweb.Continue, nil
}

func (h *Handler) HeadersCompleted() (embedweb.ReadResult, error) {
	if h.ErrHook == "HeadersCompleted" {
		return embedweb.Continue, h.Err
	}

	if h.BodyLength == 0 {
		return embedweb.EndReading, nil
	}

	return embedweb.Continue, nil
}

func (h *Handler) BodyReceived(body []byte) (embedweb.ReadResult, error) {
	if h.ErrHook == "BodyReceived" {
		return embedweb.Continue, h.Err
	}

	h.Body = append(h.Body, body...)
	if len(h.Body) >= h.BodyLength {
		return embedweb.EndReading, nil
	}

	return embedweb.Continue, nil
}

func (h *Handler) PollWrite(w embedweb.ResponseWriter) (embedweb.WriteResult, error) {
	if h.ErrHook == "PollWrite" {
		return embedweb.MoreToWrite, h.Err
	}

	chunk := (len(h.Response) + h.Chunks - 1) / h.Chunks
	from := min(h.Polls*chunk, len(h.Response))
	to := min(from+chunk, len(h.Response))
	h.Polls++

	if _, err := w.WriteString(h.Response[from:to]); err != nil && !h.ignoreErrors {
		return embedweb.MoreToWrite, err
	}

	if to == len(h.Response) {
		return embedweb.EndWriting, nil
	}

	return embedweb.MoreToWrite, nil
}
