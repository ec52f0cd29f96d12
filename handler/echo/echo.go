// Package echo implements a handler responding with a description of the request it
// received: method, path and headers, either as plain text or as JSON if the client
// accepts it.
package echo

import (
	"errors"
	"net/netip"
	"strconv"
	"strings"

	"github.com/indigo-web/embedweb"
	"github.com/indigo-web/embedweb/http/method"
	"github.com/indigo-web/embedweb/http/status"
	"github.com/indigo-web/embedweb/kv"
	"github.com/indigo-web/utils/strcomp"
	json "github.com/json-iterator/go"
	"go.uber.org/zap"
)

const (
	// MaxHeaders limits how many headers a single request may carry.
	MaxHeaders = 32
	banner     = "Hello world from embedded web server"
	mimeJSON   = "application/json"
)

var (
	ErrTooManyHeaders   = errors.New("echo: too many headers")
	ErrBadContentLength = errors.New("echo: bad content length")
)

var _ embedweb.Handler = new(Handler)

type Handler struct {
	logger        *zap.Logger
	method        method.Method
	path          string
	headers       *kv.Storage
	contentLength int
	received      int
	json          bool
}

func New(m method.Method, path string, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	return &Handler{
		logger:  logger,
		method:  m,
		path:    strings.Clone(path),
		headers: kv.NewPrealloc(8),
	}
}

// NewFactory returns a constructor suitable for the TCP host.
func NewFactory(logger *zap.Logger) func(netip.AddrPort, method.Method, string) (embedweb.Handler, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	return func(addr netip.AddrPort, m method.Method, path string) (embedweb.Handler, error) {
		return New(m, path, logger.With(zap.Stringer("addr", addr))), nil
	}
}

func (h *Handler) HeaderReceived(key, value string) (embedweb.ReadResult, error) {
	if h.headers.Len() >= MaxHeaders {
		return embedweb.Continue, ErrTooManyHeaders
	}

	if strcomp.EqualFold(key, "content-length") {
		length, err := strconv.Atoi(value)
		if err != nil || length < 0 {
			return embedweb.Continue, ErrBadContentLength
		}

		h.contentLength = length
	}

	h.headers.Add(strings.Clone(key), strings.Clone(value))

	return embedweb.Continue, nil
}

func (h *Handler) HeadersCompleted() (embedweb.ReadResult, error) {
	for accept := range h.headers.Values("accept") {
		if strings.Contains(accept, mimeJSON) {
			h.json = true
			break
		}
	}

	h.logger.Debug("headers received",
		zap.Int("count", h.headers.Len()),
		zap.String("host", h.headers.Value("host")),
	)

	if h.method.Bodyless() || h.contentLength == 0 {
		return embedweb.EndReading, nil
	}

	return embedweb.Continue, nil
}

func (h *Handler) BodyReceived(body []byte) (embedweb.ReadResult, error) {
	h.received += len(body)
	h.logger.Debug("body received", zap.Int("bytes", len(body)), zap.Int("total", h.received))

	if h.received >= h.contentLength {
		return embedweb.EndReading, nil
	}

	return embedweb.Continue, nil
}

// PollWrite writes the whole response at once.
func (h *Handler) PollWrite(w embedweb.ResponseWriter) (embedweb.WriteResult, error) {
	contentType := "text/plain"
	if h.json {
		contentType = mimeJSON
	}

	if _, err := w.WriteStatus(status.OK, ""); err != nil {
		return embedweb.MoreToWrite, err
	}
	if _, err := w.WriteHeader("content-type", contentType); err != nil {
		return embedweb.MoreToWrite, err
	}
	if _, err := w.WriteHeader("connection", "close"); err != nil {
		return embedweb.MoreToWrite, err
	}
	if _, err := w.EndHeaders(); err != nil {
		return embedweb.MoreToWrite, err
	}

	var err error
	if h.json {
		err = h.writeJSON(w)
	} else {
		err = h.writeText(w)
	}

	if err != nil {
		return embedweb.MoreToWrite, err
	}

	return embedweb.EndWriting, nil
}

func (h *Handler) writeText(w embedweb.ResponseWriter) error {
	if _, err := w.Printf("%s\n\nMethod: %s\nRequested path: %q\n", banner, h.method, h.path); err != nil {
		return err
	}

	if h.received > 0 {
		if _, err := w.Printf("Body length: %d\n", h.received); err != nil {
			return err
		}
	}

	if _, err := w.WriteString("\nReceived headers:\n"); err != nil {
		return err
	}

	if h.headers.Empty() {
		_, err := w.WriteString("    (none)\n")
		return err
	}

	for key, value := range h.headers.Pairs() {
		if _, err := w.Printf("    %s = %s\n", key, value); err != nil {
			return err
		}
	}

	return nil
}

type header struct {
	Key   string `json:"key"`
	Value string `json:"value"`
}

type description struct {
	Message    string   `json:"message"`
	Method     string   `json:"method"`
	Path       string   `json:"path"`
	BodyLength int      `json:"body_length"`
	Headers    []header `json:"headers"`
}

func (h *Handler) writeJSON(w embedweb.ResponseWriter) error {
	model := description{
		Message:    banner,
		Method:     h.method.String(),
		Path:       h.path,
		BodyLength: h.received,
		Headers:    make([]header, 0, h.headers.Len()),
	}

	for _, pair := range h.headers.Expose() {
		model.Headers = append(model.Headers, header{Key: pair.Key, Value: pair.Value})
	}

	stream := json.ConfigDefault.BorrowStream(w)
	stream.WriteVal(model)
	stream.WriteRaw("\n")
	err := stream.Flush()
	if err == nil {
		err = stream.Error
	}
	json.ConfigDefault.ReturnStream(stream)

	return err
}
