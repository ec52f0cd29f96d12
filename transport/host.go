package transport

import (
	"bytes"
	"context"
	stderrors "errors"
	"io"
	"net"
	"net/netip"
	"os"
	"time"

	"github.com/indigo-web/embedweb"
	"github.com/indigo-web/embedweb/config"
	"github.com/indigo-web/embedweb/errors"
	"github.com/indigo-web/embedweb/http/method"
	"github.com/indigo-web/embedweb/http/status"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// HandlerFactory constructs a handler for every request line received.
type HandlerFactory func(addr netip.AddrPort, m method.Method, path string) (embedweb.Handler, error)

var _ embedweb.ServerConfig[netip.AddrPort] = new(Host)

// Host runs the server over TCP. Connections are served by their own goroutines, which
// only read and forward the data into the event loop. The event loop is the only one
// touching the server and the connections map.
type Host struct {
	cfg     *config.Config
	factory HandlerFactory
	logger  *zap.Logger
	metrics *Metrics
	tcp     *TCP
	server  *embedweb.Server[netip.AddrPort]
	conns   map[netip.AddrPort]Client
	events  chan event
	// written counts bytes written by handlers, telling whether a write pass progressed.
	written uint64
}

func NewHost(cfg *config.Config, factory HandlerFactory, logger *zap.Logger, metrics *Metrics) *Host {
	if logger == nil {
		logger = zap.NewNop()
	}

	if metrics == nil {
		metrics = NewMetrics(nil)
	}

	h := &Host{
		cfg:     cfg,
		factory: factory,
		logger:  logger,
		metrics: metrics,
		tcp:     NewTCP(),
		conns:   make(map[netip.AddrPort]Client, cfg.Pool.MaxConnections),
		events:  make(chan event),
	}
	h.server = embedweb.New[netip.AddrPort](h, cfg.Pool.MaxConnections)

	return h
}

func (h *Host) NewHandler(addr netip.AddrPort, m method.Method, path string) (embedweb.Handler, error) {
	return h.factory(addr, m, path)
}

// OnWriteComplete closes the connection, as there's no keep-alive. The client itself
// is pruned by the server.
func (h *Host) OnWriteComplete(addr netip.AddrPort, _ embedweb.Handler) {
	h.metrics.Completed.Inc()
	h.logger.Debug("response completed", zap.Stringer("addr", addr))
	h.release(addr)
}

func (h *Host) Write(addr netip.AddrPort, b []byte) (n int, err error) {
	c, found := h.conns[addr]
	if !found {
		return 0, errors.ErrClientNotFound
	}

	n, err = c.Write(b)
	h.written += uint64(n)
	h.metrics.BytesWritten.Add(float64(n))

	return n, err
}

// Bind binds the address from the config.
func (h *Host) Bind() error {
	return h.tcp.Bind(h.cfg.NET.Addr)
}

// Addr returns the bound address.
func (h *Host) Addr() net.Addr {
	return h.tcp.Addr()
}

// Serve blocks until the context is done or the listener fails. Must be called once
// and only after Bind.
func (h *Host) Serve(ctx context.Context) error {
	h.logger.Info("serving",
		zap.Stringer("addr", h.Addr()),
		zap.Int("max_connections", h.server.Cap()),
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		<-gctx.Done()
		h.tcp.Stop()
		h.tcp.Close()
		return nil
	})
	g.Go(func() error {
		return h.tcp.Listen(h.cfg.NET, h.serve(gctx))
	})
	g.Go(func() error {
		return h.loop(gctx)
	})

	err := g.Wait()
	h.tcp.Wait()
	h.logger.Info("stopped")

	return err
}

// ListenAndServe is a shorthand for Bind and Serve.
func (h *Host) ListenAndServe(ctx context.Context) error {
	if err := h.Bind(); err != nil {
		return err
	}

	return h.Serve(ctx)
}

type eventKind uint8

const (
	eventConnected eventKind = iota
	eventData
	eventDisconnected
)

type event struct {
	kind   eventKind
	client Client
	data   []byte
	err    error
}

func (h *Host) serve(ctx context.Context) func(net.Conn) {
	return func(conn net.Conn) {
		c := NewClient(
			conn, h.cfg.NET.ReadTimeout, h.cfg.NET.WriteTimeout, make([]byte, h.cfg.NET.ReadBufferSize),
		)
		if !h.send(ctx, event{kind: eventConnected, client: c}) {
			return
		}

		for {
			data, err := c.Read()
			if len(data) > 0 {
				// the buffer is going to be overwritten by the next read, while the
				// event loop might not have processed the data yet
				if !h.send(ctx, event{kind: eventData, client: c, data: bytes.Clone(data)}) {
					return
				}
			}

			if err != nil {
				h.send(ctx, event{kind: eventDisconnected, client: c, err: err})
				return
			}
		}
	}
}

func (h *Host) send(ctx context.Context, ev event) bool {
	select {
	case h.events <- ev:
		return true
	case <-ctx.Done():
		return false
	}
}

// writeBackoff is how long the loop waits for network events before polling writers
// which made no progress on the previous pass.
const writeBackoff = 5 * time.Millisecond

func (h *Host) loop(ctx context.Context) error {
	defer h.dropAll()

	var stalled bool

	for {
		if h.pending() && !stalled {
			// handlers that still have something to write must be polled again
			// without waiting for the network
			select {
			case <-ctx.Done():
				return nil
			case ev := <-h.events:
				h.handle(ev)
			default:
			}
		} else {
			// nil unless stalled, blocking until an event arrives
			var backoff <-chan time.Time
			if stalled {
				backoff = time.After(writeBackoff)
			}

			select {
			case <-ctx.Done():
				return nil
			case ev := <-h.events:
				h.handle(ev)
			case <-backoff:
			}
		}

		before := h.written
		h.pollWrite()
		stalled = h.pending() && h.written == before
	}
}

func (h *Host) handle(ev event) {
	switch ev.kind {
	case eventConnected:
		h.accept(ev.client)
	case eventData:
		h.deliver(ev.client, ev.data)
	case eventDisconnected:
		h.disconnect(ev.client, ev.err)
	}
}

func (h *Host) accept(c Client) {
	addr := c.Remote()

	switch err := h.server.Accept(addr); {
	case err == nil:
		h.conns[addr] = c
		h.metrics.Accepted.Inc()
		h.metrics.Active.Set(float64(len(h.conns)))
		h.logger.Debug("accepted", zap.Stringer("addr", addr))
	case stderrors.Is(err, errors.ErrTooManyConnections):
		h.metrics.Rejected.WithLabelValues(reasonPoolFull).Inc()
		h.logger.Warn("rejected", zap.Stringer("addr", addr), zap.Error(err))
		reject(c, status.ServiceUnavailable)
	default:
		h.metrics.Rejected.WithLabelValues(reasonAlreadyConnected).Inc()
		h.logger.Warn("rejected", zap.Stringer("addr", addr), zap.Error(err))
		_ = c.Close()
	}
}

func (h *Host) deliver(c Client, data []byte) {
	addr := c.Remote()
	if h.conns[addr] != c {
		// data from a rejected or already dropped connection
		return
	}

	h.metrics.BytesReceived.Add(float64(len(data)))

	if err := h.server.Deliver(addr, data); err != nil {
		h.metrics.DeliveryErrors.Inc()
		h.logger.Debug("bad request", zap.Stringer("addr", addr), zap.Error(err))
		h.server.Disconnect(addr)
		delete(h.conns, addr)
		h.metrics.Active.Set(float64(len(h.conns)))
		reject(c, status.BadRequest)
	}
}

func (h *Host) disconnect(c Client, reason error) {
	addr := c.Remote()
	if h.conns[addr] != c {
		return
	}

	switch {
	case stderrors.Is(reason, os.ErrDeadlineExceeded):
		h.logger.Debug("idle connection evicted", zap.Stringer("addr", addr))
	case stderrors.Is(reason, io.EOF):
		h.logger.Debug("closed by peer", zap.Stringer("addr", addr))
	default:
		h.logger.Debug("connection failed", zap.Stringer("addr", addr), zap.Error(reason))
	}

	h.drop(addr)
}

func (h *Host) pollWrite() {
	for {
		err := h.server.PollWriteAll()
		if err == nil {
			return
		}

		var clientErr *embedweb.ClientError[netip.AddrPort]
		if !stderrors.As(err, &clientErr) {
			h.logger.Error("unexpected poll failure", zap.Error(err))
			return
		}

		h.metrics.WriteErrors.Inc()
		h.logger.Warn("response failed", zap.Stringer("addr", clientErr.Addr), zap.Error(clientErr.Err))
		h.drop(clientErr.Addr)
	}
}

// pending reports whether any client is still writing.
func (h *Host) pending() bool {
	for addr := range h.conns {
		if state, _ := h.server.State(addr); state == embedweb.Writing {
			return true
		}
	}

	return false
}

func (h *Host) drop(addr netip.AddrPort) {
	h.server.Disconnect(addr)
	h.release(addr)
}

// release closes the connection without touching the server, therefore is safe to
// be called from within the server hooks.
func (h *Host) release(addr netip.AddrPort) {
	if c, found := h.conns[addr]; found {
		delete(h.conns, addr)
		_ = c.Close()
	}

	h.metrics.Active.Set(float64(len(h.conns)))
}

func (h *Host) dropAll() {
	for addr := range h.conns {
		h.drop(addr)
	}
}

// reject answers with a bare status line and closes the connection. Write errors
// are ignored, as the connection is going to be closed anyway.
func reject(c Client, code status.Code) {
	w := embedweb.NewWriter(c)
	_, _ = w.WriteStatus(code, "")
	_, _ = w.WriteHeader("connection", "close")
	_, _ = w.EndHeaders()
	_ = c.Close()
}
