package embedweb_test

import (
	stderrors "errors"
	"strconv"
	"testing"

	"github.com/indigo-web/embedweb"
	"github.com/indigo-web/embedweb/errors"
	"github.com/indigo-web/embedweb/http/method"
	"github.com/indigo-web/embedweb/transport/dummy"
	"github.com/stretchr/testify/require"
)

func newServer(capacity int) (*embedweb.Server[string], *dummy.Config) {
	cfg := dummy.NewConfig()
	return embedweb.New[string](cfg, capacity), cfg
}

func requireState(t *testing.T, srv *embedweb.Server[string], addr string, want embedweb.ClientState) {
	state, found := srv.State(addr)
	require.True(t, found, "client %s not found", addr)
	require.Equal(t, want.String(), state.String())
}

func TestServer_Accept(t *testing.T) {
	t.Run("already connected", func(t *testing.T) {
		srv, _ := newServer(4)
		require.NoError(t, srv.Accept("A"))
		require.ErrorIs(t, srv.Accept("A"), errors.ErrAlreadyConnected)
		require.Equal(t, 1, srv.Len())
	})

	t.Run("reconnect after completion", func(t *testing.T) {
		srv, _ := newServer(4)
		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Deliver("A", []byte("GET / HTTP/1.1\r\n\r\n")))
		requireState(t, srv, "A", embedweb.Writing)
		require.ErrorIs(t, srv.Accept("A"), errors.ErrAlreadyConnected)
		require.NoError(t, srv.PollWriteAll())
		_, found := srv.State("A")
		require.False(t, found)

		require.NoError(t, srv.Accept("A"))
		requireState(t, srv, "A", embedweb.ReadingRequestLine)
	})

	t.Run("too many connections", func(t *testing.T) {
		srv, _ := newServer(2)
		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Accept("B"))
		require.ErrorIs(t, srv.Accept("C"), errors.ErrTooManyConnections)
		require.Equal(t, 2, srv.Len())
		require.Equal(t, 2, srv.Cap())

		_, found := srv.State("C")
		require.False(t, found)
	})

	t.Run("capacity reclaimed after poll", func(t *testing.T) {
		srv, _ := newServer(1)
		require.NoError(t, srv.Accept("A"))
		require.ErrorIs(t, srv.Accept("B"), errors.ErrTooManyConnections)

		require.NoError(t, srv.Deliver("A", []byte("GET / HTTP/1.1\n\r\n")))
		require.NoError(t, srv.PollWriteAll())
		require.Zero(t, srv.Len())
		require.NoError(t, srv.Accept("B"))
	})

	t.Run("zero capacity", func(t *testing.T) {
		srv, _ := newServer(0)
		require.ErrorIs(t, srv.Accept("A"), errors.ErrTooManyConnections)
	})

	t.Run("negative capacity", func(t *testing.T) {
		srv, _ := newServer(-1)
		require.Zero(t, srv.Cap())
		require.ErrorIs(t, srv.Accept("A"), errors.ErrTooManyConnections)
	})
}

func TestServer_Disconnect(t *testing.T) {
	t.Run("removes in any state", func(t *testing.T) {
		srv, cfg := newServer(4)
		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Accept("B"))
		require.NoError(t, srv.Deliver("B", []byte("GET / HTTP/1.1\r\n")))
		requireState(t, srv, "B", embedweb.ReadingHeaders)

		srv.Disconnect("A")
		srv.Disconnect("B")
		require.Zero(t, srv.Len())
		require.Empty(t, cfg.Completed)
	})

	t.Run("absent address", func(t *testing.T) {
		srv, _ := newServer(4)
		require.NoError(t, srv.Accept("A"))
		srv.Disconnect("B")
		require.Equal(t, 1, srv.Len())
	})

	t.Run("keeps the order", func(t *testing.T) {
		srv, _ := newServer(4)
		for _, addr := range []string{"A", "B", "C"} {
			require.NoError(t, srv.Accept(addr))
		}

		srv.Disconnect("B")
		require.NoError(t, srv.Deliver("C", []byte("GET /c HTTP/1.1\r\n")))
		requireState(t, srv, "A", embedweb.ReadingRequestLine)
		requireState(t, srv, "C", embedweb.ReadingHeaders)
	})
}

func TestServer_Deliver(t *testing.T) {
	t.Run("unknown address", func(t *testing.T) {
		srv, _ := newServer(4)
		err := srv.Deliver("A", []byte("GET / HTTP/1.1\r\n\r\n"))
		require.ErrorIs(t, err, errors.ErrClientNotFound)
		require.NotErrorIs(t, err, errors.ErrTooManyConnections)
	})

	t.Run("routes by address", func(t *testing.T) {
		srv, cfg := newServer(4)
		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Accept("B"))
		require.NoError(t, srv.Deliver("B", []byte("POST /b HTTP/1.1\r\n")))
		require.NoError(t, srv.Deliver("A", []byte("GET /a HTTP/1.1\r\n")))

		require.Equal(t, []dummy.Request{
			{Addr: "B", Method: method.POST, Path: "/b"},
			{Addr: "A", Method: method.GET, Path: "/a"},
		}, cfg.Requests)
	})
}

func TestServer_PollWriteAll(t *testing.T) {
	t.Run("nothing to write", func(t *testing.T) {
		srv, cfg := newServer(4)
		require.NoError(t, srv.PollWriteAll())

		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Deliver("A", []byte("GET / HTTP/1.1\r\n")))
		require.NoError(t, srv.PollWriteAll())
		require.NoError(t, srv.PollWriteAll())
		require.Zero(t, cfg.Writes())
		requireState(t, srv, "A", embedweb.ReadingHeaders)
	})

	t.Run("multiple polls", func(t *testing.T) {
		srv, cfg := newServer(4)
		handler := dummy.NewHandler().Respond("HTTP/1.1 200 OK\r\n\r\nHello, world!", 3)
		cfg.Handlers = func(string, method.Method, string) (embedweb.Handler, error) {
			return handler, nil
		}

		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Deliver("A", []byte("GET / HTTP/1.1\r\n\r\n")))

		require.NoError(t, srv.PollWriteAll())
		requireState(t, srv, "A", embedweb.Writing)
		require.NoError(t, srv.PollWriteAll())
		requireState(t, srv, "A", embedweb.Writing)
		require.Empty(t, cfg.Completed)
		require.NoError(t, srv.PollWriteAll())

		_, found := srv.State("A")
		require.False(t, found)
		require.Equal(t, []string{"A"}, cfg.Completed)
		require.Equal(t, "HTTP/1.1 200 OK\r\n\r\nHello, world!", cfg.Written("A"))
		require.Equal(t, 3, handler.Polls)
	})

	t.Run("write failure", func(t *testing.T) {
		srv, cfg := newServer(4)
		transportErr := stderrors.New("broken pipe")
		cfg.Fail("B", transportErr)

		for _, addr := range []string{"A", "B", "C"} {
			require.NoError(t, srv.Accept(addr))
			require.NoError(t, srv.Deliver(addr, []byte("GET / HTTP/1.1\r\n\r\n")))
		}

		err := srv.PollWriteAll()
		require.ErrorIs(t, err, transportErr)

		var clientErr *embedweb.ClientError[string]
		require.ErrorAs(t, err, &clientErr)
		require.Equal(t, "B", clientErr.Addr)

		// A has been completed and pruned even though the pass was aborted, while
		// C hasn't been polled at all
		require.Equal(t, []string{"A"}, cfg.Completed)
		_, found := srv.State("A")
		require.False(t, found)
		requireState(t, srv, "B", embedweb.Writing)
		requireState(t, srv, "C", embedweb.Writing)

		srv.Disconnect("B")
		require.NoError(t, srv.PollWriteAll())
		require.Equal(t, []string{"A", "C"}, cfg.Completed)
		require.Zero(t, srv.Len())
	})

	t.Run("write failure ignored by the handler", func(t *testing.T) {
		srv, cfg := newServer(4)
		transportErr := stderrors.New("broken pipe")
		cfg.Fail("A", transportErr)
		cfg.Handlers = func(string, method.Method, string) (embedweb.Handler, error) {
			return dummy.NewHandler().IgnoreWriteErrors(), nil
		}

		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Deliver("A", []byte("GET / HTTP/1.1\r\n\r\n")))

		err := srv.PollWriteAll()
		require.ErrorIs(t, err, transportErr)
		var clientErr *embedweb.ClientError[string]
		require.ErrorAs(t, err, &clientErr)
		require.Equal(t, "A", clientErr.Addr)
		require.Empty(t, cfg.Completed)
		requireState(t, srv, "A", embedweb.Writing)
	})

	t.Run("handler failure", func(t *testing.T) {
		srv, cfg := newServer(4)
		handlerErr := stderrors.New("no response for you")
		cfg.Handlers = func(string, method.Method, string) (embedweb.Handler, error) {
			return dummy.NewHandler().FailOn("PollWrite", handlerErr), nil
		}

		require.NoError(t, srv.Accept("A"))
		require.NoError(t, srv.Deliver("A", []byte("GET / HTTP/1.1\r\n\r\n")))
		require.ErrorIs(t, srv.PollWriteAll(), handlerErr)
		require.Empty(t, cfg.Completed)
	})
}

func TestServer_EndToEnd(t *testing.T) {
	srv, cfg := newServer(4)
	require.NoError(t, srv.Accept("A"))
	require.NoError(t, srv.Deliver("A", []byte("GET /x HTTP/1.1\n\r\n")))

	require.Equal(t, []dummy.Request{{Addr: "A", Method: method.GET, Path: "/x"}}, cfg.Requests)
	requireState(t, srv, "A", embedweb.Writing)

	for i := 0; srv.Len() > 0; i++ {
		require.Less(t, i, 10, "the handler never finished")
		require.NoError(t, srv.PollWriteAll())
	}

	require.Equal(t, []string{"A"}, cfg.Completed)
	require.Equal(t, "HTTP/1.1 200 OK\r\n\r\n", cfg.Written("A"))

	for i := 0; i < 4; i++ {
		require.NoError(t, srv.Accept("client"+strconv.Itoa(i)))
	}
}
