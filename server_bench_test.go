package embedweb_test

import (
	"testing"

	"github.com/indigo-web/embedweb"
	"github.com/indigo-web/embedweb/http/method"
	"github.com/indigo-web/embedweb/internal/requestgen"
	"github.com/indigo-web/embedweb/kv"
)

type discardConfig struct{}

func (discardConfig) NewHandler(int, method.Method, string) (embedweb.Handler, error) {
	return staticHandler{}, nil
}

func (discardConfig) OnWriteComplete(int, embedweb.Handler) {}

func (discardConfig) Write(_ int, b []byte) (int, error) {
	return len(b), nil
}

type staticHandler struct{}

func (staticHandler) HeaderReceived(string, string) (embedweb.ReadResult, error) {
	return embedweb.Continue, nil
}

func (staticHandler) HeadersCompleted() (embedweb.ReadResult, error) {
	return embedweb.EndReading, nil
}

func (staticHandler) BodyReceived([]byte) (embedweb.ReadResult, error) {
	return embedweb.EndReading, nil
}

func (staticHandler) PollWrite(w embedweb.ResponseWriter) (embedweb.WriteResult, error) {
	_, err := w.WriteString("HTTP/1.1 200 OK\r\ncontent-length: 0\r\n\r\n")
	return embedweb.EndWriting, err
}

func BenchmarkServer(b *testing.B) {
	bench := func(b *testing.B, headers *kv.Storage) {
		request := requestgen.Generate("hello/world", headers)
		srv := embedweb.New[int](discardConfig{}, 4)
		b.SetBytes(int64(len(request)))
		b.ReportAllocs()
		b.ResetTimer()

		for i := 0; i < b.N; i++ {
			_ = srv.Accept(1)
			_ = srv.Deliver(1, request)
			_ = srv.PollWriteAll()
		}
	}

	b.Run("1 header", func(b *testing.B) {
		bench(b, requestgen.Headers(1))
	})

	b.Run("10 headers", func(b *testing.B) {
		bench(b, requestgen.Headers(10))
	})

	b.Run("30 headers", func(b *testing.B) {
		bench(b, requestgen.Headers(30))
	})
}
