// Package http1 contains line-oriented parsing primitives for HTTP/1.x requests. Every
// function is stateless and restartable: it consumes a single line out of the passed
// buffer and returns whatever remains after it. Incomplete lines are errors, no data
// is kept between calls.
//
// Returned strings are zero-copy views into the passed buffer, so they're valid only
// as long as the buffer itself isn't modified.
package http1

import (
	"bytes"

	"github.com/indigo-web/embedweb/errors"
	"github.com/indigo-web/embedweb/http/method"
	"github.com/indigo-web/utils/uf"
)

// ReadRequestLine parses `<METHOD> <PATH> <VERSION>\n`. The path is everything between
// the first and the last space of the line, so it may contain spaces itself. The version
// token isn't validated.
func ReadRequestLine(data []byte) (m method.Method, path string, rest []byte, err error) {
	line, rest, ok := readASCIIUntil(data, '\n')
	if !ok {
		return method.Unknown, "", nil, errors.ErrInvalidRequestLine
	}

	sp := bytes.IndexByte(line, ' ')
	if sp == -1 {
		return method.Unknown, "", nil, errors.ErrInvalidRequestLine
	}

	m = method.Parse(uf.B2S(line[:sp]))
	if m == method.Unknown {
		return method.Unknown, "", nil, errors.ErrInvalidHTTPMethod
	}

	line = line[sp+1:]
	sp = bytes.LastIndexByte(line, ' ')
	if sp == -1 {
		return method.Unknown, "", nil, errors.ErrInvalidRequestLine
	}

	// TODO: reject protocol tokens other than HTTP/1.0 and HTTP/1.1
	return m, uf.B2S(line[:sp]), rest, nil
}

// readASCIIUntil returns everything before the first occurrence of char and everything
// after it. It fails if the char isn't found or a non-ASCII byte precedes it.
func readASCIIUntil(data []byte, char byte) (before, after []byte, ok bool) {
	for i, c := range data {
		if c >= 0x80 {
			return nil, nil, false
		}

		if c == char {
			return data[:i], data[i+1:], true
		}
	}

	return nil, nil, false
}
