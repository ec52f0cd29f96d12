package http1

import (
	"bytes"

	"github.com/indigo-web/embedweb/errors"
	"github.com/indigo-web/utils/uf"
)

var crlf = []byte("\r\n")

// HeaderLine is a single parsed line of the headers section. Blank is set for the
// empty line terminating the section, in which case Key and Value are empty.
type HeaderLine struct {
	Key, Value string
	Blank      bool
}

// ReadHeaderLine parses either a `key: value\n` line or the `\r\n` line terminating the
// headers. Key and value are trimmed of surrounding whitespace, including a trailing \r.
func ReadHeaderLine(data []byte) (line HeaderLine, rest []byte, err error) {
	if rest, found := bytes.CutPrefix(data, crlf); found {
		return HeaderLine{Blank: true}, rest, nil
	}

	key, rest, ok := readASCIIUntil(data, ':')
	if !ok {
		return line, nil, errors.ErrInvalidHTTPHeader
	}

	value, rest, ok := readASCIIUntil(rest, '\n')
	if !ok {
		return line, nil, errors.ErrInvalidHTTPHeader
	}

	return HeaderLine{
		Key:   uf.B2S(bytes.TrimSpace(key)),
		Value: uf.B2S(bytes.TrimSpace(value)),
	}, rest, nil
}
