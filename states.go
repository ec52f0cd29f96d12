package embedweb

// ClientState is a phase of a connection's lifetime. States only ever move forward,
// however ReadingBody is skipped by requests without a body.
type ClientState uint8

const (
	ReadingRequestLine ClientState = iota
	ReadingHeaders
	ReadingBody
	Writing
	// Done is terminal. Clients in it are pruned on the next write pass.
	Done
)

func (c ClientState) String() string {
	switch c {
	case ReadingRequestLine:
		return "ReadingRequestLine"
	case ReadingHeaders:
		return "ReadingHeaders"
	case ReadingBody:
		return "ReadingBody"
	case Writing:
		return "Writing"
	case Done:
		return "Done"
	default:
		return "ClientState(?)"
	}
}
