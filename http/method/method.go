package method

//go:generate stringer -type=Method
type Method uint8

const (
	Unknown Method = iota
	GET
	HEAD
	POST
	PUT
	DELETE
	CONNECT
	OPTIONS
	TRACE
	PATCH

	// Count is the last one enum, so contains the greatest integer value of all the
	// methods. So real number of methods is lower by 1
	Count = iota - 1
)

// List contains all the supported HTTP methods. They are sorted by their integer value, however
// Unknown method is not included. So in order to index the List, you must subtract 1 first.
var List = []Method{GET, HEAD, POST, PUT, DELETE, CONNECT, OPTIONS, TRACE, PATCH}

// spellings are the only accepted forms of every method: upper, lower and title case.
// Any other mix of cases (e.g. "gEt") is not a method.
var spellings = [Count + 1][3]string{
	GET:     {"GET", "get", "Get"},
	HEAD:    {"HEAD", "head", "Head"},
	POST:    {"POST", "post", "Post"},
	PUT:     {"PUT", "put", "Put"},
	DELETE:  {"DELETE", "delete", "Delete"},
	CONNECT: {"CONNECT", "connect", "Connect"},
	OPTIONS: {"OPTIONS", "options", "Options"},
	TRACE:   {"TRACE", "trace", "Trace"},
	PATCH:   {"PATCH", "patch", "Patch"},
}

// Parse returns Unknown if the token isn't one of the accepted spellings.
func Parse(str string) Method {
	switch len(str) {
	case 3:
		return match(str, GET, PUT)
	case 4:
		return match(str, POST, HEAD)
	case 5:
		return match(str, PATCH, TRACE)
	case 6:
		return match(str, DELETE)
	case 7:
		return match(str, CONNECT, OPTIONS)
	}

	return Unknown
}

func match(str string, candidates ...Method) Method {
	for _, candidate := range candidates {
		for _, spelling := range spellings[candidate] {
			if str == spelling {
				return candidate
			}
		}
	}

	return Unknown
}

// Bodyless reports whether requests of the method conventionally carry no body.
func (m Method) Bodyless() bool {
	switch m {
	case GET, HEAD, DELETE, CONNECT, OPTIONS, TRACE:
		return true
	default:
		return false
	}
}
