package transport

import (
	"time"

	"github.com/pkg/errors"
)

type HTTPVersion uint8

const (
	// HTTPVersionNone lets the handle pick.
	HTTPVersionNone HTTPVersion = iota
	HTTPVersion10
	HTTPVersion11
	HTTPVersion2
)

// ParseHTTPVersion maps a protocol version ("1.0", "1.1", "2.0", "2")
// to the handle's enum. Unrecognised versions map to [HTTPVersionNone].
func ParseHTTPVersion(version string) HTTPVersion {
	switch version {
	case "1.0":
		return HTTPVersion10
	case "1.1":
		return HTTPVersion11
	case "2.0", "2":
		return HTTPVersion2
	}
	return HTTPVersionNone
}

func (v HTTPVersion) String() string {
	switch v {
	case HTTPVersion10:
		return "1.0"
	case HTTPVersion11:
		return "1.1"
	case HTTPVersion2:
		return "2"
	}
	return "none"
}

// Protocol is a bit set of URL schemes a handle may use.
type Protocol uint8

const (
	ProtoHTTP Protocol = 1 << iota
	ProtoHTTPS
)

// Allows reports whether scheme is in the set.
// An empty set allows every supported scheme.
func (p Protocol) Allows(scheme string) bool {
	if p == 0 {
		return scheme == "http" || scheme == "https"
	}
	switch scheme {
	case "http":
		return p&ProtoHTTP != 0
	case "https":
		return p&ProtoHTTPS != 0
	}
	return false
}

type (
	// ReadFunc fills p with request body bytes.
	// It returns io.EOF once the body is exhausted.
	ReadFunc func(p []byte) (int, error)
	// WriteFunc receives one response body chunk.
	// A non-nil error aborts the transfer with [WriteError].
	WriteFunc func(chunk []byte) error
	// HeaderFunc receives one raw header line, terminator included,
	// and returns the number of bytes it consumed.
	HeaderFunc func(line string) int
	// ProgressFunc is called as data moves.
	// A non-nil error aborts the transfer with [AbortedByCallback].
	ProgressFunc func(downloadTotal, downloaded, uploadTotal, uploaded int64) error
)

// Options are the engine-managed options of a handle.
type Options struct {
	URL           string
	RequestTarget string
	Method        string
	// Headers are raw field lines: "Name: value", or "Name;" for an empty value.
	Headers []string

	HTTPVersion    HTTPVersion
	Protocols      Protocol
	FollowLocation bool

	// Timeout bounds the whole transfer. Zero means no timeout.
	Timeout    time.Duration
	CookieFile string
	// AutoDecompress advertises every supported content coding
	// and decodes the body before it reaches WriteFunc.
	AutoDecompress bool

	Upload bool
	// InFileSize is the request body length, or -1 if unknown.
	InFileSize int64

	ReadFunc     ReadFunc
	WriteFunc    WriteFunc
	HeaderFunc   HeaderFunc
	ProgressFunc ProgressFunc
}

// OptionKey names a passthrough option that is not managed by the engine.
type OptionKey string

const (
	OptUserAgent      OptionKey = "user_agent"
	OptConnectTimeout OptionKey = "connect_timeout"
	OptBufferSize     OptionKey = "buffer_size"
	OptMaxFileSize    OptionKey = "max_file_size"
	OptInsecure       OptionKey = "insecure"
	OptProxy          OptionKey = "proxy"
	OptVerbose        OptionKey = "verbose"
)

var ErrUnknownOption = errors.New("unknown option")

var knownOptions = map[OptionKey]func(v any) bool{
	OptUserAgent:      isString,
	OptConnectTimeout: isDuration,
	OptBufferSize:     isPositiveInt,
	OptMaxFileSize:    isPositiveInt,
	OptInsecure:       isBool,
	OptProxy:          isString,
	OptVerbose:        isBool,
}

// ValidateOption checks key is known and value has the type it expects.
func ValidateOption(key OptionKey, value any) error {
	valid, ok := knownOptions[key]
	if !ok {
		return errors.Wrapf(ErrUnknownOption, "%q", key)
	}
	if !valid(value) {
		return errors.Errorf("invalid value %v (%T) for option %q", value, value, key)
	}
	return nil
}

// OptionKeys lists every passthrough option.
func OptionKeys() []OptionKey {
	return []OptionKey{
		OptUserAgent, OptConnectTimeout, OptBufferSize, OptMaxFileSize,
		OptInsecure, OptProxy, OptVerbose,
	}
}

func isString(v any) bool {
	_, ok := v.(string)
	return ok
}

func isBool(v any) bool {
	_, ok := v.(bool)
	return ok
}

func isDuration(v any) bool {
	d, ok := v.(time.Duration)
	return ok && d >= 0
}

func isPositiveInt(v any) bool {
	n, ok := v.(int)
	return ok && n > 0
}
