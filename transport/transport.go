// Package transport defines the handle the client drives to perform one
// request/response exchange. It is modelled on a libcurl easy handle:
// it is configured once, performed once, and reports failures through
// an error code rather than through the response.
package transport

import (
	"context"
	"time"
)

// Handle is one configured transfer.
// A Handle is not safe for concurrent use.
type Handle interface {
	// Configure replaces every engine-managed option.
	Configure(opts Options) error
	// SetOption sets a passthrough option. Unknown keys are rejected.
	SetOption(key OptionKey, value any) error

	// Perform runs the transfer, invoking the callbacks of [Options]
	// as data arrives. It blocks until the transfer ends.
	Perform(ctx context.Context) error

	// ErrorCode reports the failure of the last Perform, or [OK].
	ErrorCode() Code
	ErrorText() string
	Info() Info

	// Close releases the handle. Closing twice is a no-op.
	Close()
	// Reset clears options, error state and info.
	Reset()
}

type Factory interface {
	NewHandle() Handle
}

type FactoryFunc func() Handle

func (f FactoryFunc) NewHandle() Handle { return f() }

// Info describes the last transfer.
type Info struct {
	ResponseCode int
	// HTTPVersion is the protocol version without "HTTP/", e.g. "1.1" or "2".
	HTTPVersion  string
	EffectiveURL string
	TotalTime    time.Duration

	SizeUpload   int64
	SizeDownload int64
}
