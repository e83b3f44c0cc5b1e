package transport

import (
	"github.com/pkg/errors"
)

var ErrHandleClosed = errors.New("handle is closed")

// Base keeps the state every handle shares: options, error and close flag.
// Handles embed it and implement Perform, Info and Reset on top.
type Base struct {
	opts  Options
	extra map[OptionKey]any

	code Code
	text string

	closed bool
}

func (b *Base) Configure(opts Options) error {
	if b.closed {
		return ErrHandleClosed
	}
	if opts.Method == "" {
		return errors.New("method must not be empty")
	}
	if opts.URL == "" {
		return errors.New("url must not be empty")
	}

	b.opts = opts
	return nil
}

func (b *Base) SetOption(key OptionKey, value any) error {
	if b.closed {
		return ErrHandleClosed
	}
	if err := ValidateOption(key, value); err != nil {
		return err
	}

	if b.extra == nil {
		b.extra = make(map[OptionKey]any)
	}
	b.extra[key] = value
	return nil
}

func (b *Base) Options() Options { return b.opts }

// Option returns a passthrough option.
func (b *Base) Option(key OptionKey) (any, bool) {
	v, ok := b.extra[key]
	return v, ok
}

func (b *Base) ErrorCode() Code { return b.code }

func (b *Base) ErrorText() string {
	if b.code != OK && b.text == "" {
		return b.code.String()
	}
	return b.text
}

// Fail records a failure and returns it as an error.
func (b *Base) Fail(code Code, text string) error {
	b.code, b.text = code, text
	return errors.Errorf("transfer failed (%d): %s", int(code), b.ErrorText())
}

// ClearError resets the error state before a new transfer.
func (b *Base) ClearError() { b.code, b.text = OK, "" }

// MarkClosed flags the handle closed and reports whether it already was.
func (b *Base) MarkClosed() (wasClosed bool) {
	wasClosed = b.closed
	b.closed = true
	return wasClosed
}

func (b *Base) Closed() bool { return b.closed }

// ResetBase clears options and error state. The close flag stays.
func (b *Base) ResetBase() {
	b.opts = Options{}
	b.extra = nil
	b.ClearError()
}
