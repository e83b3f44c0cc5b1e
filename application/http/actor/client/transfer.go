package client

import (
	"context"
	"io"
	"strconv"

	"streamhttp/application/http/semantic"
	"streamhttp/lib/coro"
	"streamhttp/transport"
)

// transfer is one attempt: a configured handle whose blocking Perform runs
// inside a coroutine, suspending once per body chunk.
type transfer struct {
	ctx    context.Context
	handle transport.Handle
	co     *coro.Coroutine[[]byte]

	// Only touched on the coroutine side.
	y      *coro.Yielder[[]byte]
	signal error
}

func newTransfer(ctx context.Context, handle transport.Handle) *transfer {
	t := &transfer{ctx: ctx, handle: handle}
	t.co = coro.New(t.run)
	return t
}

// run owns the handle and closes it exactly once, however the transfer ends.
func (t *transfer) run(y *coro.Yielder[[]byte]) error {
	defer t.handle.Close()

	t.y = y
	err := t.handle.Perform(t.ctx)
	if t.signal != nil {
		return t.signal
	}
	if err != nil && t.handle.ErrorCode() == transport.OK {
		return err
	}
	return nil
}

func (t *transfer) write(chunk []byte) error {
	if err := t.y.Yield(chunk); err != nil {
		t.signal = err
		return err
	}
	return nil
}

// cancel stops a suspended transfer. The handle is closed by run.
func (t *transfer) cancel(signal error) error {
	if t.co.Terminated() {
		return nil
	}
	return t.co.Throw(signal)
}

// abort is cancel for error paths, where a failure to cancel is irrelevant.
func (t *transfer) abort() { _ = t.cancel(errStreamClosed) }

// readBody feeds the request body to the transport, never handing it an
// empty read before the body is exhausted.
func readBody(body semantic.Stream) transport.ReadFunc {
	return func(p []byte) (int, error) {
		for {
			n, err := body.Read(p)
			if n > 0 || err != nil {
				return n, err
			}
			if len(p) == 0 {
				return 0, nil
			}
			if body.EOF() {
				return 0, io.EOF
			}
		}
	}
}

// headerLines renders request headers as transport field lines.
// An empty value is written as "Name;" so that the header is still sent.
func headerLines(req *semantic.Request) []string {
	headers := req.Headers()
	fields := headers.Fields()

	lines := make([]string, 0, len(fields))
	for _, field := range fields {
		if field.Value == "" {
			lines = append(lines, field.Name+";")
			continue
		}
		lines = append(lines, field.Name+": "+field.Value)
	}
	return lines
}

// wrapProgress hides the handle from the caller's callback.
func wrapProgress(req *semantic.Request, fn ProgressFunc) transport.ProgressFunc {
	if fn == nil {
		return nil
	}
	return func(downloadTotal, downloaded, uploadTotal, uploaded int64) error {
		return fn(req, downloadTotal, downloaded, uploadTotal, uploaded)
	}
}

// contentLength reads the body size off a response that was not re-encoded.
func contentLength(resp *semantic.Response) (int64, bool) {
	values := resp.Header("Content-Length")
	if len(values) == 0 {
		return 0, false
	}
	n, err := strconv.ParseInt(values[0], 10, 64)
	if err != nil || n < 0 {
		return 0, false
	}
	return n, true
}
