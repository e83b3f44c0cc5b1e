// Package stub provides scripted transport handles for tests.
// Each handle plays back one [Script]: it drains the request body, emits
// the status line and headers, then delivers the body chunk by chunk.
package stub

import (
	"bytes"
	"context"
	"io"
	"strconv"
	"strings"
	"sync"

	"streamhttp/lib/ds/queue"
	"streamhttp/transport"

	"github.com/pkg/errors"
)

const defaultChunkSize = 8192

// Script describes how one handle answers.
type Script struct {
	// StatusCode defaults to 200.
	StatusCode int
	// HTTPVersion defaults to "1.1".
	HTTPVersion string
	// StatusLine overrides the generated "HTTP/<version> <code> TEST".
	StatusLine string
	// NoStatusLine suppresses the status line.
	NoStatusLine bool
	Headers      []string

	Body []byte
	// ChunkSize splits Body. Defaults to 8192.
	ChunkSize int
	// Chunks are delivered as is, empty ones included. Body is ignored when set.
	Chunks [][]byte

	// IgnoreRequestBody answers without reading the upload.
	IgnoreRequestBody bool

	// ErrorCode fails the transfer before any header is delivered,
	// or after FailAfterChunks chunks when that is positive.
	ErrorCode       transport.Code
	ErrorText       string
	FailAfterChunks int

	// OnWrite runs before each chunk is handed over.
	OnWrite func(idx int)
}

func (s Script) statusCode() int {
	if s.StatusCode == 0 {
		return 200
	}
	return s.StatusCode
}

func (s Script) httpVersion() string {
	if s.HTTPVersion == "" {
		return "1.1"
	}
	return s.HTTPVersion
}

func (s Script) statusLine() string {
	if s.StatusLine != "" {
		return s.StatusLine
	}
	return "HTTP/" + s.httpVersion() + " " + strconv.Itoa(s.statusCode()) + " TEST"
}

func (s Script) chunks() [][]byte {
	if s.Chunks != nil {
		return s.Chunks
	}

	size := s.ChunkSize
	if size <= 0 {
		size = defaultChunkSize
	}

	chunks := make([][]byte, 0, len(s.Body)/size+1)
	for rest := s.Body; len(rest) > 0; {
		n := min(size, len(rest))
		chunks = append(chunks, rest[:n])
		rest = rest[n:]
	}
	return chunks
}

// Factory hands out one handle per queued script.
// Once the queue runs dry it answers with the zero Script.
type Factory struct {
	mu      sync.Mutex
	scripts *queue.SliceQueue[Script]
	handles []*Handle
}

var _ transport.Factory = (*Factory)(nil)

func NewFactory(scripts ...Script) *Factory {
	return &Factory{scripts: queue.New(scripts...)}
}

// Push queues another script.
func (f *Factory) Push(script Script) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.scripts.Enqueue(script)
}

func (f *Factory) NewHandle() transport.Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	script, err := f.scripts.Dequeue()
	if err != nil {
		script = Script{}
	}

	h := NewHandle(script)
	f.handles = append(f.handles, h)
	return h
}

// Handles returns every handle created so far, oldest first.
func (f *Factory) Handles() []*Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]*Handle, len(f.handles))
	copy(out, f.handles)
	return out
}

// Last returns the newest handle, or nil.
func (f *Factory) Last() *Handle {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(f.handles) == 0 {
		return nil
	}
	return f.handles[len(f.handles)-1]
}

// Handle plays back a Script.
type Handle struct {
	transport.Base

	script Script

	mu          sync.Mutex
	info        transport.Info
	requestBody bytes.Buffer
	closeCalls  int
}

var _ transport.Handle = (*Handle)(nil)

func NewHandle(script Script) *Handle {
	return &Handle{script: script}
}

func (h *Handle) Perform(ctx context.Context) error {
	if h.Closed() {
		return transport.ErrHandleClosed
	}
	h.ClearError()

	opts := h.Options()
	script := h.script

	h.mu.Lock()
	h.info = transport.Info{
		ResponseCode: script.statusCode(),
		HTTPVersion:  script.httpVersion(),
		EffectiveURL: opts.URL,
	}
	h.mu.Unlock()

	if script.ErrorCode != transport.OK && script.FailAfterChunks <= 0 {
		return h.Fail(script.ErrorCode, script.ErrorText)
	}

	if opts.Upload && opts.ReadFunc != nil && !script.IgnoreRequestBody {
		if err := h.upload(opts); err != nil {
			return err
		}
	}

	if err := ctx.Err(); err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return h.Fail(transport.OperationTimedOut, err.Error())
		}
		return h.Fail(transport.AbortedByCallback, err.Error())
	}

	if opts.HeaderFunc != nil {
		if !script.NoStatusLine {
			opts.HeaderFunc(script.statusLine() + "\r\n")
		}
		for _, line := range script.Headers {
			opts.HeaderFunc(line + "\r\n")
		}
		opts.HeaderFunc("\r\n")
	}

	return h.download(opts, script)
}

func (h *Handle) upload(opts transport.Options) error {
	buf := make([]byte, defaultChunkSize)
	uploadTotal := max(opts.InFileSize, 0)

	var uploaded int64
	for {
		n, err := opts.ReadFunc(buf)
		if n > 0 {
			h.mu.Lock()
			h.requestBody.Write(buf[:n])
			h.info.SizeUpload += int64(n)
			h.mu.Unlock()

			uploaded += int64(n)
			if perr := h.progress(opts, 0, 0, uploadTotal, uploaded); perr != nil {
				return perr
			}
		}

		if errors.Is(err, io.EOF) || (n == 0 && err == nil) {
			return nil
		}
		if err != nil {
			return h.Fail(transport.AbortedByCallback, err.Error())
		}
	}
}

func (h *Handle) download(opts transport.Options, script Script) error {
	chunks := script.chunks()

	downloadTotal := int64(len(script.Body))
	for _, line := range script.Headers {
		if name, value, ok := strings.Cut(line, ":"); ok && strings.EqualFold(strings.TrimSpace(name), "Content-Length") {
			if n, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64); err == nil {
				downloadTotal = n
			}
		}
	}

	var downloaded int64
	for idx, chunk := range chunks {
		if script.FailAfterChunks > 0 && idx == script.FailAfterChunks {
			return h.Fail(script.ErrorCode, script.ErrorText)
		}
		if script.OnWrite != nil {
			script.OnWrite(idx)
		}

		if opts.WriteFunc != nil {
			if err := opts.WriteFunc(chunk); err != nil {
				return h.Fail(transport.WriteError, "Failure writing output to destination")
			}
		}

		downloaded += int64(len(chunk))
		h.mu.Lock()
		h.info.SizeDownload = downloaded
		h.mu.Unlock()

		if err := h.progress(opts, downloadTotal, downloaded, 0, 0); err != nil {
			return err
		}
	}

	if script.FailAfterChunks > 0 && script.FailAfterChunks >= len(chunks) {
		return h.Fail(script.ErrorCode, script.ErrorText)
	}

	return nil
}

func (h *Handle) progress(opts transport.Options, dlTotal, dlNow, ulTotal, ulNow int64) error {
	if opts.ProgressFunc == nil {
		return nil
	}
	if err := opts.ProgressFunc(dlTotal, dlNow, ulTotal, ulNow); err != nil {
		return h.Fail(transport.AbortedByCallback, err.Error())
	}
	return nil
}

func (h *Handle) Info() transport.Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info
}

func (h *Handle) Close() {
	h.mu.Lock()
	h.closeCalls++
	h.mu.Unlock()

	h.MarkClosed()
}

func (h *Handle) Reset() {
	h.ResetBase()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = transport.Info{}
	h.requestBody.Reset()
}

// CloseCalls counts Close invocations.
func (h *Handle) CloseCalls() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.closeCalls
}

// RequestBody returns what was uploaded.
func (h *Handle) RequestBody() []byte {
	h.mu.Lock()
	defer h.mu.Unlock()
	return bytes.Clone(h.requestBody.Bytes())
}

// RequestHeader returns the first value of a configured request header.
// "Name;" lines yield an empty value.
func (h *Handle) RequestHeader(name string) (string, bool) {
	for _, line := range h.Options().Headers {
		if n, v, ok := strings.Cut(line, ":"); ok {
			if strings.EqualFold(strings.TrimSpace(n), name) {
				return strings.TrimSpace(v), true
			}
			continue
		}
		if n, ok := strings.CutSuffix(line, ";"); ok && strings.EqualFold(n, name) {
			return "", true
		}
	}
	return "", false
}
