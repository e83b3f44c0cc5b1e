package client

import (
	"bytes"
	"io"
	"sync"

	"streamhttp/application/http/semantic"
	"streamhttp/lib/coro"
	"streamhttp/transport"

	"github.com/pkg/errors"
)

const contentsChunkSize = 8192

// ResponseStream is a response body pulled from a running transfer.
// Every read resumes the transfer until the transport hands over the next
// chunk, so nothing is downloaded ahead of the reader.
//
// The stream must be read to EOF or closed, otherwise the transfer stays
// suspended.
type ResponseStream struct {
	mu sync.Mutex // serializes everything that drives the transfer.

	handle transport.Handle
	co     *coro.Coroutine[[]byte]

	buf    []byte
	pos    int64
	closed bool

	size    int64
	hasSize bool
}

var _ semantic.Stream = (*ResponseStream)(nil)

func newResponseStream(handle transport.Handle, co *coro.Coroutine[[]byte], initial []byte, size int64, hasSize bool) *ResponseStream {
	return &ResponseStream{
		handle:  handle,
		co:      co,
		buf:     initial,
		size:    size,
		hasSize: hasSize,
	}
}

// Read serves buffered bytes first and resumes the transfer only when the
// buffer is empty. An empty chunk from the transport is not the end of the
// body; only the end of the transfer is.
func (s *ResponseStream) Read(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return 0, &ReadError{cause: errStreamClosed}
	}

	for len(s.buf) == 0 && !s.co.Terminated() {
		chunk, ok, err := s.co.Resume()
		if err != nil {
			return 0, &ReadError{cause: err}
		}
		if !ok {
			break
		}
		s.buf = chunk
	}

	if code := s.handle.ErrorCode(); code != transport.OK {
		return 0, &ReadError{Code: code, Text: s.handle.ErrorText()}
	}

	if len(s.buf) == 0 && len(p) > 0 {
		return 0, io.EOF
	}

	n := copy(p, s.buf)
	s.buf = s.buf[n:]
	s.pos += int64(n)
	return n, nil
}

// EOF reports whether the transfer has ended and every byte was read.
func (s *ResponseStream) EOF() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.eofLocked()
}

func (s *ResponseStream) eofLocked() bool {
	return len(s.buf) == 0 && s.co.Terminated()
}

// Close cancels the transfer if it is still running. It never fails.
func (s *ResponseStream) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	s.buf = nil

	if !s.co.Terminated() {
		_ = s.co.Throw(errStreamClosed)
	}
	return nil
}

// Size is the Content-Length seen in the response, if any.
func (s *ResponseStream) Size() (int64, bool) { return s.size, s.hasSize }

func (s *ResponseStream) Tell() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pos
}

func (s *ResponseStream) Seekable() bool { return false }

func (s *ResponseStream) Rewind() error {
	return errors.Wrap(semantic.ErrNotSeekable, "response stream")
}

// Contents reads the rest of the body.
func (s *ResponseStream) Contents() ([]byte, error) {
	var (
		out   bytes.Buffer
		chunk = make([]byte, contentsChunkSize)
	)
	for !s.EOF() {
		n, err := s.Read(chunk)
		out.Write(chunk[:n])
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return out.Bytes(), err
		}
	}
	return out.Bytes(), nil
}

// String returns the rest of the body, or whatever was read before a failure.
func (s *ResponseStream) String() string {
	b, _ := s.Contents()
	return string(b)
}
