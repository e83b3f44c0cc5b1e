package semantic

import (
	"bytes"
	"io"

	"github.com/pkg/errors"
)

var ErrNotSeekable = errors.New("stream is not seekable")

// Stream is a message body.
type Stream interface {
	io.ReadCloser

	// Size returns the total length, if known.
	Size() (int64, bool)
	// Tell returns the number of bytes read so far.
	Tell() int64
	// EOF reports whether the stream is exhausted.
	EOF() bool
	Seekable() bool
	// Rewind moves back to the start, or fails with [ErrNotSeekable].
	Rewind() error
}

// BytesStream is a seekable in-memory stream.
type BytesStream struct {
	data []byte
	pos  int
}

var _ Stream = (*BytesStream)(nil)

func NewBytesStream(data []byte) *BytesStream { return &BytesStream{data: data} }

func NewStringStream(s string) *BytesStream { return &BytesStream{data: []byte(s)} }

func (s *BytesStream) Read(p []byte) (int, error) {
	if s.pos >= len(s.data) {
		return 0, io.EOF
	}
	n := copy(p, s.data[s.pos:])
	s.pos += n
	return n, nil
}

func (s *BytesStream) Close() error { return nil }
func (s *BytesStream) Size() (int64, bool) { return int64(len(s.data)), true }
func (s *BytesStream) Tell() int64 { return int64(s.pos) }
func (s *BytesStream) EOF() bool { return s.pos >= len(s.data) }
func (s *BytesStream) Seekable() bool { return true }
func (s *BytesStream) String() string { return string(s.data) }

func (s *BytesStream) Rewind() error {
	s.pos = 0
	return nil
}
func (s *BytesStream) Bytes() []byte { return bytes.Clone(s.data) }

// ReaderStream adapts a forward-only reader.
type ReaderStream struct {
	r    io.Reader
	size int64 // negative if unknown
	pos  int64
	eof  bool
}

var _ Stream = (*ReaderStream)(nil)

// NewReaderStream wraps r. Pass a negative size when it is unknown.
func NewReaderStream(r io.Reader, size int64) *ReaderStream {
	return &ReaderStream{r: r, size: size}
}

func (s *ReaderStream) Read(p []byte) (int, error) {
	if s.eof {
		return 0, io.EOF
	}

	n, err := s.r.Read(p)
	s.pos += int64(n)
	if errors.Is(err, io.EOF) {
		s.eof = true
	}
	return n, err
}

func (s *ReaderStream) Close() error {
	if c, ok := s.r.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

func (s *ReaderStream) Size() (int64, bool) { return s.size, s.size >= 0 }
func (s *ReaderStream) Tell() int64 { return s.pos }
func (s *ReaderStream) EOF() bool { return s.eof }
func (s *ReaderStream) Seekable() bool { return false }

func (s *ReaderStream) Rewind() error {
	if s.pos == 0 {
		return nil
	}
	return ErrNotSeekable
}

type emptyStream struct{}

// EmptyStream returns a stream without content.
func EmptyStream() Stream { return emptyStream{} }

func (emptyStream) Read([]byte) (int, error) { return 0, io.EOF }
func (emptyStream) Close() error { return nil }
func (emptyStream) Size() (int64, bool) { return 0, true }
func (emptyStream) Tell() int64 { return 0 }
func (emptyStream) EOF() bool { return true }
func (emptyStream) Seekable() bool { return true }
func (emptyStream) Rewind() error { return nil }
