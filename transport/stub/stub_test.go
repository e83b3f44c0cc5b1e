package stub

import (
	"context"
	"io"
	"strings"
	"testing"

	"streamhttp/transport"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recorder struct {
	lines    []string
	chunks   []string
	progress [][4]int64
}

func (r *recorder) options(url string) transport.Options {
	return transport.Options{
		URL:    url,
		Method: "GET",
		HeaderFunc: func(line string) int {
			r.lines = append(r.lines, line)
			return len(line)
		},
		WriteFunc: func(chunk []byte) error {
			r.chunks = append(r.chunks, string(chunk))
			return nil
		},
		ProgressFunc: func(dlTotal, dlNow, ulTotal, ulNow int64) error {
			r.progress = append(r.progress, [4]int64{dlTotal, dlNow, ulTotal, ulNow})
			return nil
		},
	}
}

func TestHandlePerform(t *testing.T) {
	h := NewHandle(Script{
		Headers:   []string{"Content-Type: text/plain", "Content-Length: 4"},
		Body:      []byte("test"),
		ChunkSize: 1,
	})

	var rec recorder
	require.NoError(t, h.Configure(rec.options("http://example.com/")))
	require.NoError(t, h.Perform(context.Background()))

	assert.Equal(t, []string{
		"HTTP/1.1 200 TEST\r\n",
		"Content-Type: text/plain\r\n",
		"Content-Length: 4\r\n",
		"\r\n",
	}, rec.lines)
	assert.Equal(t, []string{"t", "e", "s", "t"}, rec.chunks)
	assert.Equal(t, [4]int64{4, 4, 0, 0}, rec.progress[len(rec.progress)-1])

	info := h.Info()
	assert.Equal(t, 200, info.ResponseCode)
	assert.Equal(t, "1.1", info.HTTPVersion)
	assert.Equal(t, "http://example.com/", info.EffectiveURL)
	assert.Equal(t, transport.OK, h.ErrorCode())
}

func TestHandleUpload(t *testing.T) {
	h := NewHandle(Script{})

	var rec recorder
	opts := rec.options("http://example.com/")
	opts.Upload = true
	opts.InFileSize = 5
	opts.ReadFunc = strings.NewReader("hello").Read
	opts.Headers = []string{"Content-Length: 5", "X-Empty;"}

	require.NoError(t, h.Configure(opts))
	require.NoError(t, h.Perform(context.Background()))

	assert.Equal(t, "hello", string(h.RequestBody()))
	assert.Equal(t, [4]int64{0, 0, 5, 5}, rec.progress[0])

	v, ok := h.RequestHeader("content-length")
	assert.True(t, ok)
	assert.Equal(t, "5", v)

	v, ok = h.RequestHeader("X-Empty")
	assert.True(t, ok)
	assert.Equal(t, "", v)
}

func TestHandleUploadFailure(t *testing.T) {
	h := NewHandle(Script{})

	var rec recorder
	opts := rec.options("http://example.com/")
	opts.Upload = true
	opts.ReadFunc = func([]byte) (int, error) { return 0, io.ErrClosedPipe }

	require.NoError(t, h.Configure(opts))
	assert.Error(t, h.Perform(context.Background()))
	assert.Equal(t, transport.AbortedByCallback, h.ErrorCode())
	assert.Empty(t, rec.lines, "no header after a failed upload")
}

func TestHandleErrorBeforeHeaders(t *testing.T) {
	h := NewHandle(Script{ErrorCode: transport.CouldntConnect, ErrorText: "refused"})

	var rec recorder
	require.NoError(t, h.Configure(rec.options("http://example.com/")))

	assert.Error(t, h.Perform(context.Background()))
	assert.Equal(t, transport.CouldntConnect, h.ErrorCode())
	assert.Equal(t, "refused", h.ErrorText())
	assert.Empty(t, rec.lines)
}

func TestHandleFailAfterChunks(t *testing.T) {
	h := NewHandle(Script{
		Chunks:          [][]byte{[]byte("a"), []byte(""), []byte("b")},
		ErrorCode:       transport.RecvError,
		FailAfterChunks: 2,
	})

	var rec recorder
	require.NoError(t, h.Configure(rec.options("http://example.com/")))

	assert.Error(t, h.Perform(context.Background()))
	assert.Equal(t, []string{"a", ""}, rec.chunks)
	assert.Equal(t, transport.RecvError, h.ErrorCode())
	assert.Equal(t, transport.RecvError.String(), h.ErrorText())
}

func TestHandleWriteAbort(t *testing.T) {
	h := NewHandle(Script{Body: []byte("abc"), ChunkSize: 1})

	var rec recorder
	opts := rec.options("http://example.com/")
	opts.WriteFunc = func([]byte) error { return io.ErrShortWrite }

	require.NoError(t, h.Configure(opts))
	assert.Error(t, h.Perform(context.Background()))
	assert.Equal(t, transport.WriteError, h.ErrorCode())
}

func TestHandleCancelledContext(t *testing.T) {
	h := NewHandle(Script{})

	var rec recorder
	require.NoError(t, h.Configure(rec.options("http://example.com/")))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.Error(t, h.Perform(ctx))
	assert.Equal(t, transport.AbortedByCallback, h.ErrorCode())
}

func TestHandleStatusLineOverrides(t *testing.T) {
	var rec recorder

	h := NewHandle(Script{StatusCode: 302, HTTPVersion: "2"})
	require.NoError(t, h.Configure(rec.options("http://example.com/")))
	require.NoError(t, h.Perform(context.Background()))
	assert.Equal(t, "HTTP/2 302 TEST\r\n", rec.lines[0])

	rec = recorder{}
	h = NewHandle(Script{NoStatusLine: true, Headers: []string{"A: b"}})
	require.NoError(t, h.Configure(rec.options("http://example.com/")))
	require.NoError(t, h.Perform(context.Background()))
	assert.Equal(t, "A: b\r\n", rec.lines[0])
}

func TestHandleCloseAndReset(t *testing.T) {
	h := NewHandle(Script{})
	require.NoError(t, h.SetOption(transport.OptUserAgent, "ua"))

	h.Reset()
	_, ok := h.Option(transport.OptUserAgent)
	assert.False(t, ok)

	h.Close()
	h.Close()
	assert.Equal(t, 2, h.CloseCalls())
	assert.True(t, h.Closed())
	assert.ErrorIs(t, h.Perform(context.Background()), transport.ErrHandleClosed)
}

func TestFactory(t *testing.T) {
	f := NewFactory(Script{StatusCode: 301}, Script{StatusCode: 204})
	f.Push(Script{StatusCode: 500})

	codes := make([]int, 0, 4)
	for i := 0; i < 4; i++ {
		h := f.NewHandle().(*Handle)
		codes = append(codes, h.script.statusCode())
	}

	assert.Equal(t, []int{301, 204, 500, 200}, codes)
	assert.Len(t, f.Handles(), 4)
	assert.Same(t, f.Handles()[3], f.Last())
}
