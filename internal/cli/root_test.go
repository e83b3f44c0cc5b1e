package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"streamhttp/transport"
	"streamhttp/transport/stub"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func execute(t *testing.T, factory *stub.Factory, args ...string) (stdout, stderr string, err error) {
	t.Helper()

	var out, errOut bytes.Buffer
	cmd := NewRootCmd(Deps{
		Factory: factory,
		Clock:   clock.NewMock(),
		Stdout:  &out,
		Stderr:  &errOut,
	})
	cmd.SetArgs(args)
	err = cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestFetchStreamsBody(t *testing.T) {
	factory := stub.NewFactory(stub.Script{Body: []byte("hello world"), ChunkSize: 3})

	out, _, err := execute(t, factory, "http://example.com/greeting")
	require.NoError(t, err)
	assert.Equal(t, "hello world", out)

	opts := factory.Last().Options()
	assert.Equal(t, "GET", opts.Method)
	assert.Equal(t, "http://example.com/greeting", opts.URL)

	ua, ok := factory.Last().Option(transport.OptUserAgent)
	assert.True(t, ok)
	assert.Equal(t, "fetch/"+version, ua)
}

func TestFetchInclude(t *testing.T) {
	factory := stub.NewFactory(stub.Script{
		StatusCode: 404,
		StatusLine: "HTTP/1.1 404 Not Found",
		Headers:    []string{"Content-Type: text/plain"},
		Body:       []byte("missing"),
	})

	out, _, err := execute(t, factory, "-i", "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "HTTP/1.1 404 Not Found\nContent-Type: text/plain\n\nmissing", out)
}

func TestFetchPostData(t *testing.T) {
	factory := stub.NewFactory(stub.Script{})

	_, _, err := execute(t, factory,
		"-d", `{"a":1}`,
		"-H", "Content-Type: application/json",
		"--http-version", "2.0",
		"http://example.com/items",
	)
	require.NoError(t, err)

	h := factory.Last()
	assert.Equal(t, "POST", h.Options().Method)
	assert.Equal(t, transport.HTTPVersion2, h.Options().HTTPVersion)
	assert.Equal(t, `{"a":1}`, string(h.RequestBody()))

	ct, _ := h.RequestHeader("Content-Type")
	assert.Equal(t, "application/json", ct)
}

func TestFetchExtract(t *testing.T) {
	factory := stub.NewFactory(stub.Script{Body: []byte(`{"user":{"name":"ada","langs":["go","c"]}}`)})

	out, _, err := execute(t, factory, "--extract", "user.langs.0", "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "go\n", out)

	factory.Push(stub.Script{Body: []byte(`{"user":{}}`)})
	_, _, err = execute(t, factory, "--extract", "user.name", "http://example.com/")
	assert.ErrorContains(t, err, "not found")

	factory.Push(stub.Script{Body: []byte(`not json`)})
	_, _, err = execute(t, factory, "--extract", "user", "http://example.com/")
	assert.ErrorContains(t, err, "not valid JSON")
}

func TestFetchRedirectFlags(t *testing.T) {
	redirect := stub.Script{StatusCode: 302, Headers: []string{"Location: /next"}}

	factory := stub.NewFactory(redirect, stub.Script{Body: []byte("final")})
	out, _, err := execute(t, factory, "http://example.com/")
	require.NoError(t, err)
	assert.Equal(t, "final", out)

	factory = stub.NewFactory(redirect)
	out, _, err = execute(t, factory, "-i", "--no-follow", "--no-color", "http://example.com/")
	require.NoError(t, err)
	assert.Contains(t, out, "HTTP/1.1 302 TEST")
	assert.Len(t, factory.Handles(), 1)

	factory = stub.NewFactory(redirect, redirect)
	_, _, err = execute(t, factory, "--max-redirects", "1", "http://example.com/")
	assert.ErrorContains(t, err, "Redirect limit of 1 reached")
}

func TestFetchErrors(t *testing.T) {
	factory := stub.NewFactory(stub.Script{ErrorCode: transport.CouldntResolveHost, ErrorText: "Could not resolve host: nowhere"})

	_, _, err := execute(t, factory, "http://nowhere/")
	assert.ErrorContains(t, err, "network error")
	assert.ErrorContains(t, err, "Could not resolve host: nowhere")

	_, _, err = execute(t, stub.NewFactory(), "-H", "broken", "http://example.com/")
	assert.ErrorContains(t, err, "malformed header")

	_, _, err = execute(t, stub.NewFactory(), "-H", "Bad Name: x", "http://example.com/")
	assert.ErrorContains(t, err, "malformed header")

	_, _, err = execute(t, stub.NewFactory(), "-X", "GE T", "http://example.com/")
	assert.ErrorContains(t, err, "invalid method")

	_, _, err = execute(t, stub.NewFactory(), "example.com/path")
	assert.ErrorContains(t, err, "no scheme")

	_, _, err = execute(t, stub.NewFactory(), "--http-version", "3", "http://example.com/")
	assert.ErrorContains(t, err, "unsupported http version")

	_, _, err = execute(t, stub.NewFactory(), "--resolve", "api.test", "http://api.test/")
	assert.ErrorContains(t, err, "invalid --resolve")
}

func TestFetchConfigFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fetch.yaml")
	require.NoError(t, os.WriteFile(path, []byte("timeout: 2s\ndefaultHeaders:\n  X-From-Config: [yes]\n"), 0o600))

	factory := stub.NewFactory(stub.Script{})
	_, _, err := execute(t, factory, "--config", path, "--cookie-file", "/tmp/jar.txt", "http://example.com/")
	require.NoError(t, err)

	h := factory.Last()
	assert.Equal(t, "2s", h.Options().Timeout.String())
	assert.Equal(t, "/tmp/jar.txt", h.Options().CookieFile)

	v, ok := h.RequestHeader("X-From-Config")
	assert.True(t, ok)
	assert.Equal(t, "yes", v)
}

func TestFetchProgress(t *testing.T) {
	factory := stub.NewFactory(stub.Script{Body: []byte("abc")})

	_, stderr, err := execute(t, factory, "--progress", "http://example.com/")
	require.NoError(t, err)
	assert.Contains(t, stderr, "down 3/3")
}
