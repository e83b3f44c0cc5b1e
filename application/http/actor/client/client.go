package client

import (
	"context"
	"log/slog"
	"slices"
	"strconv"
	"sync"
	"time"

	"streamhttp/application/http/semantic"
	"streamhttp/application/util/uri"
	"streamhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

type Client struct {
	factory  transport.Factory
	resolver uri.Resolver

	logger *slog.Logger
	clock  clock.Clock

	mu   sync.RWMutex
	opts Options
}

func New(
	factory transport.Factory,
	resolver uri.Resolver,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	if resolver == nil {
		resolver = uri.NewRefResolver()
	}

	return &Client{
		factory:  factory,
		resolver: resolver,
		logger:   logger,
		clock:    clock,
		opts:     opts.clone(),
	}
}

// Send performs req and returns as soon as the response head is in.
// The body of the returned response streams the rest of the transfer and
// must be read to EOF or closed. ctx governs the transfer until then.
//
// Failures are reported as [*NetworkError] when the server could not be
// reached, or [*RequestError] otherwise.
func (c *Client) Send(ctx context.Context, req *semantic.Request) (*semantic.Response, error) {
	return c.send(ctx, req, c.Options(), 0)
}

func (c *Client) send(ctx context.Context, req *semantic.Request, opts Options, redirects int) (*semantic.Response, error) {
	if !req.Method().IsValid() {
		return nil, newRequestError(req, "Invalid request method", nil)
	}

	for _, name := range opts.DefaultHeaders.Names() {
		if req.HasHeader(name) {
			continue
		}
		values, _ := opts.DefaultHeaders.Values(name)
		req = req.WithHeader(name, values...)
	}

	parser := semantic.NewHeaderParser()
	handle := c.factory.NewHandle()
	t := newTransfer(ctx, handle)

	req, err := c.configure(t, req, parser, opts)
	if err != nil {
		handle.Close()
		return nil, newRequestError(req, "Could not configure request", err)
	}

	start := c.clock.Now()
	c.logger.Debug("sending request",
		slog.String("method", string(req.Method())),
		slog.String("uri", req.URI().String()),
		slog.Int("redirects", redirects),
	)

	// From here on the handle is closed by the transfer itself.
	initial, _, err := t.co.Start()
	if err != nil {
		return nil, newRequestError(req, "Failed to start request", err)
	}

	if code := handle.ErrorCode(); code != transport.OK {
		text := handle.ErrorText()
		t.abort()

		c.logger.Warn("transfer failed",
			slog.String("uri", req.URI().String()),
			slog.Int("code", int(code)),
			slog.String("error", text),
		)
		return nil, transferError(req, code, text)
	}

	resp, err := c.buildResponse(handle, parser)
	if err != nil {
		t.abort()
		return nil, newRequestError(req, err.Error(), nil)
	}

	c.logger.Debug("received response",
		slog.String("uri", req.URI().String()),
		slog.Int("status", resp.StatusCode()),
		slog.Duration("elapsed", c.clock.Since(start)),
	)

	if opts.followsRedirects() && isRedirect(resp) {
		if err := t.cancel(errRedirected); err != nil {
			return nil, newRequestError(req, "Could not close request before redirect", err)
		}
		return c.redirect(ctx, RedirectContext{Request: req, Response: resp, Redirects: redirects}, opts)
	}

	var (
		size    int64
		hasSize bool
	)
	if resp.HasHeader("Content-Encoding") {
		// The transport decoded the body, the original length means nothing now.
		resp = resp.WithoutHeader("Content-Encoding").WithoutHeader("Content-Length")
	} else {
		size, hasSize = contentLength(resp)
	}

	return resp.WithBody(newResponseStream(handle, t.co, initial, size, hasSize)), nil
}

// configure applies passthrough options first, then the ones the client manages.
// It returns req as it is sent.
func (c *Client) configure(t *transfer, req *semantic.Request, parser *semantic.HeaderParser, opts Options) (*semantic.Request, error) {
	for key, value := range opts.Transfer.Passthrough {
		if err := t.handle.SetOption(key, value); err != nil {
			return req, err
		}
	}

	body := req.Body()
	inSize := int64(-1)
	if size, ok := body.Size(); ok && size >= 0 {
		inSize = size
		if size > 0 || !req.Method().IsSafe() {
			req = req.WithHeader("Content-Length", strconv.FormatInt(size, 10))
		}
	}

	err := t.handle.Configure(transport.Options{
		URL:            req.URI().String(),
		RequestTarget:  req.RequestTarget(),
		Method:         string(req.Method()),
		Headers:        headerLines(req),
		HTTPVersion:    transport.ParseHTTPVersion(req.ProtocolVersion()),
		Protocols:      transport.ProtoHTTP | transport.ProtoHTTPS,
		FollowLocation: false,
		Timeout:        opts.Transfer.Timeout,
		CookieFile:     opts.Transfer.CookieFile,
		AutoDecompress: true,
		Upload:         true,
		InFileSize:     inSize,
		ReadFunc:       readBody(body),
		WriteFunc:      t.write,
		HeaderFunc:     parser.ParseLine,
		ProgressFunc:   wrapProgress(req, opts.Progress),
	})
	return req, err
}

func (c *Client) buildResponse(handle transport.Handle, parser *semantic.HeaderParser) (*semantic.Response, error) {
	reason, ok := parser.ReasonPhrase()
	if !ok {
		return nil, errInvalidResponse
	}

	info := handle.Info()
	code, version := info.ResponseCode, info.HTTPVersion
	if line, ok := parser.StatusLine(); ok {
		if code == 0 {
			code = line.StatusCode
		}
		if version == "" {
			version = line.Version.Protocol()
		}
	}
	if code == 0 {
		return nil, errInvalidResponse
	}

	resp := semantic.NewResponse(code).WithStatus(code, reason)
	if version != "" {
		resp = resp.WithProtocolVersion(version)
	}
	return parser.ApplyTo(resp), nil
}

func (c *Client) Options() Options {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.opts.clone()
}

func (c *Client) update(fn func(o *Options)) *Client {
	c.mu.Lock()
	defer c.mu.Unlock()
	fn(&c.opts)
	return c
}

func (c *Client) SetTimeout(timeout time.Duration) *Client {
	return c.update(func(o *Options) { o.Transfer.Timeout = timeout })
}

// SetMaxRedirects sets the redirect limit. Zero disables following.
func (c *Client) SetMaxRedirects(max int) *Client {
	return c.update(func(o *Options) { o.Redirect.Max = max })
}

func (c *Client) SetFollowRedirects(follow bool) *Client {
	return c.update(func(o *Options) { o.Redirect.Follow = follow })
}

func (c *Client) SetRedirectToGet(codes ...int) *Client {
	return c.update(func(o *Options) { o.Redirect.ToGet = slices.Clone(codes) })
}

func (c *Client) SetCookieFile(path string) *Client {
	return c.update(func(o *Options) { o.Transfer.CookieFile = path })
}

func (c *Client) SetProgress(fn ProgressFunc) *Client {
	return c.update(func(o *Options) { o.Progress = fn })
}

// SetTransportOption sets a passthrough option applied to every handle.
func (c *Client) SetTransportOption(key transport.OptionKey, value any) error {
	if err := transport.ValidateOption(key, value); err != nil {
		return err
	}

	c.update(func(o *Options) {
		if o.Transfer.Passthrough == nil {
			o.Transfer.Passthrough = make(map[transport.OptionKey]any)
		}
		o.Transfer.Passthrough[key] = value
	})
	return nil
}

func (c *Client) SetDefaultHeaders(headers semantic.Headers) *Client {
	return c.update(func(o *Options) { o.DefaultHeaders = headers.Clone() })
}

// AddDefaultHeader replaces the default values of name, matched case-insensitively.
func (c *Client) AddDefaultHeader(name string, values ...string) *Client {
	return c.update(func(o *Options) { o.DefaultHeaders.Set(name, values...) })
}

var errInvalidResponse = errors.New("Invalid response")
