// Package nethttp implements [transport.Handle] on top of net/http.
package nethttp

import (
	"context"
	"crypto/tls"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	httpwire "streamhttp/application/http"
	"streamhttp/application/util/domain"
	"streamhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

const defaultBufferSize = 16 * 1024

type Options struct {
	// Transport is cloned for every handle. Defaults to http.DefaultTransport.
	Transport *http.Transport
	// Lookuper overrides name resolution for the hosts it knows.
	Lookuper domain.Lookuper
}

type Factory struct {
	logger *slog.Logger
	clock  clock.Clock
	opts   Options
}

var _ transport.Factory = (*Factory)(nil)

func NewFactory(logger *slog.Logger, clock clock.Clock, opts Options) *Factory {
	if opts.Transport == nil {
		opts.Transport = http.DefaultTransport.(*http.Transport)
	}
	return &Factory{logger: logger, clock: clock, opts: opts}
}

func (f *Factory) NewHandle() transport.Handle {
	return &Handle{logger: f.logger, clock: f.clock, base: f.opts.Transport, lookuper: f.opts.Lookuper}
}

type Handle struct {
	transport.Base

	logger   *slog.Logger
	clock    clock.Clock
	base     *http.Transport
	lookuper domain.Lookuper

	mu   sync.Mutex
	rt   *http.Transport
	info transport.Info
}

var _ transport.Handle = (*Handle)(nil)

func (h *Handle) Perform(ctx context.Context) error {
	if h.Closed() {
		return transport.ErrHandleClosed
	}
	h.ClearError()

	opts := h.Options()
	start := h.clock.Now()
	defer func() {
		h.mu.Lock()
		h.info.TotalTime = h.clock.Since(start)
		h.mu.Unlock()
	}()

	h.mu.Lock()
	h.info = transport.Info{EffectiveURL: opts.URL}
	h.mu.Unlock()

	target, err := url.Parse(opts.URL)
	if err != nil {
		return h.Fail(transport.URLMalformat, err.Error())
	}
	if !opts.Protocols.Allows(target.Scheme) {
		return h.Fail(transport.UnsupportedProtocol, "Protocol \""+target.Scheme+"\" not supported")
	}

	if opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = h.clock.WithTimeout(ctx, opts.Timeout)
		defer cancel()
	}

	client, err := h.newClient(opts)
	if err != nil {
		return h.Fail(transport.ReadError, err.Error())
	}

	req, upload, err := h.newRequest(ctx, opts, target)
	if err != nil {
		return h.Fail(transport.URLMalformat, err.Error())
	}
	if upload != nil {
		// net/http may keep reading the body after the response is in.
		defer upload.Close()
	}

	h.logger.Debug("performing transfer",
		slog.String("method", opts.Method),
		slog.String("url", opts.URL),
		slog.String("http_version", opts.HTTPVersion.String()),
	)

	verbose := false
	if v, ok := h.Option(transport.OptVerbose); ok {
		verbose = v.(bool)
	}
	if verbose {
		h.logger.Info("> " + req.Method + " " + req.URL.RequestURI() + " HTTP/" + opts.HTTPVersion.String())
	}

	resp, err := client.Do(req)
	if err != nil {
		code, text := classify(err)
		h.logger.Warn("transfer failed", slog.Int("code", int(code)), slog.String("error", text))
		return h.Fail(code, text)
	}
	defer resp.Body.Close()

	ver := httpwire.Version{uint(resp.ProtoMajor), uint(resp.ProtoMinor)}
	h.mu.Lock()
	h.info.ResponseCode = resp.StatusCode
	h.info.HTTPVersion = ver.Protocol()
	h.info.EffectiveURL = resp.Request.URL.String()
	if upload != nil {
		h.info.SizeUpload = upload.sent()
	}
	h.mu.Unlock()

	for _, line := range headerLines(ver, resp) {
		if verbose {
			h.logger.Info("< " + strings.TrimRight(line, "\r\n"))
		}
		if opts.HeaderFunc != nil {
			opts.HeaderFunc(line)
		}
	}

	return h.download(ctx, opts, resp)
}

func (h *Handle) newClient(opts transport.Options) (*http.Client, error) {
	rt := h.base.Clone()
	rt.DisableCompression = !opts.AutoDecompress

	switch opts.HTTPVersion {
	case transport.HTTPVersion2:
		rt.ForceAttemptHTTP2 = true
	case transport.HTTPVersion10, transport.HTTPVersion11:
		// A non-nil empty map turns HTTP/2 off.
		rt.ForceAttemptHTTP2 = false
		rt.TLSNextProto = make(map[string]func(string, *tls.Conn) http.RoundTripper)
	}

	if v, ok := h.Option(transport.OptConnectTimeout); ok {
		dialer := &net.Dialer{Timeout: v.(time.Duration), KeepAlive: 30 * time.Second}
		rt.DialContext = dialer.DialContext
	}
	if h.lookuper != nil {
		rt.DialContext = h.lookupDialer(rt.DialContext)
	}
	if v, ok := h.Option(transport.OptInsecure); ok && v.(bool) {
		tlsConfig := rt.TLSClientConfig.Clone()
		if tlsConfig == nil {
			tlsConfig = &tls.Config{}
		}
		tlsConfig.InsecureSkipVerify = true
		rt.TLSClientConfig = tlsConfig
	}
	if v, ok := h.Option(transport.OptProxy); ok {
		proxyURL, err := url.Parse(v.(string))
		if err != nil {
			return nil, errors.Wrap(err, "parsing proxy url")
		}
		rt.Proxy = http.ProxyURL(proxyURL)
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "creating cookie jar")
	}
	if err := loadCookieFile(jar, opts.CookieFile); err != nil {
		return nil, errors.Wrap(err, "loading cookie file")
	}

	h.mu.Lock()
	if h.rt != nil {
		h.rt.CloseIdleConnections()
	}
	h.rt = rt
	h.mu.Unlock()

	client := &http.Client{Transport: rt, Jar: jar}
	if !opts.FollowLocation {
		client.CheckRedirect = func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		}
	}
	return client, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

// lookupDialer dials the first address the lookuper knows for the host,
// and leaves unknown hosts to dial.
func (h *Handle) lookupDialer(dial dialFunc) dialFunc {
	if dial == nil {
		dial = (&net.Dialer{Timeout: 30 * time.Second, KeepAlive: 30 * time.Second}).DialContext
	}
	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(addr)
		if err != nil {
			return dial(ctx, network, addr)
		}

		addrs, err := h.lookuper.LookupIP(ctx, host)
		if err != nil {
			if errors.Is(err, domain.ErrDomainNotFound) {
				return dial(ctx, network, addr)
			}
			return nil, &net.DNSError{Err: err.Error(), Name: host}
		}
		if len(addrs) == 0 {
			return nil, &net.DNSError{Err: "no addresses", Name: host, IsNotFound: true}
		}

		h.logger.Debug("Resolved host from lookup table", "host", host, "addr", addrs[0])
		return dial(ctx, network, net.JoinHostPort(addrs[0].String(), port))
	}
}

func (h *Handle) newRequest(ctx context.Context, opts transport.Options, target *url.URL) (*http.Request, *uploadReader, error) {
	var (
		body   io.Reader = http.NoBody
		upload *uploadReader
	)
	if opts.Upload && opts.ReadFunc != nil && opts.InFileSize != 0 {
		upload = &uploadReader{read: opts.ReadFunc, total: opts.InFileSize, progress: opts.ProgressFunc}
		body = upload
	}

	req, err := http.NewRequestWithContext(ctx, opts.Method, target.String(), body)
	if err != nil {
		return nil, nil, errors.Wrap(err, "creating request")
	}
	if upload != nil {
		req.ContentLength = opts.InFileSize
	}

	if opts.RequestTarget != "" && opts.RequestTarget != target.RequestURI() {
		req.URL.Opaque = opts.RequestTarget
	}

	for _, line := range opts.Headers {
		if name, value, ok := strings.Cut(line, ":"); ok {
			req.Header.Add(strings.TrimSpace(name), strings.TrimSpace(value))
			continue
		}
		if name, ok := strings.CutSuffix(line, ";"); ok {
			key := http.CanonicalHeaderKey(strings.TrimSpace(name))
			req.Header[key] = append(req.Header[key], "")
		}
	}

	// The transport only decodes bodies it negotiated itself.
	if opts.AutoDecompress {
		req.Header.Del("Accept-Encoding")
	}

	if host := req.Header.Get("Host"); host != "" {
		req.Host = host
	}
	if v, ok := h.Option(transport.OptUserAgent); ok && req.Header.Get("User-Agent") == "" {
		req.Header.Set("User-Agent", v.(string))
	}

	return req, upload, nil
}

func (h *Handle) download(ctx context.Context, opts transport.Options, resp *http.Response) error {
	size := defaultBufferSize
	if v, ok := h.Option(transport.OptBufferSize); ok {
		size = v.(int)
	}
	limit := int64(-1)
	if v, ok := h.Option(transport.OptMaxFileSize); ok {
		limit = int64(v.(int))
	}

	downloadTotal := max(resp.ContentLength, 0)
	buf := make([]byte, size)

	var downloaded int64
	for {
		n, err := resp.Body.Read(buf)
		if n > 0 {
			downloaded += int64(n)
			if limit >= 0 && downloaded > limit {
				return h.Fail(transport.WriteError, "Exceeded the maximum allowed file size")
			}

			h.mu.Lock()
			h.info.SizeDownload = downloaded
			h.mu.Unlock()

			if opts.WriteFunc != nil {
				// The chunk is handed off, so it must not alias buf.
				chunk := make([]byte, n)
				copy(chunk, buf[:n])
				if werr := opts.WriteFunc(chunk); werr != nil {
					return h.Fail(transport.WriteError, "Failure writing output to destination")
				}
			}

			if opts.ProgressFunc != nil {
				if perr := opts.ProgressFunc(downloadTotal, downloaded, 0, 0); perr != nil {
					return h.Fail(transport.AbortedByCallback, perr.Error())
				}
			}
		}

		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			if ctx.Err() != nil {
				err = ctx.Err()
			}
			code, text := classify(err)
			if code == transport.SendError || code == transport.GotNothing {
				code = transport.RecvError
			}
			return h.Fail(code, text)
		}
	}
}

func (h *Handle) Info() transport.Info {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.info
}

func (h *Handle) Close() {
	if h.MarkClosed() {
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.rt != nil {
		h.rt.CloseIdleConnections()
		h.rt = nil
	}
}

func (h *Handle) Reset() {
	h.ResetBase()

	h.mu.Lock()
	defer h.mu.Unlock()
	h.info = transport.Info{}
}

// headerLines renders the response head the way it came off the wire,
// one line per field value, terminated by an empty line.
func headerLines(ver httpwire.Version, resp *http.Response) []string {
	lines := make([]string, 0, len(resp.Header)+2)
	lines = append(lines, ver.String()+" "+resp.Status+"\r\n")

	names := make([]string, 0, len(resp.Header))
	for name := range resp.Header {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		for _, value := range resp.Header[name] {
			lines = append(lines, string(httpwire.Field{Name: name, Value: value}.Text())+"\r\n")
		}
	}

	return append(lines, "\r\n")
}

// uploadReader adapts a ReadFunc into the request body.
// Once closed it reports EOF, so ReadFunc is never called after Perform
// returns.
type uploadReader struct {
	read     transport.ReadFunc
	progress transport.ProgressFunc
	total    int64

	mu     sync.Mutex // held across read, so Close waits for it.
	n      int64
	closed bool
}

type callbackError struct{ err error }

func (e *callbackError) Error() string { return e.err.Error() }
func (e *callbackError) Unwrap() error { return e.err }

func (r *uploadReader) Read(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, io.EOF
	}

	n, err := r.read(p)
	r.n += int64(n)

	if n > 0 && r.progress != nil {
		if perr := r.progress(0, 0, max(r.total, 0), r.n); perr != nil {
			return n, &callbackError{err: perr}
		}
	}

	if err != nil && !errors.Is(err, io.EOF) {
		return n, &callbackError{err: err}
	}
	return n, err
}

func (r *uploadReader) Close() error {
	r.mu.Lock()
	r.closed = true
	r.mu.Unlock()
	return nil
}

func (r *uploadReader) sent() int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.n
}

// classify maps a net/http failure onto a transport code.
func classify(err error) (transport.Code, string) {
	var (
		cbErr   *callbackError
		dnsErr  *net.DNSError
		opErr   *net.OpError
		certErr *tls.CertificateVerificationError
		recErr  tls.RecordHeaderError
		netErr  net.Error
	)

	switch {
	case errors.As(err, &cbErr):
		return transport.AbortedByCallback, cbErr.Error()
	case errors.Is(err, context.DeadlineExceeded):
		return transport.OperationTimedOut, err.Error()
	case errors.Is(err, context.Canceled):
		return transport.AbortedByCallback, err.Error()
	case errors.As(err, &dnsErr):
		return transport.CouldntResolveHost, dnsErr.Error()
	case errors.As(err, &certErr):
		return transport.PeerFailedVerification, certErr.Error()
	case errors.As(err, &recErr):
		return transport.SSLConnectError, recErr.Error()
	case errors.As(err, &netErr) && netErr.Timeout():
		return transport.OperationTimedOut, netErr.Error()
	case errors.As(err, &opErr) && opErr.Op == "dial":
		return transport.CouldntConnect, opErr.Error()
	case errors.As(err, &opErr) && opErr.Op == "read":
		return transport.RecvError, opErr.Error()
	case errors.As(err, &opErr) && opErr.Op == "write":
		return transport.SendError, opErr.Error()
	case errors.Is(err, io.EOF), errors.Is(err, io.ErrUnexpectedEOF):
		return transport.GotNothing, err.Error()
	}

	return transport.SendError, err.Error()
}
