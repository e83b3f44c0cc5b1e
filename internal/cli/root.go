// Package cli implements the fetch command line.
package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"streamhttp/application/http/actor/client"
	"streamhttp/application/http/semantic"
	"streamhttp/application/util/domain"
	"streamhttp/application/util/rule"
	"streamhttp/transport"
	"streamhttp/transport/nethttp"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
)

var version = "0.1.0"

// Deps are the collaborators of the command. Zero fields get real defaults.
type Deps struct {
	Factory transport.Factory
	Clock   clock.Clock
	Stdout  io.Writer
	Stderr  io.Writer
}

type flags struct {
	method       string
	headers      []string
	data         string
	include      bool
	extract      string
	configFile   string
	maxRedirects int
	noFollow     bool
	timeout      time.Duration
	cookieFile   string
	resolve      []string
	httpVersion  string
	userAgent    string
	insecure     bool
	progress     bool
	noColor      bool
	verbose      bool
}

func NewRootCmd(deps Deps) *cobra.Command {
	if deps.Clock == nil {
		deps.Clock = clock.New()
	}
	if deps.Stdout == nil {
		deps.Stdout = os.Stdout
	}
	if deps.Stderr == nil {
		deps.Stderr = os.Stderr
	}

	var f flags
	cmd := &cobra.Command{
		Use:     "fetch [flags] URL",
		Short:   "Stream an HTTP response to stdout",
		Version: version,
		Long: `fetch sends one HTTP request, follows redirects and streams the response
body to stdout as it arrives.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, deps, f, args[0])
		},
	}

	fl := cmd.Flags()
	fl.StringVarP(&f.method, "request", "X", "", "request method (default GET, or POST with --data)")
	fl.StringArrayVarP(&f.headers, "header", "H", nil, "request header \"Name: value\" (repeatable)")
	fl.StringVarP(&f.data, "data", "d", "", "request body")
	fl.BoolVarP(&f.include, "include", "i", false, "print the status line and headers")
	fl.StringVar(&f.extract, "extract", "", "print the value at this gjson path of a JSON body")
	fl.StringVar(&f.configFile, "config", "", "YAML client options file")
	fl.IntVar(&f.maxRedirects, "max-redirects", 10, "redirects to follow, 0 disables following")
	fl.BoolVar(&f.noFollow, "no-follow", false, "do not follow redirects")
	fl.DurationVarP(&f.timeout, "timeout", "t", 0, "overall timeout per request, 0 for none")
	fl.StringVar(&f.cookieFile, "cookie-file", "", "Netscape format cookie file to send cookies from")
	fl.StringArrayVar(&f.resolve, "resolve", nil, "connect to addr instead of resolving host, as \"host:addr\" (repeatable)")
	fl.StringVar(&f.httpVersion, "http-version", "1.1", "HTTP version: 1.0, 1.1 or 2.0")
	fl.StringVarP(&f.userAgent, "user-agent", "A", "fetch/"+version, "User-Agent header")
	fl.BoolVarP(&f.insecure, "insecure", "k", false, "skip TLS certificate verification")
	fl.BoolVar(&f.progress, "progress", false, "report transfer progress on stderr")
	fl.BoolVar(&f.noColor, "no-color", false, "disable colored output")
	fl.BoolVarP(&f.verbose, "verbose", "v", false, "log the request lifecycle on stderr")

	return cmd
}

// Execute runs the command with real dependencies.
func Execute() error {
	err := NewRootCmd(Deps{}).Execute()
	if err != nil {
		newColorScheme(isTerminal(os.Stderr)).Error.Fprintln(os.Stderr, "fetch:", err)
	}
	return err
}

func run(cmd *cobra.Command, deps Deps, f flags, rawURL string) error {
	level := slog.LevelWarn
	if f.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(deps.Stderr, &slog.HandlerOptions{Level: level}))

	opts, err := f.options(cmd)
	if err != nil {
		return err
	}

	lookuper, err := domain.ParseResolve(f.resolve)
	if err != nil {
		return errors.Wrap(err, "invalid --resolve")
	}

	factory := deps.Factory
	if factory == nil {
		factory = nethttp.NewFactory(logger, deps.Clock, nethttp.Options{Lookuper: lookuper})
	}

	c := client.New(factory, nil, logger, deps.Clock, opts)
	if f.progress {
		c.SetProgress(func(_ *semantic.Request, dlTotal, dl, ulTotal, ul int64) error {
			fmt.Fprintf(deps.Stderr, "\rdown %d/%d up %d/%d", dl, dlTotal, ul, ulTotal)
			return nil
		})
	}

	req, err := f.request(rawURL)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	resp, err := c.Send(ctx, req)
	if err != nil {
		return describe(err)
	}
	defer resp.Body().Close()

	colors := newColorScheme(!f.noColor && isTerminal(deps.Stdout))
	if f.include {
		colors.printHead(deps.Stdout, resp)
	}

	if f.extract != "" {
		return extract(deps.Stdout, resp.Body(), f.extract)
	}

	if _, err := io.Copy(deps.Stdout, resp.Body()); err != nil {
		return errors.Wrap(err, "streaming body")
	}
	return nil
}

func (f flags) options(cmd *cobra.Command) (client.Options, error) {
	opts := client.DefaultOptions()
	if f.configFile != "" {
		loaded, err := client.LoadOptionsFile(f.configFile)
		if err != nil {
			return opts, err
		}
		opts = loaded
	}

	changed := cmd.Flags().Changed
	if changed("max-redirects") {
		if f.maxRedirects < 0 {
			return opts, errors.New("--max-redirects must not be negative")
		}
		opts.Redirect.Max = f.maxRedirects
	}
	if f.noFollow {
		opts.Redirect.Follow = false
	}
	if changed("timeout") {
		opts.Transfer.Timeout = f.timeout
	}
	if changed("cookie-file") {
		opts.Transfer.CookieFile = f.cookieFile
	}

	passthrough := map[transport.OptionKey]any{}
	if f.userAgent != "" {
		passthrough[transport.OptUserAgent] = f.userAgent
	}
	if f.insecure {
		passthrough[transport.OptInsecure] = true
	}
	if f.verbose {
		passthrough[transport.OptVerbose] = true
	}
	for key, value := range passthrough {
		if opts.Transfer.Passthrough == nil {
			opts.Transfer.Passthrough = make(map[transport.OptionKey]any)
		}
		opts.Transfer.Passthrough[key] = value
	}

	return opts, nil
}

func (f flags) request(rawURL string) (*semantic.Request, error) {
	method := semantic.Method(strings.ToUpper(f.method))
	if method == "" {
		method = semantic.MethodGet
		if f.data != "" {
			method = semantic.MethodPost
		}
	}

	req, err := semantic.NewRequest(method, rawURL)
	if err != nil {
		return nil, err
	}
	if !req.URI().IsAbsolute() {
		return nil, errors.Errorf("url %q has no scheme", rawURL)
	}

	switch f.httpVersion {
	case "1.0", "1.1", "2.0":
		req = req.WithProtocolVersion(f.httpVersion)
	case "2":
		req = req.WithProtocolVersion("2.0")
	default:
		return nil, errors.Errorf("unsupported http version %q", f.httpVersion)
	}

	for _, header := range f.headers {
		name, value, ok := strings.Cut(header, ":")
		if !ok || !rule.IsValidToken(strings.TrimSpace(name)) {
			return nil, errors.Errorf("malformed header %q", header)
		}
		req = req.WithAddedHeader(strings.TrimSpace(name), strings.TrimSpace(value))
	}

	if f.data != "" {
		req = req.WithBody(semantic.NewStringStream(f.data))
	}
	return req, nil
}

func extract(w io.Writer, body semantic.Stream, path string) error {
	data, err := io.ReadAll(body)
	if err != nil {
		return errors.Wrap(err, "reading body")
	}
	if !gjson.ValidBytes(data) {
		return errors.New("response body is not valid JSON")
	}

	result := gjson.GetBytes(data, path)
	if !result.Exists() {
		return errors.Errorf("path %q not found in response", path)
	}

	_, err = fmt.Fprintln(w, result.String())
	return err
}

// describe prefixes err with the kind of failure.
func describe(err error) error {
	var (
		netErr  *client.NetworkError
		tooMany *client.TooManyRedirectsError
		reqErr  *client.RequestError
	)
	switch {
	case errors.As(err, &netErr):
		return errors.Wrapf(err, "network error (%s)", netErr.Code)
	case errors.As(err, &tooMany):
		return errors.Wrap(err, "too many redirects")
	case errors.As(err, &reqErr):
		return errors.Wrap(err, "request error")
	}
	return err
}
