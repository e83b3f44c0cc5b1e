package client

import (
	"context"
	"log/slog"
	"strconv"

	"streamhttp/application/http/semantic"
	"streamhttp/application/http/semantic/status"
	"streamhttp/application/util/uri"

	"github.com/pkg/errors"
)

// RedirectContext is the state a redirect is decided on.
type RedirectContext struct {
	// Request is the request that got redirected.
	Request  *semantic.Request
	Response *semantic.Response
	// Redirects already followed before this one.
	Redirects int
}

var errBodyNotSeekable = errors.New("Request body is not seekable")

// A bare 300 is only followed when the server picked a Location.
// 304, 305 and 306 are never followed.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-15.4
func isRedirect(resp *semantic.Response) bool {
	switch resp.StatusCode() {
	case status.MultipleChoices.Code:
		return resp.HasHeader("Location")
	case status.MovedPermanently.Code,
		status.Found.Code,
		status.SeeOther.Code,
		status.TemporaryRedirect.Code,
		status.PermanentRedirect.Code:
		return true
	}
	return false
}

func (c *Client) redirect(ctx context.Context, rc RedirectContext, opts Options) (*semantic.Response, error) {
	req, resp := rc.Request, rc.Response

	if rc.Redirects >= opts.Redirect.Max {
		return nil, &TooManyRedirectsError{
			RequestError: newRequestError(req, "Redirect limit of "+strconv.Itoa(opts.Redirect.Max)+" reached", nil),
			Limit:        opts.Redirect.Max,
		}
	}

	locations := resp.Header("Location")
	switch {
	case len(locations) == 0:
		return nil, newRequestError(req, "Redirect without location header", nil)
	case len(locations) > 1:
		return nil, newRequestError(req, "Multiple location headers in redirect", nil)
	}

	ref, err := uri.Parse(locations[0])
	if err != nil {
		return nil, newRequestError(req, "Invalid location header in redirect", err)
	}

	if opts.Redirect.Check != nil {
		if err := opts.Redirect.Check(rc); err != nil {
			return nil, newRequestError(req, "Redirect rejected", err)
		}
	}

	location := c.resolver.Resolve(req.URI(), ref)
	next := req.WithURI(location).WithRequestTarget("")

	if opts.redirectsToGet(resp.StatusCode()) {
		next = next.WithMethod(semantic.MethodGet).
			WithBody(semantic.EmptyStream()).
			WithoutHeader("Content-Length")
	} else if err := rewindBody(next.Body()); err != nil {
		return nil, newRequestError(next, "Could not rewind body for redirect", err)
	}

	level := slog.LevelInfo
	if !next.Method().IsSafe() {
		level = slog.LevelWarn
	}
	c.logger.Log(ctx, level, "following redirect",
		slog.Int("status", resp.StatusCode()),
		slog.String("from", req.URI().String()),
		slog.String("to", location.String()),
		slog.String("method", string(next.Method())),
		slog.Int("redirects", rc.Redirects+1),
	)

	return c.send(ctx, next, opts, rc.Redirects+1)
}

// rewindBody makes body readable from the start again.
// A body nobody read from is left alone.
func rewindBody(body semantic.Stream) error {
	if body.Tell() == 0 {
		return nil
	}
	if !body.Seekable() {
		return errBodyNotSeekable
	}
	return body.Rewind()
}
