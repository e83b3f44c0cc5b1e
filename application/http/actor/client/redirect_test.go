package client

import (
	"context"
	"io"
	"log/slog"
	"strings"

	"streamhttp/application/http/semantic"
	"streamhttp/application/util/uri"
	"streamhttp/transport/stub"

	"github.com/pkg/errors"
)

func redirectTo(code int, location string) stub.Script {
	return stub.Script{
		StatusCode:        code,
		Headers:           []string{"Location: " + location},
		IgnoreRequestBody: true,
	}
}

func (s *ClientTestSuite) TestRedirectKeepsUnreadBody() {
	body := semantic.NewReaderStream(strings.NewReader("data"), -1)
	req := s.newRequest(semantic.MethodPost, "http://example.com/a/b").WithBody(body)

	resp, err := s.send(req,
		redirectTo(302, "/next"),
		stub.Script{Body: []byte("done")},
	)
	s.Require().NoError(err)
	s.Equal(200, resp.StatusCode())
	s.Equal("done", resp.Body().(*ResponseStream).String())

	next := s.handle(1)
	s.Equal("http://example.com/next", next.Options().URL)
	s.Equal("/next", next.Options().RequestTarget)
	s.Equal("POST", next.Options().Method)
	s.Equal("data", string(next.RequestBody()))
	s.Equal(1, s.handle(0).CloseCalls())
}

func (s *ClientTestSuite) TestRedirectFailsOnReadBody() {
	body := semantic.NewReaderStream(strings.NewReader("data"), -1)
	_, err := io.ReadFull(body, make([]byte, 2))
	s.Require().NoError(err)

	req := s.newRequest(semantic.MethodPost, "http://example.com/").WithBody(body)
	_, err = s.send(req, redirectTo(302, "/next"))

	var reqErr *RequestError
	s.Require().ErrorAs(err, &reqErr)
	s.Equal("Could not rewind body for redirect", reqErr.Message)
	s.ErrorIs(err, errBodyNotSeekable)
	s.Len(s.factory.Handles(), 1)
}

func (s *ClientTestSuite) TestRedirectLimit() {
	s.client.SetMaxRedirects(2)

	_, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"),
		redirectTo(302, "/1"),
		redirectTo(302, "/2"),
		redirectTo(302, "/3"),
	)

	var tooMany *TooManyRedirectsError
	s.Require().ErrorAs(err, &tooMany)
	s.Equal(2, tooMany.Limit)
	s.Contains(err.Error(), "Redirect limit of 2 reached")

	var reqErr *RequestError
	s.ErrorAs(err, &reqErr)
	s.Len(s.factory.Handles(), 3)
	s.Equal("http://example.com/2", s.handle(2).Options().URL)
}

func (s *ClientTestSuite) TestSeeOtherSwitchesToGet() {
	req := s.newRequest(semantic.MethodPost, "http://example.com/form").
		WithBody(semantic.NewStringStream("payload"))

	resp, err := s.send(req,
		redirectTo(303, "http://other.example/result"),
		stub.Script{},
	)
	s.Require().NoError(err)
	defer resp.Body().Close()

	next := s.handle(1)
	s.Equal("GET", next.Options().Method)
	s.Equal("http://other.example/result", next.Options().URL)
	s.Empty(next.RequestBody())

	_, ok := next.RequestHeader("Content-Length")
	s.False(ok)
}

func (s *ClientTestSuite) TestTemporaryRedirectKeepsMethodAndBody() {
	req := s.newRequest(semantic.MethodPut, "http://example.com/upload").
		WithBody(semantic.NewStringStream("payload"))

	first := redirectTo(307, "/again")
	first.IgnoreRequestBody = false

	resp, err := s.send(req, first, stub.Script{})
	s.Require().NoError(err)
	defer resp.Body().Close()

	s.Equal("payload", string(s.handle(0).RequestBody()))

	next := s.handle(1)
	s.Equal("PUT", next.Options().Method)
	s.Equal("payload", string(next.RequestBody()))

	cl, ok := next.RequestHeader("Content-Length")
	s.True(ok)
	s.Equal("7", cl)
}

func (s *ClientTestSuite) TestRedirectToGetIsConfigurable() {
	s.client.SetRedirectToGet(301, 302, 303)

	req := s.newRequest(semantic.MethodPost, "http://example.com/").
		WithBody(semantic.NewStringStream("payload"))

	resp, err := s.send(req, redirectTo(302, "/next"), stub.Script{})
	s.Require().NoError(err)
	defer resp.Body().Close()

	s.Equal("GET", s.handle(1).Options().Method)
}

func (s *ClientTestSuite) TestRedirectCancelsRunningTransfer() {
	moved := redirectTo(301, "/moved")
	moved.Body = []byte("this body is never read")

	resp, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"),
		moved,
		stub.Script{Body: []byte("ok")},
	)
	s.Require().NoError(err)
	s.Equal("ok", resp.Body().(*ResponseStream).String())

	s.Equal(1, s.handle(0).CloseCalls())
	s.True(s.handle(0).Closed())
}

func (s *ClientTestSuite) TestRedirectResolvesRelativeLocation() {
	resp, err := s.send(s.newRequest(semantic.MethodGet, "http://a/b/c/d;p?q"),
		redirectTo(302, "../g?y#s"),
		stub.Script{},
	)
	s.Require().NoError(err)
	defer resp.Body().Close()

	s.Equal("http://a/b/g?y#s", s.handle(1).Options().URL)
	s.Equal("/b/g?y", s.handle(1).Options().RequestTarget)
}

func (s *ClientTestSuite) TestInvalidRedirects() {
	testcases := []struct {
		desc    string
		script  stub.Script
		message string
	}{
		{
			desc:    "no location",
			script:  stub.Script{StatusCode: 301},
			message: "Redirect without location header",
		},
		{
			desc: "multiple locations",
			script: stub.Script{
				StatusCode: 302,
				Headers:    []string{"Location: /a", "Location: /b"},
			},
			message: "Multiple location headers in redirect",
		},
		{
			desc:    "unparsable location",
			script:  redirectTo(302, "http://"),
			message: "Invalid location header in redirect",
		},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			_, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"), tc.script)

			var reqErr *RequestError
			s.Require().ErrorAs(err, &reqErr)
			s.Equal(tc.message, reqErr.Message)
		})
	}
}

func (s *ClientTestSuite) TestStatusesThatAreNotFollowed() {
	testcases := []struct {
		desc   string
		script stub.Script
	}{
		{desc: "bare 300", script: stub.Script{StatusCode: 300}},
		{desc: "304 with location", script: redirectTo(304, "/cached")},
		{desc: "305 with location", script: redirectTo(305, "/proxy")},
		{desc: "200 with location", script: redirectTo(200, "/created")},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			resp, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"), tc.script)
			s.Require().NoError(err)
			defer resp.Body().Close()

			s.Equal(tc.script.StatusCode, resp.StatusCode())
		})
	}
}

func (s *ClientTestSuite) TestMultipleChoicesWithLocationIsFollowed() {
	resp, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"),
		redirectTo(300, "/chosen"),
		stub.Script{},
	)
	s.Require().NoError(err)
	defer resp.Body().Close()

	s.Equal(200, resp.StatusCode())
	s.Equal("http://example.com/chosen", s.handle(1).Options().URL)
}

func (s *ClientTestSuite) TestRedirectsNotFollowed() {
	testcases := []struct {
		desc      string
		configure func(c *Client)
	}{
		{desc: "following disabled", configure: func(c *Client) { c.SetFollowRedirects(false) }},
		{desc: "zero limit", configure: func(c *Client) { c.SetMaxRedirects(0) }},
	}

	for _, tc := range testcases {
		s.Run(tc.desc, func() {
			s.SetupTest()
			tc.configure(s.client)

			resp, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"), redirectTo(302, "/next"))
			s.Require().NoError(err)
			defer resp.Body().Close()

			s.Equal(302, resp.StatusCode())
			s.Equal("/next", resp.HeaderLine("Location"))
			s.Len(s.factory.Handles(), 1)
		})
	}
}

func (s *ClientTestSuite) TestRedirectCheck() {
	var seen []RedirectContext

	opts := DefaultOptions()
	opts.Redirect.Check = func(rc RedirectContext) error {
		seen = append(seen, rc)
		if rc.Redirects == 1 {
			return errors.New("no second hop")
		}
		return nil
	}
	s.client = New(s.factory, nil, slog.New(slog.DiscardHandler), s.clock, opts)

	_, err := s.send(s.newRequest(semantic.MethodGet, "http://example.com/"),
		redirectTo(301, "/1"),
		redirectTo(302, "/2"),
	)

	var reqErr *RequestError
	s.Require().ErrorAs(err, &reqErr)
	s.Equal("Redirect rejected", reqErr.Message)
	s.Contains(err.Error(), "no second hop")

	s.Require().Len(seen, 2)
	s.Equal(301, seen[0].Response.StatusCode())
	s.Equal("http://example.com/1", seen[1].Request.URI().String())
	s.Equal(1, seen[1].Redirects)
}

func (s *ClientTestSuite) TestRedirectUsesCustomResolver() {
	target := uri.MustParse("http://elsewhere.example/fixed")
	s.client = New(s.factory, resolverFunc(func(_, _ *uri.URI) *uri.URI { return target }),
		slog.New(slog.DiscardHandler), s.clock, DefaultOptions())

	resp, err := s.client.Send(context.Background(), s.newRequest(semantic.MethodGet, "http://example.com/"))
	s.Require().NoError(err)
	resp.Body().Close()

	s.factory.Push(redirectTo(302, "/ignored"))
	s.factory.Push(stub.Script{})
	resp, err = s.client.Send(context.Background(), s.newRequest(semantic.MethodGet, "http://example.com/"))
	s.Require().NoError(err)
	defer resp.Body().Close()

	s.Equal("http://elsewhere.example/fixed", s.factory.Last().Options().URL)
}

type resolverFunc func(base, ref *uri.URI) *uri.URI

func (f resolverFunc) Resolve(base, ref *uri.URI) *uri.URI { return f(base, ref) }
