package semantic

import (
	"streamhttp/application/util/uri"

	"github.com/pkg/errors"
)

// Request is an immutable outgoing request.
type Request struct {
	message

	method Method
	uri    *uri.URI
	target string
}

func NewRequest(method Method, rawURI string) (*Request, error) {
	if !method.IsValid() {
		return nil, errors.Errorf("invalid method %q", method)
	}
	u, err := uri.Parse(rawURI)
	if err != nil {
		return nil, errors.Wrap(err, "parsing request uri")
	}
	return NewRequestWithURI(method, u), nil
}

func NewRequestWithURI(method Method, u *uri.URI) *Request {
	return &Request{message: newMessage(), method: method, uri: u}
}

func (r *Request) Method() Method { return r.method }

func (r *Request) URI() *uri.URI { return r.uri }

// RequestTarget returns the explicit target if one was set,
// otherwise the origin-form of the URI.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2
func (r *Request) RequestTarget() string {
	if r.target != "" {
		return r.target
	}
	return r.uri.RequestTarget()
}

func (r *Request) clone() *Request {
	c := *r
	c.message = r.message.clone()
	return &c
}

func (r *Request) WithMethod(method Method) *Request {
	if method == r.method {
		return r
	}
	c := r.clone()
	c.method = method
	return c
}

func (r *Request) WithURI(u *uri.URI) *Request {
	if u == r.uri {
		return r
	}
	c := r.clone()
	c.uri = u
	return c
}

func (r *Request) WithRequestTarget(target string) *Request {
	if target == r.target {
		return r
	}
	c := r.clone()
	c.target = target
	return c
}

func (r *Request) WithProtocolVersion(version string) *Request {
	if version == r.version {
		return r
	}
	c := r.clone()
	c.version = version
	return c
}

func (r *Request) WithHeader(name string, values ...string) *Request {
	c := *r
	c.message = r.withHeader(name, values...)
	return &c
}

func (r *Request) WithAddedHeader(name string, values ...string) *Request {
	c := *r
	c.message = r.withAddedHeader(name, values...)
	return &c
}

func (r *Request) WithoutHeader(name string) *Request {
	if !r.HasHeader(name) {
		return r
	}
	c := *r
	c.message = r.withoutHeader(name)
	return &c
}

func (r *Request) WithBody(body Stream) *Request {
	c := *r
	c.message = r.withBody(body)
	return &c
}
