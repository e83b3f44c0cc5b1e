package semantic

import (
	"streamhttp/application/http/semantic/status"
)

// Response is an immutable incoming response.
type Response struct {
	message

	status status.Status
}

// NewResponse creates a response with the registered reason phrase of code.
func NewResponse(code int) *Response {
	s, _ := status.FromCode(code)
	return &Response{message: newMessage(), status: s}
}

func (r *Response) StatusCode() int { return r.status.Code }

func (r *Response) ReasonPhrase() string { return r.status.ReasonPhrase }

func (r *Response) Status() status.Status { return r.status }

// WithStatus sets both code and phrase. An empty phrase stays empty.
func (r *Response) WithStatus(code int, reasonPhrase string) *Response {
	if code == r.status.Code && reasonPhrase == r.status.ReasonPhrase {
		return r
	}
	c := *r
	c.status = status.Status{Code: code, ReasonPhrase: reasonPhrase}
	return &c
}

func (r *Response) WithProtocolVersion(version string) *Response {
	if version == r.version {
		return r
	}
	c := *r
	c.message = r.message.clone()
	c.version = version
	return &c
}

func (r *Response) WithHeader(name string, values ...string) *Response {
	c := *r
	c.message = r.withHeader(name, values...)
	return &c
}

func (r *Response) WithAddedHeader(name string, values ...string) *Response {
	c := *r
	c.message = r.withAddedHeader(name, values...)
	return &c
}

func (r *Response) WithoutHeader(name string) *Response {
	if !r.HasHeader(name) {
		return r
	}
	c := *r
	c.message = r.withoutHeader(name)
	return &c
}

func (r *Response) WithBody(body Stream) *Response {
	c := *r
	c.message = r.withBody(body)
	return &c
}
