package client

import (
	"streamhttp/application/http/semantic"
	"streamhttp/transport"

	"github.com/pkg/errors"
)

// Transport codes meaning the server could not be reached or the exchange
// broke at the connection level.
var connectionErrors = map[transport.Code]struct{}{
	transport.CouldntConnect:      {},
	transport.CouldntResolveHost:  {},
	transport.CouldntResolveProxy: {},
	transport.GotNothing:          {},
	transport.OperationTimedOut:   {},
	transport.RecvError:           {},
	transport.SendError:           {},
}

func isConnectionError(code transport.Code) bool {
	_, ok := connectionErrors[code]
	return ok
}

var (
	errRedirected   = errors.New("request redirected")
	errStreamClosed = errors.New("stream closed")
)

// NetworkError reports that the request could not reach the server.
type NetworkError struct {
	Request *semantic.Request
	Code    transport.Code
	Message string
}

func (e *NetworkError) Error() string { return e.Message }

// RequestError reports every other failure of a request: non-connection
// transport codes and protocol violations detected while handling the response.
type RequestError struct {
	Request *semantic.Request
	Code    transport.Code
	Message string

	cause error
}

func newRequestError(req *semantic.Request, message string, cause error) *RequestError {
	return &RequestError{Request: req, Message: message, cause: cause}
}

func (e *RequestError) Error() string {
	if e.cause == nil {
		return e.Message
	}
	return e.Message + ": " + e.cause.Error()
}

func (e *RequestError) Cause() error { return e.cause }

func (e *RequestError) Unwrap() error { return e.cause }

// TooManyRedirectsError is a [RequestError] raised when the redirect limit is hit.
type TooManyRedirectsError struct {
	*RequestError
	Limit int
}

func (e *TooManyRedirectsError) Unwrap() error { return e.RequestError }

// ReadError is returned by [ResponseStream.Read] once the transfer has failed.
type ReadError struct {
	Code transport.Code
	Text string

	cause error
}

func (e *ReadError) Error() string {
	switch {
	case e.Text != "":
		return "Failed to read from stream: " + e.Text
	case e.cause != nil:
		return "Failed to read from stream: " + e.cause.Error()
	}
	return "Failed to read from stream"
}

func (e *ReadError) Cause() error { return e.cause }

func (e *ReadError) Unwrap() error { return e.cause }

// transferError converts a failed transfer into the error kind callers see.
func transferError(req *semantic.Request, code transport.Code, text string) error {
	if isConnectionError(code) {
		return &NetworkError{Request: req, Code: code, Message: text}
	}
	return &RequestError{Request: req, Code: code, Message: text}
}
