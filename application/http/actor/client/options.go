package client

import (
	"maps"
	"slices"
	"time"

	"streamhttp/application/http/semantic"
	"streamhttp/transport"
)

// ProgressFunc observes transfer progress of req. A non-nil error aborts the transfer.
type ProgressFunc func(req *semantic.Request, downloadTotal, downloaded, uploadTotal, uploaded int64) error

type Options struct {
	Redirect RedirectOptions
	Transfer TransferOptions

	// DefaultHeaders are added to a request that does not set them already.
	DefaultHeaders semantic.Headers
	Progress       ProgressFunc
}

type RedirectOptions struct {
	Follow bool
	// Max is the number of redirects followed before giving up.
	// Zero disables following.
	Max int
	// ToGet lists the statuses whose redirect is re-issued as a GET without body.
	// Historically 301 and 302 were handled this way too.
	ToGet []int

	// Check, if set, is consulted before every redirect is followed.
	Check func(RedirectContext) error
}

type TransferOptions struct {
	// Timeout bounds every attempt. Zero means no timeout.
	Timeout    time.Duration
	CookieFile string

	// Passthrough is applied to the handle before the options the client manages,
	// so it can never override them.
	Passthrough map[transport.OptionKey]any
}

func DefaultOptions() Options {
	return Options{
		Redirect: RedirectOptions{
			Follow: true,
			Max:    10,
			ToGet:  []int{303},
		},
	}
}

// clone returns a copy sharing no mutable state with o.
func (o Options) clone() Options {
	c := o
	c.Redirect.ToGet = slices.Clone(o.Redirect.ToGet)
	c.Transfer.Passthrough = maps.Clone(o.Transfer.Passthrough)
	c.DefaultHeaders = o.DefaultHeaders.Clone()
	return c
}

func (o Options) followsRedirects() bool {
	return o.Redirect.Follow && o.Redirect.Max > 0
}

func (o Options) redirectsToGet(code int) bool {
	return slices.Contains(o.Redirect.ToGet, code)
}
