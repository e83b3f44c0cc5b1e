package semantic

import (
	"strings"

	"streamhttp/application/http"
	"streamhttp/application/util/rule"
)

// HeaderParser collects raw header lines, one per call, as the transport
// delivers them.
type HeaderParser struct {
	headers    Headers
	statusLine *http.StatusLine
	reason     *string
}

func NewHeaderParser() *HeaderParser { return &HeaderParser{} }

// ParseLine ingests one raw header line and returns the number of bytes consumed.
// A status line resets the reason phrase; lines without a colon are ignored.
func (p *HeaderParser) ParseLine(raw string) int {
	if http.IsStatusLine(raw) {
		reason := ""
		if parts := strings.SplitN(rule.TrimOWS(raw), " ", 3); len(parts) == 3 {
			reason = parts[2]
		}
		p.reason = &reason

		p.statusLine = nil
		if line, err := http.ParseStatusLine(raw); err == nil {
			p.statusLine = &line
		}
		return len(raw)
	}

	field, err := http.ParseField(raw)
	if err != nil {
		return len(raw)
	}

	p.headers.Add(field.Name, field.Value)
	return len(raw)
}

// ReasonPhrase is ok once a status line has been seen.
func (p *HeaderParser) ReasonPhrase() (string, bool) {
	if p.reason == nil {
		return "", false
	}
	return *p.reason, true
}

// StatusLine returns the last well-formed status line.
func (p *HeaderParser) StatusLine() (http.StatusLine, bool) {
	if p.statusLine == nil {
		return http.StatusLine{}, false
	}
	return *p.statusLine, true
}

// ApplyTo appends every collected header to resp.
func (p *HeaderParser) ApplyTo(resp *Response) *Response {
	if p.headers.Len() == 0 {
		return resp
	}

	c := *resp
	c.message = resp.message.clone()
	for _, field := range p.headers.Fields() {
		c.headers.Add(field.Name, field.Value)
	}
	return &c
}
