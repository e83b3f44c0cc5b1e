package uri

import (
	"strings"
)

type encodeMode uint

const (
	encodeUserInfo encodeMode = 1 + iota
	encodeHost
	encodePath
	encodeQuery
	encodeFragment
)

func hex(c byte) (h [2]byte) {
	const hexSet = "0123456789ABCDEF"
	h[0] = hexSet[c>>4]
	h[1] = hexSet[c&0xF]
	return
}

// escape percent-encodes every byte that is not allowed in the component
// selected by mode. Well-formed percent-encoded triples are passed through
// untouched, so escaping an escaped string is a no-op.
func escape(s string, mode encodeMode) string {
	if !needsEscape(s, mode) {
		return s
	}

	b := new(strings.Builder)
	b.Grow(len(s) + len(s)/2)

	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c == '%' && idx+2 < len(s) && isPercentEncoded(s[idx:idx+3]) {
			b.WriteString(s[idx : idx+3])
			idx += 2
			continue
		}
		if shouldEscape(c, mode) {
			h := hex(c)
			b.Write([]byte{'%', h[0], h[1]})
		} else {
			b.WriteByte(c)
		}
	}

	return b.String()
}

func needsEscape(s string, mode encodeMode) bool {
	for idx := 0; idx < len(s); idx++ {
		c := s[idx]
		if c == '%' && idx+2 < len(s) && isPercentEncoded(s[idx:idx+3]) {
			idx += 2
			continue
		}
		if shouldEscape(c, mode) {
			return true
		}
	}
	return false
}

func shouldEscape(c byte, mode encodeMode) bool {
	if isUnreserved(c) || isSubDelim(c) {
		return false
	}

	switch mode {
	case encodeUserInfo, encodeHost:
		// Reference:
		// https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.1
		// https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
		return true
	case encodePath:
		// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
		return !(c == ':' || c == '@' || c == '/')
	case encodeFragment, encodeQuery:
		// Reference:
		// https://datatracker.ietf.org/doc/html/rfc3986#section-3.4
		// https://datatracker.ietf.org/doc/html/rfc3986#section-3.5
		return !(c == ':' || c == '@' || c == '/' || c == '?')
	}

	return true
}
