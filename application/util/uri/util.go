package uri

import (
	"streamhttp/application/util/rule"

	"github.com/pkg/errors"
)

func containsCTL(s string) bool {
	for i := 0; i < len(s); i++ {
		b := s[i]
		if b < ' ' || b == 0x7f {
			return true
		}
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.2
func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.3
func isUnreserved(c byte) bool {
	if rule.IsAlpha(c) || rule.IsDigit(c) {
		return true
	}
	switch c {
	case '-', '.', '_', '~':
		return true
	}
	return false
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-2.1
func isPercentEncoded(s string) bool {
	if len(s) != 3 {
		return false
	}

	return s[0] == '%' && rule.IsHex(s[1]) && rule.IsHex(s[2])
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.1
func assertValidScheme(scheme string) error {
	if len(scheme) == 0 {
		return errors.New("scheme is empty")
	}

	if !rule.IsAlpha(scheme[0]) {
		return errors.New("scheme doesn't start with ALPHA")
	}

	for idx := 1; idx < len(scheme); idx++ {
		c := scheme[idx]
		switch {
		case rule.IsAlpha(c) || rule.IsDigit(c):
		case c == '+' || c == '-' || c == '.':
		default:
			return errors.Errorf("scheme contains invalid byte: %q", c)
		}
	}

	return nil
}

// normalizeHost lower-cases host and encodes it unless it is an IP literal.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.2
func normalizeHost(host string) (string, error) {
	host = toLowerASCII(host)
	if host == "" {
		// Empty value for reg-name is valid.
		return "", nil
	}

	if host[0] == '[' {
		if host[len(host)-1] != ']' {
			return "", errors.New("missing ']' in IP literal")
		}
		if _, err := parseIPv6(host[1 : len(host)-1]); err != nil {
			return "", errors.Wrap(err, "host is expected to be IPv6 literal, but was malformed")
		}
		return host, nil
	}

	if _, err := parseIPv4(host); err == nil {
		return host, nil
	}

	return escape(host, encodeHost), nil
}

// toLowerASCII lower-cases letters only, so percent-encoded octets keep their bytes.
func toLowerASCII(s string) string {
	hasUpper := false
	for i := 0; i < len(s); i++ {
		if 'A' <= s[i] && s[i] <= 'Z' {
			hasUpper = true
			break
		}
	}
	if !hasUpper {
		return s
	}

	b := []byte(s)
	for i, c := range b {
		if 'A' <= c && c <= 'Z' {
			b[i] = c + ('a' - 'A')
		}
	}
	return string(b)
}

func defaultPort(scheme string) (uint16, bool) {
	switch scheme {
	case "http":
		return 80, true
	case "https":
		return 443, true
	}
	return 0, false
}
