package semantic

import "streamhttp/application/util/rule"

type Method string

const (
	MethodGet     Method = "GET"
	MethodHead    Method = "HEAD"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodPatch   Method = "PATCH"
	MethodDelete  Method = "DELETE"
	MethodConnect Method = "CONNECT"
	MethodOptions Method = "OPTIONS"
	MethodTrace   Method = "TRACE"
)

// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.2.1-3
func DefaultSafeMethods() []Method {
	return []Method{
		MethodGet, MethodHead, MethodOptions, MethodTrace,
	}
}

// IsSafe reports whether m is one of [DefaultSafeMethods].
func (m Method) IsSafe() bool {
	for _, safe := range DefaultSafeMethods() {
		if m == safe {
			return true
		}
	}
	return false
}

// IsValid reports whether m is a token, as a method must be.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-9.1
func (m Method) IsValid() bool { return rule.IsValidToken(string(m)) }
