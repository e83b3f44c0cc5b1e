// Package uri implements Uniform Resource Identifier (URI) values and
// reference resolution.
//
// Components are kept percent-encoded; see [URI].
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc3986
//
// - TODO: https://datatracker.ietf.org/doc/html/rfc6874
package uri
