// Package http holds the wire-level primitives of Hypertext Transfer Protocol (HTTP)
// the client needs: protocol versions, status lines and field lines.
// Semantics live in [streamhttp/application/http/semantic].
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
//
// - https://datatracker.ietf.org/doc/html/rfc9113
package http
