// Package rule holds the ABNF core rules shared by the URI and HTTP parsers.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc5234#appendix-B.1
package rule

import "strings"

const (
	CR   byte = '\r'
	LF   byte = '\n'
	SP   byte = ' '
	HTAB byte = '\t'
)

// OWS is optional whitespace around field values.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.6.3
const OWS = " \t"

func IsAlpha(c byte) bool { return ('a' <= c && c <= 'z') || ('A' <= c && c <= 'Z') }
func IsDigit(c byte) bool { return '0' <= c && c <= '9' }

func IsHex(c byte) bool {
	return IsDigit(c) || ('a' <= c && c <= 'f') || ('A' <= c && c <= 'F')
}

// TrimOWS trims optional whitespace and line terminators on both ends.
func TrimOWS(s string) string {
	return strings.Trim(s, OWS+"\r\n")
}
