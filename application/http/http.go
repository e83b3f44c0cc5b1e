package http

import (
	"strconv"
	"strings"

	"streamhttp/application/util/rule"

	"github.com/pkg/errors"
)

// [Major, Minor]
type Version [2]uint

var (
	Version10 = Version{1, 0}
	Version11 = Version{1, 1}
	Version2  = Version{2, 0}
)

// ParseVersion parses http version text(e.g. "HTTP/1.1") into [Version].
// HTTP/2 and later carry no minor version on the wire ("HTTP/2").
func ParseVersion(s string) (Version, error) {
	const prefix = "HTTP/"
	rest, ok := strings.CutPrefix(s, prefix)
	if !ok {
		return Version{}, errors.Errorf("http version prefix not found: %s", s)
	}

	ver, err := ParseProtocolVersion(rest)
	if err != nil {
		return Version{}, errors.Wrapf(err, "parsing %q", s)
	}
	return ver, nil
}

// ParseProtocolVersion parses the bare protocol version, e.g. "1.1" or "2".
func ParseProtocolVersion(s string) (Version, error) {
	first, second, found := strings.Cut(s, ".")

	major, err := parseVersionDigit(first)
	if err != nil {
		return Version{}, err
	}

	if !found {
		if major < 2 {
			return Version{}, errors.Errorf("dot seperator not found on version: %s", s)
		}
		return Version{major, 0}, nil
	}

	minor, err := parseVersionDigit(second)
	if err != nil {
		return Version{}, err
	}

	return Version{major, minor}, nil
}

func parseVersionDigit(s string) (uint, error) {
	if s == "" {
		return 0, errors.New("empty version digit")
	}
	for i := 0; i < len(s); i++ {
		if !rule.IsDigit(s[i]) {
			return 0, errors.Errorf("http version is not convertable to int: %s", s)
		}
	}

	n, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, errors.Wrap(err, "http version is too large")
	}
	return uint(n), nil
}

// Protocol returns the version without the "HTTP/" prefix.
func (ver Version) Protocol() string {
	if ver[0] >= 2 && ver[1] == 0 {
		return strconv.FormatUint(uint64(ver[0]), 10)
	}
	return strconv.FormatUint(uint64(ver[0]), 10) + "." + strconv.FormatUint(uint64(ver[1]), 10)
}

func (ver Version) Text() []byte { return []byte(ver.String()) }

func (ver Version) String() string { return "HTTP/" + ver.Protocol() }

type StatusLine struct {
	Version      Version
	StatusCode   int
	ReasonPhrase string
}

// IsStatusLine reports whether a raw header line is a status line
// rather than a field line.
func IsStatusLine(line string) bool {
	return strings.HasPrefix(line, "HTTP/") && !strings.Contains(line, ":")
}

// ParseStatusLine parses "HTTP/1.1 200 OK". The reason phrase is optional.
//
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-4
func ParseStatusLine(line string) (StatusLine, error) {
	parts := strings.SplitN(rule.TrimOWS(line), string(rule.SP), 3)
	if len(parts) < 2 {
		return StatusLine{}, errors.New("status line is malformed")
	}

	ver, err := ParseVersion(parts[0])
	if err != nil {
		return StatusLine{}, errors.Wrap(err, "parsing version")
	}

	statusCodeStr := parts[1]
	statusCode, err := strconv.Atoi(statusCodeStr)
	if err != nil || len(statusCodeStr) != 3 {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	reasonPhrase := ""
	if len(parts) == 3 {
		reasonPhrase = parts[2]
	}

	return StatusLine{Version: ver, StatusCode: statusCode, ReasonPhrase: reasonPhrase}, nil
}

type Field struct{ Name, Value string }

// ParseField splits a field line on the first colon and trims both sides.
func ParseField(fieldLine string) (Field, error) {
	name, value, found := strings.Cut(fieldLine, ":")
	if !found {
		return Field{}, errors.Errorf("colon seperator not found on header: %q", fieldLine)
	}

	// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-5.1-3
	return Field{Name: rule.TrimOWS(name), Value: rule.TrimOWS(value)}, nil
}

func (f Field) Text() []byte {
	return []byte(f.Name + ": " + f.Value)
}
