package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// URI is an immutable URI reference.
// All components are stored percent-encoded; scheme and host are lowercase.
// The With* methods return a modified copy, or the receiver itself
// when the requested value equals the current one.
type URI struct {
	scheme   string
	user     string
	password string
	host     string
	port     uint16
	hasPort  bool
	path     string
	query    string
	fragment string
}

var (
	ErrInvalidURI = errors.New("invalid uri")
)

// Parse parses raw into a URI.
// Characters that are not allowed in a component are percent-encoded
// rather than rejected. Malformed scheme, port or IP literal is an error.
func Parse(raw string) (*URI, error) {
	if containsCTL(raw) {
		return nil, errors.Wrap(ErrInvalidURI, "uri contains control byte")
	}

	scheme, rest, err := cutScheme(raw)
	if err != nil {
		return nil, errors.Wrap(err, "parsing scheme")
	}

	uri := &URI{scheme: toLowerASCII(scheme)}

	var path, query, fragment string
	if after, ok := strings.CutPrefix(rest, "//"); ok {
		end := strings.IndexAny(after, "/?#")
		if end < 0 {
			end = len(after)
		}
		if err := uri.parseAuthority(after[:end]); err != nil {
			return nil, errors.Wrap(err, "parsing authority")
		}

		path, query, fragment = splitPathQueryFrag(after[end:])
		if uri.host == "" && path == "" && uri.user == "" && !uri.hasPort {
			return nil, errors.Wrapf(ErrInvalidURI, "uri %q has empty authority and path", raw)
		}
	} else {
		path, query, fragment = splitPathQueryFrag(rest)
	}

	uri.path = escape(path, encodePath)
	uri.query = escape(query, encodeQuery)
	uri.fragment = escape(fragment, encodeFragment)

	return uri, nil
}

// MustParse is like Parse but panics on error.
func MustParse(raw string) *URI {
	uri, err := Parse(raw)
	if err != nil {
		panic(err)
	}
	return uri
}

// cutScheme splits rawURI into scheme and the rest.
// The scheme is only recognized before the first '/', '?' or '#'.
func cutScheme(rawURI string) (scheme, rest string, err error) {
	idx := strings.IndexAny(rawURI, ":/?#")
	if idx < 0 || rawURI[idx] != ':' {
		return "", rawURI, nil
	}
	if idx == 0 {
		return "", "", errors.Wrap(ErrInvalidURI, "missing scheme")
	}

	scheme = rawURI[:idx]
	if err := assertValidScheme(scheme); err != nil {
		return "", "", errors.Wrap(ErrInvalidURI, err.Error())
	}

	return scheme, rawURI[idx+1:], nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2
func (u *URI) parseAuthority(authority string) error {
	if idx := strings.LastIndexByte(authority, '@'); idx >= 0 {
		user, password, _ := strings.Cut(authority[:idx], ":")
		u.user = escape(user, encodeUserInfo)
		u.password = escape(password, encodeUserInfo)
		authority = authority[idx+1:]
	}

	host, port, err := getHostPort(authority)
	if err != nil {
		return err
	}

	if u.host, err = normalizeHost(host); err != nil {
		return errors.Wrap(ErrInvalidURI, err.Error())
	}

	if port != "" {
		p, err := parsePort(port)
		if err != nil {
			return err
		}
		u.port, u.hasPort = p, true
	}

	return nil
}

func getHostPort(hostport string) (host, port string, err error) {
	if strings.HasPrefix(hostport, "[") {
		end := strings.IndexByte(hostport, ']')
		if end < 0 {
			return "", "", errors.Wrap(ErrInvalidURI, "missing ']' in host")
		}

		host, rest := hostport[:end+1], hostport[end+1:]
		if rest == "" {
			return host, "", nil
		}
		if rest[0] != ':' {
			return "", "", errors.Wrapf(ErrInvalidURI, "unexpected %q after IP literal", rest)
		}
		return host, rest[1:], nil
	}

	host, port, _ = strings.Cut(hostport, ":")
	return host, port, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.2.3
func parsePort(port string) (uint16, error) {
	for i := 0; i < len(port); i++ {
		if port[i] < '0' || port[i] > '9' {
			return 0, errors.Wrapf(ErrInvalidURI, "port %q is not a number", port)
		}
	}

	n, err := strconv.ParseUint(port, 10, 16)
	if err != nil {
		return 0, errors.Wrapf(ErrInvalidURI, "port %q is out of range", port)
	}

	return uint16(n), nil
}

// splitPathQueryFrag splits "path?query#fragment".
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-3.3
func splitPathQueryFrag(s string) (path, query, fragment string) {
	s, fragment, _ = strings.Cut(s, "#")
	path, query, _ = strings.Cut(s, "?")
	return path, query, fragment
}

func (u *URI) Scheme() string   { return u.scheme }
func (u *URI) User() string     { return u.user }
func (u *URI) Password() string { return u.password }
func (u *URI) Host() string     { return u.host }
func (u *URI) Query() string    { return u.query }
func (u *URI) Fragment() string { return u.fragment }

// UserInfo returns "user[:password]", or empty string without user.
func (u *URI) UserInfo() string {
	if u.user == "" {
		return ""
	}
	if u.password == "" {
		return u.user
	}
	return u.user + ":" + u.password
}

// Port returns the port, unless it is absent
// or is the default one of the scheme.
func (u *URI) Port() (uint16, bool) {
	if !u.hasPort {
		return 0, false
	}
	if p, ok := defaultPort(u.scheme); ok && p == u.port {
		return 0, false
	}
	return u.port, true
}

// Authority returns "[userinfo@]host[:port]".
// It is empty when the host is empty.
func (u *URI) Authority() string {
	if u.host == "" {
		return ""
	}

	var b strings.Builder
	if userinfo := u.UserInfo(); userinfo != "" {
		b.WriteString(userinfo)
		b.WriteByte('@')
	}
	b.WriteString(u.host)
	if port, ok := u.Port(); ok {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(port), 10))
	}
	return b.String()
}

// Path returns the path, adjusted so that it composes with the authority:
// a rootless path gets a leading slash when there is an authority,
// and leading slashes collapse into one when there is not.
func (u *URI) Path() string {
	path := u.path
	if path == "" {
		return path
	}

	if u.Authority() != "" {
		if path[0] != '/' {
			return "/" + path
		}
		return path
	}

	if strings.HasPrefix(path, "//") {
		return "/" + strings.TrimLeft(path, "/")
	}
	return path
}

// RequestTarget returns the origin-form used in a request line.
// Reference: https://datatracker.ietf.org/doc/html/rfc9112#section-3.2.1
func (u *URI) RequestTarget() string {
	target := u.Path()
	if target == "" {
		target = "/"
	}
	if u.query != "" {
		target += "?" + u.query
	}
	return target
}

// IsAbsolute reports whether the URI has a scheme.
func (u *URI) IsAbsolute() bool { return u.scheme != "" }

// String recomposes the URI.
// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.3
func (u *URI) String() string {
	var b strings.Builder

	if u.scheme != "" {
		b.WriteString(u.scheme)
		b.WriteByte(':')
	}

	authority := u.Authority()
	if authority != "" || u.scheme == "file" {
		b.WriteString("//")
		b.WriteString(authority)
	}

	b.WriteString(u.Path())

	if u.query != "" {
		b.WriteByte('?')
		b.WriteString(u.query)
	}
	if u.fragment != "" {
		b.WriteByte('#')
		b.WriteString(u.fragment)
	}

	return b.String()
}

// Equal reports whether the both have identical components.
func (u *URI) Equal(other *URI) bool {
	if u == nil || other == nil {
		return u == other
	}
	return *u == *other
}

func (u *URI) clone() *URI {
	c := *u
	return &c
}

func (u *URI) WithScheme(scheme string) (*URI, error) {
	scheme = toLowerASCII(scheme)
	if scheme == u.scheme {
		return u, nil
	}
	if scheme != "" {
		if err := assertValidScheme(scheme); err != nil {
			return nil, errors.Wrap(ErrInvalidURI, err.Error())
		}
	}

	c := u.clone()
	c.scheme = scheme
	return c, nil
}

// WithUserInfo sets user and password. Password is dropped without user.
func (u *URI) WithUserInfo(user, password string) *URI {
	user = escape(user, encodeUserInfo)
	password = escape(password, encodeUserInfo)
	if user == "" {
		password = ""
	}
	if user == u.user && password == u.password {
		return u
	}

	c := u.clone()
	c.user, c.password = user, password
	return c
}

func (u *URI) WithHost(host string) (*URI, error) {
	host, err := normalizeHost(host)
	if err != nil {
		return nil, errors.Wrap(ErrInvalidURI, err.Error())
	}
	if host == u.host {
		return u, nil
	}

	c := u.clone()
	c.host = host
	return c, nil
}

func (u *URI) WithPort(port uint16) *URI {
	if u.hasPort && u.port == port {
		return u
	}

	c := u.clone()
	c.port, c.hasPort = port, true
	return c
}

func (u *URI) WithoutPort() *URI {
	if !u.hasPort {
		return u
	}

	c := u.clone()
	c.port, c.hasPort = 0, false
	return c
}

func (u *URI) WithPath(path string) *URI {
	path = escape(path, encodePath)
	if path == u.path {
		return u
	}

	c := u.clone()
	c.path = path
	return c
}

func (u *URI) WithQuery(query string) *URI {
	query = escape(query, encodeQuery)
	if query == u.query {
		return u
	}

	c := u.clone()
	c.query = query
	return c
}

func (u *URI) WithFragment(fragment string) *URI {
	fragment = escape(fragment, encodeFragment)
	if fragment == u.fragment {
		return u
	}

	c := u.clone()
	c.fragment = fragment
	return c
}
