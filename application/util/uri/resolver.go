package uri

import (
	"strings"

	"streamhttp/lib/ds/stack"
)

// Resolver resolves a reference against a base URI.
type Resolver interface {
	Resolve(base, ref *URI) *URI
}

// RefResolver implements reference resolution of RFC 3986.
type RefResolver struct{}

var _ Resolver = (*RefResolver)(nil)

func NewRefResolver() *RefResolver {
	return &RefResolver{}
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.2
func (rr *RefResolver) Resolve(base, ref *URI) *URI {
	if ref.scheme != "" {
		return ref
	}

	if ref.Authority() != "" {
		out := ref.WithPath(removeDotSegments(ref.Path()))
		if out.scheme != base.scheme {
			out = out.clone()
			out.scheme = base.scheme
		}
		return out
	}

	out := &URI{
		scheme:   base.scheme,
		user:     base.user,
		password: base.password,
		host:     base.host,
		port:     base.port,
		hasPort:  base.hasPort,
		fragment: ref.fragment,
	}

	if refPath := ref.Path(); refPath == "" {
		out.path = base.Path()
		out.query = ref.query
		if out.query == "" {
			out.query = base.query
		}
	} else {
		out.path = mergePaths(base.Path(), refPath)
		out.query = ref.query
	}
	out.path = removeDotSegments(out.path)

	return out
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.3
func mergePaths(basePath, refPath string) string {
	if strings.HasPrefix(refPath, "/") {
		return refPath
	}

	idx := strings.LastIndexByte(basePath, '/')
	if idx < 0 {
		return "/" + refPath
	}

	return basePath[:idx+1] + refPath
}

// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.2.4
func removeDotSegments(path string) string {
	if path == "" {
		return path
	}

	segments := strings.Split(path, "/")
	out := stack.New[string](len(segments))

	for _, segment := range segments {
		switch segment {
		case ".":
		case "..":
			// Popping an empty stack is a no-op.
			_, _ = out.Pop()
		default:
			out.Push(segment)
		}
	}

	result := strings.Join(out.Data(), "/")

	if strings.HasPrefix(path, "/") && !strings.HasPrefix(result, "/") {
		result = "/" + result
	}

	last := segments[len(segments)-1]
	if (last == "." || last == "..") && !strings.HasSuffix(result, "/") {
		result += "/"
	}

	return result
}
