package semantic

import (
	"strings"

	"streamhttp/application/http"
)

// Headers is an ordered multimap of header fields.
// Names match case-insensitively; the case of the first occurrence is kept.
// The zero value is ready to use.
type Headers struct {
	names      []string
	underlying map[string][]string // keyed by lower-cased name
}

func NewHeaders() Headers { return Headers{} }

// HeadersFrom creates semantic header from raw fields.
// Values of fields sharing a name are merged in order.
func HeadersFrom(fields []http.Field) Headers {
	var h Headers
	for _, field := range fields {
		h.Add(field.Name, field.Value)
	}
	return h
}

func (h *Headers) init() {
	if h.underlying == nil {
		h.underlying = make(map[string][]string)
	}
}

func (h *Headers) Len() int { return len(h.names) }

// Names returns field names in insertion order.
func (h *Headers) Names() []string {
	names := make([]string, len(h.names))
	copy(names, h.names)
	return names
}

// Fields flattens the headers into field lines, preserving order.
func (h *Headers) Fields() []http.Field {
	fields := make([]http.Field, 0, len(h.names))
	for _, name := range h.names {
		for _, v := range h.underlying[canonical(name)] {
			fields = append(fields, http.Field{Name: name, Value: v})
		}
	}
	return fields
}

func (h *Headers) Has(key string) bool {
	_, ok := h.underlying[canonical(key)]
	return ok
}

// Get assumes the field is a singleton field.
// Even if key has multiple values, it will only return the first element of values.
// For list-based field, use [Headers.Values].
func (h *Headers) Get(key string) (value string, ok bool) {
	v, ok := h.underlying[canonical(key)]
	if !ok || len(v) == 0 {
		return "", false
	}
	return v[0], true
}

func (h *Headers) Values(key string) (values []string, ok bool) {
	v, ok := h.underlying[canonical(key)]
	if !ok {
		return nil, false
	}

	values = make([]string, len(v))
	copy(values, v)
	return values, true
}

// Line joins every value of key with a comma.
// Reference: https://datatracker.ietf.org/doc/html/rfc9110#section-5.3
func (h *Headers) Line(key string) string {
	return strings.Join(h.underlying[canonical(key)], ", ")
}

// Set replaces every value of key.
// The field keeps its position but takes the case of key.
func (h *Headers) Set(key string, values ...string) {
	h.init()

	c := canonical(key)
	if _, ok := h.underlying[c]; ok {
		for i, name := range h.names {
			if canonical(name) == c {
				h.names[i] = key
				break
			}
		}
	} else {
		h.names = append(h.names, key)
	}

	clone := make([]string, len(values))
	copy(clone, values)
	h.underlying[c] = clone
}

func (h *Headers) Add(key string, values ...string) {
	h.init()

	c := canonical(key)
	if _, ok := h.underlying[c]; !ok {
		h.names = append(h.names, key)
	}
	h.underlying[c] = append(h.underlying[c], values...)
}

func (h *Headers) Del(key string) {
	c := canonical(key)
	if _, ok := h.underlying[c]; !ok {
		return
	}

	delete(h.underlying, c)
	for i, name := range h.names {
		if canonical(name) == c {
			h.names = append(h.names[:i:i], h.names[i+1:]...)
			break
		}
	}
}

func (h *Headers) Clone() Headers {
	clone := Headers{
		names:      h.Names(),
		underlying: make(map[string][]string, len(h.underlying)),
	}
	for k, v := range h.underlying {
		values := make([]string, len(v))
		copy(values, v)
		clone.underlying[k] = values
	}
	return clone
}

func canonical(s string) string { return strings.ToLower(s) }
