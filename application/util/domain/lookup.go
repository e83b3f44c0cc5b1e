// Package domain resolves host names from a fixed table, ahead of the system resolver.
package domain

import (
	"context"
	"maps"
	"net/netip"
	"strings"

	"github.com/pkg/errors"
)

var ErrDomainNotFound = errors.New("domain not found")

type Lookuper interface {
	LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error)
}

type MapLookuper struct {
	set map[string][]netip.Addr
}

var _ Lookuper = (*MapLookuper)(nil)

func NewMapLookuper(set map[string][]netip.Addr) *MapLookuper {
	l := &MapLookuper{set: make(map[string][]netip.Addr, len(set))}
	for domain, addrs := range maps.All(set) {
		l.Set(domain, addrs)
	}
	return l
}

// ParseResolve builds a lookuper from "host:addr" entries.
// IPv6 addresses may be bracketed: "host:[::1]".
func ParseResolve(entries []string) (*MapLookuper, error) {
	l := NewMapLookuper(nil)
	for _, entry := range entries {
		host, rawAddr, ok := strings.Cut(entry, ":")
		if !ok || host == "" {
			return nil, errors.Errorf("malformed resolve entry %q", entry)
		}

		addr, err := netip.ParseAddr(strings.Trim(rawAddr, "[]"))
		if err != nil {
			return nil, errors.Wrapf(err, "resolve entry %q", entry)
		}
		l.Add(host, addr)
	}
	return l, nil
}

func (m *MapLookuper) LookupIP(ctx context.Context, domain string) (addrs []netip.Addr, err error) {
	addrs, ok := m.set[strings.ToLower(domain)]
	if !ok {
		return nil, ErrDomainNotFound
	}
	return append([]netip.Addr(nil), addrs...), nil
}

func (m *MapLookuper) Set(domain string, addrs []netip.Addr) {
	if len(addrs) == 0 {
		return
	}
	m.set[strings.ToLower(domain)] = append([]netip.Addr(nil), addrs...)
}

func (m *MapLookuper) Add(domain string, addrs ...netip.Addr) {
	key := strings.ToLower(domain)
	m.set[key] = append(m.set[key], addrs...)
}

func (m *MapLookuper) Del(domain string) { delete(m.set, strings.ToLower(domain)) }
