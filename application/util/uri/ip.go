package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

func parseIPv4(s string) ([4]byte, error) {
	var addr [4]byte

	digits := strings.Split(s, ".")
	if len(digits) != 4 {
		return addr, errors.New("digits are not properly seperated")
	}

	for idx, digit := range digits {
		n, err := strconv.ParseUint(digit, 10, 8)
		if err != nil {
			return addr, errors.Wrap(err, "failed to parse a part into digit")
		}

		if digit[0] == '0' && !(n == 0 && len(digit) == 1) {
			// '00', '01'
			return addr, errors.New("leading zero is not allowed in digit")
		}
		addr[idx] = byte(n)
	}

	return addr, nil
}

// Reference: https://datatracker.ietf.org/doc/html/rfc4291#section-2.2
func parseIPv6(s string) ([16]byte, error) {
	var addr [16]byte

	before, after, found := strings.Cut(s, "::")
	if !found {
		frag, err := parseIPv6Frag(before, true)
		if err != nil {
			return addr, err
		}
		if len(frag) != 16 {
			return addr, errors.New("length of address is not 128bit")
		}

		copy(addr[:], frag)
		return addr, nil
	}

	if strings.Contains(after, "::") {
		return addr, errors.New("'::' appears more than once")
	}

	frag1, err := parseIPv6Frag(before, false)
	if err != nil {
		return addr, errors.Wrap(err, "parsing fragment before ::")
	}
	frag2, err := parseIPv6Frag(after, true)
	if err != nil {
		return addr, errors.Wrap(err, "parsing fragment after ::")
	}

	if len(frag1)+len(frag2) > 14 {
		// At least 2 bytes should be ommited.
		return addr, errors.New("ipv6 address too long")
	}

	copy(addr[:len(frag1)], frag1)
	copy(addr[len(addr)-len(frag2):], frag2)

	return addr, nil
}

func parseIPv6Frag(s string, isLast bool) ([]byte, error) {
	if s == "" {
		return []byte{}, nil
	}

	h16s := strings.Split(s, ":")

	frag := make([]byte, 0, len(h16s)*2)
	for idx, h16 := range h16s {
		if h16 == "" {
			// 0:::, 0::0::
			return nil, errors.New("invalid use of colon seperator")
		}

		if len(h16) <= 4 {
			if n, err := strconv.ParseUint(h16, 16, 16); err == nil {
				frag = append(frag, byte(n>>8), byte(n&0xFF))
				continue
			}
		}

		if !isLast || idx != len(h16s)-1 {
			return nil, errors.Errorf("invalid hex group: %q", h16)
		}

		// The last group might be an embedded IPv4 address.
		v4, err := parseIPv4(h16)
		if err != nil {
			return nil, errors.Wrap(err,
				"non-hex item found on the last index, but wasn't ipv4 address",
			)
		}
		frag = append(frag, v4[:]...)
	}

	return frag, nil
}
