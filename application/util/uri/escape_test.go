package uri

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestHex(t *testing.T) {
	assert.Equal(t, [2]byte{'F', 'F'}, hex(0xFF))
	assert.Equal(t, [2]byte{'3', '1'}, hex(0x31))
	assert.Equal(t, [2]byte{'2', '0'}, hex(' '))
}

func TestShouldEscape(t *testing.T) {
	testcases := []struct {
		input    byte
		mode     encodeMode
		expected bool
	}{
		// unreserved
		{input: '3', expected: false},
		{input: '~', expected: false},
		// Every test is now based on reserved char.
		{input: ';', mode: encodeUserInfo, expected: false}, // subdelim
		{input: ':', mode: encodeUserInfo, expected: true},
		{input: '/', mode: encodeUserInfo, expected: true},

		{input: ';', mode: encodeHost, expected: false}, // subdelim
		{input: '/', mode: encodeHost, expected: true},
		{input: ' ', mode: encodeHost, expected: true},

		{input: ';', mode: encodePath, expected: false}, // subdelim
		{input: ':', mode: encodePath, expected: false},
		{input: '@', mode: encodePath, expected: false},
		{input: '/', mode: encodePath, expected: false},
		{input: '?', mode: encodePath, expected: true},
		{input: '#', mode: encodePath, expected: true},

		{input: ';', mode: encodeQuery, expected: false}, // subdelim
		{input: ':', mode: encodeQuery, expected: false},
		{input: '@', mode: encodeQuery, expected: false},
		{input: '/', mode: encodeQuery, expected: false},
		{input: '?', mode: encodeQuery, expected: false},
		{input: '#', mode: encodeQuery, expected: true},

		{input: ';', mode: encodeFragment, expected: false}, // subdelim
		{input: ':', mode: encodeFragment, expected: false},
		{input: '@', mode: encodeFragment, expected: false},
		{input: '/', mode: encodeFragment, expected: false},
		{input: '?', mode: encodeFragment, expected: false},
		{input: '#', mode: encodeFragment, expected: true},
	}
	for _, tc := range testcases {
		t.Run(fmt.Sprintf("%d %c", tc.mode, tc.input), func(t *testing.T) {
			assert.Equal(t, tc.expected, shouldEscape(tc.input, tc.mode))
		})
	}
}

func TestEscape(t *testing.T) {
	testcases := []struct {
		desc     string
		input    string
		mode     encodeMode
		expected string
	}{
		{
			desc:     "userinfo",
			input:    "foo/bar",
			mode:     encodeUserInfo,
			expected: "foo%2Fbar",
		},
		{
			desc:     "path with space",
			input:    "/a b/c",
			mode:     encodePath,
			expected: "/a%20b/c",
		},
		{
			desc:     "existing escapes are kept",
			input:    "/a%20b/%7bfoo%7D",
			mode:     encodePath,
			expected: "/a%20b/%7bfoo%7D",
		},
		{
			desc:     "lone percent is escaped",
			input:    "100%",
			mode:     encodeQuery,
			expected: "100%25",
		},
		{
			desc:     "broken escape is escaped",
			input:    "%zz",
			mode:     encodeQuery,
			expected: "%25zz",
		},
		{
			desc:     "non ascii",
			input:    "é",
			mode:     encodeFragment,
			expected: "%C3%A9",
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			out := escape(tc.input, tc.mode)
			assert.Equal(t, tc.expected, out)
			assert.Equal(t, out, escape(out, tc.mode), "escaping must be idempotent")
		})
	}
}
