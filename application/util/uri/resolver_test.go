package uri

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRefResolverResolve(t *testing.T) {
	baseURI, err := Parse("http://a/b/c/d;p?q")
	require.NoError(t, err)

	// Reference: https://datatracker.ietf.org/doc/html/rfc3986#section-5.4
	testcases := []struct {
		input  string
		output string
	}{
		// Normal examples
		{input: "g:h", output: "g:h"},
		{input: "g", output: "http://a/b/c/g"},
		{input: "./g", output: "http://a/b/c/g"},
		{input: "g/", output: "http://a/b/c/g/"},
		{input: "/g", output: "http://a/g"},
		{input: "//g", output: "http://g"},
		{input: "?y", output: "http://a/b/c/d;p?y"},
		{input: "g?y", output: "http://a/b/c/g?y"},
		{input: "#s", output: "http://a/b/c/d;p?q#s"},
		{input: "g#s", output: "http://a/b/c/g#s"},
		{input: "g?y#s", output: "http://a/b/c/g?y#s"},
		{input: ";x", output: "http://a/b/c/;x"},
		{input: "g;x", output: "http://a/b/c/g;x"},
		{input: "g;x?y#s", output: "http://a/b/c/g;x?y#s"},
		{input: "", output: "http://a/b/c/d;p?q"},
		{input: ".", output: "http://a/b/c/"},
		{input: "./", output: "http://a/b/c/"},
		{input: "..", output: "http://a/b/"},
		{input: "../", output: "http://a/b/"},
		{input: "../g", output: "http://a/b/g"},
		{input: "../..", output: "http://a/"},
		{input: "../../", output: "http://a/"},
		{input: "../../g", output: "http://a/g"},

		// Abnormal examples
		{input: "../../../g", output: "http://a/g"},
		{input: "../../../../g", output: "http://a/g"},
		{input: "/./g", output: "http://a/g"},
		{input: "/../g", output: "http://a/g"},
		{input: "g.", output: "http://a/b/c/g."},
		{input: ".g", output: "http://a/b/c/.g"},
		{input: "g..", output: "http://a/b/c/g.."},
		{input: "..g", output: "http://a/b/c/..g"},
		{input: "./../g", output: "http://a/b/g"},
		{input: "./g/.", output: "http://a/b/c/g/"},
		{input: "g/./h", output: "http://a/b/c/g/h"},
		{input: "g/../h", output: "http://a/b/c/h"},
		{input: "g;x=1/./y", output: "http://a/b/c/g;x=1/y"},
		{input: "g;x=1/../y", output: "http://a/b/c/y"},
		{input: "g?y/./x", output: "http://a/b/c/g?y/./x"},
		{input: "g?y/../x", output: "http://a/b/c/g?y/../x"},
		{input: "g#s/./x", output: "http://a/b/c/g#s/./x"},
		{input: "g#s/../x", output: "http://a/b/c/g#s/../x"},
		{input: "http:g", output: "http:g"},
	}

	rr := NewRefResolver()
	for _, tc := range testcases {
		t.Run(fmt.Sprintf("%s -> %s", tc.input, tc.output), func(t *testing.T) {
			in, err := Parse(tc.input)
			require.NoError(t, err)

			out := rr.Resolve(baseURI, in)
			assert.Equal(t, tc.output, out.String())
		})
	}
}

func TestResolveKeepsAbsoluteRef(t *testing.T) {
	base := MustParse("http://a/b")
	ref := MustParse("https://other/x")

	assert.Same(t, ref, NewRefResolver().Resolve(base, ref))
}

func TestResolveAgainstEmptyBasePath(t *testing.T) {
	out := NewRefResolver().Resolve(MustParse("https://example.com:8443"), MustParse("next"))
	assert.Equal(t, "https://example.com:8443/next", out.String())
}

func TestRemoveDotSegments(t *testing.T) {
	testcases := []struct {
		input  string
		output string
	}{
		{input: "", output: ""},
		{input: "/a/b/c/./../../g", output: "/a/g"},
		{input: "mid/content=5/../6", output: "mid/6"},
		{input: "/..", output: "/"},
		{input: "a/..", output: "/"},
		{input: "/a//b", output: "/a//b"},
	}

	for _, tc := range testcases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.output, removeDotSegments(tc.input))
		})
	}
}

func TestMergePaths(t *testing.T) {
	assert.Equal(t, "/x/y", mergePaths("/a/b", "/x/y"))
	assert.Equal(t, "/a/y", mergePaths("/a/b", "y"))
	assert.Equal(t, "/y", mergePaths("", "y"))
	assert.Equal(t, "/y", mergePaths("noslash", "y"))
}
