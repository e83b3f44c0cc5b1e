package semantic

import (
	"testing"

	"streamhttp/application/http"

	"github.com/stretchr/testify/assert"
)

func TestHeadersFrom(t *testing.T) {
	h := HeadersFrom([]http.Field{
		{Name: "Content-Type", Value: "text/plain"},
		{Name: "set-cookie", Value: "a=1"},
		{Name: "Set-Cookie", Value: "b=2"},
	})

	assert.Equal(t, []string{"Content-Type", "set-cookie"}, h.Names())

	values, ok := h.Values("SET-COOKIE")
	assert.True(t, ok)
	assert.Equal(t, []string{"a=1", "b=2"}, values)
}

func TestHeaderZeroValue(t *testing.T) {
	var h Headers

	assert.False(t, h.Has("A"))
	assert.Equal(t, "", h.Line("A"))
	h.Del("A")

	h.Add("A", "a")
	assert.True(t, h.Has("a"))
}

func TestHeaderGet(t *testing.T) {
	var h Headers
	h.Add("abc", "abc", "def")
	h.Set("ghi")

	v, ok := h.Get("ABC")
	assert.True(t, ok)
	assert.Equal(t, "abc", v)

	_, ok = h.Get("ghi")
	assert.False(t, ok, "field without values has no first value")
	assert.True(t, h.Has("ghi"))

	_, ok = h.Get("jkl")
	assert.False(t, ok)
}

func TestHeaderLine(t *testing.T) {
	var h Headers
	h.Add("Accept", "text/html", "application/json")

	assert.Equal(t, "text/html, application/json", h.Line("accept"))
}

func TestHeaderSet(t *testing.T) {
	var h Headers
	h.Add("X-First", "1")
	h.Add("x-second", "2", "3")
	h.Add("X-Third", "4")

	h.Set("X-Second", "5")

	assert.Equal(t, []string{"X-First", "X-Second", "X-Third"}, h.Names())
	assert.Equal(t, "5", h.Line("x-second"))
}

func TestHeaderDel(t *testing.T) {
	var h Headers
	h.Add("A", "a")
	h.Add("B", "b")
	h.Add("C", "c")

	h.Del("b")

	assert.Equal(t, []string{"A", "C"}, h.Names())
	assert.False(t, h.Has("B"))
	assert.Equal(t, 2, h.Len())
}

func TestHeaderFields(t *testing.T) {
	var h Headers
	h.Add("A", "a1", "a2")
	h.Add("B", "b")

	assert.Equal(t, []http.Field{
		{Name: "A", Value: "a1"},
		{Name: "A", Value: "a2"},
		{Name: "B", Value: "b"},
	}, h.Fields())
}

func TestHeaderClone(t *testing.T) {
	var h Headers
	h.Add("A", "a")

	clone := h.Clone()
	clone.Add("A", "b")
	clone.Add("B", "b")

	assert.Equal(t, "a", h.Line("A"))
	assert.False(t, h.Has("B"))
	assert.Equal(t, "a, b", clone.Line("A"))
}

func TestHeaderValuesIsCopy(t *testing.T) {
	var h Headers
	h.Add("A", "a")

	values, _ := h.Values("A")
	values[0] = "changed"

	assert.Equal(t, "a", h.Line("A"))
}
