// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"bytes"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeaders_CaseInsensitive(t *testing.T) {
	hs := NewHeaders()
	require.NoError(t, hs.SetRaw("content-type", "text/plain"))

	raw, ok := hs.Get("Content-Type")
	require.True(t, ok)
	assert.Equal(t, Raw{"text/plain"}, raw)
	assert.True(t, hs.Has("CONTENT-TYPE"))

	// The first spelling is kept on replace.
	require.NoError(t, hs.SetRaw("Content-Type", "text/html"))
	assert.Equal(t, []string{"content-type"}, hs.Names())
	assert.Equal(t, 1, hs.Len())
}

func TestHeaders_SetTyped(t *testing.T) {
	hs := NewHeaders()
	hs.Set(CacheControl{MaxAge(86400)})
	hs.Set(IncludingSubdomains(31536000))

	raw, ok := hs.Get("cache-control")
	require.True(t, ok)
	assert.Equal(t, Raw{"max-age=86400"}, raw)

	sts, err := Typed(hs, ParseStrictTransportSecurity)
	require.NoError(t, err)
	assert.True(t, sts.IncludeSubdomains)
	assert.Equal(t, uint64(31536000), sts.MaxAge)

	_, err = Typed(hs, ParseReferer)
	assert.ErrorIs(t, err, ErrNotPresent)
}

func TestHeaders_AppendAndRemove(t *testing.T) {
	hs := NewHeaders()
	require.NoError(t, hs.Append("Cache-Control", "no-cache"))
	require.NoError(t, hs.Append("cache-control", "private"))
	require.NoError(t, hs.Append("Referer", "/a"))

	cc, err := Typed(hs, ParseCacheControl)
	require.NoError(t, err)
	assert.Equal(t, CacheControl{Directive(NoCache), Directive(Private)}, cc)

	assert.True(t, hs.Remove("CACHE-CONTROL"))
	assert.False(t, hs.Remove("cache-control"))
	assert.Equal(t, []string{"Referer"}, hs.Names())
}

func TestHeaders_Validation(t *testing.T) {
	hs := NewHeaders()
	assert.ErrorIs(t, hs.SetRaw("Bad Name", "x"), ErrInvalidFieldName)
	assert.ErrorIs(t, hs.SetRaw("X-Ok", "line\r\nInjected: 1"), ErrInvalidFieldValue)
	assert.ErrorIs(t, hs.Append("", "x"), ErrInvalidFieldName)
	assert.Equal(t, 0, hs.Len())
}

func TestHeaders_WriteTo(t *testing.T) {
	hs := NewHeaders()
	hs.Set(ConnectionClose())
	require.NoError(t, hs.Append("X-Multi", "a"))
	require.NoError(t, hs.Append("X-Multi", "b"))

	var buf bytes.Buffer
	n, err := hs.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, "Connection: close\r\nX-Multi: a\r\nX-Multi: b\r\n", buf.String())
	assert.Equal(t, int64(buf.Len()), n)
}

func TestHeaders_HTTPConversion(t *testing.T) {
	h := http.Header{}
	h.Add("Cache-Control", "no-cache")
	h.Add("Cache-Control", "max-age=5")
	h.Set("Referer", "http://example.com/")

	hs := FromHTTP(h)
	cc, err := Typed(hs, ParseCacheControl)
	require.NoError(t, err)
	assert.Equal(t, CacheControl{Directive(NoCache), MaxAge(5)}, cc)

	back := hs.HTTP()
	assert.Equal(t, []string{"no-cache", "max-age=5"}, back.Values("Cache-Control"))
	assert.Equal(t, "http://example.com/", back.Get("Referer"))
}

func TestHeaders_CloneIsDeep(t *testing.T) {
	hs := NewHeaders()
	require.NoError(t, hs.Append("X-A", "1"))
	c := hs.Clone()
	require.NoError(t, c.Append("X-A", "2"))

	raw, _ := hs.Get("X-A")
	assert.Equal(t, Raw{"1"}, raw)
}

func TestParseKnown(t *testing.T) {
	h, err := ParseKnown("strict-transport-security", Raw{"max-age=5"})
	require.NoError(t, err)
	assert.Equal(t, ExcludingSubdomains(5), h)

	_, err = ParseKnown("X-Unknown", Raw{"1"})
	assert.ErrorIs(t, err, ErrUnknownHeader)

	s, err := Canonicalize("Cache-Control", Raw{"PRIVATE,max-age=\"9\""})
	require.NoError(t, err)
	assert.Equal(t, "private, max-age=9", s)

	assert.Contains(t, KnownNames(), "If-Modified-Since")
	assert.True(t, IsKnown("referer"))
}

func TestParseError_Message(t *testing.T) {
	_, err := ParseReferer(nil)
	require.Error(t, err)
	var pe *ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Referer", pe.Name)
	assert.Contains(t, err.Error(), "invalid Referer header")
}

func TestReferer(t *testing.T) {
	r, err := ParseReferer(Raw{"http://www.example.org/hypertext/Overview.html"})
	require.NoError(t, err)
	assert.Equal(t, Referer("http://www.example.org/hypertext/Overview.html"), r)
	assert.Equal(t, "Referer", r.Name())
}
