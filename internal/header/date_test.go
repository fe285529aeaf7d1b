// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseHTTPDate_Formats(t *testing.T) {
	want := time.Date(1994, time.November, 6, 8, 49, 37, 0, time.UTC)
	for _, s := range []string{
		"Sun, 06 Nov 1994 08:49:37 GMT",  // IMF-fixdate
		"Sunday, 06-Nov-94 08:49:37 GMT", // RFC 850
		"Sun Nov  6 08:49:37 1994",       // asctime
	} {
		d, err := ParseHTTPDate(s)
		require.NoError(t, err, s)
		assert.True(t, want.Equal(d.Time), "%s parsed as %v", s, d.Time)
		assert.Equal(t, "Sun, 06 Nov 1994 08:49:37 GMT", d.String())
	}
}

func TestDateHeaders_RoundTrip(t *testing.T) {
	t.Run("expires", func(t *testing.T) {
		e, err := ParseExpires(Raw{"Thu, 01 Dec 1994 16:00:00 GMT"})
		require.NoError(t, err)
		assert.Equal(t, "Thu, 01 Dec 1994 16:00:00 GMT", e.String())
		assert.Equal(t, "Expires", e.Name())
	})
	t.Run("last-modified", func(t *testing.T) {
		l, err := ParseLastModified(Raw{"Sat, 29 Oct 1994 19:43:31 GMT"})
		require.NoError(t, err)
		assert.Equal(t, "Sat, 29 Oct 1994 19:43:31 GMT", l.String())
	})
	t.Run("if-modified-since", func(t *testing.T) {
		i, err := ParseIfModifiedSince(Raw{" Sat, 29 Oct 1994 19:43:31 GMT "})
		require.NoError(t, err)
		assert.Equal(t, "Sat, 29 Oct 1994 19:43:31 GMT", i.String())
	})
}

func TestDateHeaders_Errors(t *testing.T) {
	_, err := ParseExpires(Raw{"0"})
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ParseLastModified(Raw{"Sat, 29 Oct 1994 19:43:31 GMT", "Sun, 30 Oct 1994 19:43:31 GMT"})
	assert.ErrorIs(t, err, ErrInvalidHeader)

	_, err = ParseIfModifiedSince(Raw{""})
	assert.ErrorIs(t, err, ErrInvalidHeader)
}

func TestNewHTTPDate_TruncatesToSeconds(t *testing.T) {
	in := time.Date(2025, 3, 1, 12, 0, 0, 999_000_000, time.FixedZone("CET", 3600))
	d := NewHTTPDate(in)
	assert.Equal(t, 0, d.Nanosecond())
	assert.Equal(t, time.UTC, d.Location())
	assert.Equal(t, "Sat, 01 Mar 2025 11:00:00 GMT", d.String())
}
