// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package header

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConnection(t *testing.T) {
	parse := func(s string) Connection {
		t.Helper()
		c, err := ParseConnection(Raw{s})
		require.NoError(t, err)
		return c
	}

	assert.True(t, cmp.Equal(ConnectionClose(), parse("close")))
	assert.True(t, cmp.Equal(ConnectionKeepAlive(), parse("keep-alive")))
	assert.True(t, cmp.Equal(ConnectionKeepAlive(), parse("Keep-Alive")))
	assert.True(t, cmp.Equal(Connection{ConnectionHeader("upgrade")}, parse("upgrade")))
	assert.True(t, cmp.Equal(Connection{ConnectionHeader("Upgrade")}, parse("upgrade")),
		"header options compare case-insensitively")
}

func TestConnection_RoundTrip(t *testing.T) {
	for _, s := range []string{"close", "keep-alive", "upgrade", "keep-alive, Upgrade"} {
		c, err := ParseConnection(Raw{s})
		require.NoError(t, err)
		assert.Equal(t, s, c.String())
	}
}

func TestConnection_Has(t *testing.T) {
	c, err := ParseConnection(Raw{"Upgrade", "CLOSE"})
	require.NoError(t, err)
	assert.True(t, c.Has(ConnectionOption{Kind: Close}))
	assert.True(t, c.Has(ConnectionHeader("upgrade")))
	assert.False(t, c.Has(ConnectionOption{Kind: KeepAlive}))
}

func TestParseConnection_Empty(t *testing.T) {
	_, err := ParseConnection(Raw{" , "})
	assert.ErrorIs(t, err, ErrInvalidHeader)
}
