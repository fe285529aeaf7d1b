// SPDX-License-Identifier: MIT

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteDefault_RoundTrips(t *testing.T) {
	t.Setenv("HDRKIT_DATA_DIR", t.TempDir())
	path := filepath.Join(t.TempDir(), "hdrd.yaml")
	require.NoError(t, WriteDefault(path, false))

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "HDRKIT_*")
	assert.Contains(t, string(data), "rateLimitWindow: 1m0s")

	cfg, err := NewLoader(path).Load()
	require.NoError(t, err)
	want := Default()
	want.DataDir = cfg.DataDir
	assert.Equal(t, want, cfg)
}

func TestWriteDefault_RefusesOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "hdrd.yaml")
	require.NoError(t, os.WriteFile(path, []byte("keep"), 0o600))

	assert.ErrorIs(t, WriteDefault(path, false), ErrConfigExists)
	data, _ := os.ReadFile(path)
	assert.Equal(t, "keep", string(data))

	require.NoError(t, WriteDefault(path, true))
}

func TestWrite_RejectsNonYAML(t *testing.T) {
	assert.ErrorIs(t, WriteDefault(filepath.Join(t.TempDir(), "hdrd.toml"), false), ErrUnsupportedFormat)
}
