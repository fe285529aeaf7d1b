// SPDX-License-Identifier: MIT

package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMain(m *testing.M) {
	for _, kv := range os.Environ() {
		if k, _, _ := strings.Cut(kv, "="); strings.HasPrefix(k, "HDRKIT_") {
			_ = os.Unsetenv(k)
		}
	}
	os.Exit(m.Run())
}

func runCLI(fn func([]string, *bytes.Buffer, *bytes.Buffer) int, args ...string) (int, string, string) {
	var stdout, stderr bytes.Buffer
	code := fn(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func parseCLI(args []string, o, e *bytes.Buffer) int  { return runParseCLI(args, o, e) }
func configCLI(args []string, o, e *bytes.Buffer) int { return runConfigCLI(args, o, e) }
func healthCLI(args []string, o, e *bytes.Buffer) int { return runHealthcheckCLI(args, o, e) }

func TestParseCLI(t *testing.T) {
	tests := []struct {
		name     string
		args     []string
		wantCode int
		wantOut  string
		wantErr  string
	}{
		{"canonical cache-control", []string{"cache-control", "PUBLIC, max-age=\"60\""}, 0, "public, max-age=60\n", ""},
		{"multiple lines", []string{"Connection", "keep-alive", "Upgrade"}, 0, "keep-alive, Upgrade\n", ""},
		{"invalid value", []string{"Strict-Transport-Security", "includeSubDomains"}, 1, "", "invalid"},
		{"unknown header", []string{"X-Custom", "1"}, 2, "", "no typed model"},
		{"missing value", []string{"Referer"}, 2, "", "Usage"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, out, errOut := runCLI(parseCLI, tt.args...)
			assert.Equal(t, tt.wantCode, code)
			assert.Equal(t, tt.wantOut, out)
			if tt.wantErr != "" {
				assert.Contains(t, errOut, tt.wantErr)
			}
		})
	}
}

func TestParseCLI_List(t *testing.T) {
	code, out, _ := runCLI(parseCLI, "--list")
	require.Equal(t, 0, code)
	assert.Contains(t, out, "Cache-Control\n")
	assert.Contains(t, out, "If-Modified-Since\n")
}

func TestConfigCLI_InitValidateDump(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")

	code, out, _ := runCLI(configCLI, "init", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, path)

	code, _, errOut := runCLI(configCLI, "init", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "already exists")

	code, _, _ = runCLI(configCLI, "init", "--force", path)
	assert.Equal(t, 0, code)

	// Defaults point dataDir at ./data; keep the test inside its temp dir.
	t.Setenv("HDRKIT_DATA_DIR", t.TempDir())
	t.Setenv("HDRKIT_REDIS_PASSWORD", "hunter2")

	code, out, errOut = runCLI(configCLI, "validate", "-f", path)
	require.Equal(t, 0, code, errOut)
	assert.Contains(t, out, "is valid")

	code, out, _ = runCLI(configCLI, "dump", "-f", path, "--format", "json")
	require.Equal(t, 0, code)
	var dumped map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &dumped))
	redis := dumped["cache"].(map[string]any)["redis"].(map[string]any)
	assert.Equal(t, "***", redis["password"])
	assert.NotContains(t, out, "hunter2")

	code, out, _ = runCLI(configCLI, "dump", "-f", path)
	require.Equal(t, 0, code)
	assert.Contains(t, out, "logLevel: info")

	code, _, _ = runCLI(configCLI, "dump", "-f", path, "--format", "toml")
	assert.Equal(t, 2, code)
}

func TestConfigCLI_ValidateReportsErrors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("logLevel: loud\n"), 0o600))
	t.Setenv("HDRKIT_DATA_DIR", t.TempDir())

	code, _, errOut := runCLI(configCLI, "validate", "--file", path)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "logLevel")
}

func TestConfigCLI_Usage(t *testing.T) {
	code, _, errOut := runCLI(configCLI, "bogus")
	assert.Equal(t, 2, code)
	assert.Contains(t, errOut, "Unknown subcommand")

	code, _, _ = runCLI(configCLI)
	assert.Equal(t, 0, code)
}

func TestHealthcheckCLI(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/readyz" {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()
	addr := strings.TrimPrefix(srv.URL, "http://")

	code, out, _ := runCLI(healthCLI, "-mode", "live", "-addr", addr)
	assert.Equal(t, 0, code)
	assert.Contains(t, out, "successful (live)")

	code, _, errOut := runCLI(healthCLI, "-addr", addr)
	assert.Equal(t, 1, code)
	assert.Contains(t, errOut, "503")
}

func TestResolveConfigPath(t *testing.T) {
	assert.Equal(t, "/etc/hdrd.yaml", resolveConfigPath(" /etc/hdrd.yaml "))

	dir := t.TempDir()
	t.Setenv("HDRKIT_DATA_DIR", dir)
	assert.Empty(t, resolveConfigPath(""))

	auto := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(auto, []byte("{}\n"), 0o600))
	assert.Equal(t, auto, resolveConfigPath(""))
}
