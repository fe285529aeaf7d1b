// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuGH/hdrkit/internal/config"
)

func fileFixture(t *testing.T) (config.AppConfig, time.Time) {
	t.Helper()
	cfg := testConfig(t)
	mtime := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

	path := filepath.Join(cfg.DataDir, "hello.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello world"), 0o600))
	require.NoError(t, os.Chtimes(path, mtime, mtime))
	require.NoError(t, os.Mkdir(filepath.Join(cfg.DataDir, "sub"), 0o750))

	outside := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(outside, "secret"), []byte("x"), 0o600))
	require.NoError(t, os.Symlink(filepath.Join(outside, "secret"), filepath.Join(cfg.DataDir, "link")))
	return cfg, mtime
}

func TestFileServer_ServesWithTypedHeaders(t *testing.T) {
	cfg, mtime := fileFixture(t)
	h := newHandler(t, cfg, nil)

	rec := serve(h, httptest.NewRequest(http.MethodGet, "/files/hello.txt", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "hello world", rec.Body.String())
	assert.Equal(t, mtime.Format(http.TimeFormat), rec.Header().Get("Last-Modified"))
	assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
	assert.Equal(t, "text/plain; charset=utf-8", rec.Header().Get("Content-Type"))
}

func TestFileServer_ConditionalGet(t *testing.T) {
	cfg, mtime := fileFixture(t)
	h := newHandler(t, cfg, nil)

	tests := []struct {
		name string
		ims  string
		want int
	}{
		{"same time", mtime.Format(http.TimeFormat), http.StatusNotModified},
		{"later", mtime.Add(time.Hour).Format(http.TimeFormat), http.StatusNotModified},
		{"earlier", mtime.Add(-time.Second).Format(http.TimeFormat), http.StatusOK},
		{"asctime form", mtime.Format(time.ANSIC), http.StatusNotModified},
		{"garbage ignored", "last tuesday", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/files/hello.txt", nil)
			req.Header.Set("If-Modified-Since", tt.ims)
			rec := serve(h, req)
			assert.Equal(t, tt.want, rec.Code)
			if tt.want == http.StatusNotModified {
				assert.Empty(t, rec.Body.String())
				assert.Equal(t, "public, max-age=3600", rec.Header().Get("Cache-Control"))
			}
		})
	}
}

func TestFileServer_Head(t *testing.T) {
	cfg, _ := fileFixture(t)
	h := newHandler(t, cfg, nil)

	rec := serve(h, httptest.NewRequest(http.MethodHead, "/files/hello.txt", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Body.String())
	assert.Equal(t, "11", rec.Header().Get("Content-Length"))
}

func TestFileServer_Denied(t *testing.T) {
	cfg, _ := fileFixture(t)
	h := newHandler(t, cfg, nil)

	tests := []struct {
		name string
		path string
		want int
	}{
		{"dot dot", "/files/..%2f..%2fetc%2fpasswd", http.StatusForbidden},
		{"double encoded", "/files/%252e%252e%252fsecret", http.StatusForbidden},
		{"nul", "/files/hello.txt%00.png", http.StatusForbidden},
		{"fullwidth dots", "/files/%EF%BC%8E%EF%BC%8E/secret", http.StatusForbidden},
		{"directory", "/files/sub/", http.StatusForbidden},
		{"directory no slash", "/files/sub", http.StatusForbidden},
		{"root", "/files/", http.StatusForbidden},
		{"symlink escape", "/files/link", http.StatusForbidden},
		{"missing", "/files/nope.txt", http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, httptest.NewRequest(http.MethodGet, tt.path, nil))
			assert.Equal(t, tt.want, rec.Code)
		})
	}
}

func TestFileServer_MethodNotAllowed(t *testing.T) {
	cfg, _ := fileFixture(t)
	srv, err := New(cfg, nil)
	require.NoError(t, err)

	rec := serve(srv.fileServer(), httptest.NewRequest(http.MethodPost, "/hello.txt", nil))
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}

func TestIsPathTraversal(t *testing.T) {
	for p, want := range map[string]bool{
		"hello.txt":         false,
		"dir/file.m3u8":     false,
		"..":                true,
		"a/../b":            true,
		"%2e%2e/x":          true,
		"%252e%252e/x":      true,
		"a\\b":              true,
		"%c0%ae%c0%ae/x":    true,
		"name%00":           true,
		"\uff0e\uff0e/x":    true,
		"file.with.dots.js": false,
	} {
		assert.Equal(t, want, isPathTraversal(p), p)
	}
}
