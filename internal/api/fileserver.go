// SPDX-License-Identifier: MIT

package api

import (
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/unicode/norm"

	"github.com/ManuGH/hdrkit/internal/header"
	"github.com/ManuGH/hdrkit/internal/log"
	"github.com/ManuGH/hdrkit/internal/metrics"
	"github.com/ManuGH/hdrkit/internal/validate"
)

// fileServer serves files from the data directory with checks against path
// traversal, symlink escapes and directory listing. Responses carry a typed
// Last-Modified and the configured Cache-Control, and If-Modified-Since is
// answered with 304.
func (s *Server) fileServer() http.Handler {
	policy := s.cfg.HTTP.FilesPolicy()

	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		logger := log.WithComponentFromContext(r.Context(), "api")
		deny := func(code int, reason, msg string) {
			logger.Warn().
				Str(log.FieldEvent, "file_req.denied").
				Str(log.FieldPath, r.URL.Path).
				Str("reason", reason).
				Msg(msg)
			metrics.RecordFileRequestDenied(reason)
			switch code {
			case http.StatusNotFound:
				writeNotFound(w, r)
			case http.StatusMethodNotAllowed:
				writeError(w, r, code, "method_not_allowed", "")
			case http.StatusInternalServerError:
				writeError(w, r, code, "internal_error", "")
			default:
				writeForbidden(w, r)
			}
		}

		if r.Method != http.MethodGet && r.Method != http.MethodHead {
			deny(http.StatusMethodNotAllowed, "method_not_allowed", "method not allowed")
			return
		}

		path := r.URL.Path
		if isPathTraversal(path) {
			deny(http.StatusForbidden, "path_escape", "detected traversal sequence")
			return
		}
		if path == "" || strings.HasSuffix(path, "/") {
			deny(http.StatusForbidden, "directory_listing", "directory listing forbidden")
			return
		}

		absDataDir, err := filepath.Abs(s.cfg.DataDir)
		if err != nil {
			deny(http.StatusInternalServerError, "internal_error", "could not get absolute data dir")
			return
		}
		rel := filepath.FromSlash(strings.TrimPrefix(path, "/"))

		// Resolves symlinks on both sides before checking containment.
		v := validate.New()
		v.PathWithinRoot("path", rel, absDataDir)
		if !v.IsValid() {
			deny(http.StatusForbidden, "path_escape", "path escapes data directory")
			return
		}

		fullPath := filepath.Join(absDataDir, rel)
		// #nosec G304 -- fullPath is validated to reside inside the data directory
		f, err := os.Open(fullPath)
		if err != nil {
			if os.IsNotExist(err) {
				deny(http.StatusNotFound, "not_found", "file not found")
				return
			}
			deny(http.StatusInternalServerError, "internal_error", "could not open file")
			return
		}
		defer func() {
			if err := f.Close(); err != nil {
				logger.Warn().Err(err).Str(log.FieldPath, fullPath).Msg("failed to close file")
			}
		}()

		info, err := f.Stat()
		if err != nil {
			deny(http.StatusInternalServerError, "internal_error", "could not stat opened file")
			return
		}
		if info.IsDir() {
			deny(http.StatusForbidden, "directory_listing", "resolved path is a directory")
			return
		}

		hs := header.NewHeaders()
		modified := header.NewHTTPDate(info.ModTime())
		hs.Set(header.LastModified(modified))
		if len(policy) > 0 {
			hs.Set(policy)
		}
		for name, values := range hs.HTTP() {
			w.Header()[name] = values
		}

		if notModified(r, modified) {
			metrics.RecordFileNotModified()
			w.WriteHeader(http.StatusNotModified)
			return
		}

		logger.Debug().Str(log.FieldEvent, "file_req.allowed").Str(log.FieldPath, path).Msg("serving file")
		// ServeContent adds Content-Type, Content-Length and Range support.
		http.ServeContent(w, r, info.Name(), modified.Time, f)
	})
}

// notModified applies If-Modified-Since at second precision. An unparsable
// date is ignored, as RFC 7232 requires.
func notModified(r *http.Request, modified header.HTTPDate) bool {
	ims, err := header.Typed(header.FromHTTP(r.Header), header.ParseIfModifiedSince)
	if err != nil {
		return false
	}
	return !modified.After(ims.Time)
}

// isPathTraversal decodes the input several times to catch double encoding,
// rejects invalid UTF-8 such as overlong dots, applies Unicode
// normalization and looks for dot-dot and NUL sequences.
func isPathTraversal(p string) bool {
	decoded := p
	for i := 0; i < 3; i++ {
		prev := decoded
		if d, err := url.PathUnescape(decoded); err == nil {
			decoded = d
		} else if d2, err2 := url.QueryUnescape(decoded); err2 == nil {
			decoded = d2
		}
		if decoded == prev {
			break
		}
	}

	lower := strings.ToLower(decoded)
	for _, pat := range []string{"..", "%00", "\x00", "%c0%ae", "%e0%80%ae"} {
		if strings.Contains(lower, pat) {
			return true
		}
	}

	if !utf8.ValidString(decoded) {
		return true
	}
	normalized := norm.NFKC.String(decoded)
	return strings.Contains(normalized, "..") || strings.ContainsRune(normalized, '\\')
}
