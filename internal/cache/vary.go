// SPDX-License-Identifier: MIT

package cache

import (
	"net/http"
	"strings"
)

// varyFields lists the request fields a response varies on. wildcard is
// true for "Vary: *", which matches no later request.
func varyFields(h http.Header) (fields []string, wildcard bool) {
	for _, line := range h.Values("Vary") {
		for _, f := range strings.Split(line, ",") {
			f = strings.TrimSpace(f)
			switch f {
			case "":
			case "*":
				wildcard = true
			default:
				fields = append(fields, http.CanonicalHeaderKey(f))
			}
		}
	}
	return fields, wildcard
}

// selectingValues captures the request's values for the fields resp varies on.
func selectingValues(req, resp http.Header) map[string]string {
	fields, _ := varyFields(resp)
	if len(fields) == 0 {
		return nil
	}
	out := make(map[string]string, len(fields))
	for _, f := range fields {
		out[f] = strings.Join(req.Values(f), ", ")
	}
	return out
}

// matches reports whether req selects the stored variant (RFC 7234 section 4.1).
func (e *Entry) matches(req *http.Request) bool {
	fields, wildcard := varyFields(e.Header)
	if wildcard {
		return false
	}
	for _, f := range fields {
		if strings.Join(req.Header.Values(f), ", ") != e.Vary[f] {
			return false
		}
	}
	return true
}
