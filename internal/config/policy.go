// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package config

import "github.com/ManuGH/hdrkit/internal/header"

// HSTS returns the Strict-Transport-Security value to emit.
func (h HTTPConfig) HSTS() header.StrictTransportSecurity {
	return header.StrictTransportSecurity{MaxAge: h.HSTSMaxAge, IncludeSubdomains: h.HSTSIncludeSubdomains}
}

// FilesPolicy is the Cache-Control sent with static files. Nil means none.
func (h HTTPConfig) FilesPolicy() header.CacheControl { return policy(h.FilesCacheControl) }

// DefaultPolicy is the Cache-Control applied to responses that set none.
func (h HTTPConfig) DefaultPolicy() header.CacheControl { return policy(h.DefaultCacheControl) }

func policy(s string) header.CacheControl {
	if s == "" {
		return nil
	}
	cc, err := header.ParseCacheControl(header.Raw{s})
	if err != nil {
		return nil
	}
	return cc
}
