// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package config loads hdrd settings.
//
// Precedence is ENV > YAML file > defaults. The YAML decoder is strict:
// unknown keys are errors. Every HDRKIT_* variable is documented on the
// AppConfig field it overrides.
package config
