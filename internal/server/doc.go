// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

// Package server is a minimal HTTP/1.x server whose responses carry typed headers.
//
// A Response writes its status line and header block lazily: the head goes
// out exactly once, right before the first body byte or on Flush/End. Handlers
// therefore set Status and Headers first and stream the body afterwards.
package server
