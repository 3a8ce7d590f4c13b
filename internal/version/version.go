/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

// Package version records build metadata for the running binary.
package version

// Version is the current version of DialWave.
// This is set at build time via ldflags:
//
//	-X github.com/friendsincode/dialwave/internal/version.Version=X.Y.Z
var Version = "0.4.1"
