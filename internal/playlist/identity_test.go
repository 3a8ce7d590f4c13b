/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"strings"
	"testing"
)

func TestNextIDShape(t *testing.T) {
	id := NextID("catalog", 7)
	parts := strings.Split(id, "-")
	if len(parts) != 4 {
		t.Fatalf("id %q has %d segments, want 4", id, len(parts))
	}
	if parts[1] != "catalog" {
		t.Errorf("namespace segment = %q", parts[1])
	}
	if parts[2] != "007" {
		t.Errorf("index segment = %q, want zero-padded", parts[2])
	}
	if len(parts[3]) != 8 {
		t.Errorf("random segment %q should be 8 chars", parts[3])
	}
}

func TestNextIDUnique(t *testing.T) {
	seen := map[string]struct{}{}
	for i := 0; i < 1000; i++ {
		id := NextID("msg", i)
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate id %q", id)
		}
		seen[id] = struct{}{}
	}
}
