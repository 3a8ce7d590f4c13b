/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package playlist

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// NextID mints a sortable entry identifier. The namespace records the
// entry's origin (msg, catalog, fallback, copy, import) for debugging; the
// millisecond timestamp keeps ids roughly creation-ordered and the uuid
// suffix makes cross-invocation collisions practically impossible.
func NextID(namespace string, index int) string {
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("%d-%s-%03d-%s", time.Now().UnixMilli(), namespace, index, suffix)
}
