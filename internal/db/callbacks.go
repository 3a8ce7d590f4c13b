/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package db

import (
	"errors"
	"time"

	"gorm.io/gorm"

	"github.com/friendsincode/dialwave/internal/telemetry"
)

const startTimeKey = "dialwave:op_start"

// RegisterCallbacks instruments every GORM operation with duration and
// error metrics. Connect calls this once per connection.
func RegisterCallbacks(db *gorm.DB) error {
	cb := db.Callback()

	registrations := []error{
		cb.Query().Before("gorm:query").Register("dialwave:query_start", stampStart),
		cb.Query().After("gorm:query").Register("dialwave:query_observe", observe("query")),
		cb.Create().Before("gorm:create").Register("dialwave:create_start", stampStart),
		cb.Create().After("gorm:create").Register("dialwave:create_observe", observe("create")),
		cb.Update().Before("gorm:update").Register("dialwave:update_start", stampStart),
		cb.Update().After("gorm:update").Register("dialwave:update_observe", observe("update")),
		cb.Delete().Before("gorm:delete").Register("dialwave:delete_start", stampStart),
		cb.Delete().After("gorm:delete").Register("dialwave:delete_observe", observe("delete")),
	}
	return errors.Join(registrations...)
}

func stampStart(db *gorm.DB) {
	db.InstanceSet(startTimeKey, time.Now())
}

// observe returns the after-callback for one operation. A missing or
// mistyped start stamp just skips the observation.
func observe(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		value, exists := db.InstanceGet(startTimeKey)
		if !exists {
			return
		}
		start, ok := value.(time.Time)
		if !ok {
			return
		}

		table := db.Statement.Table
		if table == "" {
			table = "unknown"
		}
		telemetry.DatabaseQueryDuration.WithLabelValues(operation, table).Observe(time.Since(start).Seconds())

		// Not-found is an answer, not an error.
		if db.Error != nil && !errors.Is(db.Error, gorm.ErrRecordNotFound) {
			telemetry.DatabaseErrorsTotal.WithLabelValues(operation, "operation_error").Inc()
		}
	}
}

// UpdateConnectionMetrics updates connection pool metrics.
// Should be called periodically (e.g., every 30 seconds).
func UpdateConnectionMetrics(db *gorm.DB) {
	sqlDB, err := db.DB()
	if err != nil {
		return
	}

	telemetry.DatabaseConnectionsActive.Set(float64(sqlDB.Stats().OpenConnections))
}
