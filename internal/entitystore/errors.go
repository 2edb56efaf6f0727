// melodex - personal music library aggregator
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/melodex/core

package entitystore

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned when a lookup by id/provider id finds no row.
	ErrNotFound = errors.New("entitystore: not found")
	// ErrConflict is returned when an upsert hits a unique constraint
	// that the caller must resolve by re-reading and retrying.
	ErrConflict = errors.New("entitystore: conflicting row")
	// ErrProtectedDelete is returned when a deletion is refused because a
	// dependent row (e.g. a favorite) still references the entity.
	ErrProtectedDelete = errors.New("entitystore: entity is referenced and cannot be deleted")
)

// isUniqueConstraintError reports whether err is DuckDB's unique/primary
// key violation, which the caller should treat as ErrConflict.
func isUniqueConstraintError(err error) bool {
	if err == nil {
		return false
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "violates primary key")
}
