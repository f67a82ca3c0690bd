// Package lifecycle holds the soft-delete, restore and purge statements
// shared by every entity table that carries is_deleted and deleted_at.
package lifecycle

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/physiocare/dashboard/internal/platform/db"
)

const (
	ActionSoftDelete = "soft_delete"
	ActionRestore    = "restore"
	ActionHardDelete = "hard_delete"
)

// SoftDelete marks the row deleted at at. found is false when no row has id.
func SoftDelete(ctx context.Context, q db.Querier, table string, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := q.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET is_deleted = TRUE, deleted_at = $2, updated_at = $2 WHERE id = $1`, table),
		id, at)
	if err != nil {
		return false, fmt.Errorf("soft delete %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// Restore clears the deleted flag and timestamp.
func Restore(ctx context.Context, q db.Querier, table string, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := q.Exec(ctx, fmt.Sprintf(
		`UPDATE %s SET is_deleted = FALSE, deleted_at = NULL, updated_at = $2 WHERE id = $1`, table),
		id, at)
	if err != nil {
		return false, fmt.Errorf("restore %s: %w", table, err)
	}
	return tag.RowsAffected() > 0, nil
}

// PurgeBefore permanently removes rows soft-deleted before cutoff.
func PurgeBefore(ctx context.Context, q db.Querier, table string, cutoff time.Time) (int64, error) {
	tag, err := q.Exec(ctx, fmt.Sprintf(
		`DELETE FROM %s WHERE is_deleted AND deleted_at IS NOT NULL AND deleted_at < $1`, table),
		cutoff)
	if err != nil {
		return 0, fmt.Errorf("purge %s: %w", table, err)
	}
	return tag.RowsAffected(), nil
}

// CountPurgeable counts rows PurgeBefore would remove. Used by dry runs.
func CountPurgeable(ctx context.Context, q db.Querier, table string, cutoff time.Time) (int64, error) {
	var n int64
	err := q.QueryRow(ctx, fmt.Sprintf(
		`SELECT COUNT(*) FROM %s WHERE is_deleted AND deleted_at IS NOT NULL AND deleted_at < $1`, table),
		cutoff).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count purgeable %s: %w", table, err)
	}
	return n, nil
}
