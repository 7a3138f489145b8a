package db

import (
	"context"
	"fmt"

	"gorm.io/gorm"
)

// migrateLockID keys the advisory lock that serializes schema setup across
// replicas. CREATE ... IF NOT EXISTS alone can still fail with a duplicate
// pg_type row when two sessions create the same table at the same instant.
const migrateLockID = 7_340_112

var schema = []string{
	`CREATE TABLE IF NOT EXISTS posts (
		id         BIGSERIAL PRIMARY KEY,
		title      TEXT        NOT NULL,
		body       TEXT        NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC, id DESC)`,
}

// Migrate creates the posts table and its index when absent. Every replica
// runs it at startup.
func Migrate(ctx context.Context, db *DB) error {
	if db == nil || db.Gorm == nil || db.SQL == nil {
		return nil
	}
	return db.Gorm.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec("SELECT pg_advisory_xact_lock(?)", migrateLockID).Error; err != nil {
			return fmt.Errorf("migrate lock: %w", err)
		}
		for _, stmt := range schema {
			if err := tx.Exec(stmt).Error; err != nil {
				return fmt.Errorf("migrate: %w", err)
			}
		}
		return nil
	})
}
