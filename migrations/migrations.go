package migrations

import (
	"context"
	"database/sql"
	"time"
)

// AutoMigrateStatusHistory creates the order_status_history table if it does
// not exist, retrying while the database finishes starting.
func AutoMigrateStatusHistory(ctx context.Context, retries int, db *sql.DB) error {
	query := `
		CREATE TABLE IF NOT EXISTS order_status_history (
			id BIGINT AUTO_INCREMENT PRIMARY KEY,
			order_id CHAR(24) NOT NULL,
			from_status VARCHAR(20) NOT NULL,
			to_status VARCHAR(20) NOT NULL,
			reason TEXT NOT NULL,
			changed_by VARCHAR(255) NOT NULL,
			changed_at DATETIME(3) NOT NULL,
			INDEX idx_order_status_history_order (order_id, changed_at)
		);
	`
	_, err := db.ExecContext(ctx, query)
	for i := 0; err != nil && i < retries; i++ {
		time.Sleep(1 * time.Second)
		_, err = db.ExecContext(ctx, query)
	}
	return err
}
