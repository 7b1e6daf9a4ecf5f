package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"storefront-service/internal/entity"

	"github.com/go-sql-driver/mysql"
)

// HistoryRepository stores order status transitions in MySQL.
type HistoryRepository struct {
	db *sql.DB
}

func NewHistoryRepository(db *sql.DB) *HistoryRepository {
	return &HistoryRepository{db}
}

// ConnectMySQL opens the history database and waits until it answers pings.
func ConnectMySQL(ctx context.Context, cfg mysql.Config, retries int) (*sql.DB, error) {
	connector, err := mysql.NewConnector(&cfg)
	if err != nil {
		return nil, err
	}
	db := sql.OpenDB(connector)

	for i := 0; i < retries; i++ {
		if err = db.PingContext(ctx); err == nil {
			logger.Info().Msgf("Connected to DB %s", cfg.DBName)
			return db, nil
		}
		logger.Warn().Err(err).Msgf("Retry %d: failed to connect to DB %s (%s)", i+1, cfg.DBName, cfg.Addr)
		select {
		case <-ctx.Done():
			db.Close()
			return nil, ctx.Err()
		case <-time.After(3 * time.Second):
		}
	}
	db.Close()
	return nil, fmt.Errorf("failed to connect to DB %s at %s after retries: %w", cfg.DBName, cfg.Addr, err)
}

func (r *HistoryRepository) Record(ctx context.Context, change entity.StatusChange) error {
	query := `INSERT INTO order_status_history (order_id, from_status, to_status, reason, changed_by, changed_at) VALUES (?, ?, ?, ?, ?, ?)`
	_, err := r.db.ExecContext(ctx, query, change.OrderID, string(change.From), string(change.To), change.Reason, change.ChangedBy, change.ChangedAt.UTC())
	return err
}

// ListByOrder returns the transitions of one order, oldest first.
func (r *HistoryRepository) ListByOrder(ctx context.Context, orderID string) ([]entity.StatusChange, error) {
	query := `SELECT id, order_id, from_status, to_status, reason, changed_by, changed_at FROM order_status_history WHERE order_id = ? ORDER BY changed_at, id`
	rows, err := r.db.QueryContext(ctx, query, orderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	changes := []entity.StatusChange{}
	for rows.Next() {
		var (
			change   entity.StatusChange
			from, to string
		)
		if err := rows.Scan(&change.ID, &change.OrderID, &from, &to, &change.Reason, &change.ChangedBy, &change.ChangedAt); err != nil {
			return nil, err
		}
		change.From = entity.OrderStatus(from)
		change.To = entity.OrderStatus(to)
		changes = append(changes, change)
	}
	return changes, rows.Err()
}

// DeleteByOrder drops the history of a deleted order.
func (r *HistoryRepository) DeleteByOrder(ctx context.Context, orderID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM order_status_history WHERE order_id = ?`, orderID)
	return err
}
