package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	"storefront-service/internal/entity"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistoryRepositoryRecord(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	at := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO order_status_history`)).
		WithArgs("65f000000000000000000001", "pending", "rejected", "out of stock", "staff-1", at).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewHistoryRepository(db)
	err = repo.Record(context.Background(), entity.StatusChange{
		OrderID:   "65f000000000000000000001",
		From:      entity.OrderStatusPending,
		To:        entity.OrderStatusRejected,
		Reason:    "out of stock",
		ChangedBy: "staff-1",
		ChangedAt: at,
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestHistoryRepositoryListByOrder(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "order_id", "from_status", "to_status", "reason", "changed_by", "changed_at"}).
		AddRow(1, "o1", "", "pending", "", "user-1", created).
		AddRow(2, "o1", "pending", "approved", "", "staff-1", created.Add(time.Hour))
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT id, order_id, from_status, to_status, reason, changed_by, changed_at FROM order_status_history WHERE order_id = ?`)).
		WithArgs("o1").
		WillReturnRows(rows)

	repo := NewHistoryRepository(db)
	changes, err := repo.ListByOrder(context.Background(), "o1")
	require.NoError(t, err)
	require.Len(t, changes, 2)
	assert.Equal(t, entity.OrderStatusPending, changes[0].To)
	assert.Equal(t, entity.OrderStatusApproved, changes[1].To)
	assert.Equal(t, "staff-1", changes[1].ChangedBy)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestProductQuery(t *testing.T) {
	query, err := productQuery(entity.ProductFilter{BestSeller: true})
	require.NoError(t, err)
	assert.Equal(t, true, query["isBestSeller"])
	assert.NotContains(t, query, "isNewArrival")

	_, err = productQuery(entity.ProductFilter{CategoryID: "not-an-id"})
	assert.Error(t, err)
}
