package repository

import (
	"testing"
	"time"

	"digistore/internal/domain/order/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	gormLogger "gorm.io/gorm/logger"
)

func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	gdb, err := gorm.Open(postgres.New(postgres.Config{
		Conn:                 db,
		PreferSimpleProtocol: true,
	}), &gorm.Config{
		SkipDefaultTransaction: true,
		Logger:                 gormLogger.Default.LogMode(gormLogger.Silent),
	})
	require.NoError(t, err)
	return gdb, mock
}

func orderColumns() []string {
	return []string{"id", "created_at", "updated_at", "deleted_at", "order_number", "user_id", "status", "total_amount"}
}

func TestGetByPaymentRef_MatchesEitherPaymentReference(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE \(stripe_checkout_session_id = \$1 OR stripe_payment_intent_id = \$2\)`).
		WithArgs("cs_test_1", "cs_test_1", 1).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("order-1", now, now, nil, "ORD1", "user-1", "pending", 44.99))
	mock.ExpectQuery(`SELECT \* FROM "order_items" WHERE "order_items"\."order_id"`).
		WithArgs("order-1").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}).
			AddRow("item-1", "order-1", "prod-1", 1))

	order, err := repo.GetByPaymentRef("cs_test_1")

	assert.NoError(t, err)
	assert.Equal(t, "order-1", order.ID)
	assert.Len(t, order.Items, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetMostRecentPendingForUser_OrdersByCreatedAtDesc(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)

	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE \(user_id = \$1 AND status = \$2\).*ORDER BY created_at DESC`).
		WithArgs("user-1", "pending", 1).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("order-2", now, now, nil, "ORD2", "user-1", "pending", 49.99))
	mock.ExpectQuery(`SELECT \* FROM "order_items"`).
		WithArgs("order-2").
		WillReturnRows(sqlmock.NewRows([]string{"id", "order_id", "product_id", "quantity"}))

	order, err := repo.GetMostRecentPendingForUser("user-1")

	assert.NoError(t, err)
	assert.Equal(t, "order-2", order.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_UpdatesWhenPriorStatusAllowed(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)

	mock.ExpectExec(`UPDATE "orders" SET .* WHERE \(id = \$\d+ AND status IN`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TransitionStatus("order-1", model.StatusProcessing, nil)

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_RejectsIllegalTransitionAtWriteTime(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)

	// 条件更新未命中：订单当前是 cancelled，completed 的前置集合不含它
	mock.ExpectExec(`UPDATE "orders" SET .* WHERE \(id = \$\d+ AND status IN`).
		WillReturnResult(sqlmock.NewResult(0, 0))
	now := time.Now()
	mock.ExpectQuery(`SELECT \* FROM "orders" WHERE id = \$1`).
		WithArgs("order-1", 1).
		WillReturnRows(sqlmock.NewRows(orderColumns()).
			AddRow("order-1", now, now, nil, "ORD1", "user-1", "cancelled", 44.99))

	err := repo.TransitionStatus("order-1", model.StatusCompleted, nil)

	var transErr *model.InvalidTransitionError
	assert.ErrorAs(t, err, &transErr)
	assert.Equal(t, model.StatusCancelled, transErr.From)
	assert.Equal(t, model.StatusCompleted, transErr.To)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTransitionStatus_ExtraFieldsIncludedInUpdate(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)

	mock.ExpectExec(`UPDATE "orders" SET .*"refund_id"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.TransitionStatus("order-1", model.StatusRefunded, map[string]interface{}{
		"refund_id":   "re_test_1",
		"refunded_at": time.Now(),
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdatePaymentInfo_WritesOnlyGivenFields(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewOrderRepository(gdb)

	mock.ExpectExec(`UPDATE "orders" SET .*"stripe_checkout_session_id"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := repo.UpdatePaymentInfo("order-1", map[string]interface{}{
		"stripe_checkout_session_id": "cs_test_1",
	})

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
