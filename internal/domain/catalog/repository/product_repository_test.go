package repository

import (
	"testing"

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

func TestGrantAccess_InsertMatchesTableColumns(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)

	// 列清单必须与 user_products 表一致（created_at，主键由数据库默认值生成）
	mock.ExpectQuery(`INSERT INTO "user_products" \("user_id","product_id","order_id","created_at"\) VALUES \(\$1,\$2,\$3,\$4\) RETURNING "id"`).
		WithArgs("user-1", "prod-1", "order-1", sqlmock.AnyArg()).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("up-1"))

	err := repo.GrantAccess("user-1", "prod-1", "order-1")

	assert.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestHasAccess_CountsByUserAndProduct(t *testing.T) {
	gdb, mock := newMockDB(t)
	repo := NewProductRepository(gdb)

	mock.ExpectQuery(`SELECT count\(\*\) FROM "user_products" WHERE user_id = \$1 AND product_id = \$2`).
		WithArgs("user-1", "prod-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	owned, err := repo.HasAccess("user-1", "prod-1")

	assert.NoError(t, err)
	assert.True(t, owned)
	assert.NoError(t, mock.ExpectationsWereMet())
}
