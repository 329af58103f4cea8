package service

import (
	"errors"
	"testing"
	"time"

	catalogModel "digistore/internal/domain/catalog/model"
	catalogService "digistore/internal/domain/catalog/service"
	couponModel "digistore/internal/domain/coupon/model"
	couponService "digistore/internal/domain/coupon/service"
	"digistore/internal/domain/order/model"
	userModel "digistore/internal/domain/user/model"
	baseModel "digistore/pkg/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"gorm.io/gorm"
)

type expressFixture struct {
	repo    *MockOrderRepository
	users   *MockUserRepository
	catalog *MockCatalogService
	coupons *MockCouponService
	gateway *MockPaymentGateway
	audit   *MockAuditService
	queue   *MockEnqueuer
	svc     OrderService
}

func newExpressFixture() *expressFixture {
	f := &expressFixture{
		repo:    new(MockOrderRepository),
		users:   new(MockUserRepository),
		catalog: new(MockCatalogService),
		coupons: new(MockCouponService),
		gateway: new(MockPaymentGateway),
		audit:   new(MockAuditService),
		queue:   new(MockEnqueuer),
	}
	f.svc = NewOrderService(f.repo, f.users, f.catalog, f.coupons, f.gateway, f.audit, f.queue, nil)
	return f
}

func testUser() *userModel.User {
	return &userModel.User{
		BaseModel: baseModel.BaseModel{ID: "user-1"},
		Email:     "buyer@example.com",
		Name:      "Buyer",
	}
}

func testProduct() *catalogModel.Product {
	return &catalogModel.Product{
		BaseModel: baseModel.BaseModel{ID: "prod-1"},
		Slug:      "basic-package",
		SKU:       "PKG-BASIC",
		Name:      "Basic Package",
		Price:     49.99,
		Type:      catalogModel.TypePackage,
		Active:    true,
	}
}

func pendingOrder(productID string, age time.Duration) *model.Order {
	return &model.Order{
		BaseModel: baseModel.BaseModel{
			ID:        "order-1",
			CreatedAt: time.Now().Add(-age),
		},
		OrderNumber: "ORD20260901000001",
		UserID:      "user-1",
		Status:      model.StatusPending,
		TotalAmount: 49.99,
		Items: []model.OrderItem{
			{ProductID: productID, ProductSKU: "PKG-BASIC", Quantity: 1, UnitPrice: 49.99, TotalPrice: 49.99},
		},
	}
}

func TestCreateExpressOrder_ReusesRecentPendingOrder(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)
	existing := pendingOrder("prod-1", 2*time.Minute)
	f.repo.On("GetMostRecentPendingForUser", "user-1").Return(existing, nil)

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "idem-key-1")

	assert.NoError(t, err)
	assert.Equal(t, existing.ID, order.ID)
	f.repo.AssertNotCalled(t, "CreateWithItems", mock.Anything)
}

func TestCreateExpressOrder_WindowExpiredCreatesNewOrder(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)
	stale := pendingOrder("prod-1", 11*time.Minute)
	f.repo.On("GetMostRecentPendingForUser", "user-1").Return(stale, nil)
	f.repo.On("CreateWithItems", mock.AnythingOfType("*model.Order")).Return(nil)
	f.audit.On("LogAction", "user-1", "order.created", "order", mock.Anything, mock.Anything).Return()

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "idem-key-1")

	assert.NoError(t, err)
	assert.NotEqual(t, stale.ID, order.ID)
	assert.Equal(t, model.StatusPending, order.Status)
	assert.InDelta(t, 49.99, order.TotalAmount, 0.001)
	f.repo.AssertExpectations(t)
}

func TestCreateExpressOrder_SessionAttachedPreventsReuse(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)
	existing := pendingOrder("prod-1", time.Minute)
	existing.StripeCheckoutSessionID = "cs_live_existing"
	f.repo.On("GetMostRecentPendingForUser", "user-1").Return(existing, nil)
	f.repo.On("CreateWithItems", mock.AnythingOfType("*model.Order")).Return(nil)
	f.audit.On("LogAction", "user-1", "order.created", "order", mock.Anything, mock.Anything).Return()

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "idem-key-1")

	assert.NoError(t, err)
	assert.NotEqual(t, existing.ID, order.ID)
}

func TestCreateExpressOrder_CouponSkipsReuse(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)
	coupon := &couponModel.Coupon{
		BaseModel: baseModel.BaseModel{ID: "coupon-1"},
		Code:      "SAVE10",
		Type:      couponModel.TypePercentage,
		Value:     10,
	}
	f.coupons.On("Validate", "SAVE10", 49.99, []string{"prod-1"}).
		Return(&couponService.ValidationResult{Valid: true, Coupon: coupon}, nil)
	f.repo.On("CreateWithItems", mock.AnythingOfType("*model.Order")).Return(nil)
	f.audit.On("LogAction", "user-1", "order.created", "order", mock.Anything, mock.Anything).Return()

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "SAVE10", "idem-key-1")

	assert.NoError(t, err)
	assert.InDelta(t, 5.0, order.DiscountAmount, 0.001)
	assert.InDelta(t, 44.99, order.TotalAmount, 0.001)
	assert.Equal(t, "coupon-1", *order.CouponID)
	f.repo.AssertNotCalled(t, "GetMostRecentPendingForUser", mock.Anything)
}

func TestCreateExpressOrder_InvalidCouponRejected(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)
	f.coupons.On("Validate", "EXPIRED", 49.99, []string{"prod-1"}).
		Return(&couponService.ValidationResult{Valid: false, Reason: "Coupon has expired"}, nil)

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "EXPIRED", "")

	assert.Nil(t, order)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 400, expErr.Status)
	assert.Equal(t, "Coupon has expired", expErr.Message)
	f.repo.AssertNotCalled(t, "CreateWithItems", mock.Anything)
}

func TestCreateExpressOrder_BelowMinimumRejected(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	cheap := testProduct()
	cheap.Price = 0.25
	f.catalog.On("GetProduct", "prod-1").Return(cheap, nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "")

	assert.Nil(t, order)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 422, expErr.Status)
}

func TestCreateExpressOrder_AlreadyOwnedRejected(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(catalogService.ErrAlreadyOwned)

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "")

	assert.Nil(t, order)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 409, expErr.Status)
}

func TestCreateExpressOrder_UnknownUserRejected(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "ghost").Return(nil, gorm.ErrRecordNotFound)

	order, err := f.svc.CreateExpressOrder("ghost", "prod-1", "", "")

	assert.Nil(t, order)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 404, expErr.Status)
}

func TestCreateExpressOrder_NotForSaleRejected(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	inactive := testProduct()
	inactive.Active = false
	f.catalog.On("GetProduct", "prod-1").Return(inactive, nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(catalogService.ErrNotForSale)

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "")

	assert.Nil(t, order)
	var expErr *ExpressOrderError
	assert.ErrorAs(t, err, &expErr)
	assert.Equal(t, 400, expErr.Status)
}

func TestCreateExpressOrder_RepositoryErrorPropagates(t *testing.T) {
	f := newExpressFixture()
	f.users.On("GetByID", "user-1").Return(testUser(), nil)
	f.catalog.On("GetProduct", "prod-1").Return(testProduct(), nil)
	f.catalog.On("CheckPurchasable", "user-1", mock.Anything).Return(nil)
	f.repo.On("CreateWithItems", mock.AnythingOfType("*model.Order")).Return(errors.New("db down"))

	order, err := f.svc.CreateExpressOrder("user-1", "prod-1", "", "")

	assert.Nil(t, order)
	assert.EqualError(t, err, "db down")
}
