package service

import (
	"os"
	"testing"

	catalogModel "digistore/internal/domain/catalog/model"
	couponModel "digistore/internal/domain/coupon/model"
	couponService "digistore/internal/domain/coupon/service"
	"digistore/internal/domain/order/gateway"
	"digistore/internal/domain/order/model"
	userModel "digistore/internal/domain/user/model"
	"digistore/internal/pkg/config"
	"digistore/internal/pkg/worker"
	"digistore/pkg/logger"

	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
)

func TestMain(m *testing.M) {
	logger.Log = zap.NewNop()
	config.GlobalConfig.Stripe.MinimumAmount = 0.5
	config.GlobalConfig.Stripe.Currency = "usd"
	config.GlobalConfig.Stripe.Prices = map[string]string{
		"PKG-BASIC": "price_basic",
		"BND-FULL":  "price_full",
	}
	os.Exit(m.Run())
}

type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) CreateWithItems(order *model.Order) error {
	args := m.Called(order)
	return args.Error(0)
}

func (m *MockOrderRepository) GetByID(id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByIDWithItems(id string) (*model.Order, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetByPaymentRef(ref string) (*model.Order, error) {
	args := m.Called(ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) GetMostRecentPendingForUser(userID string) (*model.Order, error) {
	args := m.Called(userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Order), args.Error(1)
}

func (m *MockOrderRepository) ListByUser(userID string, offset, limit int) ([]model.Order, int64, error) {
	args := m.Called(userID, offset, limit)
	return args.Get(0).([]model.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) TransitionStatus(orderID string, to model.Status, extra map[string]interface{}) error {
	args := m.Called(orderID, to, extra)
	return args.Error(0)
}

func (m *MockOrderRepository) UpdatePaymentInfo(orderID string, fields map[string]interface{}) error {
	args := m.Called(orderID, fields)
	return args.Error(0)
}

type MockUserRepository struct {
	mock.Mock
}

func (m *MockUserRepository) GetByID(id string) (*userModel.User, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) GetByEmail(email string) (*userModel.User, error) {
	args := m.Called(email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*userModel.User), args.Error(1)
}

func (m *MockUserRepository) Update(user *userModel.User) error {
	args := m.Called(user)
	return args.Error(0)
}

type MockCatalogService struct {
	mock.Mock
}

func (m *MockCatalogService) GetProduct(id string) (*catalogModel.Product, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogModel.Product), args.Error(1)
}

func (m *MockCatalogService) GetProductBySlug(slug string) (*catalogModel.Product, error) {
	args := m.Called(slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalogModel.Product), args.Error(1)
}

func (m *MockCatalogService) ListProducts() ([]catalogModel.Product, error) {
	args := m.Called()
	return args.Get(0).([]catalogModel.Product), args.Error(1)
}

func (m *MockCatalogService) HasAccess(userID, productID string) (bool, error) {
	args := m.Called(userID, productID)
	return args.Bool(0), args.Error(1)
}

func (m *MockCatalogService) CheckPurchasable(userID string, product *catalogModel.Product) error {
	args := m.Called(userID, product)
	return args.Error(0)
}

func (m *MockCatalogService) GrantAccess(userID, productID, orderID string) error {
	args := m.Called(userID, productID, orderID)
	return args.Error(0)
}

type MockCouponService struct {
	mock.Mock
}

func (m *MockCouponService) Validate(code string, subtotal float64, productIDs []string) (*couponService.ValidationResult, error) {
	args := m.Called(code, subtotal, productIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*couponService.ValidationResult), args.Error(1)
}

func (m *MockCouponService) Create(coupon *couponModel.Coupon) error {
	args := m.Called(coupon)
	return args.Error(0)
}

func (m *MockCouponService) Update(coupon *couponModel.Coupon) error {
	args := m.Called(coupon)
	return args.Error(0)
}

func (m *MockCouponService) Deactivate(id string) error {
	args := m.Called(id)
	return args.Error(0)
}

func (m *MockCouponService) List(page, limit int) ([]couponModel.Coupon, int64, error) {
	args := m.Called(page, limit)
	return args.Get(0).([]couponModel.Coupon), args.Get(1).(int64), args.Error(2)
}

type MockPaymentGateway struct {
	mock.Mock
}

func (m *MockPaymentGateway) CreateCheckoutSession(input *gateway.CheckoutSessionInput) (*gateway.CheckoutSession, error) {
	args := m.Called(input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSession), args.Error(1)
}

func (m *MockPaymentGateway) GetCheckoutSession(id string) (*gateway.CheckoutSessionDetail, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.CheckoutSessionDetail), args.Error(1)
}

func (m *MockPaymentGateway) CreatePaymentIntent(amountCents int64, currency, orderID, orderNumber string) (*gateway.PaymentIntent, error) {
	args := m.Called(amountCents, currency, orderID, orderNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) GetPaymentIntent(id string) (*gateway.PaymentIntent, error) {
	args := m.Called(id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.PaymentIntent), args.Error(1)
}

func (m *MockPaymentGateway) CreateRefund(paymentIntentID string) (*gateway.Refund, error) {
	args := m.Called(paymentIntentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*gateway.Refund), args.Error(1)
}

type MockAuditService struct {
	mock.Mock
}

func (m *MockAuditService) LogAction(userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	m.Called(userID, action, resourceType, resourceID, metadata)
}

type MockEnqueuer struct {
	mock.Mock
}

func (m *MockEnqueuer) Enqueue(task worker.EmailTask) bool {
	args := m.Called(task)
	return args.Bool(0)
}
