package service

import (
	"errors"
	"fmt"
	"time"

	"digistore/internal/domain/coupon/model"
	"digistore/internal/domain/coupon/repository"

	"gorm.io/gorm"
)

// ValidationResult 优惠券校验结果
// Valid=false 时 Reason 为可直接展示给用户的原因
type ValidationResult struct {
	Valid  bool          `json:"valid"`
	Coupon *model.Coupon `json:"coupon,omitempty"`
	Reason string        `json:"reason,omitempty"`
}

type CouponService interface {
	// Validate 按当前小计与商品范围校验优惠券
	Validate(code string, subtotal float64, productIDs []string) (*ValidationResult, error)
	Create(coupon *model.Coupon) error
	Update(coupon *model.Coupon) error
	Deactivate(id string) error
	List(page, limit int) ([]model.Coupon, int64, error)
}

type couponService struct {
	repo repository.CouponRepository
}

func NewCouponService(repo repository.CouponRepository) CouponService {
	return &couponService{repo: repo}
}

func (s *couponService) Validate(code string, subtotal float64, productIDs []string) (*ValidationResult, error) {
	coupon, err := s.repo.GetByCode(code)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return &ValidationResult{Valid: false, Reason: "Coupon code not found"}, nil
		}
		return nil, err
	}

	if !coupon.IsActive(time.Now()) {
		return &ValidationResult{Valid: false, Reason: "This coupon is no longer active"}, nil
	}

	if coupon.MinimumPurchase > 0 && subtotal < coupon.MinimumPurchase {
		return &ValidationResult{
			Valid:  false,
			Reason: fmt.Sprintf("This coupon requires a minimum purchase of %.2f", coupon.MinimumPurchase),
		}, nil
	}

	// 商品范围校验：范围为空表示全场可用
	if scope := coupon.ProductScope(); len(scope) > 0 {
		if !intersects(scope, productIDs) {
			return &ValidationResult{Valid: false, Reason: "This coupon does not apply to these products"}, nil
		}
	}

	return &ValidationResult{Valid: true, Coupon: coupon}, nil
}

func intersects(scope, productIDs []string) bool {
	set := make(map[string]struct{}, len(scope))
	for _, id := range scope {
		set[id] = struct{}{}
	}
	for _, id := range productIDs {
		if _, ok := set[id]; ok {
			return true
		}
	}
	return false
}

func (s *couponService) Create(coupon *model.Coupon) error {
	if coupon.Type != model.TypePercentage && coupon.Type != model.TypeFixedAmount {
		return errors.New("invalid coupon type")
	}
	if coupon.Value <= 0 {
		return errors.New("coupon value must be positive")
	}
	if coupon.Type == model.TypePercentage && coupon.Value > 100 {
		return errors.New("percentage value must not exceed 100")
	}
	return s.repo.Create(coupon)
}

func (s *couponService) Update(coupon *model.Coupon) error {
	return s.repo.Update(coupon)
}

func (s *couponService) Deactivate(id string) error {
	return s.repo.Deactivate(id)
}

func (s *couponService) List(page, limit int) ([]model.Coupon, int64, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}
	return s.repo.List((page-1)*limit, limit)
}
