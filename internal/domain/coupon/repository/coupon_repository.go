package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"digistore/internal/domain/coupon/model"
	"digistore/pkg/logger"

	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

// 优惠券读多写少，按 code 做 Redis 读穿透缓存
const couponCacheTTL = 5 * time.Minute

type CouponRepository interface {
	Create(coupon *model.Coupon) error
	GetByID(id string) (*model.Coupon, error)
	GetByCode(code string) (*model.Coupon, error)
	Update(coupon *model.Coupon) error
	Deactivate(id string) error
	List(offset, limit int) ([]model.Coupon, int64, error)
}

type couponRepository struct {
	db  *gorm.DB
	rdb *redis.Client
}

func NewCouponRepository(db *gorm.DB, rdb *redis.Client) CouponRepository {
	return &couponRepository{db: db, rdb: rdb}
}

func couponCacheKey(code string) string {
	return fmt.Sprintf("coupon:code:%s", code)
}

func (r *couponRepository) Create(coupon *model.Coupon) error {
	return r.db.Create(coupon).Error
}

func (r *couponRepository) GetByID(id string) (*model.Coupon, error) {
	var coupon model.Coupon
	if err := r.db.Where("id = ?", id).First(&coupon).Error; err != nil {
		return nil, err
	}
	return &coupon, nil
}

// GetByCode 按 code 查询，优先走 Redis 缓存
func (r *couponRepository) GetByCode(code string) (*model.Coupon, error) {
	ctx := context.Background()
	key := couponCacheKey(code)

	if r.rdb != nil {
		if cached, err := r.rdb.Get(ctx, key).Result(); err == nil {
			var coupon model.Coupon
			if err := json.Unmarshal([]byte(cached), &coupon); err == nil {
				return &coupon, nil
			}
		}
	}

	var coupon model.Coupon
	if err := r.db.Where("code = ?", code).First(&coupon).Error; err != nil {
		return nil, err
	}

	// 缓存失败不影响主流程
	if r.rdb != nil {
		if data, err := json.Marshal(&coupon); err == nil {
			if err := r.rdb.Set(ctx, key, data, couponCacheTTL).Err(); err != nil {
				logger.Log.Warn("Failed to cache coupon: " + err.Error())
			}
		}
	}

	return &coupon, nil
}

func (r *couponRepository) Update(coupon *model.Coupon) error {
	if err := r.db.Save(coupon).Error; err != nil {
		return err
	}
	r.invalidate(coupon.Code)
	return nil
}

func (r *couponRepository) Deactivate(id string) error {
	coupon, err := r.GetByID(id)
	if err != nil {
		return err
	}
	if err := r.db.Model(&model.Coupon{}).Where("id = ?", id).Update("active", false).Error; err != nil {
		return err
	}
	r.invalidate(coupon.Code)
	return nil
}

func (r *couponRepository) List(offset, limit int) ([]model.Coupon, int64, error) {
	var coupons []model.Coupon
	var total int64

	if err := r.db.Model(&model.Coupon{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	if err := r.db.Offset(offset).Limit(limit).Order("created_at DESC").Find(&coupons).Error; err != nil {
		return nil, 0, err
	}
	return coupons, total, nil
}

func (r *couponRepository) invalidate(code string) {
	if r.rdb == nil {
		return
	}
	if err := r.rdb.Del(context.Background(), couponCacheKey(code)).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate coupon cache: " + err.Error())
	}
}
