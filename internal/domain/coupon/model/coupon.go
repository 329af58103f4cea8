package model

import (
	"encoding/json"
	"time"

	baseModel "digistore/pkg/model"
)

// Coupon 优惠券定义
type Coupon struct {
	baseModel.BaseModel
	Code string `gorm:"uniqueIndex;not null" json:"code"`
	// Type 折扣类型：percentage 按比例，fixed_amount 固定金额
	Type  string  `gorm:"not null" json:"type"`
	Value float64 `gorm:"not null" json:"value"`
	// MinimumPurchase 使用门槛（小计需达到的金额），0 表示无门槛
	MinimumPurchase float64 `json:"minimumPurchase"`
	// MaximumDiscount 百分比折扣的封顶金额，0 表示不封顶
	MaximumDiscount float64 `json:"maximumDiscount"`
	// AppliesTo 适用商品ID列表（JSON 数组），为空表示全场可用
	AppliesTo json.RawMessage `gorm:"type:jsonb" json:"appliesTo,omitempty"`
	Active    bool            `gorm:"default:true" json:"active"`
	StartsAt  *time.Time      `json:"startsAt,omitempty"`
	ExpiresAt *time.Time      `json:"expiresAt,omitempty"`
}

const (
	TypePercentage  = "percentage"
	TypeFixedAmount = "fixed_amount"
)

// ProductScope 解析适用商品ID列表，为空表示全场可用
func (c *Coupon) ProductScope() []string {
	if len(c.AppliesTo) == 0 {
		return nil
	}
	var ids []string
	if err := json.Unmarshal(c.AppliesTo, &ids); err != nil {
		return nil
	}
	return ids
}

// IsActive 是否处于可用时间窗口
func (c *Coupon) IsActive(now time.Time) bool {
	if !c.Active {
		return false
	}
	if c.StartsAt != nil && now.Before(*c.StartsAt) {
		return false
	}
	if c.ExpiresAt != nil && now.After(*c.ExpiresAt) {
		return false
	}
	return true
}
