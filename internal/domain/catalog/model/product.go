package model

import (
	"time"

	baseModel "digistore/pkg/model"
)

// Product 商品模型（数字商品：单包或套装）
type Product struct {
	baseModel.BaseModel
	Slug        string  `gorm:"uniqueIndex;not null" json:"slug"`
	SKU         string  `gorm:"uniqueIndex;not null" json:"sku"`
	Name        string  `gorm:"not null" json:"name"`
	Description string  `json:"description"`
	Price       float64 `gorm:"not null" json:"price"`
	Type        string  `gorm:"not null" json:"type"` // package, bundle
	Active      bool    `gorm:"default:true" json:"active"`
}

const (
	TypePackage = "package"
	TypeBundle  = "bundle"
)

// IsOrderable 是否为可下单的商品类型
func (p *Product) IsOrderable() bool {
	return p.Active && (p.Type == TypePackage || p.Type == TypeBundle)
}

// BundleItem 套装与其组成单包的关联
type BundleItem struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	BundleID  string    `gorm:"type:uuid;index;not null" json:"bundleId"`
	ProductID string    `gorm:"type:uuid;index;not null" json:"productId"`
	CreatedAt time.Time `json:"createdAt"`
}

// UserProduct 用户已获得的商品权益（支付成功后授予）
type UserProduct struct {
	ID        string    `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID    string    `gorm:"type:uuid;index;not null" json:"userId"`
	ProductID string    `gorm:"type:uuid;index;not null" json:"productId"`
	OrderID   string    `gorm:"type:uuid" json:"orderId"`
	CreatedAt time.Time `json:"createdAt"`
}
