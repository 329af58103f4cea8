package model

import (
	"encoding/json"
	"time"

	baseModel "digistore/pkg/model"
)

// Order 订单模型
// 金额字段均为主货币单位（如美元），计算时四舍五入到 2 位小数；
// 与 Stripe 交互时在网关边界转换为最小货币单位（分）
type Order struct {
	baseModel.BaseModel
	OrderNumber string `gorm:"uniqueIndex;not null" json:"orderNumber"`
	UserID      string `gorm:"type:uuid;index;not null" json:"userId"`

	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxAmount      float64 `json:"taxAmount"`
	TotalAmount    float64 `json:"totalAmount"`
	Currency       string  `gorm:"default:'usd'" json:"currency"`

	Status Status `gorm:"default:'pending';index" json:"status"`

	// 支付关联：两个字段可能在订单生命周期内先后被写入（流程重试），
	// 但同一时刻只有一种支付方式处于活跃状态
	StripeCheckoutSessionID string `gorm:"index" json:"stripeCheckoutSessionId,omitempty"`
	StripePaymentIntentID   string `gorm:"index" json:"stripePaymentIntentId,omitempty"`

	// 客户快照：下单时落库，此后不可变，退款/回执不依赖实时用户资料
	CustomerEmail  string          `json:"customerEmail"`
	CustomerName   string          `json:"customerName"`
	BillingAddress json.RawMessage `gorm:"type:jsonb" json:"billingAddress,omitempty"`

	// 优惠券关联：DiscountAmount 是下单时的快照，不随优惠券后续变更而变化
	CouponID *string `gorm:"type:uuid" json:"couponId,omitempty"`

	// NeedsReview 退款失败但仍取消时置位，等待人工处理
	NeedsReview bool       `gorm:"default:false" json:"needsReview"`
	RefundID    string     `json:"refundId,omitempty"`
	RefundedAt  *time.Time `json:"refundedAt,omitempty"`
	PaidAt      *time.Time `json:"paidAt,omitempty"`

	Items []OrderItem `gorm:"foreignKey:OrderID" json:"items,omitempty"`
}

// OrderItem 订单项，随订单原子创建，创建后不再单独变更
// 商品名称/SKU/价格为下单时的目录快照
type OrderItem struct {
	baseModel.BaseModel
	OrderID     string  `gorm:"type:uuid;index;not null" json:"orderId"`
	ProductID   string  `gorm:"type:uuid;not null" json:"productId"`
	ProductName string  `json:"productName"`
	ProductSKU  string  `json:"productSku"`
	UnitPrice   float64 `json:"unitPrice"`
	Quantity    int     `gorm:"default:1" json:"quantity"`
	TotalPrice  float64 `json:"totalPrice"`
}
