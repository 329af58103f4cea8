// Package pricing 订单金额计算，纯函数，无任何 I/O，可并发调用
package pricing

import (
	"math"

	couponModel "digistore/internal/domain/coupon/model"
	"digistore/internal/domain/order/model"
)

// Totals 订单金额汇总
type Totals struct {
	Subtotal       float64 `json:"subtotal"`
	DiscountAmount float64 `json:"discountAmount"`
	TaxAmount      float64 `json:"taxAmount"`
	Total          float64 `json:"total"`
}

// Round2 四舍五入到 2 位小数（round half away from zero）
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// CalculateSubtotal 计算小计：Σ 单价 × 数量
// 空列表返回 0；数量为 0 的条目贡献 0，不过滤也不报错
func CalculateSubtotal(items []model.OrderItem) float64 {
	var subtotal float64
	for _, item := range items {
		subtotal += item.UnitPrice * float64(item.Quantity)
	}
	return Round2(subtotal)
}

// CalculateDiscount 计算优惠金额
// coupon 为 nil 时返回 0；percentage 按比例计算并受 MaximumDiscount 封顶；
// 两种类型都不超过小计（折扣不会把剩余金额打成负数）
func CalculateDiscount(subtotal float64, coupon *couponModel.Coupon) float64 {
	if coupon == nil {
		return 0
	}

	switch coupon.Type {
	case couponModel.TypePercentage:
		discount := subtotal * coupon.Value / 100
		if coupon.MaximumDiscount > 0 && discount > coupon.MaximumDiscount {
			discount = coupon.MaximumDiscount
		}
		if discount > subtotal {
			discount = subtotal
		}
		return Round2(discount)
	case couponModel.TypeFixedAmount:
		if coupon.Value > subtotal {
			return Round2(subtotal)
		}
		return Round2(coupon.Value)
	default:
		return 0
	}
}

// CalculateTax 计算税额
// 数字商品下单时恒为 0：Stripe 托管会话内部的自动计税不回写到本地订单
func CalculateTax(subtotal float64, rate float64) float64 {
	return 0
}

// CalculateTotal 计算应付总额，恒 >= 0
func CalculateTotal(subtotal, discount, tax float64) float64 {
	total := Round2(subtotal-discount) + tax
	if total < 0 {
		return 0
	}
	return Round2(total)
}

// CalculateOrderTotals 组合计算订单全部金额
func CalculateOrderTotals(items []model.OrderItem, coupon *couponModel.Coupon) Totals {
	subtotal := CalculateSubtotal(items)
	discount := CalculateDiscount(subtotal, coupon)
	tax := CalculateTax(subtotal, 0)
	return Totals{
		Subtotal:       subtotal,
		DiscountAmount: discount,
		TaxAmount:      tax,
		Total:          CalculateTotal(subtotal, discount, tax),
	}
}
