package gateway

import (
	"errors"

	"digistore/internal/pkg/config"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/checkout/session"
	"github.com/stripe/stripe-go/v76/coupon"
	"github.com/stripe/stripe-go/v76/paymentintent"
	"github.com/stripe/stripe-go/v76/refund"
)

// StripeGateway Stripe 实现
type StripeGateway struct {
	config config.StripeConfig
}

func NewStripeGateway() (*StripeGateway, error) {
	cfg := config.GlobalConfig.Stripe
	if cfg.SecretKey == "" {
		return nil, errors.New("stripe config missing")
	}
	stripe.Key = cfg.SecretKey
	return &StripeGateway{config: cfg}, nil
}

// CreateCheckoutSession 创建托管支付会话
// 托管会话没有原生的"折扣行"概念，这里用一次性的 amount_off 优惠券表达折扣，
// 保证处理端合计与本地订单合计一致
func (g *StripeGateway) CreateCheckoutSession(in *CheckoutSessionInput) (*CheckoutSession, error) {
	lineItems := make([]*stripe.CheckoutSessionLineItemParams, 0, len(in.Lines))
	for _, line := range in.Lines {
		lineItems = append(lineItems, &stripe.CheckoutSessionLineItemParams{
			Price:    stripe.String(line.PriceID),
			Quantity: stripe.Int64(line.Quantity),
		})
	}

	params := &stripe.CheckoutSessionParams{
		Mode:          stripe.String(string(stripe.CheckoutSessionModePayment)),
		SuccessURL:    stripe.String(g.config.SuccessURL),
		CancelURL:     stripe.String(g.config.CancelURL),
		CustomerEmail: stripe.String(in.CustomerEmail),
		LineItems:     lineItems,
	}
	params.AddMetadata("order_id", in.OrderID)
	params.AddMetadata("order_number", in.OrderNumber)

	if in.DiscountCents > 0 {
		discountCoupon, err := coupon.New(&stripe.CouponParams{
			AmountOff: stripe.Int64(in.DiscountCents),
			Currency:  stripe.String(in.Currency),
			Duration:  stripe.String(string(stripe.CouponDurationOnce)),
			Name:      stripe.String("Order discount " + in.OrderNumber),
		})
		if err != nil {
			return nil, err
		}
		params.Discounts = []*stripe.CheckoutSessionDiscountParams{
			{Coupon: stripe.String(discountCoupon.ID)},
		}
	}

	s, err := session.New(params)
	if err != nil {
		return nil, err
	}
	return &CheckoutSession{ID: s.ID, URL: s.URL}, nil
}

// GetCheckoutSession 取回会话及其权威商品行
func (g *StripeGateway) GetCheckoutSession(sessionID string) (*CheckoutSessionDetail, error) {
	params := &stripe.CheckoutSessionParams{}
	params.AddExpand("line_items")

	s, err := session.Get(sessionID, params)
	if err != nil {
		return nil, err
	}

	detail := &CheckoutSessionDetail{
		ID:             s.ID,
		URL:            s.URL,
		Status:         string(s.Status),
		Currency:       string(s.Currency),
		AmountSubtotal: s.AmountSubtotal,
		AmountTotal:    s.AmountTotal,
	}
	if s.PaymentIntent != nil {
		detail.PaymentIntentID = s.PaymentIntent.ID
	}
	if s.TotalDetails != nil {
		detail.AmountDiscount = s.TotalDetails.AmountDiscount
		detail.AmountTax = s.TotalDetails.AmountTax
	}
	if s.LineItems != nil {
		for _, li := range s.LineItems.Data {
			line := SessionLineDetail{
				Description: li.Description,
				Quantity:    li.Quantity,
				AmountTotal: li.AmountTotal,
			}
			if li.Price != nil {
				line.UnitAmount = li.Price.UnitAmount
			}
			detail.Lines = append(detail.Lines, line)
		}
	}
	return detail, nil
}

// CreatePaymentIntent 创建支付意图（内嵌支付 UI，无跳转）
func (g *StripeGateway) CreatePaymentIntent(amountCents int64, currency, orderID, orderNumber string) (*PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:   stripe.Int64(amountCents),
		Currency: stripe.String(currency),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}
	params.AddMetadata("order_id", orderID)
	params.AddMetadata("order_number", orderNumber)

	pi, err := paymentintent.New(params)
	if err != nil {
		return nil, err
	}
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// GetPaymentIntent 查询支付意图实时状态
func (g *StripeGateway) GetPaymentIntent(intentID string) (*PaymentIntent, error) {
	pi, err := paymentintent.Get(intentID, nil)
	if err != nil {
		return nil, err
	}
	return &PaymentIntent{ID: pi.ID, ClientSecret: pi.ClientSecret, Status: string(pi.Status)}, nil
}

// CreateRefund 全额退款
func (g *StripeGateway) CreateRefund(paymentIntentID string) (*Refund, error) {
	r, err := refund.New(&stripe.RefundParams{
		PaymentIntent: stripe.String(paymentIntentID),
	})
	if err != nil {
		return nil, err
	}
	return &Refund{ID: r.ID, Status: string(r.Status)}, nil
}

// 确保实现了接口
var _ PaymentGateway = (*StripeGateway)(nil)
