package gateway

// 支付网关抽象：金额在此边界转换为最小货币单位（分），其余代码只使用主货币单位

// SessionLine 托管支付会话的一行商品
type SessionLine struct {
	PriceID  string
	Quantity int64
}

// CheckoutSessionInput 创建托管支付会话的参数
type CheckoutSessionInput struct {
	OrderID       string
	OrderNumber   string
	CustomerEmail string
	Currency      string
	Lines         []SessionLine
	// DiscountCents 优惠金额（分）；> 0 时网关需保证处理端合计与本地合计一致
	DiscountCents int64
}

// CheckoutSession 托管支付会话创建结果
type CheckoutSession struct {
	ID  string
	URL string
}

// SessionLineDetail 从处理端取回的权威商品行
type SessionLineDetail struct {
	Description   string
	Quantity      int64
	UnitAmount    int64 // 分
	AmountTotal   int64 // 分
}

// CheckoutSessionDetail 从处理端取回的权威会话数据
type CheckoutSessionDetail struct {
	ID              string
	URL             string
	Status          string // open, complete, expired
	PaymentIntentID string
	Currency        string
	AmountSubtotal  int64 // 分
	AmountDiscount  int64 // 分
	AmountTax       int64 // 分
	AmountTotal     int64 // 分
	Lines           []SessionLineDetail
}

const (
	SessionStatusOpen     = "open"
	SessionStatusComplete = "complete"
	SessionStatusExpired  = "expired"
)

// PaymentIntent 支付意图
type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// IntentReusable 支付意图是否仍处于可确认前的状态，可被复用
// 以处理端返回的实时状态为准，本地缓存状态不可信
func IntentReusable(status string) bool {
	switch status {
	case "requires_payment_method", "requires_confirmation", "requires_action":
		return true
	}
	return false
}

// Refund 退款结果
type Refund struct {
	ID     string
	Status string
}

// PaymentGateway 支付处理端接口
type PaymentGateway interface {
	CreateCheckoutSession(in *CheckoutSessionInput) (*CheckoutSession, error)
	GetCheckoutSession(sessionID string) (*CheckoutSessionDetail, error)
	CreatePaymentIntent(amountCents int64, currency, orderID, orderNumber string) (*PaymentIntent, error)
	GetPaymentIntent(intentID string) (*PaymentIntent, error)
	// CreateRefund 对指定支付意图发起全额退款
	CreateRefund(paymentIntentID string) (*Refund, error)
}
