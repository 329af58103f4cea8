package mailer

import (
	"bytes"
	"errors"
	"fmt"
	"html/template"
	"net/smtp"

	"digistore/internal/pkg/config"
)

// ReceiptItem 回执中的单个商品行
type ReceiptItem struct {
	Name       string
	Quantity   int
	UnitPrice  float64
	TotalPrice float64
}

// Receipt 支付回执载荷
// 金额为对账后解析出的权威值（Stripe 会话数据或本地订单数据）
type Receipt struct {
	OrderNumber    string
	CustomerName   string
	Currency       string
	Subtotal       float64
	DiscountAmount float64
	TaxAmount      float64
	Total          float64
	Items          []ReceiptItem
}

// RefundNotice 退款通知载荷
type RefundNotice struct {
	OrderNumber string
	Currency    string
	Amount      float64
	RefundID    string
}

// Sender 邮件发送接口
type Sender interface {
	SendPaymentReceipt(to string, receipt *Receipt) error
	SendRefundNotice(to string, notice *RefundNotice) error
}

// SMTPSender 基于 SMTP 的实现
type SMTPSender struct {
	host     string
	port     string
	username string
	password string
	from     string
}

func NewSMTPSender() (*SMTPSender, error) {
	cfg := config.GlobalConfig.SMTP
	if cfg.Host == "" || cfg.Port == "" {
		return nil, errors.New("smtp config missing")
	}
	from := cfg.From
	if from == "" {
		from = cfg.Username
	}
	return &SMTPSender{
		host:     cfg.Host,
		port:     cfg.Port,
		username: cfg.Username,
		password: cfg.Password,
		from:     from,
	}, nil
}

var receiptTemplate = template.Must(template.New("receipt").Parse(`
<h2>Thank you for your purchase!</h2>
<p>Hi {{.CustomerName}}, here is your receipt for order <strong>{{.OrderNumber}}</strong>.</p>
<table cellpadding="6">
  <tr><th align="left">Item</th><th>Qty</th><th align="right">Price</th><th align="right">Total</th></tr>
  {{range .Items}}
  <tr><td>{{.Name}}</td><td align="center">{{.Quantity}}</td><td align="right">{{printf "%.2f" .UnitPrice}}</td><td align="right">{{printf "%.2f" .TotalPrice}}</td></tr>
  {{end}}
</table>
<p>
Subtotal: {{printf "%.2f" .Subtotal}} {{.Currency}}<br>
{{if gt .DiscountAmount 0.0}}Discount: -{{printf "%.2f" .DiscountAmount}} {{.Currency}}<br>{{end}}
{{if gt .TaxAmount 0.0}}Tax: {{printf "%.2f" .TaxAmount}} {{.Currency}}<br>{{end}}
<strong>Total: {{printf "%.2f" .Total}} {{.Currency}}</strong>
</p>
`))

var refundTemplate = template.Must(template.New("refund").Parse(`
<h2>Your refund has been processed</h2>
<p>Order <strong>{{.OrderNumber}}</strong> has been refunded in full.</p>
<p>Amount: <strong>{{printf "%.2f" .Amount}} {{.Currency}}</strong><br>
Refund reference: {{.RefundID}}</p>
`))

// SendPaymentReceipt 发送支付回执
func (s *SMTPSender) SendPaymentReceipt(to string, receipt *Receipt) error {
	var body bytes.Buffer
	if err := receiptTemplate.Execute(&body, receipt); err != nil {
		return fmt.Errorf("render receipt: %w", err)
	}
	subject := fmt.Sprintf("Your receipt for order %s", receipt.OrderNumber)
	return s.send(to, subject, body.String())
}

// SendRefundNotice 发送退款通知
func (s *SMTPSender) SendRefundNotice(to string, notice *RefundNotice) error {
	var body bytes.Buffer
	if err := refundTemplate.Execute(&body, notice); err != nil {
		return fmt.Errorf("render refund notice: %w", err)
	}
	subject := fmt.Sprintf("Refund processed for order %s", notice.OrderNumber)
	return s.send(to, subject, body.String())
}

// sendMail 可在测试中替换
var sendMail = smtp.SendMail

func (s *SMTPSender) send(to, subject, body string) error {
	addr := fmt.Sprintf("%s:%s", s.host, s.port)
	auth := smtp.PlainAuth("", s.username, s.password, s.host)

	msg := []byte(
		"From: " + s.from + "\r\n" +
			"To: " + to + "\r\n" +
			"Subject: " + subject + "\r\n" +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=UTF-8\r\n" +
			"\r\n" +
			body,
	)

	if err := sendMail(addr, auth, s.from, []string{to}, msg); err != nil {
		return fmt.Errorf("smtp send failed: %w", err)
	}
	return nil
}

var _ Sender = (*SMTPSender)(nil)
