package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector 指标收集器
type Collector struct {
	// HTTP 指标
	httpRequestsTotal   *prometheus.CounterVec
	httpRequestDuration *prometheus.HistogramVec

	// 订单/支付指标
	ordersCreatedTotal    *prometheus.CounterVec
	checkoutSessionsTotal *prometheus.CounterVec
	paymentIntentsTotal   *prometheus.CounterVec
	webhookEventsTotal    *prometheus.CounterVec
	refundsTotal          *prometheus.CounterVec
}

var (
	defaultCollector *Collector
	once             sync.Once
)

// Default 全局收集器单例
func Default() *Collector {
	once.Do(func() {
		defaultCollector = newCollector()
	})
	return defaultCollector
}

func newCollector() *Collector {
	return &Collector{
		httpRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "endpoint", "status"},
		),
		httpRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "endpoint"},
		),
		ordersCreatedTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "orders_created_total",
				Help: "Total number of orders created, by result (created|reused|rejected)",
			},
			[]string{"result"},
		),
		checkoutSessionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "checkout_sessions_total",
				Help: "Total number of hosted checkout sessions, by result (created|reused|failed)",
			},
			[]string{"result"},
		),
		paymentIntentsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "payment_intents_total",
				Help: "Total number of payment intents, by result (created|reused|failed)",
			},
			[]string{"result"},
		),
		webhookEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_events_total",
				Help: "Total number of processed webhook events, by result (completed|duplicate|unknown_order|failed)",
			},
			[]string{"result"},
		),
		refundsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "refunds_total",
				Help: "Total number of refund attempts, by result (succeeded|failed)",
			},
			[]string{"result"},
		),
	}
}

// RecordHTTPRequest 记录一次 HTTP 请求
func (c *Collector) RecordHTTPRequest(method, endpoint, status string, duration time.Duration) {
	c.httpRequestsTotal.WithLabelValues(method, endpoint, status).Inc()
	c.httpRequestDuration.WithLabelValues(method, endpoint).Observe(duration.Seconds())
}

// RecordOrderCreated 记录订单创建结果
func (c *Collector) RecordOrderCreated(result string) {
	c.ordersCreatedTotal.WithLabelValues(result).Inc()
}

// RecordCheckoutSession 记录托管支付会话结果
func (c *Collector) RecordCheckoutSession(result string) {
	c.checkoutSessionsTotal.WithLabelValues(result).Inc()
}

// RecordPaymentIntent 记录支付意图结果
func (c *Collector) RecordPaymentIntent(result string) {
	c.paymentIntentsTotal.WithLabelValues(result).Inc()
}

// RecordWebhookEvent 记录 Webhook 处理结果
func (c *Collector) RecordWebhookEvent(result string) {
	c.webhookEventsTotal.WithLabelValues(result).Inc()
}

// RecordRefund 记录退款结果
func (c *Collector) RecordRefund(result string) {
	c.refundsTotal.WithLabelValues(result).Inc()
}
