package middleware

import (
	"digistore/pkg/metrics"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// MetricsMiddleware Prometheus HTTP 指标中间件
func MetricsMiddleware() gin.HandlerFunc {
	collector := metrics.Default()
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		// 使用路由模板作为 endpoint，避免 /orders/:id 产生高基数标签
		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		collector.RecordHTTPRequest(
			c.Request.Method,
			endpoint,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
		)
	}
}
