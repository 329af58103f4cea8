package response

// 业务状态码
const (
	CodeSuccess = 0
	CodeError   = 1

	// 用户模块错误 100xx
	ErrUserNotFound = 10002
	ErrAuthFailed   = 10003
	ErrTokenInvalid = 10004
	ErrNoPermission = 10005

	// 商品模块错误 150xx
	ErrProductNotFound    = 15001
	ErrProductNotForSale  = 15002
	ErrAlreadyOwned       = 15003
	ErrBundleAlreadyOwned = 15004
	ErrAllPackagesOwned   = 15005

	// 优惠券模块错误 200xx
	ErrCouponNotFound = 20001
	ErrCouponInvalid  = 20002
	ErrCouponExists   = 20003

	// 订单模块错误 300xx
	ErrOrderNotFound      = 30001
	ErrOrderBelowMinimum  = 30002
	ErrInvalidTransition  = 30003
	ErrPriceNotConfigured = 30004
	ErrRefundFailed       = 30005
	ErrPaymentFailed      = 30006

	// 系统错误 500xx
	ErrServerInternal  = 50001
	ErrInvalidParam    = 50002
	ErrTooManyRequests = 50003
)
