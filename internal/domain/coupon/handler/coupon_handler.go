package handler

import (
	"net/http"

	catalogService "digistore/internal/domain/catalog/service"
	"digistore/internal/domain/coupon/model"
	"digistore/internal/domain/coupon/service"
	"digistore/pkg/response"

	"github.com/gin-gonic/gin"
)

type CouponHandler struct {
	service service.CouponService
	catalog catalogService.CatalogService
}

func NewCouponHandler(s service.CouponService, catalog catalogService.CatalogService) *CouponHandler {
	return &CouponHandler{service: s, catalog: catalog}
}

type ValidateCouponInput struct {
	Code       string   `json:"code" binding:"required"`
	ProductIDs []string `json:"productIds" binding:"required,min=1"`
}

// ValidateCoupon 校验优惠券
// @Summary 校验优惠券
// @Tags Coupon
// @Accept json
// @Produce json
// @Param input body ValidateCouponInput true "Coupon"
// @Success 200 {object} response.Response{data=service.ValidationResult}
// @Router /coupons/validate [post]
func (h *CouponHandler) ValidateCoupon(c *gin.Context) {
	var input ValidateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	// 小计以服务端商品价格为准，不信任客户端缓存的金额
	var subtotal float64
	for _, id := range input.ProductIDs {
		product, err := h.catalog.GetProduct(id)
		if err != nil {
			response.Error(c, http.StatusNotFound, response.ErrProductNotFound, "Product not found")
			return
		}
		subtotal += product.Price
	}

	result, err := h.service.Validate(input.Code, subtotal, input.ProductIDs)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, result)
}

type CreateCouponInput struct {
	Code            string   `json:"code" binding:"required"`
	Type            string   `json:"type" binding:"required,oneof=percentage fixed_amount"`
	Value           float64  `json:"value" binding:"required,gt=0"`
	MinimumPurchase float64  `json:"minimumPurchase" binding:"gte=0"`
	MaximumDiscount float64  `json:"maximumDiscount" binding:"gte=0"`
	AppliesTo       []string `json:"appliesTo"`
}

// CreateCoupon 创建优惠券 (管理员)
// @Summary 创建优惠券
// @Tags Coupon
// @Accept json
// @Produce json
// @Param input body CreateCouponInput true "Coupon"
// @Success 201 {object} response.Response{data=model.Coupon}
// @Router /admin/coupons [post]
func (h *CouponHandler) CreateCoupon(c *gin.Context) {
	var input CreateCouponInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	coupon := &model.Coupon{
		Code:            input.Code,
		Type:            input.Type,
		Value:           input.Value,
		MinimumPurchase: input.MinimumPurchase,
		MaximumDiscount: input.MaximumDiscount,
		Active:          true,
	}
	if len(input.AppliesTo) > 0 {
		coupon.AppliesTo = mustJSON(input.AppliesTo)
	}

	if err := h.service.Create(coupon); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrCouponInvalid, err.Error())
		return
	}
	response.Created(c, coupon)
}

// DeactivateCoupon 停用优惠券 (管理员)
// @Summary 停用优惠券
// @Tags Coupon
// @Produce json
// @Param id path string true "Coupon ID"
// @Success 200 {object} response.Response
// @Router /admin/coupons/{id} [delete]
func (h *CouponHandler) DeactivateCoupon(c *gin.Context) {
	if err := h.service.Deactivate(c.Param("id")); err != nil {
		response.Error(c, http.StatusNotFound, response.ErrCouponNotFound, "Coupon not found")
		return
	}
	response.Success(c, nil)
}

// ListCoupons 优惠券列表 (管理员)
// @Summary 优惠券列表
// @Tags Coupon
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Coupon}
// @Router /admin/coupons [get]
func (h *CouponHandler) ListCoupons(c *gin.Context) {
	page := queryInt(c, "page", 1)
	limit := queryInt(c, "limit", 20)

	coupons, total, err := h.service.List(page, limit)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, gin.H{"items": coupons, "total": total})
}
