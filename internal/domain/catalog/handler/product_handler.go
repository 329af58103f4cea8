package handler

import (
	"errors"
	"net/http"

	"digistore/internal/domain/catalog/service"
	"digistore/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type ProductHandler struct {
	service service.CatalogService
}

func NewProductHandler(s service.CatalogService) *ProductHandler {
	return &ProductHandler{service: s}
}

// ListProducts 商品列表
// @Summary 商品列表
// @Tags Catalog
// @Produce json
// @Success 200 {object} response.Response{data=[]model.Product}
// @Router /products [get]
func (h *ProductHandler) ListProducts(c *gin.Context) {
	products, err := h.service.ListProducts()
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, products)
}

// GetProduct 商品详情
// @Summary 商品详情
// @Tags Catalog
// @Produce json
// @Param slug path string true "Product Slug"
// @Success 200 {object} response.Response{data=model.Product}
// @Router /products/{slug} [get]
func (h *ProductHandler) GetProduct(c *gin.Context) {
	slug := c.Param("slug")
	product, err := h.service.GetProductBySlug(slug)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrProductNotFound, "Product not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, product)
}
