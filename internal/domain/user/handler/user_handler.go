package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"digistore/internal/domain/user/repository"
	"digistore/internal/pkg/middleware"
	"digistore/pkg/response"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

type UserHandler struct {
	repo repository.UserRepository
}

func NewUserHandler(repo repository.UserRepository) *UserHandler {
	return &UserHandler{repo: repo}
}

type UpdateProfileInput struct {
	Name           string          `json:"name"`
	BillingAddress json.RawMessage `json:"billingAddress"`
}

// GetMe 获取当前用户资料
// @Summary 获取当前用户资料
// @Tags User
// @Produce json
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [get]
func (h *UserHandler) GetMe(c *gin.Context) {
	userID := middleware.GetUserID(c)
	user, err := h.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, user)
}

// UpdateMe 更新当前用户资料
// @Summary 更新当前用户资料
// @Tags User
// @Accept json
// @Produce json
// @Param input body UpdateProfileInput true "Profile"
// @Success 200 {object} response.Response{data=model.User}
// @Router /users/me [put]
func (h *UserHandler) UpdateMe(c *gin.Context) {
	var input UpdateProfileInput
	if err := c.ShouldBindJSON(&input); err != nil {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, err.Error())
		return
	}

	userID := middleware.GetUserID(c)
	user, err := h.repo.GetByID(userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			response.Error(c, http.StatusNotFound, response.ErrUserNotFound, "User not found")
			return
		}
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if len(input.BillingAddress) > 0 {
		user.BillingAddress = input.BillingAddress
	}
	if err := h.repo.Update(user); err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, user)
}
