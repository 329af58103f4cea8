package handler

import (
	"net/http"

	"digistore/internal/domain/audit/repository"
	"digistore/pkg/response"

	"github.com/gin-gonic/gin"
)

type AuditHandler struct {
	repo repository.AuditRepository
}

func NewAuditHandler(repo repository.AuditRepository) *AuditHandler {
	return &AuditHandler{repo: repo}
}

// ListByResource 查询某资源的审计轨迹 (管理员)
// @Summary 查询资源审计日志
// @Tags Audit
// @Produce json
// @Param type query string true "Resource type"
// @Param id query string true "Resource ID"
// @Success 200 {object} response.Response
// @Router /admin/audit-logs [get]
func (h *AuditHandler) ListByResource(c *gin.Context) {
	resourceType := c.Query("type")
	resourceID := c.Query("id")
	if resourceType == "" || resourceID == "" {
		response.Error(c, http.StatusBadRequest, response.ErrInvalidParam, "type and id are required")
		return
	}

	logs, err := h.repo.ListByResource(resourceType, resourceID)
	if err != nil {
		response.Error(c, http.StatusInternalServerError, response.ErrServerInternal, err.Error())
		return
	}
	response.Success(c, logs)
}
