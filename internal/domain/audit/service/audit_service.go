package service

import (
	"encoding/json"

	"digistore/internal/domain/audit/model"
	"digistore/internal/domain/audit/repository"
	"digistore/pkg/logger"

	"go.uber.org/zap"
)

// AuditService 审计服务
// 审计写入是尽力而为的旁路操作：失败只记日志，绝不影响主流程
type AuditService interface {
	LogAction(userID, action, resourceType, resourceID string, metadata map[string]interface{})
}

type auditService struct {
	repo repository.AuditRepository
}

func NewAuditService(repo repository.AuditRepository) AuditService {
	return &auditService{repo: repo}
}

func (s *auditService) LogAction(userID, action, resourceType, resourceID string, metadata map[string]interface{}) {
	entry := &model.AuditLog{
		UserID:       userID,
		Action:       action,
		ResourceType: resourceType,
		ResourceID:   resourceID,
	}
	if metadata != nil {
		data, err := json.Marshal(metadata)
		if err == nil {
			entry.Metadata = data
		}
	}

	if err := s.repo.Create(entry); err != nil {
		logger.Log.Error("Failed to write audit log",
			zap.String("action", action),
			zap.String("resource_type", resourceType),
			zap.String("resource_id", resourceID),
			zap.Error(err),
		)
	}
}
