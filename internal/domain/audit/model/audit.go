package model

import (
	"encoding/json"
	"time"
)

// AuditLog 审计日志，只追加，不更新不删除
type AuditLog struct {
	ID           string          `gorm:"primaryKey;type:uuid;default:gen_random_uuid()" json:"id"`
	UserID       string          `gorm:"type:uuid;index" json:"userId"`
	Action       string          `gorm:"not null" json:"action"`
	ResourceType string          `gorm:"not null;index:idx_audit_resource" json:"resourceType"`
	ResourceID   string          `gorm:"index:idx_audit_resource" json:"resourceId"`
	Metadata     json.RawMessage `gorm:"type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time       `json:"createdAt"`
}
