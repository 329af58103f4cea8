package repository

import (
	"digistore/internal/domain/audit/model"

	"gorm.io/gorm"
)

type AuditRepository interface {
	Create(entry *model.AuditLog) error
	ListByResource(resourceType, resourceID string) ([]model.AuditLog, error)
}

type auditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) AuditRepository {
	return &auditRepository{db: db}
}

func (r *auditRepository) Create(entry *model.AuditLog) error {
	return r.db.Create(entry).Error
}

func (r *auditRepository) ListByResource(resourceType, resourceID string) ([]model.AuditLog, error) {
	var entries []model.AuditLog
	err := r.db.
		Where("resource_type = ? AND resource_id = ?", resourceType, resourceID).
		Order("created_at").
		Find(&entries).Error
	if err != nil {
		return nil, err
	}
	return entries, nil
}
