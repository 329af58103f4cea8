package model

import (
	"encoding/json"

	baseModel "digistore/pkg/model"
)

// User 账户模型
// 认证与会话管理由外部系统负责，这里只承载 JWT 身份对应的账户资料，
// 以及下单时快照到订单上的客户信息
type User struct {
	baseModel.BaseModel
	Email string `gorm:"uniqueIndex;not null" json:"email"`
	Name  string `json:"name"`
	// BillingAddress 账单地址，下单时原样快照到订单
	BillingAddress json.RawMessage `gorm:"type:jsonb" json:"billingAddress,omitempty"`
	Role           int             `gorm:"default:1" json:"role"`
	Status         int             `gorm:"default:1" json:"status"`
}

const (
	RoleUser  = 1
	RoleAdmin = 2

	StatusNormal  = 1
	StatusDeleted = 3
)
