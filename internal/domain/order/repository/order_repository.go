package repository

import (
	"digistore/internal/domain/order/model"

	"gorm.io/gorm"
)

type OrderRepository interface {
	// CreateWithItems 原子创建订单及其订单项
	CreateWithItems(order *model.Order) error
	GetByID(id string) (*model.Order, error)
	GetByIDWithItems(id string) (*model.Order, error)
	// GetByPaymentRef 按支付引用（托管会话ID或支付意图ID）查找订单
	GetByPaymentRef(ref string) (*model.Order, error)
	// GetMostRecentPendingForUser 获取用户最近的 pending 订单（含订单项）
	GetMostRecentPendingForUser(userID string) (*model.Order, error)
	ListByUser(userID string, offset, limit int) ([]model.Order, int64, error)
	// TransitionStatus 条件更新状态：转移校验发生在写入时刻，
	// 以当前存储的状态为准，绝不依赖内存中的旧快照
	TransitionStatus(orderID string, to model.Status, extra map[string]interface{}) error
	// UpdatePaymentInfo 更新支付关联字段
	UpdatePaymentInfo(orderID string, fields map[string]interface{}) error
}

type orderRepository struct {
	db *gorm.DB
}

func NewOrderRepository(db *gorm.DB) OrderRepository {
	return &orderRepository{db: db}
}

func (r *orderRepository) CreateWithItems(order *model.Order) error {
	// gorm 的关联创建在单个事务内写入 orders 和 order_items
	return r.db.Create(order).Error
}

func (r *orderRepository) GetByID(id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByIDWithItems(id string) (*model.Order, error) {
	var order model.Order
	if err := r.db.Preload("Items").Where("id = ?", id).First(&order).Error; err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetByPaymentRef(ref string) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Items").
		Where("stripe_checkout_session_id = ? OR stripe_payment_intent_id = ?", ref, ref).
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) GetMostRecentPendingForUser(userID string) (*model.Order, error) {
	var order model.Order
	err := r.db.Preload("Items").
		Where("user_id = ? AND status = ?", userID, model.StatusPending).
		Order("created_at DESC").
		First(&order).Error
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (r *orderRepository) ListByUser(userID string, offset, limit int) ([]model.Order, int64, error) {
	var orders []model.Order
	var total int64

	if err := r.db.Model(&model.Order{}).Where("user_id = ?", userID).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	err := r.db.Preload("Items").
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Offset(offset).Limit(limit).
		Find(&orders).Error
	if err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

func (r *orderRepository) TransitionStatus(orderID string, to model.Status, extra map[string]interface{}) error {
	updates := map[string]interface{}{"status": to}
	for k, v := range extra {
		updates[k] = v
	}

	// 同状态转移是合法的 no-op，所以目标状态本身也在允许的前置集合内
	allowed := append(model.ValidPriors(to), to)

	result := r.db.Model(&model.Order{}).
		Where("id = ? AND status IN ?", orderID, allowed).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}

	if result.RowsAffected == 0 {
		// 用当前存储的状态构造精确的错误（订单不存在时原样返回 NotFound）
		current, err := r.GetByID(orderID)
		if err != nil {
			return err
		}
		return &model.InvalidTransitionError{From: current.Status, To: to}
	}
	return nil
}

func (r *orderRepository) UpdatePaymentInfo(orderID string, fields map[string]interface{}) error {
	return r.db.Model(&model.Order{}).Where("id = ?", orderID).Updates(fields).Error
}
