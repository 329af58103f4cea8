package repository

import (
	"digistore/internal/domain/catalog/model"

	"gorm.io/gorm"
)

// ProductRepository 接口定义
type ProductRepository interface {
	GetByID(id string) (*model.Product, error)
	GetBySlug(slug string) (*model.Product, error)
	ListActive() ([]model.Product, error)
	// GetBundleProducts 获取套装包含的单包
	GetBundleProducts(bundleID string) ([]model.Product, error)
	// GetBundlesContaining 获取包含指定单包的套装
	GetBundlesContaining(productID string) ([]model.Product, error)
	HasAccess(userID, productID string) (bool, error)
	GrantAccess(userID, productID, orderID string) error
}

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) GetByID(id string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Where("id = ?", id).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) GetBySlug(slug string) (*model.Product, error) {
	var product model.Product
	if err := r.db.Where("slug = ?", slug).First(&product).Error; err != nil {
		return nil, err
	}
	return &product, nil
}

func (r *productRepository) ListActive() ([]model.Product, error) {
	var products []model.Product
	if err := r.db.Where("active = ?", true).Order("created_at").Find(&products).Error; err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetBundleProducts(bundleID string) ([]model.Product, error) {
	var products []model.Product
	err := r.db.
		Joins("JOIN bundle_items ON bundle_items.product_id = products.id").
		Where("bundle_items.bundle_id = ?", bundleID).
		Find(&products).Error
	if err != nil {
		return nil, err
	}
	return products, nil
}

func (r *productRepository) GetBundlesContaining(productID string) ([]model.Product, error) {
	var bundles []model.Product
	err := r.db.
		Joins("JOIN bundle_items ON bundle_items.bundle_id = products.id").
		Where("bundle_items.product_id = ?", productID).
		Find(&bundles).Error
	if err != nil {
		return nil, err
	}
	return bundles, nil
}

func (r *productRepository) HasAccess(userID, productID string) (bool, error) {
	var count int64
	err := r.db.Model(&model.UserProduct{}).
		Where("user_id = ? AND product_id = ?", userID, productID).
		Count(&count).Error
	return count > 0, err
}

func (r *productRepository) GrantAccess(userID, productID, orderID string) error {
	return r.db.Create(&model.UserProduct{
		UserID:    userID,
		ProductID: productID,
		OrderID:   orderID,
	}).Error
}
