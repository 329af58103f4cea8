package service

import (
	"errors"

	"digistore/internal/domain/catalog/model"
	"digistore/internal/domain/catalog/repository"
)

// 购买资格校验错误，由调用方（订单模块）映射为对外的业务错误
var (
	ErrNotForSale = errors.New("product is not available for purchase")
	// ErrAlreadyOwned 已拥有该商品
	ErrAlreadyOwned = errors.New("you already own this product")
	// ErrBundleOwned 已拥有包含此单包的套装
	ErrBundleOwned = errors.New("you already own a bundle containing this product")
	// ErrAllPackagesOwned 已拥有套装的全部单包
	ErrAllPackagesOwned = errors.New("you already own all products in this bundle")
)

// CatalogService 商品目录服务接口
type CatalogService interface {
	GetProduct(id string) (*model.Product, error)
	GetProductBySlug(slug string) (*model.Product, error)
	ListProducts() ([]model.Product, error)
	HasAccess(userID, productID string) (bool, error)
	// CheckPurchasable 校验商品可购买性及套装/单包互斥规则
	CheckPurchasable(userID string, product *model.Product) error
	// GrantAccess 支付成功后授予商品权益（套装会展开为各单包）
	GrantAccess(userID, productID, orderID string) error
}

type catalogService struct {
	repo repository.ProductRepository
}

func NewCatalogService(repo repository.ProductRepository) CatalogService {
	return &catalogService{repo: repo}
}

func (s *catalogService) GetProduct(id string) (*model.Product, error) {
	return s.repo.GetByID(id)
}

func (s *catalogService) GetProductBySlug(slug string) (*model.Product, error) {
	return s.repo.GetBySlug(slug)
}

func (s *catalogService) ListProducts() ([]model.Product, error) {
	return s.repo.ListActive()
}

func (s *catalogService) HasAccess(userID, productID string) (bool, error) {
	return s.repo.HasAccess(userID, productID)
}

// CheckPurchasable 校验互斥规则：
// 1. 商品必须处于可售状态
// 2. 已拥有的商品不能重复购买
// 3. 单包：若已拥有包含它的套装，则不能单独购买
// 4. 套装：若其全部单包均已拥有，则不能购买
func (s *catalogService) CheckPurchasable(userID string, product *model.Product) error {
	if !product.IsOrderable() {
		return ErrNotForSale
	}

	owned, err := s.repo.HasAccess(userID, product.ID)
	if err != nil {
		return err
	}
	if owned {
		return ErrAlreadyOwned
	}

	switch product.Type {
	case model.TypePackage:
		bundles, err := s.repo.GetBundlesContaining(product.ID)
		if err != nil {
			return err
		}
		for _, b := range bundles {
			owned, err := s.repo.HasAccess(userID, b.ID)
			if err != nil {
				return err
			}
			if owned {
				return ErrBundleOwned
			}
		}
	case model.TypeBundle:
		items, err := s.repo.GetBundleProducts(product.ID)
		if err != nil {
			return err
		}
		if len(items) == 0 {
			return nil
		}
		ownedAll := true
		for _, item := range items {
			owned, err := s.repo.HasAccess(userID, item.ID)
			if err != nil {
				return err
			}
			if !owned {
				ownedAll = false
				break
			}
		}
		if ownedAll {
			return ErrAllPackagesOwned
		}
	}

	return nil
}

func (s *catalogService) GrantAccess(userID, productID, orderID string) error {
	product, err := s.repo.GetByID(productID)
	if err != nil {
		return err
	}

	if err := s.repo.GrantAccess(userID, productID, orderID); err != nil {
		return err
	}

	// 套装展开：为每个尚未拥有的单包授予权益
	if product.Type == model.TypeBundle {
		items, err := s.repo.GetBundleProducts(productID)
		if err != nil {
			return err
		}
		for _, item := range items {
			owned, err := s.repo.HasAccess(userID, item.ID)
			if err != nil {
				return err
			}
			if !owned {
				if err := s.repo.GrantAccess(userID, item.ID, orderID); err != nil {
					return err
				}
			}
		}
	}

	return nil
}
