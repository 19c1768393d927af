package db

import (
	"context"
	"strings"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"gorm.io/gorm/clause"
)

type ProductDBRepo struct {
	db *DbDao
}

func NewProductDBRepo(db *DbDao) *ProductDBRepo {
	return &ProductDBRepo{db: db}
}

// Create - 創建商品, version 從 1 開始
func (s *ProductDBRepo) CreateProduct(ctx context.Context, product *model.Product) error {
	if product.Version == 0 {
		product.Version = 1
	}
	return translateError(s.db.WithContext(ctx).Create(product).Error)
}

// Read - 根據ID查詢商品
func (s *ProductDBRepo) GetProductByID(ctx context.Context, productID int64) (*model.Product, error) {
	var productFromDB model.Product
	err := s.db.WithContext(ctx).First(&productFromDB, "product_id = ?", productID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &productFromDB, nil
}

// Update - 樂觀鎖更新
// 只有 version 與讀取時相同才會寫入, 同一商品的並發扣庫存因此被序列化
func (s *ProductDBRepo) SaveProduct(ctx context.Context, product *model.Product) error {
	if product.AvailableQuantity < 0 {
		return model.ErrNegativeStock
	}

	now := time.Now()
	result := s.db.WithContext(ctx).Model(&model.Product{}).
		Where("product_id = ? AND version = ?", product.ProductID, product.Version).
		Updates(map[string]interface{}{
			"name":                       product.Name,
			"available_quantity":         product.AvailableQuantity,
			"price":                      product.Price,
			"wholesale_price":            product.WholesalePrice,
			"wholesale_minimum_quantity": product.WholesaleMinimumQuantity,
			"is_active":                  product.IsActive,
			"version":                    product.Version + 1,
			"updated_at":                 now,
		})
	if result.Error != nil {
		return translateError(result.Error)
	}

	if result.RowsAffected == 0 {
		var count int64
		if err := s.db.WithContext(ctx).Model(&model.Product{}).
			Where("product_id = ?", product.ProductID).
			Count(&count).Error; err != nil {
			return translateError(err)
		}
		if count == 0 {
			return ErrRecordNotFound
		}
		return ErrStaleProduct
	}

	product.Version++
	product.UpdatedAt = now
	return nil
}

// Delete - 硬刪除商品, 仍有訂單明細時由外鍵擋下
func (s *ProductDBRepo) DeleteProduct(ctx context.Context, productID int64) error {
	result := s.db.WithContext(ctx).Delete(&model.Product{}, "product_id = ?", productID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// Read - 條件查詢商品列表
// 排序欄位只允許 name, price, available_quantity
func (s *ProductDBRepo) ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error) {
	filter = filter.WithDefaults()
	sortField := model.ProductSortByName
	if filter.SortField.Valid() {
		sortField = filter.SortField
	}

	query := s.db.WithContext(ctx).Model(&model.Product{})
	if search := strings.TrimSpace(filter.Search); search != "" {
		query = query.Where("name ILIKE ?", "%"+search+"%")
	}

	var products []model.Product
	err := query.
		Order(clause.OrderByColumn{Column: clause.Column{Name: string(sortField)}, Desc: filter.SortDir == model.SortDesc}).
		Order("product_id").
		Find(&products).Error
	if err != nil {
		return nil, translateError(err)
	}
	return products, nil
}

// 取得各商品被訂單明細佔用數量
func (s *ProductDBRepo) GetAllocatedQuantities(ctx context.Context) (map[int64]int, error) {
	var rows []struct {
		ProductID int64
		Allocated int
	}
	err := s.db.WithContext(ctx).Model(&model.OrderLine{}).
		Select("product_id, COALESCE(SUM(quantity), 0) AS allocated").
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, translateError(err)
	}

	allocated := make(map[int64]int, len(rows))
	for _, row := range rows {
		allocated[row.ProductID] = row.Allocated
	}
	return allocated, nil
}
