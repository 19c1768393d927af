package db

import (
	"context"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type OrderRepo struct {
	db *DbDao
}

func NewOrderRepo(db *DbDao) *OrderRepo {
	return &OrderRepo{db: db}
}

func preloadLines(db *gorm.DB) *gorm.DB {
	return db.Order("order_lines.product_id")
}

func (s *OrderRepo) withRelations(ctx context.Context) *gorm.DB {
	return s.db.WithContext(ctx).
		Preload("Establishment").
		Preload("Lines", preloadLines).
		Preload("Lines.Product")
}

// Read - 根據ID查詢訂單, 含明細, 明細商品與店家
func (s *OrderRepo) GetOrderWithLines(ctx context.Context, orderID int64) (*model.Order, error) {
	var order model.Order
	err := s.withRelations(ctx).First(&order, "order_id = ?", orderID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &order, nil
}

// Read - 查詢所有訂單
func (s *OrderRepo) ListOrders(ctx context.Context, sortByDateDesc bool) ([]model.Order, error) {
	orderBy := "date ASC, order_id ASC"
	if sortByDateDesc {
		orderBy = "date DESC, order_id DESC"
	}

	var orders []model.Order
	err := s.withRelations(ctx).Order(orderBy).Find(&orders).Error
	if err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}

// Read - 根據店家查詢訂單
func (s *OrderRepo) ListOrdersByEstablishment(ctx context.Context, establishmentID int64) ([]model.Order, error) {
	var orders []model.Order
	err := s.db.WithContext(ctx).
		Preload("Lines", preloadLines).
		Where("establishment_id = ?", establishmentID).
		Order("order_id").
		Find(&orders).Error
	if err != nil {
		return nil, translateError(err)
	}
	return orders, nil
}

// Create/Update - 儲存訂單本身, 不連動明細
func (s *OrderRepo) SaveOrder(ctx context.Context, order *model.Order) error {
	return translateError(s.db.WithContext(ctx).Omit(clause.Associations).Save(order).Error)
}

// Delete - 硬刪除訂單, 明細由外鍵級聯刪除
func (s *OrderRepo) DeleteOrder(ctx context.Context, order *model.Order) error {
	result := s.db.WithContext(ctx).Delete(&model.Order{}, "order_id = ?", order.OrderID)
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// 取得單筆訂單明細
func (s *OrderRepo) GetLine(ctx context.Context, orderID, productID int64) (*model.OrderLine, error) {
	var line model.OrderLine
	err := s.db.WithContext(ctx).
		First(&line, "order_id = ? AND product_id = ?", orderID, productID).Error
	if err != nil {
		return nil, translateError(err)
	}
	return &line, nil
}

// 新增或更新訂單明細
func (s *OrderRepo) SaveLine(ctx context.Context, line *model.OrderLine) error {
	return translateError(s.db.WithContext(ctx).Omit(clause.Associations).Save(line).Error)
}

// 刪除訂單明細
func (s *OrderRepo) DeleteLine(ctx context.Context, line *model.OrderLine) error {
	result := s.db.WithContext(ctx).
		Where("order_id = ? AND product_id = ?", line.OrderID, line.ProductID).
		Delete(&model.OrderLine{})
	if result.Error != nil {
		return translateError(result.Error)
	}
	if result.RowsAffected == 0 {
		return ErrRecordNotFound
	}
	return nil
}

// 商品目前被幾筆明細引用
func (s *OrderRepo) CountLinesByProduct(ctx context.Context, productID int64) (int64, error) {
	var count int64
	err := s.db.WithContext(ctx).Model(&model.OrderLine{}).
		Where("product_id = ?", productID).
		Count(&count).Error
	return count, translateError(err)
}
