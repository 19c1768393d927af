package service

import (
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
)

// Reserve 佔用庫存, 回傳扣除後的商品副本, 原物件不會被修改
// 錯誤:
//   - *ValidationError: quantity <= 0
//   - *InsufficientStockError: quantity 超過可用庫存
func Reserve(p model.Product, quantity int) (model.Product, error) {
	if quantity <= 0 {
		return p, newValidationError("quantity", "must be greater than 0")
	}
	if quantity > p.AvailableQuantity {
		return p, &InsufficientStockError{Available: p.AvailableQuantity}
	}
	p.AvailableQuantity -= quantity
	return p, nil
}

// Release 歸還庫存, 回傳加回後的商品副本
func Release(p model.Product, quantity int) (model.Product, error) {
	if quantity < 0 {
		return p, newValidationError("quantity", "cannot be negative")
	}
	p.AvailableQuantity += quantity
	return p, nil
}

// Adjust 依明細數量變化調整庫存, oldQuantity 必須是同一交易內讀到的已提交數量
func Adjust(p model.Product, oldQuantity, newQuantity int) (model.Product, error) {
	if oldQuantity < 0 {
		return p, newValidationError("quantity", "cannot be negative")
	}
	if newQuantity <= 0 {
		return p, newValidationError("quantity", "must be greater than 0")
	}

	delta := newQuantity - oldQuantity
	switch {
	case delta > 0:
		return Reserve(p, delta)
	case delta < 0:
		return Release(p, -delta)
	default:
		return p, nil
	}
}
