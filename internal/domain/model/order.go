package model

import (
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "new"
	OrderStatusConfirmed OrderStatus = "confirmed"
	OrderStatusDelivered OrderStatus = "delivered"
)

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusNew, OrderStatusConfirmed, OrderStatusDelivered:
		return true
	}
	return false
}

// MaxMoney decimal(10,2) 欄位可存的最大金額
var MaxMoney = decimal.RequireFromString("99999999.99")

var (
	ErrLineQuantityNotPositive = errors.New("order line quantity must be greater than 0")
	ErrLinePriceNegative       = errors.New("order line price cannot be negative")
	ErrLinePriceTooLarge       = errors.New("order line price exceeds 99999999.99")
)

// Order 刪除訂單時, 明細由資料庫級聯刪除
type Order struct {
	OrderID         int64          `gorm:"primaryKey;autoIncrement" json:"order_id"`
	Date            time.Time      `gorm:"not null;type:date" json:"date"`
	Status          OrderStatus    `gorm:"not null;type:varchar(16)" json:"status"`
	EstablishmentID int64          `gorm:"not null;index" json:"establishment_id"`
	Establishment   *Establishment `gorm:"foreignKey:EstablishmentID;constraint:OnDelete:CASCADE" json:"establishment,omitempty"`
	Lines           []OrderLine    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE" json:"lines"`
	BaseModel
}

// OrderLine 一張訂單同一商品只會有一筆明細
// Price 為整筆明細總價, 非單價
type OrderLine struct {
	OrderID   int64           `gorm:"primaryKey;autoIncrement:false" json:"order_id"`
	ProductID int64           `gorm:"primaryKey;autoIncrement:false;index" json:"product_id"`
	Quantity  int             `gorm:"not null;check:chk_order_lines_quantity,quantity > 0" json:"quantity"`
	Price     decimal.Decimal `gorm:"not null;type:decimal(10,2);check:chk_order_lines_price,price >= 0" json:"price"`
	Product   *Product        `gorm:"foreignKey:ProductID;constraint:OnDelete:RESTRICT" json:"product,omitempty"`
	BaseModel
}

func (l *OrderLine) BeforeSave(tx *gorm.DB) error {
	if l.Quantity <= 0 {
		return ErrLineQuantityNotPositive
	}
	if l.Price.IsNegative() {
		return ErrLinePriceNegative
	}
	if l.Price.GreaterThan(MaxMoney) {
		return ErrLinePriceTooLarge
	}
	return nil
}

// Today 訂單日期只保留到日
func Today(now time.Time) time.Time {
	y, m, d := now.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, now.Location())
}
