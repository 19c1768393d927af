package model

import (
	"errors"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var ErrNegativeStock = errors.New("available quantity cannot be negative")

// Product 商品目錄
// AvailableQuantity 為尚未被任何訂單明細佔用的數量
// Version 用於樂觀鎖, 每次成功寫入後 +1
type Product struct {
	ProductID                int64           `gorm:"primaryKey;autoIncrement" json:"product_id"`
	Name                     string          `gorm:"not null;unique;type:varchar(100)" json:"name"`
	AvailableQuantity        int             `gorm:"not null;check:chk_products_available_quantity,available_quantity >= 0" json:"available_quantity"`
	Price                    decimal.Decimal `gorm:"not null;type:decimal(10,2);check:chk_products_price,price >= 0" json:"price"`
	WholesalePrice           decimal.Decimal `gorm:"not null;type:decimal(10,2);check:chk_products_wholesale_price,wholesale_price >= 0" json:"wholesale_price"`
	WholesaleMinimumQuantity int             `gorm:"not null;check:chk_products_wholesale_minimum_quantity,wholesale_minimum_quantity >= 0" json:"wholesale_minimum_quantity"`
	IsActive                 bool            `gorm:"not null" json:"is_active"`
	Version                  int64           `gorm:"not null" json:"-"`
	BaseModel
}

func (p *Product) BeforeSave(tx *gorm.DB) error {
	if p.AvailableQuantity < 0 {
		return ErrNegativeStock
	}
	return nil
}

type ProductSortField string

const (
	ProductSortByName              ProductSortField = "name"
	ProductSortByPrice             ProductSortField = "price"
	ProductSortByAvailableQuantity ProductSortField = "available_quantity"
)

func (f ProductSortField) Valid() bool {
	switch f {
	case ProductSortByName, ProductSortByPrice, ProductSortByAvailableQuantity:
		return true
	}
	return false
}

type SortDirection string

const (
	SortAsc  SortDirection = "asc"
	SortDesc SortDirection = "desc"
)

func (d SortDirection) Valid() bool {
	return d == SortAsc || d == SortDesc
}

// ProductFilter 商品列表查詢條件, 空值代表預設(name asc)
type ProductFilter struct {
	Search    string
	SortField ProductSortField
	SortDir   SortDirection
}

func (f ProductFilter) WithDefaults() ProductFilter {
	if f.SortField == "" {
		f.SortField = ProductSortByName
	}
	if f.SortDir == "" {
		f.SortDir = SortAsc
	}
	return f
}

// ProductStockLevel 對帳用: Available + Allocated == Total
type ProductStockLevel struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Available int    `json:"available"`
	Allocated int    `json:"allocated"`
	Total     int    `json:"total"`
}
