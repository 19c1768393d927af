package dto

import (
	"github.com/shopspring/decimal"
)

type ProductCreateDTO struct {
	Name                     string          `json:"name"`
	AvailableQuantity        int             `json:"available_quantity"`
	Price                    decimal.Decimal `json:"price"`
	WholesalePrice           decimal.Decimal `json:"wholesale_price"`
	WholesaleMinimumQuantity int             `json:"wholesale_minimum_quantity"`
	IsActive                 *bool           `json:"is_active"`
}

type ProductUpdateDTO struct {
	Name                     *string          `json:"name"`
	AvailableQuantity        *int             `json:"available_quantity"`
	Price                    *decimal.Decimal `json:"price"`
	WholesalePrice           *decimal.Decimal `json:"wholesale_price"`
	WholesaleMinimumQuantity *int             `json:"wholesale_minimum_quantity"`
	IsActive                 *bool            `json:"is_active"`
}
