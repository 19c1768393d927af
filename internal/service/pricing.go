package service

import (
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/shopspring/decimal"
)

// LinePrice 計算整筆明細總價
// quantity >= WholesaleMinimumQuantity 時使用批發價, WholesaleMinimumQuantity 為 0 代表一律批發價
// 結果四捨五入到小數第二位
func LinePrice(p *model.Product, quantity int) decimal.Decimal {
	unit := p.Price
	if quantity >= p.WholesaleMinimumQuantity {
		unit = p.WholesalePrice
	}
	return unit.Mul(decimal.NewFromInt(int64(quantity))).Round(2)
}

// validateLinePrice 明細總價不可超過金額欄位上限
func validateLinePrice(p *model.Product, quantity int) error {
	if LinePrice(p, quantity).GreaterThan(model.MaxMoney) {
		return newValidationError("quantity", "line price exceeds "+model.MaxMoney.StringFixed(2))
	}
	return nil
}
