package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/attribute"
)

const maxNameLength = 100

type IProductService interface {
	CreateProduct(ctx context.Context, input CreateProductInput) (*model.Product, error)
	GetProduct(ctx context.Context, productID int64) (*model.Product, error)
	UpdateProduct(ctx context.Context, productID int64, input UpdateProductInput) (*model.Product, error)
	DeleteProduct(ctx context.Context, productID int64) error
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	StockLevels(ctx context.Context) ([]model.ProductStockLevel, error)
}

type CreateProductInput struct {
	Name                     string
	AvailableQuantity        int
	Price                    decimal.Decimal
	WholesalePrice           decimal.Decimal
	WholesaleMinimumQuantity int
	IsActive                 *bool
}

// UpdateProductInput nil 欄位維持原值, AvailableQuantity 為直接補貨/盤點
type UpdateProductInput struct {
	Name                     *string
	AvailableQuantity        *int
	Price                    *decimal.Decimal
	WholesalePrice           *decimal.Decimal
	WholesaleMinimumQuantity *int
	IsActive                 *bool
}

type ProductService struct {
	store db.UnifiedDB
	opts  options
}

func NewProductService(store db.UnifiedDB, opts ...Option) *ProductService {
	return &ProductService{store: store, opts: newOptions(opts...)}
}

func validateName(field, name string) error {
	n := utf8.RuneCountInString(strings.TrimSpace(name))
	if n == 0 {
		return newValidationError(field, "cannot be empty")
	}
	if n > maxNameLength {
		return newValidationError(field, fmt.Sprintf("must be at most %d characters", maxNameLength))
	}
	return nil
}

func validateMoney(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return newValidationError(field, "cannot be negative")
	}
	if !d.Equal(d.Truncate(2)) {
		return newValidationError(field, "must have at most 2 decimal places")
	}
	if d.GreaterThan(model.MaxMoney) {
		return newValidationError(field, "must be at most "+model.MaxMoney.StringFixed(2))
	}
	return nil
}

func validateNonNegative(field string, n int) error {
	if n < 0 {
		return newValidationError(field, "cannot be negative")
	}
	return nil
}

func (s *ProductService) CreateProduct(ctx context.Context, input CreateProductInput) (product *model.Product, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "ProductService.CreateProduct")
	defer func() { endSpan(span, err) }()

	if err := errors.Join(
		validateName("name", input.Name),
		validateNonNegative("available_quantity", input.AvailableQuantity),
		validateMoney("price", input.Price),
		validateMoney("wholesale_price", input.WholesalePrice),
		validateNonNegative("wholesale_minimum_quantity", input.WholesaleMinimumQuantity),
	); err != nil {
		return nil, firstValidationError(err)
	}

	product = &model.Product{
		Name:                     strings.TrimSpace(input.Name),
		AvailableQuantity:        input.AvailableQuantity,
		Price:                    input.Price,
		WholesalePrice:           input.WholesalePrice,
		WholesaleMinimumQuantity: input.WholesaleMinimumQuantity,
		IsActive:                 true,
	}
	if input.IsActive != nil {
		product.IsActive = *input.IsActive
	}

	if err := s.store.CreateProduct(ctx, product); err != nil {
		return nil, mapNotFound(err, ErrProductNotFound)
	}
	span.SetAttributes(attribute.Int64("product.id", product.ProductID))
	s.opts.logger.Info().Int64("product_id", product.ProductID).Str("name", product.Name).Msg("product created")
	return product, nil
}

func (s *ProductService) GetProduct(ctx context.Context, productID int64) (product *model.Product, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "ProductService.GetProduct")
	span.SetAttributes(attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	product, err = s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, mapNotFound(err, ErrProductNotFound)
	}
	return product, nil
}

func (s *ProductService) UpdateProduct(ctx context.Context, productID int64, input UpdateProductInput) (product *model.Product, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "ProductService.UpdateProduct")
	span.SetAttributes(attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	var checks []error
	if input.Name != nil {
		checks = append(checks, validateName("name", *input.Name))
	}
	if input.AvailableQuantity != nil {
		checks = append(checks, validateNonNegative("available_quantity", *input.AvailableQuantity))
	}
	if input.Price != nil {
		checks = append(checks, validateMoney("price", *input.Price))
	}
	if input.WholesalePrice != nil {
		checks = append(checks, validateMoney("wholesale_price", *input.WholesalePrice))
	}
	if input.WholesaleMinimumQuantity != nil {
		checks = append(checks, validateNonNegative("wholesale_minimum_quantity", *input.WholesaleMinimumQuantity))
	}
	if err := errors.Join(checks...); err != nil {
		return nil, firstValidationError(err)
	}

	err = stockTx(ctx, s.store, s.opts, "UpdateProduct", func(tx db.UnifiedDB) error {
		current, err := tx.GetProductByID(ctx, productID)
		if err != nil {
			return mapNotFound(err, ErrProductNotFound)
		}
		if input.Name != nil {
			current.Name = strings.TrimSpace(*input.Name)
		}
		if input.AvailableQuantity != nil {
			current.AvailableQuantity = *input.AvailableQuantity
		}
		if input.Price != nil {
			current.Price = *input.Price
		}
		if input.WholesalePrice != nil {
			current.WholesalePrice = *input.WholesalePrice
		}
		if input.WholesaleMinimumQuantity != nil {
			current.WholesaleMinimumQuantity = *input.WholesaleMinimumQuantity
		}
		if input.IsActive != nil {
			current.IsActive = *input.IsActive
		}
		if err := tx.SaveProduct(ctx, current); err != nil {
			return mapNotFound(err, ErrProductNotFound)
		}
		product = current
		return nil
	})
	if err != nil {
		return nil, err
	}
	return product, nil
}

// DeleteProduct 仍有訂單明細參照時拒絕刪除
func (s *ProductService) DeleteProduct(ctx context.Context, productID int64) (err error) {
	ctx, span := s.opts.tracer.Start(ctx, "ProductService.DeleteProduct")
	span.SetAttributes(attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	err = s.store.ExecTx(ctx, func(tx db.UnifiedDB) error {
		if _, err := tx.GetProductByID(ctx, productID); err != nil {
			return mapNotFound(err, ErrProductNotFound)
		}
		count, err := tx.CountLinesByProduct(ctx, productID)
		if err != nil {
			return fmt.Errorf("count lines: %w", err)
		}
		if count > 0 {
			return ErrProductHasOpenLines
		}
		if err := tx.DeleteProduct(ctx, productID); err != nil {
			if errors.Is(err, db.ErrForeignKeyViolation) {
				return ErrProductHasOpenLines
			}
			return mapNotFound(err, ErrProductNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}
	s.opts.logger.Info().Int64("product_id", productID).Msg("product deleted")
	return nil
}

func (s *ProductService) ListProducts(ctx context.Context, filter model.ProductFilter) (products []model.Product, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "ProductService.ListProducts")
	defer func() { endSpan(span, err) }()

	filter = filter.WithDefaults()
	if !filter.SortField.Valid() {
		return nil, newValidationError("sort", "must be one of name, price, available_quantity")
	}
	if !filter.SortDir.Valid() {
		return nil, newValidationError("order", "must be asc or desc")
	}
	span.SetAttributes(
		attribute.String("product.search", filter.Search),
		attribute.String("product.sort", string(filter.SortField)),
	)

	products, err = s.store.ListProducts(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

// StockLevels 各商品 可用 / 已佔用 / 總量, 對帳用
func (s *ProductService) StockLevels(ctx context.Context) (levels []model.ProductStockLevel, err error) {
	ctx, span := s.opts.tracer.Start(ctx, "ProductService.StockLevels")
	defer func() { endSpan(span, err) }()

	err = s.store.ExecTx(ctx, func(tx db.UnifiedDB) error {
		products, err := tx.ListProducts(ctx, model.ProductFilter{}.WithDefaults())
		if err != nil {
			return fmt.Errorf("list products: %w", err)
		}
		allocated, err := tx.GetAllocatedQuantities(ctx)
		if err != nil {
			return fmt.Errorf("allocated quantities: %w", err)
		}
		levels = make([]model.ProductStockLevel, 0, len(products))
		for _, p := range products {
			a := allocated[p.ProductID]
			levels = append(levels, model.ProductStockLevel{
				ProductID: p.ProductID,
				Name:      p.Name,
				Available: p.AvailableQuantity,
				Allocated: a,
				Total:     p.AvailableQuantity + a,
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return levels, nil
}

// firstValidationError errors.Join 後只回傳第一個欄位錯誤
func firstValidationError(err error) error {
	var validationErr *ValidationError
	if errors.As(err, &validationErr) {
		return validationErr
	}
	return err
}

var _ IProductService = (*ProductService)(nil)
