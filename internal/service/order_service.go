package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model/event"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type IOrderService interface {
	GetOrder(ctx context.Context, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context) ([]model.Order, error)
	CreateOrder(ctx context.Context, input CreateOrderInput) (*model.Order, error)
	UpdateOrder(ctx context.Context, orderID int64, input UpdateOrderInput) (*model.Order, error)
	DeleteOrder(ctx context.Context, orderID int64) error

	ListLines(ctx context.Context, orderID int64) ([]model.OrderLine, error)
	GetLine(ctx context.Context, orderID, productID int64) (*model.OrderLine, error)
	AddLine(ctx context.Context, orderID, productID int64, quantity int) (*model.OrderLine, error)
	UpdateLine(ctx context.Context, orderID, productID int64, input UpdateLineInput) (*model.OrderLine, error)
	RemoveLine(ctx context.Context, orderID, productID int64) error
}

// CreateOrderInput Status 預設 new, Date 預設今天
type CreateOrderInput struct {
	EstablishmentID int64
	Status          *model.OrderStatus
	Date            *time.Time
}

// UpdateOrderInput nil 欄位維持原值
type UpdateOrderInput struct {
	EstablishmentID *int64
	Status          *model.OrderStatus
	Date            *time.Time
}

// UpdateLineInput Quantity 為 nil 時不做任何變更
type UpdateLineInput struct {
	Quantity *int
}

// OrderService 訂單與明細的協調者
// 每次明細異動: 讀商品與明細 -> 計算庫存差額 -> 重新計價 -> 先寫庫存再寫明細, 全部在同一個交易內
type OrderService struct {
	store db.UnifiedDB
	opts  options
}

func NewOrderService(store db.UnifiedDB, opts ...Option) *OrderService {
	return &OrderService{store: store, opts: newOptions(opts...)}
}

func (s *OrderService) startSpan(ctx context.Context, name string, attrs ...attribute.KeyValue) (context.Context, trace.Span) {
	return s.opts.tracer.Start(ctx, "OrderService."+name, trace.WithAttributes(attrs...))
}

func (s *OrderService) GetOrder(ctx context.Context, orderID int64) (order *model.Order, err error) {
	ctx, span := s.startSpan(ctx, "GetOrder", attribute.Int64("order.id", orderID))
	defer func() { endSpan(span, err) }()

	order, err = s.store.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, ErrOrderNotFound)
	}
	return order, nil
}

// ListOrders 依日期由新到舊
func (s *OrderService) ListOrders(ctx context.Context) (orders []model.Order, err error) {
	ctx, span := s.startSpan(ctx, "ListOrders")
	defer func() { endSpan(span, err) }()

	orders, err = s.store.ListOrders(ctx, true)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	span.SetAttributes(attribute.Int("order.count", len(orders)))
	return orders, nil
}

func (s *OrderService) CreateOrder(ctx context.Context, input CreateOrderInput) (order *model.Order, err error) {
	ctx, span := s.startSpan(ctx, "CreateOrder", attribute.Int64("establishment.id", input.EstablishmentID))
	defer func() { endSpan(span, err) }()

	order = &model.Order{
		EstablishmentID: input.EstablishmentID,
		Status:          model.OrderStatusNew,
		Date:            model.Today(s.opts.now()),
		Lines:           []model.OrderLine{},
	}
	if input.Status != nil {
		if !input.Status.Valid() {
			return nil, newValidationError("status", "must be one of new, confirmed, delivered")
		}
		order.Status = *input.Status
	}
	if input.Date != nil {
		order.Date = model.Today(*input.Date)
	}

	err = s.store.ExecTx(ctx, func(tx db.UnifiedDB) error {
		if _, err := tx.GetEstablishmentByID(ctx, order.EstablishmentID); err != nil {
			return mapNotFound(err, ErrEstablishmentNotFound)
		}
		if err := tx.SaveOrder(ctx, order); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	span.SetAttributes(attribute.Int64("order.id", order.OrderID))
	s.opts.logger.Info().Int64("order_id", order.OrderID).Int64("establishment_id", order.EstablishmentID).Msg("order created")
	publish(ctx, s.opts, event.NewOrderCreatedEvent(order))
	return order, nil
}

// UpdateOrder 只更新訂單欄位, 不會重新計價或調整庫存
func (s *OrderService) UpdateOrder(ctx context.Context, orderID int64, input UpdateOrderInput) (order *model.Order, err error) {
	ctx, span := s.startSpan(ctx, "UpdateOrder", attribute.Int64("order.id", orderID))
	defer func() { endSpan(span, err) }()

	if input.Status != nil && !input.Status.Valid() {
		return nil, newValidationError("status", "must be one of new, confirmed, delivered")
	}

	err = s.store.ExecTx(ctx, func(tx db.UnifiedDB) error {
		current, err := tx.GetOrderWithLines(ctx, orderID)
		if err != nil {
			return mapNotFound(err, ErrOrderNotFound)
		}
		if input.EstablishmentID != nil {
			if _, err := tx.GetEstablishmentByID(ctx, *input.EstablishmentID); err != nil {
				return mapNotFound(err, ErrEstablishmentNotFound)
			}
			current.EstablishmentID = *input.EstablishmentID
			current.Establishment = nil
		}
		if input.Status != nil {
			current.Status = *input.Status
		}
		if input.Date != nil {
			current.Date = model.Today(*input.Date)
		}
		if err := tx.SaveOrder(ctx, current); err != nil {
			return fmt.Errorf("save order: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	order, err = s.store.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, ErrOrderNotFound)
	}
	publish(ctx, s.opts, event.NewOrderUpdatedEvent(order))
	return order, nil
}

// DeleteOrder 逐筆歸還明細庫存後刪除訂單, 明細由 cascade 刪除
func (s *OrderService) DeleteOrder(ctx context.Context, orderID int64) (err error) {
	ctx, span := s.startSpan(ctx, "DeleteOrder", attribute.Int64("order.id", orderID))
	defer func() { endSpan(span, err) }()

	var released []event.StockLevel
	err = stockTx(ctx, s.store, s.opts, "DeleteOrder", func(tx db.UnifiedDB) error {
		order, err := tx.GetOrderWithLines(ctx, orderID)
		if err != nil {
			return mapNotFound(err, ErrOrderNotFound)
		}
		released, err = releaseLines(ctx, tx, order.Lines)
		if err != nil {
			return err
		}
		if err := tx.DeleteOrder(ctx, order); err != nil {
			return mapNotFound(err, ErrOrderNotFound)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.opts.logger.Info().Int64("order_id", orderID).Int("released_lines", len(released)).Msg("order deleted")
	publish(ctx, s.opts, event.NewOrderDeletedEvent(orderID, released))
	return nil
}

// releaseLines 依序歸還每筆明細的庫存並寫回商品
func releaseLines(ctx context.Context, tx db.UnifiedDB, lines []model.OrderLine) ([]event.StockLevel, error) {
	released := make([]event.StockLevel, 0, len(lines))
	for _, line := range lines {
		product, err := tx.GetProductByID(ctx, line.ProductID)
		if err != nil {
			return nil, mapNotFound(err, ErrProductNotFound)
		}
		restored, err := Release(*product, line.Quantity)
		if err != nil {
			return nil, err
		}
		if err := tx.SaveProduct(ctx, &restored); err != nil {
			return nil, fmt.Errorf("save product %d: %w", restored.ProductID, err)
		}
		released = append(released, event.StockLevel{
			ProductID:         restored.ProductID,
			AvailableQuantity: restored.AvailableQuantity,
		})
	}
	return released, nil
}

func (s *OrderService) ListLines(ctx context.Context, orderID int64) (lines []model.OrderLine, err error) {
	ctx, span := s.startSpan(ctx, "ListLines", attribute.Int64("order.id", orderID))
	defer func() { endSpan(span, err) }()

	order, err := s.store.GetOrderWithLines(ctx, orderID)
	if err != nil {
		return nil, mapNotFound(err, ErrOrderNotFound)
	}
	return order.Lines, nil
}

func (s *OrderService) GetLine(ctx context.Context, orderID, productID int64) (line *model.OrderLine, err error) {
	ctx, span := s.startSpan(ctx, "GetLine", attribute.Int64("order.id", orderID), attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	line, err = s.store.GetLine(ctx, orderID, productID)
	if err != nil {
		return nil, mapNotFound(err, ErrLineNotFound)
	}
	product, err := s.store.GetProductByID(ctx, productID)
	if err != nil {
		return nil, mapNotFound(err, ErrProductNotFound)
	}
	line.Product = product
	return line, nil
}

// AddLine 新增明細並佔用庫存
// 同一訂單已有該商品的明細時, 視為把數量改成 quantity
// 錯誤:
//   - *ValidationError: quantity <= 0 或明細總價超過 99999999.99
//   - ErrOrderNotFound / ErrProductNotFound
//   - *InsufficientStockError: 庫存不足, 庫存與明細皆不變
//   - ErrConcurrentUpdate: 重試後仍發生 version 衝突
func (s *OrderService) AddLine(ctx context.Context, orderID, productID int64, quantity int) (line *model.OrderLine, err error) {
	ctx, span := s.startSpan(ctx, "AddLine",
		attribute.Int64("order.id", orderID),
		attribute.Int64("product.id", productID),
		attribute.Int("line.quantity", quantity),
	)
	defer func() { endSpan(span, err) }()

	if quantity <= 0 {
		return nil, newValidationError("quantity", "must be greater than 0")
	}

	var evt *event.OrderLineEvent
	err = stockTx(ctx, s.store, s.opts, "AddLine", func(tx db.UnifiedDB) error {
		if _, err := tx.GetOrderWithLines(ctx, orderID); err != nil {
			return mapNotFound(err, ErrOrderNotFound)
		}

		existing, err := tx.GetLine(ctx, orderID, productID)
		if err == nil {
			line, evt, err = adjustLine(ctx, tx, existing, quantity)
			return err
		}
		if !errors.Is(err, db.ErrRecordNotFound) {
			return fmt.Errorf("get line: %w", err)
		}

		product, err := tx.GetProductByID(ctx, productID)
		if err != nil {
			return mapNotFound(err, ErrProductNotFound)
		}
		if err := validateLinePrice(product, quantity); err != nil {
			return err
		}
		reserved, err := Reserve(*product, quantity)
		if err != nil {
			return err
		}
		if err := tx.SaveProduct(ctx, &reserved); err != nil {
			return fmt.Errorf("save product: %w", err)
		}

		line = &model.OrderLine{
			OrderID:   orderID,
			ProductID: productID,
			Quantity:  quantity,
			Price:     LinePrice(&reserved, quantity),
		}
		if err := tx.SaveLine(ctx, line); err != nil {
			return fmt.Errorf("save line: %w", err)
		}
		line.Product = &reserved
		evt = event.NewOrderLineEvent(event.OrderLineAddedEventName, line, 0, &reserved)
		return nil
	})
	if err != nil {
		s.logFailure("AddLine", orderID, productID, err)
		return nil, err
	}

	publish(ctx, s.opts, evt)
	return line, nil
}

// UpdateLine 調整明細數量, 庫存只移動差額, 價格依新數量重新計算
func (s *OrderService) UpdateLine(ctx context.Context, orderID, productID int64, input UpdateLineInput) (line *model.OrderLine, err error) {
	ctx, span := s.startSpan(ctx, "UpdateLine", attribute.Int64("order.id", orderID), attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	if input.Quantity == nil {
		return s.GetLine(ctx, orderID, productID)
	}
	if *input.Quantity <= 0 {
		return nil, newValidationError("quantity", "must be greater than 0")
	}
	span.SetAttributes(attribute.Int("line.quantity", *input.Quantity))

	var evt *event.OrderLineEvent
	err = stockTx(ctx, s.store, s.opts, "UpdateLine", func(tx db.UnifiedDB) error {
		existing, err := tx.GetLine(ctx, orderID, productID)
		if err != nil {
			return mapNotFound(err, ErrLineNotFound)
		}
		line, evt, err = adjustLine(ctx, tx, existing, *input.Quantity)
		return err
	})
	if err != nil {
		s.logFailure("UpdateLine", orderID, productID, err)
		return nil, err
	}

	publish(ctx, s.opts, evt)
	return line, nil
}

// adjustLine 以 existing 的已提交數量為基準調整庫存並重新計價
func adjustLine(ctx context.Context, tx db.UnifiedDB, existing *model.OrderLine, quantity int) (*model.OrderLine, *event.OrderLineEvent, error) {
	product, err := tx.GetProductByID(ctx, existing.ProductID)
	if err != nil {
		return nil, nil, mapNotFound(err, ErrProductNotFound)
	}

	oldQuantity := existing.Quantity
	if quantity != oldQuantity {
		if err := validateLinePrice(product, quantity); err != nil {
			return nil, nil, err
		}
	}
	adjusted, err := Adjust(*product, oldQuantity, quantity)
	if err != nil {
		return nil, nil, err
	}
	if adjusted.AvailableQuantity != product.AvailableQuantity {
		if err := tx.SaveProduct(ctx, &adjusted); err != nil {
			return nil, nil, fmt.Errorf("save product: %w", err)
		}
	}

	if quantity != oldQuantity {
		existing.Quantity = quantity
		existing.Price = LinePrice(&adjusted, quantity)
		existing.Product = nil
		if err := tx.SaveLine(ctx, existing); err != nil {
			return nil, nil, fmt.Errorf("save line: %w", err)
		}
	}
	existing.Product = &adjusted
	return existing, event.NewOrderLineEvent(event.OrderLineUpdatedEventName, existing, oldQuantity, &adjusted), nil
}

// RemoveLine 刪除明細並歸還庫存
func (s *OrderService) RemoveLine(ctx context.Context, orderID, productID int64) (err error) {
	ctx, span := s.startSpan(ctx, "RemoveLine", attribute.Int64("order.id", orderID), attribute.Int64("product.id", productID))
	defer func() { endSpan(span, err) }()

	var evt *event.OrderLineEvent
	err = stockTx(ctx, s.store, s.opts, "RemoveLine", func(tx db.UnifiedDB) error {
		line, err := tx.GetLine(ctx, orderID, productID)
		if err != nil {
			return mapNotFound(err, ErrLineNotFound)
		}
		product, err := tx.GetProductByID(ctx, productID)
		if err != nil {
			return mapNotFound(err, ErrProductNotFound)
		}
		restored, err := Release(*product, line.Quantity)
		if err != nil {
			return err
		}
		if err := tx.SaveProduct(ctx, &restored); err != nil {
			return fmt.Errorf("save product: %w", err)
		}
		if err := tx.DeleteLine(ctx, line); err != nil {
			return mapNotFound(err, ErrLineNotFound)
		}

		removed := *line
		removed.Quantity = 0
		evt = event.NewOrderLineEvent(event.OrderLineRemovedEventName, &removed, line.Quantity, &restored)
		return nil
	})
	if err != nil {
		s.logFailure("RemoveLine", orderID, productID, err)
		return err
	}

	publish(ctx, s.opts, evt)
	return nil
}

func (s *OrderService) logFailure(op string, orderID, productID int64, err error) {
	var stockErr *InsufficientStockError
	var validationErr *ValidationError
	if errors.As(err, &stockErr) || errors.As(err, &validationErr) {
		s.opts.logger.Debug().Err(err).Str("op", op).Int64("order_id", orderID).Int64("product_id", productID).Msg("line mutation rejected")
		return
	}
	s.opts.logger.Warn().Err(err).Str("op", op).Int64("order_id", orderID).Int64("product_id", productID).Msg("line mutation failed")
}

var _ IOrderService = (*OrderService)(nil)
