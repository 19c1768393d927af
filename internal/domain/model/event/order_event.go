package event

import (
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/shopspring/decimal"
)

// StockLevel 事件發生後商品的可用庫存
type StockLevel struct {
	ProductID         int64 `json:"product_id"`
	AvailableQuantity int   `json:"available_quantity"`
}

type OrderCreatedEvent struct {
	BaseEvent
	EstablishmentID int64             `json:"establishment_id"`
	Date            time.Time         `json:"date"`
	Status          model.OrderStatus `json:"status"`
}

func NewOrderCreatedEvent(order *model.Order) *OrderCreatedEvent {
	return &OrderCreatedEvent{
		BaseEvent:       NewBaseEvent(OrderCreatedEventName, order.OrderID),
		EstablishmentID: order.EstablishmentID,
		Date:            order.Date,
		Status:          order.Status,
	}
}

type OrderUpdatedEvent struct {
	BaseEvent
	EstablishmentID int64             `json:"establishment_id"`
	Date            time.Time         `json:"date"`
	Status          model.OrderStatus `json:"status"`
}

func NewOrderUpdatedEvent(order *model.Order) *OrderUpdatedEvent {
	return &OrderUpdatedEvent{
		BaseEvent:       NewBaseEvent(OrderUpdatedEventName, order.OrderID),
		EstablishmentID: order.EstablishmentID,
		Date:            order.Date,
		Status:          order.Status,
	}
}

// OrderDeletedEvent Released 為歸還後各商品庫存
type OrderDeletedEvent struct {
	BaseEvent
	Released []StockLevel `json:"released"`
}

func NewOrderDeletedEvent(orderID int64, released []StockLevel) *OrderDeletedEvent {
	return &OrderDeletedEvent{
		BaseEvent: NewBaseEvent(OrderDeletedEventName, orderID),
		Released:  released,
	}
}

type OrderLineEvent struct {
	BaseEvent
	ProductID   int64           `json:"product_id"`
	OldQuantity int             `json:"old_quantity"`
	NewQuantity int             `json:"new_quantity"`
	Price       decimal.Decimal `json:"price"`
	Stock       StockLevel      `json:"stock"`
}

func NewOrderLineEvent(eventType EventType, line *model.OrderLine, oldQuantity int, product *model.Product) *OrderLineEvent {
	return &OrderLineEvent{
		BaseEvent:   NewBaseEvent(eventType, line.OrderID),
		ProductID:   line.ProductID,
		OldQuantity: oldQuantity,
		NewQuantity: line.Quantity,
		Price:       line.Price,
		Stock: StockLevel{
			ProductID:         product.ProductID,
			AvailableQuantity: product.AvailableQuantity,
		},
	}
}
