package dto

import (
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/shopspring/decimal"
)

// DateLayout 訂單日期格式, 金額一律輸出兩位小數字串
const DateLayout = "2006-01-02"

type OrderCreateDTO struct {
	EstablishmentID int64   `json:"establishment_id"`
	Status          *string `json:"status"`
	Date            *string `json:"date"`
}

type OrderUpdateDTO struct {
	EstablishmentID *int64  `json:"establishment_id"`
	Status          *string `json:"status"`
	Date            *string `json:"date"`
}

type OrderLineCreateDTO struct {
	ProductID int64 `json:"product_id"`
	Quantity  int   `json:"quantity"`
}

type OrderLineUpdateDTO struct {
	Quantity *int `json:"quantity"`
}

type OrderLineDTO struct {
	OrderID     int64  `json:"order_id"`
	ProductID   int64  `json:"product_id"`
	ProductName string `json:"product_name,omitempty"`
	Quantity    int    `json:"quantity"`
	Price       string `json:"price"`
}

type OrderDTO struct {
	OrderID         int64                `json:"order_id"`
	Date            string               `json:"date"`
	Status          model.OrderStatus    `json:"status"`
	EstablishmentID int64                `json:"establishment_id"`
	Establishment   *model.Establishment `json:"establishment,omitempty"`
	Lines           []OrderLineDTO       `json:"lines"`
	TotalPrice      string               `json:"total_price"`
}

func ParseDate(s string) (time.Time, error) {
	return time.Parse(DateLayout, s)
}

func NewOrderLineDTO(line *model.OrderLine) OrderLineDTO {
	d := OrderLineDTO{
		OrderID:   line.OrderID,
		ProductID: line.ProductID,
		Quantity:  line.Quantity,
		Price:     line.Price.StringFixed(2),
	}
	if line.Product != nil {
		d.ProductName = line.Product.Name
	}
	return d
}

func NewOrderLineDTOs(lines []model.OrderLine) []OrderLineDTO {
	out := make([]OrderLineDTO, 0, len(lines))
	for i := range lines {
		out = append(out, NewOrderLineDTO(&lines[i]))
	}
	return out
}

// NewOrderDTO TotalPrice 為各明細總價加總
func NewOrderDTO(order *model.Order) OrderDTO {
	total := decimal.Zero
	for _, line := range order.Lines {
		total = total.Add(line.Price)
	}
	return OrderDTO{
		OrderID:         order.OrderID,
		Date:            order.Date.Format(DateLayout),
		Status:          order.Status,
		EstablishmentID: order.EstablishmentID,
		Establishment:   order.Establishment,
		Lines:           NewOrderLineDTOs(order.Lines),
		TotalPrice:      total.StringFixed(2),
	}
}
