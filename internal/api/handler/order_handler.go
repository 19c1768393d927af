package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/ordercenter/internal/api/dto"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/response"
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/service"
)

type OrderHandler struct {
	orderService service.IOrderService
}

func NewOrderHandler(orderService service.IOrderService) *OrderHandler {
	if orderService == nil {
		panic("orderService cannot be nil")
	}
	return &OrderHandler{orderService: orderService}
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orderService.ListOrders(r.Context())
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	out := make([]dto.OrderDTO, 0, len(orders))
	for i := range orders {
		out = append(out, dto.NewOrderDTO(&orders[i]))
	}
	response.SuccessJSON(w, http.StatusOK, out)
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	order, err := h.orderService.GetOrder(r.Context(), id)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderDTO(order))
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req dto.OrderCreateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	input := service.CreateOrderInput{EstablishmentID: req.EstablishmentID}
	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		input.Status = &status
	}
	if req.Date != nil {
		date, err := dto.ParseDate(*req.Date)
		if err != nil {
			response.ErrorJSON(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "date")
			return
		}
		input.Date = &date
	}

	order, err := h.orderService.CreateOrder(r.Context(), input)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewOrderDTO(order))
}

func (h *OrderHandler) UpdateOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	var req dto.OrderUpdateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	input := service.UpdateOrderInput{EstablishmentID: req.EstablishmentID}
	if req.Status != nil {
		status := model.OrderStatus(*req.Status)
		input.Status = &status
	}
	if req.Date != nil {
		date, err := dto.ParseDate(*req.Date)
		if err != nil {
			response.ErrorJSON(w, http.StatusBadRequest, "date must be YYYY-MM-DD", "date")
			return
		}
		input.Date = &date
	}

	order, err := h.orderService.UpdateOrder(r.Context(), id, input)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderDTO(order))
}

// DeleteOrder 歸還所有明細庫存後刪除
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	if err := h.orderService.DeleteOrder(r.Context(), id); err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *OrderHandler) ListLines(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	lines, err := h.orderService.ListLines(r.Context(), id)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderLineDTOs(lines))
}

func (h *OrderHandler) GetLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	line, err := h.orderService.GetLine(r.Context(), orderID, productID)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderLineDTO(line))
}

// AddLine 同一商品已存在時等同更新數量
func (h *OrderHandler) AddLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	var req dto.OrderLineCreateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := h.orderService.AddLine(r.Context(), orderID, req.ProductID, req.Quantity)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, dto.NewOrderLineDTO(line))
}

func (h *OrderHandler) UpdateLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	var req dto.OrderLineUpdateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	line, err := h.orderService.UpdateLine(r.Context(), orderID, productID, service.UpdateLineInput{Quantity: req.Quantity})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, dto.NewOrderLineDTO(line))
}

func (h *OrderHandler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r, "orderId")
	if !ok {
		return
	}
	productID, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	if err := h.orderService.RemoveLine(r.Context(), orderID, productID); err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
