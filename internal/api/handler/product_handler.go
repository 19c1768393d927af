package handler

import (
	"net/http"

	"github.com/RoyceAzure/lab/ordercenter/internal/api/dto"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/response"
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/service"
)

type ProductHandler struct {
	productService service.IProductService
}

func NewProductHandler(productService service.IProductService) *ProductHandler {
	if productService == nil {
		panic("productService cannot be nil")
	}
	return &ProductHandler{productService: productService}
}

// ListProducts GET /products?search=&sort=name|price|available_quantity&order=asc|desc
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	products, err := h.productService.ListProducts(r.Context(), model.ProductFilter{
		Search:    q.Get("search"),
		SortField: model.ProductSortField(q.Get("sort")),
		SortDir:   model.SortDirection(q.Get("order")),
	})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, products)
}

// StockLevels GET /products/stock
func (h *ProductHandler) StockLevels(w http.ResponseWriter, r *http.Request) {
	levels, err := h.productService.StockLevels(r.Context())
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, levels)
}

func (h *ProductHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	product, err := h.productService.GetProduct(r.Context(), id)
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req dto.ProductCreateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := h.productService.CreateProduct(r.Context(), service.CreateProductInput{
		Name:                     req.Name,
		AvailableQuantity:        req.AvailableQuantity,
		Price:                    req.Price,
		WholesalePrice:           req.WholesalePrice,
		WholesaleMinimumQuantity: req.WholesaleMinimumQuantity,
		IsActive:                 req.IsActive,
	})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusCreated, product)
}

func (h *ProductHandler) UpdateProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	var req dto.ProductUpdateDTO
	if !decodeBody(w, r, &req) {
		return
	}
	product, err := h.productService.UpdateProduct(r.Context(), id, service.UpdateProductInput{
		Name:                     req.Name,
		AvailableQuantity:        req.AvailableQuantity,
		Price:                    req.Price,
		WholesalePrice:           req.WholesalePrice,
		WholesaleMinimumQuantity: req.WholesaleMinimumQuantity,
		IsActive:                 req.IsActive,
	})
	if err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	response.SuccessJSON(w, http.StatusOK, product)
}

func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r, "productId")
	if !ok {
		return
	}
	if err := h.productService.DeleteProduct(r.Context(), id); err != nil {
		response.ServiceErrorJSON(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
