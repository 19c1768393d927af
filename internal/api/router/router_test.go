package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/RoyceAzure/lab/ordercenter/internal/api"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/dto"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/handler"
	"github.com/RoyceAzure/lab/ordercenter/internal/constants"
	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/memory"
	"github.com/RoyceAzure/lab/ordercenter/internal/pkg/ratelimit"
	"github.com/RoyceAzure/lab/ordercenter/internal/service"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

type RouterTestSuite struct {
	suite.Suite
	handler http.Handler
}

func newTestServer() *api.Server {
	store := memory.NewMemoryDB()
	return api.NewServer(
		handler.NewProductHandler(service.NewProductService(store)),
		handler.NewEstablishmentHandler(service.NewEstablishmentService(store)),
		handler.NewOrderHandler(service.NewOrderService(store)),
	)
}

func (suite *RouterTestSuite) SetupTest() {
	suite.handler = SetupRouter(newTestServer(), nil, zerolog.Nop())
}

func TestRouterTestSuite(t *testing.T) {
	suite.Run(t, new(RouterTestSuite))
}

func (suite *RouterTestSuite) do(method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(suite.T(), json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	return rec
}

func decodeData[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var resp struct {
		Data T `json:"data"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	return resp.Data
}

type errorBody struct {
	Error string `json:"error"`
	Field string `json:"field"`
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) errorBody {
	var body errorBody
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
	return body
}

func (suite *RouterTestSuite) seed(stock int) (establishmentID, productID, orderID int64) {
	rec := suite.do(http.MethodPost, "/api/v1/establishments", map[string]any{
		"type": "cafe", "name": "Kyiv Coffee", "email": "kyiv@coffee.test", "phone": "+380931234567", "address": "Podil 3",
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())
	establishment := decodeData[model.Establishment](suite.T(), rec)

	rec = suite.do(http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Syrniki", "available_quantity": stock, "price": "10.00", "wholesale_price": "8.00", "wholesale_minimum_quantity": 10,
	})
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())
	product := decodeData[model.Product](suite.T(), rec)
	require.True(suite.T(), product.IsActive)

	rec = suite.do(http.MethodPost, "/api/v1/orders", map[string]any{"establishment_id": establishment.EstablishmentID})
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())
	order := decodeData[dto.OrderDTO](suite.T(), rec)
	require.Equal(suite.T(), model.OrderStatusNew, order.Status)

	return establishment.EstablishmentID, product.ProductID, order.OrderID
}

func (suite *RouterTestSuite) stock(productID int64) int {
	rec := suite.do(http.MethodGet, fmt.Sprintf("/api/v1/products/%d", productID), nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	return decodeData[model.Product](suite.T(), rec).AvailableQuantity
}

func (suite *RouterTestSuite) TestOrderLineLifecycle() {
	_, productID, orderID := suite.seed(20)
	linesPath := fmt.Sprintf("/api/v1/orders/%d/products", orderID)
	linePath := fmt.Sprintf("%s/%d", linesPath, productID)

	rec := suite.do(http.MethodPost, linesPath, map[string]any{"product_id": productID, "quantity": 5})
	require.Equal(suite.T(), http.StatusCreated, rec.Code, rec.Body.String())
	line := decodeData[dto.OrderLineDTO](suite.T(), rec)
	require.Equal(suite.T(), "50.00", line.Price)
	require.Equal(suite.T(), 15, suite.stock(productID))

	rec = suite.do(http.MethodPatch, linePath, map[string]any{"quantity": 12})
	require.Equal(suite.T(), http.StatusOK, rec.Code, rec.Body.String())
	line = decodeData[dto.OrderLineDTO](suite.T(), rec)
	require.Equal(suite.T(), "96.00", line.Price)
	require.Equal(suite.T(), 8, suite.stock(productID))

	rec = suite.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	order := decodeData[dto.OrderDTO](suite.T(), rec)
	require.Len(suite.T(), order.Lines, 1)
	require.Equal(suite.T(), "96.00", order.TotalPrice)
	require.Equal(suite.T(), "Syrniki", order.Lines[0].ProductName)

	rec = suite.do(http.MethodGet, "/api/v1/products/stock", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	levels := decodeData[[]model.ProductStockLevel](suite.T(), rec)
	require.Equal(suite.T(), []model.ProductStockLevel{{ProductID: productID, Name: "Syrniki", Available: 8, Allocated: 12, Total: 20}}, levels)

	rec = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/products/%d", productID), nil)
	require.Equal(suite.T(), http.StatusConflict, rec.Code)

	rec = suite.do(http.MethodDelete, linePath, nil)
	require.Equal(suite.T(), http.StatusNoContent, rec.Code)
	require.Equal(suite.T(), 20, suite.stock(productID))

	rec = suite.do(http.MethodGet, linePath, nil)
	require.Equal(suite.T(), http.StatusNotFound, rec.Code)
}

func (suite *RouterTestSuite) TestInsufficientStock() {
	_, productID, orderID := suite.seed(3)

	rec := suite.do(http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/products", orderID), map[string]any{"product_id": productID, "quantity": 5})
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	body := decodeError(suite.T(), rec)
	require.Equal(suite.T(), "Only 3 items available in stock.", body.Error)
	require.Equal(suite.T(), "quantity", body.Field)
	require.Equal(suite.T(), 3, suite.stock(productID))
}

func (suite *RouterTestSuite) TestDeleteOrderRestoresStock() {
	_, productID, orderID := suite.seed(20)

	rec := suite.do(http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/products", orderID), map[string]any{"product_id": productID, "quantity": 7})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)
	require.Equal(suite.T(), 13, suite.stock(productID))

	rec = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	require.Equal(suite.T(), http.StatusNoContent, rec.Code)
	require.Equal(suite.T(), 20, suite.stock(productID))

	rec = suite.do(http.MethodGet, fmt.Sprintf("/api/v1/orders/%d", orderID), nil)
	require.Equal(suite.T(), http.StatusNotFound, rec.Code)
}

func (suite *RouterTestSuite) TestUpdateOrder() {
	_, _, orderID := suite.seed(1)

	rec := suite.do(http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d", orderID), map[string]any{"status": "delivered", "date": "2026-02-03"})
	require.Equal(suite.T(), http.StatusOK, rec.Code, rec.Body.String())
	order := decodeData[dto.OrderDTO](suite.T(), rec)
	require.Equal(suite.T(), model.OrderStatusDelivered, order.Status)
	require.Equal(suite.T(), "2026-02-03", order.Date)

	rec = suite.do(http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d", orderID), map[string]any{"date": "03/02/2026"})
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	rec = suite.do(http.MethodPatch, fmt.Sprintf("/api/v1/orders/%d", orderID), map[string]any{"status": "lost"})
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)
}

func (suite *RouterTestSuite) TestBadRequests() {
	rec := suite.do(http.MethodGet, "/api/v1/orders/abc", nil)
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodPost, "/api/v1/products", map[string]any{"name": "x", "unknown": 1})
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodPost, "/api/v1/establishments", map[string]any{
		"type": "cafe", "name": "N", "email": "n@n.test", "phone": "12345", "address": "a",
	})
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)
	require.Equal(suite.T(), "phone", decodeError(suite.T(), rec).Field)

	rec = suite.do(http.MethodGet, "/api/v1/products?sort=weight", nil)
	require.Equal(suite.T(), http.StatusBadRequest, rec.Code)

	rec = suite.do(http.MethodPost, "/api/v1/orders", map[string]any{"establishment_id": 404})
	require.Equal(suite.T(), http.StatusNotFound, rec.Code)
}

func (suite *RouterTestSuite) TestDuplicateProduct() {
	suite.seed(1)
	rec := suite.do(http.MethodPost, "/api/v1/products", map[string]any{
		"name": "Syrniki", "available_quantity": 1, "price": "1.00", "wholesale_price": "1.00", "wholesale_minimum_quantity": 1,
	})
	require.Equal(suite.T(), http.StatusConflict, rec.Code)
	require.Equal(suite.T(), "Duplicate error.", decodeError(suite.T(), rec).Error)
}

func (suite *RouterTestSuite) TestDeleteEstablishmentCascades() {
	establishmentID, productID, orderID := suite.seed(10)
	rec := suite.do(http.MethodPost, fmt.Sprintf("/api/v1/orders/%d/products", orderID), map[string]any{"product_id": productID, "quantity": 4})
	require.Equal(suite.T(), http.StatusCreated, rec.Code)

	rec = suite.do(http.MethodDelete, fmt.Sprintf("/api/v1/establishments/%d", establishmentID), nil)
	require.Equal(suite.T(), http.StatusNoContent, rec.Code)
	require.Equal(suite.T(), 10, suite.stock(productID))

	rec = suite.do(http.MethodGet, "/api/v1/orders", nil)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	require.Empty(suite.T(), decodeData[[]dto.OrderDTO](suite.T(), rec))
}

func (suite *RouterTestSuite) TestRequestID() {
	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	req.Header.Set(constants.RequestIDHeader, "req-123")
	rec := httptest.NewRecorder()
	suite.handler.ServeHTTP(rec, req)
	require.Equal(suite.T(), http.StatusOK, rec.Code)
	require.Equal(suite.T(), "req-123", rec.Header().Get(constants.RequestIDHeader))

	rec = suite.do(http.MethodGet, "/healthz", nil)
	require.NotEmpty(suite.T(), rec.Header().Get(constants.RequestIDHeader))
}

func TestRateLimit(t *testing.T) {
	bucket := ratelimit.NewTokenBucket(ratelimit.Config{Capacity: 2, RefillTokens: 1, RefillRate: 1 << 40})
	defer bucket.Stop()
	h := SetupRouter(newTestServer(), bucket, zerolog.Nop())

	codes := make([]int, 0, 3)
	for i := 0; i < 3; i++ {
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		codes = append(codes, rec.Code)
	}
	require.Equal(t, []int{http.StatusOK, http.StatusOK, http.StatusTooManyRequests}, codes)
}
