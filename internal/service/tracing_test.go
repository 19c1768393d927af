package service

import (
	"context"
	"testing"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/memory"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func spanAttr(span sdktrace.ReadOnlySpan, key attribute.Key) (attribute.Value, bool) {
	for _, kv := range span.Attributes() {
		if kv.Key == key {
			return kv.Value, true
		}
	}
	return attribute.Value{}, false
}

func TestOrderServiceSpans(t *testing.T) {
	recorder := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(recorder))
	defer tp.Shutdown(context.Background())

	ctx := context.Background()
	store := memory.NewMemoryDB()
	establishment := &model.Establishment{Type: model.EstablishmentTypeShop, Name: "Shop", Email: "s@shop.test", Phone: "+380501111111", Address: "a"}
	require.NoError(t, store.CreateEstablishment(ctx, establishment))
	product := &model.Product{Name: "Tea", AvailableQuantity: 2, Price: decimal.NewFromInt(3), WholesalePrice: decimal.NewFromInt(2), WholesaleMinimumQuantity: 5, IsActive: true}
	require.NoError(t, store.CreateProduct(ctx, product))

	svc := NewOrderService(store, WithTracer(tp.Tracer("test")))
	order, err := svc.CreateOrder(ctx, CreateOrderInput{EstablishmentID: establishment.EstablishmentID})
	require.NoError(t, err)

	_, err = svc.AddLine(ctx, order.OrderID, product.ProductID, 5)
	var stockErr *InsufficientStockError
	require.ErrorAs(t, err, &stockErr)

	spans := recorder.Ended()
	require.Len(t, spans, 2)

	require.Equal(t, "OrderService.CreateOrder", spans[0].Name())
	require.Equal(t, codes.Ok, spans[0].Status().Code)
	id, ok := spanAttr(spans[0], "order.id")
	require.True(t, ok)
	require.Equal(t, order.OrderID, id.AsInt64())

	require.Equal(t, "OrderService.AddLine", spans[1].Name())
	require.Equal(t, codes.Error, spans[1].Status().Code)
	require.Equal(t, "Only 2 items available in stock.", spans[1].Status().Description)
	require.NotEmpty(t, spans[1].Events())
}
