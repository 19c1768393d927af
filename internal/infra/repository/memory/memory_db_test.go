package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func seed(t *testing.T, m *MemoryDB) (*model.Product, *model.Order) {
	ctx := context.Background()
	establishment := &model.Establishment{Type: model.EstablishmentTypeCafe, Name: "Cafe", Email: "a@b.c", Phone: "+380500000000", Address: "x"}
	require.NoError(t, m.CreateEstablishment(ctx, establishment))

	product := &model.Product{Name: "Tea", AvailableQuantity: 10, Price: decimal.NewFromInt(2), WholesalePrice: decimal.NewFromInt(1)}
	require.NoError(t, m.CreateProduct(ctx, product))

	order := &model.Order{EstablishmentID: establishment.EstablishmentID, Status: model.OrderStatusNew}
	require.NoError(t, m.SaveOrder(ctx, order))
	return product, order
}

func TestSaveProduct_VersionCAS(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	product, _ := seed(t, m)
	require.Equal(t, int64(1), product.Version)

	first, err := m.GetProductByID(ctx, product.ProductID)
	require.NoError(t, err)
	second, err := m.GetProductByID(ctx, product.ProductID)
	require.NoError(t, err)

	first.AvailableQuantity = 5
	require.NoError(t, m.SaveProduct(ctx, first))
	require.Equal(t, int64(2), first.Version)

	second.AvailableQuantity = 7
	require.ErrorIs(t, m.SaveProduct(ctx, second), db.ErrStaleProduct)

	current, err := m.GetProductByID(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, 5, current.AvailableQuantity)

	current.AvailableQuantity = -1
	require.ErrorIs(t, m.SaveProduct(ctx, current), model.ErrNegativeStock)
}

func TestExecTx_RollbackOnError(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	product, order := seed(t, m)

	boom := errors.New("boom")
	err := m.ExecTx(ctx, func(tx db.UnifiedDB) error {
		p, err := tx.GetProductByID(ctx, product.ProductID)
		require.NoError(t, err)
		p.AvailableQuantity = 0
		require.NoError(t, tx.SaveProduct(ctx, p))
		require.NoError(t, tx.SaveLine(ctx, &model.OrderLine{OrderID: order.OrderID, ProductID: product.ProductID, Quantity: 10, Price: decimal.NewFromInt(10)}))
		return boom
	})
	require.ErrorIs(t, err, boom)

	current, err := m.GetProductByID(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, 10, current.AvailableQuantity)
	_, err = m.GetLine(ctx, order.OrderID, product.ProductID)
	require.ErrorIs(t, err, db.ErrRecordNotFound)
}

func TestExecTx_Nested(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()

	err := m.ExecTx(ctx, func(tx db.UnifiedDB) error {
		return tx.ExecTx(ctx, func(inner db.UnifiedDB) error {
			return inner.CreateProduct(ctx, &model.Product{Name: "Nested"})
		})
	})
	require.NoError(t, err)

	products, err := m.ListProducts(ctx, model.ProductFilter{})
	require.NoError(t, err)
	require.Len(t, products, 1)
}

func TestCascadeAndRestrict(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	product, order := seed(t, m)

	line := &model.OrderLine{OrderID: order.OrderID, ProductID: product.ProductID, Quantity: 2, Price: decimal.NewFromInt(4)}
	require.NoError(t, m.SaveLine(ctx, line))

	require.ErrorIs(t, m.DeleteProduct(ctx, product.ProductID), db.ErrForeignKeyViolation)
	count, err := m.CountLinesByProduct(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, int64(1), count)

	loaded, err := m.GetOrderWithLines(ctx, order.OrderID)
	require.NoError(t, err)
	require.Len(t, loaded.Lines, 1)
	require.NotNil(t, loaded.Lines[0].Product)
	require.NotNil(t, loaded.Establishment)

	require.NoError(t, m.DeleteEstablishment(ctx, order.EstablishmentID))
	_, err = m.GetOrderWithLines(ctx, order.OrderID)
	require.ErrorIs(t, err, db.ErrRecordNotFound)
	count, err = m.CountLinesByProduct(ctx, product.ProductID)
	require.NoError(t, err)
	require.Zero(t, count)
	require.NoError(t, m.DeleteProduct(ctx, product.ProductID))
}

func TestSaveLine_Constraints(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	product, order := seed(t, m)

	require.ErrorIs(t, m.SaveLine(ctx, &model.OrderLine{OrderID: order.OrderID, ProductID: product.ProductID}), model.ErrLineQuantityNotPositive)
	require.ErrorIs(t, m.SaveLine(ctx, &model.OrderLine{OrderID: 99, ProductID: product.ProductID, Quantity: 1}), db.ErrForeignKeyViolation)
	tooLarge := &model.OrderLine{OrderID: order.OrderID, ProductID: product.ProductID, Quantity: 1, Price: model.MaxMoney.Add(decimal.RequireFromString("0.01"))}
	require.ErrorIs(t, m.SaveLine(ctx, tooLarge), model.ErrLinePriceTooLarge)
	require.ErrorIs(t, m.SaveOrder(ctx, &model.Order{EstablishmentID: 99}), db.ErrForeignKeyViolation)
}

// 交易失敗還原時, 交易期間外部建立的商品與店家必須保留
func TestExecTx_RollbackKeepsConcurrentWrites(t *testing.T) {
	ctx := context.Background()
	m := NewMemoryDB()
	product, _ := seed(t, m)

	inTx := make(chan struct{})
	release := make(chan struct{})
	txDone := make(chan error, 1)
	go func() {
		txDone <- m.ExecTx(ctx, func(tx db.UnifiedDB) error {
			p, err := tx.GetProductByID(ctx, product.ProductID)
			if err != nil {
				return err
			}
			p.AvailableQuantity = 0
			if err := tx.SaveProduct(ctx, p); err != nil {
				return err
			}
			close(inTx)
			<-release
			return errors.New("insufficient stock")
		})
	}()
	<-inTx

	apple := &model.Product{Name: "Apple", AvailableQuantity: 4, Price: decimal.NewFromInt(1), WholesalePrice: decimal.NewFromInt(1)}
	shop := &model.Establishment{Type: model.EstablishmentTypeShop, Name: "Shop", Email: "s@h.op", Phone: "+380501111111", Address: "y"}
	writesDone := make(chan error, 2)
	go func() { writesDone <- m.CreateProduct(ctx, apple) }()
	go func() { writesDone <- m.CreateEstablishment(ctx, shop) }()

	// 寫入需等待交易結束
	select {
	case err := <-writesDone:
		t.Fatalf("write finished while transaction was running: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	close(release)
	require.Error(t, <-txDone)
	require.NoError(t, <-writesDone)
	require.NoError(t, <-writesDone)

	got, err := m.GetProductByID(ctx, apple.ProductID)
	require.NoError(t, err)
	require.Equal(t, "Apple", got.Name)
	_, err = m.GetEstablishmentByID(ctx, shop.EstablishmentID)
	require.NoError(t, err)

	rolledBack, err := m.GetProductByID(ctx, product.ProductID)
	require.NoError(t, err)
	require.Equal(t, 10, rolledBack.AvailableQuantity)
}
