package db

import (
	"context"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"gorm.io/gorm"
)

// UnifiedDB 統一的資料庫介面
type UnifiedDB interface {
	// ExecTx 在同一個交易內執行 fn, fn 回傳錯誤時整筆 rollback
	ExecTx(ctx context.Context, fn func(tx UnifiedDB) error) error
	InitMigrate() error

	ICatalogRepository
	IOrderRepository
	IEstablishmentRepository
}

// ICatalogRepository Product 相關操作介面
type ICatalogRepository interface {
	CreateProduct(ctx context.Context, product *model.Product) error
	GetProductByID(ctx context.Context, productID int64) (*model.Product, error)
	// SaveProduct 以 version 做 compare-and-swap, 失敗回傳 ErrStaleProduct
	SaveProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, productID int64) error
	ListProducts(ctx context.Context, filter model.ProductFilter) ([]model.Product, error)
	// GetAllocatedQuantities 各商品被訂單明細佔用的總數
	GetAllocatedQuantities(ctx context.Context) (map[int64]int, error)
}

// IOrderRepository Order 與 OrderLine 相關操作介面
type IOrderRepository interface {
	GetOrderWithLines(ctx context.Context, orderID int64) (*model.Order, error)
	ListOrders(ctx context.Context, sortByDateDesc bool) ([]model.Order, error)
	ListOrdersByEstablishment(ctx context.Context, establishmentID int64) ([]model.Order, error)
	SaveOrder(ctx context.Context, order *model.Order) error
	DeleteOrder(ctx context.Context, order *model.Order) error

	GetLine(ctx context.Context, orderID, productID int64) (*model.OrderLine, error)
	SaveLine(ctx context.Context, line *model.OrderLine) error
	DeleteLine(ctx context.Context, line *model.OrderLine) error
	CountLinesByProduct(ctx context.Context, productID int64) (int64, error)
}

// IEstablishmentRepository Establishment 相關操作介面
type IEstablishmentRepository interface {
	CreateEstablishment(ctx context.Context, establishment *model.Establishment) error
	GetEstablishmentByID(ctx context.Context, establishmentID int64) (*model.Establishment, error)
	ListEstablishments(ctx context.Context) ([]model.Establishment, error)
	DeleteEstablishment(ctx context.Context, establishmentID int64) error
}

// UnifiedDBImpl 統一資料庫實現
type UnifiedDBImpl struct {
	db    *gorm.DB
	dbDao *DbDao
	*ProductDBRepo
	*OrderRepo
	*EstablishmentRepo
}

// NewUnifiedDB 創建新的統一資料庫實例
func NewUnifiedDB(db *gorm.DB) *UnifiedDBImpl {
	dbDao := NewDbDao(db)
	return &UnifiedDBImpl{
		db:                db,
		dbDao:             dbDao,
		ProductDBRepo:     NewProductDBRepo(dbDao),
		OrderRepo:         NewOrderRepo(dbDao),
		EstablishmentRepo: NewEstablishmentRepo(dbDao),
	}
}

func (u *UnifiedDBImpl) InitMigrate() error {
	return u.dbDao.InitMigrate()
}

// GetDB 獲取資料庫連接
func (u *UnifiedDBImpl) GetDB() *gorm.DB {
	return u.db
}

// ExecTx 開始事務, 交易內的 repo 皆綁定同一個 tx
func (u *UnifiedDBImpl) ExecTx(ctx context.Context, fn func(tx UnifiedDB) error) error {
	return u.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewUnifiedDB(tx))
	})
}

// Close 關閉底層連線池
func (u *UnifiedDBImpl) Close() error {
	sqlDB, err := u.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

var (
	_ UnifiedDB                = (*UnifiedDBImpl)(nil)
	_ ICatalogRepository       = (*ProductDBRepo)(nil)
	_ IOrderRepository         = (*OrderRepo)(nil)
	_ IEstablishmentRepository = (*EstablishmentRepo)(nil)
)
