package redis_decorator

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/redis_repo"
	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"
)

/*
CacheAsideStore 只快取商品快照, 其他操作直接委派給資料庫

  - 交易外讀取: 先讀 redis, miss 時以 singleflight 合併同一商品的查詢再回填
  - 交易內讀取: 一律讀資料庫, 庫存判斷不能用快取
  - 寫入 / 刪除 / version 衝突: commit 後刪除 key, 下次讀取再回填
  - 回填前比對商品的失效世代, 讀取期間被失效過就不寫回, 避免舊快照蓋過刪除
*/
type CacheAsideStore struct {
	db.UnifiedDB
	cache  redis_repo.IProductCacheRepository
	group  singleflight.Group
	logger zerolog.Logger

	genMu sync.Mutex
	gens  map[int64]uint64
}

func NewCacheAsideStore(store db.UnifiedDB, cache redis_repo.IProductCacheRepository, logger zerolog.Logger) *CacheAsideStore {
	if store == nil || cache == nil {
		panic("NewCacheAsideStore: store and cache cannot be nil")
	}
	return &CacheAsideStore{UnifiedDB: store, cache: cache, logger: logger}
}

func (s *CacheAsideStore) GetProductByID(ctx context.Context, productID int64) (*model.Product, error) {
	product, err := s.cache.GetProduct(ctx, productID)
	if err == nil {
		return product, nil
	}
	if !errors.Is(err, redis_repo.ErrCacheMiss) {
		s.logger.Warn().Err(err).Int64("product_id", productID).Msg("product cache read failed")
	}

	v, err, _ := s.group.Do(strconv.FormatInt(productID, 10), func() (any, error) {
		gen := s.generation(productID)
		product, err := s.UnifiedDB.GetProductByID(ctx, productID)
		if err != nil {
			return nil, err
		}
		s.fill(ctx, gen, product)
		return *product, nil
	})
	if err != nil {
		return nil, err
	}
	p := v.(model.Product)
	return &p, nil
}

func (s *CacheAsideStore) SaveProduct(ctx context.Context, product *model.Product) error {
	err := s.UnifiedDB.SaveProduct(ctx, product)
	if err == nil || errors.Is(err, db.ErrStaleProduct) {
		s.invalidate(ctx, product.ProductID)
	}
	return err
}

func (s *CacheAsideStore) DeleteProduct(ctx context.Context, productID int64) error {
	err := s.UnifiedDB.DeleteProduct(ctx, productID)
	if err == nil {
		s.invalidate(ctx, productID)
	}
	return err
}

// ExecTx 交易內動到的商品在交易結束後 (不論成功與否) 一次失效
func (s *CacheAsideStore) ExecTx(ctx context.Context, fn func(tx db.UnifiedDB) error) error {
	tx := &txStore{}
	err := s.UnifiedDB.ExecTx(ctx, func(inner db.UnifiedDB) error {
		tx.UnifiedDB = inner
		return fn(tx)
	})
	s.invalidate(ctx, tx.touched()...)
	return err
}

func (s *CacheAsideStore) generation(productID int64) uint64 {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	return s.gens[productID]
}

// fill 持有 genMu 寫回, 與 invalidate 的世代遞增互斥
func (s *CacheAsideStore) fill(ctx context.Context, gen uint64, product *model.Product) {
	s.genMu.Lock()
	defer s.genMu.Unlock()
	if s.gens[product.ProductID] != gen {
		s.logger.Debug().Int64("product_id", product.ProductID).Msg("product changed during read, skip cache fill")
		return
	}
	if err := s.cache.SetProduct(ctx, product); err != nil {
		s.logger.Warn().Err(err).Int64("product_id", product.ProductID).Msg("product cache fill failed")
	}
}

func (s *CacheAsideStore) invalidate(ctx context.Context, productIDs ...int64) {
	if len(productIDs) == 0 {
		return
	}
	s.genMu.Lock()
	if s.gens == nil {
		s.gens = make(map[int64]uint64)
	}
	for _, id := range productIDs {
		s.gens[id]++
	}
	s.genMu.Unlock()
	if err := s.cache.DeleteProduct(ctx, productIDs...); err != nil {
		s.logger.Error().Err(err).Interface("product_ids", productIDs).Msg("product cache invalidation failed")
	}
}

// txStore 記錄交易內寫過的商品
type txStore struct {
	db.UnifiedDB
	mu    sync.Mutex
	dirty map[int64]struct{}
}

func (t *txStore) mark(productID int64) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.dirty == nil {
		t.dirty = make(map[int64]struct{})
	}
	t.dirty[productID] = struct{}{}
}

func (t *txStore) touched() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int64, 0, len(t.dirty))
	for id := range t.dirty {
		ids = append(ids, id)
	}
	return ids
}

func (t *txStore) ExecTx(ctx context.Context, fn func(tx db.UnifiedDB) error) error {
	return fn(t)
}

func (t *txStore) SaveProduct(ctx context.Context, product *model.Product) error {
	t.mark(product.ProductID)
	return t.UnifiedDB.SaveProduct(ctx, product)
}

func (t *txStore) DeleteProduct(ctx context.Context, productID int64) error {
	t.mark(productID)
	return t.UnifiedDB.DeleteProduct(ctx, productID)
}

var _ db.UnifiedDB = (*CacheAsideStore)(nil)
