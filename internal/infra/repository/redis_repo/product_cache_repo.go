package redis_repo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model"
	"github.com/redis/go-redis/v9"
)

var ErrCacheMiss = errors.New("product cache miss")

// IProductCacheRepository 商品快照快取, 真相來源永遠是資料庫
type IProductCacheRepository interface {
	GetProduct(ctx context.Context, productID int64) (*model.Product, error)
	SetProduct(ctx context.Context, product *model.Product) error
	DeleteProduct(ctx context.Context, productIDs ...int64) error
}

/*
	結構:
	product:{id} -> JSON 商品快照 (含 version)
*/
type ProductCacheRepo struct {
	client *redis.Client
	ttl    time.Duration
}

func NewProductCacheRepo(client *redis.Client, ttl time.Duration) *ProductCacheRepo {
	return &ProductCacheRepo{client: client, ttl: ttl}
}

func generateProductKey(productID int64) string {
	return "product:" + strconv.FormatInt(productID, 10)
}

// productSnapshot model.Product 的 Version 不輸出到 API, 快取需要保留
type productSnapshot struct {
	model.Product
	Version int64 `json:"version"`
}

// GetProduct
// 錯誤:
//   - ErrCacheMiss: key 不存在或已過期
//   - err: 其他錯誤
func (r *ProductCacheRepo) GetProduct(ctx context.Context, productID int64) (*model.Product, error) {
	raw, err := r.client.Get(ctx, generateProductKey(productID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}

	var snapshot productSnapshot
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil, fmt.Errorf("decode product %d: %w", productID, err)
	}
	product := snapshot.Product
	product.Version = snapshot.Version
	return &product, nil
}

func (r *ProductCacheRepo) SetProduct(ctx context.Context, product *model.Product) error {
	raw, err := json.Marshal(productSnapshot{Product: *product, Version: product.Version})
	if err != nil {
		return err
	}
	return r.client.Set(ctx, generateProductKey(product.ProductID), raw, r.ttl).Err()
}

func (r *ProductCacheRepo) DeleteProduct(ctx context.Context, productIDs ...int64) error {
	if len(productIDs) == 0 {
		return nil
	}
	keys := make([]string, 0, len(productIDs))
	for _, id := range productIDs {
		keys = append(keys, generateProductKey(id))
	}
	return r.client.Del(ctx, keys...).Err()
}

var _ IProductCacheRepository = (*ProductCacheRepo)(nil)
