package ratelimit

import (
	"sync"
	"sync/atomic"
	"time"
)

type Config struct {
	Capacity     int64
	RefillTokens int64         // 每次補充的 token 數
	RefillRate   time.Duration // 補充時間間隔
}

func DefaultConfig() Config {
	return Config{
		Capacity:     100,
		RefillTokens: 50,
		RefillRate:   time.Second,
	}
}

/*
TokenBucket 以背景 goroutine 定期補充 token
請使用 defer 呼叫 Stop()
*/
type TokenBucket struct {
	cfg     Config
	current atomic.Int64
	cancel  chan struct{}
	once    sync.Once
}

func NewTokenBucket(cfg Config) *TokenBucket {
	def := DefaultConfig()
	if cfg.Capacity <= 0 {
		cfg.Capacity = def.Capacity
	}
	if cfg.RefillTokens <= 0 {
		cfg.RefillTokens = def.RefillTokens
	}
	if cfg.RefillRate <= 0 {
		cfg.RefillRate = def.RefillRate
	}

	t := &TokenBucket{
		cfg:    cfg,
		cancel: make(chan struct{}),
	}
	t.current.Store(cfg.Capacity)
	go t.background()
	return t
}

func (t *TokenBucket) Allow() bool {
	for {
		current := t.current.Load()
		if current <= 0 {
			return false
		}
		if t.current.CompareAndSwap(current, current-1) {
			return true
		}
	}
}

func (t *TokenBucket) Available() int64 {
	return t.current.Load()
}

func (t *TokenBucket) refill() {
	for {
		current := t.current.Load()
		next := min(current+t.cfg.RefillTokens, t.cfg.Capacity)
		if t.current.CompareAndSwap(current, next) {
			return
		}
	}
}

func (t *TokenBucket) background() {
	ticker := time.NewTicker(t.cfg.RefillRate)
	defer ticker.Stop()

	for {
		select {
		case <-t.cancel:
			return
		case <-ticker.C:
			t.refill()
		}
	}
}

func (t *TokenBucket) Stop() {
	t.once.Do(func() {
		close(t.cancel)
	})
}
