package service

import (
	"context"
	"errors"
	"time"

	"github.com/RoyceAzure/lab/ordercenter/internal/domain/model/event"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	tracerName        = "github.com/RoyceAzure/lab/ordercenter/internal/service"
	defaultMaxRetries = 3
)

// EventPublisher 交易 commit 後發布領域事件, 發布失敗只記錄 log
type EventPublisher interface {
	Publish(ctx context.Context, events ...event.Event) error
}

type options struct {
	publisher  EventPublisher
	tracer     trace.Tracer
	logger     zerolog.Logger
	maxRetries int
	now        func() time.Time
}

type Option func(*options)

func WithEventPublisher(publisher EventPublisher) Option {
	return func(o *options) {
		o.publisher = publisher
	}
}

func WithTracer(tracer trace.Tracer) Option {
	return func(o *options) {
		o.tracer = tracer
	}
}

func WithLogger(logger zerolog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// WithMaxRetries 商品 version 衝突時整筆操作的最大重試次數
func WithMaxRetries(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.maxRetries = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

func newOptions(opts ...Option) options {
	o := options{
		tracer:     otel.Tracer(tracerName),
		logger:     zerolog.Nop(),
		maxRetries: defaultMaxRetries,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}

// stockTx 執行會寫入商品庫存的交易, version 衝突時重跑 fn
// fn 每次重試都會重新讀取資料, 不可依賴上一輪的結果
func stockTx(ctx context.Context, store db.UnifiedDB, o options, op string, fn func(tx db.UnifiedDB) error) error {
	for attempt := 0; ; attempt++ {
		err := store.ExecTx(ctx, fn)
		if !errors.Is(err, db.ErrStaleProduct) {
			return err
		}
		if attempt >= o.maxRetries {
			o.logger.Warn().Str("op", op).Int("attempts", attempt+1).Msg("giving up after stale product writes")
			return ErrConcurrentUpdate
		}
		o.logger.Debug().Str("op", op).Int("attempt", attempt+1).Msg("stale product, retrying")
	}
}

func publish(ctx context.Context, o options, events ...event.Event) {
	if o.publisher == nil || len(events) == 0 {
		return
	}
	if err := o.publisher.Publish(ctx, events...); err != nil {
		for _, evt := range events {
			o.logger.Error().Err(err).
				Str("event_type", string(evt.Type())).
				Str("event_id", evt.GetID()).
				Int64("aggregate_id", evt.GetAggregateID()).
				Msg("publish event failed")
		}
	}
}

// mapNotFound 將 repository 的 ErrRecordNotFound 轉為呼叫端指定的錯誤
func mapNotFound(err, notFound error) error {
	if errors.Is(err, db.ErrRecordNotFound) {
		return notFound
	}
	if errors.Is(err, db.ErrDuplicateKey) {
		return ErrDuplicate
	}
	return err
}

func endSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}
