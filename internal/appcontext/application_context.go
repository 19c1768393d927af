package appcontext

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"

	"github.com/RoyceAzure/lab/ordercenter/internal/api"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/handler"
	m "github.com/RoyceAzure/lab/ordercenter/internal/api/middleware"
	"github.com/RoyceAzure/lab/ordercenter/internal/api/router"
	"github.com/RoyceAzure/lab/ordercenter/internal/config"
	"github.com/RoyceAzure/lab/ordercenter/internal/constants"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/producer"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/db"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/memory"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/redis_decorator"
	"github.com/RoyceAzure/lab/ordercenter/internal/infra/repository/redis_repo"
	"github.com/RoyceAzure/lab/ordercenter/internal/pkg/observability"
	"github.com/RoyceAzure/lab/ordercenter/internal/pkg/ratelimit"
	"github.com/RoyceAzure/lab/ordercenter/internal/service"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
)

const producerRetries = 3

type ApplicationContext struct {
	Cf     *config.Config
	Logger zerolog.Logger

	Store       db.UnifiedDB
	closeDB     func() error
	RedisClient *redis.Client
	Producer    *producer.OrderEventProducer
	Bucket      *ratelimit.TokenBucket

	ProductService       service.IProductService
	EstablishmentService service.IEstablishmentService
	OrderService         service.IOrderService

	Handler http.Handler

	shutdownTracing func(context.Context) error
	shutdownOnce    sync.Once
}

// NewApplicationContext 依設定建立所有元件, 任一步驟失敗時會釋放已建立的資源
func NewApplicationContext(ctx context.Context, cf *config.Config, logger zerolog.Logger) (*ApplicationContext, error) {
	app := &ApplicationContext{
		Cf:              cf,
		Logger:          logger,
		shutdownTracing: func(context.Context) error { return nil },
	}
	if err := app.Init(ctx); err != nil {
		if shutdownErr := app.Shutdown(ctx); shutdownErr != nil {
			logger.Warn().Err(shutdownErr).Msg("release partially initialized resources")
		}
		return nil, err
	}
	return app, nil
}

func (app *ApplicationContext) Init(ctx context.Context) error {
	steps := []struct {
		name string
		fn   func(context.Context) error
	}{
		{"tracing", app.setUpTracing},
		{"database", app.setUpStore},
		{"product cache", app.setUpProductCache},
		{"event producer", app.setUpProducer},
		{"services", app.setUpServices},
		{"http handler", app.setUpHandler},
	}
	for _, step := range steps {
		app.Logger.Info().Str("step", step.name).Msg("start setup")
		if err := step.fn(ctx); err != nil {
			return fmt.Errorf("setup %s: %w", step.name, err)
		}
	}
	return nil
}

func (app *ApplicationContext) setUpTracing(ctx context.Context) error {
	shutdown, err := observability.SetupTracing(ctx, app.Cf.OtelEndpoint)
	if err != nil {
		return err
	}
	app.shutdownTracing = shutdown
	return nil
}

func (app *ApplicationContext) setUpStore(ctx context.Context) error {
	if app.Cf.DbDriver == config.DriverMemory {
		app.Store = memory.NewMemoryDB()
		app.Logger.Warn().Msg("using in-memory store, data is lost on restart")
		return nil
	}

	store, err := OpenPostgres(app.Cf)
	if err != nil {
		return err
	}
	app.closeDB = store.Close
	if err := store.InitMigrate(); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	app.Store = store
	return nil
}

// setUpProductCache REDIS_ADDR 為空時不啟用快取
func (app *ApplicationContext) setUpProductCache(ctx context.Context) error {
	if app.Cf.RedisAddr == "" {
		return nil
	}
	client, err := redis_repo.NewRedisClient(ctx, app.Cf.RedisAddr,
		redis_repo.WithPassword(app.Cf.RedisPassword),
		redis_repo.WithDB(app.Cf.RedisDB),
	)
	if err != nil {
		return err
	}
	app.RedisClient = client
	cache := redis_repo.NewProductCacheRepo(client, app.Cf.ProductCacheTTL)
	app.Store = redis_decorator.NewCacheAsideStore(app.Store, cache, app.Logger)
	return nil
}

// setUpProducer KAFKA_BROKERS 為空時事件不對外發送
func (app *ApplicationContext) setUpProducer(ctx context.Context) error {
	if len(app.Cf.KafkaBrokers) == 0 {
		return nil
	}
	writer := producer.NewKafkaWriter(app.Cf.KafkaBrokers, app.Cf.KafkaTopic, app.Logger)
	app.Producer = producer.NewOrderEventProducer(writer, producerRetries)
	return nil
}

func (app *ApplicationContext) setUpServices(ctx context.Context) error {
	opts := []service.Option{
		service.WithLogger(app.Logger),
		service.WithTracer(otel.Tracer(constants.ServiceName)),
		service.WithMaxRetries(app.Cf.StockMaxRetries),
	}
	if app.Producer != nil {
		opts = append(opts, service.WithEventPublisher(app.Producer))
	}
	app.ProductService = service.NewProductService(app.Store, opts...)
	app.EstablishmentService = service.NewEstablishmentService(app.Store, opts...)
	app.OrderService = service.NewOrderService(app.Store, opts...)
	return nil
}

func (app *ApplicationContext) setUpHandler(ctx context.Context) error {
	server := api.NewServer(
		handler.NewProductHandler(app.ProductService),
		handler.NewEstablishmentHandler(app.EstablishmentService),
		handler.NewOrderHandler(app.OrderService),
	)
	app.Bucket = ratelimit.NewTokenBucket(ratelimit.Config{
		Capacity:     app.Cf.RateLimitCapacity,
		RefillTokens: app.Cf.RateLimitRefillTokens,
		RefillRate:   app.Cf.RateLimitRefillRate,
	})
	var limiter m.Limiter = app.Bucket
	app.Handler = router.SetupRouter(server, limiter, app.Logger)
	return nil
}

// OpenPostgres 只建立連線, 不做 migrate
func OpenPostgres(cf *config.Config) (*db.UnifiedDBImpl, error) {
	conn, err := db.GetDbConn(cf.DbName, cf.DbHost, cf.DbPort, cf.DbUser, cf.DbPas)
	if err != nil {
		return nil, fmt.Errorf("connect postgres: %w", err)
	}
	return db.NewUnifiedDB(conn), nil
}

// Shutdown 依建立的反向順序釋放資源, 可重複呼叫
func (app *ApplicationContext) Shutdown(ctx context.Context) error {
	var err error
	app.shutdownOnce.Do(func() {
		if app.Bucket != nil {
			app.Bucket.Stop()
		}
		if app.Producer != nil {
			err = errors.Join(err, app.Producer.Close())
		}
		if app.RedisClient != nil {
			err = errors.Join(err, app.RedisClient.Close())
		}
		if app.closeDB != nil {
			err = errors.Join(err, app.closeDB())
		}
		err = errors.Join(err, app.shutdownTracing(ctx))
	})
	return err
}
