package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	viper "github.com/spf13/viper"
)

const (
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

type Config struct {
	ServerPort string `mapstructure:"SERVER_PORT"`
	DbDriver   string `mapstructure:"DB_DRIVER"`
	DbName     string `mapstructure:"POSTGRES_DB"`
	DbHost     string `mapstructure:"POSTGRES_HOST"`
	DbPort     string `mapstructure:"POSTGRES_PORT"`
	DbUser     string `mapstructure:"POSTGRES_USER"`
	DbPas      string `mapstructure:"POSTGRES_PASSWORD"`

	RedisAddr       string        `mapstructure:"REDIS_ADDR"`
	RedisPassword   string        `mapstructure:"REDIS_PASSWORD"`
	RedisDB         int           `mapstructure:"REDIS_DB"`
	ProductCacheTTL time.Duration `mapstructure:"PRODUCT_CACHE_TTL"`

	KafkaBrokers []string `mapstructure:"KAFKA_BROKERS"`
	KafkaTopic   string   `mapstructure:"KAFKA_TOPIC"`

	OtelEndpoint string `mapstructure:"OTEL_ENDPOINT"`
	LogLevel     string `mapstructure:"LOG_LEVEL"`

	StockMaxRetries int `mapstructure:"STOCK_MAX_RETRIES"`

	RateLimitCapacity     int64         `mapstructure:"RATE_LIMIT_CAPACITY"`
	RateLimitRefillRate   time.Duration `mapstructure:"RATE_LIMIT_REFILL_RATE"`
	RateLimitRefillTokens int64         `mapstructure:"RATE_LIMIT_REFILL_TOKENS"`
}

var defaults = map[string]any{
	"SERVER_PORT":              "8080",
	"DB_DRIVER":                DriverPostgres,
	"POSTGRES_DB":              "ordercenter",
	"POSTGRES_HOST":            "localhost",
	"POSTGRES_PORT":            "5432",
	"POSTGRES_USER":            "postgres",
	"POSTGRES_PASSWORD":        "",
	"REDIS_ADDR":               "",
	"REDIS_PASSWORD":           "",
	"REDIS_DB":                 0,
	"PRODUCT_CACHE_TTL":        "5m",
	"KAFKA_BROKERS":            []string{},
	"KAFKA_TOPIC":              "ordercenter.order-events",
	"OTEL_ENDPOINT":            "",
	"LOG_LEVEL":                "info",
	"STOCK_MAX_RETRIES":        3,
	"RATE_LIMIT_CAPACITY":      100,
	"RATE_LIMIT_REFILL_RATE":   "1s",
	"RATE_LIMIT_REFILL_TOKENS": 50,
}

// Loader path 可為空, 此時只讀環境變數與預設值
type Loader struct {
	v    *viper.Viper
	path string
}

func NewLoader(path string) *Loader {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.AutomaticEnv()
	if path != "" {
		v.SetConfigFile(path)
	}
	return &Loader{v: v, path: path}
}

/*
單純回傳錯誤  由外部決定要不要Fatal
設定檔不存在時不算錯誤, 直接使用環境變數
*/
func (l *Loader) Load() (*Config, error) {
	if l.path != "" {
		if _, err := os.Stat(l.path); err == nil {
			if err := l.v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("read config %s: %w", l.path, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, err
		}
	}

	cf := &Config{}
	if err := l.v.Unmarshal(cf); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if err := cf.Validate(); err != nil {
		return nil, err
	}
	return cf, nil
}

// Watch 設定檔變動時重新載入, 載入失敗時 cfg 為 nil 並帶回錯誤
func (l *Loader) Watch(onChange func(*Config, error)) {
	if l.path == "" {
		return
	}
	l.v.OnConfigChange(func(e fsnotify.Event) {
		if !e.Has(fsnotify.Write) && !e.Has(fsnotify.Create) {
			return
		}
		onChange(l.Load())
	})
	l.v.WatchConfig()
}

func (cf *Config) Validate() error {
	switch cf.DbDriver {
	case DriverPostgres, DriverMemory:
	default:
		return fmt.Errorf("DB_DRIVER must be %q or %q, got %q", DriverPostgres, DriverMemory, cf.DbDriver)
	}
	if cf.StockMaxRetries < 0 {
		return fmt.Errorf("STOCK_MAX_RETRIES cannot be negative")
	}
	if cf.RateLimitCapacity <= 0 || cf.RateLimitRefillTokens <= 0 || cf.RateLimitRefillRate <= 0 {
		return fmt.Errorf("RATE_LIMIT_* must be positive")
	}
	return nil
}

// LoadConfig 一次性載入
func LoadConfig(path string) (*Config, error) {
	return NewLoader(path).Load()
}
