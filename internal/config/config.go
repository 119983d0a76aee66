package config

import (
	"fmt"
	"net/url"
	"slices"
	"time"
	_ "time/tzdata"

	pkgconfig "github.com/utafrali/grocify/pkg/config"
	"github.com/utafrali/grocify/pkg/database"
	"github.com/utafrali/grocify/pkg/httpclient"
	"github.com/utafrali/grocify/pkg/middleware"
	"github.com/utafrali/grocify/pkg/tracing"

	"github.com/utafrali/grocify/internal/report"
)

// Order store backends selectable with ORDER_STORE.
const (
	StoreMongo    = "mongo"
	StorePostgres = "postgres"
	StoreMemory   = "memory"
)

// Config holds all configuration for the API server.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort           int      `env:"GROCIFY_HTTP_PORT" envDefault:"5000"`
	CORSAllowedOrigins []string `env:"CORS_ALLOWED_ORIGINS" envDefault:"*" envSeparator:","`
	PprofAllowedCIDRs  []string `env:"PPROF_ALLOWED_CIDRS" envSeparator:","`
	RateLimitRPS       float64  `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst     int      `env:"RATE_LIMIT_BURST" envDefault:"20"`

	// Order store
	OrderStore string `env:"ORDER_STORE" envDefault:"mongo"`

	// MongoDB
	MongoURI        string `env:"MONGO_URI" envDefault:"mongodb://localhost:27017"`
	MongoDatabase   string `env:"MONGO_DATABASE" envDefault:"grocery_store"`
	MongoCollection string `env:"MONGO_COLLECTION" envDefault:"orders"`
	MongoMaxPool    uint64 `env:"MONGO_MAX_POOL_SIZE" envDefault:"20"`

	// PostgreSQL
	PostgresHost   string        `env:"POSTGRES_HOST" envDefault:"localhost"`
	PostgresPort   int           `env:"POSTGRES_PORT" envDefault:"5432"`
	PostgresUser   string        `env:"POSTGRES_USER" envDefault:"grocify"`
	PostgresPass   string        `env:"POSTGRES_PASSWORD" envDefault:"grocify_secret"`
	PostgresDB     string        `env:"POSTGRES_DB" envDefault:"grocery_store"`
	PostgresSSL    string        `env:"POSTGRES_SSL_MODE" envDefault:"disable"`
	DBMaxConns     int32         `env:"DB_MAX_CONNS" envDefault:"10"`
	DBMinConns     int32         `env:"DB_MIN_CONNS" envDefault:"2"`
	DBMaxLifetime  time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBMaxIdleTime  time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	LogSlowQueryMS int           `env:"LOG_SLOW_QUERY_MS" envDefault:"200"`

	// Redis
	RedisEnabled        bool   `env:"REDIS_ENABLED" envDefault:"false"`
	RedisAddr           string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword       string `env:"REDIS_PASSWORD"`
	RedisDB             int    `env:"REDIS_DB" envDefault:"0"`
	IdempotencyTTLHours int    `env:"IDEMPOTENCY_TTL_HOURS" envDefault:"24"`

	// Kafka
	KafkaEnabled bool     `env:"KAFKA_ENABLED" envDefault:"false"`
	KafkaBrokers []string `env:"KAFKA_BROKERS" envDefault:"localhost:9092" envSeparator:","`

	// Tracing
	OTelEnabled    bool    `env:"OTEL_ENABLED" envDefault:"false"`
	OTelEndpoint   string  `env:"OTEL_EXPORTER_OTLP_ENDPOINT" envDefault:"localhost:4318"`
	OTelSampleRate float64 `env:"OTEL_SAMPLE_RATE" envDefault:"1.0"`

	// Report
	ReportTitle          string `env:"REPORT_TITLE" envDefault:"Grocify - Order Report"`
	ReportCurrencySymbol string `env:"REPORT_CURRENCY_SYMBOL" envDefault:"Rs."`
	ReportTimezone       string `env:"REPORT_TIMEZONE" envDefault:"UTC"`
	ReportFontPath       string `env:"REPORT_FONT_PATH"`
	ReportFontBoldPath   string `env:"REPORT_FONT_BOLD_PATH"`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load grocify config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if c.HTTPPort < 1 || c.HTTPPort > 65535 {
		return fmt.Errorf("invalid HTTP port: %d", c.HTTPPort)
	}
	if !slices.Contains([]string{StoreMongo, StorePostgres, StoreMemory}, c.OrderStore) {
		return fmt.Errorf("invalid ORDER_STORE %q: want mongo, postgres or memory", c.OrderStore)
	}
	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	if c.RateLimitRPS > 0 && c.RateLimitBurst < 1 {
		return fmt.Errorf("invalid RATE_LIMIT_BURST: %d", c.RateLimitBurst)
	}
	if c.IdempotencyTTLHours < 1 {
		return fmt.Errorf("invalid IDEMPOTENCY_TTL_HOURS: %d", c.IdempotencyTTLHours)
	}
	if c.OTelSampleRate < 0 || c.OTelSampleRate > 1 {
		return fmt.Errorf("invalid OTEL_SAMPLE_RATE: %v", c.OTelSampleRate)
	}
	if c.ReportFontBoldPath != "" && c.ReportFontPath == "" {
		return fmt.Errorf("REPORT_FONT_BOLD_PATH requires REPORT_FONT_PATH")
	}
	if _, err := time.LoadLocation(c.ReportTimezone); err != nil {
		return fmt.Errorf("invalid REPORT_TIMEZONE %q: %w", c.ReportTimezone, err)
	}
	return nil
}

// RateLimit returns the per-client limits for write-heavy routes. A
// non-positive RATE_LIMIT_RPS turns limiting off.
func (c *Config) RateLimit() middleware.RateLimitConfig {
	return middleware.RateLimitConfig{RPS: c.RateLimitRPS, Burst: c.RateLimitBurst}
}

// Postgres returns the pool settings for the postgres order store.
func (c *Config) Postgres() *database.PostgresConfig {
	return &database.PostgresConfig{
		Host:            c.PostgresHost,
		Port:            c.PostgresPort,
		User:            c.PostgresUser,
		Password:        c.PostgresPass,
		DBName:          c.PostgresDB,
		SSLMode:         c.PostgresSSL,
		MaxConns:        c.DBMaxConns,
		MinConns:        c.DBMinConns,
		MaxConnLifetime: c.DBMaxLifetime,
		MaxConnIdleTime: c.DBMaxIdleTime,
	}
}

// Mongo returns the client settings for the mongo order store.
func (c *Config) Mongo() database.MongoConfig {
	return database.MongoConfig{
		URI:            c.MongoURI,
		Database:       c.MongoDatabase,
		ConnectTimeout: 10 * time.Second,
		MaxPoolSize:    c.MongoMaxPool,
	}
}

// Redis returns the Redis client settings.
func (c *Config) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// IdempotencyTTL is how long an Idempotency-Key stays bound to its order.
func (c *Config) IdempotencyTTL() time.Duration {
	return time.Duration(c.IdempotencyTTLHours) * time.Hour
}

// SlowQueryThreshold is the duration above which store calls are logged.
func (c *Config) SlowQueryThreshold() time.Duration {
	return time.Duration(c.LogSlowQueryMS) * time.Millisecond
}

// Tracing returns the tracer settings for serviceName.
func (c *Config) Tracing(serviceName, version string) tracing.Config {
	return tracing.Config{
		ServiceName:    serviceName,
		ServiceVersion: version,
		Environment:    c.Environment,
		OTLPEndpoint:   c.OTelEndpoint,
		SampleRate:     c.OTelSampleRate,
		Enabled:        c.OTelEnabled,
	}
}

// Report returns the report formatting options. validate has already checked
// the time zone.
func (c *Config) Report() report.Options {
	opts := report.DefaultOptions()
	opts.Title = c.ReportTitle
	opts.CurrencySymbol = c.ReportCurrencySymbol
	if loc, err := time.LoadLocation(c.ReportTimezone); err == nil {
		opts.Location = loc
	}
	return opts
}

// ClientConfig holds configuration for the terminal client.
type ClientConfig struct {
	LogLevel string `env:"LOG_LEVEL" envDefault:"warn"`

	APIURL  string `env:"GROCIFY_API_URL" envDefault:"http://localhost:5000"`
	Session string `env:"GROCIFY_SESSION" envDefault:"default"`

	// Cart session store. With REDIS_ENABLED=false carts live only as long as
	// the process.
	RedisEnabled  bool   `env:"REDIS_ENABLED" envDefault:"true"`
	RedisAddr     string `env:"REDIS_ADDR" envDefault:"localhost:6379"`
	RedisPassword string `env:"REDIS_PASSWORD"`
	RedisDB       int    `env:"REDIS_DB" envDefault:"0"`
	CartTTLHours  int    `env:"CART_TTL_HOURS" envDefault:"168"`

	// HTTP client
	TimeoutSeconds int `env:"CLIENT_TIMEOUT_SECONDS" envDefault:"10"`
	MaxRetries     int `env:"CLIENT_MAX_RETRIES" envDefault:"3"`

	// Circuit breaker
	CBFailureRatio float64       `env:"CB_FAILURE_RATIO" envDefault:"0.6"`
	CBMinRequests  uint32        `env:"CB_MIN_REQUESTS" envDefault:"5"`
	CBOpenTimeout  time.Duration `env:"CB_OPEN_TIMEOUT" envDefault:"30s"`
}

// LoadClient reads the terminal client configuration from environment variables.
func LoadClient() (*ClientConfig, error) {
	cfg := &ClientConfig{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load client config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks configuration invariants. The CLI calls it again after
// applying flag overrides.
func (c *ClientConfig) Validate() error {
	u, err := url.Parse(c.APIURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid GROCIFY_API_URL %q", c.APIURL)
	}
	if c.Session == "" {
		return fmt.Errorf("session must not be empty")
	}
	if c.CartTTLHours < 1 {
		return fmt.Errorf("invalid CART_TTL_HOURS: %d", c.CartTTLHours)
	}
	if c.TimeoutSeconds < 1 {
		return fmt.Errorf("invalid CLIENT_TIMEOUT_SECONDS: %d", c.TimeoutSeconds)
	}
	if c.MaxRetries < 0 {
		return fmt.Errorf("invalid CLIENT_MAX_RETRIES: %d", c.MaxRetries)
	}
	if c.CBFailureRatio <= 0 || c.CBFailureRatio > 1 {
		return fmt.Errorf("invalid CB_FAILURE_RATIO: %v", c.CBFailureRatio)
	}
	return nil
}

// Redis returns the Redis client settings for the cart store.
func (c *ClientConfig) Redis() database.RedisConfig {
	return database.RedisConfig{Addr: c.RedisAddr, Password: c.RedisPassword, DB: c.RedisDB}
}

// CartTTL is how long an untouched cart is kept.
func (c *ClientConfig) CartTTL() time.Duration {
	return time.Duration(c.CartTTLHours) * time.Hour
}

// HTTPClient returns the retrying HTTP client settings.
func (c *ClientConfig) HTTPClient() httpclient.Config {
	cfg := httpclient.DefaultConfig()
	cfg.Timeout = time.Duration(c.TimeoutSeconds) * time.Second
	cfg.MaxRetries = c.MaxRetries
	return cfg
}

// CircuitBreaker returns the breaker settings for the API client.
func (c *ClientConfig) CircuitBreaker() httpclient.CircuitBreakerConfig {
	cfg := httpclient.DefaultCircuitBreakerConfig("grocify-api")
	cfg.FailureRatio = c.CBFailureRatio
	cfg.MinRequests = c.CBMinRequests
	cfg.Timeout = c.CBOpenTimeout
	return cfg
}
