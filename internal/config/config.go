package config

import (
	"fmt"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

func init() {
	// Load .env file if it exists (silent fail if not)
	_ = godotenv.Load()
}

// Config holds all application configuration loaded from environment variables.
type Config struct {
	Server      ServerConfig
	App         AppConfig
	Prices      PricesConfig
	Sync        SyncConfig
	Refresh     RefreshConfig
	Cache       CacheConfig
	Database    DatabaseConfig
	InventoryDB InventoryDBConfig
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host            string        `envconfig:"SERVER_HOST" default:"0.0.0.0"`
	Port            int           `envconfig:"SERVER_PORT" default:"8080"`
	ReadTimeout     time.Duration `envconfig:"SERVER_READ_TIMEOUT" default:"15s"`
	WriteTimeout    time.Duration `envconfig:"SERVER_WRITE_TIMEOUT" default:"120s"`
	ShutdownTimeout time.Duration `envconfig:"SERVER_SHUTDOWN_TIMEOUT" default:"30s"`
}

// AppConfig holds application-level settings.
type AppConfig struct {
	Name        string `envconfig:"APP_NAME" default:"skinvault-api"`
	Environment string `envconfig:"APP_ENV" default:"development"`
	Version     string `envconfig:"APP_VERSION" default:"1.0.0"`
	// CronSecret guards the scheduled refresh endpoint. Empty means the
	// endpoint is disabled, not open.
	CronSecret string `envconfig:"CRON_SECRET" default:""`
}

// PricesConfig holds marketplace adapter and cache settings.
type PricesConfig struct {
	TTL            time.Duration `envconfig:"PRICE_CACHE_TTL" default:"5m"`
	RequestTimeout time.Duration `envconfig:"PRICE_REQUEST_TIMEOUT" default:"30s"`
	// MinInterval is the minimum spacing between two calls to the same
	// marketplace. One shared per-IP quota per marketplace upstream.
	MinInterval time.Duration `envconfig:"PRICE_MIN_INTERVAL" default:"3s"`

	SteamFeePercent    float64 `envconfig:"STEAM_FEE_PERCENT" default:"15"`
	CSFloatFeePercent  float64 `envconfig:"CSFLOAT_FEE_PERCENT" default:"2"`
	SkinportFeePercent float64 `envconfig:"SKINPORT_FEE_PERCENT" default:"12"`

	SteamEndpoint    string `envconfig:"STEAM_PRICE_ENDPOINT" default:"https://steamcommunity.com/market/priceoverview/"`
	CSFloatEndpoint  string `envconfig:"CSFLOAT_ENDPOINT" default:"https://csfloat.com/api/v1/listings"`
	CSFloatAPIKey    string `envconfig:"CSFLOAT_API_KEY" default:""`
	SkinportEndpoint string `envconfig:"SKINPORT_ENDPOINT" default:"https://api.skinport.com/v1/items"`
}

// SyncConfig holds inventory sync settings.
type SyncConfig struct {
	Endpoint            string        `envconfig:"STEAM_INVENTORY_ENDPOINT" default:"https://steamcommunity.com/inventory"`
	PageSize            int           `envconfig:"SYNC_PAGE_SIZE" default:"2000"`
	RequestTimeout      time.Duration `envconfig:"SYNC_REQUEST_TIMEOUT" default:"30s"`
	PageDelay           time.Duration `envconfig:"SYNC_PAGE_DELAY" default:"1s"`
	UserDelay           time.Duration `envconfig:"SYNC_USER_DELAY" default:"2s"`
	RateLimitCooldown   time.Duration `envconfig:"SYNC_RATE_LIMIT_COOLDOWN" default:"60s"`
	MaxRateLimitRetries int           `envconfig:"SYNC_MAX_RATE_LIMIT_RETRIES" default:"3"`
}

// RefreshConfig holds scheduled refresh driver settings.
type RefreshConfig struct {
	ActivityWindow  time.Duration `envconfig:"REFRESH_ACTIVITY_WINDOW" default:"168h"`
	StalenessWindow time.Duration `envconfig:"REFRESH_STALENESS_WINDOW" default:"24h"`
	UserDelay       time.Duration `envconfig:"REFRESH_USER_DELAY" default:"5s"`
	// Interval drives the optional in-process scheduler; 0 disables it
	// (refresh then runs only via the guarded endpoint).
	Interval time.Duration `envconfig:"REFRESH_INTERVAL" default:"0"`
}

// CacheConfig holds price cache backend settings.
type CacheConfig struct {
	Type string `envconfig:"CACHE_TYPE" default:"memory"` // memory or redis

	RedisHost     string `envconfig:"REDIS_HOST" default:"localhost"`
	RedisPort     int    `envconfig:"REDIS_PORT" default:"6379"`
	RedisPassword string `envconfig:"REDIS_PASSWORD" default:""`
	RedisDB       int    `envconfig:"REDIS_DB" default:"0"`
}

// DatabaseConfig holds MySQL connection settings (users and sync audit).
type DatabaseConfig struct {
	Host     string `envconfig:"DB_HOST" default:"localhost"`
	Port     int    `envconfig:"DB_PORT" default:"3306"`
	Name     string `envconfig:"DB_NAME" default:"skinvault"`
	User     string `envconfig:"DB_USER" default:"root"`
	Password string `envconfig:"DB_PASS" default:""`
}

// InventoryDBConfig holds inventory snapshot store settings.
type InventoryDBConfig struct {
	Type string `envconfig:"INVENTORY_DB_TYPE" default:"sqlite"` // sqlite or postgres
	Path string `envconfig:"INVENTORY_DB_PATH" default:"./data/inventory.db"`
	// PostgreSQL settings
	Host     string `envconfig:"INVENTORY_DB_HOST" default:"localhost"`
	Port     int    `envconfig:"INVENTORY_DB_PORT" default:"5432"`
	Name     string `envconfig:"INVENTORY_DB_NAME" default:"skinvault"`
	User     string `envconfig:"INVENTORY_DB_USER" default:"postgres"`
	Password string `envconfig:"INVENTORY_DB_PASS" default:""`
	SSLMode  string `envconfig:"INVENTORY_DB_SSLMODE" default:"disable"`
}

// PostgresDSN returns the PostgreSQL connection string.
func (i *InventoryDBConfig) PostgresDSN() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		i.User, i.Password, i.Host, i.Port, i.Name, i.SSLMode)
}

// Address returns the server address in host:port format.
func (s *ServerConfig) Address() string {
	return fmt.Sprintf("%s:%d", s.Host, s.Port)
}

// RedisAddress returns the Redis address in host:port format.
func (c *CacheConfig) RedisAddress() string {
	return fmt.Sprintf("%s:%d", c.RedisHost, c.RedisPort)
}

// DSN returns the MySQL data source name.
func (d *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
		d.User, d.Password, d.Host, d.Port, d.Name)
}

// IsDevelopment returns true if running in development mode.
func (a *AppConfig) IsDevelopment() bool {
	return a.Environment == "development"
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	var cfg Config

	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return &cfg, nil
}

// MustLoad loads configuration or panics on error.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}
