package config

import (
	"sync"
	"time"
)

// AppConfig holds global application configuration
var AppConfig *Config
var once sync.Once

type Config struct {
	AppName string
	Port    string
	Env     string
	Debug   bool

	// APIBaseURL is the remote shop backend, e.g. https://shop.example.com
	APIBaseURL  string
	HTTPTimeout time.Duration

	// StoreDSN is the SQLite file holding the guest cart and auth token.
	StoreDSN string
	// MySQLDSN switches the local store to MySQL when set.
	MySQLDSN string

	RedisAddr string
	RedisPass string
	// CatalogTTL bounds how long products, regions and fee-per-kilo are served from cache.
	CatalogTTL time.Duration

	VoucherDebounce time.Duration
	// LoginPolicy is "discard" (default) or "merge"; see cart.LoginPolicy.
	LoginPolicy            string
	CatalogRefreshSchedule string
	DefaultRegion          string

	// LocalAPIKey protects the local storefront API when set.
	LocalAPIKey string
}

// FromEnv builds a Config from environment variables.
func FromEnv() *Config {
	return &Config{
		AppName:                GetEnv("APP_NAME", "storefront"),
		Port:                   GetEnv("PORT", "8080"),
		Env:                    GetEnv("APP_ENV", "development"),
		Debug:                  getBool("DEBUG"),
		APIBaseURL:             GetEnv("API_BASE_URL", "http://localhost:4000"),
		HTTPTimeout:            getDuration("HTTP_TIMEOUT", 15*time.Second),
		StoreDSN:               GetEnv("STORE_DSN", "storefront.db"),
		MySQLDSN:               GetEnv("MYSQL_DSN", ""),
		RedisAddr:              GetEnv("REDIS_ADDR", ""),
		RedisPass:              GetEnv("REDIS_PASS", ""),
		CatalogTTL:             getDuration("CATALOG_TTL", 5*time.Minute),
		VoucherDebounce:        getDuration("VOUCHER_DEBOUNCE", 500*time.Millisecond),
		LoginPolicy:            GetEnv("LOGIN_POLICY", "discard"),
		CatalogRefreshSchedule: GetEnv("CATALOG_REFRESH_SCHEDULE", "@every 5m"),
		DefaultRegion:          GetEnv("DEFAULT_REGION", ""),
		LocalAPIKey:            GetEnv("LOCAL_API_KEY", ""),
	}
}

// LoadAppConfig initializes the global AppConfig variable
func LoadAppConfig() *Config {
	once.Do(func() {
		AppConfig = FromEnv()
	})
	return AppConfig
}
