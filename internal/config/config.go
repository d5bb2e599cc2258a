package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/v2"
)

const (
	SourceSheets = "sheets"
	SourceDB     = "db"

	CartStoreMemory = "memory"
	CartStoreRedis  = "redis"

	StorageGCS    = "gcs"
	StorageMemory = "memory"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	AppEnv             string
	Port               string
	DatabaseURL        string
	RedisURL           string
	CORSAllowedOrigins []string
	MigrationsAuto     bool

	CatalogSource          string
	CatalogID              string
	CatalogRefreshInterval time.Duration
	CatalogCacheTTL        time.Duration
	CatalogImagesFile      string

	SheetsID      string
	SheetsAPIKey  string
	SheetsTimeout time.Duration

	CartStore string
	CartTTL   time.Duration

	AdminEmail        string
	AdminPasswordHash string
	JWTSecret         string
	JWTIssuer         string
	JWTAudience       string
	AccessTokenTTL    time.Duration
	CookieDomain      string
	CookieSecure      bool
	CookieSameSite    http.SameSite
	CSRFEnabled       bool
	AuditEnabled      bool

	StorageDriver        string
	StorageBucket        string
	StoragePublicBaseURL string
	UploadMaxFiles       int
	UploadMaxFileBytes   int64

	PublicRateLimit      string
	LoginRateLimitMax    int
	LoginRateLimitWindow time.Duration

	OrderBrandName     string
	OrderWhatsAppPhone string

	WorkerConcurrency int
	WorkerHTTPAddr    string
	QueueName         string
	QueueMaxRetry     int
	QueueTimeout      time.Duration
	QueueRetryBase    time.Duration

	IdempotencyTTL  time.Duration
	ShutdownTimeout time.Duration
	ReadyTimeout    time.Duration
	HSTSEnabled     bool

	LogFormat        string
	LogLevel         string
	MetricsEnabled   bool
	MetricsNamespace string
	MetricsBuckets   string
	TracingExporter  string
	TracingEndpoint  string
	TracingSampling  float64
	PprofEnabled     bool
	PprofUser        string
	PprofPass        string
}

// Load reads configuration from environment variables and optional .env files.
func Load() (*Config, error) {
	_ = godotenv.Load()

	k := koanf.New(".")
	if err := k.Load(env.Provider("", ".", func(s string) string { return s }), nil); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	cfg := &Config{
		AppEnv:             valueOrDefault(k.String("APP_ENV"), "development"),
		Port:               valueOrDefault(k.String("API_PORT"), valueOrDefault(k.String("PORT"), "8080")),
		DatabaseURL:        k.String("DATABASE_URL"),
		RedisURL:           k.String("REDIS_URL"),
		CORSAllowedOrigins: splitAndTrim(valueOrDefault(k.String("CORS_ALLOWED_ORIGINS"), "*")),
		MigrationsAuto:     parseBool(k.String("MIGRATIONS_AUTO")),

		CatalogSource:          strings.ToLower(valueOrDefault(k.String("CATALOG_SOURCE"), SourceSheets)),
		CatalogID:              strings.TrimSpace(k.String("CATALOG_ID")),
		CatalogRefreshInterval: parseDuration(k.String("CATALOG_REFRESH_INTERVAL"), "5m"),
		CatalogCacheTTL:        parseDuration(k.String("CATALOG_CACHE_TTL"), "60s"),
		CatalogImagesFile:      strings.TrimSpace(k.String("CATALOG_IMAGES_FILE")),

		SheetsID:      strings.TrimSpace(k.String("GOOGLE_SHEETS_ID")),
		SheetsAPIKey:  strings.TrimSpace(k.String("GOOGLE_SHEETS_API_KEY")),
		SheetsTimeout: parseDuration(k.String("GOOGLE_SHEETS_TIMEOUT"), "10s"),

		CartStore: strings.ToLower(valueOrDefault(k.String("CART_STORE"), CartStoreRedis)),
		CartTTL:   parseDuration(k.String("CART_TTL"), "24h"),

		AdminEmail:        strings.TrimSpace(k.String("ADMIN_EMAIL")),
		AdminPasswordHash: strings.TrimSpace(k.String("ADMIN_PASSWORD_HASH")),
		JWTSecret:         k.String("JWT_SECRET"),
		JWTIssuer:         valueOrDefault(k.String("JWT_ISSUER"), "catalogo-mayorista"),
		JWTAudience:       valueOrDefault(k.String("JWT_AUDIENCE"), "catalogo-admin"),
		AccessTokenTTL:    parseDuration(k.String("ACCESS_TOKEN_TTL"), "15m"),
		CookieDomain:      strings.TrimSpace(k.String("COOKIE_DOMAIN")),
		CookieSecure:      parseBool(k.String("COOKIE_SECURE")),
		CookieSameSite:    parseSameSite(k.String("COOKIE_SAMESITE")),
		CSRFEnabled:       parseBoolDefault(k.String("CSRF_ENABLED"), true),
		AuditEnabled:      parseBoolDefault(k.String("AUDIT_ENABLED"), true),

		StorageDriver:        strings.ToLower(valueOrDefault(k.String("STORAGE_DRIVER"), StorageMemory)),
		StorageBucket:        valueOrDefault(k.String("STORAGE_BUCKET"), "images"),
		StoragePublicBaseURL: valueOrDefault(k.String("STORAGE_PUBLIC_BASE_URL"), "https://storage.googleapis.com"),
		UploadMaxFiles:       parseInt(k.String("UPLOAD_MAX_FILES"), 10),
		UploadMaxFileBytes:   int64(parseInt(k.String("UPLOAD_MAX_FILE_BYTES"), 10<<20)),

		PublicRateLimit:      valueOrDefault(k.String("RATE_LIMIT_PUBLIC"), "120-M"),
		LoginRateLimitMax:    parseInt(k.String("LOGIN_RATE_LIMIT_MAX"), 5),
		LoginRateLimitWindow: parseDuration(k.String("LOGIN_RATE_LIMIT_WINDOW"), "1m"),

		OrderBrandName:     valueOrDefault(k.String("ORDER_BRAND_NAME"), "Maycam Games"),
		OrderWhatsAppPhone: strings.TrimSpace(k.String("ORDER_WHATSAPP_PHONE")),

		WorkerConcurrency: parseInt(k.String("WORKER_CONCURRENCY"), 5),
		WorkerHTTPAddr:    valueOrDefault(k.String("WORKER_HTTP_ADDR"), ":9091"),
		QueueName:         valueOrDefault(k.String("QUEUE_NAME"), "default"),
		QueueMaxRetry:     parseInt(k.String("QUEUE_MAX_RETRY"), 5),
		QueueTimeout:      parseDuration(k.String("QUEUE_TASK_TIMEOUT"), "2m"),
		QueueRetryBase:    parseDuration(k.String("QUEUE_RETRY_BASE"), "2s"),

		IdempotencyTTL:  parseDuration(k.String("IDEMPOTENCY_TTL"), "24h"),
		ShutdownTimeout: parseDuration(k.String("SHUTDOWN_TIMEOUT"), "15s"),
		ReadyTimeout:    parseDuration(k.String("HEALTH_READY_TIMEOUT"), "500ms"),
		HSTSEnabled:     parseBool(k.String("SECURITY_HSTS")),

		LogFormat:        valueOrDefault(k.String("OBS_LOG_FORMAT"), "json"),
		LogLevel:         valueOrDefault(k.String("LOG_LEVEL"), "info"),
		MetricsEnabled:   parseBoolDefault(k.String("OBS_ENABLE_PROMETHEUS"), true),
		MetricsNamespace: valueOrDefault(k.String("OBS_METRICS_NAMESPACE"), "catalogo"),
		MetricsBuckets:   strings.TrimSpace(k.String("OBS_METRICS_BUCKETS_MS")),
		TracingExporter:  valueOrDefault(k.String("OBS_TRACING_EXPORTER"), "none"),
		TracingEndpoint:  strings.TrimSpace(k.String("OTEL_EXPORTER_OTLP_ENDPOINT")),
		TracingSampling:  parseFloat(k.String("OTEL_SAMPLER_RATIO"), 0.1),
		PprofEnabled:     parseBool(k.String("PPROF_ENABLED")),
		PprofUser:        strings.TrimSpace(k.String("PPROF_USER")),
		PprofPass:        strings.TrimSpace(k.String("PPROF_PASS")),
	}
	if cfg.TracingEndpoint != "" && k.String("OBS_TRACING_EXPORTER") == "" {
		cfg.TracingExporter = "otlp"
	}

	if cfg.CookieSameSite == http.SameSiteDefaultMode {
		cfg.CookieSameSite = http.SameSiteLaxMode
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	if c.RedisURL == "" {
		return errors.New("REDIS_URL is required")
	}
	switch c.CatalogSource {
	case SourceSheets:
	case SourceDB:
		if c.DatabaseURL == "" {
			return errors.New("DATABASE_URL is required when CATALOG_SOURCE=db")
		}
	default:
		return fmt.Errorf("CATALOG_SOURCE must be %q or %q, got %q", SourceSheets, SourceDB, c.CatalogSource)
	}
	switch c.CartStore {
	case CartStoreMemory, CartStoreRedis:
	default:
		return fmt.Errorf("CART_STORE must be %q or %q, got %q", CartStoreMemory, CartStoreRedis, c.CartStore)
	}
	switch c.StorageDriver {
	case StorageGCS, StorageMemory:
	default:
		return fmt.Errorf("STORAGE_DRIVER must be %q or %q, got %q", StorageGCS, StorageMemory, c.StorageDriver)
	}
	if c.PprofEnabled && c.PprofUser == "" && c.AppEnv == "production" {
		return errors.New("PPROF_USER is required to expose pprof in production")
	}
	if c.AdminEnabled() && c.JWTSecret == "" {
		return errors.New("JWT_SECRET is required when the admin surface is enabled")
	}
	return nil
}

// AdminEnabled reports whether the admin back office can be mounted.
func (c *Config) AdminEnabled() bool {
	return c.DatabaseURL != "" && c.AdminEmail != "" && c.AdminPasswordHash != ""
}

// SheetsConfigured reports whether spreadsheet credentials are present.
func (c *Config) SheetsConfigured() bool {
	return c.SheetsID != "" && c.SheetsAPIKey != ""
}

// HTTPAddr returns the address the HTTP server should bind to.
func (c *Config) HTTPAddr() string {
	port := strings.TrimSpace(c.Port)
	if port == "" {
		port = "8080"
	}
	if strings.HasPrefix(port, ":") {
		return port
	}
	return ":" + port
}

func splitAndTrim(value string) []string {
	if value == "" {
		return nil
	}
	parts := strings.Split(value, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}
	return result
}

func valueOrDefault(value, fallback string) string {
	if strings.TrimSpace(value) != "" {
		return value
	}
	return fallback
}

func parseDuration(value, fallback string) time.Duration {
	base := strings.TrimSpace(value)
	if base == "" {
		base = fallback
	}
	d, err := time.ParseDuration(base)
	if err != nil {
		d, _ = time.ParseDuration(fallback)
	}
	return d
}

func parseInt(value string, fallback int) int {
	n, err := strconv.Atoi(strings.TrimSpace(value))
	if err != nil || n <= 0 {
		return fallback
	}
	return n
}

func parseFloat(value string, fallback float64) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(value), 64)
	if err != nil {
		return fallback
	}
	return f
}

func parseBool(value string) bool {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "1", "true", "yes", "on":
		return true
	default:
		return false
	}
}

func parseBoolDefault(value string, fallback bool) bool {
	if strings.TrimSpace(value) == "" {
		return fallback
	}
	return parseBool(value)
}

func parseSameSite(value string) http.SameSite {
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "strict":
		return http.SameSiteStrictMode
	case "none":
		return http.SameSiteNoneMode
	case "lax":
		return http.SameSiteLaxMode
	default:
		return http.SameSiteDefaultMode
	}
}

// MustLoad behaves like Load but panics on error. Useful for tests and command entrypoints.
func MustLoad() *Config {
	cfg, err := Load()
	if err != nil {
		panic(err)
	}
	return cfg
}

// LoadForTests allows tests to override environment variables without touching the real environment.
func LoadForTests(env map[string]string) (*Config, error) {
	original := make(map[string]string, len(env))
	for key := range env {
		original[key] = os.Getenv(key)
		if err := setEnvVar(key, env[key]); err != nil {
			return nil, err
		}
	}
	cfg, err := Load()
	restoreErr := restoreEnv(original)
	if err != nil {
		return nil, err
	}
	return cfg, restoreErr
}

func setEnvVar(key, value string) error {
	if value == "" {
		return os.Unsetenv(key)
	}
	return os.Setenv(key, value)
}

func restoreEnv(values map[string]string) error {
	var errs []string
	for key, value := range values {
		if err := setEnvVar(key, value); err != nil {
			errs = append(errs, fmt.Sprintf("%s: %v", key, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("restore env: %s", strings.Join(errs, "; "))
	}
	return nil
}
