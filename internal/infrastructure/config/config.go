package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// AppConfig encapsulates all runtime configuration knobs.
type AppConfig struct {
	App       AppSettings
	HTTP      HTTPSettings
	Auth      AuthSettings
	Log       LogSettings
	Database  DatabaseSettings
	Billingo  BillingoSettings
	Invoicing InvoicingSettings
	Events    EventsSettings
	PDFCache  PDFCacheSettings
	Audit     AuditSettings
}

type AppSettings struct {
	Name        string
	Version     string
	Environment string
}

type HTTPSettings struct {
	Port            int
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
	IdleTimeout     time.Duration
	ShutdownTimeout time.Duration
}

type AuthSettings struct {
	Enabled     bool
	IssuerURI   string
	JWKSetURI   string
	ClockSkew   time.Duration
	BypassPaths []string
}

type LogSettings struct {
	Level string
}

type DatabaseSettings struct {
	Host            string
	Port            int
	Database        string
	User            string
	Password        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
}

// BillingoSettings configures the connection to the billing provider.
type BillingoSettings struct {
	BaseURL    string
	APIKey     string
	APITimeout time.Duration
}

// InvoicingSettings holds the business-level invoicing knobs. These map
// one-to-one onto the invoice service's Settings.
type InvoicingSettings struct {
	DocumentBlockID    int64
	Language           string
	ElectronicInvoice  bool
	PaymentMethodLabel string
	QuantityUnit       string
	ShippingTitle      string
	ShippingVATRate    float64
	CreateZeroInvoice  bool
	ValidateTaxNumber  bool
}

// EventsSettings configures the lifecycle event stream consumer.
type EventsSettings struct {
	Enabled bool
	Brokers []string
	Topic   string
	GroupID string
}

type PDFCacheSettings struct {
	Enabled bool
	Dir     string
}

// AuditSettings controls persistence of provider request/response audit
// records. Body capture is opt-in since payloads can be large.
type AuditSettings struct {
	Enabled         bool
	LogRequestBody  bool
	LogResponseBody bool
	MaxBodySize     int
}

// Load resolves the application configuration from environment variables.
// It first attempts to load variables from a .env file if it exists.
// Environment variables set in the system take precedence over .env file values.
func Load() (AppConfig, error) {
	// Try to load .env file (ignore error if file doesn't exist)
	// This allows the application to work both with .env files (local dev)
	// and environment variables (Docker, production)
	_ = godotenv.Load()

	cfg := AppConfig{
		App: AppSettings{
			Name:        getEnv("APP_NAME", "ms_invoicing_core"),
			Version:     getEnv("APP_VERSION", "0.1.0"),
			Environment: getEnv("APP_ENV", "local"),
		},
		HTTP: HTTPSettings{
			Port:            getEnvAsInt("APP_PORT", 8080),
			ReadTimeout:     getEnvAsDuration("HTTP_READ_TIMEOUT", 10*time.Second),
			// Must exceed the 2m PDF download budget or the server cuts
			// the connection before the route times out.
			WriteTimeout:    getEnvAsDuration("HTTP_WRITE_TIMEOUT", 150*time.Second),
			IdleTimeout:     getEnvAsDuration("HTTP_IDLE_TIMEOUT", 120*time.Second),
			ShutdownTimeout: getEnvAsDuration("HTTP_SHUTDOWN_TIMEOUT", 30*time.Second),
		},
		Auth: AuthSettings{
			Enabled:     getEnvAsBool("AUTH_ENABLED", true),
			IssuerURI:   strings.TrimSpace(os.Getenv("JWT_ISSUER_URI")),
			JWKSetURI:   strings.TrimSpace(os.Getenv("JWT_JWK_SET_URI")),
			ClockSkew:   getEnvAsDuration("AUTH_CLOCK_SKEW", 2*time.Minute),
			BypassPaths: getEnvAsCSV("AUTH_BYPASS_PATHS", []string{"/health"}),
		},
		Log: LogSettings{
			Level: getEnv("LOG_LEVEL", "info"),
		},
		Database: DatabaseSettings{
			Host:            getEnv("DB_HOST", "localhost"),
			Port:            getEnvAsInt("DB_PORT", 5432),
			Database:        getEnv("DB_NAME", "ms_invoicing_core"),
			User:            getEnv("DB_USER", "postgres"),
			Password:        getEnv("DB_PASSWORD", ""),
			SSLMode:         getEnv("DB_SSL_MODE", "disable"),
			MaxOpenConns:    getEnvAsInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvAsInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: getEnvAsDuration("DB_CONN_MAX_LIFETIME", 30*time.Minute),
		},
		Billingo: BillingoSettings{
			BaseURL:    getEnv("BILLINGO_BASE_URL", "https://api.billingo.hu/v3"),
			APIKey:     strings.TrimSpace(os.Getenv("BILLINGO_API_KEY")),
			APITimeout: getEnvAsDuration("BILLINGO_API_TIMEOUT", 30*time.Second),
		},
		Invoicing: InvoicingSettings{
			DocumentBlockID:    getEnvAsInt64("INVOICE_BLOCK_ID", 0),
			Language:           getEnv("INVOICE_LANGUAGE", "hu"),
			ElectronicInvoice:  getEnvAsBool("INVOICE_ELECTRONIC", false),
			PaymentMethodLabel: getEnv("INVOICE_PAYMENT_METHOD", "Átutalás"),
			QuantityUnit:       getEnv("INVOICE_QUANTITY_UNIT", "db"),
			ShippingTitle:      getEnv("INVOICE_SHIPPING_TITLE", "Szállítás"),
			ShippingVATRate:    getEnvAsFloat("INVOICE_SHIPPING_VAT_RATE", 27),
			CreateZeroInvoice:  getEnvAsBool("INVOICE_CREATE_ZERO_TOTAL", true),
			ValidateTaxNumber:  getEnvAsBool("INVOICE_VALIDATE_TAX_NUMBER", true),
		},
		Events: EventsSettings{
			Enabled: getEnvAsBool("KAFKA_ENABLED", true),
			Brokers: getEnvAsCSV("KAFKA_BROKERS", []string{"localhost:9092"}),
			Topic:   getEnv("KAFKA_TOPIC", "order-lifecycle"),
			GroupID: getEnv("KAFKA_GROUP_ID", "ms_invoicing_core"),
		},
		PDFCache: PDFCacheSettings{
			Enabled: getEnvAsBool("PDF_CACHE_ENABLED", true),
			Dir:     getEnv("PDF_CACHE_DIR", "/var/cache/ms_invoicing_core/pdf"),
		},
		Audit: AuditSettings{
			Enabled:         getEnvAsBool("AUDIT_ENABLED", true),
			LogRequestBody:  getEnvAsBool("AUDIT_LOG_REQUEST_BODY", false),
			LogResponseBody: getEnvAsBool("AUDIT_LOG_RESPONSE_BODY", false),
			MaxBodySize:     getEnvAsInt("AUDIT_MAX_BODY_SIZE", 102400),
		},
	}

	if cfg.Invoicing.ShippingVATRate < 0 || cfg.Invoicing.ShippingVATRate > 100 {
		return cfg, errors.New("invalid config: INVOICE_SHIPPING_VAT_RATE must be between 0 and 100")
	}

	if cfg.Auth.Enabled {
		if cfg.Auth.IssuerURI == "" {
			return cfg, errors.New("invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true")
		}
		if cfg.Auth.JWKSetURI == "" {
			return cfg, errors.New("invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true")
		}
	}

	if cfg.Events.Enabled && len(cfg.Events.Brokers) == 0 {
		return cfg, errors.New("invalid config: KAFKA_BROKERS is required when KAFKA_ENABLED=true")
	}

	return cfg, nil
}

// Address returns the HTTP listen address in host:port form.
func (h HTTPSettings) Address() string {
	return fmt.Sprintf(":%d", h.Port)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsInt64(key string, fallback int64) int64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseInt(value, 10, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	if value, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		if parsed, err := time.ParseDuration(value); err == nil {
			return parsed
		}
	}
	return fallback
}

func getEnvAsCSV(key string, fallback []string) []string {
	raw := strings.TrimSpace(os.Getenv(key))
	if raw == "" {
		return fallback
	}

	parts := strings.Split(raw, ",")
	values := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			values = append(values, trimmed)
		}
	}
	if len(values) == 0 {
		return fallback
	}
	return values
}
