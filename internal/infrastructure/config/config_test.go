package config

import (
	"os"
	"testing"
	"time"
)

func TestLoad_DefaultValues(t *testing.T) {
	// Clear all relevant env vars
	envVars := []string{
		"APP_NAME", "APP_VERSION", "APP_ENV", "APP_PORT",
		"HTTP_READ_TIMEOUT", "HTTP_WRITE_TIMEOUT", "HTTP_IDLE_TIMEOUT", "HTTP_SHUTDOWN_TIMEOUT",
		"AUTH_ENABLED", "JWT_ISSUER_URI", "JWT_JWK_SET_URI", "AUTH_CLOCK_SKEW", "AUTH_BYPASS_PATHS",
		"LOG_LEVEL", "BILLINGO_BASE_URL", "BILLINGO_API_KEY", "BILLINGO_API_TIMEOUT",
		"INVOICE_BLOCK_ID", "INVOICE_LANGUAGE", "INVOICE_PAYMENT_METHOD", "INVOICE_SHIPPING_VAT_RATE",
		"KAFKA_ENABLED", "KAFKA_BROKERS", "KAFKA_TOPIC", "KAFKA_GROUP_ID",
		"INVOICE_CREATE_ZERO_TOTAL", "INVOICE_VALIDATE_TAX_NUMBER",
		"AUDIT_ENABLED", "AUDIT_LOG_REQUEST_BODY", "AUDIT_LOG_RESPONSE_BODY", "AUDIT_MAX_BODY_SIZE",
	}

	for _, key := range envVars {
		os.Unsetenv(key)
	}

	// Set AUTH_ENABLED=false to avoid requiring JWT config
	os.Setenv("AUTH_ENABLED", "false")
	defer os.Unsetenv("AUTH_ENABLED")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "ms_invoicing_core" {
		t.Errorf("expected default app name 'ms_invoicing_core', got %q", cfg.App.Name)
	}

	if cfg.App.Version != "0.1.0" {
		t.Errorf("expected default version '0.1.0', got %q", cfg.App.Version)
	}

	if cfg.HTTP.Port != 8080 {
		t.Errorf("expected default port 8080, got %d", cfg.HTTP.Port)
	}

	if cfg.Billingo.BaseURL != "https://api.billingo.hu/v3" {
		t.Errorf("expected default Billingo base URL, got %q", cfg.Billingo.BaseURL)
	}

	if cfg.Invoicing.Language != "hu" {
		t.Errorf("expected default language 'hu', got %q", cfg.Invoicing.Language)
	}

	if cfg.Invoicing.PaymentMethodLabel != "Átutalás" {
		t.Errorf("expected default payment method label 'Átutalás', got %q", cfg.Invoicing.PaymentMethodLabel)
	}

	if cfg.Invoicing.ShippingVATRate != 27 {
		t.Errorf("expected default shipping VAT rate 27, got %v", cfg.Invoicing.ShippingVATRate)
	}

	// The write timeout must outlast the 2-minute PDF download budget.
	if cfg.HTTP.WriteTimeout != 150*time.Second {
		t.Errorf("expected default write timeout 150s, got %v", cfg.HTTP.WriteTimeout)
	}
	if cfg.HTTP.WriteTimeout <= 2*time.Minute {
		t.Error("write timeout default must exceed the PDF route budget")
	}

	if cfg.Invoicing.QuantityUnit != "db" {
		t.Errorf("expected default quantity unit 'db', got %q", cfg.Invoicing.QuantityUnit)
	}

	if !cfg.Invoicing.ValidateTaxNumber {
		t.Error("expected tax number validation enabled by default")
	}

	if !cfg.Invoicing.CreateZeroInvoice {
		t.Error("expected zero-total invoicing enabled by default")
	}

	if cfg.Events.Topic != "order-lifecycle" {
		t.Errorf("expected default topic 'order-lifecycle', got %q", cfg.Events.Topic)
	}
	if !cfg.Audit.Enabled {
		t.Error("expected audit enabled by default")
	}
	if cfg.Audit.LogRequestBody || cfg.Audit.LogResponseBody {
		t.Error("expected body capture disabled by default")
	}
	if cfg.Audit.MaxBodySize != 102400 {
		t.Errorf("expected default audit max body size 102400, got %d", cfg.Audit.MaxBodySize)
	}
}

func TestLoad_WithCustomValues(t *testing.T) {
	os.Setenv("APP_NAME", "test-app")
	os.Setenv("APP_PORT", "9090")
	os.Setenv("AUTH_ENABLED", "false")
	os.Setenv("BILLINGO_API_KEY", "  key-123  ")
	os.Setenv("INVOICE_BLOCK_ID", "42")
	os.Setenv("INVOICE_SHIPPING_VAT_RATE", "5")
	os.Setenv("KAFKA_BROKERS", "broker1:9092, broker2:9092")
	defer func() {
		os.Unsetenv("APP_NAME")
		os.Unsetenv("APP_PORT")
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("BILLINGO_API_KEY")
		os.Unsetenv("INVOICE_BLOCK_ID")
		os.Unsetenv("INVOICE_SHIPPING_VAT_RATE")
		os.Unsetenv("KAFKA_BROKERS")
	}()

	cfg, err := Load()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if cfg.App.Name != "test-app" {
		t.Errorf("expected app name 'test-app', got %q", cfg.App.Name)
	}

	if cfg.HTTP.Port != 9090 {
		t.Errorf("expected port 9090, got %d", cfg.HTTP.Port)
	}

	if cfg.Billingo.APIKey != "key-123" {
		t.Errorf("expected trimmed API key 'key-123', got %q", cfg.Billingo.APIKey)
	}

	if cfg.Invoicing.DocumentBlockID != 42 {
		t.Errorf("expected block id 42, got %d", cfg.Invoicing.DocumentBlockID)
	}

	if cfg.Invoicing.ShippingVATRate != 5 {
		t.Errorf("expected shipping VAT rate 5, got %v", cfg.Invoicing.ShippingVATRate)
	}

	if len(cfg.Events.Brokers) != 2 || cfg.Events.Brokers[1] != "broker2:9092" {
		t.Errorf("expected two trimmed brokers, got %v", cfg.Events.Brokers)
	}
}

func TestLoad_AuthEnabled_MissingIssuerURI(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "true")
	os.Unsetenv("JWT_ISSUER_URI")
	os.Unsetenv("JWT_JWK_SET_URI")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_ISSUER_URI is missing")
	}

	if err.Error() != "invalid config: JWT_ISSUER_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_AuthEnabled_MissingJWKSetURI(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "true")
	os.Setenv("JWT_ISSUER_URI", "https://issuer.example.com")
	os.Unsetenv("JWT_JWK_SET_URI")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("JWT_ISSUER_URI")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error when AUTH_ENABLED=true and JWT_JWK_SET_URI is missing")
	}

	if err.Error() != "invalid config: JWT_JWK_SET_URI is required when AUTH_ENABLED=true" {
		t.Errorf("unexpected error message: %v", err)
	}
}

func TestLoad_InvalidShippingVATRate(t *testing.T) {
	os.Setenv("AUTH_ENABLED", "false")
	os.Setenv("INVOICE_SHIPPING_VAT_RATE", "150")
	defer func() {
		os.Unsetenv("AUTH_ENABLED")
		os.Unsetenv("INVOICE_SHIPPING_VAT_RATE")
	}()

	_, err := Load()
	if err == nil {
		t.Fatal("expected error for out-of-range shipping VAT rate")
	}
}

func TestHTTPSettings_Address(t *testing.T) {
	settings := HTTPSettings{Port: 8080}
	addr := settings.Address()

	if addr != ":8080" {
		t.Errorf("expected address ':8080', got %q", addr)
	}
}

func TestGetEnv(t *testing.T) {
	os.Setenv("TEST_KEY", "test-value")
	defer os.Unsetenv("TEST_KEY")

	value := getEnv("TEST_KEY", "default")
	if value != "test-value" {
		t.Errorf("expected 'test-value', got %q", value)
	}

	value = getEnv("NON_EXISTENT_KEY", "default-value")
	if value != "default-value" {
		t.Errorf("expected 'default-value', got %q", value)
	}
}

func TestGetEnvAsBool(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback bool
		expected bool
	}{
		{"true value", "true", false, true},
		{"false value", "false", true, false},
		{"True value", "True", false, true},
		{"FALSE value", "FALSE", true, false},
		{"invalid value", "invalid", true, true},
		{"missing key", "", false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_BOOL", tt.envValue)
				defer os.Unsetenv("TEST_BOOL")
			} else {
				os.Unsetenv("TEST_BOOL")
			}

			result := getEnvAsBool("TEST_BOOL", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsInt(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback int
		expected int
	}{
		{"valid int", "123", 0, 123},
		{"zero", "0", 999, 0},
		{"negative", "-10", 0, -10},
		{"invalid value", "not-a-number", 42, 42},
		{"missing key", "", 42, 42},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_INT", tt.envValue)
				defer os.Unsetenv("TEST_INT")
			} else {
				os.Unsetenv("TEST_INT")
			}

			result := getEnvAsInt("TEST_INT", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %d, got %d", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsFloat(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback float64
		expected float64
	}{
		{"valid float", "27.5", 0, 27.5},
		{"integer form", "27", 0, 27},
		{"invalid value", "not-a-number", 18, 18},
		{"missing key", "", 18, 18},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_FLOAT", tt.envValue)
				defer os.Unsetenv("TEST_FLOAT")
			} else {
				os.Unsetenv("TEST_FLOAT")
			}

			result := getEnvAsFloat("TEST_FLOAT", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsDuration(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback time.Duration
		expected time.Duration
	}{
		{"valid duration", "10s", 0, 10 * time.Second},
		{"minutes", "5m", 0, 5 * time.Minute},
		{"hours", "2h", 0, 2 * time.Hour},
		{"invalid value", "not-a-duration", 30 * time.Second, 30 * time.Second},
		{"empty value", "", 30 * time.Second, 30 * time.Second},
		{"missing key", "", 30 * time.Second, 30 * time.Second},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_DURATION", tt.envValue)
				defer os.Unsetenv("TEST_DURATION")
			} else {
				os.Unsetenv("TEST_DURATION")
			}

			result := getEnvAsDuration("TEST_DURATION", tt.fallback)
			if result != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, result)
			}
		})
	}
}

func TestGetEnvAsCSV(t *testing.T) {
	tests := []struct {
		name     string
		envValue string
		fallback []string
		expected []string
	}{
		{
			name:     "single value",
			envValue: "value1",
			fallback: []string{"default"},
			expected: []string{"value1"},
		},
		{
			name:     "multiple values",
			envValue: "value1,value2,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "with spaces",
			envValue: "value1, value2 , value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty values filtered",
			envValue: "value1,,value2, ,value3",
			fallback: []string{"default"},
			expected: []string{"value1", "value2", "value3"},
		},
		{
			name:     "empty string",
			envValue: "",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "only spaces",
			envValue: " , , ",
			fallback: []string{"default"},
			expected: []string{"default"},
		},
		{
			name:     "missing key",
			envValue: "",
			fallback: []string{"default1", "default2"},
			expected: []string{"default1", "default2"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.envValue != "" {
				os.Setenv("TEST_CSV", tt.envValue)
				defer os.Unsetenv("TEST_CSV")
			} else {
				os.Unsetenv("TEST_CSV")
			}

			result := getEnvAsCSV("TEST_CSV", tt.fallback)
			if len(result) != len(tt.expected) {
				t.Errorf("expected %d values, got %d", len(tt.expected), len(result))
				return
			}

			for i, expected := range tt.expected {
				if result[i] != expected {
					t.Errorf("expected[%d] %q, got %q", i, expected, result[i])
				}
			}
		})
	}
}
