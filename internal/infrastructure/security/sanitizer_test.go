package security

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
)

func TestSanitizeHeaders(t *testing.T) {
	tests := []struct {
		name     string
		headers  http.Header
		expected map[string]string
	}{
		{
			name: "sensitive headers are redacted",
			headers: http.Header{
				"Authorization": []string{"Bearer secret-token"},
				"Cookie":        []string{"session=abc123"},
				"Content-Type":  []string{"application/json"},
				"X-Api-Key":     []string{"billingo-key-123"},
			},
			expected: map[string]string{
				"Authorization": "[REDACTED]",
				"Cookie":        "[REDACTED]",
				"Content-Type":  "application/json",
				"X-Api-Key":     "[REDACTED]",
			},
		},
		{
			name: "multiple values are joined",
			headers: http.Header{
				"Accept": []string{"application/json", "application/pdf"},
			},
			expected: map[string]string{
				"Accept": "application/json, application/pdf",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := SanitizeHeaders(tt.headers)
			for key, expectedValue := range tt.expected {
				if result[key] != expectedValue {
					t.Errorf("expected %s=%s, got %s", key, expectedValue, result[key])
				}
			}
		})
	}
}

func TestSanitizeBodyRedactsFields(t *testing.T) {
	body := []byte(`{"name":"Acme Kft.","api_key":"secret-123","nested":{"password":"hunter2","taxcode":"12345678-2-42"}}`)

	result := SanitizeBody(body, 0)

	var data map[string]any
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}

	if data["api_key"] != "[REDACTED]" {
		t.Errorf("expected api_key redacted, got %v", data["api_key"])
	}
	nested := data["nested"].(map[string]any)
	if nested["password"] != "[REDACTED]" {
		t.Errorf("expected password redacted, got %v", nested["password"])
	}
	if nested["taxcode"] != "12345678-2-42" {
		t.Errorf("tax code should not be redacted, got %v", nested["taxcode"])
	}
	if data["name"] != "Acme Kft." {
		t.Errorf("expected name preserved, got %v", data["name"])
	}
}

func TestSanitizeBodyBinary(t *testing.T) {
	// PDF magic bytes followed by binary garbage.
	body := []byte{0x25, 0x50, 0x44, 0x46, 0xff, 0xfe, 0x00, 0x01}

	result := SanitizeBody(body, 0)

	var data map[string]any
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if data["_binary"] != true {
		t.Error("expected binary body to be wrapped")
	}
	if data["_size"].(float64) != 8 {
		t.Errorf("expected size 8, got %v", data["_size"])
	}
}

func TestSanitizeBodyGzip(t *testing.T) {
	var buf bytes.Buffer
	w := gzip.NewWriter(&buf)
	w.Write([]byte(`{"token":"abc","invoice_number":"INV-1"}`))
	w.Close()

	result := SanitizeBody(buf.Bytes(), 0)

	var data map[string]any
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if data["token"] != "[REDACTED]" {
		t.Errorf("expected token redacted after decompression, got %v", data["token"])
	}
	if data["invoice_number"] != "INV-1" {
		t.Errorf("expected invoice_number preserved, got %v", data["invoice_number"])
	}
}

func TestSanitizeBodyTruncates(t *testing.T) {
	body := []byte(`{"data":"` + strings.Repeat("x", 1000) + `"}`)

	result := SanitizeBody(body, 100)

	var data map[string]any
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if data["_truncated"] != true {
		t.Error("expected body to be truncated")
	}
}

func TestSanitizeBodyPlainText(t *testing.T) {
	result := SanitizeBody([]byte("not json at all"), 0)

	var data map[string]any
	if err := json.Unmarshal(result, &data); err != nil {
		t.Fatalf("result is not valid JSON: %v", err)
	}
	if data["_raw"] != "not json at all" {
		t.Errorf("expected raw text preserved, got %v", data["_raw"])
	}
}

func TestSanitizeURL(t *testing.T) {
	tests := []struct {
		name     string
		url      string
		expected string
	}{
		{
			name:     "redacts api key parameter",
			url:      "https://api.billingo.hu/v3/documents?api_key=secret123&page=2",
			expected: "https://api.billingo.hu/v3/documents?api_key=%5BREDACTED%5D&page=2",
		},
		{
			name:     "leaves clean urls alone",
			url:      "https://api.billingo.hu/v3/documents?page=2",
			expected: "https://api.billingo.hu/v3/documents?page=2",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SanitizeURL(tt.url); got != tt.expected {
				t.Errorf("expected %s, got %s", tt.expected, got)
			}
		})
	}
}
