package security

import (
	"bytes"
	"compress/gzip"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strings"
	"unicode/utf8"
)

// Header names whose values never reach logs or audit records. X-API-KEY
// carries the Billingo credential.
var sensitiveHeaders = map[string]bool{
	"authorization":       true,
	"cookie":              true,
	"set-cookie":          true,
	"x-api-key":           true,
	"x-auth-token":        true,
	"proxy-authorization": true,
}

// JSON field and query parameter names treated as sensitive. Matched as
// substrings of the lowercased name.
var sensitiveFields = []string{
	"password",
	"secret",
	"token",
	"api_key",
	"apikey",
	"credential",
	"private_key",
}

const redactedValue = "[REDACTED]"

// SanitizeHeaders returns a flat copy of the headers with sensitive
// values redacted and multi-value headers joined with commas.
func SanitizeHeaders(headers http.Header) map[string]string {
	sanitized := make(map[string]string, len(headers))
	for key, values := range headers {
		if sensitiveHeaders[strings.ToLower(key)] {
			sanitized[key] = redactedValue
		} else {
			sanitized[key] = strings.Join(values, ", ")
		}
	}
	return sanitized
}

// SanitizeBody prepares a request or response body for storage: gzip
// payloads are decompressed, binary data (for example PDF downloads) is
// wrapped as base64, oversized bodies are truncated, and sensitive JSON
// fields are redacted. The result is always valid JSON.
func SanitizeBody(body []byte, maxSize int) json.RawMessage {
	if len(body) == 0 {
		return nil
	}

	if len(body) >= 2 && body[0] == 0x1f && body[1] == 0x8b {
		decompressed, err := decompressGzip(body)
		if err != nil {
			return wrapBinaryAsJSON(body, "gzip (decompression failed)")
		}
		body = decompressed
	}

	if !utf8.Valid(body) {
		return wrapBinaryAsJSON(body, "binary")
	}

	if maxSize > 0 && len(body) > maxSize {
		result, _ := json.Marshal(map[string]any{
			"_truncated": true,
			"_size":      len(body),
			"_preview":   string(body[:maxSize]),
		})
		return result
	}

	var data any
	if err := json.Unmarshal(body, &data); err != nil {
		return wrapTextAsJSON(body)
	}

	result, err := json.Marshal(sanitizeValue(data))
	if err != nil {
		return wrapTextAsJSON(body)
	}
	return result
}

// SanitizeURL redacts sensitive query parameter values. Malformed URLs
// are returned unchanged.
func SanitizeURL(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return rawURL
	}

	query := parsed.Query()
	changed := false
	for name := range query {
		if isSensitiveName(name) {
			query.Set(name, redactedValue)
			changed = true
		}
	}
	if !changed {
		return rawURL
	}

	parsed.RawQuery = query.Encode()
	return parsed.String()
}

func isSensitiveName(name string) bool {
	lower := strings.ToLower(name)
	for _, field := range sensitiveFields {
		if strings.Contains(lower, field) {
			return true
		}
	}
	return false
}

func decompressGzip(data []byte) ([]byte, error) {
	reader, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer reader.Close()
	return io.ReadAll(reader)
}

func wrapBinaryAsJSON(data []byte, format string) json.RawMessage {
	result, _ := json.Marshal(map[string]any{
		"_binary": true,
		"_format": format,
		"_size":   len(data),
		"_base64": base64.StdEncoding.EncodeToString(data),
	})
	return result
}

func wrapTextAsJSON(data []byte) json.RawMessage {
	result, _ := json.Marshal(map[string]any{
		"_raw":    string(data),
		"_format": "text",
	})
	return result
}

func sanitizeValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		sanitized := make(map[string]any, len(val))
		for key, value := range val {
			if isSensitiveName(key) {
				sanitized[key] = redactedValue
			} else {
				sanitized[key] = sanitizeValue(value)
			}
		}
		return sanitized
	case []any:
		sanitized := make([]any, len(val))
		for i, value := range val {
			sanitized[i] = sanitizeValue(value)
		}
		return sanitized
	default:
		return val
	}
}
