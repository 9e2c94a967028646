package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"cartbill/ms_invoicing_core/internal/core/audit"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository implements audit.Repository on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository creates a new PostgreSQL audit repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// Save persists an audit record.
func (r *Repository) Save(ctx context.Context, record audit.ProviderAuditLog) error {
	query := `
		INSERT INTO provider_audit_log (
			correlation_id, provider, operation, request_method, request_url,
			request_headers, request_body, response_status, response_headers,
			response_body, duration_ms, error_message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	requestHeadersJSON, err := json.Marshal(record.RequestHeaders)
	if err != nil {
		return fmt.Errorf("marshal request headers: %w", err)
	}

	responseHeadersJSON, err := json.Marshal(record.ResponseHeaders)
	if err != nil {
		return fmt.Errorf("marshal response headers: %w", err)
	}

	// Empty bodies persist as NULL, not as empty JSON.
	var requestBody, responseBody any
	if len(record.RequestBody) > 0 {
		requestBody = record.RequestBody
	}
	if len(record.ResponseBody) > 0 {
		responseBody = record.ResponseBody
	}

	_, err = r.pool.Exec(ctx, query,
		record.CorrelationID,
		record.Provider,
		record.Operation,
		record.RequestMethod,
		record.RequestURL,
		requestHeadersJSON,
		requestBody,
		record.ResponseStatus,
		responseHeadersJSON,
		responseBody,
		record.DurationMs,
		record.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("insert audit log: %w", err)
	}

	return nil
}

// FindByCorrelationID retrieves all audit records for a correlation ID,
// newest first.
func (r *Repository) FindByCorrelationID(ctx context.Context, correlationID string) ([]audit.ProviderAuditLog, error) {
	query := `
		SELECT id, correlation_id, provider, operation, request_method, request_url,
		       request_headers, request_body, response_status, response_headers,
		       response_body, duration_ms, error_message, created_at
		FROM provider_audit_log
		WHERE correlation_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, correlationID)
	if err != nil {
		return nil, fmt.Errorf("query audit logs: %w", err)
	}
	defer rows.Close()

	var records []audit.ProviderAuditLog
	for rows.Next() {
		var record audit.ProviderAuditLog
		var requestHeadersJSON, responseHeadersJSON []byte
		var requestBody, responseBody []byte

		err := rows.Scan(
			&record.ID,
			&record.CorrelationID,
			&record.Provider,
			&record.Operation,
			&record.RequestMethod,
			&record.RequestURL,
			&requestHeadersJSON,
			&requestBody,
			&record.ResponseStatus,
			&responseHeadersJSON,
			&responseBody,
			&record.DurationMs,
			&record.ErrorMessage,
			&record.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit log: %w", err)
		}

		if err := json.Unmarshal(requestHeadersJSON, &record.RequestHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal request headers: %w", err)
		}
		if err := json.Unmarshal(responseHeadersJSON, &record.ResponseHeaders); err != nil {
			return nil, fmt.Errorf("unmarshal response headers: %w", err)
		}

		record.RequestBody = requestBody
		record.ResponseBody = responseBody

		records = append(records, record)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}

	return records, nil
}
