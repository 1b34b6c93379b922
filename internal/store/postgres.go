package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"

	"github.com/jmoiron/sqlx"

	"github.com/PesaGate/pesa_api/internal/models"
)

// PostgresStore persists pending records in the operations table.
type PostgresStore struct {
	db *sqlx.DB
}

// NewPostgresStore creates a PostgresStore on an established connection.
func NewPostgresStore(db *sqlx.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// nullableJSON converts empty raw JSON to nil for proper NULL handling in PostgreSQL.
func nullableJSON(v json.RawMessage) interface{} {
	if len(v) == 0 {
		return nil
	}
	return string(v)
}

// Put upserts a record keyed by conversation id.
func (s *PostgresStore) Put(ctx context.Context, rec *models.PendingRecord) error {
	const q = `
        INSERT INTO operations (
            operation_id, conversation_id, originator_conversation_id, kind,
            status, result_code, result_desc, result_params, submitted_at, completed_at
        ) VALUES (
            $1, $2, $3, $4,
            $5, $6, $7, $8, $9, $10
        )
        ON CONFLICT (conversation_id) DO UPDATE SET
            status = EXCLUDED.status,
            result_code = EXCLUDED.result_code,
            result_desc = EXCLUDED.result_desc,
            result_params = EXCLUDED.result_params,
            completed_at = EXCLUDED.completed_at`
	_, err := s.db.ExecContext(ctx, q,
		rec.OperationID, rec.ConversationID, rec.OriginatorConversationID, rec.Kind,
		rec.Status, rec.ResultCode, rec.ResultDesc, nullableJSON(rec.ResultParams),
		rec.SubmittedAt, rec.CompletedAt,
	)
	return err
}

// GetByConversationID returns the record for a conversation id.
func (s *PostgresStore) GetByConversationID(ctx context.Context, conversationID string) (*models.PendingRecord, error) {
	const q = `SELECT * FROM operations WHERE conversation_id = $1`
	var rec models.PendingRecord
	if err := s.db.GetContext(ctx, &rec, q, conversationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// GetByOperationID returns the record for an operation id.
func (s *PostgresStore) GetByOperationID(ctx context.Context, operationID string) (*models.PendingRecord, error) {
	const q = `SELECT * FROM operations WHERE operation_id = $1`
	var rec models.PendingRecord
	if err := s.db.GetContext(ctx, &rec, q, operationID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &rec, nil
}

// List returns all records, newest submission first.
func (s *PostgresStore) List(ctx context.Context) ([]*models.PendingRecord, error) {
	const q = `SELECT * FROM operations ORDER BY submitted_at DESC`
	var recs []*models.PendingRecord
	if err := s.db.SelectContext(ctx, &recs, q); err != nil {
		return nil, err
	}
	return recs, nil
}
