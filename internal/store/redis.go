package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/redis/go-redis/v9"

	"github.com/PesaGate/pesa_api/internal/cache"
	"github.com/PesaGate/pesa_api/internal/models"
)

const (
	redisConvKeyPrefix = "op:conv:"
	redisOpKeyPrefix   = "op:id:"
	redisIndexKey      = "op:index"
)

// RedisStore persists pending records in Redis. Records survive process
// restarts, so callbacks arriving after a redeploy still correlate.
type RedisStore struct {
	client *cache.RedisClient
}

// NewRedisStore creates a RedisStore on an established connection.
func NewRedisStore(client *cache.RedisClient) *RedisStore {
	return &RedisStore{client: client}
}

// Put upserts a record keyed by conversation id and maintains the operation-id
// index. Records are kept indefinitely; trimming is an operational task.
func (s *RedisStore) Put(ctx context.Context, rec *models.PendingRecord) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("failed to marshal record: %w", err)
	}
	if err := s.client.Set(ctx, redisConvKeyPrefix+rec.ConversationID, string(raw), 0); err != nil {
		return err
	}
	if err := s.client.Set(ctx, redisOpKeyPrefix+rec.OperationID, rec.ConversationID, 0); err != nil {
		return err
	}
	return s.client.SAdd(ctx, redisIndexKey, rec.ConversationID)
}

// GetByConversationID returns the record for a conversation id.
func (s *RedisStore) GetByConversationID(ctx context.Context, conversationID string) (*models.PendingRecord, error) {
	raw, err := s.client.Get(ctx, redisConvKeyPrefix+conversationID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	var rec models.PendingRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		return nil, fmt.Errorf("failed to unmarshal record: %w", err)
	}
	return &rec, nil
}

// GetByOperationID resolves the operation-id index and returns the record.
func (s *RedisStore) GetByOperationID(ctx context.Context, operationID string) (*models.PendingRecord, error) {
	conv, err := s.client.Get(ctx, redisOpKeyPrefix+operationID)
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return s.GetByConversationID(ctx, conv)
}

// List returns all records, newest submission first.
func (s *RedisStore) List(ctx context.Context) ([]*models.PendingRecord, error) {
	ids, err := s.client.SMembers(ctx, redisIndexKey)
	if err != nil {
		return nil, err
	}
	out := make([]*models.PendingRecord, 0, len(ids))
	for _, id := range ids {
		rec, err := s.GetByConversationID(ctx, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				continue
			}
			return nil, err
		}
		out = append(out, rec)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SubmittedAt.After(out[j].SubmittedAt)
	})
	return out, nil
}
